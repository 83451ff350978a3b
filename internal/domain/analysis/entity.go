package analysis

import "time"

// ResultID identifier type
type ResultID string

// Field limits enforced by the normalizer and the store schema.
const (
	MaxProductNameLen  = 200
	MaxExplanationLen  = 10000
	MaxAlternativesLen = 5000
	MaxIngredientLen   = 20000
)

// TextSource records where the ingredient text came from.
const (
	TextSourceTyped = "typed"
	textSourceOCR   = "ocr:"
)

// OCRTextSource returns the TextSource value for text extracted by provider.
func OCRTextSource(provider string) string { return textSourceOCR + provider }

// Request is the ephemeral input of one analysis.
type Request struct {
	OwnerID          string
	ProductName      string
	IngredientText   string
	Image            []byte
	ImageContentType string
}

// Result is a persisted, immutable analysis.
type Result struct {
	ID               ResultID  `json:"id"`
	OwnerID          string    `json:"owner_id"`
	ProductName      string    `json:"product_name"`
	IngredientText   string    `json:"ingredient_text"`
	Rating           Rating    `json:"rating"`
	PointsAwarded    int       `json:"points_awarded"`
	ExplanationText  string    `json:"explanation_text"`
	AlternativesText string    `json:"alternatives_text"`
	TextSource       string    `json:"text_source"`
	ImageURL         string    `json:"image_url,omitempty"`
	ScoringFallback  bool      `json:"scoring_fallback"`
	CreatedAt        time.Time `json:"created_at"`
}

// RawScore is the untrusted output of the scoring provider. Field values keep
// whatever JSON type the provider produced; Normalize coerces them.
type RawScore struct {
	// SuppliedName is the caller's product name, not provider output.
	SuppliedName        string
	DetectedProductName any
	Rating              any
	Points              any
	Explanation         any
	Alternatives        any

	// Fallback is set when the provider failed and a canned score was used.
	Fallback bool
}

// NormalizedScore is a RawScore after every coercion rule was applied.
type NormalizedScore struct {
	ProductName  string
	Rating       Rating
	Points       int
	Explanation  string
	Alternatives string
	Fallback     bool
}

// Raw turns n back into a RawScore, so normalization can be re-applied.
func (n NormalizedScore) Raw(suppliedName string) RawScore {
	return RawScore{
		SuppliedName:        suppliedName,
		DetectedProductName: n.ProductName,
		Rating:              string(n.Rating),
		Points:              n.Points,
		Explanation:         n.Explanation,
		Alternatives:        n.Alternatives,
		Fallback:            n.Fallback,
	}
}

// PaginatedResult is one page of an owner's analysis history.
type PaginatedResult struct {
	Data       []*Result `json:"data"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	Total      int64     `json:"totalItems"`
	TotalPages int       `json:"totalPages"`
}
