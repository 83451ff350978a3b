package analysis

import (
	"context"

	"github.com/bryanwahyu/aura-impact/internal/domain/points"
)

// Repository port for analysis results
type Repository interface {
	// CreateWithLedger stores r and its ledger entry in one transaction.
	CreateWithLedger(ctx context.Context, r *Result, entry *points.LedgerEntry) error
	Get(ctx context.Context, owner string, id ResultID) (*Result, error)
	Paginate(ctx context.Context, owner string, page, pageSize int) (PaginatedResult, error)
	Recent(ctx context.Context, owner string, limit int) ([]*Result, error)
	Count(ctx context.Context, owner string) (int64, error)
	RatingDistribution(ctx context.Context, owner string) (map[Rating]int, error)
}

// TextExtractor turns an image into ingredient text.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte) (text string, provider string, err error)
}

// Scorer assesses ingredient text. It always returns a score.
type Scorer interface {
	Score(ctx context.Context, productName, ingredientText string) RawScore
}

// ImageArchive keeps the source photo of an analysis.
type ImageArchive interface {
	PutImage(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
}
