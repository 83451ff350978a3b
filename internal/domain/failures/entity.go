package failures

import "time"

// Stage names the pipeline step that failed.
type Stage string

const (
	StageValidation Stage = "validation"
	StageOCR        Stage = "ocr"
	StageStorage    Stage = "storage"
	StageTimeout    Stage = "timeout"
)

// Failure is a persisted record of an analysis that ended in Failed.
type Failure struct {
	ID          int64     `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Stage       Stage     `json:"stage"`
	Message     string    `json:"message"`
	DetailsJSON string    `json:"details_json,omitempty"` // raw JSON string
	CreatedAt   time.Time `json:"created_at"`
}
