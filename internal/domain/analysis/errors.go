package analysis

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when an analysis does not exist for the owner.
var ErrNotFound = errors.New("analysis not found")

// ValidationError reports bad caller input. It is raised before any
// external call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// OCRError means every text extraction strategy failed.
type OCRError struct {
	Reason   string
	Attempts []error
}

func (e *OCRError) Error() string {
	if len(e.Attempts) == 0 {
		return "ocr failed: " + e.Reason
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Error())
	}
	return fmt.Sprintf("ocr failed: %s (%s)", e.Reason, strings.Join(parts, "; "))
}

func (e *OCRError) Unwrap() []error { return e.Attempts }

// ScoringError describes a scoring provider failure. It is logged and
// replaced by a fallback score, never returned to callers of the pipeline.
type ScoringError struct {
	Reason string
	Err    error
}

func (e *ScoringError) Error() string {
	if e.Err == nil {
		return "scoring failed: " + e.Reason
	}
	return fmt.Sprintf("scoring failed: %s: %v", e.Reason, e.Err)
}

func (e *ScoringError) Unwrap() error { return e.Err }

// PersistenceError wraps a failed write of the result and its ledger entry.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
