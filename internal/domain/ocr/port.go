package ocr

import (
	"context"
	"errors"
)

// ErrNoText is returned by an extractor that ran but found no usable text.
var ErrNoText = errors.New("no text found in image")

// Extractor is one text extraction strategy. Strategies are tried in order
// until one returns non-empty text.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, image []byte) (string, error)
}

// Throttle enforces a minimum interval between calls to a hosted provider.
type Throttle interface {
	// Wait blocks until a call may start and reserves the slot.
	Wait(ctx context.Context) error
	// Done marks the end of a call; the interval restarts from here.
	Done(ctx context.Context)
}
