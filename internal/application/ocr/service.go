package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/aura-impact/internal/domain/analysis"
	domain "github.com/bryanwahyu/aura-impact/internal/domain/ocr"
)

// DefaultMaxImageBytes is the upload cap (16 MiB).
const DefaultMaxImageBytes = 16 << 20

// Metrics observed by the OCR service.
type Metrics interface {
	OCRAttempt(provider, outcome string)
}

// Service is the OCR adapter: an ordered chain of extraction strategies.
type Service struct {
	Extractors    []domain.Extractor
	MaxImageBytes int
	Log           zerolog.Logger
	Metrics       Metrics
}

// ExtractText implements analysis.TextExtractor. The first strategy that
// yields non-empty text wins; an OCRError is returned only when all failed.
func (s *Service) ExtractText(ctx context.Context, image []byte) (string, string, error) {
	if len(image) == 0 {
		return "", "", &analysis.ValidationError{Field: "image", Message: "image is empty"}
	}
	limit := s.MaxImageBytes
	if limit <= 0 {
		limit = DefaultMaxImageBytes
	}
	if len(image) > limit {
		return "", "", &analysis.ValidationError{
			Field:   "image",
			Message: fmt.Sprintf("image exceeds %d bytes", limit),
		}
	}
	if len(s.Extractors) == 0 {
		return "", "", &analysis.OCRError{Reason: "no text extraction provider configured"}
	}

	var attempts []error
	for _, ex := range s.Extractors {
		if err := ctx.Err(); err != nil {
			attempts = append(attempts, err)
			break
		}
		text, err := ex.Extract(ctx, image)
		text = strings.TrimSpace(text)
		if err == nil && text == "" {
			err = domain.ErrNoText
		}
		if err != nil {
			s.Log.Warn().Err(err).Str("provider", ex.Name()).Msg("ocr provider failed, trying next")
			s.observe(ex.Name(), "error")
			attempts = append(attempts, fmt.Errorf("%s: %w", ex.Name(), err))
			continue
		}
		s.observe(ex.Name(), "ok")
		s.Log.Debug().Str("provider", ex.Name()).Int("chars", len(text)).Msg("ocr text extracted")
		return text, ex.Name(), nil
	}

	reason := "Could not read any text from the image. Please try a clearer photo or type the ingredients."
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		reason = "Text extraction timed out. Please try again."
	}
	return "", "", &analysis.OCRError{Reason: reason, Attempts: attempts}
}

func (s *Service) observe(provider, outcome string) {
	if s.Metrics != nil {
		s.Metrics.OCRAttempt(provider, outcome)
	}
}
