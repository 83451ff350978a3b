// Package tesseract is the local OCR strategy used when hosted providers
// fail.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/bryanwahyu/aura-impact/internal/domain/ocr"
)

// DefaultPSMs: uniform block, single column, sparse text.
var DefaultPSMs = []int{6, 4, 11}

const defaultMinLineLen = 3

// Engine tries every filter and page segmentation mode and keeps the
// richest cleaned text.
type Engine struct {
	Recognizer Recognizer
	Filters    []Filter
	PSMs       []int
	MinLineLen int
	Log        zerolog.Logger
}

func NewEngine(rec Recognizer, log zerolog.Logger) *Engine {
	return &Engine{
		Recognizer: rec,
		Filters:    DefaultFilters(),
		PSMs:       DefaultPSMs,
		MinLineLen: defaultMinLineLen,
		Log:        log,
	}
}

func (e *Engine) Name() string { return "tesseract" }

// Extract implements ocr.Extractor.
func (e *Engine) Extract(ctx context.Context, image []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(image), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	gray := Prepare(img)

	var best string
	var lastErr error
	for _, f := range e.Filters {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, f.Apply(gray), imaging.PNG); err != nil {
			lastErr = fmt.Errorf("encode %s: %w", f.Name, err)
			continue
		}
		for _, psm := range e.PSMs {
			if err := ctx.Err(); err != nil {
				return pick(best, err)
			}
			raw, err := e.Recognizer.Recognize(ctx, buf.Bytes(), psm)
			if err != nil {
				lastErr = err
				e.Log.Debug().Err(err).Str("filter", f.Name).Int("psm", psm).Msg("tesseract attempt failed")
				continue
			}
			text := Clean(raw, e.MinLineLen)
			if utf8.RuneCountInString(text) > utf8.RuneCountInString(best) {
				best = text
			}
		}
	}
	return pick(best, lastErr)
}

func pick(best string, err error) (string, error) {
	if best != "" {
		return best, nil
	}
	if err != nil {
		return "", err
	}
	return "", ocr.ErrNoText
}

// Clean trims lines, drops those shorter than minLen runes and removes
// duplicates keeping the first occurrence.
func Clean(raw string, minLen int) string {
	seen := make(map[string]struct{})
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if utf8.RuneCountInString(line) < minLen {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
