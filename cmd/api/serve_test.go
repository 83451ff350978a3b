package main

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/aura-impact/internal/config"
	"github.com/bryanwahyu/aura-impact/internal/domain/ocr"
	"github.com/bryanwahyu/aura-impact/internal/infra/throttle"
)

func TestBuildExtractors_HostedProvidersShareThrottle(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	cfg := config.Default()
	cfg.OCR.Order = []string{"ocrspace", "rekognition"}
	cfg.OCR.OCRSpace.APIKey = "key"
	cfg.OCR.Rekognition.Region = "us-east-1"
	thr := throttle.NewMemory(time.Second)

	got := buildExtractors(context.Background(), cfg, thr, zerolog.Nop())
	require.Len(t, got, 2)
	for _, ex := range got {
		hosted, ok := ex.(interface{ Throttle() ocr.Throttle })
		require.True(t, ok, ex.Name())
		assert.Same(t, thr, hosted.Throttle(), ex.Name())
	}
}

func TestBuildExtractors_SkipsUnconfigured(t *testing.T) {
	cfg := config.Default()
	cfg.OCR.Order = []string{"ocrspace"}
	assert.Empty(t, buildExtractors(context.Background(), cfg, throttle.NewMemory(0), zerolog.Nop()))
}
