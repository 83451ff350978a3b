package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domai "github.com/bryanwahyu/aura-impact/internal/domain/ai"
	"github.com/bryanwahyu/aura-impact/internal/domain/analysis"
)

type fakeClient struct {
	content string
	err     error
	calls   int
	last    domai.ScoreRequest
}

func (f *fakeClient) Analyze(_ context.Context, req domai.ScoreRequest) (string, error) {
	f.calls++
	f.last = req
	return f.content, f.err
}

type countingMetrics struct{ reasons []string }

func (m *countingMetrics) ScoringFallback(reason string) { m.reasons = append(m.reasons, reason) }

func TestScore_ParsesProviderReply(t *testing.T) {
	client := &fakeClient{content: "```json\n" +
		`{"detected_product_name":"Aloe Gel","rating":"friendly","points":90,"analysis":"Mostly plant based.","alternatives":"None needed."}` +
		"\n```"}
	svc := NewService(client, zerolog.Nop(), nil)

	raw := svc.Score(context.Background(), "Gel", "Aloe Vera, Water")
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, "Gel", client.last.ProductName)
	assert.False(t, raw.Fallback)

	n := analysis.Normalize(raw)
	assert.Equal(t, analysis.RatingFriendly, n.Rating)
	assert.Equal(t, 90, n.Points)
	assert.Equal(t, "Aloe Gel", n.ProductName)
}

func TestScore_FallbackOnTransportError(t *testing.T) {
	m := &countingMetrics{}
	svc := NewService(&fakeClient{err: errors.New("dial tcp: connection refused")}, zerolog.Nop(), m)

	raw := svc.Score(context.Background(), "Shampoo", "Water, Sodium Laureth Sulfate")
	require.True(t, raw.Fallback)
	n := analysis.Normalize(raw)
	assert.Equal(t, analysis.RatingModerate, n.Rating)
	assert.Equal(t, 50, n.Points)
	assert.Contains(t, n.Explanation, "Unable to complete analysis for Shampoo at this time.")
	assert.Len(t, m.reasons, 1)
}

func TestScore_FallbackOnQuota(t *testing.T) {
	svc := NewService(&fakeClient{err: fmt.Errorf("wrap: %w", domai.ErrQuotaExceeded)}, zerolog.Nop(), nil)
	raw := svc.Score(context.Background(), "", "Water")
	assert.True(t, raw.Fallback)
	assert.Contains(t, raw.Explanation, "Unable to complete analysis at this time. The analysis service is busy.")
	assert.Equal(t, "Product", raw.DetectedProductName)
}

func TestScore_FallbackOnSchemaFailure(t *testing.T) {
	for _, content := range []string{
		"I think this product is fine",
		`{"rating":"friendly"}`,
		`[]`,
	} {
		svc := NewService(&fakeClient{content: content}, zerolog.Nop(), nil)
		raw := svc.Score(context.Background(), "Soap", "Water")
		assert.True(t, raw.Fallback, content)
		assert.Equal(t, 50, raw.Points)
	}
}

func TestScore_EmptyIngredientsSkipsProvider(t *testing.T) {
	client := &fakeClient{}
	svc := NewService(client, zerolog.Nop(), nil)
	raw := svc.Score(context.Background(), "Soap", "   ")
	assert.Equal(t, 0, client.calls)
	assert.True(t, raw.Fallback)
	assert.Contains(t, raw.Explanation, "No ingredients provided.")
}

func TestFallbackScore_Normalizes(t *testing.T) {
	n := analysis.Normalize(FallbackScore("Dish Soap", "Timeout."))
	assert.Equal(t, "Dish Soap", n.ProductName)
	assert.Equal(t, analysis.RatingModerate, n.Rating)
	assert.Equal(t, 50, n.Points)
	assert.True(t, n.Fallback)
	assert.Contains(t, n.Alternatives, "certified organic ingredients")
}
