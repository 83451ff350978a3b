package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/aura-impact/internal/domain/ai"
	"github.com/bryanwahyu/aura-impact/internal/domain/analysis"
)

const fallbackAlternatives = "Look for products with certified organic ingredients, minimal packaging, " +
	"and clear sustainability certifications. Consider DIY alternatives using natural ingredients."

// Metrics observed by the scoring service.
type Metrics interface {
	ScoringFallback(reason string)
}

// Service is the scoring adapter. It never fails: provider errors are
// logged and replaced by a fallback score.
type Service struct {
	client  ai.Client
	log     zerolog.Logger
	metrics Metrics
}

func NewService(client ai.Client, log zerolog.Logger, metrics Metrics) *Service {
	return &Service{client: client, log: log, metrics: metrics}
}

// Score implements analysis.Scorer.
func (s *Service) Score(ctx context.Context, productName, ingredientText string) analysis.RawScore {
	productName = strings.TrimSpace(productName)
	if strings.TrimSpace(ingredientText) == "" {
		return s.fallback(productName, &analysis.ScoringError{Reason: "No ingredients provided."})
	}

	content, err := s.client.Analyze(ctx, ai.ScoreRequest{
		ProductName:    productName,
		IngredientText: ingredientText,
	})
	if err != nil {
		reason := "The analysis service is unavailable."
		if errors.Is(err, ai.ErrQuotaExceeded) {
			reason = "The analysis service is busy."
		}
		return s.fallback(productName, &analysis.ScoringError{Reason: reason, Err: err})
	}

	obj, err := ai.ParseScore(stripFences(content))
	if err != nil {
		return s.fallback(productName, &analysis.ScoringError{Reason: "The analysis response was malformed.", Err: err})
	}

	return analysis.RawScore{
		SuppliedName:        productName,
		DetectedProductName: obj["detected_product_name"],
		Rating:              obj["rating"],
		Points:              obj["points"],
		Explanation:         obj["analysis"],
		Alternatives:        obj["alternatives"],
	}
}

func (s *Service) fallback(productName string, cause *analysis.ScoringError) analysis.RawScore {
	s.log.Warn().Err(cause).Str("product", productName).Msg("scoring fallback used")
	if s.metrics != nil {
		s.metrics.ScoringFallback(cause.Reason)
	}
	return FallbackScore(productName, cause.Reason)
}

// FallbackScore is the deterministic score stored when the provider fails.
func FallbackScore(productName, reason string) analysis.RawScore {
	target := ""
	if productName != "" {
		target = " for " + productName
	}
	name := productName
	if name == "" {
		name = "Product"
	}
	return analysis.RawScore{
		SuppliedName:        productName,
		DetectedProductName: name,
		Rating:              string(analysis.RatingModerate),
		Points:              50,
		Explanation: fmt.Sprintf("Unable to complete analysis%s at this time. %s Please try again in a moment. "+
			"For now, consider products with natural, biodegradable ingredients and minimal synthetic chemicals.",
			target, reason),
		Alternatives: fallbackAlternatives,
		Fallback:     true,
	}
}

// stripFences removes a markdown code fence some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
