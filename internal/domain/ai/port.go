package ai

import "context"

// ScoreRequest is what the scoring model sees about a product.
type ScoreRequest struct {
	ProductName    string
	IngredientText string
}

// Client sends one scoring request and returns the raw JSON content of the
// model reply.
type Client interface {
	Analyze(ctx context.Context, req ScoreRequest) (string, error)
}
