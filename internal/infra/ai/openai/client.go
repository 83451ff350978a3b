package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/aura-impact/internal/domain/ai"
	"github.com/bryanwahyu/aura-impact/internal/infra/ai/prompt"
)

const (
	defaultModel       = "llama-3.1-8b-instant"
	defaultMaxTokens   = 800
	defaultTemperature = 0.1
	defaultTimeout     = 60 * time.Second
)

// Options configures Client. Zero values fall back to defaults.
type Options struct {
	APIKey      string
	BaseURL     string // OpenAI compatible endpoint, e.g. https://api.groq.com/openai/v1
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	// JSONSchema requests strict structured output instead of json_object.
	JSONSchema bool
}

type Client struct {
	*openai.Client
	opts Options
}

func NewClient(opts Options) *Client {
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature <= 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	return &Client{Client: openai.NewClientWithConfig(cfg), opts: opts}
}

// Analyze implements ai.Client.
func (c *Client) Analyze(ctx context.Context, in ai.ScoreRequest) (string, error) {
	model := c.opts.Model
	req := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: c.opts.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.GetUserPrompt(in.ProductName, in.IngredientText)},
		},
	}
	if c.opts.JSONSchema {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "ingredient_score",
				Schema: ai.ResponseSchemaJSON(),
				Strict: true,
			},
		}
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = c.opts.MaxTokens
		req.Temperature = 0
	} else {
		req.MaxTokens = c.opts.MaxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %s", ai.ErrQuotaExceeded, apiErr.Message)
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, reqErr.Err)
		}
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ai.ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}
