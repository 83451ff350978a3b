package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/aura-impact/internal/domain/ai"
)

func completion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1715000000,
		"model":   "llama-3.1-8b-instant",
		"choices": []any{map[string]any{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
}

func TestAnalyze_SendsPromptAndReturnsContent(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion(`{"rating":"friendly"}`))
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "test-key", BaseURL: srv.URL + "/v1/"})
	out, err := c.Analyze(context.Background(), ai.ScoreRequest{ProductName: "Soap", IngredientText: "Olive Oil"})
	require.NoError(t, err)
	assert.Equal(t, `{"rating":"friendly"}`, out)

	assert.Equal(t, "llama-3.1-8b-instant", got["model"])
	assert.EqualValues(t, 800, got["max_tokens"])
	assert.InDelta(t, 0.1, got["temperature"], 0.0001)
	format := got["response_format"].(map[string]any)
	assert.Equal(t, "json_object", format["type"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].(map[string]any)["content"], "Olive Oil")
}

func TestAnalyze_JSONSchemaFormat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(completion(`{}`))
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "k", BaseURL: srv.URL, Model: "gpt-4o-mini", JSONSchema: true})
	_, err := c.Analyze(context.Background(), ai.ScoreRequest{IngredientText: "Water"})
	require.NoError(t, err)
	format := got["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	schema := format["json_schema"].(map[string]any)
	assert.Equal(t, "ingredient_score", schema["name"])
}

func TestAnalyze_QuotaMapsToDomainError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit reached","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "k", BaseURL: srv.URL})
	_, err := c.Analyze(context.Background(), ai.ScoreRequest{IngredientText: "Water"})
	assert.ErrorIs(t, err, ai.ErrQuotaExceeded)
}

func TestAnalyze_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "k", BaseURL: srv.URL})
	_, err := c.Analyze(context.Background(), ai.ScoreRequest{IngredientText: "Water"})
	assert.ErrorIs(t, err, ai.ErrEmptyResponse)
}

func TestAnalyze_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "k", BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := c.Analyze(context.Background(), ai.ScoreRequest{IngredientText: "Water"})
	assert.Error(t, err)
}
