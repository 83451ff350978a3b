// Package ocrspace is the hosted OCR.Space text extraction strategy.
package ocrspace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/bryanwahyu/aura-impact/internal/domain/ocr"
)

const (
	DefaultEndpoint = "https://api.ocr.space/parse/image"
	defaultTimeout  = 30 * time.Second
	defaultLanguage = "eng"
	defaultEngine   = "2"
)

// ErrMissingAPIKey is returned before any request when no key is configured.
var ErrMissingAPIKey = errors.New("ocr.space api key is not configured")

type Options struct {
	APIKey   string
	Endpoint string
	Language string
	Engine   string
	Timeout  time.Duration
}

// Client calls the OCR.Space parse endpoint. Calls are spaced by Throttle.
type Client struct {
	opts     Options
	http     *http.Client
	throttle ocr.Throttle
}

func New(opts Options, throttle ocr.Throttle) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Language == "" {
		opts.Language = defaultLanguage
	}
	if opts.Engine == "" {
		opts.Engine = defaultEngine
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Client{opts: opts, http: &http.Client{Timeout: opts.Timeout}, throttle: throttle}
}

func (c *Client) Name() string { return "ocrspace" }

func (c *Client) Throttle() ocr.Throttle { return c.throttle }

type parseResponse struct {
	ParsedResults []struct {
		ParsedText   string `json:"ParsedText"`
		ErrorMessage string `json:"ErrorMessage"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
}

// Extract implements ocr.Extractor.
func (c *Client) Extract(ctx context.Context, image []byte) (string, error) {
	if strings.TrimSpace(c.opts.APIKey) == "" {
		return "", ErrMissingAPIKey
	}
	body, contentType, err := c.form(image)
	if err != nil {
		return "", err
	}

	if c.throttle != nil {
		if err := c.throttle.Wait(ctx); err != nil {
			return "", fmt.Errorf("ocr.space throttle: %w", err)
		}
		defer c.throttle.Done(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr.space request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ocr.space status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var parsed parseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("ocr.space decode: %w", err)
	}
	if parsed.IsErroredOnProcessing {
		return "", fmt.Errorf("ocr.space processing error: %s", errorMessage(parsed.ErrorMessage))
	}
	if len(parsed.ParsedResults) == 0 {
		return "", ocr.ErrNoText
	}
	text := strings.TrimSpace(parsed.ParsedResults[0].ParsedText)
	if text == "" {
		return "", ocr.ErrNoText
	}
	return text, nil
}

func (c *Client) form(image []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{
		"apikey":            c.opts.APIKey,
		"language":          c.opts.Language,
		"OCREngine":         c.opts.Engine,
		"scale":             "true",
		"detectOrientation": "true",
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	part, err := w.CreateFormFile("file", "image"+sniffExtension(image))
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// OCR.Space infers the file type from the upload name.
func sniffExtension(image []byte) string {
	switch http.DetectContentType(image) {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/bmp":
		return ".bmp"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	}
	return ".jpg"
}

// ErrorMessage is a string or a list of strings depending on the failure.
func errorMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "unknown error"
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
