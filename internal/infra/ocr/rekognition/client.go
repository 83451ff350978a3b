// Package rekognition extracts text with AWS Rekognition DetectText.
package rekognition

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/bryanwahyu/aura-impact/internal/domain/ocr"
)

// DetectText accepts inline images up to 5 MB.
const maxImageBytes = 5 << 20

type detectTextAPI interface {
	DetectText(ctx context.Context, in *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error)
}

type Client struct {
	api      detectTextAPI
	throttle ocr.Throttle
	timeout  time.Duration
}

// New loads AWS credentials from the default chain for region.
func New(ctx context.Context, region string, timeout time.Duration, throttle ocr.Throttle) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newWithAPI(rekognition.NewFromConfig(cfg), timeout, throttle), nil
}

func newWithAPI(api detectTextAPI, timeout time.Duration, throttle ocr.Throttle) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{api: api, throttle: throttle, timeout: timeout}
}

func (c *Client) Name() string { return "rekognition" }

// Throttle returns the limiter shared with the other hosted providers.
func (c *Client) Throttle() ocr.Throttle { return c.throttle }

// Extract implements ocr.Extractor. LINE detections are joined in reading order.
func (c *Client) Extract(ctx context.Context, image []byte) (string, error) {
	if len(image) > maxImageBytes {
		return "", fmt.Errorf("image of %d bytes exceeds rekognition limit", len(image))
	}
	if c.throttle != nil {
		if err := c.throttle.Wait(ctx); err != nil {
			return "", fmt.Errorf("rekognition throttle: %w", err)
		}
		defer c.throttle.Done(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	out, err := c.api.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: image},
	})
	if err != nil {
		return "", fmt.Errorf("rekognition detect text: %w", err)
	}

	var lines []string
	for _, d := range out.TextDetections {
		if d.Type != types.TextTypesLine {
			continue
		}
		if s := strings.TrimSpace(aws.ToString(d.DetectedText)); s != "" {
			lines = append(lines, s)
		}
	}
	if len(lines) == 0 {
		return "", ocr.ErrNoText
	}
	return strings.Join(lines, "\n"), nil
}
