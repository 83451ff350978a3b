package tesseract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Recognizer runs OCR on one PNG with a page segmentation mode.
type Recognizer interface {
	Recognize(ctx context.Context, png []byte, psm int) (string, error)
}

// CLI runs the tesseract binary, image on stdin and text on stdout.
type CLI struct {
	Binary   string
	Language string
	Timeout  time.Duration
}

func NewCLI(binary, language string, timeout time.Duration) *CLI {
	if binary == "" {
		binary = "tesseract"
	}
	if language == "" {
		language = "eng"
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &CLI{Binary: binary, Language: language, Timeout: timeout}
}

// Available reports whether the binary can be found on PATH.
func (c *CLI) Available() bool {
	_, err := exec.LookPath(c.Binary)
	return err == nil
}

func (c *CLI) Recognize(ctx context.Context, png []byte, psm int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Binary, "stdin", "stdout",
		"-l", c.Language,
		"--psm", strconv.Itoa(psm),
	)
	cmd.Stdin = bytes.NewReader(png)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// jalankan tesseract
	if err := cmd.Run(); err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return "", fmt.Errorf("tesseract exit %d: %s", ee.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("run tesseract: %w", err)
	}
	return stdout.String(), nil
}
