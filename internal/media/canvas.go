package media

import (
	"context"
	"fmt"
	"os"

	"github.com/woai-art/shorts-news-us/internal/domain"
	"github.com/woai-art/shorts-news-us/internal/ports"
)

// Canvas renders a protected image inside a real browser page and reads the
// pixels back, bypassing hotlink protection that defeats plain HTTP.
type Canvas struct {
	capturer ports.CanvasCapturer
}

// NewCanvas builds the strategy. The capturer is typically a live browser
// session.
func NewCanvas(capturer ports.CanvasCapturer) *Canvas {
	return &Canvas{capturer: capturer}
}

func (c *Canvas) Name() string { return "canvas" }

func (c *Canvas) Applies(ref domain.MediaReference) bool {
	return ref.Kind == domain.MediaImage && c.capturer != nil
}

func (c *Canvas) Attempt(ctx context.Context, ref domain.MediaReference, destPath string) error {
	data, err := c.capturer.CaptureImage(ctx, ref.RemoteURL)
	if err != nil {
		return fmt.Errorf("canvas capture %s: %w", ref.RemoteURL, err)
	}
	if len(data) < minImageBytes {
		return fmt.Errorf("canvas capture too small (%d bytes)", len(data))
	}
	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return fmt.Errorf("write captured image: %w", err)
	}
	return nil
}
