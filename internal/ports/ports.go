package ports

import (
	"context"

	"github.com/woai-art/shorts-news-us/internal/domain"
)

// NewsRepository is the persisted store for accepted records. It is the
// authority for URL deduplication.
type NewsRepository interface {
	Exists(ctx context.Context, url string) (bool, error)
	Insert(ctx context.Context, url string, record domain.ContentRecord) (int64, error)
}

// PageFetcher renders a URL and returns its HTML. Implemented by the shared
// headless browser session; engines that scrape static pages do not need it.
type PageFetcher interface {
	HTML(ctx context.Context, url string) (string, error)
}

// CanvasCapturer re-encodes a rendered image to bytes inside the page context,
// bypassing origin checks that block a direct cross-origin request.
type CanvasCapturer interface {
	CaptureImage(ctx context.Context, imageURL string) ([]byte, error)
}
