// Package browser owns the single headless Chrome instance shared by a
// pipeline run. Engines use it to render JS-heavy pages; the media acquirer
// uses it for the in-page canvas capture fallback.
package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Session wraps one browser process. It must be closed on every exit path so
// no Chrome process outlives the run.
type Session struct {
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
	opTimeout   time.Duration
	logger      *slog.Logger
}

// NewSession starts the browser and warms it up. A failure partway through
// releases whatever was already allocated before returning.
func NewSession(opTimeout time.Duration, logger *slog.Logger) (*Session, error) {
	if opTimeout <= 0 {
		opTimeout = 20 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(1920, 1080),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)

	// Warm up so the first navigation does not pay the process start cost.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &Session{
		ctx:         browserCtx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
		opTimeout:   opTimeout,
		logger:      logger,
	}, nil
}

// HTML navigates to the URL and returns the rendered document once the body
// is ready. A timeout is reported as an error, never as a process fault.
func (s *Session) HTML(ctx context.Context, url string) (string, error) {
	runCtx, cancel := s.opContext(ctx)
	defer cancel()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	return html, nil
}

// CaptureImage re-encodes the image through an in-page canvas, reusing the
// page the browser is currently positioned on. This sidesteps origin and
// referrer checks that block a second cross-origin request for the bytes.
func (s *Session) CaptureImage(ctx context.Context, imageURL string) ([]byte, error) {
	runCtx, cancel := s.opContext(ctx)
	defer cancel()

	var encoded string
	err := chromedp.Run(runCtx,
		chromedp.Evaluate(canvasCaptureJS(imageURL), &encoded,
			func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
				return p.WithAwaitPromise(true)
			}),
	)
	if err != nil {
		return nil, fmt.Errorf("canvas capture %s: %w", imageURL, err)
	}
	if encoded == "" {
		return nil, fmt.Errorf("canvas capture %s: empty result", imageURL)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode canvas data: %w", err)
	}
	return data, nil
}

// opContext bounds a single operation by the session timeout while honoring
// the caller's cancellation.
func (s *Session) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(s.ctx, s.opTimeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// Close tears the browser process down. Safe to call more than once.
func (s *Session) Close() {
	if s.cancelCtx != nil {
		s.cancelCtx()
		s.cancelCtx = nil
	}
	if s.cancelAlloc != nil {
		s.cancelAlloc()
		s.cancelAlloc = nil
	}
	if s.logger != nil {
		s.logger.Debug("browser session closed")
	}
}

func canvasCaptureJS(imageURL string) string {
	return fmt.Sprintf(`(function (src) {
  return new Promise(function (resolve, reject) {
    var img = new Image();
    img.crossOrigin = 'anonymous';
    img.onload = function () {
      var canvas = document.createElement('canvas');
      canvas.width = img.naturalWidth;
      canvas.height = img.naturalHeight;
      canvas.getContext('2d').drawImage(img, 0, 0);
      resolve(canvas.toDataURL('image/jpeg', 0.8).split(',')[1]);
    };
    img.onerror = function () { reject(new Error('image load failed')); };
    img.src = src;
  });
})(%q);`, imageURL)
}
