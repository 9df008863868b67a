package scraper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"propwatch/config"
	"propwatch/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// session owns one headless browser for the lifetime of a single source
// run. It is exclusively held by its source and must be released via Stop
// before the source returns control to the orchestrator.
type session struct {
	name       string
	logger     *utils.Logger
	limiter    *utils.RateLimiter
	navTimeout time.Duration
	shotsDir   string

	ctx    context.Context
	cancel context.CancelFunc
}

func newSession(name string, cfg *config.Config, logger *utils.Logger) *session {
	return &session{
		name:       name,
		logger:     logger,
		limiter:    utils.NewRateLimiter(time.Duration(cfg.RateLimitDelay) * time.Millisecond),
		navTimeout: time.Duration(cfg.NavTimeoutSec) * time.Second,
		shotsDir:   cfg.ScreenshotsDir,
	}
}

// start launches the browser. cfgHeadless comes from configuration so a
// visible browser can be used for debugging selector heuristics.
func (s *session) start(ctx context.Context, headless bool) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("log-level", "3"),
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(1920, 1080),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	s.ctx = browserCtx
	s.cancel = func() {
		cancelCtx()
		cancelAlloc()
	}

	if err := chromedp.Run(browserCtx); err != nil {
		s.stop()
		return fmt.Errorf("launch browser: %w", err)
	}
	s.logger.Info("[%s] Browser started", s.name)
	return nil
}

func (s *session) stop() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
		s.ctx = nil
		s.logger.Info("[%s] Browser stopped", s.name)
	}
}

// navigate loads a page and gives client-side rendering time to settle.
// The navigation timeout bounds how long a single page operation may hang;
// hitting it fails this fetch only, never the whole run.
func (s *session) navigate(url string, settle time.Duration) error {
	s.limiter.Wait()

	ctx, cancel := context.WithTimeout(s.ctx, s.navTimeout)
	defer cancel()

	return chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.Sleep(settle),
	)
}

// evaluate runs JS in the current page and decodes the result into out.
func (s *session) evaluate(js string, out any) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.navTimeout)
	defer cancel()
	return chromedp.Run(ctx, chromedp.Evaluate(js, out))
}

// Screenshot navigates to url and writes a full-page capture named after
// the source, the record and the current time.
func (s *session) Screenshot(ctx context.Context, url, name string) error {
	if s.ctx == nil {
		return fmt.Errorf("browser not started")
	}
	if err := s.navigate(url, 2*time.Second); err != nil {
		return fmt.Errorf("navigate for screenshot: %w", err)
	}

	var buf []byte
	shotCtx, cancel := context.WithTimeout(s.ctx, s.navTimeout)
	defer cancel()
	if err := chromedp.Run(shotCtx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}

	filename := fmt.Sprintf("%s_%s_%s.png", s.name, name, time.Now().Format("20060102_150405"))
	path := filepath.Join(s.shotsDir, filename)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	s.logger.Info("[%s] Screenshot saved: %s", s.name, path)
	return nil
}
