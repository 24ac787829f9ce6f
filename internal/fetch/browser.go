package fetch

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserFetcher renders pages in headless Chrome, for sites that build
// their listing cards with JavaScript.
type BrowserFetcher struct {
	execPath string
	timeout  time.Duration
	settle   time.Duration
}

type BrowserConfig struct {
	ExecPath string
	Timeout  time.Duration
	Settle   time.Duration
}

// chromeCandidates are tried in order when no explicit path is set.
var chromeCandidates = []string{
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
}

func findChrome() string {
	for _, path := range chromeCandidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func NewBrowserFetcher(cfg BrowserConfig) *BrowserFetcher {
	if cfg.ExecPath == "" {
		cfg.ExecPath = findChrome()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Settle == 0 {
		cfg.Settle = 3 * time.Second
	}
	return &BrowserFetcher{
		execPath: cfg.ExecPath,
		timeout:  cfg.Timeout,
		settle:   cfg.Settle,
	}
}

func (f *BrowserFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	log.Printf("[Fetch] Rendering with headless browser: %s", pageURL)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-software-rasterizer", true),
		chromedp.UserAgent(browserUserAgent),
	)
	if f.execPath != "" {
		opts = append(opts, chromedp.ExecPath(f.execPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, timeoutCancel := context.WithTimeout(browserCtx, f.timeout)
	defer timeoutCancel()

	var htmlContent string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitVisible(`body`, chromedp.ByQuery),
		chromedp.Sleep(f.settle),
		chromedp.OuterHTML(`html`, &htmlContent, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("headless browser fetch failed for %s: %w", pageURL, err)
	}

	return htmlContent, nil
}
