package wayback

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"archive-analyzer/utils"
)

// TextRenderer recovers post text from a rendered archived page.
type TextRenderer interface {
	Render(ctx context.Context, pageURL string) (string, error)
}

// Renderer loads archived post pages in headless Chrome. It is the last
// recovery source, used for captures that neither oEmbed nor a JSON capture
// can explain.
type Renderer struct {
	chromeBin string
	userAgent string
	timeout   time.Duration
	logger    *utils.Logger
}

// NewRenderer creates a Renderer. An empty chromeBin is resolved from PATH
// and well-known install locations.
func NewRenderer(chromeBin, userAgent string, logger *utils.Logger) *Renderer {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	return &Renderer{
		chromeBin: chromeBin,
		userAgent: userAgent,
		timeout:   60 * time.Second,
		logger:    logger,
	}
}

// extractPostJS reads the post body from both the legacy (2010-2019) and
// the React-era page layouts, falling back to the OpenGraph description.
const extractPostJS = `
(function() {
	var selectors = [
		'[data-testid="tweetText"]',
		'.permalink-tweet .js-tweet-text',
		'.tweet-text',
		'.entry-content'
	];
	for (var i = 0; i < selectors.length; i++) {
		var el = document.querySelector(selectors[i]);
		if (el && el.innerText && el.innerText.trim().length > 0) {
			return el.innerText.trim();
		}
	}
	var meta = document.querySelector('meta[property="og:description"]');
	if (meta && meta.content) {
		return meta.content.replace(/^“|”$/g, '').trim();
	}
	return '';
})()
`

// Render navigates to pageURL and returns the post text.
func (r *Renderer) Render(ctx context.Context, pageURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if r.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(r.userAgent))
	}
	if r.chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(r.chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, r.timeout)
	defer cancelTimeout()

	var text string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(3*time.Second),
		chromedp.Evaluate(extractPostJS, &text),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp render: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errNoContent
	}
	r.logger.Debug("[wayback] Rendered %s (%d chars)", pageURL, len(text))
	return text, nil
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
