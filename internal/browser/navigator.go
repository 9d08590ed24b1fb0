package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// ErrBlocked means the site answered with a login wall or throttling instead of content.
var ErrBlocked = errors.New("blocked by site")

var blockedPaths = []string{"/authwall", "/login", "/checkpoint", "/uas/login"}

// PageNavigator loads URLs in a single tab and returns their HTML.
type PageNavigator struct {
	page    playwright.Page
	timeout time.Duration
	jitter  time.Duration
	shots   *ScreenshotDebugger
	logger  *slog.Logger
}

type NavigatorOptions struct {
	// Timeout caps one navigation. Zero keeps the context default.
	Timeout time.Duration
	// Jitter adds a random pause of up to this long before each navigation.
	Jitter time.Duration
	Shots  *ScreenshotDebugger
	Logger *slog.Logger
}

func NewPageNavigator(page playwright.Page, opts NavigatorOptions) *PageNavigator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PageNavigator{
		page:    page,
		timeout: opts.Timeout,
		jitter:  opts.Jitter,
		shots:   opts.Shots,
		logger:  logger,
	}
}

// Open navigates to url and returns the rendered HTML.
func (n *PageNavigator) Open(ctx context.Context, url string) (string, error) {
	if err := RandomDelay(ctx, 0, n.jitter); err != nil {
		return "", err
	}

	gotoOpts := playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}
	if n.timeout > 0 {
		gotoOpts.Timeout = playwright.Float(float64(n.timeout.Milliseconds()))
	}

	n.logger.Debug("🌐 Visiting", slog.String("url", url))
	resp, err := n.page.Goto(url, gotoOpts)
	if err != nil {
		return "", fmt.Errorf("goto %s: %w", url, err)
	}

	status := 0
	if resp != nil {
		status = resp.Status()
	}
	if reason := BlockReason(status, n.page.URL()); reason != "" {
		n.capture("blocked", fmt.Sprintf("Blocked page (%s): %s", reason, url))
		return "", fmt.Errorf("%w: %s", ErrBlocked, reason)
	}
	if status >= http.StatusBadRequest {
		return "", fmt.Errorf("goto %s: status %d", url, status)
	}

	html, err := n.page.Content()
	if err != nil {
		return "", fmt.Errorf("read content %s: %w", url, err)
	}
	return html, nil
}

func (n *PageNavigator) capture(name, message string) {
	if n.shots == nil {
		n.logger.Warn("⚠️ " + message)
		return
	}
	_, _ = n.shots.CaptureAndLog(n.page, name, message)
}

// BlockReason names why a response looks like a wall, or returns "".
func BlockReason(status int, finalURL string) string {
	if status == http.StatusTooManyRequests {
		return "rate limited"
	}
	for _, p := range blockedPaths {
		if strings.Contains(finalURL, p) {
			return "redirected to " + strings.TrimPrefix(p, "/")
		}
	}
	return ""
}
