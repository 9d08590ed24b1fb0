package browser

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// ScreenshotDebugger saves full-page screenshots of pages that went wrong.
type ScreenshotDebugger struct {
	outputDir string
	logger    *slog.Logger
	now       func() time.Time
}

func NewScreenshotDebugger(dir string, logger *slog.Logger) *ScreenshotDebugger {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScreenshotDebugger{outputDir: dir, logger: logger, now: time.Now}
}

// Path returns where a screenshot called name would be written.
func (s *ScreenshotDebugger) Path(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	filename := fmt.Sprintf("%s_%s.png", clean, s.now().Format("2006-01-02_15-04-05"))
	return filepath.Join(s.outputDir, filename)
}

func (s *ScreenshotDebugger) CaptureAndLog(page playwright.Page, name, message string) (string, error) {
	s.logger.Warn("📸 " + message)

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}
	path := s.Path(name)
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		s.logger.Warn("⚠️ Failed to capture screenshot", slog.Any("error", err))
		return "", err
	}

	s.logger.Info("   Screenshot saved", slog.String("path", path))
	return path, nil
}
