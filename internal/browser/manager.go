package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/maxburton/firebird/internal/config"
)

// Manager owns the browser executable through a chromedp exec
// allocator and creates isolated sessions (tabs) from it. One manager
// lives for one scrape attempt; a fresh attempt gets a fresh browser.
type Manager struct {
	logger *zap.Logger
	cfg    config.BrowserConfig

	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc
}

// NewManager starts the browser allocator.
func NewManager(ctx context.Context, logger *zap.Logger, cfg config.BrowserConfig) (*Manager, error) {
	m := &Manager{
		logger: logger.Named("browser_manager"),
		cfg:    cfg,
	}

	m.allocatorCtx, m.allocatorCancel = chromedp.NewExecAllocator(ctx, m.allocatorOptions()...)

	m.logger.Info("Browser manager initialized", zap.Bool("headless", cfg.Headless))
	return m, nil
}

// allocatorOptions configures the flags for the browser executable.
// Private browsing equivalents: no first run, no default apps, no
// background networking, cache and cookies scoped to a throwaway
// profile directory chromedp creates per allocator.
func (m *Manager) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	if m.cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}

	opts = append(opts,
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-prompt-on-repost", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-gpu", m.cfg.Headless),
		chromedp.Flag("ignore-certificate-errors", m.cfg.IgnoreTLSErrors),
	)

	return opts
}

// NewSession creates a browser tab wrapped in the Session interface.
func (m *Manager) NewSession(ctx context.Context) (Session, error) {
	tabCtx, tabCancel := chromedp.NewContext(m.allocatorCtx,
		chromedp.WithLogf(m.logger.Sugar().Debugf),
		chromedp.WithErrorf(m.logger.Sugar().Errorf),
	)

	// Tie the tab to the caller's lifecycle.
	go func() {
		select {
		case <-ctx.Done():
			tabCancel()
		case <-tabCtx.Done():
		}
	}()

	// Establish the connection before handing the session out.
	if err := chromedp.Run(tabCtx, chromedp.Navigate("about:blank")); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to initialize browser tab: %w", err)
	}

	return newCDPSession(tabCtx, tabCancel, m.logger, m.cfg), nil
}

// Shutdown terminates the browser process.
func (m *Manager) Shutdown() {
	m.logger.Info("Shutting down browser manager")
	if m.allocatorCancel != nil {
		m.allocatorCancel()
	}
}
