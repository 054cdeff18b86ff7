// Package supervisor runs the whole-scrape retry loop: each attempt
// gets a fresh browser, and only recoverable failures are retried.
package supervisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/maxburton/firebird/internal/browser"
	"github.com/maxburton/firebird/internal/config"
	"github.com/maxburton/firebird/internal/notify"
	"github.com/maxburton/firebird/internal/scrape"
	"github.com/maxburton/firebird/internal/store"
)

// Supervisor coordinates scrape attempts and the end-of-run
// persistence and notification.
type Supervisor struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *store.Store
	notifier *notify.Notifier
}

func New(cfg *config.Config, logger *zap.Logger) *Supervisor {
	return &Supervisor{
		cfg:      cfg,
		logger:   logger.Named("supervisor"),
		store:    store.NewStore(cfg.Output.Root, logger),
		notifier: notify.NewNotifier(cfg.Mail, logger),
	}
}

// Run scrapes the restaurant at rawURL, retrying recoverable failures
// up to the configured attempt budget. A closed restaurant stops
// immediately; so does context cancellation.
func (s *Supervisor) Run(ctx context.Context, rawURL string) error {
	url := scrape.CleanURL(rawURL)
	if !strings.Contains(url, "just-eat") {
		s.logger.Warn("This does not look like a JustEat URL, have you entered it correctly?")
		s.logger.Warn("An invalid URL will cause major errors!")
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.Scrape.Attempts; attempt++ {
		s.logger.Info("Starting scrape attempt",
			zap.Int("attempt", attempt),
			zap.Int("budget", s.cfg.Scrape.Attempts),
			zap.String("url", url))

		err := s.attempt(ctx, url)
		if err == nil {
			s.logger.Info("Scrape succeeded")
			return nil
		}
		lastErr = err

		if !scrape.Retryable(err) {
			s.logger.Error("Scrape failed with a terminal condition", zap.Error(err))
			return err
		}
		if ctx.Err() != nil {
			return fmt.Errorf("scrape canceled: %w", err)
		}
		s.logger.Warn("Something went wrong, trying again", zap.Error(err))
	}
	return fmt.Errorf("retries exceeded: %w", lastErr)
}

// attempt runs one full scrape over a dedicated browser lifecycle and,
// on success, persists and mails the results. Partial output from a
// failed attempt is discarded.
func (s *Supervisor) attempt(ctx context.Context, url string) error {
	start := time.Now()

	manager, err := browser.NewManager(ctx, s.logger, s.cfg.Browser)
	if err != nil {
		return fmt.Errorf("starting browser: %w", err)
	}
	defer manager.Shutdown()

	session, err := manager.NewSession(ctx)
	if err != nil {
		return fmt.Errorf("opening browser session: %w", err)
	}
	defer func() {
		if err := session.Close(ctx); err != nil {
			s.logger.Debug("Closing session", zap.Error(err))
		}
	}()

	extractor := scrape.NewExtractor(session, s.logger, s.cfg.Scrape, s.cfg.Browser)
	doc, err := extractor.Run(ctx, url)
	if err != nil {
		return err
	}

	loc, err := s.store.Allocate(doc.Restaurant.Name, doc.Restaurant.Postcode)
	if err != nil {
		return err
	}
	if err := s.store.Write(loc, doc); err != nil {
		if discardErr := loc.Discard(); discardErr != nil {
			s.logger.Warn("Could not discard partial output", zap.Error(discardErr))
		}
		return err
	}

	elapsed := time.Since(start)
	s.logger.Info("Menu successfully parsed",
		zap.String("restaurant", doc.Restaurant.Name),
		zap.Duration("elapsed", elapsed.Round(time.Millisecond)))

	attachments := loc.Paths()
	if s.cfg.Logger.LogFile != "" {
		attachments = append(attachments, s.cfg.Logger.LogFile)
	}
	if err := s.notifier.Send(doc.Restaurant.Name, elapsed, attachments); err != nil {
		// The scraped files are already on disk; a failed email is not
		// worth redoing the whole scrape.
		s.logger.Error("Could not send results email", zap.Error(err))
	}
	return nil
}
