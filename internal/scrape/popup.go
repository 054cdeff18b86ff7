package scrape

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/maxburton/firebird/internal/browser"
)

// PopupResolver classifies and advances past the availability popups
// the site raises after the first add-to-basket action: closed for the
// day, temporarily unavailable (pre-order), and the postcode prompt.
type PopupResolver struct {
	session browser.Session
	logger  *zap.Logger
}

func NewPopupResolver(session browser.Session, logger *zap.Logger) *PopupResolver {
	return &PopupResolver{
		session: session,
		logger:  logger.Named("popup"),
	}
}

// Resolve inspects the current popup state and drives the page into a
// stable available state. collectionDisabled selects the delivery-only
// probing path used by the delivery survey; postcode is typed whenever
// the page asks for one. A closed restaurant returns an error wrapping
// ErrRestaurantClosed.
func (r *PopupResolver) Resolve(ctx context.Context, collectionDisabled bool, postcode string) error {
	_, closed, err := browser.FindFirst(ctx, r.session, browser.ByID("closedForTheDayPrompt"))
	if err != nil {
		return err
	}
	if closed {
		return r.handleClosed(ctx)
	}
	r.logger.Info("Restaurant is open")

	_, currentlyClosed, err := browser.FindFirst(ctx, r.session, browser.ByID("currentlyNotOpenPrompt"))
	if err != nil {
		return err
	}

	if !currentlyClosed {
		if !collectionDisabled {
			r.logger.Info("Restaurant is available for collection")
			viewMore, found, err := browser.FindFirst(ctx, r.session, browser.ByClass("viewMoreButton"))
			if err != nil {
				return err
			}
			if found {
				if err := r.session.Click(ctx, viewMore); err != nil {
					return fmt.Errorf("clicking view more: %w", err)
				}
				return r.enterPostcode(ctx, postcode)
			}
			return nil
		}
		r.logger.Info("Restaurant is only available for delivery (collection disabled)")
		return r.enterPostcode(ctx, postcode)
	}

	// Temporarily unavailable: take the pre-order-for-later path.
	r.logger.Info("Restaurant is not currently open, pre-ordering for later")
	container, found, err := browser.FindFirst(ctx, r.session, browser.ByClass("preOrderLaterButton"))
	if err != nil {
		return err
	}
	if found {
		preOrder, ok, err := browser.FindFirstIn(ctx, r.session, container, browser.ByClass("o-btn--secondary"))
		if err != nil {
			return err
		}
		if ok {
			if err := r.session.Click(ctx, preOrder); err != nil {
				return fmt.Errorf("clicking pre-order button: %w", err)
			}
		}
		return r.enterPostcode(ctx, postcode)
	}
	return nil
}

// handleClosed backs out of the prompt and reports the terminal closed
// state, attaching the "next available" label when it can be read.
func (r *PopupResolver) handleClosed(ctx context.Context) error {
	if back, found, err := browser.FindFirst(ctx, r.session, browser.ByID("browsing")); err == nil && found {
		if err := r.session.Click(ctx, back); err != nil {
			r.logger.Debug("Could not back out of closed prompt", zap.Error(err))
		}
	}

	closedErr := &ClosedError{}
	labels, err := r.session.Find(ctx, browser.ByClass("estimateTimeLabel"))
	if err == nil && len(labels) > 1 {
		if next, err := r.session.Text(ctx, labels[1]); err == nil {
			closedErr.NextOpen = next
		}
	}
	r.logger.Error("Restaurant is closed", zap.String("next_open", closedErr.NextOpen))
	return closedErr
}

// enterPostcode fills in the postcode prompt when present. Absence of
// the prompt means the page already knows the postcode and is not an
// error.
func (r *PopupResolver) enterPostcode(ctx context.Context, postcode string) error {
	prompt, found, err := browser.FindFirst(ctx, r.session, browser.ByID("postcodePromptContainer"))
	if err != nil || !found {
		return err
	}

	field, found, err := browser.FindFirst(ctx, r.session, browser.ByID("postcodeEntry"))
	if err != nil {
		return err
	}
	if !found {
		r.logger.Warn("Postcode prompt present but entry field missing")
		return nil
	}
	if err := r.session.WaitVisible(ctx, field); err != nil {
		return fmt.Errorf("waiting for postcode field: %w", err)
	}
	if err := r.session.Type(ctx, field, postcode); err != nil {
		return fmt.Errorf("typing postcode: %w", err)
	}

	form, found, err := browser.FindFirstIn(ctx, r.session, prompt, browser.ByID("postcodeFormContainer"))
	if err != nil || !found {
		return err
	}
	confirm, found, err := browser.FindFirstIn(ctx, r.session, form, browser.BySelector("button.submit.o-btn.o-btn--primary"))
	if err != nil || !found {
		return err
	}
	if err := r.session.Click(ctx, confirm); err != nil {
		return fmt.Errorf("confirming postcode: %w", err)
	}
	r.logger.Debug("Postcode entered", zap.String("postcode", postcode))
	return nil
}
