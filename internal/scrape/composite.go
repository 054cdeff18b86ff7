package scrape

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/maxburton/firebird/internal/browser"
)

// CompositeWalker resolves a product's customisation dialog into a
// list of CompositeGroup screens, advancing the underlying order flow
// as it goes so the caller can continue to the next product.
type CompositeWalker struct {
	session   browser.Session
	logger    *zap.Logger
	screenCap int
}

func NewCompositeWalker(session browser.Session, logger *zap.Logger, screenCap int) *CompositeWalker {
	return &CompositeWalker{
		session:   session,
		logger:    logger.Named("composite"),
		screenCap: screenCap,
	}
}

// IsOpen reports whether a customisation dialog is currently showing.
// The option-header markup can linger in the DOM while hidden, so the
// dialog container must also be in a visible display state.
func (w *CompositeWalker) IsOpen(ctx context.Context) (bool, error) {
	headers, err := w.session.Find(ctx, browser.ByClass("c-menupicker__options"))
	if err != nil {
		return false, err
	}
	if len(headers) == 0 {
		return false, nil
	}

	hidden, err := w.session.Find(ctx, browser.BySelector("div.c-menupicker__dialog.hide.show"))
	if err != nil {
		return false, err
	}
	shown, err := w.session.Find(ctx, browser.BySelector("div.c-menupicker__dialog.show"))
	if err != nil {
		return false, err
	}
	return len(hidden) > 0 || len(shown) > 0, nil
}

// Walk traverses every screen of the open dialog and closes it. The
// screen loop is bounded: a dialog that never settles is reported as a
// fault instead of hanging the scrape.
func (w *CompositeWalker) Walk(ctx context.Context) ([]CompositeGroup, error) {
	var groups []CompositeGroup
	for screen := 0; ; screen++ {
		if screen >= w.screenCap {
			return nil, fmt.Errorf("customisation dialog did not settle after %d screens", w.screenCap)
		}

		group, err := w.walkScreen(ctx)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)

		// All screens are done once the dialog's submit is enabled and
		// no extra-add affordances remain.
		disabled, err := w.session.Find(ctx, browser.BySelector("input.submit.disabled"))
		if err != nil {
			return nil, err
		}
		extras, err := w.session.Find(ctx, browser.ByClass("c-menupicker__extra-add"))
		if err != nil {
			return nil, err
		}
		if len(disabled) == 0 && len(extras) == 0 {
			break
		}
	}

	closeBtn, found, err := browser.FindFirst(ctx, w.session, browser.ByClass("c-menupicker__close"))
	if err != nil {
		return nil, err
	}
	if found {
		if err := w.session.Click(ctx, closeBtn); err != nil {
			return nil, fmt.Errorf("closing customisation dialog: %w", err)
		}
	}
	return groups, nil
}

// walkScreen enumerates the current screen's options and advances to
// the next screen: Single screens by choosing the first option, Multi
// screens by adding the first extra and confirming.
func (w *CompositeWalker) walkScreen(ctx context.Context) (CompositeGroup, error) {
	options, err := w.session.Find(ctx, browser.ByClass("c-menupicker__option"))
	if err != nil {
		return CompositeGroup{}, err
	}
	extras, err := w.session.Find(ctx, browser.ByClass("c-menupicker__extra-add"))
	if err != nil {
		return CompositeGroup{}, err
	}

	group := CompositeGroup{Kind: GroupSingle, Items: []CompositeOption{}}
	if len(extras) > 0 {
		group.Kind = GroupMulti
	}
	if len(options) == 0 {
		// Dialog reported composite but enumerates nothing; keep the
		// empty group so the output reflects what the page showed.
		w.logger.Warn("Customisation screen enumerated zero options",
			zap.Error(&AmbiguityError{Field: "composite options", Raw: "empty screen"}))
	}

	for _, option := range options {
		item := CompositeOption{Price: "0.00"}

		priceEl, hasPrice, err := browser.FindFirstIn(ctx, w.session, option, browser.ByClass("c-menupicker__option-price"))
		if err != nil {
			return CompositeGroup{}, err
		}
		if hasPrice {
			raw, err := w.session.Text(ctx, priceEl)
			if err != nil {
				return CompositeGroup{}, err
			}
			price, err := ParsePrice(raw)
			if err != nil {
				return CompositeGroup{}, err
			}
			item.Price = price
		}

		nameEl, found, err := browser.FindFirstIn(ctx, w.session, option, browser.BySelector("div"))
		if err != nil {
			return CompositeGroup{}, err
		}
		if found {
			raw, err := w.session.Text(ctx, nameEl)
			if err != nil {
				return CompositeGroup{}, err
			}
			item.Name = CleanLeadingNonLetter(raw)
		}
		w.logger.Debug("Customisation option", zap.String("name", item.Name), zap.String("price", item.Price))
		group.Items = append(group.Items, item)
	}

	switch {
	case len(options) > 0 && len(extras) == 0:
		if err := w.session.WaitVisible(ctx, options[0]); err != nil {
			return CompositeGroup{}, err
		}
		if err := w.session.Click(ctx, options[0]); err != nil {
			return CompositeGroup{}, fmt.Errorf("choosing customisation option: %w", err)
		}
	case len(extras) > 0:
		if err := w.session.WaitVisible(ctx, extras[0]); err != nil {
			return CompositeGroup{}, err
		}
		if err := w.session.Click(ctx, extras[0]); err != nil {
			return CompositeGroup{}, fmt.Errorf("adding extra: %w", err)
		}
		summary, found, err := browser.FindFirst(ctx, w.session, browser.BySelector("div#customisableProductSummary"))
		if err != nil {
			return CompositeGroup{}, err
		}
		if found {
			submit, ok, err := browser.FindFirstIn(ctx, w.session, summary, browser.ByClass("submit"))
			if err != nil {
				return CompositeGroup{}, err
			}
			if ok {
				if err := w.session.WaitVisible(ctx, submit); err != nil {
					return CompositeGroup{}, err
				}
				if err := w.session.Click(ctx, submit); err != nil {
					return CompositeGroup{}, fmt.Errorf("confirming extras: %w", err)
				}
			}
		}
	}

	return group, nil
}
