// Package browser provides the session abstraction the scraping core
// drives: semantic element lookups with implicit-wait semantics, click
// and type primitives, and a small fault taxonomy that separates
// transient non-interactability from a torn-down browser.
//
// The production implementation runs over chromedp; the scrape tests
// substitute a scripted fake.
package browser

import (
	"context"
	"errors"
	"time"
)

// ErrNotInteractable reports a click that failed because the element
// never became clickable for this single attempt. It is transient and
// is retried by ClickWithRetry.
var ErrNotInteractable = errors.New("element not interactable")

// ErrNotClickable reports an element that stayed unclickable for the
// whole retry budget. The supervisor treats it as recoverable: the
// attempt is abandoned but the scrape may be re-run.
var ErrNotClickable = errors.New("element not clickable")

// ErrSessionGone reports that the browser session was torn down
// externally (window closed, browser process died) mid-scrape.
var ErrSessionGone = errors.New("browser session gone")

// By describes an element lookup. Exactly one field is set.
type By struct {
	ID       string
	Class    string
	Selector string
}

// ByID looks an element up by its id attribute.
func ByID(id string) By { return By{ID: id} }

// ByClass looks elements up by a single class name.
func ByClass(class string) By { return By{Class: class} }

// BySelector looks elements up by tag name or CSS selector.
func BySelector(sel string) By { return By{Selector: sel} }

// CSS renders the criteria as a CSS selector.
func (b By) CSS() string {
	switch {
	case b.ID != "":
		return "#" + b.ID
	case b.Class != "":
		return "." + b.Class
	default:
		return b.Selector
	}
}

// Element is an opaque handle to a DOM node, owned by the Session that
// produced it.
type Element interface {
	// Selector returns a CSS selector addressing the element within its
	// session.
	Selector() string
}

// Session is the single browser handle threaded through every scraping
// component. It is not safe for concurrent use; one scrape owns one
// session exclusively.
//
// Find and FindIn never fail for "not found": callers branch on an
// empty result. The implicit wait set via SetImplicitWait controls how
// long a query polls before accepting emptiness; a zero wait queries
// exactly once.
type Session interface {
	Navigate(ctx context.Context, url string) error
	SetImplicitWait(d time.Duration)
	Find(ctx context.Context, by By) ([]Element, error)
	FindIn(ctx context.Context, root Element, by By) ([]Element, error)
	ScrollIntoView(ctx context.Context, el Element) error
	Click(ctx context.Context, el Element) error
	Type(ctx context.Context, el Element, text string) error
	WaitVisible(ctx context.Context, el Element) error
	Text(ctx context.Context, el Element) (string, error)
	Attribute(ctx context.Context, el Element, name string) (string, bool, error)
	OuterHTML(ctx context.Context, el Element) (string, error)
	RunScript(ctx context.Context, src string) error
	Close(ctx context.Context) error
}

// FindFirst returns the first match for the criteria, or false when
// nothing matched.
func FindFirst(ctx context.Context, s Session, by By) (Element, bool, error) {
	els, err := s.Find(ctx, by)
	if err != nil || len(els) == 0 {
		return nil, false, err
	}
	return els[0], true, nil
}

// FindFirstIn is FindFirst scoped to a root element.
func FindFirstIn(ctx context.Context, s Session, root Element, by By) (Element, bool, error) {
	els, err := s.FindIn(ctx, root, by)
	if err != nil || len(els) == 0 {
		return nil, false, err
	}
	return els[0], true, nil
}
