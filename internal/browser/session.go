package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/maxburton/firebird/internal/config"
)

// refAttr tags queried nodes so later actions address exactly the node
// a Find returned, even after sibling dialogs open and close around it.
const refAttr = "data-firebird-ref"

// visibilityTimeout bounds a single WaitVisible call.
const visibilityTimeout = 10 * time.Second

// clickProbeTimeout bounds a single click attempt; an attempt that
// cannot complete within it is reported as not interactable so the
// retry policy can take over.
const clickProbeTimeout = 2 * time.Second

// sessionGoneSignatures are substrings of chromedp errors that indicate
// the browser or tab was torn down underneath us.
var sessionGoneSignatures = []string{
	"websocket",
	"target closed",
	"no target with given id",
	"browser closed",
	"connection closed",
}

// notInteractableSignatures are substrings of chromedp errors for
// transiently unclickable elements.
var notInteractableSignatures = []string{
	"not visible",
	"not clickable",
	"not interactable",
	"could not compute box model",
	"node not found",
}

// cdpSession implements Session over a chromedp tab context.
type cdpSession struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	cfg    config.BrowserConfig

	implicitWait time.Duration
	refCounter   atomic.Int64
}

type cdpElement struct {
	sel  string
	desc string
}

func (e *cdpElement) Selector() string { return e.sel }

func newCDPSession(ctx context.Context, cancel context.CancelFunc, logger *zap.Logger, cfg config.BrowserConfig) *cdpSession {
	return &cdpSession{
		ctx:    ctx,
		cancel: cancel,
		logger: logger.Named("session"),
		cfg:    cfg,
	}
}

// run executes chromedp actions on the tab. The actions run on a
// context derived from the tab's, so the caller's deadline or
// cancellation tears the action itself down rather than just
// abandoning it; a timed-out click must stop polling, not fire later.
func (s *cdpSession) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := s.ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionGone, err)
	}
	runCtx, cancel := runContext(s.ctx, ctx)
	defer cancel()
	return s.mapErr(chromedp.Run(runCtx, actions...))
}

// runContext derives the context an action runs on: the tab context
// bounded by the caller's deadline and cancellation.
func runContext(tab, caller context.Context) (context.Context, context.CancelFunc) {
	var runCtx context.Context
	var cancel context.CancelFunc
	if deadline, ok := caller.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(tab, deadline)
	} else {
		runCtx, cancel = context.WithCancel(tab)
	}
	stop := context.AfterFunc(caller, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// mapErr classifies a chromedp failure into the session fault taxonomy.
func (s *cdpSession) mapErr(err error) error {
	if err == nil {
		return nil
	}
	if s.ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrSessionGone, err)
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range sessionGoneSignatures {
		if strings.Contains(msg, sig) {
			return fmt.Errorf("%w: %v", ErrSessionGone, err)
		}
	}
	return err
}

func (s *cdpSession) Navigate(ctx context.Context, url string) error {
	s.logger.Info("Navigating", zap.String("url", url))
	navCtx := ctx
	if s.cfg.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, s.cfg.NavigationTimeout)
		defer cancel()
	}
	return s.run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// SetImplicitWait switches the query wait mode. A positive duration
// makes Find poll until at least one match appears or the wait
// elapses; zero makes Find a single immediate query.
func (s *cdpSession) SetImplicitWait(d time.Duration) {
	s.logger.Debug("Implicit wait changed", zap.Duration("wait", d))
	s.implicitWait = d
}

func (s *cdpSession) Find(ctx context.Context, by By) ([]Element, error) {
	return s.find(ctx, "", by)
}

func (s *cdpSession) FindIn(ctx context.Context, root Element, by By) ([]Element, error) {
	return s.find(ctx, root.Selector()+" ", by)
}

func (s *cdpSession) find(ctx context.Context, scope string, by By) ([]Element, error) {
	sel := scope + by.CSS()
	els, err := pollUntilFound(ctx, s.implicitWait, s.cfg.PollInterval, func(ctx context.Context) ([]Element, error) {
		return s.queryOnce(ctx, sel)
	})
	if err != nil {
		return nil, s.mapErr(err)
	}
	return els, nil
}

// pollUntilFound re-runs query until it yields at least one match, the
// wait elapses, or ctx ends. A zero wait queries exactly once; absence
// is returned to the caller as an empty slice, never an error.
func pollUntilFound(ctx context.Context, wait, interval time.Duration, query func(context.Context) ([]Element, error)) ([]Element, error) {
	deadline := time.Now().Add(wait)
	for {
		els, err := query(ctx)
		if err != nil {
			return nil, err
		}
		if len(els) > 0 || wait <= 0 || time.Now().After(deadline) {
			return els, nil
		}
		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// queryOnce runs a single non-waiting query and tags every match with
// a fresh reference attribute, returning handles addressing the tags.
func (s *cdpSession) queryOnce(ctx context.Context, sel string) ([]Element, error) {
	var nodes []*cdp.Node
	err := s.run(ctx, chromedp.Nodes(sel, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)))
	if err != nil {
		return nil, err
	}
	els := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		ref := fmt.Sprintf("fb-%d", s.refCounter.Add(1))
		tag := chromedp.ActionFunc(func(ctx context.Context) error {
			return dom.SetAttributeValue(n.NodeID, refAttr, ref).Do(ctx)
		})
		if err := s.run(ctx, tag); err != nil {
			// The node vanished between query and tagging; skip it the
			// same way a re-query would no longer see it.
			s.logger.Debug("Element went stale before tagging", zap.String("selector", sel), zap.Error(err))
			if errors.Is(err, ErrSessionGone) {
				return nil, err
			}
			continue
		}
		els = append(els, &cdpElement{
			sel:  fmt.Sprintf(`[%s=%q]`, refAttr, ref),
			desc: sel,
		})
	}
	return els, nil
}

func (s *cdpSession) ScrollIntoView(ctx context.Context, el Element) error {
	src := fmt.Sprintf(`document.querySelector('%s')?.scrollIntoView(true)`, jsEscape(el.Selector()))
	return s.run(ctx, chromedp.Evaluate(src, nil))
}

func (s *cdpSession) Click(ctx context.Context, el Element) error {
	probeCtx, cancel := context.WithTimeout(ctx, clickProbeTimeout)
	defer cancel()
	err := s.run(probeCtx, chromedp.Click(el.Selector(), chromedp.ByQuery))
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrSessionGone) {
		return err
	}
	if probeCtx.Err() != nil && ctx.Err() == nil {
		return fmt.Errorf("%w: click timed out on %s", ErrNotInteractable, el.Selector())
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range notInteractableSignatures {
		if strings.Contains(msg, sig) {
			return fmt.Errorf("%w: %v", ErrNotInteractable, err)
		}
	}
	return err
}

func (s *cdpSession) Type(ctx context.Context, el Element, text string) error {
	return s.run(ctx, chromedp.SendKeys(el.Selector(), text, chromedp.ByQuery))
}

func (s *cdpSession) WaitVisible(ctx context.Context, el Element) error {
	waitCtx, cancel := context.WithTimeout(ctx, visibilityTimeout)
	defer cancel()
	return s.run(waitCtx, chromedp.WaitVisible(el.Selector(), chromedp.ByQuery))
}

func (s *cdpSession) Text(ctx context.Context, el Element) (string, error) {
	var out string
	src := fmt.Sprintf(`document.querySelector('%s')?.innerText ?? ""`, jsEscape(el.Selector()))
	err := s.run(ctx, chromedp.Evaluate(src, &out))
	return out, err
}

func (s *cdpSession) Attribute(ctx context.Context, el Element, name string) (string, bool, error) {
	var value string
	var ok bool
	err := s.run(ctx, chromedp.AttributeValue(el.Selector(), name, &value, &ok, chromedp.ByQuery))
	return value, ok, err
}

func (s *cdpSession) OuterHTML(ctx context.Context, el Element) (string, error) {
	var out string
	err := s.run(ctx, chromedp.OuterHTML(el.Selector(), &out, chromedp.ByQuery))
	return out, err
}

func (s *cdpSession) RunScript(ctx context.Context, src string) error {
	return s.run(ctx, chromedp.Evaluate(src, nil))
}

func (s *cdpSession) Close(ctx context.Context) error {
	s.logger.Debug("Closing session")
	s.cancel()
	return nil
}

// jsEscape makes a selector safe for embedding in a single-quoted
// JavaScript string literal.
func jsEscape(sel string) string {
	sel = strings.ReplaceAll(sel, `\`, `\\`)
	return strings.ReplaceAll(sel, `'`, `\'`)
}
