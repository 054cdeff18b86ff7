// Package browsertest provides a scriptable in-memory Session for
// exercising scrape logic without a browser.
package browsertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/maxburton/firebird/internal/browser"
)

// FakeElement is a scripted DOM node. ClickErrs are consumed one per
// Click call; once drained, clicks succeed and OnClick (if set) runs.
type FakeElement struct {
	Sel       string
	TextValue string
	Attrs     map[string]string
	HTML      string
	ClickErrs []error
	OnClick   func(s *FakeSession)
}

func (e *FakeElement) Selector() string { return e.Sel }

// FakeSession serves elements from a query-key map. Keys follow the
// locator shape: "id:street", "class:addButton", "sel:td". Scoped
// queries first try "<rootSelector>/<key>", then fall back to the
// bare key.
type FakeSession struct {
	mu       sync.Mutex
	Elements map[string][]*FakeElement

	Clicked     []string
	Typed       map[string][]string
	Navigated   []string
	Scripts     []string
	NavigateErr error
	Wait        time.Duration
	WaitHistory []time.Duration
	Closed      bool
}

func NewFakeSession() *FakeSession {
	return &FakeSession{
		Elements: make(map[string][]*FakeElement),
		Typed:    make(map[string][]string),
	}
}

// Key renders a By the way the fake indexes it.
func Key(by browser.By) string {
	switch {
	case by.ID != "":
		return "id:" + by.ID
	case by.Class != "":
		return "class:" + by.Class
	default:
		return "sel:" + by.Selector
	}
}

// Set replaces the elements served for a query key.
func (s *FakeSession) Set(key string, els ...*FakeElement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Elements[key] = els
}

// Remove drops a query key so subsequent finds come back empty.
func (s *FakeSession) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Elements, key)
}

func (s *FakeSession) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Navigated = append(s.Navigated, url)
	return s.NavigateErr
}

func (s *FakeSession) SetImplicitWait(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Wait = d
	s.WaitHistory = append(s.WaitHistory, d)
}

func (s *FakeSession) Find(ctx context.Context, by browser.By) ([]browser.Element, error) {
	return s.lookup(Key(by)), nil
}

func (s *FakeSession) FindIn(ctx context.Context, root browser.Element, by browser.By) ([]browser.Element, error) {
	scoped := root.Selector() + "/" + Key(by)
	if els := s.lookup(scoped); els != nil {
		return els, nil
	}
	return s.lookup(Key(by)), nil
}

func (s *FakeSession) lookup(key string) []browser.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	fakes, ok := s.Elements[key]
	if !ok {
		return nil
	}
	els := make([]browser.Element, len(fakes))
	for i, f := range fakes {
		els[i] = f
	}
	return els
}

func (s *FakeSession) ScrollIntoView(ctx context.Context, el browser.Element) error { return nil }

func (s *FakeSession) Click(ctx context.Context, el browser.Element) error {
	fake, ok := el.(*FakeElement)
	if !ok {
		return fmt.Errorf("foreign element %s", el.Selector())
	}
	s.mu.Lock()
	s.Clicked = append(s.Clicked, fake.Sel)
	var err error
	if len(fake.ClickErrs) > 0 {
		err = fake.ClickErrs[0]
		fake.ClickErrs = fake.ClickErrs[1:]
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if fake.OnClick != nil {
		fake.OnClick(s)
	}
	return nil
}

func (s *FakeSession) Type(ctx context.Context, el browser.Element, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Typed[el.Selector()] = append(s.Typed[el.Selector()], text)
	return nil
}

func (s *FakeSession) WaitVisible(ctx context.Context, el browser.Element) error { return nil }

func (s *FakeSession) Text(ctx context.Context, el browser.Element) (string, error) {
	fake, ok := el.(*FakeElement)
	if !ok {
		return "", fmt.Errorf("foreign element %s", el.Selector())
	}
	return fake.TextValue, nil
}

func (s *FakeSession) Attribute(ctx context.Context, el browser.Element, name string) (string, bool, error) {
	fake, ok := el.(*FakeElement)
	if !ok {
		return "", false, fmt.Errorf("foreign element %s", el.Selector())
	}
	v, present := fake.Attrs[name]
	return v, present, nil
}

func (s *FakeSession) OuterHTML(ctx context.Context, el browser.Element) (string, error) {
	fake, ok := el.(*FakeElement)
	if !ok {
		return "", fmt.Errorf("foreign element %s", el.Selector())
	}
	return fake.HTML, nil
}

func (s *FakeSession) RunScript(ctx context.Context, src string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Scripts = append(s.Scripts, src)
	return nil
}

func (s *FakeSession) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}
