package browser_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maxburton/firebird/internal/browser"
	"github.com/maxburton/firebird/internal/browser/browsertest"
)

func notInteractableTimes(n int) []error {
	errs := make([]error, n)
	for i := range errs {
		errs[i] = browser.ErrNotInteractable
	}
	return errs
}

func TestClickWithRetryEventuallySucceeds(t *testing.T) {
	s := browsertest.NewFakeSession()
	el := &browsertest.FakeElement{
		Sel:       "#addButton",
		ClickErrs: notInteractableTimes(9),
	}

	err := browser.ClickWithRetry(context.Background(), s, el, 10, time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, s.Clicked, 10)
}

func TestClickWithRetryExhaustsBudget(t *testing.T) {
	s := browsertest.NewFakeSession()
	el := &browsertest.FakeElement{
		Sel:       "#addButton",
		ClickErrs: notInteractableTimes(10),
	}

	err := browser.ClickWithRetry(context.Background(), s, el, 10, time.Millisecond, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, browser.ErrNotClickable)
	assert.Len(t, s.Clicked, 10)
}

func TestClickWithRetryStopsOnOtherFailures(t *testing.T) {
	s := browsertest.NewFakeSession()
	el := &browsertest.FakeElement{
		Sel:       "#addButton",
		ClickErrs: []error{browser.ErrSessionGone},
	}

	err := browser.ClickWithRetry(context.Background(), s, el, 10, time.Millisecond, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, browser.ErrSessionGone)
	assert.Len(t, s.Clicked, 1)
}

func TestFindFirstReturnsPresenceFlag(t *testing.T) {
	s := browsertest.NewFakeSession()
	s.Set("id:estimateTimeLabel", &browsertest.FakeElement{Sel: "#estimateTimeLabel", TextValue: "20-30 min"})

	el, ok, err := browser.FindFirst(context.Background(), s, browser.ByID("estimateTimeLabel"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "#estimateTimeLabel", el.Selector())

	_, ok, err = browser.FindFirst(context.Background(), s, browser.ByID("missing"))
	require.NoError(t, err)
	assert.False(t, ok)
}
