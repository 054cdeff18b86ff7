package scrape

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maxburton/firebird/internal/browser/browsertest"
)

func TestResolveClosedForDay(t *testing.T) {
	s := browsertest.NewFakeSession()
	s.Set("id:closedForTheDayPrompt", &browsertest.FakeElement{Sel: "#closedForTheDayPrompt"})
	s.Set("id:browsing", &browsertest.FakeElement{Sel: "#browsing"})
	s.Set("class:estimateTimeLabel",
		&browsertest.FakeElement{Sel: "#est0", TextValue: "Today"},
		&browsertest.FakeElement{Sel: "#est1", TextValue: "Friday 17:00"},
	)

	resolver := NewPopupResolver(s, zap.NewNop())
	err := resolver.Resolve(context.Background(), false, "PA32AN")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRestaurantClosed)

	var closed *ClosedError
	require.True(t, errors.As(err, &closed))
	assert.Equal(t, "Friday 17:00", closed.NextOpen)
	assert.Contains(t, s.Clicked, "#browsing")
}

func TestResolveDeliveryOnlyEntersPostcode(t *testing.T) {
	s := browsertest.NewFakeSession()
	s.Set("id:postcodePromptContainer", &browsertest.FakeElement{Sel: "#postcodePromptContainer"})
	s.Set("id:postcodeEntry", &browsertest.FakeElement{Sel: "#postcodeEntry"})
	s.Set("#postcodePromptContainer/id:postcodeFormContainer", &browsertest.FakeElement{Sel: "#postcodeFormContainer"})
	s.Set("#postcodeFormContainer/sel:button.submit.o-btn.o-btn--primary", &browsertest.FakeElement{Sel: "#postcodeConfirm"})

	resolver := NewPopupResolver(s, zap.NewNop())
	err := resolver.Resolve(context.Background(), true, "Paisley1NH")
	require.NoError(t, err)

	assert.Equal(t, []string{"Paisley1NH"}, s.Typed["#postcodeEntry"])
	assert.Contains(t, s.Clicked, "#postcodeConfirm")
}

func TestResolveOpenWithoutPromptsIsNoop(t *testing.T) {
	s := browsertest.NewFakeSession()

	resolver := NewPopupResolver(s, zap.NewNop())
	err := resolver.Resolve(context.Background(), false, "PA32AN")
	require.NoError(t, err)
	assert.Empty(t, s.Clicked)
	assert.Empty(t, s.Typed)
}

func TestResolvePreOrderPath(t *testing.T) {
	s := browsertest.NewFakeSession()
	s.Set("id:currentlyNotOpenPrompt", &browsertest.FakeElement{Sel: "#currentlyNotOpenPrompt"})
	s.Set("class:preOrderLaterButton", &browsertest.FakeElement{Sel: "#preOrderContainer"})
	s.Set("#preOrderContainer/class:o-btn--secondary", &browsertest.FakeElement{Sel: "#preOrderButton"})

	resolver := NewPopupResolver(s, zap.NewNop())
	err := resolver.Resolve(context.Background(), false, "PA32AN")
	require.NoError(t, err)
	assert.Contains(t, s.Clicked, "#preOrderButton")
}
