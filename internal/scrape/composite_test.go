package scrape

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maxburton/firebird/internal/browser/browsertest"
)

func openDialog(s *browsertest.FakeSession) {
	s.Set("class:c-menupicker__options", &browsertest.FakeElement{Sel: "#pickerOptions"})
	s.Set("sel:div.c-menupicker__dialog.show", &browsertest.FakeElement{Sel: "#pickerDialog"})
}

func TestIsOpenRequiresVisibleDialog(t *testing.T) {
	s := browsertest.NewFakeSession()
	w := NewCompositeWalker(s, zap.NewNop(), 10)

	open, err := w.IsOpen(context.Background())
	require.NoError(t, err)
	assert.False(t, open)

	// Header markup lingering in the DOM without a visible dialog does
	// not count as open.
	s.Set("class:c-menupicker__options", &browsertest.FakeElement{Sel: "#pickerOptions"})
	open, err = w.IsOpen(context.Background())
	require.NoError(t, err)
	assert.False(t, open)

	s.Set("sel:div.c-menupicker__dialog.show", &browsertest.FakeElement{Sel: "#pickerDialog"})
	open, err = w.IsOpen(context.Background())
	require.NoError(t, err)
	assert.True(t, open)
}

func TestWalkMultiTwoScreens(t *testing.T) {
	s := browsertest.NewFakeSession()
	openDialog(s)

	secondConfirm := &browsertest.FakeElement{Sel: "#confirm2", OnClick: func(s *browsertest.FakeSession) {
		// Last screen confirmed: dialog settles.
		s.Remove("class:c-menupicker__extra-add")
		s.Remove("sel:input.submit.disabled")
		s.Set("class:c-menupicker__option")
	}}

	firstConfirm := &browsertest.FakeElement{Sel: "#confirm1", OnClick: func(s *browsertest.FakeSession) {
		// Advance to the second screen.
		s.Set("class:c-menupicker__option", &browsertest.FakeElement{Sel: "#opt3", TextValue: "Dip"})
		s.Set("#opt3/sel:div", &browsertest.FakeElement{Sel: "#opt3name", TextValue: "• Garlic Dip"})
		s.Set("class:c-menupicker__extra-add", &browsertest.FakeElement{Sel: "#extra2"})
		s.Set("#summary/class:submit", secondConfirm)
	}}

	s.Set("class:c-menupicker__option",
		&browsertest.FakeElement{Sel: "#opt1"},
		&browsertest.FakeElement{Sel: "#opt2"},
	)
	s.Set("#opt1/sel:div", &browsertest.FakeElement{Sel: "#opt1name", TextValue: "• Cheese"})
	s.Set("#opt1/class:c-menupicker__option-price", &browsertest.FakeElement{Sel: "#opt1price", TextValue: "£1.50"})
	s.Set("#opt2/sel:div", &browsertest.FakeElement{Sel: "#opt2name", TextValue: "• Mushrooms"})
	s.Set("class:c-menupicker__extra-add", &browsertest.FakeElement{Sel: "#extra1"})
	s.Set("sel:input.submit.disabled", &browsertest.FakeElement{Sel: "#submitDisabled"})
	s.Set("sel:div#customisableProductSummary", &browsertest.FakeElement{Sel: "#summary"})
	s.Set("#summary/class:submit", firstConfirm)
	s.Set("class:c-menupicker__close", &browsertest.FakeElement{Sel: "#close"})

	w := NewCompositeWalker(s, zap.NewNop(), 10)
	groups, err := w.Walk(context.Background())
	require.NoError(t, err)

	require.Len(t, groups, 2)
	assert.Equal(t, GroupMulti, groups[0].Kind)
	assert.Equal(t, GroupMulti, groups[1].Kind)

	require.Len(t, groups[0].Items, 2)
	assert.Equal(t, CompositeOption{Name: "Cheese", Price: "1.50"}, groups[0].Items[0])
	assert.Equal(t, CompositeOption{Name: "Mushrooms", Price: "0.00"}, groups[0].Items[1])

	require.Len(t, groups[1].Items, 1)
	assert.Equal(t, CompositeOption{Name: "Garlic Dip", Price: "0.00"}, groups[1].Items[0])

	assert.Contains(t, s.Clicked, "#extra1")
	assert.Contains(t, s.Clicked, "#confirm1")
	assert.Contains(t, s.Clicked, "#extra2")
	assert.Contains(t, s.Clicked, "#confirm2")
	assert.Equal(t, "#close", s.Clicked[len(s.Clicked)-1])
}

func TestWalkSingleScreenAdvancesOnFirstOption(t *testing.T) {
	s := browsertest.NewFakeSession()
	openDialog(s)

	first := &browsertest.FakeElement{Sel: "#opt1", OnClick: func(s *browsertest.FakeSession) {
		s.Set("class:c-menupicker__option")
	}}
	s.Set("class:c-menupicker__option", first, &browsertest.FakeElement{Sel: "#opt2"})
	s.Set("#opt1/sel:div", &browsertest.FakeElement{Sel: "#opt1name", TextValue: "Small"})
	s.Set("#opt2/sel:div", &browsertest.FakeElement{Sel: "#opt2name", TextValue: "Large"})
	s.Set("#opt2/class:c-menupicker__option-price", &browsertest.FakeElement{Sel: "#opt2price", TextValue: "£2.00"})
	s.Set("class:c-menupicker__close", &browsertest.FakeElement{Sel: "#close"})

	w := NewCompositeWalker(s, zap.NewNop(), 10)
	groups, err := w.Walk(context.Background())
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.Equal(t, GroupSingle, groups[0].Kind)
	require.Len(t, groups[0].Items, 2)
	assert.Equal(t, CompositeOption{Name: "Small", Price: "0.00"}, groups[0].Items[0])
	assert.Equal(t, CompositeOption{Name: "Large", Price: "2.00"}, groups[0].Items[1])
	assert.Equal(t, []string{"#opt1", "#close"}, s.Clicked)
}

func TestWalkZeroOptionScreenYieldsEmptySingleGroup(t *testing.T) {
	s := browsertest.NewFakeSession()
	openDialog(s)
	s.Set("class:c-menupicker__close", &browsertest.FakeElement{Sel: "#close"})

	w := NewCompositeWalker(s, zap.NewNop(), 10)
	groups, err := w.Walk(context.Background())
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.Equal(t, GroupSingle, groups[0].Kind)
	assert.Empty(t, groups[0].Items)
}

func TestWalkScreenCapConvertsHangIntoFault(t *testing.T) {
	s := browsertest.NewFakeSession()
	openDialog(s)
	// Submit stays disabled forever and no screen ever advances.
	s.Set("sel:input.submit.disabled", &browsertest.FakeElement{Sel: "#submitDisabled"})

	w := NewCompositeWalker(s, zap.NewNop(), 3)
	_, err := w.Walk(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not settle")
}
