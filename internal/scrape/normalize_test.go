package scrape

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	price, err := ParsePrice("£4.50")
	require.NoError(t, err)
	assert.Equal(t, "4.50", price)

	price, err = ParsePrice("from £12.00")
	require.NoError(t, err)
	assert.Equal(t, "12.00", price)

	_, err = ParsePrice("4.50")
	require.Error(t, err)
	var ambiguity *AmbiguityError
	require.True(t, errors.As(err, &ambiguity))
	assert.Equal(t, "price", ambiguity.Field)
}

func TestCleanLeadingNonLetter(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"• Cheese", "Cheese"},
		{"1. Thin Crust", "Thin Crust"},
		{"Plain", "Plain"},
		{"12\" ", "12\" "},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanLeadingNonLetter(tt.in), "input %q", tt.in)
	}
}

func TestNormalizePostcode(t *testing.T) {
	assert.Equal(t, "PA32AN", NormalizePostcode("PA3 2AN"))
	assert.Equal(t, "PA32AN", NormalizePostcode("  PA3  2AN "))
	assert.Equal(t, "PA32AN", NormalizePostcode("PA32AN"))
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Golden Dragon", "the-golden-dragon"},
		{"Mario's Pizza & Grill", "marios-pizza-grill"},
		{"Café Rouge", "caf-rouge"},
		{"  spaced   out  ", "spaced-out"},
		{"already-hyphenated", "already-hyphenated"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "input %q", tt.in)
	}
}

func TestCleanURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"www.just-eat.co.uk/restaurants-golden-dragon/menu", "https://www.just-eat.co.uk/restaurants-golden-dragon"},
		{"https://www.just-eat.co.uk/restaurants-golden-dragon", "https://www.just-eat.co.uk/restaurants-golden-dragon"},
		{"http://example.com/place/extra/segments", "http://example.com/place"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanURL(tt.in), "input %q", tt.in)
	}
}

func TestRebrandDescription(t *testing.T) {
	assert.Equal(t, "order on goeatdirect today", RebrandDescription("order on just-eat today"))
	assert.Equal(t, "GO EAT DIRECT exclusive", RebrandDescription("JUST EAT exclusive"))
	assert.Equal(t, "untouched text", RebrandDescription("untouched text"))
}

func TestSynthesizePostcode(t *testing.T) {
	assert.Equal(t, "Paisley1NH", SynthesizePostcode("Paisley Town Centre", "1NH"))
	assert.Equal(t, "PA31NH", SynthesizePostcode("PA3", "1NH"))
	assert.Equal(t, "1NH", SynthesizePostcode("", "1NH"))
}
