package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maxburton/firebird/internal/scrape"
)

func testDocument() *scrape.Document {
	return &scrape.Document{
		Restaurant: scrape.RestaurantInfo{
			Name:         "The Golden Dragon",
			PhoneNumber:  "0141 555 0199",
			Street:       "1 High Street",
			City:         "Paisley",
			Postcode:     "PA32AN",
			Description:  "Family-run takeaway",
			OpeningTimes: "\nMonday\n17:00 - 22:00",
			DeliveryAreas: []scrape.DeliveryAreaFee{
				{Area: "Paisley North", Postcode: "Paisley1NH", Fee: "£2.50"},
			},
		},
		Categories: []scrape.Category{
			{Name: "Pizzas", Description: "Stone-baked, from £5.00\nAll day"},
		},
		Menu: []scrape.Product{
			{
				Name: "Margherita",
				SubItems: []scrape.SubItem{
					{Name: "Margherita - Small", Category: "Pizzas", Price: "3.00"},
				},
			},
		},
	}
}

func TestAllocateCreatesUniqueDirectories(t *testing.T) {
	root := t.TempDir()
	s := NewStore(filepath.Join(root, "Restaurant_Files"), zap.NewNop())

	loc1, err := s.Allocate("The Golden Dragon", "PA32AN")
	require.NoError(t, err)
	loc2, err := s.Allocate("The Golden Dragon", "PA32AN")
	require.NoError(t, err)

	assert.NotEqual(t, loc1.Dir, loc2.Dir)
	assert.Contains(t, filepath.Base(loc1.Dir), "the-golden-dragon_pa32an_")

	info, err := os.Stat(loc1.Dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestWriteProducesAllThreeFiles(t *testing.T) {
	s := NewStore(t.TempDir(), zap.NewNop())
	loc, err := s.Allocate("The Golden Dragon", "PA32AN")
	require.NoError(t, err)

	require.NoError(t, s.Write(loc, testDocument()))

	infoBytes, err := os.ReadFile(filepath.Join(loc.Dir, "info.txt"))
	require.NoError(t, err)
	info := string(infoBytes)
	assert.Contains(t, info, "Restaurant Name: The Golden Dragon")
	assert.Contains(t, info, "Phone Number: 0141 555 0199")
	assert.Contains(t, info, "Postcode: PA32AN")
	assert.Contains(t, info, "Opening Times: \nMonday\n17:00 - 22:00")
	assert.Contains(t, info, "Delivery Areas: \nPaisley North £2.50")

	csvBytes, err := os.ReadFile(filepath.Join(loc.Dir, "categories.csv"))
	require.NoError(t, err)
	assert.Equal(t,
		"category,description\nPizzas,Stone-baked  from &#163;5.00 -- All day\n",
		string(csvBytes))

	menuBytes, err := os.ReadFile(filepath.Join(loc.Dir, "menu.json"))
	require.NoError(t, err)
	var menu struct {
		Restaurant string           `json:"restaurant"`
		Menu       []scrape.Product `json:"menu"`
	}
	require.NoError(t, json.Unmarshal(menuBytes, &menu))
	assert.Equal(t, "The Golden Dragon", menu.Restaurant)
	require.Len(t, menu.Menu, 1)
	assert.Equal(t, "Margherita - Small", menu.Menu[0].SubItems[0].Name)
}

func TestMenuJSONOmitsCompositesWhenAbsent(t *testing.T) {
	data, err := json.Marshal(scrape.SubItem{Name: "Plain", Price: "1.00"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "composites")

	data, err = json.Marshal(scrape.SubItem{
		Name:        "Custom",
		Price:       "2.00",
		IsComposite: true,
		Composites: []scrape.CompositeGroup{
			{Kind: scrape.GroupMulti, Items: []scrape.CompositeOption{{Name: "Cheese", Price: "0.50"}}},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"Multi"`)
	assert.Contains(t, string(data), `"composites"`)
}

func TestDiscardRemovesLocation(t *testing.T) {
	s := NewStore(t.TempDir(), zap.NewNop())
	loc, err := s.Allocate("The Golden Dragon", "PA32AN")
	require.NoError(t, err)
	require.NoError(t, s.Write(loc, testDocument()))

	require.NoError(t, loc.Discard())
	_, err = os.Stat(loc.Dir)
	assert.True(t, os.IsNotExist(err))
}

func TestEscapeCSVField(t *testing.T) {
	assert.Equal(t, "a b -- c &#163;1", EscapeCSVField("a,b\nc £1"))
	assert.Equal(t, "plain", EscapeCSVField("plain"))
}
