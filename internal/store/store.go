// Package store persists a scrape result as the three output files:
// a restaurant info block, a categories table and the menu document.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maxburton/firebird/internal/scrape"
)

const (
	infoFile       = "info.txt"
	categoriesFile = "categories.csv"
	menuFile       = "menu.json"
)

// Store allocates per-restaurant output directories under a common
// root and writes scrape documents into them.
type Store struct {
	root   string
	logger *zap.Logger
}

func NewStore(root string, logger *zap.Logger) *Store {
	return &Store{
		root:   root,
		logger: logger.Named("store"),
	}
}

// Location is one allocated per-restaurant output directory.
type Location struct {
	Dir string
}

// Paths lists the output files inside the location, written or not.
func (l *Location) Paths() []string {
	return []string{
		filepath.Join(l.Dir, menuFile),
		filepath.Join(l.Dir, categoriesFile),
		filepath.Join(l.Dir, infoFile),
	}
}

// Discard removes the location and everything in it. Called when an
// attempt fails so partial output never survives.
func (l *Location) Discard() error {
	return os.RemoveAll(l.Dir)
}

// Allocate creates a fresh directory named from the slugified
// restaurant identity plus a unique suffix, so concurrent or repeated
// scrapes of the same restaurant never collide.
func (s *Store) Allocate(restaurantName, postcode string) (*Location, error) {
	if err := os.MkdirAll(s.root, 0o777); err != nil {
		return nil, fmt.Errorf("creating output root: %w", err)
	}

	name := scrape.Slugify(restaurantName+"_"+postcode) + "_" + uuid.NewString()[:8]
	dir := filepath.Join(s.root, name)
	if err := os.Mkdir(dir, 0o777); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	s.logger.Info("Directory created", zap.String("dir", dir))
	return &Location{Dir: dir}, nil
}

// Write serializes the whole document into the location.
func (s *Store) Write(loc *Location, doc *scrape.Document) error {
	if err := s.writeInfo(loc, &doc.Restaurant); err != nil {
		return err
	}
	if err := s.writeCategories(loc, doc.Categories); err != nil {
		return err
	}
	return s.writeMenu(loc, doc)
}

func (s *Store) writeInfo(loc *Location, info *scrape.RestaurantInfo) error {
	s.logger.Info("Writing restaurant info to file", zap.String("restaurant", info.Name))

	var areas strings.Builder
	for _, fee := range info.DeliveryAreas {
		areas.WriteString("\n" + fee.Area + " " + fee.Fee)
	}

	var b strings.Builder
	b.WriteString("Restaurant Name: " + info.Name)
	b.WriteString("\nPhone Number: " + info.PhoneNumber)
	b.WriteString("\nDescription: " + info.Description)
	b.WriteString("\nStreet: " + info.Street)
	b.WriteString("\nCity: " + info.City)
	b.WriteString("\nPostcode: " + info.Postcode)
	b.WriteString("\n\nOpening Times: " + info.OpeningTimes)
	b.WriteString("\n\nDelivery Areas: " + areas.String())

	return writeFile(filepath.Join(loc.Dir, infoFile), []byte(b.String()))
}

func (s *Store) writeCategories(loc *Location, categories []scrape.Category) error {
	s.logger.Info("Creating categories csv file", zap.Int("count", len(categories)))

	var b strings.Builder
	b.WriteString("category,description\n")
	for _, cat := range categories {
		b.WriteString(cat.Name + "," + EscapeCSVField(cat.Description) + "\n")
	}
	return writeFile(filepath.Join(loc.Dir, categoriesFile), []byte(b.String()))
}

func (s *Store) writeMenu(loc *Location, doc *scrape.Document) error {
	out := struct {
		Restaurant string           `json:"restaurant"`
		Menu       []scrape.Product `json:"menu"`
	}{
		Restaurant: doc.Restaurant.Name,
		Menu:       doc.Menu,
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshaling menu: %w", err)
	}
	return writeFile(filepath.Join(loc.Dir, menuFile), data)
}

// EscapeCSVField neutralizes the characters that break the downstream
// consumer of the categories table: newlines become a visible
// separator, commas become spaces and the currency marker becomes its
// HTML entity.
func EscapeCSVField(s string) string {
	s = strings.ReplaceAll(s, "\n", " -- ")
	s = strings.ReplaceAll(s, ",", " ")
	s = strings.ReplaceAll(s, "£", "&#163;")
	return s
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o666); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
