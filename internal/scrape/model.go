// Package scrape implements the page-navigation state machine that
// coaxes a restaurant's single-page ordering site into revealing its
// full catalog: popup resolution, composite-dialog traversal, the
// category/product/sub-item extraction and the per-area delivery fee
// survey.
package scrape

// RestaurantInfo holds the metadata scraped from the landing page.
// Assembled once per scrape and immutable afterwards.
type RestaurantInfo struct {
	Name          string
	PhoneNumber   string
	Street        string
	City          string
	Postcode      string
	Description   string
	OpeningTimes  string
	DeliveryAreas []DeliveryAreaFee
}

// DeliveryAreaFee records the fee discovered for one delivery area.
// Postcode is synthesized from the area name and may not be a real
// postcode; Fee falls back to "£0.00" when the basket never showed a
// fee line.
type DeliveryAreaFee struct {
	Area     string
	Postcode string
	Fee      string
}

// Category is one storefront menu category.
type Category struct {
	Name        string
	Description string
}

// Product groups the sub-items sold under one menu entry.
type Product struct {
	Name     string    `json:"name"`
	SubItems []SubItem `json:"subItems"`
}

// SubItem is a named pricing variant of a product. Products without
// declared variants still carry exactly one SubItem named after the
// product itself.
type SubItem struct {
	Name        string           `json:"name"`
	Category    string           `json:"category"`
	Description string           `json:"description"`
	Price       string           `json:"price"`
	IsComposite bool             `json:"isComposite"`
	Composites  []CompositeGroup `json:"composites,omitempty"`
}

// Group kinds for a customisation screen.
const (
	GroupSingle = "Single"
	GroupMulti  = "Multi"
)

// CompositeGroup is one screen of a product's customisation dialog.
// Single screens advance on choosing one option; Multi screens take
// one-or-more extras followed by an explicit confirm.
type CompositeGroup struct {
	Kind  string            `json:"type"`
	Items []CompositeOption `json:"items"`
}

// CompositeOption is one choice on a customisation screen. Price is
// the bare decimal string with the currency marker stripped, "0.00"
// when the option renders no price element.
type CompositeOption struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

// Document is the complete result of one successful scrape.
type Document struct {
	Restaurant RestaurantInfo
	Categories []Category
	Menu       []Product
}
