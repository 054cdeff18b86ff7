package scrape

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/maxburton/firebird/internal/browser"
	"github.com/maxburton/firebird/internal/config"
)

// removeNotificationScript deletes the transient "product added"
// toast, which otherwise overlaps and blocks clicks on add buttons.
const removeNotificationScript = `
var element = document.querySelector("#userNotification");
if (element)
    element.parentNode.removeChild(element);
`

// Extractor drives one complete scrape over a single browser session:
// restaurant info, delivery fee survey, then the full category,
// product and sub-item traversal.
type Extractor struct {
	session browser.Session
	logger  *zap.Logger
	cfg     config.ScrapeConfig
	waits   config.BrowserConfig
	popups  *PopupResolver
	walker  *CompositeWalker
	survey  *DeliverySurvey
}

func NewExtractor(session browser.Session, logger *zap.Logger, cfg config.ScrapeConfig, waits config.BrowserConfig) *Extractor {
	return &Extractor{
		session: session,
		logger:  logger.Named("extractor"),
		cfg:     cfg,
		waits:   waits,
		popups:  NewPopupResolver(session, logger),
		walker:  NewCompositeWalker(session, logger, cfg.CompositeScreenCap),
		survey:  NewDeliverySurvey(session, logger, cfg, waits),
	}
}

// Run scrapes the restaurant at the given (cleaned) URL into a
// Document. The outcome is either a fully populated document or a
// typed fault; there is no partial success.
func (e *Extractor) Run(ctx context.Context, url string) (*Document, error) {
	menuURL := url + "/menu"

	e.session.SetImplicitWait(e.waits.LongWait)
	e.logger.Info("Loading URL", zap.String("url", url))
	if err := e.session.Navigate(ctx, url); err != nil {
		return nil, fmt.Errorf("loading landing page: %w", err)
	}
	e.logger.Info("Loaded")

	info, err := e.scrapeInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("scraping restaurant info: %w", err)
	}

	areas, err := e.scrapeDeliveryAreas(ctx)
	if err != nil {
		return nil, fmt.Errorf("scraping delivery areas: %w", err)
	}
	if e.cfg.SurveyDeliveryFees {
		info.DeliveryAreas, err = e.survey.Run(ctx, menuURL, areas)
		if err != nil {
			return nil, err
		}
	} else {
		for _, area := range areas {
			info.DeliveryAreas = append(info.DeliveryAreas, DeliveryAreaFee{
				Area:     area,
				Postcode: SynthesizePostcode(area, e.cfg.PostcodeSuffix),
				Fee:      defaultDeliveryFee,
			})
		}
	}

	e.session.SetImplicitWait(e.waits.LongWait)
	if err := e.session.Navigate(ctx, menuURL); err != nil {
		return nil, fmt.Errorf("loading menu page: %w", err)
	}

	// Leniency for popups and the page refresh.
	e.session.SetImplicitWait(e.waits.ShortWait)

	categories, err := e.scrapeCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("scraping categories: %w", err)
	}

	collectionDisabled, err := e.toggleCollection(ctx)
	if err != nil {
		return nil, fmt.Errorf("switching to collection: %w", err)
	}

	// One upfront enumeration; the DOM only opens and closes per-item
	// dialogs from here on, it does not add products.
	products, err := e.session.Find(ctx, browser.ByClass("product"))
	if err != nil {
		return nil, err
	}

	nameEl, found, err := browser.FindFirst(ctx, e.session, browser.ByClass("name"))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("restaurant name element missing from menu page")
	}
	info.Name, err = e.session.Text(ctx, nameEl)
	if err != nil {
		return nil, err
	}
	info.Postcode = NormalizePostcode(info.Postcode)

	if err := e.session.RunScript(ctx, removeNotificationScript); err != nil {
		return nil, fmt.Errorf("removing notification toast: %w", err)
	}

	e.session.SetImplicitWait(0)

	// Prime the page: the very first add triggers whichever first-run
	// popups exist, and resolving them leaves navigation stable.
	first, found, err := browser.FindFirst(ctx, e.session, browser.ByClass("addButton"))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("menu page has no add buttons")
	}
	if err := e.session.ScrollIntoView(ctx, first); err != nil {
		return nil, err
	}
	if err := e.session.Click(ctx, first); err != nil {
		return nil, fmt.Errorf("priming first add: %w", err)
	}
	if err := e.popups.Resolve(ctx, collectionDisabled, info.Postcode); err != nil {
		return nil, err
	}

	e.logger.Info("Adding products", zap.Int("count", len(products)))
	menu := make([]Product, 0, len(products))
	for i, productEl := range products {
		product, err := e.scrapeProduct(ctx, productEl, i == 0)
		if err != nil {
			return nil, fmt.Errorf("scraping product %d: %w", i, err)
		}
		menu = append(menu, product)
	}

	return &Document{
		Restaurant: *info,
		Categories: categories,
		Menu:       menu,
	}, nil
}

// scrapeCategories reads every category header with its optional
// description.
func (e *Extractor) scrapeCategories(ctx context.Context) ([]Category, error) {
	els, err := e.session.Find(ctx, browser.ByClass("category"))
	if err != nil {
		return nil, err
	}
	categories := make([]Category, 0, len(els))
	for _, el := range els {
		var cat Category
		nameEl, found, err := browser.FindFirstIn(ctx, e.session, el, browser.ByClass("categoryName"))
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		cat.Name, err = e.session.Text(ctx, nameEl)
		if err != nil {
			return nil, err
		}
		descEl, found, err := browser.FindFirstIn(ctx, e.session, el, browser.ByClass("categoryDescription"))
		if err != nil {
			return nil, err
		}
		if found {
			cat.Description, err = e.session.Text(ctx, descEl)
			if err != nil {
				return nil, err
			}
		}
		e.logger.Info("Category", zap.String("name", cat.Name))
		categories = append(categories, cat)
	}
	return categories, nil
}

// toggleCollection switches the menu to collection mode when the
// switcher offers it, and reports whether collection is disabled.
func (e *Extractor) toggleCollection(ctx context.Context) (bool, error) {
	buttons, err := e.session.Find(ctx, browser.ByClass("deliveryOptionButton"))
	if err != nil {
		return false, err
	}
	if len(buttons) < 2 {
		e.logger.Warn("Menu has no collection button",
			zap.Error(&AmbiguityError{Field: "collection button", Raw: "deliveryOptionButton"}))
		return true, nil
	}
	collection := buttons[1]
	if err := e.session.ScrollIntoView(ctx, collection); err != nil {
		return false, err
	}

	switcher, found, err := browser.FindFirst(ctx, e.session, browser.ByID("menuSwitcher"))
	if err != nil {
		return false, err
	}
	if found {
		disabled, err := e.session.FindIn(ctx, switcher, browser.ByClass("disabled"))
		if err != nil {
			return false, err
		}
		if len(disabled) > 0 {
			e.logger.Info("Collection is disabled, staying on delivery")
			return true, nil
		}
	}
	if err := e.session.Click(ctx, collection); err != nil {
		return false, fmt.Errorf("clicking collection: %w", err)
	}
	return false, nil
}

// scrapeProduct reads one product's name, category and every declared
// sub-item, walking the customisation dialog each add opens. The very
// first sub-item of the first product was already added during
// priming, so its click is skipped.
func (e *Extractor) scrapeProduct(ctx context.Context, productEl browser.Element, firstProduct bool) (Product, error) {
	var product Product

	nameEl, found, err := browser.FindFirstIn(ctx, e.session, productEl, browser.ByClass("name"))
	if err != nil {
		return Product{}, err
	}
	if !found {
		return Product{}, fmt.Errorf("product has no name element")
	}
	product.Name, err = e.session.Text(ctx, nameEl)
	if err != nil {
		return Product{}, err
	}

	category := ""
	form, found, err := browser.FindFirstIn(ctx, e.session, productEl, browser.BySelector("form"))
	if err != nil {
		return Product{}, err
	}
	if found {
		if v, ok, err := e.session.Attribute(ctx, form, "data-category-name"); err != nil {
			return Product{}, err
		} else if ok {
			category = v
		}
	}

	addForms, err := e.session.FindIn(ctx, productEl, browser.ByClass("addProductForm"))
	if err != nil {
		return Product{}, err
	}
	synonyms, err := e.session.FindIn(ctx, productEl, browser.ByClass("synonymName"))
	if err != nil {
		return Product{}, err
	}
	prices, err := e.session.FindIn(ctx, productEl, browser.ByClass("price"))
	if err != nil {
		return Product{}, err
	}
	infos, err := e.session.FindIn(ctx, productEl, browser.ByClass("information"))
	if err != nil {
		return Product{}, err
	}

	// A product always yields at least one sub-item, even when the page
	// renders no add form for it.
	if len(addForms) == 0 {
		if len(prices) == 0 {
			return Product{}, &AmbiguityError{Field: "price", Raw: product.Name}
		}
		rawPrice, err := e.session.Text(ctx, prices[0])
		if err != nil {
			return Product{}, err
		}
		price, err := ParsePrice(rawPrice)
		if err != nil {
			return Product{}, err
		}
		product.SubItems = []SubItem{{Name: product.Name, Category: category, Price: price}}
		return product, nil
	}

	for j, addForm := range addForms {
		subItem := SubItem{Name: product.Name, Category: category}

		// Variants are labelled "product - synonym"; a bare product
		// keeps its own name as its single sub-item.
		if len(synonyms) > 0 && j < len(synonyms) {
			syn, err := e.session.Text(ctx, synonyms[j])
			if err != nil {
				return Product{}, err
			}
			subItem.Name = product.Name + " - " + syn
		}
		e.logger.Info("Sub-item", zap.String("name", subItem.Name))

		if j >= len(prices) {
			return Product{}, &AmbiguityError{Field: "price", Raw: subItem.Name}
		}
		rawPrice, err := e.session.Text(ctx, prices[j])
		if err != nil {
			return Product{}, err
		}
		subItem.Price, err = ParsePrice(rawPrice)
		if err != nil {
			return Product{}, err
		}

		if j < len(infos) {
			descEl, found, err := browser.FindFirstIn(ctx, e.session, infos[j], browser.ByClass("description"))
			if err != nil {
				return Product{}, err
			}
			if found {
				subItem.Description, err = e.session.Text(ctx, descEl)
				if err != nil {
					return Product{}, err
				}
			}
		}

		if !(firstProduct && j == 0) {
			if err := browser.ClickWithRetry(ctx, e.session, addForm, e.cfg.ClickAttempts, e.cfg.ClickInterval, e.logger); err != nil {
				return Product{}, err
			}
		}

		open, err := e.walker.IsOpen(ctx)
		if err != nil {
			return Product{}, err
		}
		if open {
			subItem.IsComposite = true
			subItem.Composites, err = e.walker.Walk(ctx)
			if err != nil {
				return Product{}, err
			}
		}

		product.SubItems = append(product.SubItems, subItem)
	}

	return product, nil
}
