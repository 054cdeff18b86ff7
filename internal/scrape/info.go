package scrape

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/maxburton/firebird/internal/browser"
)

// scrapeInfo reads the landing page's restaurant metadata. Street,
// city, postcode and phone are structural; the description expansion
// is best-effort.
func (e *Extractor) scrapeInfo(ctx context.Context) (*RestaurantInfo, error) {
	e.logger.Info("Scraping restaurant info")
	e.session.SetImplicitWait(0)

	info := &RestaurantInfo{}
	var err error
	if info.Street, err = e.readTextByID(ctx, "street"); err != nil {
		return nil, err
	}
	if info.City, err = e.readTextByID(ctx, "city"); err != nil {
		return nil, err
	}
	if info.Postcode, err = e.readTextByID(ctx, "postcode"); err != nil {
		return nil, err
	}
	if info.PhoneNumber, err = e.readPhoneNumber(ctx); err != nil {
		return nil, err
	}

	e.expandDescription(ctx)

	desc, err := e.readTextByID(ctx, "restaurantDescriptionText")
	if err != nil {
		return nil, err
	}
	info.Description = RebrandDescription(desc)

	if info.OpeningTimes, err = e.scrapeOpeningTimes(ctx); err != nil {
		return nil, err
	}
	return info, nil
}

func (e *Extractor) readTextByID(ctx context.Context, id string) (string, error) {
	el, found, err := browser.FindFirst(ctx, e.session, browser.ByID(id))
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("element #%s missing from info page", id)
	}
	return e.session.Text(ctx, el)
}

// readPhoneNumber opens the allergy-advisory modal, reads the phone
// link inside it, then closes the modal again.
func (e *Extractor) readPhoneNumber(ctx context.Context) (string, error) {
	allergy, found, err := browser.FindFirst(ctx, e.session, browser.ByClass("allergenDefaultLink"))
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("allergy link missing from info page")
	}
	if err := e.session.ScrollIntoView(ctx, allergy); err != nil {
		return "", err
	}
	if err := e.session.Click(ctx, allergy); err != nil {
		return "", fmt.Errorf("opening allergy modal: %w", err)
	}

	modal, found, err := browser.FindFirst(ctx, e.session, browser.ByClass("c-modal-overlay-container"))
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("allergy modal did not open")
	}
	link, found, err := browser.FindFirstIn(ctx, e.session, modal, browser.BySelector("a"))
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("allergy modal has no phone link")
	}
	phone, err := e.session.Text(ctx, link)
	if err != nil {
		return "", err
	}

	closeBtn, found, err := browser.FindFirst(ctx, e.session, browser.ByClass("advisoryDialogClose"))
	if err != nil {
		return "", err
	}
	if found {
		if err := e.session.Click(ctx, closeBtn); err != nil {
			return "", fmt.Errorf("closing allergy modal: %w", err)
		}
	}
	return phone, nil
}

// expandDescription clicks the "read more" affordance when the page
// has one. Its absence, or a failed click, is expected for short
// descriptions.
func (e *Extractor) expandDescription(ctx context.Context) {
	// Give the button a moment to render before accepting absence.
	e.session.SetImplicitWait(e.waits.ShortWait)
	readMore, found, err := browser.FindFirst(ctx, e.session, browser.ByID("showMoreText"))
	e.session.SetImplicitWait(0)
	if err != nil || !found {
		e.logger.Debug("Read more button doesn't exist for this page")
		return
	}
	if err := e.session.ScrollIntoView(ctx, readMore); err != nil {
		e.logger.Debug("Could not scroll to read more button", zap.Error(err))
		return
	}
	if err := e.session.Click(ctx, readMore); err != nil {
		e.logger.Debug("Could not expand description", zap.Error(err))
	}
}

// scrapeOpeningTimes captures the opening-hours table once and parses
// its cells locally rather than reading cell by cell through the
// browser.
func (e *Extractor) scrapeOpeningTimes(ctx context.Context) (string, error) {
	table, found, err := browser.FindFirst(ctx, e.session, browser.ByClass("restaurantOpeningHours"))
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("opening hours table missing from info page")
	}
	html, err := e.session.OuterHTML(ctx, table)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing opening hours table: %w", err)
	}

	var b strings.Builder
	doc.Find("td").Each(func(_ int, cell *goquery.Selection) {
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(cell.Text()))
	})
	return b.String(), nil
}

// scrapeDeliveryAreas returns the declared delivery area names from
// the info page's list.
func (e *Extractor) scrapeDeliveryAreas(ctx context.Context) ([]string, error) {
	list, found, err := browser.FindFirst(ctx, e.session, browser.ByClass("restaurantDeliveryAreas"))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("delivery areas list missing from info page")
	}
	html, err := e.session.OuterHTML(ctx, list)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing delivery areas list: %w", err)
	}

	var areas []string
	doc.Find("li").Each(func(_ int, item *goquery.Selection) {
		areas = append(areas, strings.TrimSpace(item.Text()))
	})
	return areas, nil
}
