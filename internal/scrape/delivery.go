package scrape

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/maxburton/firebird/internal/browser"
	"github.com/maxburton/firebird/internal/config"
)

// defaultDeliveryFee is recorded when the basket never showed a fee
// line for an area.
const defaultDeliveryFee = "£0.00"

// DeliverySurvey discovers the delivery fee for each declared delivery
// area by filling a minimum-order basket while probing with a postcode
// synthesized from the area name.
type DeliverySurvey struct {
	session browser.Session
	logger  *zap.Logger
	popups  *PopupResolver
	walker  *CompositeWalker
	cfg     config.ScrapeConfig
	waits   config.BrowserConfig
}

func NewDeliverySurvey(session browser.Session, logger *zap.Logger, cfg config.ScrapeConfig, waits config.BrowserConfig) *DeliverySurvey {
	return &DeliverySurvey{
		session: session,
		logger:  logger.Named("delivery_survey"),
		popups:  NewPopupResolver(session, logger),
		walker:  NewCompositeWalker(session, logger, cfg.CompositeScreenCap),
		cfg:     cfg,
		waits:   waits,
	}
}

// SynthesizePostcode builds a representative postcode for an area from
// its first name token plus the configured filler suffix. It is a
// heuristic, not a verified postcode.
func SynthesizePostcode(area, suffix string) string {
	fields := strings.Fields(area)
	if len(fields) == 0 {
		return suffix
	}
	return fields[0] + suffix
}

// Run surveys every area and returns one fee record per area. Per-area
// read failures degrade to the zero-fee sentinel; only a basket that
// never satisfies the minimum order is reported as a fault.
func (s *DeliverySurvey) Run(ctx context.Context, menuURL string, areas []string) ([]DeliveryAreaFee, error) {
	fees := make([]DeliveryAreaFee, 0, len(areas))
	for _, area := range areas {
		postcode := SynthesizePostcode(area, s.cfg.PostcodeSuffix)
		s.logger.Info("Surveying delivery area",
			zap.String("area", area),
			zap.String("postcode", postcode))

		fee, err := s.surveyArea(ctx, menuURL, postcode)
		if err != nil {
			return nil, fmt.Errorf("surveying area %q: %w", area, err)
		}
		fees = append(fees, DeliveryAreaFee{Area: area, Postcode: postcode, Fee: fee})
	}
	return fees, nil
}

// surveyArea loads a fresh menu page and adds the first product until
// the minimum order value is reached, then reads the basket's fee
// line. The fill loop is capped so a page that never drops the
// minimum-order indicator becomes a fault instead of a hang.
func (s *DeliverySurvey) surveyArea(ctx context.Context, menuURL, postcode string) (string, error) {
	s.session.SetImplicitWait(s.waits.LongWait)
	if err := s.session.Navigate(ctx, menuURL); err != nil {
		return "", err
	}
	s.session.SetImplicitWait(0)

	for fill := 0; ; fill++ {
		if fill >= s.cfg.BasketFillCap {
			return "", fmt.Errorf("minimum order value not reached after %d basket fills", s.cfg.BasketFillCap)
		}

		first, found, err := browser.FindFirst(ctx, s.session, browser.ByClass("addButton"))
		if err != nil {
			return "", err
		}
		if !found {
			s.logger.Warn("No add button on menu page during survey",
				zap.Error(&AmbiguityError{Field: "add button", Raw: postcode}))
			return defaultDeliveryFee, nil
		}

		if err := browser.ClickWithRetry(ctx, s.session, first, s.cfg.ClickAttempts, s.cfg.ClickInterval, s.logger); err != nil {
			return "", err
		}
		if err := s.popups.Resolve(ctx, true, postcode); err != nil {
			return "", err
		}

		if err := s.session.ScrollIntoView(ctx, first); err != nil {
			return "", err
		}
		if err := s.session.WaitVisible(ctx, first); err != nil {
			return "", err
		}
		if err := browser.ClickWithRetry(ctx, s.session, first, s.cfg.ClickAttempts, s.cfg.ClickInterval, s.logger); err != nil {
			return "", err
		}

		open, err := s.walker.IsOpen(ctx)
		if err != nil {
			return "", err
		}
		if open {
			if _, err := s.walker.Walk(ctx); err != nil {
				return "", err
			}
		}

		belowMinimum, err := s.session.Find(ctx, browser.ByClass("minimumValueNotReachedMessage"))
		if err != nil {
			return "", err
		}
		if len(belowMinimum) == 0 {
			break
		}
	}

	return s.readFee(ctx)
}

func (s *DeliverySurvey) readFee(ctx context.Context) (string, error) {
	basket, found, err := browser.FindFirst(ctx, s.session, browser.ByClass("basketDeliveryFee"))
	if err != nil {
		return "", err
	}
	if found {
		total, ok, err := browser.FindFirstIn(ctx, s.session, basket, browser.ByClass("total"))
		if err != nil {
			return "", err
		}
		if ok {
			return s.session.Text(ctx, total)
		}
	}
	s.logger.Warn("Delivery fee line absent, defaulting",
		zap.Error(&AmbiguityError{Field: "delivery fee", Raw: defaultDeliveryFee}))
	return defaultDeliveryFee, nil
}
