package scrape

import (
	"errors"
	"fmt"
)

// ErrRestaurantClosed reports a restaurant with no availability window
// at all: the page offers no path to the menu, so the scrape cannot
// proceed and retrying within the same run is pointless.
var ErrRestaurantClosed = errors.New("restaurant closed")

// ClosedError carries the best-effort "next available" diagnostic read
// off the closed-for-the-day prompt. NextOpen may be empty.
type ClosedError struct {
	NextOpen string
}

func (e *ClosedError) Error() string {
	if e.NextOpen == "" {
		return "restaurant closed and cannot be scraped, check website for when it is next open"
	}
	return fmt.Sprintf("restaurant closed and cannot be scraped, try again at %s", e.NextOpen)
}

func (e *ClosedError) Is(target error) bool { return target == ErrRestaurantClosed }

// AmbiguityError reports an expected field that could not be read.
// It is logged and defaulted at the point of use, never escalated,
// with one exception: a price without a currency marker fails the
// extraction loudly rather than corrupt the output.
type AmbiguityError struct {
	Field string
	Raw   string
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("could not extract %s from %q", e.Field, e.Raw)
}

// Retryable reports whether the supervisor should re-run the scrape
// after this failure. A closed restaurant is terminal; everything
// else (exhausted click retries, lost session, transport faults) may
// succeed on a fresh attempt.
func Retryable(err error) bool {
	return err != nil && !errors.Is(err, ErrRestaurantClosed)
}
