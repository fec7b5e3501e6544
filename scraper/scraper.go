// Package scraper holds what the listing-site scrapers share: the HTTP
// client they fetch with and the error raised when no extraction strategy
// recognizes a listing's structure.
package scraper

import (
	"errors"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNoKnownFormat means none of the known extraction strategies matched the
// raw listing data. A listing without extractable units cannot be analyzed,
// so this is a hard failure for the listing.
var ErrNoKnownFormat = errors.New("no known listing format matched")

// NewClient returns the HTTP client used to fetch listing pages. Listing
// pages are fetched directly (not through TOR); only Rentometer queries
// need origin rotation.
func NewClient() *resty.Client {
	return resty.New().
		SetTimeout(30*time.Second).
		SetHeader("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
}
