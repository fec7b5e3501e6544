// Package compass extracts a listing's identity and unit breakdown from a
// Compass multi-family listing page. Compass embeds the structured listing
// record as JSON in an inline script, so the page is fetched once and parsed
// without a browser.
package compass

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"rental-analyzer/models"
	"rental-analyzer/scraper"
	"rental-analyzer/utils"
)

const dataMarker = "window.__PARTIAL_INITIAL_DATA__ ="

// rawListing is the slice of Compass's embedded listing record the analysis
// needs.
type rawListing struct {
	Price struct {
		Listed float64 `json:"listed"`
	} `json:"price"`
	Location struct {
		PrettyAddress string `json:"prettyAddress"`
		City          string `json:"city"`
		State         string `json:"state"`
		ZipCode       string `json:"zipCode"`
	} `json:"location"`
	DetailedInfo struct {
		ListingDetails []listingDetail `json:"listingDetails"`
	} `json:"detailedInfo"`
	Size struct {
		Bedrooms  float64 `json:"bedrooms"`
		Bathrooms float64 `json:"bathrooms"`
	} `json:"size"`
}

type listingDetail struct {
	Name          string    `json:"name"`
	SubCategories []rawUnit `json:"subCategories"`
}

type rawUnit struct {
	Name   string      `json:"name"`
	Fields []unitField `json:"fields"`
}

type unitField struct {
	Key    string   `json:"key"`
	Values []string `json:"values"`
}

// Scraper fetches and decodes Compass listing pages.
type Scraper struct {
	client *resty.Client
	logger *utils.Logger
}

// New creates a Compass scraper using the shared listing-page client.
func New(client *resty.Client, logger *utils.Logger) *Scraper {
	return &Scraper{client: client, logger: logger}
}

// Fetch downloads a listing page and extracts its identity and units.
func (s *Scraper) Fetch(url string) (*models.Listing, error) {
	s.logger.Info("[compass] Fetching listing page %s", url)

	res, err := s.client.R().Get(url)
	if err != nil {
		return nil, fmt.Errorf("compass: fetch %s: %w", url, err)
	}
	if res.StatusCode() != 200 {
		return nil, fmt.Errorf("compass: fetch %s: status %d", url, res.StatusCode())
	}

	listing, err := Parse(res.Body())
	if err != nil {
		return nil, err
	}
	listing.URL = url
	return listing, nil
}

// Parse extracts the listing from raw page HTML.
func Parse(page []byte) (*models.Listing, error) {
	raw, err := extractEmbeddedListing(page)
	if err != nil {
		return nil, err
	}

	units, err := extractUnits(raw)
	if err != nil {
		return nil, err
	}

	return &models.Listing{
		Address: prettyAddress(raw),
		Price:   raw.Price.Listed,
		Units:   units,
	}, nil
}

// extractEmbeddedListing locates the inline script carrying the listing
// record and decodes it.
func extractEmbeddedListing(page []byte) (*rawListing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(page))
	if err != nil {
		return nil, fmt.Errorf("compass: parse page: %w", err)
	}

	var blob string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if i := strings.Index(text, dataMarker); i >= 0 {
			blob = strings.TrimSpace(text[i+len(dataMarker):])
			blob = strings.TrimSuffix(blob, ";")
			return false
		}
		return true
	})
	if blob == "" {
		return nil, fmt.Errorf("compass: embedded listing data not found: %w", scraper.ErrNoKnownFormat)
	}

	var payload struct {
		Props struct {
			ListingRelation struct {
				Listing rawListing `json:"listing"`
			} `json:"listingRelation"`
		} `json:"props"`
	}
	if err := json.Unmarshal([]byte(blob), &payload); err != nil {
		return nil, fmt.Errorf("compass: decode embedded listing data: %w", err)
	}
	return &payload.Props.ListingRelation.Listing, nil
}

// prettyAddress assembles the address the way Rentometer expects it:
// "276 Lakefield Pl, Moraga, CA 94556".
func prettyAddress(raw *rawListing) string {
	loc := raw.Location
	return loc.PrettyAddress + ", " + loc.City + ", " + loc.State + " " + loc.ZipCode
}

// unitStrategy is one pure attempt at reading units out of a raw listing.
// Strategies are tried in fixed priority order; the first success wins.
type unitStrategy func(*rawListing) ([]models.Unit, error)

var unitStrategies = []unitStrategy{
	unitInformationUnits,
	wholeBuildingUnit,
}

func extractUnits(raw *rawListing) ([]models.Unit, error) {
	for _, strategy := range unitStrategies {
		units, err := strategy(raw)
		if err == nil {
			return units, nil
		}
	}
	return nil, fmt.Errorf("compass: extract units: %w", scraper.ErrNoKnownFormat)
}

// unitInformationUnits reads the "Unit Information" detail block of a
// multi-family listing. Full and half bath fields accumulate into one Baths
// count, half baths at 0.5 each.
func unitInformationUnits(raw *rawListing) ([]models.Unit, error) {
	var rawUnits []rawUnit
	for _, detail := range raw.DetailedInfo.ListingDetails {
		if detail.Name == "Unit Information" {
			rawUnits = detail.SubCategories
		}
	}
	if len(rawUnits) == 0 {
		return nil, scraper.ErrNoKnownFormat
	}

	units := make([]models.Unit, 0, len(rawUnits))
	for _, ru := range rawUnits {
		var unit models.Unit
		for _, field := range ru.Fields {
			if len(field.Values) == 0 {
				continue
			}
			count, err := strconv.ParseFloat(field.Values[0], 64)
			if err != nil {
				continue
			}
			switch {
			case strings.Contains(field.Key, "Half") && strings.Contains(field.Key, "Bath"):
				unit.Baths += 0.5 * count
			case strings.Contains(field.Key, "Baths"):
				unit.Baths += count
			case strings.Contains(field.Key, "Bedrooms"):
				unit.Beds = count
			}
		}
		units = append(units, unit)
	}
	return units, nil
}

// wholeBuildingUnit treats a listing with only top-level bed/bath counts as
// one rentable unit. Fallback for single-family pages.
func wholeBuildingUnit(raw *rawListing) ([]models.Unit, error) {
	if raw.Size.Bedrooms <= 0 {
		return nil, scraper.ErrNoKnownFormat
	}
	return []models.Unit{{Beds: raw.Size.Bedrooms, Baths: raw.Size.Bathrooms}}, nil
}
