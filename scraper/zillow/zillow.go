// Package zillow reads Zillow search-page state JSON (the payload behind
// /search/GetSearchPageState.htm) and turns each result into a listing with
// one whole-building unit.
package zillow

import (
	"encoding/json"
	"fmt"
	"os"

	"rental-analyzer/models"
	"rental-analyzer/scraper"
	"rental-analyzer/utils"
)

type searchPage struct {
	Cat1 struct {
		SearchResults struct {
			ListResults []searchResult `json:"listResults"`
			MapResults  []searchResult `json:"mapResults"`
		} `json:"searchResults"`
	} `json:"cat1"`
}

type searchResult struct {
	Address          string  `json:"address"`
	DetailURL        string  `json:"detailUrl"`
	UnformattedPrice float64 `json:"unformattedPrice"`
	HdpData          struct {
		HomeInfo struct {
			PriceForHDP float64 `json:"priceForHDP"`
			Bedrooms    float64 `json:"bedrooms"`
			Bathrooms   float64 `json:"bathrooms"`
		} `json:"homeInfo"`
	} `json:"hdpData"`
}

// Parser turns search-page state documents into listings.
type Parser struct {
	logger *utils.Logger
}

// New creates a Zillow parser.
func New(logger *utils.Logger) *Parser {
	return &Parser{logger: logger}
}

// LoadFile parses a search-page state document saved to disk.
func (p *Parser) LoadFile(path string) ([]*models.Listing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("zillow: read %s: %w", path, err)
	}
	return p.Parse(data)
}

// Parse extracts every listing from a search-page state document, both the
// list results and the map results. Results missing a price or unit counts
// are logged and skipped rather than failing the batch.
func (p *Parser) Parse(data []byte) ([]*models.Listing, error) {
	var page searchPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("zillow: decode search page state: %w", err)
	}

	raw := append(page.Cat1.SearchResults.ListResults, page.Cat1.SearchResults.MapResults...)
	if len(raw) == 0 {
		return nil, fmt.Errorf("zillow: no search results: %w", scraper.ErrNoKnownFormat)
	}

	listings := make([]*models.Listing, 0, len(raw))
	for _, r := range raw {
		listing, err := r.toListing()
		if err != nil {
			p.logger.Warn("[zillow] Skipping result %q: %v", r.Address, err)
			continue
		}
		listings = append(listings, listing)
	}
	if len(listings) == 0 {
		return nil, fmt.Errorf("zillow: no usable search results: %w", scraper.ErrNoKnownFormat)
	}

	p.logger.Info("[zillow] Parsed %d of %d search results", len(listings), len(raw))
	return listings, nil
}

func (r searchResult) toListing() (*models.Listing, error) {
	price := r.UnformattedPrice
	if price == 0 {
		// Map results carry the price one level deeper.
		price = r.HdpData.HomeInfo.PriceForHDP
	}
	if price == 0 {
		return nil, fmt.Errorf("no price")
	}

	beds := r.HdpData.HomeInfo.Bedrooms
	if beds <= 0 {
		return nil, fmt.Errorf("no bedroom count")
	}

	return &models.Listing{
		Address: r.Address,
		Price:   price,
		URL:     r.DetailURL,
		Units:   []models.Unit{{Beds: beds, Baths: r.HdpData.HomeInfo.Bathrooms}},
	}, nil
}
