package compass

import (
	"errors"
	"fmt"
	"testing"

	"rental-analyzer/scraper"
)

func listingPage(payload string) []byte {
	return []byte(fmt.Sprintf(`<!DOCTYPE html>
<html><head><title>Listing</title></head>
<body>
<script>window.something_else = {};</script>
<script>window.__PARTIAL_INITIAL_DATA__ = %s</script>
</body></html>`, payload))
}

const multiFamilyPayload = `{
  "props": {
    "listingRelation": {
      "listing": {
        "price": {"listed": 349900},
        "location": {
          "prettyAddress": "689 Auburn Street",
          "city": "Manchester",
          "state": "NH",
          "zipCode": "03103"
        },
        "detailedInfo": {
          "listingDetails": [
            {"name": "Building Information", "subCategories": []},
            {"name": "Unit Information", "subCategories": [
              {"name": "Unit 1", "fields": [
                {"key": "Unit 1 Baths", "values": ["1"]},
                {"key": "Unit 1 Bedrooms", "values": ["4"]},
                {"key": "Unit 1 Rental Amount", "values": ["$1,200.00"]}
              ]},
              {"name": "Unit 2", "fields": [
                {"key": "Unit 2 Baths", "values": ["1"]},
                {"key": "Unit 2 Half Baths", "values": ["1"]},
                {"key": "Unit 2 Bedrooms", "values": ["3"]}
              ]}
            ]}
          ]
        }
      }
    }
  }
}`

func TestParseMultiFamily(t *testing.T) {
	listing, err := Parse(listingPage(multiFamilyPayload))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if want := "689 Auburn Street, Manchester, NH 03103"; listing.Address != want {
		t.Errorf("address = %q; want %q", listing.Address, want)
	}
	if listing.Price != 349900 {
		t.Errorf("price = %v; want 349900", listing.Price)
	}
	if len(listing.Units) != 2 {
		t.Fatalf("units = %d; want 2", len(listing.Units))
	}
	if listing.Units[0].Beds != 4 || listing.Units[0].Baths != 1 {
		t.Errorf("unit 1 = %+v; want 4 beds / 1 bath", listing.Units[0])
	}
	// A half bath counts as 0.5.
	if listing.Units[1].Beds != 3 || listing.Units[1].Baths != 1.5 {
		t.Errorf("unit 2 = %+v; want 3 beds / 1.5 baths", listing.Units[1])
	}
}

func TestParseSingleFamilyFallback(t *testing.T) {
	payload := `{
	  "props": {"listingRelation": {"listing": {
	    "price": {"listed": 525000},
	    "location": {"prettyAddress": "276 Lakefield Pl", "city": "Moraga", "state": "CA", "zipCode": "94556"},
	    "detailedInfo": {"listingDetails": []},
	    "size": {"bedrooms": 4, "bathrooms": 2.5}
	  }}}
	}`

	listing, err := Parse(listingPage(payload))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(listing.Units) != 1 {
		t.Fatalf("units = %d; want 1 whole-building unit", len(listing.Units))
	}
	if listing.Units[0].Beds != 4 || listing.Units[0].Baths != 2.5 {
		t.Errorf("unit = %+v; want 4 beds / 2.5 baths", listing.Units[0])
	}
}

func TestParseNoKnownFormat(t *testing.T) {
	payload := `{
	  "props": {"listingRelation": {"listing": {
	    "price": {"listed": 100000},
	    "location": {"prettyAddress": "1 Main St", "city": "Dover", "state": "NH", "zipCode": "03820"},
	    "detailedInfo": {"listingDetails": []}
	  }}}
	}`

	_, err := Parse(listingPage(payload))
	if !errors.Is(err, scraper.ErrNoKnownFormat) {
		t.Fatalf("expected ErrNoKnownFormat, got %v", err)
	}
}

func TestParseMissingEmbeddedData(t *testing.T) {
	page := []byte(`<html><body><script>var x = 1;</script></body></html>`)
	_, err := Parse(page)
	if !errors.Is(err, scraper.ErrNoKnownFormat) {
		t.Fatalf("expected ErrNoKnownFormat, got %v", err)
	}
}
