package scraper

import (
	"testing"

	"propwatch/config"
	"propwatch/models"
)

func listing(price *int64, zip, recordType, propertyType string) models.RawListing {
	return models.RawListing{
		ParcelID:     "P1",
		Address:      "1 Main St",
		ZipCode:      zip,
		RecordType:   recordType,
		PropertyType: propertyType,
		SalePrice:    price,
	}
}

func TestMatchesFiltersPriceRange(t *testing.T) {
	cfg := &config.Config{MinPrice: 200000, MaxPrice: 500000}

	if MatchesFilters(listing(models.Price(150000), "", "sale", "residential"), cfg) {
		t.Error("150000 should be rejected below the floor")
	}
	if !MatchesFilters(listing(models.Price(300000), "", "sale", "residential"), cfg) {
		t.Error("300000 should pass within the range")
	}
	if MatchesFilters(listing(models.Price(600000), "", "sale", "residential"), cfg) {
		t.Error("600000 should be rejected above the ceiling")
	}
	// Absent price always passes the price rules.
	if !MatchesFilters(listing(nil, "", "sale", "residential"), cfg) {
		t.Error("a listing without a price should pass regardless of the range")
	}
}

func TestMatchesFiltersZeroMaxMeansNoCeiling(t *testing.T) {
	cfg := &config.Config{MinPrice: 100000}
	if !MatchesFilters(listing(models.Price(99000000), "", "sale", "residential"), cfg) {
		t.Error("MaxPrice=0 must not cap prices")
	}
}

func TestMatchesFiltersZipWhitelist(t *testing.T) {
	cfg := &config.Config{ZipCodes: []string{"33139"}}

	if !MatchesFilters(listing(nil, "33139", "sale", "residential"), cfg) {
		t.Error("whitelisted zip should pass")
	}
	if MatchesFilters(listing(nil, "33140", "sale", "residential"), cfg) {
		t.Error("non-whitelisted zip should be rejected")
	}
	if !MatchesFilters(listing(nil, "", "sale", "residential"), cfg) {
		t.Error("a listing without a zip should pass the whitelist")
	}
}

func TestMatchesFiltersTypeWhitelist(t *testing.T) {
	cfg := &config.Config{PropertyTypes: []string{"foreclosure"}}

	if !MatchesFilters(listing(nil, "", "foreclosure", "residential"), cfg) {
		t.Error("matching record type should pass")
	}
	if MatchesFilters(listing(nil, "", "sale", "residential"), cfg) {
		t.Error("non-matching types should be rejected")
	}

	// The whitelist matches the record type OR the property type.
	cfg.PropertyTypes = []string{"land"}
	if !MatchesFilters(listing(nil, "", "sale", "land"), cfg) {
		t.Error("matching property type should pass")
	}

	cfg.PropertyTypes = []string{"all"}
	if !MatchesFilters(listing(nil, "", "transfer", "commercial"), cfg) {
		t.Error("'all' disables the type filter")
	}
}

func TestMatchesKeywords(t *testing.T) {
	text := "FORECLOSURE SALE: 123 Ocean Dr, Miami Beach FL 33139"

	if !MatchesKeywords(text, nil) {
		t.Error("an empty keyword list matches everything")
	}
	if !MatchesKeywords(text, []string{"ocean", "nothere"}) {
		t.Error("one matching keyword is enough")
	}
	if MatchesKeywords(text, []string{"condo"}) {
		t.Error("no matching keyword should reject")
	}
}

func TestMatchesFiltersComposeWithAND(t *testing.T) {
	cfg := &config.Config{
		MinPrice: 200000,
		ZipCodes: []string{"33139"},
	}
	// Passes price, fails zip.
	if MatchesFilters(listing(models.Price(300000), "33140", "sale", "residential"), cfg) {
		t.Error("a listing must pass every configured rule")
	}
}
