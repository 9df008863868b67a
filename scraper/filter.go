package scraper

import (
	"slices"
	"strings"

	"propwatch/config"
	"propwatch/models"
)

// MatchesFilters reports whether a listing passes every configured filter
// rule. Rules compose with AND semantics; each is skipped when unset.
//
// A listing without a price always passes the price rules, and a listing
// without a zip always passes the zip whitelist: missing data is not
// grounds for rejection.
func MatchesFilters(listing models.RawListing, cfg *config.Config) bool {
	if listing.SalePrice != nil {
		if cfg.MinPrice > 0 && *listing.SalePrice < cfg.MinPrice {
			return false
		}
		if cfg.MaxPrice > 0 && *listing.SalePrice > cfg.MaxPrice {
			return false
		}
	}

	if len(cfg.ZipCodes) > 0 && listing.ZipCode != "" {
		if !slices.Contains(cfg.ZipCodes, listing.ZipCode) {
			return false
		}
	}

	if len(cfg.PropertyTypes) > 0 && !slices.Contains(cfg.PropertyTypes, "all") {
		if !slices.Contains(cfg.PropertyTypes, listing.RecordType) &&
			!slices.Contains(cfg.PropertyTypes, listing.PropertyType) {
			return false
		}
	}

	return true
}

// MatchesKeywords reports whether text contains at least one of the given
// keywords (already lowercased by the config loader). An empty keyword list
// matches everything.
func MatchesKeywords(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
