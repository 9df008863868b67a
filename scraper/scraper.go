package scraper

import (
	"context"
	"fmt"
	"sort"

	"propwatch/config"
	"propwatch/models"
	"propwatch/utils"
)

// Source is the per-site fetch-and-normalize contract. A source owns a
// browsing resource for the duration of one run: Start acquires it, Stop
// releases it on every exit path.
type Source interface {
	Name() string
	State() string
	Start(ctx context.Context) error
	Stop()
	FetchSales(ctx context.Context) ([]models.RawListing, error)
	FetchForeclosures(ctx context.Context) ([]models.RawListing, error)
}

// Screenshotter is an optional capability for sources that can capture a
// page image of a newly discovered record.
type Screenshotter interface {
	Screenshot(ctx context.Context, url, name string) error
}

// FetchAll runs both sub-fetches of a source and applies the filter stage.
// A failure in either sub-fetch is logged and degrades to zero results from
// that sub-fetch; it never aborts the other one and never propagates. The
// external sites are uncontrolled, so partial data beats total failure.
func FetchAll(ctx context.Context, src Source, cfg *config.Config, logger *utils.Logger) []models.RawListing {
	var results []models.RawListing

	sales, err := safeFetch(src.FetchSales, ctx)
	if err != nil {
		logger.Error("[%s] Error fetching sales: %v", src.Name(), err)
	} else {
		results = append(results, sales...)
	}

	foreclosures, err := safeFetch(src.FetchForeclosures, ctx)
	if err != nil {
		logger.Error("[%s] Error fetching foreclosures: %v", src.Name(), err)
	} else {
		results = append(results, foreclosures...)
	}

	filtered := results[:0:0]
	for _, listing := range results {
		if MatchesFilters(listing, cfg) {
			filtered = append(filtered, listing)
		}
	}
	logger.Info("[%s] %d/%d results match filters", src.Name(), len(filtered), len(results))
	return filtered
}

// safeFetch converts a panic inside a sub-fetch into an error. The per-site
// parsing is selector/regex heuristics against markup that changes without
// notice.
func safeFetch(fn func(context.Context) ([]models.RawListing, error), ctx context.Context) (results []models.RawListing, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = fmt.Errorf("fetch panicked: %v", r)
		}
	}()
	return fn(ctx)
}

// ToRecord converts an adapter result into a storable record tagged with
// the source it came from.
func ToRecord(src Source, listing models.RawListing) models.PropertyRecord {
	if listing.State == "" {
		listing.State = src.State()
	}
	return models.PropertyRecord{
		County:     src.Name(),
		RawListing: listing,
	}
}

// Factory constructs a source from configuration.
type Factory func(cfg *config.Config, logger *utils.Logger) Source

// registry is the closed set of available sources. Keys are the CLI names.
var registry = map[string]Factory{
	"miami_dade": func(cfg *config.Config, logger *utils.Logger) Source {
		return NewMiamiDade(cfg, logger)
	},
	"redfin_miami":   redfinFactory("Miami, FL"),
	"redfin_la":      redfinFactory("Los Angeles, CA"),
	"redfin_chicago": redfinFactory("Chicago, IL"),
	"redfin_phoenix": redfinFactory("Phoenix, AZ"),
	"realtor_miami":  realtorFactory("Miami_FL"),
	"realtor_la":     realtorFactory("Los-Angeles_CA"),
}

func redfinFactory(location string) Factory {
	return func(cfg *config.Config, logger *utils.Logger) Source {
		return NewRedfin(location, cfg, logger)
	}
}

func realtorFactory(location string) Factory {
	return func(cfg *config.Config, logger *utils.Logger) Source {
		return NewRealtor(location, cfg, logger)
	}
}

// Names lists the registered source names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the source registered under name.
func New(name string, cfg *config.Config, logger *utils.Logger) (Source, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown source %q, available: %v", name, Names())
	}
	return factory(cfg, logger), nil
}
