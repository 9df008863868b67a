package scraper

import (
	"context"
	"regexp"
	"strings"
	"time"

	"propwatch/config"
	"propwatch/models"
	"propwatch/utils"
)

const realtorBaseURL = "https://www.realtor.com"

var (
	realtorDetailRe = regexp.MustCompile(`/realestateandhomes-detail/([^/?#]+)`)
	realtorSoldRe   = regexp.MustCompile(`(?i)sold[^\d]*(\d{1,2}/\d{1,2}/\d{4})`)
)

// Realtor fetches recently sold and foreclosure listings from Realtor.com.
type Realtor struct {
	*session
	location string
	cfg      *config.Config
	logger   *utils.Logger
}

// NewRealtor builds a Realtor.com source. The location uses City_State
// format (e.g. "Miami_FL"); other spellings are normalized.
func NewRealtor(location string, cfg *config.Config, logger *utils.Logger) *Realtor {
	location = strings.ReplaceAll(location, ", ", "_")
	location = strings.ReplaceAll(location, " ", "-")
	return &Realtor{
		session:  newSession("realtor", cfg, logger),
		location: location,
		cfg:      cfg,
		logger:   logger,
	}
}

func (r *Realtor) Name() string  { return "realtor" }
func (r *Realtor) State() string { return "" }

func (r *Realtor) Start(ctx context.Context) error {
	return r.start(ctx, r.cfg.Headless)
}

func (r *Realtor) Stop() { r.stop() }

func (r *Realtor) FetchSales(ctx context.Context) ([]models.RawListing, error) {
	url := realtorBaseURL + "/realestateandhomes-search/" + r.location + "/show-recently-sold"
	r.logger.Info("[%s] Fetching recent sales: %s", r.Name(), url)
	return r.fetchListings(url, "sale")
}

func (r *Realtor) FetchForeclosures(ctx context.Context) ([]models.RawListing, error) {
	url := realtorBaseURL + "/realestateandhomes-search/" + r.location + "/type-single-family-home/fc-foreclosure"
	r.logger.Info("[%s] Fetching foreclosures: %s", r.Name(), url)
	return r.fetchListings(url, "foreclosure")
}

type realtorCard struct {
	Price    string `json:"price"`
	Address  string `json:"address"`
	Location string `json:"location"`
	URL      string `json:"url"`
	Text     string `json:"text"`
}

// realtorSoldDate pulls a "Sold 3/1/2024" style date out of card text.
// Realtor.com has no stable sold-date element, so the scan works on the
// card's full text.
func realtorSoldDate(text string) string {
	if m := realtorSoldRe.FindStringSubmatch(text); m != nil {
		return ParseDate(m[1])
	}
	return ""
}

func (r *Realtor) fetchListings(url, recordType string) ([]models.RawListing, error) {
	if err := r.navigate(url, 3*time.Second); err != nil {
		return nil, err
	}

	var cards []realtorCard
	if err := r.evaluate(realtorCardJS, &cards); err != nil {
		return nil, err
	}

	var listings []models.RawListing
	for _, card := range cards {
		if len(listings) >= 20 {
			break
		}
		address := strings.TrimSpace(card.Address)
		if address == "" {
			continue
		}

		cardURL := card.URL
		if cardURL == "" {
			cardURL = realtorBaseURL
		} else if !strings.HasPrefix(cardURL, "http") {
			cardURL = realtorBaseURL + cardURL
		}

		parcelID := ""
		if m := realtorDetailRe.FindStringSubmatch(cardURL); m != nil {
			parcelID = m[1]
		} else {
			parcelID = SynthesizeParcelID(address)
		}

		city, state, zip := parseCityStateZip(card.Location)

		listings = append(listings, models.RawListing{
			ParcelID:     parcelID,
			Address:      address,
			City:         city,
			State:        state,
			ZipCode:      zip,
			PropertyType: "residential",
			RecordType:   recordType,
			SalePrice:    ParsePrice(card.Price),
			SaleDate:     realtorSoldDate(card.Text),
			URL:          cardURL,
		})
	}

	r.logger.Info("[%s] Found %d %s listings", r.Name(), len(listings), recordType)
	return listings, nil
}

const realtorCardJS = `
(function() {
	var selectors = [
		"[data-testid='property-card']",
		".property-card",
		".PropertyCard",
		"li[data-testid='result-card']",
		".srp-item"
	];
	var cards = [];
	for (var i = 0; i < selectors.length; i++) {
		cards = document.querySelectorAll(selectors[i]);
		if (cards.length > 0) break;
	}
	// Fallback: walk detail links when no card container matches.
	if (cards.length === 0) {
		cards = document.querySelectorAll("a[href*='/realestateandhomes-detail/']");
	}

	var results = [];
	cards.forEach(function(card) {
		var priceEl = card.querySelector(
			"[data-testid='card-price'], .price, [class*='Price']");
		var addressEl = card.querySelector(
			"[data-testid='card-address'], .address, [class*='address']");
		var link = card.tagName === "A" ? card :
			card.querySelector("a[href*='/realestateandhomes-detail/']");

		var address = addressEl ? addressEl.innerText.trim() : "";
		var location = "";
		var lines = address.split("\n");
		if (lines.length > 1) {
			address = lines[0].trim();
			location = lines.slice(1).join(", ").trim();
		}

		results.push({
			price: priceEl ? priceEl.innerText.trim() : "",
			address: address,
			location: location,
			url: link ? link.href : "",
			text: card.innerText ? card.innerText.trim() : ""
		});
	});
	return results;
})()
`
