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

const redfinBaseURL = "https://www.redfin.com"

var redfinHomeIDRe = regexp.MustCompile(`/home/(\d+)`)

// Redfin fetches recently sold and foreclosure listings from Redfin.com.
// Works across all US markets; the location parameter selects the city.
type Redfin struct {
	*session
	location string
	cfg      *config.Config
	logger   *utils.Logger
}

// NewRedfin builds a Redfin source for a "City, ST" location.
func NewRedfin(location string, cfg *config.Config, logger *utils.Logger) *Redfin {
	return &Redfin{
		session:  newSession("redfin", cfg, logger),
		location: location,
		cfg:      cfg,
		logger:   logger,
	}
}

func (r *Redfin) Name() string  { return "redfin" }
func (r *Redfin) State() string { return "" }

func (r *Redfin) Start(ctx context.Context) error {
	return r.start(ctx, r.cfg.Headless)
}

func (r *Redfin) Stop() { r.stop() }

func (r *Redfin) locationSlug() string {
	slug := strings.ToLower(r.location)
	slug = strings.ReplaceAll(slug, ", ", "-")
	return strings.ReplaceAll(slug, " ", "-")
}

// FetchSales fetches properties sold in the last three months.
func (r *Redfin) FetchSales(ctx context.Context) ([]models.RawListing, error) {
	url := redfinBaseURL + "/city/" + r.locationSlug() + "/filter/include=sold-3mo"
	r.logger.Info("[%s] Fetching recent sales: %s", r.Name(), url)
	return r.fetchCards(url, "sale")
}

// FetchForeclosures fetches foreclosure and bank-owned listings.
func (r *Redfin) FetchForeclosures(ctx context.Context) ([]models.RawListing, error) {
	url := redfinBaseURL + "/city/" + r.locationSlug() + "/filter/property-type=house,foreclosure=true"
	r.logger.Info("[%s] Fetching foreclosures: %s", r.Name(), url)
	return r.fetchCards(url, "foreclosure")
}

type redfinCard struct {
	Price    string `json:"price"`
	Address  string `json:"address"`
	Location string `json:"location"`
	URL      string `json:"url"`
	SoldDate string `json:"soldDate"`
}

func (r *Redfin) fetchCards(url, recordType string) ([]models.RawListing, error) {
	if err := r.navigate(url, 3*time.Second); err != nil {
		return nil, err
	}

	var cards []redfinCard
	if err := r.evaluate(redfinCardJS, &cards); err != nil {
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
			cardURL = redfinBaseURL
		} else if !strings.HasPrefix(cardURL, "http") {
			cardURL = redfinBaseURL + cardURL
		}

		parcelID := ""
		if m := redfinHomeIDRe.FindStringSubmatch(cardURL); m != nil {
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
			SaleDate:     ParseDate(card.SoldDate),
			URL:          cardURL,
		})
	}

	r.logger.Info("[%s] Found %d %s cards", r.Name(), len(listings), recordType)
	return listings, nil
}

// Redfin renders cards client-side with unstable class names, so extraction
// tries a ladder of selectors in page JS.
const redfinCardJS = `
(function() {
	var selectors = [
		"[data-rf-test-id='home-card']",
		".HomeCard",
		".home-card",
		".MapHomeCard",
		"article[class*='HomeCard']"
	];
	var cards = [];
	for (var i = 0; i < selectors.length; i++) {
		cards = document.querySelectorAll(selectors[i]);
		if (cards.length > 0) break;
	}

	var results = [];
	cards.forEach(function(card) {
		var priceEl = card.querySelector(
			"[data-rf-test-id='home-card-price'], .price, .homecardV2Price");
		var addressEl = card.querySelector(
			"[data-rf-test-id='home-card-street-address'], .address, .homeAddress");
		var locationEl = card.querySelector(
			"[data-rf-test-id='home-card-city-state-zip'], .cityStateZip");
		var soldEl = card.querySelector(".sold-date, [class*='soldDate']");
		var link = card.querySelector("a[href*='/home/']");

		results.push({
			price: priceEl ? priceEl.innerText.trim() : "",
			address: addressEl ? addressEl.innerText.trim() : "",
			location: locationEl ? locationEl.innerText.trim() : "",
			soldDate: soldEl ? soldEl.innerText.trim() : "",
			url: link ? link.href : ""
		});
	});
	return results;
})()
`
