package scraper

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"propwatch/config"
	"propwatch/models"
	"propwatch/utils"
)

const (
	miamiDadeBaseURL  = "https://www.miamidade.gov/pa"
	miamiDadeClerkURL = "https://www.miamidade.gov/clerk"
)

var (
	streetAddressRe = regexp.MustCompile(`(?i)(\d+\s+[A-Za-z\s]+(?:St|Ave|Blvd|Dr|Rd|Ct|Way|Ln|Pl)[^,]*)`)
	caseNumberRe    = regexp.MustCompile(`(\d{4}-\d+-\w+|\d{2}-\d+)`)
	dollarAmountRe  = regexp.MustCompile(`\$[\d,]+`)
	slashDateRe     = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`)
	zipRe           = regexp.MustCompile(`\d{5}`)
)

var miamiDadeCities = []string{
	"Miami Beach", "Coral Gables", "Hialeah", "Homestead", "Doral",
	"Aventura", "Kendall", "Cutler Bay", "Pinecrest", "Miami",
}

// MiamiDade fetches sales from the Miami-Dade Property Appraiser and
// foreclosures from the Clerk of Courts. Both serve static HTML, so this
// source runs over plain HTTP instead of a browser.
type MiamiDade struct {
	cfg    *config.Config
	logger *utils.Logger
	client *http.Client
}

func NewMiamiDade(cfg *config.Config, logger *utils.Logger) *MiamiDade {
	return &MiamiDade{cfg: cfg, logger: logger}
}

func (m *MiamiDade) Name() string  { return "miami_dade" }
func (m *MiamiDade) State() string { return "FL" }

// Start acquires the HTTP client for this run.
func (m *MiamiDade) Start(ctx context.Context) error {
	m.client = &http.Client{Timeout: time.Duration(m.cfg.NavTimeoutSec) * time.Second}
	return nil
}

func (m *MiamiDade) Stop() {
	if m.client != nil {
		m.client.CloseIdleConnections()
		m.client = nil
	}
}

func (m *MiamiDade) get(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// FetchSales parses the Property Appraiser recent-sales table.
func (m *MiamiDade) FetchSales(ctx context.Context) ([]models.RawListing, error) {
	url := miamiDadeBaseURL + "/property_search.asp"
	m.logger.Info("[%s] Fetching recent sales: %s", m.Name(), url)

	doc, err := m.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var listings []models.RawListing
	doc.Find("table tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return true
		}

		parcelID := strings.TrimSpace(cells.Eq(0).Text())
		address := strings.TrimSpace(cells.Eq(1).Text())
		priceText := strings.TrimSpace(cells.Eq(2).Text())
		dateText := strings.TrimSpace(cells.Eq(3).Text())

		if address == "" || strings.EqualFold(parcelID, "folio") {
			return true
		}
		if parcelID == "" {
			parcelID = SynthesizeParcelID(address)
		}

		city, zip := m.addressParts(address)
		listings = append(listings, models.RawListing{
			ParcelID:     parcelID,
			Address:      address,
			City:         city,
			State:        "FL",
			ZipCode:      zip,
			PropertyType: "residential",
			RecordType:   "sale",
			SalePrice:    ParsePrice(priceText),
			SaleDate:     ParseDate(dateText),
			URL:          m.rowURL(row, miamiDadeBaseURL),
		})
		return len(listings) < 20
	})

	m.logger.Info("[%s] Found %d sales", m.Name(), len(listings))
	return listings, nil
}

// FetchForeclosures scans the Clerk of Courts foreclosure-sales page. The
// page mixes tables and article blocks, so parsing works off the text of
// each block rather than a fixed cell layout.
func (m *MiamiDade) FetchForeclosures(ctx context.Context) ([]models.RawListing, error) {
	url := miamiDadeClerkURL + "/foreclosure-sales.asp"
	m.logger.Info("[%s] Fetching foreclosures: %s", m.Name(), url)

	doc, err := m.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var listings []models.RawListing
	doc.Find("table tr, .foreclosure-item, .listing-item, article").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		text := strings.TrimSpace(item.Text())
		if len(text) < 20 || strings.Contains(strings.ToLower(text[:min(50, len(text))]), "address") {
			return true
		}

		addressMatch := streetAddressRe.FindString(text)
		if addressMatch == "" {
			return true
		}
		if !MatchesKeywords(text, m.cfg.Keywords) {
			return true
		}
		address := strings.TrimSpace(addressMatch)

		parcelID := caseNumberRe.FindString(text)
		if parcelID == "" {
			parcelID = SynthesizeParcelID(address)
		}

		var price *int64
		if p := dollarAmountRe.FindString(text); p != "" {
			price = ParsePrice(p)
		}
		saleDate := ""
		if d := slashDateRe.FindString(text); d != "" {
			saleDate = ParseDate(d)
		}

		city, zip := m.addressParts(address)
		listings = append(listings, models.RawListing{
			ParcelID:     parcelID,
			Address:      address,
			City:         city,
			State:        "FL",
			ZipCode:      zip,
			PropertyType: "residential",
			RecordType:   "foreclosure",
			SalePrice:    price,
			SaleDate:     saleDate,
			URL:          m.rowURL(item, miamiDadeClerkURL),
		})
		return len(listings) < 20
	})

	m.logger.Info("[%s] Found %d foreclosures", m.Name(), len(listings))
	return listings, nil
}

func (m *MiamiDade) rowURL(sel *goquery.Selection, base string) string {
	href, ok := sel.Find("a").First().Attr("href")
	if !ok || href == "" {
		return base
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	return base + "/" + strings.TrimPrefix(href, "/")
}

// addressParts extracts a known city name and zip code from address text.
func (m *MiamiDade) addressParts(address string) (city, zip string) {
	zip = zipRe.FindString(address)
	lower := strings.ToLower(address)
	for _, c := range miamiDadeCities {
		if strings.Contains(lower, strings.ToLower(c)) {
			city = c
			break
		}
	}
	if city == "" {
		city = "Miami"
	}
	return
}
