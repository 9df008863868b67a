package models

import (
	"strconv"
	"time"
)

// RawListing represents a normalized property event produced by a site
// adapter, before database storage.
type RawListing struct {
	ParcelID     string // best-effort; synthesized from the address when the source has none
	Address      string
	City         string
	State        string
	ZipCode      string
	PropertyType string // residential, commercial, land
	RecordType   string // sale, foreclosure, lien, transfer
	SalePrice    *int64 // whole dollars, nil when the source shows no price
	SaleDate     string // ISO date when parseable, source text otherwise, "" when absent
	Seller       string
	Buyer        string
	URL          string
	RawData      string // JSON blob of extra source fields, for audit
}

// PropertyRecord is a RawListing as persisted by the store.
type PropertyRecord struct {
	ID       int64
	County   string // source/site tag
	RawListing
	FirstSeen time.Time
	LastSeen  time.Time
	Notified  bool
}

// NaturalKey returns the dedup identity as a display string. The store
// enforces uniqueness structurally; this is for logging only.
func (r *PropertyRecord) NaturalKey() string {
	date := r.SaleDate
	if date == "" {
		date = "na"
	}
	return r.County + ":" + r.ParcelID + ":" + r.RecordType + ":" + date
}

// FormattedPrice renders the sale price for display, e.g. "$1,250,000".
func (r *PropertyRecord) FormattedPrice() string {
	return FormatPrice(r.SalePrice)
}

// FormatPrice formats a whole-dollar amount with thousands separators.
// An absent price renders as "N/A".
func FormatPrice(price *int64) string {
	if price == nil {
		return "N/A"
	}
	digits := strconv.FormatInt(*price, 10)
	neg := false
	if len(digits) > 0 && digits[0] == '-' {
		neg = true
		digits = digits[1:]
	}
	var out []byte
	for i, c := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-$" + string(out)
	}
	return "$" + string(out)
}

// Price returns a pointer to v, for literal listing construction.
func Price(v int64) *int64 { return &v }

// Stats summarizes the contents of the store.
type Stats struct {
	TotalRecords int64
	Notified     int64
	ByCounty     map[string]int64
	ByType       map[string]int64
}

// RunStatus tracks the outcome of one scrape run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ScrapeRun is the bookkeeping row written for each source executed in a run.
type ScrapeRun struct {
	ID         string
	Source     string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     RunStatus
	Found      int
	New        int
}
