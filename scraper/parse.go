package scraper

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	nonDigits   = regexp.MustCompile(`[^\d]`)
	stateZipRe  = regexp.MustCompile(`([A-Z]{2})\s*(\d{5})?`)
	dateLayouts = []string{
		"1/2/2006",
		"1-2-2006",
		"2006-01-02",
		"January 2, 2006",
		"January 2 2006",
		"Jan 2, 2006",
	}
)

// ParsePrice extracts a whole-dollar amount from text like "$300,000".
// Returns nil when no digits are present.
func ParsePrice(text string) *int64 {
	cleaned := nonDigits.ReplaceAllString(text, "")
	if cleaned == "" {
		return nil
	}
	value, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return nil
	}
	return &value
}

// ParseDate normalizes a date string to ISO format. Unparseable input is
// returned verbatim so the source value is never lost; empty input stays
// empty.
func ParseDate(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return text
}

// SynthesizeParcelID derives a stable pseudo parcel identifier from an
// address, for sources that expose none.
func SynthesizeParcelID(address string) string {
	sum := md5.Sum([]byte(address))
	return hex.EncodeToString(sum[:])[:12]
}

// parseCityStateZip splits "Miami, FL 33139" style location text.
func parseCityStateZip(text string) (city, state, zip string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	parts := strings.SplitN(text, ",", 2)
	city = strings.TrimSpace(parts[0])
	if len(parts) < 2 {
		return
	}
	if m := stateZipRe.FindStringSubmatch(strings.TrimSpace(parts[1])); m != nil {
		state = m[1]
		zip = m[2]
	}
	return
}
