// Package notify fans out new-record notifications to independently
// configured channels. One channel's failure never blocks another's
// attempt; there are no retries.
package notify

import (
	"context"
	"fmt"
	"strings"

	"propwatch/config"
	"propwatch/models"
	"propwatch/utils"
)

// Channel is one outbound notification mechanism.
type Channel interface {
	Name() string
	Configured() bool
	Notify(ctx context.Context, records []models.PropertyRecord) error
}

// Channels builds the full channel set from configuration. Unconfigured
// channels are still returned; Dispatch skips them.
func Channels(cfg *config.Config, logger *utils.Logger) []Channel {
	return []Channel{
		NewDiscord(cfg, logger),
		NewEmail(cfg, logger),
		NewWebhook(cfg, logger),
	}
}

// Dispatch sends the batch through every configured channel and returns a
// per-channel success map. Failures are logged and isolated.
func Dispatch(ctx context.Context, channels []Channel, records []models.PropertyRecord, logger *utils.Logger) map[string]bool {
	results := make(map[string]bool)
	for _, channel := range channels {
		if !channel.Configured() {
			continue
		}
		if err := channel.Notify(ctx, records); err != nil {
			logger.Error("[%s] Notification failed: %v", channel.Name(), err)
			results[channel.Name()] = false
			continue
		}
		results[channel.Name()] = true
	}
	return results
}

// FormatSummary renders a one-line batch summary, e.g.
// "3 new properties | 2 sales | 1 foreclosures".
func FormatSummary(records []models.PropertyRecord) string {
	sales, foreclosures := 0, 0
	for _, r := range records {
		switch r.RecordType {
		case "sale":
			sales++
		case "foreclosure":
			foreclosures++
		}
	}

	parts := []string{fmt.Sprintf("%d new properties", len(records))}
	if sales > 0 {
		parts = append(parts, fmt.Sprintf("%d sales", sales))
	}
	if foreclosures > 0 {
		parts = append(parts, fmt.Sprintf("%d foreclosures", foreclosures))
	}
	return strings.Join(parts, " | ")
}

// FormatRecord renders one record as display text.
func FormatRecord(r models.PropertyRecord) string {
	lines := []string{
		fmt.Sprintf("**%s**", r.Address),
		fmt.Sprintf("%s, %s %s", r.City, r.State, r.ZipCode),
		fmt.Sprintf("Price: %s", r.FormattedPrice()),
		fmt.Sprintf("Type: %s", titleCase(r.RecordType)),
	}
	if r.SaleDate != "" {
		lines = append(lines, fmt.Sprintf("Date: %s", r.SaleDate))
	}
	if r.Buyer != "" {
		lines = append(lines, fmt.Sprintf("Buyer: %s", r.Buyer))
	}
	if r.Seller != "" {
		lines = append(lines, fmt.Sprintf("Seller: %s", r.Seller))
	}
	lines = append(lines,
		fmt.Sprintf("County: %s", r.County),
		fmt.Sprintf("URL: %s", r.URL),
	)
	return strings.Join(lines, "\n")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// sourceLabel turns a county tag like "miami_dade" into "Miami Dade".
func sourceLabel(county string) string {
	words := strings.Split(strings.ReplaceAll(county, "_", " "), " ")
	for i, w := range words {
		words[i] = titleCase(w)
	}
	return strings.Join(words, " ")
}
