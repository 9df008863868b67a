package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"propwatch/config"
	"propwatch/models"
	"propwatch/utils"
)

const (
	discordColorSale        = 0x00FF00
	discordColorForeclosure = 0xFF6600
	discordMaxEmbeds        = 10
)

// Discord sends property alerts through a Discord webhook as rich embeds.
type Discord struct {
	webhookURL string
	client     *http.Client
	logger     *utils.Logger
}

func NewDiscord(cfg *config.Config, logger *utils.Logger) *Discord {
	return &Discord{
		webhookURL: cfg.DiscordWebhookURL,
		client:     &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

func (d *Discord) Name() string     { return "discord" }
func (d *Discord) Configured() bool { return d.webhookURL != "" }

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordEmbed struct {
	Title  string         `json:"title"`
	URL    string         `json:"url"`
	Color  int            `json:"color"`
	Fields []discordField `json:"fields"`
}

type discordPayload struct {
	Content string         `json:"content"`
	Embeds  []discordEmbed `json:"embeds"`
}

func (d *Discord) Notify(ctx context.Context, records []models.PropertyRecord) error {
	if len(records) == 0 {
		return nil
	}

	payload := discordPayload{
		Content: fmt.Sprintf("**Property Alert:** %s", FormatSummary(records)),
	}

	// Discord caps a webhook message at 10 embeds.
	for _, record := range records {
		if len(payload.Embeds) >= discordMaxEmbeds {
			break
		}
		payload.Embeds = append(payload.Embeds, d.embed(record))
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, string(text))
	}

	d.logger.Info("[%s] Notification sent (%d embeds)", d.Name(), len(payload.Embeds))
	return nil
}

func (d *Discord) embed(r models.PropertyRecord) discordEmbed {
	color := discordColorForeclosure
	if r.RecordType == "sale" {
		color = discordColorSale
	}

	fields := []discordField{
		{Name: "Price", Value: r.FormattedPrice(), Inline: true},
		{Name: "Type", Value: titleCase(r.RecordType), Inline: true},
		{Name: "Location", Value: fmt.Sprintf("%s, %s %s", r.City, r.State, r.ZipCode), Inline: true},
	}
	if r.SaleDate != "" {
		fields = append(fields, discordField{Name: "Date", Value: r.SaleDate, Inline: true})
	}
	fields = append(fields, discordField{Name: "Source", Value: sourceLabel(r.County), Inline: true})

	return discordEmbed{
		Title:  fmt.Sprintf("🏠 %s", r.Address),
		URL:    r.URL,
		Color:  color,
		Fields: fields,
	}
}
