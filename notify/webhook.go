package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"propwatch/config"
	"propwatch/models"
	"propwatch/utils"
)

// Webhook posts the full batch to a generic HTTP endpoint as JSON.
type Webhook struct {
	url    string
	client *http.Client
	logger *utils.Logger
}

func NewWebhook(cfg *config.Config, logger *utils.Logger) *Webhook {
	return &Webhook{
		url:    cfg.WebhookURL,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

func (w *Webhook) Name() string     { return "webhook" }
func (w *Webhook) Configured() bool { return w.url != "" }

type webhookProperty struct {
	ParcelID       string `json:"parcel_id"`
	Address        string `json:"address"`
	City           string `json:"city"`
	State          string `json:"state"`
	ZipCode        string `json:"zip_code"`
	Price          *int64 `json:"price"`
	PriceFormatted string `json:"price_formatted"`
	RecordType     string `json:"record_type"`
	PropertyType   string `json:"property_type"`
	SaleDate       string `json:"sale_date,omitempty"`
	Seller         string `json:"seller,omitempty"`
	Buyer          string `json:"buyer,omitempty"`
	County         string `json:"county"`
	URL            string `json:"url"`
	FirstSeen      string `json:"first_seen"`
}

type webhookPayload struct {
	Event      string            `json:"event"`
	Count      int               `json:"count"`
	Summary    string            `json:"summary"`
	Properties []webhookProperty `json:"properties"`
}

func (w *Webhook) Notify(ctx context.Context, records []models.PropertyRecord) error {
	if len(records) == 0 {
		return nil
	}

	payload := webhookPayload{
		Event:      "new_properties",
		Count:      len(records),
		Summary:    FormatSummary(records),
		Properties: make([]webhookProperty, 0, len(records)),
	}
	for _, r := range records {
		payload.Properties = append(payload.Properties, webhookProperty{
			ParcelID:       r.ParcelID,
			Address:        r.Address,
			City:           r.City,
			State:          r.State,
			ZipCode:        r.ZipCode,
			Price:          r.SalePrice,
			PriceFormatted: r.FormattedPrice(),
			RecordType:     r.RecordType,
			PropertyType:   r.PropertyType,
			SaleDate:       r.SaleDate,
			Seller:         r.Seller,
			Buyer:          r.Buyer,
			County:         r.County,
			URL:            r.URL,
			FirstSeen:      r.FirstSeen.Format(time.RFC3339),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}

	w.logger.Info("[%s] Notification sent (%d properties)", w.Name(), len(records))
	return nil
}
