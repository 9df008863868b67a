package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"propwatch/models"
	"propwatch/utils"
)

func sampleRecord(parcel, recordType string, price *int64) models.PropertyRecord {
	return models.PropertyRecord{
		ID:        1,
		County:    "miami_dade",
		FirstSeen: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		RawListing: models.RawListing{
			ParcelID:   parcel,
			Address:    "123 Ocean Dr",
			City:       "Miami Beach",
			State:      "FL",
			ZipCode:    "33139",
			RecordType: recordType,
			SalePrice:  price,
			SaleDate:   "2024-03-01",
			URL:        "https://example.com/" + parcel,
		},
	}
}

type stubChannel struct {
	name       string
	configured bool
	err        error
	calls      int
}

func (s *stubChannel) Name() string     { return s.name }
func (s *stubChannel) Configured() bool { return s.configured }
func (s *stubChannel) Notify(ctx context.Context, records []models.PropertyRecord) error {
	s.calls++
	return s.err
}

func TestDispatchSkipsUnconfiguredAndIsolatesFailures(t *testing.T) {
	healthy := &stubChannel{name: "discord", configured: true}
	broken := &stubChannel{name: "email", configured: true, err: errors.New("smtp down")}
	idle := &stubChannel{name: "webhook"}

	records := []models.PropertyRecord{sampleRecord("P1", "sale", models.Price(300000))}
	results := Dispatch(context.Background(), []Channel{broken, healthy, idle}, records, utils.NewLogger())

	if idle.calls != 0 {
		t.Error("unconfigured channel must not be called")
	}
	if healthy.calls != 1 {
		t.Errorf("healthy channel called %d times, want 1", healthy.calls)
	}
	if results["discord"] != true || results["email"] != false {
		t.Errorf("results = %v", results)
	}
	if _, present := results["webhook"]; present {
		t.Error("skipped channel must not appear in results")
	}
}

func TestFormatSummary(t *testing.T) {
	records := []models.PropertyRecord{
		sampleRecord("P1", "sale", nil),
		sampleRecord("P2", "sale", nil),
		sampleRecord("P3", "foreclosure", nil),
	}
	want := "3 new properties | 2 sales | 1 foreclosures"
	if got := FormatSummary(records); got != want {
		t.Errorf("FormatSummary() = %q, want %q", got, want)
	}

	if got := FormatSummary(nil); got != "0 new properties" {
		t.Errorf("FormatSummary(nil) = %q", got)
	}
}

func TestSourceLabel(t *testing.T) {
	if got := sourceLabel("miami_dade"); got != "Miami Dade" {
		t.Errorf("sourceLabel(miami_dade) = %q", got)
	}
	if got := sourceLabel("redfin"); got != "Redfin" {
		t.Errorf("sourceLabel(redfin) = %q", got)
	}
}

func TestDiscordNotifyCapsEmbeds(t *testing.T) {
	var got discordPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	d := &Discord{webhookURL: server.URL, client: server.Client(), logger: utils.NewLogger()}

	var records []models.PropertyRecord
	for i := 0; i < 15; i++ {
		records = append(records, sampleRecord("P"+string(rune('A'+i)), "sale", models.Price(250000)))
	}
	if err := d.Notify(context.Background(), records); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(got.Embeds) != discordMaxEmbeds {
		t.Errorf("embeds = %d, want cap of %d", len(got.Embeds), discordMaxEmbeds)
	}
	if !strings.Contains(got.Content, "15 new properties") {
		t.Errorf("content = %q, want the full batch summary", got.Content)
	}
	if got.Embeds[0].Color != discordColorSale {
		t.Errorf("sale embed color = %#x", got.Embeds[0].Color)
	}
}

func TestDiscordNotifyErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	d := &Discord{webhookURL: server.URL, client: server.Client(), logger: utils.NewLogger()}
	err := d.Notify(context.Background(), []models.PropertyRecord{sampleRecord("P1", "sale", nil)})
	if err == nil {
		t.Fatal("expected an error for a non-2xx response")
	}
}

func TestDiscordEmptyBatchIsNoop(t *testing.T) {
	d := &Discord{webhookURL: "https://discord.invalid/hook", client: http.DefaultClient, logger: utils.NewLogger()}
	if err := d.Notify(context.Background(), nil); err != nil {
		t.Fatalf("empty batch should be a no-op, got %v", err)
	}
}

func TestWebhookNotifyPayload(t *testing.T) {
	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
	}))
	defer server.Close()

	w := &Webhook{url: server.URL, client: server.Client(), logger: utils.NewLogger()}
	records := []models.PropertyRecord{
		sampleRecord("P1", "foreclosure", nil),
		sampleRecord("P2", "sale", models.Price(400000)),
	}
	if err := w.Notify(context.Background(), records); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if got.Event != "new_properties" || got.Count != 2 {
		t.Errorf("event/count = %q/%d", got.Event, got.Count)
	}
	if len(got.Properties) != 2 {
		t.Fatalf("properties = %d, want 2", len(got.Properties))
	}
	if got.Properties[0].Price != nil {
		t.Error("absent price should serialize as null")
	}
	if got.Properties[0].PriceFormatted != "N/A" {
		t.Errorf("formatted price = %q, want N/A", got.Properties[0].PriceFormatted)
	}
	if got.Properties[1].Price == nil || *got.Properties[1].Price != 400000 {
		t.Errorf("price = %v", got.Properties[1].Price)
	}
	if got.Properties[0].FirstSeen != "2024-03-01T12:00:00Z" {
		t.Errorf("first_seen = %q", got.Properties[0].FirstSeen)
	}
}

func TestEmailBuildMessage(t *testing.T) {
	e := &Email{host: "smtp.example.com", user: "alerts@example.com", to: "me@example.com"}
	records := []models.PropertyRecord{sampleRecord("P1", "sale", models.Price(300000))}

	msg := string(e.buildMessage(records))

	for _, want := range []string{
		"From: alerts@example.com",
		"To: me@example.com",
		"Subject: Property Alert: 1 new properties | 1 sales",
		"Content-Type: multipart/alternative",
		"Content-Type: text/plain",
		"Content-Type: text/html",
		"123 Ocean Dr",
		"$300,000",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
	if !strings.HasSuffix(strings.TrimSpace(msg), "--"+emailBoundary+"--") {
		t.Error("message not terminated with the closing boundary")
	}
}

func TestEmailNotifySendsOnce(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	e := &Email{
		host: "smtp.example.com", port: 587,
		user: "alerts@example.com", password: "secret", to: "me@example.com",
		logger: utils.NewLogger(),
		send: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo = addr, from, to
			return nil
		},
	}
	if !e.Configured() {
		t.Fatal("email should report configured")
	}

	err := e.Notify(context.Background(), []models.PropertyRecord{sampleRecord("P1", "sale", nil)})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if gotAddr != "smtp.example.com:587" || gotFrom != "alerts@example.com" {
		t.Errorf("addr/from = %q/%q", gotAddr, gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "me@example.com" {
		t.Errorf("to = %v", gotTo)
	}
}

func TestEmailConfiguredRequiresAllFields(t *testing.T) {
	e := &Email{host: "smtp.example.com", user: "u", password: "p"}
	if e.Configured() {
		t.Error("missing recipient should leave email unconfigured")
	}
}
