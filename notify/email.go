package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"propwatch/config"
	"propwatch/models"
	"propwatch/utils"
)

const emailBoundary = "propwatch-alt-boundary"

// Email sends a multipart plain-text/HTML summary over SMTP with STARTTLS.
type Email struct {
	host     string
	port     int
	user     string
	password string
	to       string
	logger   *utils.Logger

	// send is swappable in tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmail(cfg *config.Config, logger *utils.Logger) *Email {
	return &Email{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		to:       cfg.NotifyEmail,
		logger:   logger,
		send:     smtp.SendMail,
	}
}

func (e *Email) Name() string { return "email" }

func (e *Email) Configured() bool {
	return e.host != "" && e.user != "" && e.password != "" && e.to != ""
}

func (e *Email) Notify(ctx context.Context, records []models.PropertyRecord) error {
	if len(records) == 0 {
		return nil
	}

	msg := e.buildMessage(records)
	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	auth := smtp.PlainAuth("", e.user, e.password, e.host)

	if err := e.send(addr, auth, e.user, []string{e.to}, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	e.logger.Info("[%s] Email sent with %d properties", e.Name(), len(records))
	return nil
}

func (e *Email) buildMessage(records []models.PropertyRecord) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", e.user)
	fmt.Fprintf(&b, "To: %s\r\n", e.to)
	fmt.Fprintf(&b, "Subject: Property Alert: %s\r\n", FormatSummary(records))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", emailBoundary)

	fmt.Fprintf(&b, "--%s\r\n", emailBoundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(e.textBody(records))
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", emailBoundary)
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	b.WriteString(e.htmlBody(records))
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", emailBoundary)
	return []byte(b.String())
}

func (e *Email) textBody(records []models.PropertyRecord) string {
	lines := []string{
		fmt.Sprintf("Found %d new properties:", len(records)),
		"",
		strings.Repeat("=", 50),
	}
	for _, r := range records {
		lines = append(lines, "", FormatRecord(r), strings.Repeat("-", 50))
	}
	return strings.Join(lines, "\n")
}

func (e *Email) htmlBody(records []models.PropertyRecord) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<h2>Found %d new properties</h2>", len(records))

	for _, r := range records {
		color := "#fd7e14"
		if r.RecordType == "sale" {
			color = "#28a745"
		}
		fmt.Fprintf(&b, "<div style='margin: 20px 0; padding: 15px; border-left: 4px solid %s; background: #f8f9fa;'>", color)
		fmt.Fprintf(&b, "<h3 style='margin: 0 0 10px 0;'>🏠 %s</h3>", r.Address)
		fmt.Fprintf(&b, "<p><strong>Price:</strong> %s</p>", r.FormattedPrice())
		fmt.Fprintf(&b, "<p><strong>Location:</strong> %s, %s %s</p>", r.City, r.State, r.ZipCode)
		fmt.Fprintf(&b, "<p><strong>Type:</strong> %s</p>", titleCase(r.RecordType))
		if r.SaleDate != "" {
			fmt.Fprintf(&b, "<p><strong>Date:</strong> %s</p>", r.SaleDate)
		}
		fmt.Fprintf(&b, "<p><strong>Source:</strong> %s</p>", sourceLabel(r.County))
		fmt.Fprintf(&b, "<p><a href='%s' style='color: #007bff;'>View Property</a></p>", r.URL)
		b.WriteString("</div>")
	}

	b.WriteString("</body></html>")
	return b.String()
}
