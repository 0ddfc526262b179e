// internal/services/mailer.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"

	"github.com/tubetrade/dealdesk/internal/config"
)

type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// SMTPMailer sends HTML mail through the configured relay. Without an SMTP
// host it only logs.
type SMTPMailer struct {
	cfg config.EmailConfig
}

func NewSMTPMailer(cfg config.EmailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	if m.cfg.SMTPHost == "" {
		// Email not configured, just log
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("Email not sent: SMTP not configured")
		return nil
	}

	auth := smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)

	from := m.cfg.FromEmail
	if m.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.FromEmail)
	}
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		from, to, subject, htmlBody,
	))

	addr := fmt.Sprintf("%s:%s", m.cfg.SMTPHost, m.cfg.SMTPPort)
	return smtp.SendMail(addr, auth, m.cfg.FromEmail, []string{to}, msg)
}

var dealEmailTemplate = template.Must(template.New("deal_update").Parse(`
<!DOCTYPE html>
<html>
<body>
	<h2>Update on your deal {{.TransactionID}}</h2>
	<p>Hello {{.BuyerName}},</p>
	<p>{{.Message}}</p>
	<p>Channel: {{.ChannelTitle}}<br>Status: {{.Status}} ({{.Progress}}%)</p>
	<a href="{{.DealURL}}">View deal</a>
	<p>Best regards,<br>TubeTrade Team</p>
</body>
</html>`))

type dealEmailData struct {
	TransactionID string
	BuyerName     string
	Message       string
	ChannelTitle  string
	Status        string
	Progress      int
	DealURL       string
}

func renderDealEmail(data dealEmailData) (string, error) {
	var buf bytes.Buffer
	if err := dealEmailTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
