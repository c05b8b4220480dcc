package mailer

import (
	"encoding/base64"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

// BrevoMailer delivers through the Brevo transactional email HTTP API.
type BrevoMailer struct {
	APIKey   string
	From     string
	FromName string
}

func NewBrevoMailer(apiKey, from, fromName string) *BrevoMailer {
	return &BrevoMailer{APIKey: apiKey, From: from, FromName: fromName}
}

type brevoAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoAttachment struct {
	Name    string `json:"name"`
	Content string `json:"content"` // base64
}

type brevoPayload struct {
	Sender      brevoAddress      `json:"sender"`
	To          []brevoAddress    `json:"to"`
	Subject     string            `json:"subject"`
	TextContent string            `json:"textContent,omitempty"`
	HTMLContent string            `json:"htmlContent,omitempty"`
	Attachment  []brevoAttachment `json:"attachment,omitempty"`
}

func (m *BrevoMailer) Send(to, subject, body string, attachment []byte) error {
	payload := brevoPayload{
		Sender:      brevoAddress{Email: m.From, Name: m.FromName},
		To:          []brevoAddress{{Email: to}},
		Subject:     subject,
		TextContent: body,
	}
	if attachment != nil {
		payload.Attachment = []brevoAttachment{{
			Name:    "bill.pdf",
			Content: base64.StdEncoding.EncodeToString(attachment),
		}}
	}
	return m.post(payload)
}

func (m *BrevoMailer) SendHTML(to, subject, html string) error {
	return m.post(brevoPayload{
		Sender:      brevoAddress{Email: m.From, Name: m.FromName},
		To:          []brevoAddress{{Email: to}},
		Subject:     subject,
		HTMLContent: html,
	})
}

func (m *BrevoMailer) post(payload brevoPayload) error {
	agent := fiber.Post(brevoEndpoint)
	agent.Set("api-key", m.APIKey)
	agent.Set("accept", "application/json")
	agent.JSON(payload)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("brevo request: %w", errs[0])
	}
	if code >= 300 {
		return fmt.Errorf("brevo api status %d: %s", code, string(body))
	}
	return nil
}
