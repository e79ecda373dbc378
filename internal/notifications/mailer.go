package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/studhome/studhome-backend/pkg/config"
)

const (
	sendgridSendURL = "https://api.sendgrid.com/v3/mail/send"
	sendTimeout     = 10 * time.Second
)

// Email is one outbound message.
type Email struct {
	ToEmail  string
	ToName   string
	Subject  string
	BodyText string
}

// Mailer sends transactional email. Callers treat failures as best-effort:
// a send error never fails the operation that triggered it.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

type sendgridMailer struct {
	httpClient *http.Client
	apiKey     string
	fromEmail  string
	fromName   string
}

// NewMailer returns a SendGrid-backed mailer, or a no-op mailer when no API
// key is configured (local development).
func NewMailer(cfg config.SendgridConfig) Mailer {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return noopMailer{}
	}
	return &sendgridMailer{
		httpClient: &http.Client{Timeout: sendTimeout},
		apiKey:     cfg.APIKey,
		fromEmail:  cfg.FromEmail,
		fromName:   cfg.FromName,
	}
}

type sendgridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendgridPayload struct {
	Personalizations []struct {
		To []sendgridAddress `json:"to"`
	} `json:"personalizations"`
	From    sendgridAddress `json:"from"`
	Subject string          `json:"subject"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

func (m *sendgridMailer) Send(ctx context.Context, email Email) error {
	if strings.TrimSpace(email.ToEmail) == "" {
		return fmt.Errorf("recipient email is required")
	}

	payload := sendgridPayload{
		From:    sendgridAddress{Email: m.fromEmail, Name: m.fromName},
		Subject: email.Subject,
	}
	payload.Personalizations = []struct {
		To []sendgridAddress `json:"to"`
	}{{To: []sendgridAddress{{Email: email.ToEmail, Name: email.ToName}}}}
	payload.Content = []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{{Type: "text/plain", Value: email.BodyText}}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendgridSendURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sendgrid rejected the message (status %d): %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

type noopMailer struct{}

func (noopMailer) Send(context.Context, Email) error {
	return nil
}
