package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"oficina/internal/apperror"
)

// Mailer sends transactional mail. Delivery problems are reported but
// never block the calling flow; callers decide whether a failed send
// matters.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// resendMailer talks to the Resend HTTP API.
type resendMailer struct {
	apiKey  string
	from    string
	baseURL string
	client  *http.Client
}

func NewResendMailer(apiKey, from string) Mailer {
	return &resendMailer{
		apiKey:  apiKey,
		from:    from,
		baseURL: "https://api.resend.com",
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type resendPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (m *resendMailer) Send(ctx context.Context, to, subject, html string) error {
	if m.apiKey == "" {
		// Mail is optional in development; keep the flow alive.
		log.Printf("mailer disabled, skipping message to %s (%s)", to, subject)
		return nil
	}

	body, err := json.Marshal(resendPayload{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("failed to encode mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return &apperror.ExternalServiceError{Service: "resend", Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &apperror.ExternalServiceError{
			Service: "resend",
			Detail:  fmt.Sprintf("unexpected status %d", resp.StatusCode),
		}
	}
	return nil
}
