package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xavierca1/leadflow/internal/infra/mail"
)

const DefaultBaseURL = "https://api.resend.com"

// Client delivers email through the Resend HTTP API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Send(ctx context.Context, msg mail.Message) error {
	if c.apiKey == "" {
		return fmt.Errorf("resend not configured")
	}

	payload, err := json.Marshal(sendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("resend request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("resend error: %d - %s", resp.StatusCode, string(body))
	}

	var result sendEmailResponse
	if err := json.Unmarshal(body, &result); err != nil {
		log.Debug().Err(err).Int("status", resp.StatusCode).Msg("resend accepted email, response not decoded")
		return nil
	}
	log.Debug().Str("email_id", result.ID).Msg("resend accepted email")
	return nil
}
