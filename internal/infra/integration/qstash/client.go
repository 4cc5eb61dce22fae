package qstash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xavierca1/leadflow/internal/entity"
)

const DefaultBaseURL = "https://qstash.upstash.io"

// Client publishes delayed HTTP callbacks through Upstash QStash. Each follow-up job
// comes back as a POST to the destination once its delay has elapsed.
type Client struct {
	token       string
	baseURL     string
	destination string
	httpClient  *http.Client
}

// NewClient returns nil when the token or the callback base URL is missing, which the
// scheduler treats as follow-ups being switched off.
func NewClient(baseURL, token, appURL string) *Client {
	appURL = strings.TrimRight(appURL, "/")
	if token == "" || appURL == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		token:       token,
		baseURL:     strings.TrimRight(baseURL, "/"),
		destination: appURL + "/api/followup",
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) PublishFollowUp(ctx context.Context, job entity.FollowUpJob, delay time.Duration) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}

	endpoint := c.baseURL + "/v2/publish/" + url.PathEscape(c.destination)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Upstash-Delay", DelayHeader(delay))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qstash publish: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("qstash publish: %d - %s", resp.StatusCode, string(msg))
	}
	return nil
}

// DelayHeader formats a delay as whole seconds, e.g. "86400s".
func DelayHeader(d time.Duration) string {
	return strconv.FormatInt(int64(d/time.Second), 10) + "s"
}
