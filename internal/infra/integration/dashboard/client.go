package dashboard

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

	"github.com/xavierca1/leadflow/internal/entity"
)

const DefaultTimeout = 5 * time.Second

// Client records leads in a dashboard running as a separate deployment, through its
// POST /api/leads ingestion endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

func (c *Client) RecordLead(ctx context.Context, lead *entity.Lead) (entity.IngestResult, error) {
	payload, err := json.Marshal(ingestRequest{
		ClientID:         lead.ClientID,
		Tier:             string(lead.Tier),
		Name:             lead.Name,
		Email:            lead.Email,
		Phone:            lead.Phone,
		ProjectType:      lead.ProjectType,
		EstimatedValue:   lead.EstimatedValue,
		Source:           lead.Source,
		LeadSourceDetail: lead.LeadSourceDetail,
		Status:           string(lead.Status),
	})
	if err != nil {
		return entity.IngestResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/leads", bytes.NewReader(payload))
	if err != nil {
		return entity.IngestResult{}, err
	}
	c.addAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entity.IngestResult{}, fmt.Errorf("dashboard request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return entity.IngestResult{}, fmt.Errorf("dashboard ingest: %d - %s", resp.StatusCode, string(body))
	}

	var result ingestResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return entity.IngestResult{}, fmt.Errorf("decode dashboard response: %w", err)
	}

	log.Debug().Int64("lead_id", result.LeadID).Str("client_id", result.ClientID).Msg("lead logged to dashboard")

	return entity.IngestResult{
		LeadID:   result.LeadID,
		ClientID: result.ClientID,
		Created:  resp.StatusCode == http.StatusCreated,
	}, nil
}

func (c *Client) addAuthHeaders(req *http.Request) {
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
}
