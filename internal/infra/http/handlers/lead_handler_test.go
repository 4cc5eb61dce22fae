package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/database"
	"github.com/xavierca1/leadflow/internal/usecase"
)

const testAPIKey = "test-key"

type leadAPI struct {
	store  *database.JSONStore
	router http.Handler
}

func newLeadAPI(t *testing.T) *leadAPI {
	t.Helper()
	store := database.NewJSONStore(filepath.Join(t.TempDir(), "leads.json"))
	return &leadAPI{
		store: store,
		router: NewRouter(RouterConfig{
			Leads:           NewLeadHandler(store, usecase.NewLeadStatsUseCase(store)),
			DashboardAPIKey: testAPIKey,
		}),
	}
}

func (a *leadAPI) do(method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *leadAPI) seed(t *testing.T, lead *entity.Lead) int64 {
	t.Helper()
	res, err := a.store.Ingest(context.Background(), lead)
	require.NoError(t, err)
	return res.LeadID
}

// TestLeadHandler_IngestCreatesThenDedups - 201 on the first ingest, 200 on the same client_id
func TestLeadHandler_IngestCreatesThenDedups(t *testing.T) {
	api := newLeadAPI(t)
	body := `{"client_id":"conv-1-lead","tier":"vip","name":"Anna","phone":"555-0100","source":"chatbot"}`

	rec := api.do(http.MethodPost, "/api/leads", body, "X-API-Key", testAPIKey)
	require.Equal(t, http.StatusCreated, rec.Code)

	var first IngestLeadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.True(t, first.Success)
	assert.Equal(t, int64(1), first.LeadID)
	assert.Equal(t, "conv-1-lead", first.ClientID)

	rec = api.do(http.MethodPost, "/api/leads?api_key="+testAPIKey, body)
	require.Equal(t, http.StatusOK, rec.Code)

	var second IngestLeadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, first.LeadID, second.LeadID)

	leads, err := api.store.List(context.Background(), entity.LeadFilter{})
	require.NoError(t, err)
	assert.Len(t, leads, 1)
}

// TestLeadHandler_IngestRequiresAPIKey - a missing or wrong key is a bare 401
func TestLeadHandler_IngestRequiresAPIKey(t *testing.T) {
	api := newLeadAPI(t)

	rec := api.do(http.MethodPost, "/api/leads", `{"tier":"vip"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())

	rec = api.do(http.MethodPost, "/api/leads", `{"tier":"vip"}`, "X-API-Key", "nope")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	leads, err := api.store.List(context.Background(), entity.LeadFilter{})
	require.NoError(t, err)
	assert.Empty(t, leads)
}

// TestLeadHandler_IngestAssignsDefaults - unqualified leads default to rejected
func TestLeadHandler_IngestAssignsDefaults(t *testing.T) {
	api := newLeadAPI(t)

	rec := api.do(http.MethodPost, "/api/leads", `{"tier":"unqualified"}`, "X-API-Key", testAPIKey)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp IngestLeadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ClientID)

	lead, err := api.store.FindByID(context.Background(), resp.LeadID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRejected, lead.Status)
	assert.Equal(t, entity.DefaultSource, lead.Source)
}

// TestLeadHandler_ListFilters - leads come back newest first and filter by tier and status
func TestLeadHandler_ListFilters(t *testing.T) {
	api := newLeadAPI(t)
	api.seed(t, &entity.Lead{Name: "A", Tier: entity.TierQualified})
	api.seed(t, &entity.Lead{Name: "B", Tier: entity.TierVIP})
	api.seed(t, &entity.Lead{Name: "C", Tier: entity.TierUnqualified})

	rec := api.do(http.MethodGet, "/api/leads", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []entity.Lead
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 3)
	assert.Equal(t, "C", all[0].Name)
	assert.Equal(t, "A", all[2].Name)

	rec = api.do(http.MethodGet, "/api/leads?tier=vip", "")
	var vip []entity.Lead
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vip))
	require.Len(t, vip, 1)
	assert.Equal(t, "B", vip[0].Name)

	rec = api.do(http.MethodGet, "/api/leads?status=won", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

// TestLeadHandler_GetNotFound - unknown and malformed ids are both 404
func TestLeadHandler_GetNotFound(t *testing.T) {
	api := newLeadAPI(t)

	rec := api.do(http.MethodGet, "/api/leads/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())

	rec = api.do(http.MethodGet, "/api/leads/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestLeadHandler_UpdateAllowList - only allow-listed fields change
func TestLeadHandler_UpdateAllowList(t *testing.T) {
	api := newLeadAPI(t)
	id := api.seed(t, &entity.Lead{ClientID: "keep-me", Name: "Anna", Tier: entity.TierQualified})

	rec := api.do(http.MethodPut, "/api/leads/1", `{"status":"contacted","name":"Anna B","client_id":"hijack","id":99}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	lead, err := api.store.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusContacted, lead.Status)
	assert.Equal(t, "Anna B", lead.Name)
	assert.Equal(t, "keep-me", lead.ClientID)
	assert.Equal(t, id, lead.ID)
}

// TestLeadHandler_UpdateRejectsInvalidValues - bad status or tier is a 400, unknown lead a 404
func TestLeadHandler_UpdateRejectsInvalidValues(t *testing.T) {
	api := newLeadAPI(t)
	api.seed(t, &entity.Lead{Name: "Anna", Tier: entity.TierQualified})

	rec := api.do(http.MethodPut, "/api/leads/1", `{"status":"archived"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPut, "/api/leads/1", `{"tier":"gold"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPut, "/api/leads/7", `{"status":"won"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestLeadHandler_ConvertWon - a won conversion is stored and the lead status follows
func TestLeadHandler_ConvertWon(t *testing.T) {
	api := newLeadAPI(t)
	id := api.seed(t, &entity.Lead{Name: "Anna", Tier: entity.TierVIP})

	rec := api.do(http.MethodPost, "/api/leads/1/convert", `{"outcome":"won","revenue":"12500.50","close_date":"2026-03-01","notes":"signed"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp ConvertLeadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Conversion)
	require.NotNil(t, resp.Conversion.Revenue)
	assert.InDelta(t, 12500.50, *resp.Conversion.Revenue, 0.001)

	rec = api.do(http.MethodGet, "/api/leads/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail LeadDetailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, entity.StatusWon, detail.Lead.Status)
	require.Len(t, detail.Conversions, 1)
	assert.Equal(t, id, detail.Conversions[0].LeadID)
	assert.Equal(t, "signed", detail.Conversions[0].Notes)
}

// TestLeadHandler_ConvertNumericRevenue - revenue may be a JSON number; zero means none
func TestLeadHandler_ConvertNumericRevenue(t *testing.T) {
	api := newLeadAPI(t)
	api.seed(t, &entity.Lead{Name: "Anna", Tier: entity.TierVIP})

	rec := api.do(http.MethodPost, "/api/leads/1/convert", `{"outcome":"won","revenue":900}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp ConvertLeadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Conversion.Revenue)
	assert.Equal(t, 900.0, *resp.Conversion.Revenue)

	rec = api.do(http.MethodPost, "/api/leads/1/convert", `{"outcome":"lost","revenue":0}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.Conversion.Revenue)
}

// TestLeadHandler_ConvertErrors - bad outcome, revenue or date are 400, unknown lead 404
func TestLeadHandler_ConvertErrors(t *testing.T) {
	api := newLeadAPI(t)
	api.seed(t, &entity.Lead{Name: "Anna", Tier: entity.TierVIP})

	tests := []struct {
		name   string
		target string
		body   string
		status int
		errMsg string
	}{
		{"bad outcome", "/api/leads/1/convert", `{"outcome":"maybe"}`, http.StatusBadRequest, `outcome must be "won" or "lost"`},
		{"missing outcome", "/api/leads/1/convert", `{}`, http.StatusBadRequest, `outcome must be "won" or "lost"`},
		{"revenue not a number", "/api/leads/1/convert", `{"outcome":"won","revenue":"lots"}`, http.StatusBadRequest, "revenue must be a number"},
		{"negative revenue", "/api/leads/1/convert", `{"outcome":"won","revenue":-5}`, http.StatusBadRequest, "revenue must not be negative"},
		{"bad close date", "/api/leads/1/convert", `{"outcome":"won","close_date":"March"}`, http.StatusBadRequest, "close_date must be YYYY-MM-DD"},
		{"unknown lead", "/api/leads/9/convert", `{"outcome":"won"}`, http.StatusNotFound, "Not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(http.MethodPost, tt.target, tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.errMsg, resp.Error)
		})
	}

	conversions, err := api.store.ListConversions(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, conversions)
}

// TestLeadHandler_Stats - the overview counts tiers, statuses and won revenue
func TestLeadHandler_Stats(t *testing.T) {
	api := newLeadAPI(t)
	api.seed(t, &entity.Lead{Tier: entity.TierQualified})
	api.seed(t, &entity.Lead{Tier: entity.TierVIP})
	api.seed(t, &entity.Lead{Tier: entity.TierUnqualified})

	rec := api.do(http.MethodPost, "/api/leads/2/convert", `{"outcome":"won","revenue":1000}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp usecase.LeadStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Stats.Total)
	assert.Equal(t, 1, resp.Stats.VIP)
	assert.Equal(t, 1, resp.Stats.Won)
	assert.Equal(t, 1, resp.Stats.Rejected)
	assert.Equal(t, 1, resp.Stats.Pending)
	assert.Equal(t, 1000.0, resp.Stats.Revenue)
	assert.Len(t, resp.Days, usecase.StatsWindowDays)
}
