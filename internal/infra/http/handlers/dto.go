package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/xavierca1/leadflow/internal/entity"
)

var errRevenueNotNumber = errors.New("revenue must be a number")

// IngestLeadRequest is the body of POST /api/leads. Missing or unknown tier and status
// values are normalized by the store rather than rejected.
type IngestLeadRequest struct {
	ClientID         string `json:"client_id"`
	Tier             string `json:"tier"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	ProjectType      string `json:"project_type"`
	EstimatedValue   string `json:"estimated_value"`
	Source           string `json:"source"`
	LeadSourceDetail string `json:"lead_source_detail"`
	Status           string `json:"status"`
}

func (r IngestLeadRequest) Lead() *entity.Lead {
	return &entity.Lead{
		ClientID:         strings.TrimSpace(r.ClientID),
		Tier:             entity.Tier(r.Tier),
		Name:             r.Name,
		Email:            r.Email,
		Phone:            r.Phone,
		ProjectType:      r.ProjectType,
		EstimatedValue:   r.EstimatedValue,
		Source:           r.Source,
		LeadSourceDetail: r.LeadSourceDetail,
		Status:           entity.Status(r.Status),
	}
}

type IngestLeadResponse struct {
	Success  bool   `json:"success"`
	LeadID   int64  `json:"lead_id"`
	ClientID string `json:"client_id"`
}

type LeadDetailResponse struct {
	Lead        *entity.Lead        `json:"lead"`
	Conversions []entity.Conversion `json:"conversions"`
}

type ConvertLeadRequest struct {
	Outcome   string  `json:"outcome" validate:"required,oneof=won lost"`
	Revenue   Amount  `json:"revenue"`
	CloseDate *string `json:"close_date" validate:"omitempty,datetime=2006-01-02"`
	Notes     string  `json:"notes"`
}

type ConvertLeadResponse struct {
	Success    bool               `json:"success"`
	Conversion *entity.Conversion `json:"conversion"`
}

// Amount accepts a JSON number or a numeric string. Zero, null and the empty string all
// mean no amount.
type Amount struct {
	Value *float64
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		a.Value = nil
		return nil
	}

	var text string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return errRevenueNotNumber
		}
		text = strings.TrimSpace(text)
	} else {
		text = string(data)
	}
	if text == "" {
		a.Value = nil
		return nil
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return errRevenueNotNumber
	}
	if v == 0 {
		a.Value = nil
		return nil
	}
	a.Value = &v
	return nil
}
