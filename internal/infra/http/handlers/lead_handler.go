package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/http/middleware"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type StatsExecutor interface {
	Execute(ctx context.Context) (*usecase.LeadStats, error)
}

// LeadHandler serves the dashboard API over the lead store.
type LeadHandler struct {
	leadRepo entity.LeadRepositoryInterface
	stats    StatsExecutor
	validate *validator.Validate
}

func NewLeadHandler(leadRepo entity.LeadRepositoryInterface, stats StatsExecutor) *LeadHandler {
	return &LeadHandler{
		leadRepo: leadRepo,
		stats:    stats,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Ingest stores a lead, or returns the existing identity when the client_id is known.
func (h *LeadHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	lead := req.Lead()
	result, err := h.leadRepo.Ingest(r.Context(), lead)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	middleware.RecordLeadIngested(string(lead.Tier), result.Created)

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, IngestLeadResponse{
		Success:  true,
		LeadID:   result.LeadID,
		ClientID: result.ClientID,
	})
}

// List returns leads newest first, optionally filtered by tier and status.
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := entity.LeadFilter{
		Tier:   entity.Tier(r.URL.Query().Get("tier")),
		Status: entity.Status(r.URL.Query().Get("status")),
	}

	leads, err := h.leadRepo.List(r.Context(), filter)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if leads == nil {
		leads = []entity.Lead{}
	}
	writeJSON(w, http.StatusOK, leads)
}

func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(r)
	if !ok {
		NotFound(w, r)
		return
	}

	lead, err := h.leadRepo.FindByID(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	conversions, err := h.leadRepo.ListConversions(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LeadDetailResponse{Lead: lead, Conversions: conversions})
}

// Update applies the allow-listed fields of the body. Anything else is ignored.
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(r)
	if !ok {
		NotFound(w, r)
		return
	}

	var patch entity.LeadPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := patch.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.leadRepo.Update(r.Context(), id, patch); err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// Convert records a won or lost outcome and moves the lead to the matching status.
func (h *LeadHandler) Convert(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(r)
	if !ok {
		NotFound(w, r)
		return
	}

	var req ConvertLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, errRevenueNotNumber) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, convertValidationMessage(err))
		return
	}

	conversion, err := h.leadRepo.RecordConversion(r.Context(), entity.ConversionInput{
		LeadID:    id,
		Outcome:   entity.Outcome(req.Outcome),
		Revenue:   req.Revenue.Value,
		CloseDate: req.CloseDate,
		Notes:     req.Notes,
	})
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, ConvertLeadResponse{Success: true, Conversion: conversion})
}

func (h *LeadHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Execute(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *LeadHandler) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, entity.ErrLeadNotFound):
		NotFound(w, r)
	case errors.Is(err, entity.ErrInvalidOutcome),
		errors.Is(err, entity.ErrInvalidStatus),
		errors.Is(err, entity.ErrInvalidTier),
		errors.Is(err, entity.ErrNegativeRevenue):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("lead store failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func leadID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func convertValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	for _, fe := range verrs {
		switch fe.Field() {
		case "Outcome":
			return entity.ErrInvalidOutcome.Error()
		case "CloseDate":
			return "close_date must be YYYY-MM-DD"
		}
	}
	return "Invalid request"
}
