package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/http/middleware"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type FollowUpExecutor interface {
	Execute(ctx context.Context, job entity.FollowUpJob) error
}

// FollowUpHandler is the delivery callback for delayed follow-up jobs published over HTTP.
type FollowUpHandler struct {
	UseCase FollowUpExecutor
}

func NewFollowUpHandler(uc FollowUpExecutor) *FollowUpHandler {
	return &FollowUpHandler{UseCase: uc}
}

func (h *FollowUpHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var job entity.FollowUpJob
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.UseCase.Execute(r.Context(), job); err != nil {
		if usecase.IsTechnicalError(err) {
			middleware.RecordFollowUp("sent", false)
		}
		respondError(w, r, err)
		return
	}

	middleware.RecordFollowUp("sent", true)
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
