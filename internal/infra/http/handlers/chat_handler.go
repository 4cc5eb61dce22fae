package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/xavierca1/leadflow/internal/infra/http/middleware"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type ChatTurnExecutor interface {
	Execute(ctx context.Context, input usecase.ChatTurnInput) (*usecase.ChatTurnOutput, error)
}

type ChatHandler struct {
	UseCase ChatTurnExecutor
}

func NewChatHandler(uc ChatTurnExecutor) *ChatHandler {
	return &ChatHandler{UseCase: uc}
}

// Handle runs one conversation turn. Side-effect failures never change the status: the
// caller always gets a reply once the generator has answered.
func (h *ChatHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var input usecase.ChatTurnInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	output, err := h.UseCase.Execute(r.Context(), input)
	if err != nil {
		respondError(w, r, err)
		return
	}

	recordTurnMetrics(output)

	logger := zerolog.Ctx(r.Context())
	for _, eff := range output.Effects {
		if !eff.OK() {
			logger.Warn().Err(eff.Err).Str("effect", eff.Name).Msg("chat side effect swallowed")
		}
	}

	writeJSON(w, http.StatusOK, output)
}

func recordTurnMetrics(output *usecase.ChatTurnOutput) {
	if output.ParseFailed {
		middleware.RecordParseFailure()
	}
	for _, eff := range output.Effects {
		switch eff.Name {
		case "notify_lead":
			middleware.RecordNotification(eff.OK())
		case "schedule_followups":
			middleware.RecordFollowUp("scheduled", eff.OK())
		}
		if !eff.OK() {
			middleware.RecordEffectFailure(eff.Name)
		}
	}
}
