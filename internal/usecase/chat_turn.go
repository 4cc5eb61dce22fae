package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/xavierca1/leadflow/internal/entity"
)

type ChatTurnInput struct {
	Message         string `json:"message"`
	History         []Turn `json:"history"`
	LeadAlreadySent bool   `json:"leadAlreadySent"`
	RejectedLogSent bool   `json:"rejectedLogSent"`
	ConversationID  string `json:"conversationId,omitempty"`
}

type ChatTurnOutput struct {
	Reply           string `json:"reply"`
	RawResponse     string `json:"rawResponse,omitempty"`
	LeadSent        *bool  `json:"leadSent,omitempty"`
	RejectionLogged *bool  `json:"rejectionLogged,omitempty"`

	ParseFailed bool           `json:"-"`
	Effects     []EffectResult `json:"-"`
}

type ChatTurnUseCase struct {
	Generator ReplyGenerator
	Gate      *CompletenessGate
	Sink      LeadSink
	Notifier  LeadNotifier
	FollowUps *FollowUpScheduler
}

func NewChatTurnUseCase(
	generator ReplyGenerator,
	gate *CompletenessGate,
	sink LeadSink,
	notifier LeadNotifier,
	followUps *FollowUpScheduler,
) *ChatTurnUseCase {
	return &ChatTurnUseCase{
		Generator: generator,
		Gate:      gate,
		Sink:      sink,
		Notifier:  notifier,
		FollowUps: followUps,
	}
}

func (uc *ChatTurnUseCase) Execute(ctx context.Context, input ChatTurnInput) (*ChatTurnOutput, error) {
	if strings.TrimSpace(input.Message) == "" {
		return nil, &DomainError{Code: CodeValidation, Message: "message is required"}
	}

	raw, err := uc.Generator.Generate(ctx, input.History, input.Message)
	if err != nil {
		return nil, &TechnicalError{Code: CodeGeneration, Message: "failed to generate reply", Err: err}
	}

	parsed, ok := ParseReply(raw)
	if !ok {
		log.Warn().Int("raw_len", len(raw)).Msg("generator reply is not valid JSON")
		return &ChatTurnOutput{Reply: ApologyReply, RawResponse: raw, ParseFailed: true}, nil
	}

	out := &ChatTurnOutput{Reply: parsed.Reply(), RawResponse: raw}
	key := ConversationKey(input)

	if parsed.Rejected && !input.RejectedLogSent {
		rejected := &entity.Lead{
			ClientID: key + "-rejected",
			Tier:     entity.TierUnqualified,
			Source:   entity.DefaultSource,
			Status:   entity.StatusRejected,
		}
		out.Effects = append(out.Effects, uc.recordLead("log_rejection", rejected, nil).Run(ctx))
		out.RejectionLogged = boolPtr(true)
		return out, nil
	}

	if input.LeadAlreadySent || !uc.Gate.IsComplete(parsed.Lead) {
		return out, nil
	}

	candidate := *parsed.Lead
	tier := entity.TierQualified
	if candidate.Priority {
		tier = entity.TierVIP
	}

	var ingest *entity.IngestResult
	recorded := uc.recordLead("record_lead", leadFromCandidate(key, candidate, tier), &ingest).Run(ctx)
	out.Effects = append(out.Effects, recorded)

	// The store already holds this conversation's lead, so the owner was told on an
	// earlier attempt. A failed write says nothing either way and falls through.
	if recorded.OK() && ingest != nil && !ingest.Created {
		log.Info().
			Str("client_id", ingest.ClientID).
			Int64("lead_id", ingest.LeadID).
			Msg("lead already recorded, skipping notification")
		out.LeadSent = boolPtr(true)
		return out, nil
	}

	notified := Effect{
		Name:    "notify_lead",
		Timeout: NotifyTimeout,
		Fn: func(ctx context.Context) error {
			if uc.Notifier == nil {
				return errors.New("no lead notifier configured")
			}
			return uc.Notifier.NotifyLead(ctx, LeadNotification{Candidate: candidate, Tier: tier})
		},
	}.Run(ctx)
	out.Effects = append(out.Effects, notified)
	out.LeadSent = boolPtr(notified.OK())

	if notified.OK() && uc.FollowUps != nil {
		out.Effects = append(out.Effects, Effect{
			Name:    "schedule_followups",
			Timeout: ScheduleTimeout,
			Fn: func(ctx context.Context) error {
				_, err := uc.FollowUps.Schedule(ctx, FollowUpLead{
					Name:        candidate.Name,
					Email:       candidate.Email,
					ProjectType: candidate.Scope,
				}, tier)
				return err
			},
		}.Run(ctx))
	}

	log.Info().
		Str("client_id", key).
		Str("tier", string(tier)).
		Bool("lead_sent", notified.OK()).
		Msg("qualified lead processed")

	return out, nil
}

// recordLead writes lead through the sink. When result is non-nil it receives the
// sink's answer; it stays nil when no sink is configured or the write failed.
func (uc *ChatTurnUseCase) recordLead(name string, lead *entity.Lead, result **entity.IngestResult) Effect {
	return Effect{
		Name:    name,
		Timeout: SinkTimeout,
		Fn: func(ctx context.Context) error {
			if uc.Sink == nil {
				return nil
			}
			res, err := uc.Sink.RecordLead(ctx, lead)
			if err != nil {
				return err
			}
			if result != nil {
				*result = &res
			}
			return nil
		},
	}
}

func leadFromCandidate(key string, c LeadCandidate, tier entity.Tier) *entity.Lead {
	lead := &entity.Lead{
		ClientID:       key + "-lead",
		Name:           strings.TrimSpace(c.Name),
		Email:          strings.TrimSpace(c.Email),
		Phone:          strings.TrimSpace(c.Phone),
		Tier:           tier,
		ProjectType:    strings.TrimSpace(c.Scope),
		EstimatedValue: strings.TrimSpace(c.Budget),
		Source:         entity.DefaultSource,
		Status:         entity.StatusPending,
	}
	if addr := strings.TrimSpace(c.Address); addr != "" {
		lead.LeadSourceDetail = "address:" + addr
	}
	return lead
}

// ConversationKey is the store's correlation key for a conversation. Callers that do
// not send a conversationId get a fingerprint of the request, so a retried request maps
// onto the lead it already created.
func ConversationKey(input ChatTurnInput) string {
	if id := strings.TrimSpace(input.ConversationID); id != "" {
		return id
	}

	h := sha256.New()
	for _, turn := range input.History {
		h.Write([]byte(turn.Role))
		h.Write([]byte{0})
		for _, part := range turn.Parts {
			h.Write([]byte(part.Text))
			h.Write([]byte{0})
		}
		h.Write([]byte{1})
	}
	h.Write([]byte(input.Message))
	return "conv-" + hex.EncodeToString(h.Sum(nil))[:32]
}

func boolPtr(b bool) *bool {
	return &b
}
