package usecase

import (
	"context"
	"time"

	"github.com/xavierca1/leadflow/internal/entity"
)

// Turn is one message of the conversation history, in the generator's wire shape.
type Turn struct {
	Role  string     `json:"role"`
	Parts []TurnPart `json:"parts"`
}

type TurnPart struct {
	Text string `json:"text"`
}

// ReplyGenerator is the external conversational model. It returns the raw model text;
// parsing and trust decisions happen on this side.
type ReplyGenerator interface {
	Generate(ctx context.Context, history []Turn, message string) (string, error)
}

// LeadSink records a lead somewhere the dashboard can see it: the in-process store
// or a remote ingestion endpoint.
type LeadSink interface {
	RecordLead(ctx context.Context, lead *entity.Lead) (entity.IngestResult, error)
}

type LeadNotification struct {
	Candidate LeadCandidate
	Tier      entity.Tier
}

type LeadNotifier interface {
	NotifyLead(ctx context.Context, n LeadNotification) error
}

type FollowUpPublisher interface {
	PublishFollowUp(ctx context.Context, job entity.FollowUpJob, delay time.Duration) error
}

type FollowUpEmail struct {
	To      string
	Subject string
	Text    string
}

type FollowUpSender interface {
	SendFollowUp(ctx context.Context, email FollowUpEmail) error
}

// StoreSink writes leads straight into the local lead store.
type StoreSink struct {
	Repo entity.LeadRepositoryInterface
}

func (s StoreSink) RecordLead(ctx context.Context, lead *entity.Lead) (entity.IngestResult, error) {
	return s.Repo.Ingest(ctx, lead)
}
