package entity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrLeadNotFound   = errors.New("lead not found")
	ErrInvalidTier    = errors.New("invalid tier")
	ErrInvalidStatus  = errors.New("invalid status")
	ErrInvalidOutcome = errors.New(`outcome must be "won" or "lost"`)
)

type Tier string

const (
	TierUnqualified Tier = "unqualified"
	TierQualified   Tier = "qualified"
	TierVIP         Tier = "vip"
)

func (t Tier) Valid() bool {
	switch t {
	case TierUnqualified, TierQualified, TierVIP:
		return true
	}
	return false
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusContacted Status = "contacted"
	StatusWon       Status = "won"
	StatusLost      Status = "lost"
	StatusRejected  Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusContacted, StatusWon, StatusLost, StatusRejected:
		return true
	}
	return false
}

const DefaultSource = "chatbot"

// Lead is one qualified or rejected enquiry. Tier is set at creation; Status moves
// through the sales pipeline afterwards.
type Lead struct {
	ID               int64     `json:"id" db:"id"`
	ClientID         string    `json:"client_id" db:"client_id"`
	Name             string    `json:"name" db:"name"`
	Email            string    `json:"email" db:"email"`
	Phone            string    `json:"phone" db:"phone"`
	Tier             Tier      `json:"tier" db:"tier"`
	ProjectType      string    `json:"project_type" db:"project_type"`
	EstimatedValue   string    `json:"estimated_value" db:"estimated_value"`
	Source           string    `json:"source" db:"source"`
	LeadSourceDetail string    `json:"lead_source_detail" db:"lead_source_detail"`
	Status           Status    `json:"status" db:"status"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// Normalize fills the defaults applied to every ingested lead: a client id, a known
// tier, a source and a status matching the tier.
func (l *Lead) Normalize() {
	if l.ClientID == "" {
		l.ClientID = uuid.New().String()
	}
	if !l.Tier.Valid() {
		l.Tier = TierUnqualified
	}
	if l.Source == "" {
		l.Source = DefaultSource
	}
	if !l.Status.Valid() {
		if l.Tier == TierUnqualified {
			l.Status = StatusRejected
		} else {
			l.Status = StatusPending
		}
	}
}

type LeadFilter struct {
	Tier   Tier
	Status Status
}

func (f LeadFilter) Match(l Lead) bool {
	if f.Tier != "" && l.Tier != f.Tier {
		return false
	}
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	return true
}

// LeadPatch holds the fields an operator may change after creation. Nil means untouched.
type LeadPatch struct {
	Status         *Status `json:"status,omitempty"`
	Name           *string `json:"name,omitempty"`
	Email          *string `json:"email,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Tier           *Tier   `json:"tier,omitempty"`
	ProjectType    *string `json:"project_type,omitempty"`
	EstimatedValue *string `json:"estimated_value,omitempty"`
}

func (p LeadPatch) Validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return ErrInvalidStatus
	}
	if p.Tier != nil && !p.Tier.Valid() {
		return ErrInvalidTier
	}
	return nil
}

func (p LeadPatch) Apply(l *Lead) {
	if p.Status != nil {
		l.Status = *p.Status
	}
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Email != nil {
		l.Email = *p.Email
	}
	if p.Phone != nil {
		l.Phone = *p.Phone
	}
	if p.Tier != nil {
		l.Tier = *p.Tier
	}
	if p.ProjectType != nil {
		l.ProjectType = *p.ProjectType
	}
	if p.EstimatedValue != nil {
		l.EstimatedValue = *p.EstimatedValue
	}
}

type IngestResult struct {
	LeadID   int64  `json:"lead_id"`
	ClientID string `json:"client_id"`
	Created  bool   `json:"-"`
}

type LeadRepositoryInterface interface {
	// Ingest stores a new lead unless one with the same ClientID exists, in which case
	// the existing identity is returned untouched.
	Ingest(ctx context.Context, lead *Lead) (IngestResult, error)
	List(ctx context.Context, filter LeadFilter) ([]Lead, error)
	FindByID(ctx context.Context, id int64) (*Lead, error)
	Update(ctx context.Context, id int64, patch LeadPatch) (*Lead, error)
	RecordConversion(ctx context.Context, input ConversionInput) (*Conversion, error)
	// ListConversions returns conversions newest first; leadID 0 lists all of them.
	ListConversions(ctx context.Context, leadID int64) ([]Conversion, error)
	// Snapshot returns every lead and every conversion as of one point in time,
	// both newest first.
	Snapshot(ctx context.Context) ([]Lead, []Conversion, error)
}
