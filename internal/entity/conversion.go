package entity

import (
	"errors"
	"time"
)

var ErrNegativeRevenue = errors.New("revenue must not be negative")

type Outcome string

const (
	OutcomeWon  Outcome = "won"
	OutcomeLost Outcome = "lost"
)

func (o Outcome) Valid() bool {
	return o == OutcomeWon || o == OutcomeLost
}

// Status returns the lead status a conversion with this outcome implies.
func (o Outcome) Status() Status {
	return Status(o)
}

type Conversion struct {
	ID        int64     `json:"id" db:"id"`
	LeadID    int64     `json:"lead_id" db:"lead_id"`
	Outcome   Outcome   `json:"outcome" db:"outcome"`
	Revenue   *float64  `json:"revenue" db:"revenue"`
	CloseDate *string   `json:"close_date" db:"close_date"`
	Notes     string    `json:"notes" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type ConversionInput struct {
	LeadID    int64
	Outcome   Outcome
	Revenue   *float64
	CloseDate *string
	Notes     string
}

func (in ConversionInput) Validate() error {
	if !in.Outcome.Valid() {
		return ErrInvalidOutcome
	}
	if in.Revenue != nil && *in.Revenue < 0 {
		return ErrNegativeRevenue
	}
	return nil
}
