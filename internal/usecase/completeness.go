package usecase

import (
	"fmt"
	"slices"
	"strings"
)

var DefaultRequiredFields = []string{"name", "phone", "address", "budget"}

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CompletenessGate is the server-side veto on side effects: a lead is only stored,
// mailed or followed up when every required field holds non-blank text, whatever the
// generator said about it.
type CompletenessGate struct {
	required []string
}

func NewCompletenessGate(required []string) (*CompletenessGate, error) {
	if len(required) == 0 {
		required = DefaultRequiredFields
	}

	fields := make([]string, 0, len(required))
	for _, f := range required {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if !slices.Contains(CandidateFields, f) {
			return nil, fmt.Errorf("unknown required lead field %q", f)
		}
		if !slices.Contains(fields, f) {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no required lead fields configured")
	}
	return &CompletenessGate{required: fields}, nil
}

func (g *CompletenessGate) RequiredFields() []string {
	return slices.Clone(g.required)
}

func (g *CompletenessGate) Missing(c *LeadCandidate) []ValidationError {
	var errors []ValidationError
	for _, f := range g.required {
		if c == nil {
			errors = append(errors, ValidationError{f, "is required"})
			continue
		}
		if v, _ := c.Field(f); strings.TrimSpace(v) == "" {
			errors = append(errors, ValidationError{f, "is required"})
		}
	}
	return errors
}

func (g *CompletenessGate) IsComplete(c *LeadCandidate) bool {
	return c != nil && len(g.Missing(c)) == 0
}
