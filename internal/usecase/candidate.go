package usecase

import "encoding/json"

// LeadCandidate is the lead the generator claims to have collected. Nothing in it is
// trusted until the completeness gate has looked at it.
type LeadCandidate struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Budget   string `json:"budget"`
	Scope    string `json:"scope"`
	Notes    string `json:"notes"`
	Priority bool   `json:"priority"`
}

// CandidateFields lists the field names a completeness rule may require.
var CandidateFields = []string{"name", "email", "phone", "address", "budget", "scope", "notes"}

// Field returns the named field and whether the name is known.
func (c *LeadCandidate) Field(name string) (string, bool) {
	switch name {
	case "name":
		return c.Name, true
	case "email":
		return c.Email, true
	case "phone":
		return c.Phone, true
	case "address":
		return c.Address, true
	case "budget":
		return c.Budget, true
	case "scope":
		return c.Scope, true
	case "notes":
		return c.Notes, true
	}
	return "", false
}

// UnmarshalJSON keeps only values of the expected JSON type. A budget sent as a bare
// number, for example, counts as absent rather than failing the whole reply.
func (c *LeadCandidate) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	str := func(key string) string {
		s, _ := raw[key].(string)
		return s
	}

	*c = LeadCandidate{
		Name:    str("name"),
		Email:   str("email"),
		Phone:   str("phone"),
		Address: str("address"),
		Budget:  str("budget"),
		Scope:   str("scope"),
		Notes:   str("notes"),
	}
	c.Priority, _ = raw["priority"].(bool)
	return nil
}
