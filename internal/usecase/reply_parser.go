package usecase

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const (
	ApologyReply  = "Sorry, something went wrong on our side. Could you rephrase that?"
	FallbackReply = "Sorry, something went wrong. Please try again."
)

// replySchema is the contract the generator is prompted to follow. Only types are
// enforced; a missing message falls back to FallbackReply.
const replySchema = `{
	"type": "object",
	"properties": {
		"message":  {"type": "string"},
		"lead":     {"type": ["object", "null"]},
		"rejected": {"type": "boolean"}
	}
}`

var (
	replyValidator = mustSchema(replySchema)
	fencedBlock    = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
)

type ParsedReply struct {
	Message  string         `json:"message"`
	Lead     *LeadCandidate `json:"lead"`
	Rejected bool           `json:"rejected"`
}

// Reply returns the text to show the user.
func (p *ParsedReply) Reply() string {
	if strings.TrimSpace(p.Message) == "" {
		return FallbackReply
	}
	return p.Message
}

// ParseReply recovers the reply object from raw generator text. It tries the text as a
// whole, then the first fenced code block, then every balanced {...} span in order.
func ParseReply(raw string) (*ParsedReply, bool) {
	candidates := []string{raw}
	if m := fencedBlock.FindStringSubmatch(raw); m != nil {
		candidates = append(candidates, m[1])
	}
	candidates = append(candidates, balancedObjects(raw)...)

	for _, c := range candidates {
		if reply, ok := decodeReply(c); ok {
			return reply, true
		}
	}
	return nil, false
}

func decodeReply(text string) (*ParsedReply, bool) {
	text = strings.TrimSpace(text)
	if text == "" || !json.Valid([]byte(text)) {
		return nil, false
	}

	result, err := replyValidator.Validate(gojsonschema.NewStringLoader(text))
	if err != nil || !result.Valid() {
		return nil, false
	}

	var reply ParsedReply
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return nil, false
	}
	return &reply, true
}

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(err)
	}
	return schema
}

// balancedObjects returns every top-level {...} span of text whose braces balance,
// ignoring braces inside JSON strings.
func balancedObjects(text string) []string {
	var (
		spans    []string
		depth    int
		start    = -1
		inString bool
		escaped  bool
	)
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				spans = append(spans, text[start:i+1])
			}
		}
	}
	return spans
}
