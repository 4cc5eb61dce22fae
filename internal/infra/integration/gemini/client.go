package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/xavierca1/leadflow/internal/usecase"
)

const DefaultModel = "gemini-2.0-flash"

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client produces the raw JSON-shaped reply for one conversation turn.
type Client struct {
	models       contentGenerator
	model        string
	systemPrompt string
}

func NewClient(ctx context.Context, apiKey, model, systemPrompt string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key not configured")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{models: client.Models, model: model, systemPrompt: systemPrompt}, nil
}

func (c *Client) Generate(ctx context.Context, history []usecase.Turn, message string) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		role := genai.RoleUser
		if turn.Role == string(genai.RoleModel) {
			role = genai.RoleModel
		}
		parts := make([]*genai.Part, 0, len(turn.Parts))
		for _, p := range turn.Parts {
			parts = append(parts, genai.NewPartFromText(p.Text))
		}
		contents = append(contents, genai.NewContentFromParts(parts, genai.Role(role)))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	resp, err := c.models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(c.systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}
