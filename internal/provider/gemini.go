package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"pilotscope/internal/config"
	"pilotscope/internal/model"
)

// Gemini generates through the Gemini API SDK
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates the SDK client. httpClient may be nil.
func NewGemini(ctx context.Context, cfg config.GeminiConfig, httpClient *http.Client) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	modelName := strings.TrimSpace(cfg.Model)
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: strings.TrimSpace(cfg.BaseURL)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{client: client, model: modelName}, nil
}

func (g *Gemini) Name() string { return config.ProviderGemini }

// Generate runs one GenerateContent call in JSON mode
func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	gc := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.4),
	}
	if req.System != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Type == model.RequestGenerateQuestions {
		gc.ResponseSchema = questionSetSchema(req.QuestionCount)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), gc)
	if err != nil {
		perr := &Error{Provider: g.Name(), Err: err}
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			perr.StatusCode = apiErr.Code
		}
		return "", perr
	}

	var sb strings.Builder
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0] != nil && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part != nil {
				sb.WriteString(part.Text)
			}
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", &Error{Provider: g.Name(), Err: ErrEmptyContent}
	}
	return sb.String(), nil
}

// questionSetSchema mirrors normalize.QuestionSetSchema in the SDK's schema type
func questionSetSchema(count int) *genai.Schema {
	n := int64(count)
	question := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"type": {
				Type: genai.TypeString,
				Enum: []string{
					string(model.QuestionTypeSingleChoice),
					string(model.QuestionTypeMultiChoice),
					string(model.QuestionTypeTextInput),
				},
			},
			"text":          {Type: genai.TypeString},
			"options":       {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Nullable: genai.Ptr(true)},
			"maxSelections": {Type: genai.TypeInteger, Nullable: genai.Ptr(true)},
			"placeholder":   {Type: genai.TypeString, Nullable: genai.Ptr(true)},
			"minLength":     {Type: genai.TypeInteger, Nullable: genai.Ptr(true)},
		},
		Required:         []string{"type", "text"},
		PropertyOrdering: []string{"type", "text", "options", "maxSelections", "placeholder", "minLength"},
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"response": {Type: genai.TypeString},
			"questions": {
				Type:     genai.TypeArray,
				Items:    question,
				MinItems: &n,
				MaxItems: &n,
			},
		},
		Required:         []string{"response", "questions"},
		PropertyOrdering: []string{"response", "questions"},
	}
}
