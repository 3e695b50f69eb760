package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"pilotscope/internal/apperr"
	"pilotscope/internal/config"
	"pilotscope/internal/model"
	"pilotscope/internal/normalize"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	maxResponseBytes     = 4 << 20
	maxErrorBodyBytes    = 4 << 10
)

// OpenAI calls the chat completions endpoint over plain HTTP
type OpenAI struct {
	APIKey  string
	BaseURL string
	Model   string
	Client  HTTPDoer
}

// NewOpenAI builds the provider; a nil client gets the traced default
func NewOpenAI(cfg config.OpenAIConfig, client HTTPDoer) (*OpenAI, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("openai model is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if client == nil {
		client = NewHTTPClient()
	}
	return &OpenAI{
		APIKey:  cfg.APIKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   cfg.Model,
		Client:  client,
	}, nil
}

func (p *OpenAI) Name() string { return config.ProviderOpenAI }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonSchemaFormat struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type responseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *jsonSchemaFormat `json:"json_schema,omitempty"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   json.RawMessage `json:"content"`
			ToolCalls []struct {
				Function struct {
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *OpenAI) buildRequest(req Request) chatRequest {
	body := chatRequest{
		Model:       p.Model,
		Temperature: 0.4,
	}
	if req.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.System})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.Prompt})

	if req.Type == model.RequestGenerateQuestions {
		body.ResponseFormat = &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaFormat{
				Name:   "question_set",
				Strict: true,
				Schema: normalize.QuestionSetSchema(req.QuestionCount),
			},
		}
	} else {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	return body
}

// Generate sends one chat completion and returns the message content
func (p *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	payload, err := json.Marshal(p.buildRequest(req))
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return "", &Error{Provider: p.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return "", &Error{
			Provider:   p.Name(),
			StatusCode: resp.StatusCode,
			Err:        errors.New(apperr.Sanitize(strings.TrimSpace(string(body)), apperr.MaxEchoLength)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &Error{Provider: p.Name(), StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &Error{Provider: p.Name(), StatusCode: resp.StatusCode, Err: fmt.Errorf("decode body: %w", err)}
	}

	content := messageContent(parsed)
	if strings.TrimSpace(content) == "" {
		return "", &Error{Provider: p.Name(), StatusCode: resp.StatusCode, Err: ErrEmptyContent}
	}
	return content, nil
}

// messageContent reads the first choice as a plain string, then as content parts, then
// as tool-call arguments
func messageContent(resp chatResponse) string {
	if len(resp.Choices) == 0 {
		return ""
	}
	msg := resp.Choices[0].Message

	if len(msg.Content) > 0 {
		var s string
		if err := json.Unmarshal(msg.Content, &s); err == nil && strings.TrimSpace(s) != "" {
			return s
		}
		var parts []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}
		if err := json.Unmarshal(msg.Content, &parts); err == nil {
			var sb strings.Builder
			for _, part := range parts {
				sb.WriteString(part.Text)
			}
			if strings.TrimSpace(sb.String()) != "" {
				return sb.String()
			}
		}
	}

	for _, call := range msg.ToolCalls {
		if strings.TrimSpace(call.Function.Arguments) != "" {
			return call.Function.Arguments
		}
	}
	return ""
}
