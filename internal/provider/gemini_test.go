package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pilotscope/internal/config"
	"pilotscope/internal/model"
)

type geminiServer struct {
	mu     sync.Mutex
	path   string
	apiKey string
	body   map[string]any
}

func (s *geminiServer) request() (string, string, map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path, s.apiKey, s.body
}

func newTestGemini(t *testing.T, status int, reply string) (*Gemini, *geminiServer) {
	t.Helper()
	rec := &geminiServer{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		rec.mu.Lock()
		rec.path = r.URL.Path
		rec.apiKey = r.Header.Get("x-goog-api-key")
		rec.body = body
		rec.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)

	g, err := NewGemini(context.Background(), config.GeminiConfig{
		APIKey:  "g-test",
		BaseURL: srv.URL + "/",
		Model:   "gemini-test",
	}, srv.Client())
	require.NoError(t, err)
	return g, rec
}

func questionRequest() Request {
	return Request{
		Type:          model.RequestGenerateQuestions,
		System:        "You are a scoping assistant",
		Prompt:        "Ask about invoices",
		QuestionCount: 3,
	}
}

func TestGeminiGenerate(t *testing.T) {
	reply := `{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"response\":"},{"text":"\"ok\",\"questions\":[]}"}]}}]}`
	g, srv := newTestGemini(t, http.StatusOK, reply)

	out, err := g.Generate(context.Background(), questionRequest())
	require.NoError(t, err)
	assert.Equal(t, `{"response":"ok","questions":[]}`, out, "candidate parts are concatenated")

	path, apiKey, body := srv.request()
	assert.True(t, strings.HasSuffix(path, "models/gemini-test:generateContent"), path)
	assert.Equal(t, "g-test", apiKey)

	gen, ok := body["generationConfig"].(map[string]any)
	require.True(t, ok, "generationConfig sent: %v", body)
	assert.Equal(t, "application/json", gen["responseMimeType"])
	schema, ok := gen["responseSchema"].(map[string]any)
	require.True(t, ok, "responseSchema sent for question sets")
	assert.Contains(t, schema["required"], "questions")
	assert.NotNil(t, body["systemInstruction"])
	assert.Contains(t, mustJSON(t, body["contents"]), "Ask about invoices")
}

func TestGeminiGenerateReportOmitsSchema(t *testing.T) {
	g, srv := newTestGemini(t, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"{}"}]}}]}`)

	_, err := g.Generate(context.Background(), Request{Type: model.RequestGenerateReport, Prompt: "Summarize"})
	require.NoError(t, err)
	_, _, body := srv.request()
	gen := body["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", gen["responseMimeType"])
	assert.NotContains(t, gen, "responseSchema")
}

func TestGeminiGenerateEmptyCandidates(t *testing.T) {
	for name, reply := range map[string]string{
		"no candidates": `{"candidates":[]}`,
		"blank text":    `{"candidates":[{"content":{"parts":[{"text":"  "}]}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			g, _ := newTestGemini(t, http.StatusOK, reply)
			_, err := g.Generate(context.Background(), questionRequest())
			assert.ErrorIs(t, err, ErrEmptyContent)
			var perr *Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, config.ProviderGemini, perr.Provider)
		})
	}
}

func TestGeminiGenerateAPIError(t *testing.T) {
	g, _ := newTestGemini(t, http.StatusServiceUnavailable, `{"error":{"code":503,"message":"model overloaded","status":"UNAVAILABLE"}}`)

	_, err := g.Generate(context.Background(), questionRequest())
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, config.ProviderGemini, perr.Provider)
	assert.Equal(t, http.StatusServiceUnavailable, perr.StatusCode)
	assert.False(t, errors.Is(err, ErrEmptyContent))
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
