package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pilotscope/internal/model"
	"pilotscope/internal/service"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNormalizeCommand(t *testing.T) {
	raw := "Sure!\n```json\n{\"response\":\"ok\",\"questions\":[{\"text\":\" Q1 \",\"type\":\"multi_choice\",\"options\":[\"a\",\"b\",\"c\"],\"maxSelections\":\"2\"}]}\n```"
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	out, err := execute(t, "", "normalize", "--count", "1", path)
	require.NoError(t, err)

	var got model.QuestionSetResponse
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Questions, 1)
	assert.Equal(t, "Q1", got.Questions[0].Text)
	require.NotNil(t, got.Questions[0].MaxSelections)
	assert.Equal(t, 2, *got.Questions[0].MaxSelections)
}

func TestNormalizeCommandReportFromStdin(t *testing.T) {
	out, err := execute(t, `prefix {"executiveSummary":"Go ahead","nextSteps":["kickoff"]} suffix`, "normalize", "--type", "report")
	require.NoError(t, err)
	var got model.ReportData
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Go ahead", got.ExecutiveSummary)
}

func TestNormalizeCommandFailure(t *testing.T) {
	_, err := execute(t, `{"response":"ok","questions":[{"text":"Q","type":"multi_choice","options":["a","b","c"],"maxSelections":9}]}`, "normalize", "--count", "1", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maxSelections")

	_, err = execute(t, "{}", "normalize", "--type", "poem")
	assert.Error(t, err)
}

func TestSignCommand(t *testing.T) {
	body := `{"requestType":"generate_questions"}`
	out, err := execute(t, body, "sign", "--secret", "s3cret", "--nonce", "n-1", "--timestamp", "1700000000")
	require.NoError(t, err)

	want := service.Sign([]byte("s3cret"), "1700000000", "n-1", []byte(body))
	assert.Equal(t, "X-Signature: "+want+"\nX-Timestamp: 1700000000\nX-Nonce: n-1\n", out)
}

func TestSignCommandRequiresSecret(t *testing.T) {
	t.Setenv("HMAC_SECRET", "")
	_, err := execute(t, "{}", "sign")
	assert.Error(t, err)
}

func TestFallbackCommand(t *testing.T) {
	out, err := execute(t, "", "fallback", "--count", "3")
	require.NoError(t, err)
	var got model.QuestionSetResponse
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got.Questions, 3)

	out, err = execute(t, "", "fallback", "--type", "report")
	require.NoError(t, err)
	assert.Contains(t, out, "executiveSummary")
}
