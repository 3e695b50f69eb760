package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"pilotscope/internal/model"
)

func TestBuildQuestions(t *testing.T) {
	in := Input{
		Journey: &model.UserJourney{
			SessionID: "s",
			Responses: []model.JourneyResponse{
				{Screen: "role", ButtonText: "Operations"},
				{Screen: "pain", ButtonText: "Other", TextInput: "Invoices\nget lost\x00"},
			},
		},
		Industry:       "Logistics",
		CustomScenario: "Route planning",
	}
	p := BuildQuestions(in, 4)

	assert.NotEmpty(t, p.System)
	assert.Contains(t, p.User, "exactly 4")
	assert.Contains(t, p.User, "Industry: Logistics")
	assert.Contains(t, p.User, "Route planning")
	assert.Contains(t, p.User, "1. [role] Operations")
	assert.Contains(t, p.User, "wrote: Invoices get lost")
	assert.NotContains(t, p.User, "\x00")
	for _, tag := range []string{"single_choice", "multi_choice", "text_input"} {
		assert.Contains(t, p.User, tag)
	}
	assert.Contains(t, p.User, "between 5 and 150")
}

func TestBuildReportWithoutAnswers(t *testing.T) {
	p := BuildReport(Input{})
	assert.Contains(t, p.User, "has not answered")
	assert.Contains(t, p.User, "executiveSummary")
	assert.False(t, strings.Contains(p.User, "Industry:"))
}
