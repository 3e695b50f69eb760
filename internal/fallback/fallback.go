// Package fallback holds the static content served when generation is unavailable.
// Everything here is deterministic and needs no I/O.
package fallback

import (
	"pilotscope/internal/model"
)

const questionsResponse = "We could not personalize the next step right now, so here are our standard scoping questions."

var questionBank = []model.Question{
	model.SingleChoice("Which team would own the pilot day to day?",
		"Operations", "Customer service", "Finance", "Sales", "IT", "Other"),
	model.MultiChoice("Which outcomes matter most in the first 90 days?", 2,
		"Lower cost", "Faster turnaround", "Fewer errors", "Better customer experience", "New revenue"),
	model.TextInput("Describe the process you would like to improve.",
		"e.g. We re-key supplier invoices into two systems every week", 20),
	model.SingleChoice("How is that process handled today?",
		"Fully manual", "Spreadsheets", "Legacy software", "Partly automated"),
	model.SingleChoice("How much historical data do you have for it?",
		"None", "Less than a year", "One to three years", "More than three years"),
	model.MultiChoice("Which constraints apply to the pilot?", 3,
		"Strict data privacy", "Regulatory approval", "Limited budget", "Small team", "Tight deadline"),
	model.SingleChoice("What budget range is realistic for a first pilot?",
		"Under 10k", "10k to 50k", "50k to 150k", "Over 150k"),
	model.TextInput("How would you measure success?",
		"e.g. Cut invoice handling time by half", 10),
	model.SingleChoice("When would you like the pilot to start?",
		"This month", "Next quarter", "Within six months", "Not decided"),
	model.TextInput("Anything else we should know?",
		"e.g. We are migrating ERP next year", 5),
}

// Questions returns the first count bank questions, cycling when count exceeds the bank
func Questions(count int) *model.QuestionSetResponse {
	if count < 0 {
		count = 0
	}
	questions := make([]model.Question, 0, count)
	for i := 0; i < count; i++ {
		questions = append(questions, cloneQuestion(questionBank[i%len(questionBank)]))
	}
	return &model.QuestionSetResponse{Response: questionsResponse, Questions: questions}
}

// Report returns the generic pilot report
func Report() *model.ReportData {
	return &model.ReportData{
		Title:            "Pilot scoping summary",
		ExecutiveSummary: "Start with one well-bounded, data-rich process, run a short pilot with clear metrics and decide on scale-up from measured results.",
		KeyFindings: []string{
			"A narrow first use case lowers delivery risk.",
			"Existing process data is the strongest predictor of pilot success.",
		},
		BusinessCase: &model.BusinessCase{
			Summary:  "A focused pilot tests value before larger investment.",
			Benefits: []string{"Measured productivity gain", "Reusable data pipeline", "Team experience with AI tooling"},
			Costs:    []string{"Integration effort", "Staff time for evaluation"},
		},
		PilotDesign: &model.PilotDesign{
			Objective:      "Validate measurable improvement on one process.",
			Scope:          "One team, one process, production-like data.",
			Duration:       "8 to 12 weeks",
			SuccessMetrics: []string{"Cycle time", "Error rate", "User satisfaction"},
			Phases:         []string{"Discovery", "Build", "Measure", "Decide"},
		},
		RiskMitigation: &model.RiskMitigation{
			Risks:       []string{"Insufficient data quality", "Low adoption"},
			Mitigations: []string{"Data audit during discovery", "Involve end users from week one"},
		},
		NextSteps: []string{
			"Pick the process owner.",
			"Collect a representative data sample.",
			"Agree on success metrics and a decision date.",
		},
		Recommendation: "Run a time-boxed pilot on the highest-volume manual process.",
	}
}

// For returns the canned content for a request type
func For(t model.RequestType, count int) any {
	if t == model.RequestGenerateReport {
		return Report()
	}
	return Questions(count)
}

func cloneQuestion(q model.Question) model.Question {
	if q.Options != nil {
		q.Options = append([]string(nil), q.Options...)
	}
	if q.MaxSelections != nil {
		n := *q.MaxSelections
		q.MaxSelections = &n
	}
	return q
}
