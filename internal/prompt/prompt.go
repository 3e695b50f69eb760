// Package prompt builds the provider instructions for each assessment request type.
package prompt

import (
	"fmt"
	"strings"

	"pilotscope/internal/apperr"
	"pilotscope/internal/model"
)

const systemPrompt = `You are a pilot-scoping consultant helping a business decide where an AI pilot
would pay off. You answer with a single JSON object and nothing else: no markdown, no prose
before or after it.`

// Prompt is the system and user text of one generation
type Prompt struct {
	System string
	User   string
}

// Input is what the caller knows about the visitor
type Input struct {
	Journey        *model.UserJourney
	Industry       string
	CustomScenario string
}

// BuildQuestions asks for the next set of exactly count questions
func BuildQuestions(in Input, count int) Prompt {
	var b strings.Builder
	writeContext(&b, in)

	fmt.Fprintf(&b, "\nGenerate exactly %d follow-up questions that narrow down the best pilot.\n", count)
	b.WriteString("Return JSON with this shape:\n")
	b.WriteString(`{"response": "one or two sentences reacting to the answers so far", "questions": [...]}`)
	b.WriteString("\n\nEach question has a \"text\" and a \"type\", which is one of:\n")
	fmt.Fprintf(&b, "- %q with \"options\": %d to %d short strings\n",
		model.QuestionTypeSingleChoice, model.MinOptions, model.MaxOptions)
	fmt.Fprintf(&b, "- %q with \"options\": %d to %d short strings and an optional integer \"maxSelections\" no larger than the option count\n",
		model.QuestionTypeMultiChoice, model.MinOptions, model.MaxOptions)
	fmt.Fprintf(&b, "- %q with a \"placeholder\" example answer and an integer \"minLength\" between %d and %d\n",
		model.QuestionTypeTextInput, model.MinTextInput, model.MaxTextInput)
	b.WriteString("Set fields that do not apply to a question's type to null.\n")
	b.WriteString("Do not repeat questions the visitor already answered.\n")

	return Prompt{System: systemPrompt, User: b.String()}
}

// BuildReport asks for the final pilot report
func BuildReport(in Input) Prompt {
	var b strings.Builder
	writeContext(&b, in)

	b.WriteString("\nWrite the pilot recommendation report as JSON with these optional fields:\n")
	b.WriteString(`{
  "title": string,
  "industry": string,
  "executiveSummary": string,
  "keyFindings": [string],
  "businessCase": {"summary": string, "benefits": [string], "costs": [string], "roi": string},
  "pilotDesign": {"objective": string, "scope": string, "duration": string, "successMetrics": [string], "phases": [string]},
  "riskMitigation": {"summary": string, "risks": [string], "mitigations": [string]},
  "nextSteps": [string],
  "reportFactors": [string],
  "recommendation": string
}`)
	b.WriteString("\nGround every statement in the visitor's answers. Keep list entries to one sentence.\n")

	return Prompt{System: systemPrompt, User: b.String()}
}

func writeContext(b *strings.Builder, in Input) {
	if industry := clean(in.Industry, model.MaxIndustryLength); industry != "" {
		fmt.Fprintf(b, "Industry: %s\n", industry)
	}
	if scenario := clean(in.CustomScenario, model.MaxCustomScenarioLength); scenario != "" {
		fmt.Fprintf(b, "Scenario described by the visitor: %s\n", scenario)
	}

	if in.Journey.Len() == 0 {
		b.WriteString("The visitor has not answered any questions yet.\n")
		return
	}
	b.WriteString("Answers so far, in order:\n")
	for i, r := range in.Journey.Responses {
		fmt.Fprintf(b, "%d. [%s] %s", i+1, clean(r.Screen, 80), clean(r.ButtonText, model.MaxButtonTextLength))
		if text := clean(r.TextInput, model.MaxTextInputLength); text != "" {
			fmt.Fprintf(b, " | wrote: %s", text)
		}
		b.WriteString("\n")
	}
}

func clean(s string, limit int) string {
	return strings.TrimSpace(apperr.Sanitize(s, limit))
}
