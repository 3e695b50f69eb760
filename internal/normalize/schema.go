package normalize

import "pilotscope/internal/model"

// QuestionSetSchema is the strict JSON schema handed to providers as a structured-output hint.
// Every property is required and fields outside a question's variant are sent as null,
// which NormalizeQuestions treats as absent.
func QuestionSetSchema(count int) map[string]any {
	nullable := func(t string) map[string]any {
		return map[string]any{"type": []string{t, "null"}}
	}
	question := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"type", "text", "options", "maxSelections", "placeholder", "minLength"},
		"properties": map[string]any{
			"type": map[string]any{
				"type": "string",
				"enum": []string{
					string(model.QuestionTypeSingleChoice),
					string(model.QuestionTypeMultiChoice),
					string(model.QuestionTypeTextInput),
				},
			},
			"text": map[string]any{"type": "string"},
			"options": map[string]any{
				"type":  []string{"array", "null"},
				"items": map[string]any{"type": "string"},
			},
			"maxSelections": nullable("integer"),
			"placeholder":   nullable("string"),
			"minLength":     nullable("integer"),
		},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"response", "questions"},
		"properties": map[string]any{
			"response": map[string]any{"type": "string"},
			"questions": map[string]any{
				"type":     "array",
				"minItems": count,
				"maxItems": count,
				"items":    question,
			},
		},
	}
}
