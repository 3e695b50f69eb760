package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"pilotscope/internal/model"
)

// ValidationError names the payload field that broke the question-set contract
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Decode parses extracted JSON keeping numbers as json.Number
func Decode(payload string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return raw, nil
}

// DecodeQuestions extracts, decodes and normalizes a raw provider text in one call
func DecodeQuestions(text string, expectedCount int) (*model.QuestionSetResponse, error) {
	payload, err := Extract(text)
	if err != nil {
		return nil, err
	}
	raw, err := Decode(payload)
	if err != nil {
		return nil, err
	}
	return NormalizeQuestions(raw, expectedCount)
}

// NormalizeQuestions validates an untyped payload into a question set of exactly expectedCount
// questions. Checks run in a fixed order and stop at the first failure.
func NormalizeQuestions(raw any, expectedCount int) (*model.QuestionSetResponse, error) {
	if expectedCount < 0 {
		return nil, invalid("", "expected question count must not be negative, got %d", expectedCount)
	}
	obj, ok := raw.(map[string]any)
	if !ok || obj == nil {
		return nil, invalid("", "payload must be a JSON object")
	}

	response, ok := nonEmptyString(obj["response"])
	if !ok {
		return nil, invalid("response", "must be a non-empty string")
	}

	rawQuestions, ok := obj["questions"].([]any)
	if !ok {
		return nil, invalid("questions", "must be an array")
	}
	if len(rawQuestions) < expectedCount {
		return nil, invalid("questions", "expected %d questions, got %d", expectedCount, len(rawQuestions))
	}
	rawQuestions = rawQuestions[:expectedCount]

	questions := make([]model.Question, 0, expectedCount)
	for i, rq := range rawQuestions {
		q, err := normalizeQuestion(fmt.Sprintf("questions[%d]", i), rq)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}

	return &model.QuestionSetResponse{Response: response, Questions: questions}, nil
}

func normalizeQuestion(field string, raw any) (model.Question, error) {
	obj, ok := raw.(map[string]any)
	if !ok || obj == nil {
		return model.Question{}, invalid(field, "must be an object")
	}

	text, ok := nonEmptyString(obj["text"])
	if !ok {
		return model.Question{}, invalid(field+".text", "must be a non-empty string")
	}

	typeName, ok := obj["type"].(string)
	if !ok {
		return model.Question{}, invalid(field+".type", "unsupported question type %v", obj["type"])
	}

	switch model.QuestionType(strings.TrimSpace(typeName)) {
	case model.QuestionTypeTextInput:
		placeholder, ok := nonEmptyString(obj["placeholder"])
		if !ok {
			return model.Question{}, invalid(field+".placeholder", "must be a non-empty string")
		}
		minLength, err := normalizeMinLength(field+".minLength", obj["minLength"])
		if err != nil {
			return model.Question{}, err
		}
		return model.TextInput(text, placeholder, minLength), nil

	case model.QuestionTypeSingleChoice:
		options, err := normalizeOptions(field+".options", obj["options"])
		if err != nil {
			return model.Question{}, err
		}
		return model.SingleChoice(text, options...), nil

	case model.QuestionTypeMultiChoice:
		options, err := normalizeOptions(field+".options", obj["options"])
		if err != nil {
			return model.Question{}, err
		}
		q := model.MultiChoice(text, 0, options...)
		maxSel, present, err := normalizeMaxSelections(field+".maxSelections", obj["maxSelections"], len(options))
		if err != nil {
			return model.Question{}, err
		}
		if present {
			q.MaxSelections = &maxSel
		}
		return q, nil

	default:
		return model.Question{}, invalid(field+".type", "unsupported question type %q", typeName)
	}
}

func normalizeMinLength(field string, v any) (int, error) {
	if v == nil {
		return 0, invalid(field, "is required")
	}
	n, ok := coerceInt(v)
	if !ok {
		return 0, invalid(field, "must be an integer, got %s", describe(v))
	}
	if n < model.MinTextInput || n > model.MaxTextInput {
		return 0, invalid(field, "must be between %d and %d, got %d", model.MinTextInput, model.MaxTextInput, n)
	}
	return n, nil
}

func normalizeOptions(field string, v any) ([]string, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, invalid(field, "must be an array of strings")
	}
	options := make([]string, 0, len(list))
	for i, item := range list {
		s, ok := nonEmptyString(item)
		if !ok {
			return nil, invalid(fmt.Sprintf("%s[%d]", field, i), "must be a non-empty string")
		}
		options = append(options, s)
	}
	if len(options) > model.MaxOptions {
		options = options[:model.MaxOptions]
	}
	if len(options) < model.MinOptions {
		return nil, invalid(field, "needs at least %d options, got %d", model.MinOptions, len(options))
	}
	return options, nil
}

// normalizeMaxSelections treats an absent or null value as unset
func normalizeMaxSelections(field string, v any, optionCount int) (int, bool, error) {
	if v == nil {
		return 0, false, nil
	}
	n, ok := coerceInt(v)
	if !ok {
		return 0, false, invalid(field, "must be an integer, got %s", describe(v))
	}
	upper := min(optionCount, model.MaxOptions)
	if n < 1 || n > upper {
		return 0, false, invalid(field, "must be between 1 and %d, got %d", upper, n)
	}
	return n, true, nil
}

// describe renders an offending value for an error message without echoing long strings
func describe(v any) string {
	switch x := v.(type) {
	case string:
		if len(x) > 40 {
			x = x[:40] + "..."
		}
		return fmt.Sprintf("%q", x)
	case json.Number:
		return x.String()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%T", v)
		}
		s := string(b)
		if len(s) > 40 {
			s = s[:40] + "..."
		}
		return s
	}
}
