package model

// QuestionType tags the question variant
type QuestionType string

const (
	QuestionTypeSingleChoice QuestionType = "single_choice" // Pick one option
	QuestionTypeMultiChoice  QuestionType = "multi_choice"  // Pick up to MaxSelections options
	QuestionTypeTextInput    QuestionType = "text_input"    // Free text with a minimum length
)

// Option and length bounds shared by the normalizer, schemas and prompts
const (
	MinOptions   = 2
	MaxOptions   = 7
	MinTextInput = 5
	MaxTextInput = 150
)

// Valid reports whether t is one of the known tags
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeSingleChoice, QuestionTypeMultiChoice, QuestionTypeTextInput:
		return true
	}
	return false
}

// Question is a normalized wizard question. Fields outside the variant of Type stay zero.
type Question struct {
	Type          QuestionType `json:"type" bson:"type"`
	Text          string       `json:"text" bson:"text"`
	Options       []string     `json:"options,omitempty" bson:"options,omitempty"`             // choice types only
	MaxSelections *int         `json:"maxSelections,omitempty" bson:"maxSelections,omitempty"` // multi_choice only
	Placeholder   string       `json:"placeholder,omitempty" bson:"placeholder,omitempty"`     // text_input only
	MinLength     int          `json:"minLength,omitempty" bson:"minLength,omitempty"`         // text_input only
}

// SingleChoice builds a single_choice question
func SingleChoice(text string, options ...string) Question {
	return Question{Type: QuestionTypeSingleChoice, Text: text, Options: options}
}

// MultiChoice builds a multi_choice question; maxSelections <= 0 leaves it unset
func MultiChoice(text string, maxSelections int, options ...string) Question {
	q := Question{Type: QuestionTypeMultiChoice, Text: text, Options: options}
	if maxSelections > 0 {
		q.MaxSelections = &maxSelections
	}
	return q
}

// TextInput builds a text_input question
func TextInput(text, placeholder string, minLength int) Question {
	return Question{Type: QuestionTypeTextInput, Text: text, Placeholder: placeholder, MinLength: minLength}
}

// QuestionSetResponse is one generated question cycle
type QuestionSetResponse struct {
	Response  string     `json:"response" bson:"response"`
	Questions []Question `json:"questions" bson:"questions"`
}
