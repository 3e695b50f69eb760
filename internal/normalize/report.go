package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"pilotscope/internal/model"
)

// reportSchemaJSON declares the shape of every known report section. Any section may be
// missing or null; unknown sections are tolerated and dropped on decode.
const reportSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "definitions": {
    "text": {"type": ["string", "null"]},
    "list": {"type": ["array", "null"], "items": {"type": "string"}}
  },
  "properties": {
    "title":            {"$ref": "#/definitions/text"},
    "industry":         {"$ref": "#/definitions/text"},
    "executiveSummary": {"$ref": "#/definitions/text"},
    "keyFindings":      {"$ref": "#/definitions/list"},
    "businessCase": {
      "type": ["object", "null"],
      "properties": {
        "summary":  {"$ref": "#/definitions/text"},
        "benefits": {"$ref": "#/definitions/list"},
        "costs":    {"$ref": "#/definitions/list"},
        "roi":      {"$ref": "#/definitions/text"}
      }
    },
    "pilotDesign": {
      "type": ["object", "null"],
      "properties": {
        "objective":      {"$ref": "#/definitions/text"},
        "scope":          {"$ref": "#/definitions/text"},
        "duration":       {"$ref": "#/definitions/text"},
        "successMetrics": {"$ref": "#/definitions/list"},
        "phases":         {"$ref": "#/definitions/list"}
      }
    },
    "riskMitigation": {
      "type": ["object", "null"],
      "properties": {
        "summary":     {"$ref": "#/definitions/text"},
        "risks":       {"$ref": "#/definitions/list"},
        "mitigations": {"$ref": "#/definitions/list"}
      }
    },
    "nextSteps":      {"$ref": "#/definitions/list"},
    "reportFactors":  {"$ref": "#/definitions/list"},
    "recommendation": {"$ref": "#/definitions/text"}
  }
}`

var reportSchema = mustSchema(reportSchemaJSON)

func mustSchema(doc string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return s
}

// ValidateReport checks that raw is a non-null object whose known sections have the declared shapes
func ValidateReport(raw any) error {
	obj, ok := raw.(map[string]any)
	if !ok || obj == nil {
		return invalid("", "report must be a JSON object")
	}
	result, err := reportSchema.Validate(gojsonschema.NewGoLoader(obj))
	if err != nil {
		return fmt.Errorf("validate report: %w", err)
	}
	if result.Valid() {
		return nil
	}
	errs := result.Errors()
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, e.Description())
	}
	return invalid(errs[0].Field(), "%s", strings.Join(messages, "; "))
}

// IsReportData reports whether raw passes ValidateReport
func IsReportData(raw any) bool {
	return ValidateReport(raw) == nil
}

// NormalizeReport validates raw and decodes it into a ReportData
func NormalizeReport(raw any) (*model.ReportData, error) {
	if err := ValidateReport(raw); err != nil {
		return nil, err
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	var report model.ReportData
	if err := json.Unmarshal(b, &report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &report, nil
}

// DecodeReport extracts, decodes and validates a raw provider text in one call
func DecodeReport(text string) (*model.ReportData, error) {
	payload, err := Extract(text)
	if err != nil {
		return nil, err
	}
	raw, err := Decode(payload)
	if err != nil {
		return nil, err
	}
	return NormalizeReport(raw)
}
