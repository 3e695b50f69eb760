package model

// ReportData is the generated pilot report. Every section is optional.
type ReportData struct {
	Title            string          `json:"title,omitempty" bson:"title,omitempty"`
	Industry         string          `json:"industry,omitempty" bson:"industry,omitempty"`
	ExecutiveSummary string          `json:"executiveSummary,omitempty" bson:"executiveSummary,omitempty"`
	KeyFindings      []string        `json:"keyFindings,omitempty" bson:"keyFindings,omitempty"`
	BusinessCase     *BusinessCase   `json:"businessCase,omitempty" bson:"businessCase,omitempty"`
	PilotDesign      *PilotDesign    `json:"pilotDesign,omitempty" bson:"pilotDesign,omitempty"`
	RiskMitigation   *RiskMitigation `json:"riskMitigation,omitempty" bson:"riskMitigation,omitempty"`
	NextSteps        []string        `json:"nextSteps,omitempty" bson:"nextSteps,omitempty"`
	ReportFactors    []string        `json:"reportFactors,omitempty" bson:"reportFactors,omitempty"`
	Recommendation   string          `json:"recommendation,omitempty" bson:"recommendation,omitempty"`
}

// BusinessCase summarizes why the pilot is worth running
type BusinessCase struct {
	Summary  string   `json:"summary,omitempty" bson:"summary,omitempty"`
	Benefits []string `json:"benefits,omitempty" bson:"benefits,omitempty"`
	Costs    []string `json:"costs,omitempty" bson:"costs,omitempty"`
	ROI      string   `json:"roi,omitempty" bson:"roi,omitempty"`
}

// PilotDesign describes the proposed pilot
type PilotDesign struct {
	Objective      string   `json:"objective,omitempty" bson:"objective,omitempty"`
	Scope          string   `json:"scope,omitempty" bson:"scope,omitempty"`
	Duration       string   `json:"duration,omitempty" bson:"duration,omitempty"`
	SuccessMetrics []string `json:"successMetrics,omitempty" bson:"successMetrics,omitempty"`
	Phases         []string `json:"phases,omitempty" bson:"phases,omitempty"`
}

// RiskMitigation pairs risks with their mitigations
type RiskMitigation struct {
	Summary     string   `json:"summary,omitempty" bson:"summary,omitempty"`
	Risks       []string `json:"risks,omitempty" bson:"risks,omitempty"`
	Mitigations []string `json:"mitigations,omitempty" bson:"mitigations,omitempty"`
}
