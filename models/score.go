package models

// TemplateAuto asks the engine to pick a template from the sector.
const TemplateAuto = "AUTO"

// ScoreRequest is the input of one scoring call
type ScoreRequest struct {
	Identity         Identity      `json:"identity"`
	Metrics          MetricsBundle `json:"metrics"`
	TemplateOverride string        `json:"templateOverride"`
}

// VerdictType is the qualitative tone of a score
type VerdictType string

const (
	VerdictGood    VerdictType = "good"
	VerdictMid     VerdictType = "mid"
	VerdictBad     VerdictType = "bad"
	VerdictNeutral VerdictType = "neutral"
)

// Verdict pairs a tone with its display label
type Verdict struct {
	Type  VerdictType `json:"type"`
	Label string      `json:"label"`
}

// Confidence is the data-completeness rating shown next to a score.
// The wire values are fixed regardless of the label locale.
type Confidence string

const (
	ConfidenceHigh   Confidence = "Alta"
	ConfidenceMedium Confidence = "Media"
	ConfidenceLow    Confidence = "Baja"
)

// Subscores holds the group means; nil when no member metric was available
type Subscores struct {
	Valuation *float64 `json:"valuation"`
	Quality   *float64 `json:"quality"`
	Risk      *float64 `json:"risk"`
}

// Present returns how many groups have a value
func (s Subscores) Present() int {
	n := 0
	for _, v := range []*float64{s.Valuation, s.Quality, s.Risk} {
		if v != nil {
			n++
		}
	}
	return n
}

// Coverage counts the tracked metrics that were available
type Coverage struct {
	Filled int     `json:"filled"`
	Total  int     `json:"total"`
	Ratio  float64 `json:"ratio"`
}

// Analysis is the human readable part of a score
type Analysis struct {
	Summary string   `json:"summary"`
	Pros    []string `json:"pros"`
	Cons    []string `json:"cons"`
}

// ScoreResult is the output of the valuation engine. It is built fresh on
// every call and never mutated afterwards.
type ScoreResult struct {
	Template   string     `json:"template"`
	Subscores  Subscores  `json:"subscores"`
	Score      *int       `json:"score"`
	Verdict    Verdict    `json:"verdict"`
	Confidence Confidence `json:"confidence"`
	Coverage   Coverage   `json:"coverage"`
	Reasons    []string   `json:"reasons"`
	Tags       []string   `json:"tags"`
	Analysis   Analysis   `json:"analysis"`
}
