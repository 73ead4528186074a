package models

import (
	"time"

	"github.com/google/uuid"
)

// ScreenerRunStatus represents the status of a screener run
type ScreenerRunStatus string

const (
	ScreenerRunStatusRunning   ScreenerRunStatus = "running"
	ScreenerRunStatusCompleted ScreenerRunStatus = "completed"
	ScreenerRunStatusFailed    ScreenerRunStatus = "failed"
)

// ScreenerRun is one batch scoring of a symbol list
type ScreenerRun struct {
	ID         uuid.UUID           `json:"id"`
	RunAt      time.Time           `json:"runAt"`
	UpdatedAt  string              `json:"updatedAt"`
	Source     string              `json:"source"` // "symbols" or "movers:<kind>"
	Template   string              `json:"template"`
	Candidates []ScreenerCandidate `json:"candidates"`
	TopPicks   []string            `json:"topPicks"`
	DurationMs int64               `json:"durationMs"`
	Status     ScreenerRunStatus   `json:"status"`
	Error      string              `json:"error,omitempty"`
}

// ScreenerCandidate is one symbol of a screener run and its outcome
type ScreenerCandidate struct {
	Symbol     string      `json:"symbol"`
	Name       string      `json:"name"`
	Sector     string      `json:"sector"`
	Template   string      `json:"template"`
	Score      *int        `json:"score"`
	Verdict    VerdictType `json:"verdict"`
	Confidence Confidence  `json:"confidence"`
	Coverage   float64     `json:"coverage"`
	RankScore  float64     `json:"rankScore"` // score weighted by coverage
	Analyzed   bool        `json:"analyzed"`
	Error      string      `json:"error,omitempty"`
}

// NewScreenerCandidate summarizes a report for ranking
func NewScreenerCandidate(r *MetricsReport) ScreenerCandidate {
	return ScreenerCandidate{
		Symbol:     r.Symbol,
		Name:       r.Name,
		Sector:     r.Sector,
		Template:   r.Template,
		Score:      r.Score,
		Verdict:    r.Verdict.Type,
		Confidence: r.Confidence,
		Coverage:   r.Coverage.Ratio,
		Analyzed:   true,
	}
}

// NewScreenerRun creates a new ScreenerRun with default values
func NewScreenerRun(source, template string) *ScreenerRun {
	now := time.Now()
	return &ScreenerRun{
		ID:         uuid.New(),
		RunAt:      now,
		UpdatedAt:  FormatUpdatedAt(now),
		Source:     source,
		Template:   template,
		Candidates: []ScreenerCandidate{},
		TopPicks:   []string{},
		Status:     ScreenerRunStatusRunning,
	}
}

// Complete marks the screener run as completed
func (s *ScreenerRun) Complete(durationMs int64, topPicks []string) {
	s.Status = ScreenerRunStatusCompleted
	s.DurationMs = durationMs
	s.TopPicks = topPicks
}

// Fail marks the screener run as failed with an error message
func (s *ScreenerRun) Fail(err string, durationMs int64) {
	s.Status = ScreenerRunStatusFailed
	s.Error = err
	s.DurationMs = durationMs
}

// SetCandidates sets all candidates at once
func (s *ScreenerRun) SetCandidates(candidates []ScreenerCandidate) {
	s.Candidates = candidates
}

// IsCompleted returns true if the screener run completed successfully
func (s *ScreenerRun) IsCompleted() bool {
	return s.Status == ScreenerRunStatusCompleted
}

// IsFailed returns true if the screener run failed
func (s *ScreenerRun) IsFailed() bool {
	return s.Status == ScreenerRunStatusFailed
}
