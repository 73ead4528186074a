package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UpdatedAtLayout is the human readable timestamp used in API payloads
const UpdatedAtLayout = "02/01/2006 15:04:05"

// FormatUpdatedAt formats t for the updatedAt field
func FormatUpdatedAt(t time.Time) string {
	return t.Format(UpdatedAtLayout)
}

// Snapshot holds the market fields that are usually present on free plans
type Snapshot struct {
	MarketCap *float64 `json:"marketCap"`
	YearLow   *float64 `json:"yearLow"`
	YearHigh  *float64 `json:"yearHigh"`
	Beta      *float64 `json:"beta"`
}

// MetricsReport is the full analysis of a symbol fetched from the data provider
type MetricsReport struct {
	ID        uuid.UUID     `json:"id"`
	OK        bool          `json:"ok"`
	UpdatedAt string        `json:"updatedAt"`
	Symbol    string        `json:"symbol"`
	Name      string        `json:"name"`
	Exchange  string        `json:"exchange"`
	Sector    string        `json:"sector"`
	Industry  string        `json:"industry"`
	Price     *float64      `json:"price"`
	Snapshot  Snapshot      `json:"snapshot"`
	Metrics   MetricsBundle `json:"metrics"`
	Brief     string        `json:"brief"`
	ScoreResult
}

// NewMetricsReport assembles a report from an identity, its bundle and its score
func NewMetricsReport(identity Identity, bundle MetricsBundle, result ScoreResult, at time.Time) *MetricsReport {
	return &MetricsReport{
		ID:        uuid.New(),
		OK:        true,
		UpdatedAt: FormatUpdatedAt(at),
		Symbol:    identity.Symbol,
		Name:      identity.Name,
		Exchange:  identity.Exchange,
		Sector:    identity.Sector,
		Industry:  identity.Industry,
		Price:     bundle.Price,
		Snapshot: Snapshot{
			MarketCap: bundle.MarketCap,
			YearLow:   bundle.YearLow,
			YearHigh:  bundle.YearHigh,
			Beta:      bundle.Beta,
		},
		Metrics:     bundle,
		Brief:       result.Analysis.Summary,
		ScoreResult: result,
	}
}

// SearchResult is one symbol search hit
type SearchResult struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Currency string `json:"currency"`
}

// MoverKind selects a market movers list
type MoverKind string

const (
	MoversGainers MoverKind = "gainers"
	MoversLosers  MoverKind = "losers"
	MoversActive  MoverKind = "active"
)

// ParseMoverKind maps a query value to a list; anything unknown means gainers
func ParseMoverKind(s string) MoverKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "losers":
		return MoversLosers
	case "active", "mostactive":
		return MoversActive
	}
	return MoversGainers
}

// Mover is one entry of a gainers/losers/most-active list
type Mover struct {
	Symbol            string   `json:"symbol"`
	Name              string   `json:"name"`
	Price             *float64 `json:"price"`
	ChangesPercentage *float64 `json:"changesPercentage"`
}

// Diagnosis reports whether the data provider is reachable with the configured key
type Diagnosis struct {
	OK        bool         `json:"ok"`
	HasKey    bool         `json:"hasKey"`
	UpdatedAt string       `json:"updatedAt"`
	Sample    *QuoteSample `json:"sample,omitempty"`
	Status    int          `json:"status,omitempty"`
	Error     string       `json:"error,omitempty"`
	Note      string       `json:"note,omitempty"`
}

// QuoteSample is the single quote returned by a successful diagnosis
type QuoteSample struct {
	Symbol string   `json:"symbol"`
	Price  *float64 `json:"price"`
}

// QuoteChange is the price and daily move of one symbol in a batch quote
type QuoteChange struct {
	Price             *float64 `json:"price"`
	ChangesPercentage *float64 `json:"changesPercentage"`
}
