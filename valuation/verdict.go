package valuation

import (
	"fmt"

	"stock-valuator/models"
)

// Verdict and confidence boundaries, inclusive at the lower end
const (
	AttractiveScore = 70
	FairScore       = 45

	HighCoverage   = 0.8
	MediumCoverage = 0.55
)

// headline returns the verdict word for a score
func (m Messages) headline(score int) (models.VerdictType, string) {
	switch {
	case score >= AttractiveScore:
		return models.VerdictGood, m.Attractive
	case score >= FairScore:
		return models.VerdictMid, m.FairlyPriced
	}
	return models.VerdictBad, m.Demanding
}

// VerdictFor maps a final score to its verdict
func (m Messages) VerdictFor(score *int) models.Verdict {
	if score == nil {
		return models.Verdict{Type: models.VerdictNeutral, Label: m.NotAvailable}
	}
	tone, word := m.headline(*score)
	return models.Verdict{Type: tone, Label: fmt.Sprintf("%s · Score %d/100", word, *score)}
}

// ConfidenceFor maps a coverage ratio to a confidence rating
func ConfidenceFor(ratio float64) models.Confidence {
	switch {
	case ratio >= HighCoverage:
		return models.ConfidenceHigh
	case ratio >= MediumCoverage:
		return models.ConfidenceMedium
	}
	return models.ConfidenceLow
}

// CoverageOf counts the tracked metrics present in b
func CoverageOf(b models.MetricsBundle) models.Coverage {
	filled := 0
	for _, m := range TrackedMetrics {
		if m.Value(b) != nil {
			filled++
		}
	}
	total := len(TrackedMetrics)
	return models.Coverage{Filled: filled, Total: total, Ratio: float64(filled) / float64(total)}
}
