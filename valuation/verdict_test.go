package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stock-valuator/models"
)

func TestVerdictFor(t *testing.T) {
	m := MessagesFor(LocaleES)
	tests := []struct {
		score int
		want  models.Verdict
	}{
		{100, models.Verdict{Type: models.VerdictGood, Label: "Atractiva · Score 100/100"}},
		{70, models.Verdict{Type: models.VerdictGood, Label: "Atractiva · Score 70/100"}},
		{69, models.Verdict{Type: models.VerdictMid, Label: "En precio · Score 69/100"}},
		{45, models.Verdict{Type: models.VerdictMid, Label: "En precio · Score 45/100"}},
		{44, models.Verdict{Type: models.VerdictBad, Label: "Exigida · Score 44/100"}},
		{0, models.Verdict{Type: models.VerdictBad, Label: "Exigida · Score 0/100"}},
	}
	for _, tt := range tests {
		score := tt.score
		assert.Equal(t, tt.want, m.VerdictFor(&score))
	}
	assert.Equal(t, models.Verdict{Type: models.VerdictNeutral, Label: "No disponible"}, m.VerdictFor(nil))
}

func TestConfidenceFor(t *testing.T) {
	tests := []struct {
		ratio float64
		want  models.Confidence
	}{
		{1, models.ConfidenceHigh},
		{0.8, models.ConfidenceHigh},
		{0.79, models.ConfidenceMedium},
		{0.55, models.ConfidenceMedium},
		{0.5499, models.ConfidenceLow},
		{0, models.ConfidenceLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ConfidenceFor(tt.ratio), "ratio %v", tt.ratio)
	}
}

func TestCoverageOf(t *testing.T) {
	b := models.MetricsBundle{
		PriceEarnings:     f(10),
		ReturnOnEquity:    f(0),
		Beta:              f(1),
		Price:             f(100),
		FreeCashFlowYield: f(0.04),
	}
	c := CoverageOf(b)
	assert.Equal(t, 3, c.Filled)
	assert.Equal(t, 8, c.Total)
	assert.InDelta(t, 0.375, c.Ratio, 1e-9)
}
