package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-valuator/models"
)

func f(v float64) *float64 { return models.Float(v) }

func TestLowerBetter(t *testing.T) {
	tests := []struct {
		value float64
		want  int
	}{
		{10, 100},
		{15, 100},
		{15.01, 75},
		{25, 75},
		{30, 45},
		{40, 45},
		{40.5, 20},
		{-5, 100},
	}
	for _, tt := range tests {
		got := LowerBetter(f(tt.value), 15, 25, 40)
		require.NotNil(t, got)
		assert.Equal(t, tt.want, *got, "value %v", tt.value)
	}
	assert.Nil(t, LowerBetter(nil, 15, 25, 40))
}

func TestHigherBetter(t *testing.T) {
	tests := []struct {
		value float64
		want  int
	}{
		{0.30, 100},
		{0.25, 100},
		{0.20, 75},
		{0.15, 75},
		{0.10, 45},
		{0.08, 45},
		{0.01, 20},
		{-0.2, 20},
	}
	for _, tt := range tests {
		got := HigherBetter(f(tt.value), 0.08, 0.15, 0.25)
		require.NotNil(t, got)
		assert.Equal(t, tt.want, *got, "value %v", tt.value)
	}
	assert.Nil(t, HigherBetter(nil, 0.08, 0.15, 0.25))
}

func TestBetween(t *testing.T) {
	tests := []struct {
		value float64
		want  int
	}{
		{1.5, 100},
		{1.2, 100},
		{2.5, 100},
		{1.1, 75},
		{3.5, 75},
		{0.9, 45},
		{4.0, 45},
		{5.0, 45},
		{0.5, 20},
		{6.0, 20},
	}
	for _, tt := range tests {
		got := CurrentRatioBand.Score(f(tt.value))
		require.NotNil(t, got)
		assert.Equal(t, tt.want, *got, "value %v", tt.value)
	}
	assert.Nil(t, CurrentRatioBand.Score(nil))
}

func TestBandScorers_AreTotal(t *testing.T) {
	levels := map[int]bool{LevelGood: true, LevelOK: true, LevelWeak: true, LevelPoor: true}
	bands := []Band{ROEBand, NetMarginBand, FCFYieldBand, DebtToEquityBand, BetaBand, CurrentRatioBand}
	for _, p := range Policies() {
		bands = append(bands, p.PE, p.PS, p.PB)
	}

	for _, b := range bands {
		for v := -10.0; v <= 100; v += 0.25 {
			got := b.Score(f(v))
			require.NotNil(t, got)
			assert.True(t, levels[*got], "unexpected level %d for %v", *got, v)
		}
	}
}

func TestBandScorers_Monotonic(t *testing.T) {
	for _, p := range Policies() {
		prev := LevelGood + 1
		for v := 0.0; v <= 80; v += 0.5 {
			got := *p.PE.Score(f(v))
			assert.LessOrEqual(t, got, prev, "%s pe not monotonic at %v", p.Template, v)
			prev = got
		}
	}

	prev := -1
	for v := -0.1; v <= 0.5; v += 0.01 {
		got := *ROEBand.Score(f(v))
		assert.GreaterOrEqual(t, got, prev, "roe not monotonic at %v", v)
		prev = got
	}
}

func TestBands_Ordered(t *testing.T) {
	for _, b := range []Band{ROEBand, NetMarginBand, FCFYieldBand, DebtToEquityBand, BetaBand, CurrentRatioBand} {
		assert.True(t, b.Ordered())
	}
	for _, p := range Policies() {
		assert.True(t, p.PE.Ordered(), "%s pe", p.Template)
		assert.True(t, p.PS.Ordered(), "%s ps", p.Template)
		assert.True(t, p.PB.Ordered(), "%s pb", p.Template)
	}
	assert.False(t, Lower(10, 5, 20).Ordered())
	assert.False(t, Higher(0.3, 0.2, 0.1).Ordered())
}
