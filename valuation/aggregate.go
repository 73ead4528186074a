package valuation

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"stock-valuator/models"
)

const (
	// CoveragePenalty is subtracted when the score rests on a single group
	CoveragePenalty = 8
	// minGroupsUnpenalized is the group count from which no penalty applies
	minGroupsUnpenalized = 2
)

// groupMean averages the available subscores; nil when none are available
func groupMean(scores []*int) *float64 {
	xs := make([]float64, 0, len(scores))
	for _, s := range scores {
		if s != nil {
			xs = append(xs, float64(*s))
		}
	}
	if len(xs) == 0 {
		return nil
	}
	m := stat.Mean(xs, nil)
	return &m
}

// Aggregate combines group scores with weights renormalized over the groups
// that are present, rounds, and applies the coverage penalty.
func Aggregate(s models.Subscores, w Weights) *int {
	present := s.Present()
	if present == 0 {
		return nil
	}

	var sum, denom float64
	for _, g := range []struct {
		value  *float64
		weight float64
	}{
		{s.Valuation, w.Valuation},
		{s.Quality, w.Quality},
		{s.Risk, w.Risk},
	} {
		if g.value == nil {
			continue
		}
		sum += *g.value * g.weight
		denom += g.weight
	}
	if denom <= 0 {
		return nil
	}

	score := int(math.Round(sum / denom))
	if present < minGroupsUnpenalized {
		score = max(0, score-CoveragePenalty)
	}
	score = min(100, max(0, score))
	return &score
}
