package screener

import (
	"sort"

	"stock-valuator/models"
)

// RankScore weights a candidate's score by its data coverage, so a 90 built
// on two metrics does not outrank an 80 built on eight.
func RankScore(c models.ScreenerCandidate) float64 {
	if !c.Analyzed || c.Score == nil {
		return 0
	}
	return float64(*c.Score) * c.Coverage
}

// RankByScore sorts analyzed, scored candidates by RankScore descending and
// returns the top N. Ties keep alphabetical order.
func RankByScore(candidates []models.ScreenerCandidate, topN int) []models.ScreenerCandidate {
	scored := make([]models.ScreenerCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Analyzed && c.Score != nil {
			c.RankScore = RankScore(c)
			scored = append(scored, c)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].RankScore != scored[j].RankScore {
			return scored[i].RankScore > scored[j].RankScore
		}
		return scored[i].Symbol < scored[j].Symbol
	})

	if topN > 0 && topN < len(scored) {
		return scored[:topN]
	}
	return scored
}
