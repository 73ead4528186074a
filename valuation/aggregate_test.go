package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-valuator/models"
)

func TestAggregate(t *testing.T) {
	w := PolicyFor(TemplateDefault).Weights

	t.Run("no groups", func(t *testing.T) {
		assert.Nil(t, Aggregate(models.Subscores{}, w))
	})

	t.Run("single group is penalized", func(t *testing.T) {
		got := Aggregate(models.Subscores{Valuation: f(100)}, w)
		require.NotNil(t, got)
		assert.Equal(t, 92, *got)
	})

	t.Run("two groups renormalize weights", func(t *testing.T) {
		// (100*0.40 + 50*0.35) / 0.75 = 76.67
		got := Aggregate(models.Subscores{Valuation: f(100), Quality: f(50)}, w)
		require.NotNil(t, got)
		assert.Equal(t, 77, *got)
	})

	t.Run("all groups", func(t *testing.T) {
		got := Aggregate(models.Subscores{Valuation: f(75), Quality: f(75), Risk: f(75)}, w)
		require.NotNil(t, got)
		assert.Equal(t, 75, *got)
	})

	t.Run("penalty floors at zero", func(t *testing.T) {
		got := Aggregate(models.Subscores{Risk: f(5)}, w)
		require.NotNil(t, got)
		assert.Equal(t, 0, *got)
	})
}

func TestAggregate_Range(t *testing.T) {
	values := []*float64{nil, f(20), f(45), f(56.7), f(75), f(100)}
	for _, p := range Policies() {
		for _, v := range values {
			for _, q := range values {
				for _, r := range values {
					s := models.Subscores{Valuation: v, Quality: q, Risk: r}
					got := Aggregate(s, p.Weights)
					if s.Present() == 0 {
						assert.Nil(t, got)
						continue
					}
					require.NotNil(t, got)
					assert.GreaterOrEqual(t, *got, 0)
					assert.LessOrEqual(t, *got, 100)
				}
			}
		}
	}
}

func TestAggregate_PenaltyOnlyWithOneGroup(t *testing.T) {
	w := PolicyFor(TemplateTech).Weights

	one := Aggregate(models.Subscores{Quality: f(75)}, w)
	require.NotNil(t, one)
	assert.Equal(t, 75-CoveragePenalty, *one)

	two := Aggregate(models.Subscores{Quality: f(75), Risk: f(75)}, w)
	require.NotNil(t, two)
	assert.Equal(t, 75, *two)
}
