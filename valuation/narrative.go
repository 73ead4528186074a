package valuation

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"stock-valuator/models"
)

// Output caps
const (
	MaxPros    = 3
	MaxCons    = 3
	MaxTags    = 8
	MaxReasons = 6
)

type valueFormat int

const (
	oneDecimal valueFormat = iota
	twoDecimals
	percent
)

// exactBinary keeps every digit of a float64, so fixed rounding sees 1.005
// as the 1.00499... it really is
const exactBinary = -1100

// format rounds the exact binary value half away from zero for fixed
// places. Percent rounds v*1000 half toward +Inf, so -1.25% shows as -1.2.
func (f valueFormat) format(v float64) string {
	switch f {
	case twoDecimals:
		return decimal.NewFromFloatWithExponent(v, exactBinary).StringFixed(2)
	case percent:
		return decimal.NewFromFloat(math.Floor(v*1000+0.5) / 10).String()
	}
	return decimal.NewFromFloatWithExponent(v, exactBinary).StringFixed(1)
}

// narrativeRule decides whether a present metric is called out as a pro or
// a con. Rules are evaluated in table order, which fixes the output order.
type narrativeRule struct {
	metric   Metric
	format   valueFormat
	optional bool
	pro      func(v float64, p Policy) bool
	con      func(v float64, p Policy) bool
}

var narrativeRules = []narrativeRule{
	{
		metric: MetricPE, format: oneDecimal,
		pro: func(v float64, p Policy) bool { return v <= p.PE.Good },
		con: func(v float64, p Policy) bool { return v >= p.PE.Bad },
	},
	{
		metric: MetricPS, format: oneDecimal,
		pro: func(v float64, p Policy) bool { return v <= p.PS.Good },
		con: func(v float64, p Policy) bool { return v >= p.PS.Bad },
	},
	{
		metric: MetricPB, format: oneDecimal,
		pro: func(v float64, p Policy) bool { return v <= p.PB.Good },
		con: func(v float64, p Policy) bool { return v >= p.PB.Bad },
	},
	{
		metric: MetricROE, format: percent,
		pro: func(v float64, _ Policy) bool { return v >= ROEBand.OK },
		con: func(v float64, _ Policy) bool { return v < ROEBand.Bad },
	},
	{
		metric: MetricNetMargin, format: percent,
		pro: func(v float64, _ Policy) bool { return v >= NetMarginBand.OK },
		con: func(v float64, _ Policy) bool { return v < NetMarginBand.Bad },
	},
	{
		metric: MetricFCFYield, format: percent, optional: true,
		pro: func(v float64, _ Policy) bool { return v >= FCFYieldBand.OK },
		con: func(v float64, _ Policy) bool { return v < FCFYieldBand.Bad },
	},
	{
		metric: MetricDebtToEquity, format: twoDecimals,
		pro: func(v float64, _ Policy) bool { return v <= DebtToEquityComfortable },
		con: func(v float64, _ Policy) bool { return v >= DebtToEquityStretched },
	},
	{
		metric: MetricBeta, format: twoDecimals,
		pro: func(v float64, _ Policy) bool { return v <= BetaBand.Good },
		con: func(v float64, _ Policy) bool { return v >= BetaVolatile },
	},
}

type narrative struct {
	pros []string
	cons []string
	tags []string
}

func (e *Engine) narrate(b models.MetricsBundle, p Policy, t Template) narrative {
	n := narrative{pros: []string{}, cons: []string{}, tags: []string{}}
	for _, rule := range narrativeRules {
		if rule.optional && !e.includeFCF {
			continue
		}
		v := rule.metric.Value(b)
		if v == nil {
			continue
		}
		text := e.messages.Metrics[rule.metric]
		formatted := rule.format.format(*v)

		n.tags = append(n.tags, render(text.Tag, formatted, t))
		if rule.pro(*v, p) {
			n.pros = append(n.pros, render(text.Pro, formatted, t))
		} else if rule.con(*v, p) {
			n.cons = append(n.cons, render(text.Con, formatted, t))
		}
	}
	return n
}

func (e *Engine) reasons(t Template, s models.Subscores, c models.Coverage) []string {
	m := e.messages
	out := []string{render(m.TemplateReason, "", t)}
	for _, g := range []struct {
		value  *float64
		format string
	}{
		{s.Valuation, m.ValuationReason},
		{s.Quality, m.QualityReason},
		{s.Risk, m.RiskReason},
	} {
		if g.value != nil {
			out = append(out, render(g.format, strconv.Itoa(int(math.Round(*g.value))), t))
		}
	}
	if c.Ratio < HighCoverage {
		out = append(out, render(m.CoverageReason, strconv.Itoa(int(math.Round(c.Ratio*100))), t))
	}
	return capped(out, MaxReasons)
}

// summary is the headline, the first pro (or con) and a watch clause
func (e *Engine) summary(score *int, n narrative) string {
	m := e.messages
	head := m.AnalysisUnavailable
	if score != nil {
		_, word := m.headline(*score)
		head = word + "."
	}

	why := m.NoSignals
	switch {
	case len(n.pros) > 0:
		why = n.pros[0]
	case len(n.cons) > 0:
		why = n.cons[0]
	}

	watch := ""
	if len(n.cons) > 0 {
		watch = m.Watch + strings.TrimSuffix(n.cons[0], ".") + "."
	}
	return strings.TrimSpace(head + " " + why + " " + watch)
}

func capped(xs []string, n int) []string {
	if len(xs) > n {
		return xs[:n]
	}
	return xs
}
