package valuation

import "stock-valuator/models"

// Weights splits the final score across the three groups
type Weights struct {
	Valuation float64 `json:"valuation"`
	Quality   float64 `json:"quality"`
	Risk      float64 `json:"risk"`
}

// Sum returns the total weight
func (w Weights) Sum() float64 {
	return w.Valuation + w.Quality + w.Risk
}

// Policy is the static scoring policy of one template
type Policy struct {
	Template Template `json:"template"`
	Weights  Weights  `json:"weights"`
	PE       Band     `json:"pe"`
	PS       Band     `json:"ps"`
	PB       Band     `json:"pb"`
}

// Template-invariant bands
var (
	ROEBand          = Higher(0.08, 0.15, 0.25)
	NetMarginBand    = Higher(0.05, 0.12, 0.20)
	FCFYieldBand     = Higher(0.01, 0.03, 0.08)
	DebtToEquityBand = Lower(0.5, 1.2, 2.5)
	BetaBand         = Lower(1.0, 1.4, 2.0)
	CurrentRatioBand = Mid(0.8, 1.0, 1.2, 2.5, 3.5, 5.0)
)

// Narrative cutoffs for leverage and volatility. These are looser than the
// scoring bands on purpose: a pro or con is only called out past them.
const (
	DebtToEquityComfortable = 0.8
	DebtToEquityStretched   = 2.0
	BetaVolatile            = 1.7
)

var policies = map[Template]Policy{
	TemplateDefault: {
		Template: TemplateDefault,
		Weights:  Weights{Valuation: 0.40, Quality: 0.35, Risk: 0.25},
		PE:       Lower(15, 25, 40),
		PS:       Lower(3, 5, 9),
		PB:       Lower(3.0, 6.0, 10.0),
	},
	TemplateTech: {
		Template: TemplateTech,
		Weights:  Weights{Valuation: 0.45, Quality: 0.40, Risk: 0.15},
		PE:       Lower(20, 32, 55),
		PS:       Lower(6, 10, 18),
		PB:       Lower(3.0, 6.0, 10.0),
	},
	TemplateBanks: {
		Template: TemplateBanks,
		Weights:  Weights{Valuation: 0.35, Quality: 0.35, Risk: 0.30},
		PE:       Lower(12, 18, 28),
		PS:       Lower(3, 5, 9),
		PB:       Lower(1.2, 2.0, 3.5),
	},
	TemplateEnergy: {
		Template: TemplateEnergy,
		Weights:  Weights{Valuation: 0.40, Quality: 0.30, Risk: 0.30},
		PE:       Lower(15, 25, 40),
		PS:       Lower(3, 5, 9),
		PB:       Lower(3.0, 6.0, 10.0),
	},
}

// PolicyFor returns the policy of t, or DEFAULT's for unknown templates
func PolicyFor(t Template) Policy {
	if p, ok := policies[t]; ok {
		return p
	}
	return policies[TemplateDefault]
}

// Policies returns every known policy in display order
func Policies() []Policy {
	out := make([]Policy, 0, len(policies))
	for _, t := range Templates() {
		out = append(out, policies[t])
	}
	return out
}

// Group is one of the three score components
type Group string

const (
	GroupValuation Group = "valuation"
	GroupQuality   Group = "quality"
	GroupRisk      Group = "risk"
)

// Metric identifies a field of the metrics bundle
type Metric string

const (
	MetricPE           Metric = "pe"
	MetricPS           Metric = "ps"
	MetricPB           Metric = "pb"
	MetricROE          Metric = "roe"
	MetricNetMargin    Metric = "netMargin"
	MetricFCFYield     Metric = "fcfYield"
	MetricDebtToEquity Metric = "de"
	MetricCurrentRatio Metric = "currentRatio"
	MetricBeta         Metric = "beta"
)

// Value reads the metric from a bundle
func (m Metric) Value(b models.MetricsBundle) *float64 {
	switch m {
	case MetricPE:
		return b.PriceEarnings
	case MetricPS:
		return b.PriceToSales
	case MetricPB:
		return b.PriceToBook
	case MetricROE:
		return b.ReturnOnEquity
	case MetricNetMargin:
		return b.NetMargin
	case MetricFCFYield:
		return b.FreeCashFlowYield
	case MetricDebtToEquity:
		return b.DebtToEquity
	case MetricCurrentRatio:
		return b.CurrentRatio
	case MetricBeta:
		return b.Beta
	}
	return nil
}

// MetricRule ties a metric to its group and band. Optional rules only take
// part when the engine enables them.
type MetricRule struct {
	Metric   Metric
	Group    Group
	Band     func(Policy) Band
	Optional bool
}

func fixed(b Band) func(Policy) Band {
	return func(Policy) Band { return b }
}

// MetricRules is the scoring table, in group order
var MetricRules = []MetricRule{
	{Metric: MetricPE, Group: GroupValuation, Band: func(p Policy) Band { return p.PE }},
	{Metric: MetricPS, Group: GroupValuation, Band: func(p Policy) Band { return p.PS }},
	{Metric: MetricPB, Group: GroupValuation, Band: func(p Policy) Band { return p.PB }},
	{Metric: MetricROE, Group: GroupQuality, Band: fixed(ROEBand)},
	{Metric: MetricNetMargin, Group: GroupQuality, Band: fixed(NetMarginBand)},
	{Metric: MetricFCFYield, Group: GroupQuality, Band: fixed(FCFYieldBand), Optional: true},
	{Metric: MetricDebtToEquity, Group: GroupRisk, Band: fixed(DebtToEquityBand)},
	{Metric: MetricCurrentRatio, Group: GroupRisk, Band: fixed(CurrentRatioBand)},
	{Metric: MetricBeta, Group: GroupRisk, Band: fixed(BetaBand)},
}

// TrackedMetrics feed the confidence rating, independent of grouping
var TrackedMetrics = []Metric{
	MetricPE, MetricPS, MetricPB, MetricROE, MetricNetMargin,
	MetricDebtToEquity, MetricCurrentRatio, MetricBeta,
}
