// Package valuation turns normalized fundamentals into a 0-100
// attractiveness score with a verdict, a confidence rating and a short
// narrative. Everything here is pure and safe for concurrent use.
package valuation

import (
	"errors"
	"strings"

	"stock-valuator/models"
)

// ErrInvalidSymbol is returned for a request without a symbol
var ErrInvalidSymbol = errors.New("symbol is required")

// Engine scores metrics bundles. The zero value is not usable, see NewEngine.
type Engine struct {
	includeFCF bool
	messages   Messages
}

// Option configures an Engine
type Option func(*Engine)

// WithFreeCashFlowYield adds free cash flow yield to the quality group
func WithFreeCashFlowYield() Option {
	return func(e *Engine) { e.includeFCF = true }
}

// WithLocale sets the language of labels and narrative
func WithLocale(l Locale) Option {
	return func(e *Engine) { e.messages = MessagesFor(l) }
}

// NewEngine creates an Engine. By default it uses the Spanish catalog and
// scores quality on ROE and net margin only.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{messages: MessagesFor(LocaleES)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IncludesFreeCashFlowYield reports whether fcf yield is scored
func (e *Engine) IncludesFreeCashFlowYield() bool {
	return e.includeFCF
}

// Subscores computes the three group means for b under p
func (e *Engine) Subscores(b models.MetricsBundle, p Policy) models.Subscores {
	groups := map[Group][]*int{}
	for _, rule := range MetricRules {
		if rule.Optional && !e.includeFCF {
			continue
		}
		groups[rule.Group] = append(groups[rule.Group], rule.Band(p).Score(rule.Metric.Value(b)))
	}
	return models.Subscores{
		Valuation: groupMean(groups[GroupValuation]),
		Quality:   groupMean(groups[GroupQuality]),
		Risk:      groupMean(groups[GroupRisk]),
	}
}

// Score runs the full pipeline for one request. Missing metrics never fail
// the call; they lower the coverage and confidence instead.
func (e *Engine) Score(req models.ScoreRequest) (models.ScoreResult, error) {
	if strings.TrimSpace(req.Identity.Symbol) == "" {
		return models.ScoreResult{}, ErrInvalidSymbol
	}

	req.Metrics = SanitizeBundle(req.Metrics)

	template := SelectTemplate(req.TemplateOverride, req.Identity.Sector)
	policy := PolicyFor(template)

	subscores := e.Subscores(req.Metrics, policy)
	score := Aggregate(subscores, policy.Weights)
	coverage := CoverageOf(req.Metrics)
	n := e.narrate(req.Metrics, policy, template)

	return models.ScoreResult{
		Template:   string(template),
		Subscores:  subscores,
		Score:      score,
		Verdict:    e.messages.VerdictFor(score),
		Confidence: ConfidenceFor(coverage.Ratio),
		Coverage:   coverage,
		Reasons:    e.reasons(template, subscores, coverage),
		Tags:       capped(n.tags, MaxTags),
		Analysis: models.Analysis{
			Summary: e.summary(score, n),
			Pros:    capped(n.pros, MaxPros),
			Cons:    capped(n.cons, MaxCons),
		},
	}, nil
}
