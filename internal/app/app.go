package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"stock-valuator/config"
	"stock-valuator/models"
	"stock-valuator/observability"
	"stock-valuator/screener"
	"stock-valuator/services"
	"stock-valuator/valuation"
)

var (
	// ErrNotConfigured is returned when no provider key is set
	ErrNotConfigured = errors.New("FMP_API_KEY is not configured")

	// ErrBusy is returned when the analysis semaphore is full
	ErrBusy = errors.New("analysis queue full, too many concurrent requests - try again later")
)

// App wires the valuation engine to the market data provider
type App struct {
	cfg         *config.Config
	fmp         services.FMPServiceInterface
	engine      *valuation.Engine
	analysisSem chan struct{}
	now         func() time.Time
}

// New creates an App. fmp may be nil for offline scoring.
func New(cfg *config.Config, fmp services.FMPServiceInterface) *App {
	opts := []valuation.Option{valuation.WithLocale(valuation.Locale(cfg.Scoring.Locale))}
	if cfg.Scoring.IncludeFCFYield {
		opts = append(opts, valuation.WithFreeCashFlowYield())
	}
	return &App{
		cfg:         cfg,
		fmp:         fmp,
		engine:      valuation.NewEngine(opts...),
		analysisSem: make(chan struct{}, cfg.AnalysisConcurrencyLimit),
		now:         time.Now,
	}
}

// HasKey reports whether the provider is usable
func (a *App) HasKey() bool {
	return a.fmp != nil && a.fmp.HasKey()
}

// AnalyzeSymbol fetches quote, profile and ratios for symbol and scores them.
// Individual fetch failures are tolerated and a symbol without any data
// scores as an empty bundle. Only when every lookup failed upstream is the
// joined error returned.
func (a *App) AnalyzeSymbol(ctx context.Context, symbol, template string) (*models.MetricsReport, error) {
	return a.analyze(ctx, symbol, template, false)
}

// analyze takes an analysis slot, failing fast with ErrBusy unless wait is
// set, in which case it queues until a slot frees or ctx ends
func (a *App) analyze(ctx context.Context, symbol, template string, wait bool) (*models.MetricsReport, error) {
	symbol = models.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, valuation.ErrInvalidSymbol
	}
	if !a.HasKey() {
		return nil, ErrNotConfigured
	}

	if wait {
		select {
		case a.analysisSem <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	} else {
		select {
		case a.analysisSem <- struct{}{}:
		default:
			return nil, ErrBusy
		}
	}
	defer func() { <-a.analysisSem }()

	metrics := observability.GetMetrics()
	metrics.RecordAnalysisRequest(symbol)
	timer := metrics.NewTimer()
	log := observability.WithSymbol(symbol)

	quote, profile, ratios, err := a.fetchAll(ctx, symbol)
	if err != nil {
		timer.ObserveAnalysis(symbol, "error")
		metrics.RecordAnalysisError(symbol, analysisErrorType(err))
		log.Warn("analysis failed", "error", err)
		return nil, err
	}

	identity := identityFrom(symbol, quote, profile)
	bundle := valuation.NormalizeBundle(rawMetricsFrom(quote, profile, ratios))

	result, err := a.Score(models.ScoreRequest{
		Identity:         identity,
		Metrics:          bundle,
		TemplateOverride: template,
	})
	if err != nil {
		timer.ObserveAnalysis(symbol, "error")
		return nil, err
	}

	timer.ObserveAnalysis(symbol, "success")
	log.Info("analysis complete",
		"template", result.Template,
		"score", result.Score,
		"coverage", result.Coverage.Filled,
		"duration_ms", timer.Duration().Milliseconds())

	return models.NewMetricsReport(identity, bundle, result, a.now()), nil
}

// fetchAll runs the three lookups concurrently, then falls back to annual
// ratios when TTM ratios are missing
func (a *App) fetchAll(ctx context.Context, symbol string) (quote, profile, ratios services.Row, err error) {
	var (
		mu   sync.Mutex
		errs []error
	)

	// Each lookup keeps its own error and returns nil, so one failure never
	// cancels the others.
	var g errgroup.Group
	fetch := func(name string, dst *services.Row, fn func(context.Context, string) (services.Row, error)) {
		g.Go(func() error {
			row, err := fn(ctx, symbol)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return nil
			}
			*dst = row
			return nil
		})
	}
	fetch("quote", &quote, a.fmp.GetQuote)
	fetch("profile", &profile, a.fmp.GetProfile)
	fetch("ratios-ttm", &ratios, a.fmp.GetRatiosTTM)
	_ = g.Wait()

	if ratios == nil {
		row, rerr := a.fmp.GetRatios(ctx, symbol)
		if rerr != nil {
			errs = append(errs, fmt.Errorf("ratios: %w", rerr))
		} else {
			ratios = row
		}
	}

	// An unknown ticker still gets a report with a null score. Only real
	// upstream failures on every lookup fail the analysis.
	if quote == nil && profile == nil && ratios == nil && !allNotFound(errs) {
		return nil, nil, nil, errors.Join(errs...)
	}
	if len(errs) > 0 {
		observability.WithSymbol(symbol).Debug("partial data", "error", errors.Join(errs...))
	}
	return quote, profile, ratios, nil
}

// Score runs the engine on a caller supplied bundle. An empty template
// override takes the configured default.
func (a *App) Score(req models.ScoreRequest) (models.ScoreResult, error) {
	if strings.TrimSpace(req.TemplateOverride) == "" {
		req.TemplateOverride = a.cfg.Scoring.DefaultTemplate
	}
	req.Identity.Symbol = models.NormalizeSymbol(req.Identity.Symbol)

	result, err := a.engine.Score(req)
	if err != nil {
		return models.ScoreResult{}, err
	}

	observability.GetMetrics().RecordScore(
		result.Template,
		string(result.Verdict.Type),
		string(result.Confidence),
		result.Score,
		result.Coverage.Ratio,
	)
	return result, nil
}

// queuedAnalyzer lets batch runs wait for analysis slots
type queuedAnalyzer struct{ app *App }

func (q queuedAnalyzer) AnalyzeSymbol(ctx context.Context, symbol, template string) (*models.MetricsReport, error) {
	return q.app.analyze(ctx, symbol, template, true)
}

// ScreenRequest selects the symbols of a screener run: an explicit list, or
// when empty, the current movers list of MoversKind
type ScreenRequest struct {
	Symbols    []string
	MoversKind models.MoverKind
	Template   string
}

// Screen scores a batch of symbols and ranks them
func (a *App) Screen(ctx context.Context, req ScreenRequest) (*models.ScreenerRun, error) {
	if !a.HasKey() {
		return nil, ErrNotConfigured
	}

	source := "symbols"
	symbols := req.Symbols
	if len(symbols) == 0 {
		kind := req.MoversKind
		if kind == "" {
			kind = models.MoversGainers
		}
		movers, err := a.fmp.GetMovers(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", kind, err)
		}
		source = "movers:" + string(kind)
		for _, m := range movers {
			if len(symbols) == a.cfg.Screener.MaxSymbols {
				break
			}
			symbols = append(symbols, m.Symbol)
		}
	}

	template := req.Template
	if strings.TrimSpace(template) == "" {
		template = a.cfg.Scoring.DefaultTemplate
	}

	return screener.NewScreener(queuedAnalyzer{a}, a.cfg.Screener).Run(ctx, source, symbols, template)
}

// Search looks up US listed symbols
func (a *App) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	if !a.HasKey() {
		return nil, ErrNotConfigured
	}
	return a.fmp.SearchSymbols(ctx, query)
}

// Quotes returns price and daily change for a list of symbols
func (a *App) Quotes(ctx context.Context, symbols []string) (map[string]models.QuoteChange, error) {
	if !a.HasKey() {
		return nil, ErrNotConfigured
	}
	return a.fmp.GetQuotes(ctx, symbols)
}

// Movers returns a market movers list
func (a *App) Movers(ctx context.Context, kind models.MoverKind) ([]models.Mover, error) {
	if !a.HasKey() {
		return nil, ErrNotConfigured
	}
	return a.fmp.GetMovers(ctx, kind)
}

// Diagnose checks the provider key with a sample quote. It never fails;
// problems are reported in the Diagnosis.
func (a *App) Diagnose(ctx context.Context) models.Diagnosis {
	d := models.Diagnosis{UpdatedAt: models.FormatUpdatedAt(a.now())}
	if !a.HasKey() {
		d.Note = "Set FMP_API_KEY (or FMP_KEY / FMP_APIKEY) and restart the server."
		return d
	}
	d.HasKey = true

	sample, err := a.fmp.Ping(ctx)
	if err != nil {
		d.Status = services.StatusCode(err)
		d.Error = err.Error()
		return d
	}
	d.OK = true
	d.Sample = sample
	return d
}

// Templates returns the scoring policies in display order
func (a *App) Templates() []valuation.Policy {
	return valuation.Policies()
}

// BreakerStatus returns the upstream circuit breaker states
func (a *App) BreakerStatus() map[string]services.CircuitBreakerStatus {
	return services.GetGlobalRegistry().Status()
}

// Now returns the app clock reading, used for updatedAt stamps
func (a *App) Now() time.Time {
	return a.now()
}

// AnalysisSemCapacity returns the capacity of the analysis semaphore (for testing)
func (a *App) AnalysisSemCapacity() int {
	return cap(a.analysisSem)
}

func allNotFound(errs []error) bool {
	for _, err := range errs {
		if !errors.Is(err, services.ErrNotFound) {
			return false
		}
	}
	return true
}

func analysisErrorType(err error) string {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return "not_found"
	case errors.Is(err, services.ErrServiceUnavailable):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	return "upstream"
}
