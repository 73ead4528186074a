package screener

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"stock-valuator/config"
	"stock-valuator/models"
	"stock-valuator/observability"
)

var (
	// ErrNoSymbols is returned when a run has nothing to score
	ErrNoSymbols = errors.New("no symbols to screen")

	// ErrTooManySymbols is returned when a run exceeds MaxSymbols
	ErrTooManySymbols = errors.New("too many symbols")
)

// AnalysisProvider scores one symbol
type AnalysisProvider interface {
	AnalyzeSymbol(ctx context.Context, symbol, template string) (*models.MetricsReport, error)
}

// Screener scores a list of symbols concurrently and ranks the results
type Screener struct {
	analysisProvider AnalysisProvider
	cfg              config.ScreenerConfig
}

// NewScreener creates a new Screener
func NewScreener(analysisProvider AnalysisProvider, cfg config.ScreenerConfig) *Screener {
	return &Screener{
		analysisProvider: analysisProvider,
		cfg:              cfg,
	}
}

// Run scores every symbol and returns the run with its top picks. A symbol
// that fails to analyze stays in the candidate list with its error; the run
// only fails when no symbol could be scored.
func (s *Screener) Run(ctx context.Context, source string, symbols []string, template string) (*models.ScreenerRun, error) {
	startTime := time.Now()
	run := models.NewScreenerRun(source, template)

	symbols = dedupe(symbols)
	if len(symbols) == 0 {
		run.Fail(ErrNoSymbols.Error(), 0)
		return run, ErrNoSymbols
	}
	if len(symbols) > s.cfg.MaxSymbols {
		err := fmt.Errorf("%w: %d (max %d)", ErrTooManySymbols, len(symbols), s.cfg.MaxSymbols)
		run.Fail(err.Error(), 0)
		return run, err
	}

	candidates, firstErr := s.analyzeInParallel(ctx, symbols, template)

	analyzed := 0
	for i := range candidates {
		candidates[i].RankScore = RankScore(candidates[i])
		if candidates[i].Analyzed {
			analyzed++
		}
	}
	run.SetCandidates(candidates)

	elapsed := time.Since(startTime)
	durationMs := elapsed.Milliseconds()
	if analyzed == 0 {
		run.Fail(fmt.Sprintf("no symbol could be analyzed: %v", firstErr), durationMs)
		observability.GetMetrics().RecordScreenerRun(string(run.Status), 0, elapsed)
		return run, fmt.Errorf("screener run failed: %w", firstErr)
	}

	top := RankByScore(candidates, s.cfg.TopPicksCount)
	topPicks := make([]string, 0, len(top))
	for _, c := range top {
		topPicks = append(topPicks, c.Symbol)
	}
	run.Complete(durationMs, topPicks)
	observability.GetMetrics().RecordScreenerRun(string(run.Status), analyzed, elapsed)

	observability.Info("screener run completed",
		"source", source,
		"duration_ms", durationMs,
		"candidates", len(candidates),
		"analyzed", analyzed,
		"top_picks", len(topPicks))

	return run, nil
}

// analyzeInParallel runs analysis on symbols concurrently with a semaphore
// limit. Results keep the input order.
func (s *Screener) analyzeInParallel(ctx context.Context, symbols []string, template string) ([]models.ScreenerCandidate, error) {
	analysisCtx, cancel := context.WithTimeout(ctx, s.cfg.AnalysisTimeout())
	defer cancel()

	type analysisResult struct {
		index     int
		candidate models.ScreenerCandidate
		err       error
	}

	results := make(chan analysisResult, len(symbols))
	sem := make(chan struct{}, s.cfg.MaxConcurrent)
	var wg sync.WaitGroup

	for i, symbol := range symbols {
		wg.Add(1)
		go func(idx int, symbol string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-analysisCtx.Done():
				results <- analysisResult{index: idx, candidate: failed(symbol, analysisCtx.Err()), err: analysisCtx.Err()}
				return
			}

			report, err := s.analysisProvider.AnalyzeSymbol(analysisCtx, symbol, template)
			if err != nil || report == nil {
				if err == nil {
					err = fmt.Errorf("%s: empty report", symbol)
				}
				observability.WithSymbol(symbol).Warn("analysis failed for candidate", "error", err)
				results <- analysisResult{index: idx, candidate: failed(symbol, err), err: err}
				return
			}

			results <- analysisResult{index: idx, candidate: models.NewScreenerCandidate(report)}
		}(i, symbol)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	candidates := make([]models.ScreenerCandidate, len(symbols))
	var firstErr error
	for result := range results {
		candidates[result.index] = result.candidate
		if result.err != nil && firstErr == nil {
			firstErr = result.err
		}
	}
	return candidates, firstErr
}

func failed(symbol string, err error) models.ScreenerCandidate {
	return models.ScreenerCandidate{Symbol: symbol, Error: err.Error()}
}

func dedupe(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = models.NormalizeSymbol(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
