package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-valuator/config"
	"stock-valuator/models"
	"stock-valuator/services"
	"stock-valuator/valuation"
)

// mockFMP implements services.FMPServiceInterface with canned rows
type mockFMP struct {
	hasKey bool

	quote, profile, ratiosTTM, ratios services.Row
	quoteErr, profileErr, ttmErr      error
	ratiosErr                         error

	search    []models.SearchResult
	movers    []models.Mover
	quotes    map[string]models.QuoteChange
	sample    *models.QuoteSample
	pingErr   error
	block     chan struct{}
	checkCtx  bool
	ratioHits atomic.Int32
}

func (m *mockFMP) HasKey() bool { return m.hasKey }

func (m *mockFMP) wait(ctx context.Context) error {
	if m.block == nil {
		return nil
	}
	select {
	case <-m.block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *mockFMP) GetQuote(ctx context.Context, _ string) (services.Row, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	return m.quote, m.quoteErr
}

func (m *mockFMP) GetProfile(ctx context.Context, _ string) (services.Row, error) {
	if m.checkCtx && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return m.profile, m.profileErr
}

func (m *mockFMP) GetRatiosTTM(ctx context.Context, _ string) (services.Row, error) {
	if m.checkCtx && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return m.ratiosTTM, m.ttmErr
}

func (m *mockFMP) GetRatios(context.Context, string) (services.Row, error) {
	m.ratioHits.Add(1)
	return m.ratios, m.ratiosErr
}

func (m *mockFMP) SearchSymbols(context.Context, string) ([]models.SearchResult, error) {
	return m.search, nil
}

func (m *mockFMP) GetQuotes(context.Context, []string) (map[string]models.QuoteChange, error) {
	return m.quotes, nil
}

func (m *mockFMP) GetMovers(context.Context, models.MoverKind) ([]models.Mover, error) {
	return m.movers, nil
}

func (m *mockFMP) Ping(context.Context) (*models.QuoteSample, error) {
	return m.sample, m.pingErr
}

func num(s string) json.Number { return json.Number(s) }

func appleRows() *mockFMP {
	return &mockFMP{
		hasKey: true,
		quote: services.Row{
			"symbol": "AAPL", "name": "Apple Inc.", "price": num("190.5"),
			"marketCap": num("2900000000000"), "yearLow": num("160"), "yearHigh": num("200"),
			"exchange": "NASDAQ",
		},
		profile: services.Row{
			"companyName": "Apple Inc", "exchangeShortName": "NASDAQ",
			"sector": "Technology", "industry": "Consumer Electronics", "beta": num("1.1"),
		},
		ratiosTTM: services.Row{
			"priceEarningsRatioTTM": num("28"),
			"priceToSalesRatioTTM":  num("8"),
			"priceToBookRatioTTM":   num("40"),
			"returnOnEquityTTM":     num("30"),
			"netProfitMarginTTM":    num("25"),
			"debtEquityRatioTTM":    num("0.2"),
			"currentRatioTTM":       num("1.5"),
		},
	}
}

// testApp creates an App with test config and a fixed clock
func testApp(fmp services.FMPServiceInterface) *App {
	a := New(config.NewTestConfig(), fmp)
	a.now = func() time.Time { return time.Date(2026, 3, 2, 15, 4, 0, 0, time.UTC) }
	return a
}

func TestNew_WithConcurrencyLimit(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.AnalysisConcurrencyLimit = 3
	a := New(cfg, nil)

	assert.Equal(t, 3, a.AnalysisSemCapacity())
	assert.False(t, a.HasKey())
}

func TestAnalyzeSymbol(t *testing.T) {
	a := testApp(appleRows())

	report, err := a.AnalyzeSymbol(context.Background(), " aapl ", "")
	require.NoError(t, err)

	assert.True(t, report.OK)
	assert.Equal(t, "AAPL", report.Symbol)
	assert.Equal(t, "Apple Inc", report.Name)
	assert.Equal(t, "NASDAQ", report.Exchange)
	assert.Equal(t, "Technology", report.Sector)
	assert.Equal(t, "TECH", report.Template)
	require.NotNil(t, report.Score)
	assert.Equal(t, 79, *report.Score)
	assert.Equal(t, models.VerdictGood, report.Verdict.Type)
	assert.InDelta(t, 0.30, *report.Metrics.ReturnOnEquity, 1e-9)
	assert.InDelta(t, 0.25, *report.Metrics.NetMargin, 1e-9)
	assert.InDelta(t, 190.5, *report.Price, 1e-9)
	assert.InDelta(t, 1.1, *report.Snapshot.Beta, 1e-9)
	assert.Equal(t, int32(0), appleRowsHits(a))
}

func appleRowsHits(a *App) int32 {
	return a.fmp.(*mockFMP).ratioHits.Load()
}

func TestAnalyzeSymbol_TemplateOverride(t *testing.T) {
	a := testApp(appleRows())

	report, err := a.AnalyzeSymbol(context.Background(), "AAPL", "banks")
	require.NoError(t, err)
	assert.Equal(t, "BANKS", report.Template)
}

func TestAnalyzeSymbol_RatiosFallback(t *testing.T) {
	fmp := appleRows()
	fmp.ratiosTTM = nil
	fmp.ttmErr = &services.APIError{Service: "fmp", StatusCode: http.StatusPaymentRequired, Message: "premium"}
	fmp.ratios = services.Row{"priceEarningsRatio": num("12"), "returnOnEquity": num("18")}
	a := testApp(fmp)

	report, err := a.AnalyzeSymbol(context.Background(), "AAPL", "")
	require.NoError(t, err)

	assert.Equal(t, int32(1), fmp.ratioHits.Load())
	require.NotNil(t, report.Metrics.PriceEarnings)
	assert.InDelta(t, 12, *report.Metrics.PriceEarnings, 1e-9)
	assert.InDelta(t, 0.18, *report.Metrics.ReturnOnEquity, 1e-9)
	assert.Nil(t, report.Metrics.PriceToSales)
}

func TestAnalyzeSymbol_PartialData(t *testing.T) {
	fmp := appleRows()
	fmp.profile = nil
	fmp.profileErr = services.ErrNotFound
	a := testApp(fmp)

	report, err := a.AnalyzeSymbol(context.Background(), "AAPL", "")
	require.NoError(t, err)

	// name falls back to the quote, sector is unknown
	assert.Equal(t, "Apple Inc.", report.Name)
	assert.Equal(t, "NASDAQ", report.Exchange)
	assert.Equal(t, "", report.Sector)
	assert.Equal(t, "DEFAULT", report.Template)
	assert.Nil(t, report.Snapshot.Beta)
}

func TestAnalyzeSymbol_AllFetchesFail(t *testing.T) {
	upstream := &services.APIError{Service: "fmp", StatusCode: http.StatusUnauthorized, Message: "Invalid API KEY"}
	fmp := &mockFMP{
		hasKey:     true,
		quoteErr:   upstream,
		profileErr: upstream,
		ttmErr:     upstream,
		ratiosErr:  upstream,
	}
	a := testApp(fmp)

	_, err := a.AnalyzeSymbol(context.Background(), "AAPL", "")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, services.StatusCode(err))
	assert.Contains(t, err.Error(), "quote")
	assert.Contains(t, err.Error(), "ratios")
}

func TestAnalyzeSymbol_UnknownSymbol(t *testing.T) {
	fmp := &mockFMP{
		hasKey:     true,
		quoteErr:   services.ErrNotFound,
		profileErr: services.ErrNotFound,
		ttmErr:     services.ErrNotFound,
		ratiosErr:  services.ErrNotFound,
	}
	a := testApp(fmp)

	report, err := a.AnalyzeSymbol(context.Background(), "nope", "")
	require.NoError(t, err)

	assert.True(t, report.OK)
	assert.Equal(t, "NOPE", report.Name)
	assert.Equal(t, "DEFAULT", report.Template)
	assert.Nil(t, report.Score)
	assert.Equal(t, models.VerdictNeutral, report.Verdict.Type)
	assert.Equal(t, models.ConfidenceLow, report.Confidence)
	assert.Equal(t, 0, report.Coverage.Filled)
}

func TestAnalyzeSymbol_OneFailedLookupKeepsOthers(t *testing.T) {
	fmp := appleRows()
	fmp.quote = nil
	fmp.quoteErr = &services.APIError{Service: "fmp", StatusCode: http.StatusBadGateway}
	fmp.checkCtx = true
	a := testApp(fmp)

	report, err := a.AnalyzeSymbol(context.Background(), "AAPL", "")
	require.NoError(t, err)

	assert.Equal(t, "Technology", report.Sector)
	require.NotNil(t, report.Score)
	assert.Nil(t, report.Price)
	assert.Equal(t, int32(0), fmp.ratioHits.Load())
}

func TestAnalyzeSymbol_Errors(t *testing.T) {
	t.Run("empty symbol", func(t *testing.T) {
		_, err := testApp(appleRows()).AnalyzeSymbol(context.Background(), "  ", "")
		assert.ErrorIs(t, err, valuation.ErrInvalidSymbol)
	})

	t.Run("no key", func(t *testing.T) {
		_, err := testApp(&mockFMP{}).AnalyzeSymbol(context.Background(), "AAPL", "")
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := testApp(nil).AnalyzeSymbol(context.Background(), "AAPL", "")
		assert.ErrorIs(t, err, ErrNotConfigured)
	})
}

func TestAnalyzeSymbol_Busy(t *testing.T) {
	fmp := appleRows()
	fmp.block = make(chan struct{})
	cfg := config.NewTestConfig()
	cfg.AnalysisConcurrencyLimit = 1
	a := New(cfg, fmp)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := a.AnalyzeSymbol(context.Background(), "AAPL", "")
		assert.NoError(t, err)
	}()

	require.Eventually(t, func() bool { return len(a.analysisSem) == 1 }, time.Second, time.Millisecond)

	_, err := a.AnalyzeSymbol(context.Background(), "MSFT", "")
	assert.ErrorIs(t, err, ErrBusy)

	close(fmp.block)
	wg.Wait()
	assert.Equal(t, 0, len(a.analysisSem))
}

func TestScore(t *testing.T) {
	a := testApp(nil)

	result, err := a.Score(models.ScoreRequest{
		Identity: models.Identity{Symbol: "jpm", Sector: "Financial Services"},
		Metrics: models.MetricsBundle{
			PriceEarnings: models.Float(11),
			PriceToBook:   models.Float(1.5),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "BANKS", result.Template)
	require.NotNil(t, result.Score)

	_, err = a.Score(models.ScoreRequest{})
	assert.ErrorIs(t, err, valuation.ErrInvalidSymbol)
}

func TestScore_ConfiguredDefaultTemplate(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.Scoring.DefaultTemplate = "ENERGY"
	a := New(cfg, nil)

	result, err := a.Score(models.ScoreRequest{
		Identity: models.Identity{Symbol: "AAPL", Sector: "Technology"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ENERGY", result.Template)

	result, err = a.Score(models.ScoreRequest{
		Identity:         models.Identity{Symbol: "AAPL", Sector: "Technology"},
		TemplateOverride: "AUTO",
	})
	require.NoError(t, err)
	assert.Equal(t, "TECH", result.Template)
}

func TestScore_EnglishLocale(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.Scoring.Locale = "en"
	a := New(cfg, nil)

	result, err := a.Score(models.ScoreRequest{Identity: models.Identity{Symbol: "X"}})
	require.NoError(t, err)
	assert.Equal(t, "not available", result.Verdict.Label)
}

func TestSearchAndMovers(t *testing.T) {
	fmp := &mockFMP{
		hasKey: true,
		search: []models.SearchResult{{Symbol: "AAPL", Name: "Apple"}},
		movers: []models.Mover{{Symbol: "NVDA"}},
		quotes: map[string]models.QuoteChange{"AAPL": {Price: models.Float(190)}},
	}
	a := testApp(fmp)

	results, err := a.Search(context.Background(), "apple")
	require.NoError(t, err)
	assert.Len(t, results, 1)

	movers, err := a.Movers(context.Background(), models.MoversGainers)
	require.NoError(t, err)
	assert.Equal(t, "NVDA", movers[0].Symbol)

	quotes, err := a.Quotes(context.Background(), []string{"AAPL"})
	require.NoError(t, err)
	assert.InDelta(t, 190, *quotes["AAPL"].Price, 1e-9)

	_, err = testApp(nil).Search(context.Background(), "apple")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = testApp(nil).Movers(context.Background(), models.MoversLosers)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestDiagnose(t *testing.T) {
	t.Run("no key", func(t *testing.T) {
		d := testApp(nil).Diagnose(context.Background())
		assert.False(t, d.OK)
		assert.False(t, d.HasKey)
		assert.NotEmpty(t, d.Note)
		assert.Equal(t, "02/03/2026 15:04:00", d.UpdatedAt)
	})

	t.Run("ok", func(t *testing.T) {
		fmp := &mockFMP{hasKey: true, sample: &models.QuoteSample{Symbol: "AAPL", Price: models.Float(190)}}
		d := testApp(fmp).Diagnose(context.Background())
		assert.True(t, d.OK)
		assert.True(t, d.HasKey)
		assert.Equal(t, "AAPL", d.Sample.Symbol)
	})

	t.Run("upstream error", func(t *testing.T) {
		fmp := &mockFMP{
			hasKey:  true,
			pingErr: &services.APIError{Service: "fmp", StatusCode: http.StatusForbidden, Message: "Limit Reach"},
		}
		d := testApp(fmp).Diagnose(context.Background())
		assert.False(t, d.OK)
		assert.True(t, d.HasKey)
		assert.Equal(t, http.StatusForbidden, d.Status)
		assert.Contains(t, d.Error, "Limit Reach")
	})
}

func TestScreen(t *testing.T) {
	t.Run("explicit symbols", func(t *testing.T) {
		a := testApp(appleRows())

		run, err := a.Screen(context.Background(), ScreenRequest{Symbols: []string{"aapl", "msft"}})
		require.NoError(t, err)

		assert.True(t, run.IsCompleted())
		assert.Equal(t, "symbols", run.Source)
		assert.Equal(t, "AUTO", run.Template)
		require.Len(t, run.Candidates, 2)
		assert.Equal(t, "TECH", run.Candidates[0].Template)
		assert.Len(t, run.TopPicks, 2)
	})

	t.Run("movers source", func(t *testing.T) {
		fmp := appleRows()
		fmp.movers = []models.Mover{{Symbol: "NVDA"}, {Symbol: "AMD"}, {Symbol: "TSLA"}}
		cfg := config.NewTestConfig()
		cfg.Screener.MaxSymbols = 2
		a := New(cfg, fmp)

		run, err := a.Screen(context.Background(), ScreenRequest{MoversKind: models.MoversActive, Template: "DEFAULT"})
		require.NoError(t, err)

		assert.Equal(t, "movers:active", run.Source)
		assert.Equal(t, "DEFAULT", run.Template)
		require.Len(t, run.Candidates, 2)
		assert.Equal(t, "NVDA", run.Candidates[0].Symbol)
	})

	t.Run("waits for busy slots", func(t *testing.T) {
		cfg := config.NewTestConfig()
		cfg.AnalysisConcurrencyLimit = 1
		cfg.Screener.MaxConcurrent = 1
		a := New(cfg, appleRows())

		run, err := a.Screen(context.Background(), ScreenRequest{Symbols: []string{"A", "B", "C"}})
		require.NoError(t, err)
		for _, c := range run.Candidates {
			assert.True(t, c.Analyzed, c.Symbol)
		}
	})

	t.Run("no key", func(t *testing.T) {
		_, err := testApp(nil).Screen(context.Background(), ScreenRequest{Symbols: []string{"AAPL"}})
		assert.ErrorIs(t, err, ErrNotConfigured)
	})
}

func TestTemplates(t *testing.T) {
	policies := testApp(nil).Templates()
	require.Len(t, policies, 4)
	assert.Equal(t, valuation.TemplateDefault, policies[0].Template)
}

func TestAnalysisErrorType(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{services.ErrNotFound, "not_found"},
		{errors.Join(errors.New("x"), services.ErrServiceUnavailable), "circuit_open"},
		{context.DeadlineExceeded, "timeout"},
		{errors.New("boom"), "upstream"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, analysisErrorType(tt.err))
	}
}
