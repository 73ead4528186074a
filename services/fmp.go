package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"stock-valuator/models"
	"stock-valuator/observability"
	"stock-valuator/valuation"
)

const (
	// DefaultFMPBaseURL is the Financial Modeling Prep stable API
	DefaultFMPBaseURL = "https://financialmodelingprep.com/stable"

	// DiagnoseSymbol is quoted by Ping
	DiagnoseSymbol = "AAPL"

	// MaxSearchResults caps SearchSymbols
	MaxSearchResults = 80

	userAgent       = "stock-valuator/1.0"
	maxErrorMessage = 300
)

// Row is one object of an FMP array response. Numbers are json.Number.
type Row = map[string]any

// FMPConfig configures an FMPService
type FMPConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Retry   RetryConfig
}

// FMPService handles communication with the Financial Modeling Prep API
type FMPService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retry      RetryConfig
}

// NewFMPService creates a new FMPService instance
func NewFMPService(cfg FMPConfig) *FMPService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultFMPBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry == (RetryConfig{}) {
		cfg.Retry = DefaultRetryConfig
	}
	return &FMPService{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retry:      cfg.Retry,
	}
}

// HasKey reports whether an API key is configured
func (s *FMPService) HasKey() bool {
	return s.apiKey != ""
}

// GetQuote returns the latest quote row for symbol
func (s *FMPService) GetQuote(ctx context.Context, symbol string) (Row, error) {
	return s.first(ctx, "quote", "/quote", url.Values{"symbol": {symbol}})
}

// GetProfile returns the company profile row for symbol
func (s *FMPService) GetProfile(ctx context.Context, symbol string) (Row, error) {
	return s.first(ctx, "profile", "/profile", url.Values{"symbol": {symbol}})
}

// GetRatiosTTM returns trailing twelve month ratios for symbol
func (s *FMPService) GetRatiosTTM(ctx context.Context, symbol string) (Row, error) {
	return s.first(ctx, "ratios_ttm", "/ratios-ttm", url.Values{"symbol": {symbol}})
}

// GetRatios returns the most recent annual ratios for symbol. Plans without
// TTM access still serve this endpoint.
func (s *FMPService) GetRatios(ctx context.Context, symbol string) (Row, error) {
	return s.first(ctx, "ratios", "/ratios", url.Values{"symbol": {symbol}, "limit": {"1"}})
}

// SearchSymbols looks up US listings matching query
func (s *FMPService) SearchSymbols(ctx context.Context, query string) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.SearchResult{}, nil
	}
	rows, err := s.fetch(ctx, "search", "/search-symbol", url.Values{"query": {query}})
	if err != nil {
		return nil, err
	}
	return rankSearchResults(query, rows), nil
}

// GetMovers returns the gainers, losers or most active list
func (s *FMPService) GetMovers(ctx context.Context, kind models.MoverKind) ([]models.Mover, error) {
	rows, err := s.fetch(ctx, "movers_"+string(kind), moversPath(kind), nil)
	if err != nil {
		return nil, err
	}

	movers := make([]models.Mover, 0, len(rows))
	for _, row := range rows {
		symbol := StringField(row, "symbol")
		if symbol == "" {
			continue
		}
		movers = append(movers, models.Mover{
			Symbol:            symbol,
			Name:              StringField(row, "name", "companyName"),
			Price:             nonZero(valuation.Number(row["price"])),
			ChangesPercentage: nonZero(valuation.Number(row["changesPercentage"])),
		})
	}
	return movers, nil
}

// GetQuotes fetches several quotes in one comma separated request. Symbols
// the provider does not know are simply absent from the result.
func (s *FMPService) GetQuotes(ctx context.Context, symbols []string) (map[string]models.QuoteChange, error) {
	wanted := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if sym = models.NormalizeSymbol(sym); sym != "" {
			wanted = append(wanted, sym)
		}
	}
	quotes := make(map[string]models.QuoteChange, len(wanted))
	if len(wanted) == 0 {
		return quotes, nil
	}

	rows, err := s.fetch(ctx, "quotes", "/quote", url.Values{"symbol": {strings.Join(wanted, ",")}})
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		symbol := strings.ToUpper(StringField(row, "symbol"))
		if symbol == "" {
			continue
		}
		quotes[symbol] = models.QuoteChange{
			Price:             nonZero(valuation.Number(row["price"])),
			ChangesPercentage: nonZero(valuation.Number(row["changesPercentage"])),
		}
	}
	return quotes, nil
}

// Ping quotes DiagnoseSymbol to check the key and connectivity
func (s *FMPService) Ping(ctx context.Context) (*models.QuoteSample, error) {
	quote, err := s.GetQuote(ctx, DiagnoseSymbol)
	if err != nil {
		return nil, err
	}
	return &models.QuoteSample{
		Symbol: StringField(quote, "symbol"),
		Price:  valuation.Number(quote["price"]),
	}, nil
}

func moversPath(kind models.MoverKind) string {
	switch kind {
	case models.MoversLosers:
		return "/biggest-losers"
	case models.MoversActive:
		return "/most-actives"
	}
	return "/biggest-gainers"
}

func (s *FMPService) first(ctx context.Context, operation, path string, params url.Values) (Row, error) {
	rows, err := s.fetch(ctx, operation, path, params)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s %s: %w", operation, params.Get("symbol"), ErrNotFound)
	}
	return rows[0], nil
}

// fetch runs one GET through the breaker and retry policy and records
// external API metrics for it
func (s *FMPService) fetch(ctx context.Context, operation, path string, params url.Values) ([]Row, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerFMP, operation)
	timer := metrics.NewTimer()

	rows, err := WithCircuitBreaker(ctx, BreakerFMP, func() ([]Row, error) {
		var rows []Row
		err := WithRetry(ctx, s.retry, func() error {
			var err error
			rows, err = s.get(ctx, path, params)
			return err
		})
		return rows, err
	})

	timer.ObserveExternalAPI(BreakerFMP, operation)
	if err != nil {
		metrics.RecordExternalAPIError(BreakerFMP, operation, errorType(err))
		observability.WithService(BreakerFMP).Debug("request failed",
			"operation", operation,
			"error", err)
	}
	return rows, err
}

func (s *FMPService) get(ctx context.Context, path string, params url.Values) ([]Row, error) {
	q := url.Values{}
	for k, v := range params {
		if len(v) > 0 && v[0] != "" {
			q.Set(k, v[0])
		}
	}
	q.Set("apikey", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", path, err)
	}

	var data any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		data = nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Service: BreakerFMP, StatusCode: resp.StatusCode, Message: errorMessage(data, body)}
	}

	switch v := data.(type) {
	case []any:
		rows := make([]Row, 0, len(v))
		for _, item := range v {
			if row, ok := item.(Row); ok {
				rows = append(rows, row)
			}
		}
		return rows, nil
	case Row:
		// Some plan errors come back as 200 with an error object.
		if msg := errorMessage(v, nil); msg != "" {
			return nil, &APIError{Service: BreakerFMP, StatusCode: http.StatusForbidden, Message: msg}
		}
		return []Row{v}, nil
	}
	return nil, fmt.Errorf("unexpected %s response: %w", path, ErrNotFound)
}

// errorMessage picks the provider's error text, falling back to the raw body
func errorMessage(data any, body []byte) string {
	if row, ok := data.(Row); ok {
		if msg := StringField(row, "error", "message", "Error Message"); msg != "" {
			return msg
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage]
	}
	return msg
}

// StringField returns the first non-empty string among keys
func StringField(row Row, keys ...string) string {
	for _, k := range keys {
		switch v := row[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func nonZero(v *float64) *float64 {
	if v == nil || *v == 0 {
		return nil
	}
	return v
}

func isUSListing(row Row) bool {
	hay := strings.ToUpper(StringField(row, "exchangeShortName") + " " + StringField(row, "exchange"))
	for _, ex := range []string{"NASDAQ", "NYSE", "AMEX"} {
		if strings.Contains(hay, ex) {
			return true
		}
	}
	return false
}

// rankSearchResults keeps US listings, drops duplicate symbols and orders
// exact symbol match first, then prefix matches, then alphabetically
func rankSearchResults(query string, rows []Row) []models.SearchResult {
	wanted := strings.ToUpper(strings.TrimSpace(query))
	seen := make(map[string]bool, len(rows))
	results := make([]models.SearchResult, 0, len(rows))

	for _, row := range rows {
		symbol := strings.ToUpper(StringField(row, "symbol"))
		if symbol == "" || !isUSListing(row) || seen[symbol] {
			continue
		}
		seen[symbol] = true

		name := StringField(row, "name", "companyName")
		if name == "" {
			name = symbol
		}
		results = append(results, models.SearchResult{
			Symbol:   symbol,
			Name:     name,
			Exchange: StringField(row, "exchangeShortName", "exchange"),
			Currency: StringField(row, "currency"),
		})
	}

	rank := func(symbol string) int {
		switch {
		case symbol == wanted:
			return 0
		case strings.HasPrefix(symbol, wanted):
			return 1
		}
		return 2
	}
	sort.SliceStable(results, func(i, j int) bool {
		ri, rj := rank(results[i].Symbol), rank(results[j].Symbol)
		if ri != rj {
			return ri < rj
		}
		return results[i].Symbol < results[j].Symbol
	})

	if len(results) > MaxSearchResults {
		results = results[:MaxSearchResults]
	}
	return results
}

// Compile-time interface verification
var _ FMPServiceInterface = (*FMPService)(nil)
