package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"stock-valuator/config"
	"stock-valuator/internal/app"
	"stock-valuator/models"
	"stock-valuator/observability"
	"stock-valuator/screener"
	"stock-valuator/services"
	"stock-valuator/valuation"
)

const (
	maxBodyBytes  = 64 << 10
	maxQuoteBatch = 50

	msgMissingKey  = "Falta la variable de entorno FMP_API_KEY."
	hintMissingKey = "Configurala (o FMP_KEY / FMP_APIKEY) y reiniciá el servidor."
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9.-]+$`)

// Handler handles HTTP API requests
type Handler struct {
	app *app.App
	cfg *config.Config
}

// NewHandler creates a new Handler
func NewHandler(application *app.App, cfg *config.Config) *Handler {
	return &Handler{app: application, cfg: cfg}
}

// HandleHealth returns the health status of the application
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status": "ok",
		"services": map[string]string{
			"fmp": "configured",
		},
	}
	if !h.app.HasKey() {
		status["services"].(map[string]string)["fmp"] = "not_configured"
		status["status"] = "degraded"
	}

	cbStatus := h.app.BreakerStatus()
	status["circuit_breakers"] = cbStatus

	for _, cb := range cbStatus {
		if cb.State == "open" {
			status["status"] = "degraded"
			break
		}
	}

	h.jsonResponse(w, status)
}

// HandleDiagnose checks the provider key. It always answers 200; the body
// carries the outcome.
func (h *Handler) HandleDiagnose(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, h.app.Diagnose(r.Context()))
}

// HandleMetrics fetches and scores one symbol
func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	symbol := models.NormalizeSymbol(r.URL.Query().Get("symbol"))
	if symbol == "" {
		h.jsonError(w, "Falta parámetro symbol", http.StatusBadRequest)
		return
	}
	if err := h.ValidateSymbol(symbol); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	template := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("template")))
	report, err := h.app.AnalyzeSymbol(r.Context(), symbol, template)
	if err != nil {
		h.writeError(w, r, err, "Metrics error")
		return
	}

	h.jsonResponse(w, report)
}

// HandleScore runs the engine on a posted metrics bundle
func (h *Handler) HandleScore(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.jsonError(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	req, err := valuation.DecodeScoreRequest(bytes.NewReader(body))
	if err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	req.Identity.Symbol = models.NormalizeSymbol(req.Identity.Symbol)
	if err := h.ValidateSymbol(req.Identity.Symbol); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.app.Score(req)
	if err != nil {
		h.writeError(w, r, err, "Score error")
		return
	}

	h.jsonResponse(w, ScoreResponse{OK: true, UpdatedAt: h.updatedAt(), ScoreResult: result})
}

// HandleTemplates lists the scoring policies
func (h *Handler) HandleTemplates(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, TemplatesResponse{
		OK:        true,
		Auto:      models.TemplateAuto,
		Templates: h.app.Templates(),
	})
}

// HandleSearch looks up symbols by name or ticker
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		query = strings.TrimSpace(r.URL.Query().Get("q"))
	}

	results, err := h.app.Search(r.Context(), query)
	if err != nil {
		h.writeError(w, r, err, "Search error")
		return
	}

	h.jsonResponse(w, SearchResponse{OK: true, UpdatedAt: h.updatedAt(), Results: results})
}

// HandleMovers returns the gainers, losers or most active list
func (h *Handler) HandleMovers(w http.ResponseWriter, r *http.Request) {
	kind := models.ParseMoverKind(r.URL.Query().Get("type"))

	items, err := h.app.Movers(r.Context(), kind)
	if err != nil {
		h.writeError(w, r, err, "Movers error")
		return
	}

	h.jsonResponse(w, MoversResponse{OK: true, UpdatedAt: h.updatedAt(), Type: kind, Items: items})
}

// HandleQuotes returns price and change for a comma separated symbol list
func (h *Handler) HandleQuotes(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.ParseSymbolsParam(r)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	quotes := map[string]models.QuoteChange{}
	if len(symbols) > 0 {
		quotes, err = h.app.Quotes(r.Context(), symbols)
		if err != nil {
			h.writeError(w, r, err, "Quote error")
			return
		}
	}

	h.jsonResponse(w, QuotesResponse{OK: true, UpdatedAt: h.updatedAt(), Quotes: quotes})
}

// HandleScreen scores and ranks a symbol list, or a movers list when no
// symbols are given
func (h *Handler) HandleScreen(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.ParseSymbolsParam(r)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	run, err := h.app.Screen(r.Context(), app.ScreenRequest{
		Symbols:    symbols,
		MoversKind: models.ParseMoverKind(r.URL.Query().Get("movers")),
		Template:   strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("template"))),
	})
	if err != nil {
		h.writeError(w, r, err, "Screen error")
		return
	}

	h.jsonResponse(w, ScreenResponse{OK: true, ScreenerRun: run})
}

// ValidateSymbol validates a stock symbol
func (h *Handler) ValidateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol is required")
	}

	if len(symbol) > 10 {
		return fmt.Errorf("symbol too long (max 10 characters)")
	}

	if !symbolPattern.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format (alphanumeric, dots, and dashes only)")
	}

	return nil
}

// ParseSymbolsParam splits and validates the symbols query parameter
func (h *Handler) ParseSymbolsParam(r *http.Request) ([]string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("symbols"))
	if raw == "" {
		return nil, nil
	}

	var symbols []string
	for _, part := range strings.Split(raw, ",") {
		symbol := models.NormalizeSymbol(part)
		if symbol == "" {
			continue
		}
		if err := h.ValidateSymbol(symbol); err != nil {
			return nil, fmt.Errorf("%s: %w", symbol, err)
		}
		symbols = append(symbols, symbol)
	}
	if len(symbols) > maxQuoteBatch {
		return nil, fmt.Errorf("too many symbols (max %d)", maxQuoteBatch)
	}
	return symbols, nil
}

// writeError maps app and upstream errors onto HTTP statuses. Upstream 4xx
// and 5xx codes pass through.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrNotConfigured):
		h.jsonErrorWithHint(w, msgMissingKey, hintMissingKey, http.StatusInternalServerError)
		return
	case errors.Is(err, app.ErrBusy):
		h.jsonError(w, err.Error(), http.StatusTooManyRequests)
		return
	case errors.Is(err, valuation.ErrInvalidSymbol),
		errors.Is(err, screener.ErrNoSymbols),
		errors.Is(err, screener.ErrTooManySymbols):
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, services.ErrServiceUnavailable):
		h.jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	case errors.Is(err, services.ErrNotFound):
		h.jsonError(w, err.Error(), http.StatusNotFound)
		return
	}

	status := services.StatusCode(err)
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}
	message := err.Error()
	if message == "" {
		message = fallback
	}
	observability.WithContext(r.Context()).Warn("request failed",
		"path", r.URL.Path,
		"status", status,
		"error", err)
	h.jsonError(w, message, status)
}

func (h *Handler) updatedAt() string {
	return models.FormatUpdatedAt(h.app.Now())
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	h.jsonErrorWithHint(w, message, "", status)
}

func (h *Handler) jsonErrorWithHint(w http.ResponseWriter, message, hint string, status int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Hint: hint})
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

// ScoreResponse wraps an offline score
type ScoreResponse struct {
	OK        bool   `json:"ok"`
	UpdatedAt string `json:"updatedAt"`
	models.ScoreResult
}

// TemplatesResponse lists the scoring policies
type TemplatesResponse struct {
	OK        bool               `json:"ok"`
	Auto      string             `json:"auto"`
	Templates []valuation.Policy `json:"templates"`
}

// SearchResponse wraps symbol search hits
type SearchResponse struct {
	OK        bool                  `json:"ok"`
	UpdatedAt string                `json:"updatedAt"`
	Results   []models.SearchResult `json:"results"`
}

// MoversResponse wraps a movers list
type MoversResponse struct {
	OK        bool             `json:"ok"`
	UpdatedAt string           `json:"updatedAt"`
	Type      models.MoverKind `json:"type"`
	Items     []models.Mover   `json:"items"`
}

// ScreenResponse wraps a screener run
type ScreenResponse struct {
	OK bool `json:"ok"`
	*models.ScreenerRun
}

// QuotesResponse maps symbols to their latest price and change
type QuotesResponse struct {
	OK        bool                          `json:"ok"`
	UpdatedAt string                        `json:"updatedAt"`
	Quotes    map[string]models.QuoteChange `json:"quotes"`
}
