package models

import "strings"

// Identity describes the company a score is computed for.
type Identity struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
}

// NormalizeSymbol trims and upper-cases a ticker
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// MetricsBundle holds normalized fundamentals for one symbol.
// Every field is nullable: nil means unknown, never zero. Profitability and
// yield fields are decimal fractions (0.15 for 15%).
type MetricsBundle struct {
	Price             *float64 `json:"price,omitempty"`
	MarketCap         *float64 `json:"marketCap"`
	YearLow           *float64 `json:"yearLow"`
	YearHigh          *float64 `json:"yearHigh"`
	Beta              *float64 `json:"beta"`
	PriceEarnings     *float64 `json:"pe"`
	PriceToSales      *float64 `json:"ps"`
	PriceToBook       *float64 `json:"pb"`
	ReturnOnEquity    *float64 `json:"roe"`
	NetMargin         *float64 `json:"netMargin"`
	DebtToEquity      *float64 `json:"de"`
	CurrentRatio      *float64 `json:"currentRatio"`
	FreeCashFlowYield *float64 `json:"fcfYield,omitempty"`
}

// Float returns a pointer to v, for building bundles in code and tests
func Float(v float64) *float64 {
	return &v
}
