package valuation

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"stock-valuator/models"
)

// maxMagnitude bounds what is accepted as a real metric value. Anything
// larger is a provider glitch and is treated as missing.
const maxMagnitude = 1e15

var hundred = decimal.NewFromInt(100)

// Number coerces a provider value into a finite float. It returns nil for
// missing, empty, non-numeric, non-finite or out of range input.
func Number(raw any) *float64 {
	var f float64
	switch v := raw.(type) {
	case nil:
		return nil
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case *float64:
		if v == nil {
			return nil
		}
		f = *v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case decimal.Decimal:
		f = v.InexactFloat64()
	case string:
		s := strings.TrimSuffix(strings.TrimSpace(v), "%")
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > maxMagnitude {
		return nil
	}
	return &f
}

// Percent converts a 0-100 scaled provider value to a decimal fraction
func Percent(raw any) *float64 {
	n := Number(raw)
	if n == nil {
		return nil
	}
	f, _ := decimal.NewFromFloat(*n).Div(hundred).Float64()
	return &f
}

// First returns the first raw value that normalizes to a number, or nil
func First(raws ...any) any {
	for _, raw := range raws {
		if Number(raw) != nil {
			return raw
		}
	}
	return nil
}

// RawMetrics carries provider values before normalization. Fields suffixed
// with Percent are expected on a 0-100 scale.
type RawMetrics struct {
	Price                    any
	MarketCap                any
	YearLow                  any
	YearHigh                 any
	Beta                     any
	PriceEarnings            any
	PriceToSales             any
	PriceToBook              any
	ReturnOnEquityPercent    any
	NetMarginPercent         any
	DebtToEquity             any
	CurrentRatio             any
	FreeCashFlowYieldPercent any
}

// NormalizeBundle builds a MetricsBundle from raw provider values
func NormalizeBundle(raw RawMetrics) models.MetricsBundle {
	return models.MetricsBundle{
		Price:             Number(raw.Price),
		MarketCap:         Number(raw.MarketCap),
		YearLow:           Number(raw.YearLow),
		YearHigh:          Number(raw.YearHigh),
		Beta:              Number(raw.Beta),
		PriceEarnings:     Number(raw.PriceEarnings),
		PriceToSales:      Number(raw.PriceToSales),
		PriceToBook:       Number(raw.PriceToBook),
		ReturnOnEquity:    Percent(raw.ReturnOnEquityPercent),
		NetMargin:         Percent(raw.NetMarginPercent),
		DebtToEquity:      Number(raw.DebtToEquity),
		CurrentRatio:      Number(raw.CurrentRatio),
		FreeCashFlowYield: Percent(raw.FreeCashFlowYieldPercent),
	}
}

// SanitizeBundle drops non-finite and out of range values from an already
// normalized bundle. Scaling is left untouched.
func SanitizeBundle(b models.MetricsBundle) models.MetricsBundle {
	return models.MetricsBundle{
		Price:             Number(b.Price),
		MarketCap:         Number(b.MarketCap),
		YearLow:           Number(b.YearLow),
		YearHigh:          Number(b.YearHigh),
		Beta:              Number(b.Beta),
		PriceEarnings:     Number(b.PriceEarnings),
		PriceToSales:      Number(b.PriceToSales),
		PriceToBook:       Number(b.PriceToBook),
		ReturnOnEquity:    Number(b.ReturnOnEquity),
		NetMargin:         Number(b.NetMargin),
		DebtToEquity:      Number(b.DebtToEquity),
		CurrentRatio:      Number(b.CurrentRatio),
		FreeCashFlowYield: Number(b.FreeCashFlowYield),
	}
}

// BundleFromMap builds a bundle from values keyed by their JSON names.
// Values are taken as already fraction scaled; unusable ones become nil.
func BundleFromMap(m map[string]any) models.MetricsBundle {
	return models.MetricsBundle{
		Price:             Number(m["price"]),
		MarketCap:         Number(m["marketCap"]),
		YearLow:           Number(m["yearLow"]),
		YearHigh:          Number(m["yearHigh"]),
		Beta:              Number(m["beta"]),
		PriceEarnings:     Number(m["pe"]),
		PriceToSales:      Number(m["ps"]),
		PriceToBook:       Number(m["pb"]),
		ReturnOnEquity:    Number(m["roe"]),
		NetMargin:         Number(m["netMargin"]),
		DebtToEquity:      Number(m["de"]),
		CurrentRatio:      Number(m["currentRatio"]),
		FreeCashFlowYield: Number(m["fcfYield"]),
	}
}

// DecodeScoreRequest reads a caller supplied score request. Metric values
// may be numbers or numeric strings; anything else is treated as missing
// instead of failing the request.
func DecodeScoreRequest(r io.Reader) (models.ScoreRequest, error) {
	var wire struct {
		Identity         models.Identity `json:"identity"`
		Metrics          map[string]any  `json:"metrics"`
		TemplateOverride string          `json:"templateOverride"`
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&wire); err != nil {
		return models.ScoreRequest{}, fmt.Errorf("invalid score request: %w", err)
	}

	return models.ScoreRequest{
		Identity:         wire.Identity,
		Metrics:          BundleFromMap(wire.Metrics),
		TemplateOverride: wire.TemplateOverride,
	}, nil
}
