package valuation

import "strings"

// Locale selects the language of labels and narrative text
type Locale string

const (
	LocaleES Locale = "es"
	LocaleEN Locale = "en"
)

// metricText holds the tag and pro/con templates of one metric.
// {v} is replaced by the formatted value and {t} by the template name.
type metricText struct {
	Tag string
	Pro string
	Con string
}

// Messages is a label catalog
type Messages struct {
	Attractive          string
	FairlyPriced        string
	Demanding           string
	NotAvailable        string
	AnalysisUnavailable string
	NoSignals           string
	Watch               string
	TemplateReason      string
	ValuationReason     string
	QualityReason       string
	RiskReason          string
	CoverageReason      string
	Metrics             map[Metric]metricText
}

var catalogs = map[Locale]Messages{
	LocaleES: {
		Attractive:          "Atractiva",
		FairlyPriced:        "En precio",
		Demanding:           "Exigida",
		NotAvailable:        "No disponible",
		AnalysisUnavailable: "Análisis no disponible.",
		NoSignals:           "Sin señales claras con los datos actuales.",
		Watch:               "A vigilar: ",
		TemplateReason:      "Plantilla: {t} (ajusta umbrales por sector).",
		ValuationReason:     "Valuación: {v}/100.",
		QualityReason:       "Calidad: {v}/100.",
		RiskReason:          "Riesgo: {v}/100.",
		CoverageReason:      "Cobertura de datos: {v}%.",
		Metrics: map[Metric]metricText{
			MetricPE:           {"P/E {v}", "Valuación: P/E {v} en la zona baja para {t}.", "Valuación exigida: P/E {v} alto para {t}."},
			MetricPS:           {"P/S {v}", "Ventas: P/S {v} relativamente contenido.", "Ventas: P/S {v} elevado."},
			MetricPB:           {"P/B {v}", "Balance: P/B {v} razonable.", "Balance: P/B {v} alto."},
			MetricROE:          {"ROE {v}%", "Rentabilidad: ROE {v}% sólido.", "Rentabilidad: ROE {v}% bajo."},
			MetricNetMargin:    {"Margen {v}%", "Márgenes: margen neto {v}% saludable.", "Márgenes: margen neto {v}% ajustado."},
			MetricFCFYield:     {"FCF {v}%", "Caja: rendimiento de flujo libre {v}% atractivo.", "Caja: rendimiento de flujo libre {v}% débil."},
			MetricDebtToEquity: {"D/E {v}", "Solvencia: deuda moderada (D/E {v}).", "Riesgo financiero: deuda elevada (D/E {v})."},
			MetricBeta:         {"Beta {v}", "Volatilidad: beta {v} (más defensiva).", "Volatilidad: beta {v} (más riesgosa)."},
		},
	},
	LocaleEN: {
		Attractive:          "Attractive",
		FairlyPriced:        "Fairly priced",
		Demanding:           "Demanding",
		NotAvailable:        "not available",
		AnalysisUnavailable: "Analysis not available.",
		NoSignals:           "No clear signals with the current data.",
		Watch:               "Watch: ",
		TemplateReason:      "Template: {t} (sector-adjusted thresholds).",
		ValuationReason:     "Valuation: {v}/100.",
		QualityReason:       "Quality: {v}/100.",
		RiskReason:          "Risk: {v}/100.",
		CoverageReason:      "Data coverage: {v}%.",
		Metrics: map[Metric]metricText{
			MetricPE:           {"P/E {v}", "Valuation: P/E {v} in the low zone for {t}.", "Stretched valuation: P/E {v} high for {t}."},
			MetricPS:           {"P/S {v}", "Sales: P/S {v} relatively contained.", "Sales: P/S {v} elevated."},
			MetricPB:           {"P/B {v}", "Balance sheet: P/B {v} reasonable.", "Balance sheet: P/B {v} high."},
			MetricROE:          {"ROE {v}%", "Profitability: ROE {v}% solid.", "Profitability: ROE {v}% low."},
			MetricNetMargin:    {"Margin {v}%", "Margins: net margin {v}% healthy.", "Margins: net margin {v}% thin."},
			MetricFCFYield:     {"FCF {v}%", "Cash: free cash flow yield {v}% attractive.", "Cash: free cash flow yield {v}% weak."},
			MetricDebtToEquity: {"D/E {v}", "Solvency: moderate debt (D/E {v}).", "Financial risk: high debt (D/E {v})."},
			MetricBeta:         {"Beta {v}", "Volatility: beta {v} (more defensive).", "Volatility: beta {v} (riskier)."},
		},
	},
}

// MessagesFor returns the catalog for l, falling back to Spanish
func MessagesFor(l Locale) Messages {
	if m, ok := catalogs[Locale(strings.ToLower(string(l)))]; ok {
		return m
	}
	return catalogs[LocaleES]
}

func render(format, value string, t Template) string {
	return strings.NewReplacer("{v}", value, "{t}", string(t)).Replace(format)
}
