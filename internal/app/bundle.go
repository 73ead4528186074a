package app

import (
	"stock-valuator/models"
	"stock-valuator/services"
	"stock-valuator/valuation"
)

// identityFrom prefers the profile, then the quote, then the symbol itself
func identityFrom(symbol string, quote, profile services.Row) models.Identity {
	name := services.StringField(profile, "companyName", "name")
	if name == "" {
		name = services.StringField(quote, "name")
	}
	if name == "" {
		name = symbol
	}

	exchange := services.StringField(profile, "exchangeShortName", "exchange")
	if exchange == "" {
		exchange = services.StringField(quote, "exchange")
	}

	return models.Identity{
		Symbol:   symbol,
		Name:     name,
		Exchange: exchange,
		Sector:   services.StringField(profile, "sector"),
		Industry: services.StringField(profile, "industry"),
	}
}

// rawMetricsFrom picks every metric from its preferred source. TTM ratio
// names win over annual ones; profitability ratios are on a 0-100 scale.
func rawMetricsFrom(quote, profile, ratios services.Row) valuation.RawMetrics {
	return valuation.RawMetrics{
		Price:         valuation.First(quote["price"], profile["price"]),
		MarketCap:     valuation.First(quote["marketCap"], profile["mktCap"], profile["marketCap"]),
		YearLow:       valuation.First(quote["yearLow"], quote["yearLowPrice"]),
		YearHigh:      valuation.First(quote["yearHigh"], quote["yearHighPrice"]),
		Beta:          valuation.First(profile["beta"], quote["beta"]),
		PriceEarnings: valuation.First(ratios["priceEarningsRatioTTM"], ratios["priceEarningsRatio"], quote["pe"]),
		PriceToSales:  valuation.First(ratios["priceToSalesRatioTTM"], ratios["priceToSalesRatio"]),
		PriceToBook:   valuation.First(ratios["priceToBookRatioTTM"], ratios["priceToBookRatio"]),
		ReturnOnEquityPercent: valuation.First(
			ratios["returnOnEquityTTM"], ratios["returnOnEquity"]),
		NetMarginPercent: valuation.First(
			ratios["netProfitMarginTTM"], ratios["netProfitMargin"]),
		DebtToEquity: valuation.First(
			ratios["debtEquityRatioTTM"], ratios["debtEquityRatio"],
			ratios["debtToEquityRatioTTM"], ratios["debtToEquityRatio"]),
		CurrentRatio: valuation.First(ratios["currentRatioTTM"], ratios["currentRatio"]),
		FreeCashFlowYieldPercent: valuation.First(
			ratios["freeCashFlowYieldTTM"], ratios["freeCashFlowYield"]),
	}
}
