package services

import (
	"context"

	"stock-valuator/models"
)

// FMPServiceInterface is the market data provider used by the app
type FMPServiceInterface interface {
	HasKey() bool
	GetQuote(ctx context.Context, symbol string) (Row, error)
	GetProfile(ctx context.Context, symbol string) (Row, error)
	GetRatiosTTM(ctx context.Context, symbol string) (Row, error)
	GetRatios(ctx context.Context, symbol string) (Row, error)
	GetQuotes(ctx context.Context, symbols []string) (map[string]models.QuoteChange, error)
	SearchSymbols(ctx context.Context, query string) ([]models.SearchResult, error)
	GetMovers(ctx context.Context, kind models.MoverKind) ([]models.Mover, error)
	Ping(ctx context.Context) (*models.QuoteSample, error)
}
