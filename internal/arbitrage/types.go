// internal/arbitrage/types.go
package arbitrage

import (
	"time"

	"github.com/shopspring/decimal"

	"solana-arbscan/internal/pricing"
)

// Opportunity is one viable buy-low/sell-high pairing between two
// sources. Valid only with SellPrice > BuyPrice and, post-filter,
// NetProfit > 0.
type Opportunity struct {
	Pair                    pricing.TokenPair
	BuySource               string
	SellSource              string
	BuyPrice                decimal.Decimal
	SellPrice               decimal.Decimal
	Spread                  decimal.Decimal // SellPrice - BuyPrice
	SpreadPercentage        decimal.Decimal // Spread / BuyPrice
	EstimatedGrossProfit    decimal.Decimal
	PriceImpactCost         decimal.Decimal
	EstimatedGasCost        decimal.Decimal
	NetProfit               decimal.Decimal
	Confidence              float64
	RiskScore               float64
	LiquidityScore          float64
	PriceImpactTotal        decimal.Decimal
	ResponseTimeAdvantageMs int64
	MarketEfficiency        float64
	Timestamp               time.Time
	RequestID               string
}

// Metrics aggregates one analysis call.
type Metrics struct {
	ComparedPairs        int
	RawOpportunities     int
	ViableOpportunities  int
	FilteredOutliers     int
	AverageSpreadPercent decimal.Decimal
	MaxSpreadPercent     decimal.Decimal
	MarketEfficiency     float64
	DataQuality          float64 // successful / (successful + failed)
}

// AnalysisResult is the analyzer's full output: ranked opportunities,
// the snapshot they were derived from, aggregate metrics, and advisory
// warnings/recommendations.
type AnalysisResult struct {
	Opportunities   []Opportunity
	Snapshot        *pricing.PriceSnapshot
	Metrics         Metrics
	Warnings        []string
	Recommendations []string
}

// OutlierStrategy selects how statistically extreme spreads are treated.
type OutlierStrategy string

const (
	// OutlierDrop removes every opportunity beyond mean+2σ.
	OutlierDrop OutlierStrategy = "drop"
	// OutlierKeepHighConfidence keeps outliers whose confidence exceeds
	// the keep threshold, with a warning.
	OutlierKeepHighConfidence OutlierStrategy = "keep-high-confidence"
)

// Options tunes one analysis call. Start from DefaultOptions.
type Options struct {
	MinProfitThreshold         float64 // minimum spread fraction
	MaxRiskScore               float64
	IncludeGasCosts            bool
	GasCost                    decimal.Decimal // flat estimate in to-token units
	MaxPriceImpact             float64
	RequireLiquidity           bool
	EnableStatisticalFiltering bool
	OutlierStrategy            OutlierStrategy
	OutlierKeepConfidence      float64
	Weights                    ScoringWeights
}

// DefaultGasCost is a flat per-roundtrip fee estimate in to-token units.
var DefaultGasCost = decimal.NewFromFloat(0.01)

// DefaultOptions returns the standard analysis settings.
func DefaultOptions() Options {
	return Options{
		MinProfitThreshold:         0.001,
		MaxRiskScore:               0.7,
		IncludeGasCosts:            true,
		GasCost:                    DefaultGasCost,
		MaxPriceImpact:             0.02,
		RequireLiquidity:           false,
		EnableStatisticalFiltering: true,
		OutlierStrategy:            OutlierKeepHighConfidence,
		OutlierKeepConfidence:      0.8,
		Weights:                    DefaultScoringWeights(),
	}
}
