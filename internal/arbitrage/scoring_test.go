package arbitrage

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"solana-arbscan/internal/pricing"
)

func quoteWith(kind pricing.SourceKind, conf float64, latencyMs int64, liquid bool) *pricing.PriceQuote {
	return &pricing.PriceQuote{
		Kind:               kind,
		Confidence:         conf,
		ResponseTimeMs:     latencyMs,
		LiquidityAvailable: liquid,
	}
}

func TestSourceKindScoreOrdering(t *testing.T) {
	agg := quoteWith(pricing.SourceKindAggregator, 0.9, 100, true)
	direct := quoteWith(pricing.SourceKindDirect, 0.9, 100, true)

	both := sourceKindScore(agg, agg)
	mixed := sourceKindScore(agg, direct)
	neither := sourceKindScore(direct, direct)

	assert.Greater(t, both, mixed)
	assert.Greater(t, mixed, neither)
	assert.Equal(t, 0.8, neither)
}

func TestConfidenceScoreLatencyPenalty(t *testing.T) {
	w := DefaultScoringWeights()
	fast := confidenceScore(
		quoteWith(pricing.SourceKindDirect, 0.9, 50, true),
		quoteWith(pricing.SourceKindDirect, 0.9, 50, true), w)
	slow := confidenceScore(
		quoteWith(pricing.SourceKindDirect, 0.9, 2500, true),
		quoteWith(pricing.SourceKindDirect, 0.9, 2500, true), w)

	assert.Greater(t, fast, slow)
	// Beyond the 2s baseline the latency term bottoms out at zero.
	slower := confidenceScore(
		quoteWith(pricing.SourceKindDirect, 0.9, 10000, true),
		quoteWith(pricing.SourceKindDirect, 0.9, 10000, true), w)
	assert.Equal(t, slow, slower)
}

func TestRiskScoreComponents(t *testing.T) {
	w := DefaultScoringWeights()
	calm := quoteWith(pricing.SourceKindDirect, 0.95, 100, true)

	smallSpread := riskScore(calm, calm, decimal.NewFromFloat(0.002), decimal.Zero, w)
	largeSpread := riskScore(calm, calm, decimal.NewFromFloat(0.08), decimal.Zero, w)
	assert.Greater(t, largeSpread, smallSpread)
	assert.LessOrEqual(t, largeSpread, 1.0)

	impacted := riskScore(calm, calm, decimal.NewFromFloat(0.002), decimal.NewFromFloat(0.03), w)
	assert.Greater(t, impacted, smallSpread)

	diverged := riskScore(
		quoteWith(pricing.SourceKindDirect, 0.95, 50, true),
		quoteWith(pricing.SourceKindDirect, 0.95, 1950, true),
		decimal.NewFromFloat(0.002), decimal.Zero, w)
	assert.Greater(t, diverged, smallSpread)
}

func TestRiskScoreClamped(t *testing.T) {
	w := DefaultScoringWeights()
	bad := quoteWith(pricing.SourceKindDirect, 0, 10000, false)
	risk := riskScore(bad, bad, decimal.NewFromFloat(0.5), decimal.NewFromFloat(0.5), w)
	assert.LessOrEqual(t, risk, 1.0)
	assert.GreaterOrEqual(t, risk, 0.0)
}

func TestLiquidityScore(t *testing.T) {
	tests := []struct {
		name       string
		buy, sell  *pricing.PriceQuote
		wantAtMost float64
		wantExact  float64
		exact      bool
	}{
		{
			name:      "both liquid both confident",
			buy:       quoteWith(pricing.SourceKindDirect, 0.9, 100, true),
			sell:      quoteWith(pricing.SourceKindDirect, 0.8, 100, true),
			wantExact: 1.0, exact: true,
		},
		{
			name:      "both liquid low confidence",
			buy:       quoteWith(pricing.SourceKindDirect, 0.5, 100, true),
			sell:      quoteWith(pricing.SourceKindDirect, 0.6, 100, true),
			wantExact: 0.6, exact: true,
		},
		{
			name:      "one illiquid",
			buy:       quoteWith(pricing.SourceKindDirect, 0.5, 100, true),
			sell:      quoteWith(pricing.SourceKindDirect, 0.6, 100, false),
			wantExact: 0.3, exact: true,
		},
		{
			name:      "neither liquid nor confident",
			buy:       quoteWith(pricing.SourceKindDirect, 0.2, 100, false),
			sell:      quoteWith(pricing.SourceKindDirect, 0.3, 100, false),
			wantExact: 0.0, exact: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := liquidityScore(tt.buy, tt.sell)
			if tt.exact {
				assert.InDelta(t, tt.wantExact, got, 1e-9)
			}
		})
	}
}

func TestMarketEfficiency(t *testing.T) {
	assert.InDelta(t, 1.0, marketEfficiency(decimal.Zero), 1e-9)
	assert.InDelta(t, 0.9, marketEfficiency(decimal.NewFromFloat(0.001)), 1e-9)
	assert.InDelta(t, 0.0, marketEfficiency(decimal.NewFromFloat(0.05)), 1e-9)
}

func TestMeanStddev(t *testing.T) {
	mean, stddev := meanStddev(nil)
	assert.Zero(t, mean)
	assert.Zero(t, stddev)

	mean, stddev = meanStddev([]float64{2, 2, 2})
	assert.InDelta(t, 2, mean, 1e-9)
	assert.InDelta(t, 0, stddev, 1e-9)

	mean, stddev = meanStddev([]float64{1, 3})
	assert.InDelta(t, 2, mean, 1e-9)
	assert.InDelta(t, 1, stddev, 1e-9)
}

func TestWeightsWithDefaults(t *testing.T) {
	var zero ScoringWeights
	filled := zero.withDefaults()
	assert.Equal(t, DefaultScoringWeights(), filled)

	custom := DefaultScoringWeights()
	custom.SpreadRiskWeight = 0.5
	assert.Equal(t, 0.5, custom.withDefaults().SpreadRiskWeight)
}
