package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func simulatedConfig() SimulatedVenueConfig {
	return SimulatedVenueConfig{
		Name: "raydium",
		BasePrices: map[string]decimal.Decimal{
			"SOL/USDC": decimal.NewFromInt(100),
		},
		PriceJitter: 0.001,
		Liquidity:   decimal.NewFromInt(10000),
		MinLatency:  time.Millisecond,
		MaxLatency:  5 * time.Millisecond,
		Seed:        42,
	}
}

func TestSimulatedVenueQuote(t *testing.T) {
	venue := NewSimulatedVenue(simulatedConfig(), zap.NewNop())
	req := QuoteRequest{
		FromSymbol:   "SOL",
		ToSymbol:     "USDC",
		Amount:       1_000_000_000, // 1 SOL
		FromDecimals: 9,
		ToDecimals:   6,
	}

	quote, err := venue.GetQuote(context.Background(), req)
	require.NoError(t, err)

	output := amountToDecimal(quote.OutputAmount, 6)
	price, _ := output.Float64()
	assert.InDelta(t, 100, price, 0.5, "output should track the base price for a small trade")
	assert.True(t, quote.LiquidityAvailable)
	assert.True(t, quote.PriceImpact.IsPositive())
	assert.True(t, quote.PriceImpact.LessThan(decimal.NewFromFloat(0.001)), "1 against 10000 depth is near-zero impact")
}

func TestSimulatedVenueUnknownMarket(t *testing.T) {
	venue := NewSimulatedVenue(simulatedConfig(), zap.NewNop())
	req := QuoteRequest{FromSymbol: "BONK", ToSymbol: "USDT", Amount: 1000, FromDecimals: 5, ToDecimals: 6}

	_, err := venue.GetQuote(context.Background(), req)
	require.Error(t, err)
}

func TestSimulatedVenueImpactGrowsWithSize(t *testing.T) {
	venue := NewSimulatedVenue(simulatedConfig(), zap.NewNop())

	small := venue.priceImpact(decimal.NewFromInt(10))
	large := venue.priceImpact(decimal.NewFromInt(5000))
	assert.True(t, large.GreaterThan(small))

	huge := venue.priceImpact(decimal.NewFromInt(1_000_000))
	assert.True(t, huge.LessThanOrEqual(decimal.NewFromInt(1)))
}

func TestSimulatedVenueHonorsCancellation(t *testing.T) {
	cfg := simulatedConfig()
	cfg.MinLatency = time.Second
	cfg.MaxLatency = 2 * time.Second
	venue := NewSimulatedVenue(cfg, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := venue.GetQuote(ctx, QuoteRequest{FromSymbol: "SOL", ToSymbol: "USDC", Amount: 1000, FromDecimals: 9, ToDecimals: 6})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestSimulatedVenueAlwaysFails(t *testing.T) {
	cfg := simulatedConfig()
	cfg.FailureRate = 1.0
	venue := NewSimulatedVenue(cfg, zap.NewNop())

	_, err := venue.GetQuote(context.Background(), QuoteRequest{FromSymbol: "SOL", ToSymbol: "USDC", Amount: 1000, FromDecimals: 9, ToDecimals: 6})
	require.Error(t, err)
}
