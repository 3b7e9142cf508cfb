package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"solana-arbscan/internal/arbitrage"
	"solana-arbscan/internal/config"
	"solana-arbscan/internal/export"
	"solana-arbscan/internal/pricing"
	"solana-arbscan/internal/token"
)

func testAnalyzer(t *testing.T) *arbitrage.Analyzer {
	t.Helper()

	logger := zap.NewNop()
	registry := token.NewRegistry(logger)

	prices := map[string]decimal.Decimal{
		"SOL/USDC": decimal.NewFromFloat(185.40),
		"RAY/USDC": decimal.NewFromFloat(3.42),
	}

	providers := []pricing.QuoteProvider{
		pricing.NewSimulatedVenue(pricing.SimulatedVenueConfig{
			Name:       "raydium",
			BasePrices: prices,
			Liquidity:  decimal.NewFromInt(50000),
			MinLatency: time.Millisecond,
			MaxLatency: 5 * time.Millisecond,
			Seed:       1,
		}, logger),
		pricing.NewSimulatedVenue(pricing.SimulatedVenueConfig{
			Name:       "orca",
			BasePrices: prices,
			Liquidity:  decimal.NewFromInt(35000),
			MinLatency: time.Millisecond,
			MaxLatency: 5 * time.Millisecond,
			Seed:       2,
		}, logger),
	}

	collector, err := pricing.NewCollector(providers, registry, logger, nil)
	require.NoError(t, err)

	analyzer, err := arbitrage.NewAnalyzer(collector, logger, nil)
	require.NoError(t, err)
	return analyzer
}

func TestNewValidation(t *testing.T) {
	logger := zap.NewNop()
	analyzer := testAnalyzer(t)
	pairs := []config.PairConfig{{From: "SOL", To: "USDC", Amount: 10}}

	_, err := New(nil, nil, logger, Config{Pairs: pairs})
	assert.Error(t, err, "nil analyzer")

	_, err = New(analyzer, nil, nil, Config{Pairs: pairs})
	assert.Error(t, err, "nil logger")

	_, err = New(analyzer, nil, logger, Config{})
	assert.Error(t, err, "no pairs")

	s, err := New(analyzer, nil, logger, Config{Pairs: pairs})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultWorkers, s.workers)
	assert.Equal(t, time.Duration(config.DefaultScanIntervalMs)*time.Millisecond, s.interval)
}

func TestScanOnce(t *testing.T) {
	analyzer := testAnalyzer(t)

	s, err := New(analyzer, nil, zap.NewNop(), Config{
		Pairs: []config.PairConfig{
			{From: "SOL", To: "USDC", Amount: 10},
			{From: "RAY", To: "USDC", Amount: 500},
		},
		Workers: 2,
		CollectOpts: pricing.CollectOptions{
			Timeout: 2 * time.Second,
		},
		AnalyzeOpts: arbitrage.DefaultOptions(),
	})
	require.NoError(t, err)

	results, err := s.ScanOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	for key, result := range results {
		assert.Equal(t, key, result.Snapshot.Pair.Key())
		assert.Equal(t, 2, result.Snapshot.SuccessfulSources)
	}
}

func TestScanOnceSkipsFailingPair(t *testing.T) {
	analyzer := testAnalyzer(t)

	s, err := New(analyzer, nil, zap.NewNop(), Config{
		Pairs: []config.PairConfig{
			{From: "SOL", To: "USDC", Amount: 10},
			{From: "UNKNOWN", To: "USDC", Amount: 10},
		},
		Workers:     2,
		Retries:     3,
		CollectOpts: pricing.CollectOptions{Timeout: 2 * time.Second},
		AnalyzeOpts: arbitrage.DefaultOptions(),
	})
	require.NoError(t, err)

	start := time.Now()
	results, err := s.ScanOnce(context.Background())
	require.NoError(t, err)

	assert.Len(t, results, 1)
	assert.Contains(t, results, "SOL/USDC")
	// Resolution failures are permanent, so the bad pair must not burn
	// through the retry backoff.
	assert.Less(t, time.Since(start), time.Second)
}

func TestScanOnceCancelled(t *testing.T) {
	analyzer := testAnalyzer(t)

	s, err := New(analyzer, nil, zap.NewNop(), Config{
		Pairs:       []config.PairConfig{{From: "SOL", To: "USDC", Amount: 10}},
		CollectOpts: pricing.CollectOptions{Timeout: 2 * time.Second},
		AnalyzeOpts: arbitrage.DefaultOptions(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.ScanOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunExportsAndStops(t *testing.T) {
	analyzer := testAnalyzer(t)
	outputDir := t.TempDir()

	s, err := New(analyzer, export.NewOpportunityExporter(zap.NewNop()), zap.NewNop(), Config{
		Pairs:       []config.PairConfig{{From: "SOL", To: "USDC", Amount: 10}},
		Interval:    50 * time.Millisecond,
		OutputDir:   outputDir,
		CollectOpts: pricing.CollectOptions{Timeout: 2 * time.Second},
		AnalyzeOpts: arbitrage.DefaultOptions(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err = s.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
