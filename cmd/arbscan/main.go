// ====================================
// File: cmd/arbscan/main.go
// ====================================
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"solana-arbscan/internal/arbitrage"
	"solana-arbscan/internal/config"
	"solana-arbscan/internal/export"
	"solana-arbscan/internal/logger"
	"solana-arbscan/internal/metrics"
	"solana-arbscan/internal/pricing"
	"solana-arbscan/internal/scanner"
	"solana-arbscan/internal/storage"
	"solana-arbscan/internal/storage/postgres"
	"solana-arbscan/internal/token"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	once := flag.Bool("once", false, "scan every pair once and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Fatal("Failed to load config", zap.Error(err))
	}

	log, err := logger.New(&logger.Config{
		LogFile:     "arbscan.log",
		MaxSize:     100,
		MaxAge:      7,
		MaxBackups:  3,
		Compress:    true,
		Development: cfg.DebugLogging,
	})
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting arbitrage scanner",
		zap.Int("pairs", len(cfg.Pairs)),
		zap.Int("workers", cfg.Workers),
		zap.Bool("caching", cfg.EnableCaching))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := buildStorage(cfg, log)
	if err != nil {
		log.Fatal("Failed to connect storage", zap.Error(err))
	}
	if store != nil {
		defer store.Close()
	}

	sc, err := buildScanner(cfg, log, store)
	if err != nil {
		log.Fatal("Failed to assemble scanner", zap.Error(err))
	}

	if *once {
		if _, err := sc.ScanOnce(ctx); err != nil && ctx.Err() == nil {
			log.Fatal("Scan failed", zap.Error(err))
		}
		return
	}

	if err := sc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("Scanner stopped", zap.Error(err))
	}
	log.Info("Shutdown complete")
}

// buildStorage connects Postgres persistence when database_url is set.
// Scanning works without it; exports and logs remain the only output.
func buildStorage(cfg *config.Config, log *logger.Logger) (storage.Storage, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}

	store, err := postgres.NewStorage(cfg.DatabaseURL, log.Logger)
	if err != nil {
		return nil, err
	}
	if err := store.RunMigrations(); err != nil {
		store.Close()
		return nil, err
	}

	log.Info("Storage connected")
	return store, nil
}

func buildScanner(cfg *config.Config, log *logger.Logger, store storage.Storage) (*scanner.Scanner, error) {
	registry := token.NewRegistry(log.Logger)
	for symbol, mint := range cfg.CustomTokens {
		// Custom entries default to 9 decimals unless re-registered.
		if err := registry.Register(symbol, mint, 9); err != nil {
			return nil, err
		}
	}

	mc := metrics.NewCollector()
	providers := buildProviders(cfg, log.Logger)

	collector, err := pricing.NewCollector(providers, registry, log.Logger, mc)
	if err != nil {
		return nil, err
	}

	analyzer, err := arbitrage.NewAnalyzer(collector, log.Logger, mc)
	if err != nil {
		return nil, err
	}

	analyzeOpts := arbitrage.DefaultOptions()
	analyzeOpts.MinProfitThreshold = cfg.MinProfitPercent
	analyzeOpts.MaxRiskScore = cfg.MaxRiskScore
	analyzeOpts.MaxPriceImpact = cfg.MaxPriceImpact
	analyzeOpts.IncludeGasCosts = cfg.IncludeGasCosts
	analyzeOpts.RequireLiquidity = cfg.RequireLiquidity
	analyzeOpts.EnableStatisticalFiltering = cfg.EnableFiltering

	return scanner.New(analyzer, export.NewOpportunityExporter(log.Logger), log.Logger, scanner.Config{
		Pairs:     cfg.Pairs,
		Workers:   cfg.Workers,
		Retries:   cfg.Retries,
		Interval:  time.Duration(cfg.ScanIntervalMs) * time.Millisecond,
		OutputDir: cfg.OutputDir,
		Store:     store,
		CollectOpts: pricing.CollectOptions{
			Timeout:           time.Duration(cfg.TimeoutMs) * time.Millisecond,
			IncludeAggregator: cfg.IncludeAggregator,
			EnableCaching:     cfg.EnableCaching,
			CacheTTL:          time.Duration(cfg.CacheTTLMs) * time.Millisecond,
		},
		AnalyzeOpts: analyzeOpts,
	})
}

func buildProviders(cfg *config.Config, log *zap.Logger) []pricing.QuoteProvider {
	basePrices := pricing.DefaultVenueBasePrices()

	venues := []pricing.SimulatedVenueConfig{
		{
			Name:        pricing.SourceRaydium,
			BasePrices:  basePrices,
			PriceJitter: 0.004,
			Liquidity:   decimal.NewFromInt(50000),
			MinLatency:  40 * time.Millisecond,
			MaxLatency:  350 * time.Millisecond,
			FailureRate: 0.02,
		},
		{
			Name:        pricing.SourceOrca,
			BasePrices:  basePrices,
			PriceJitter: 0.003,
			Liquidity:   decimal.NewFromInt(35000),
			MinLatency:  60 * time.Millisecond,
			MaxLatency:  450 * time.Millisecond,
			FailureRate: 0.03,
		},
		{
			Name:        pricing.SourcePhoenix,
			BasePrices:  basePrices,
			PriceJitter: 0.006,
			Liquidity:   decimal.NewFromInt(12000),
			MinLatency:  30 * time.Millisecond,
			MaxLatency:  600 * time.Millisecond,
			FailureRate: 0.05,
		},
	}

	providers := make([]pricing.QuoteProvider, 0, len(venues)+1)
	for _, venue := range venues {
		providers = append(providers, pricing.NewSimulatedVenue(venue, log))
	}
	providers = append(providers, pricing.NewJupiterProvider(cfg.JupiterURL, log))
	return providers
}
