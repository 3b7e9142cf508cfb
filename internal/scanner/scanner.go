// internal/scanner/scanner.go
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"solana-arbscan/internal/arbitrage"
	"solana-arbscan/internal/config"
	"solana-arbscan/internal/export"
	"solana-arbscan/internal/pricing"
	"solana-arbscan/internal/storage"
	"solana-arbscan/internal/storage/models"
	"solana-arbscan/internal/token"
)

// Scanner runs the collect-and-analyze pipeline over a configured pair
// list with a bounded worker pool, retrying whole collection calls on
// transient failure. Resolution errors are not retried.
type Scanner struct {
	analyzer *arbitrage.Analyzer
	exporter *export.OpportunityExporter
	store    storage.Storage
	logger   *zap.Logger

	pairs       []config.PairConfig
	workers     int
	retries     int
	interval    time.Duration
	outputDir   string
	collectOpts pricing.CollectOptions
	analyzeOpts arbitrage.Options
}

// Config assembles scanner dependencies and settings.
type Config struct {
	Pairs       []config.PairConfig
	Workers     int
	Retries     int
	Interval    time.Duration
	OutputDir   string
	Store       storage.Storage
	CollectOpts pricing.CollectOptions
	AnalyzeOpts arbitrage.Options
}

// New creates a scanner.
func New(analyzer *arbitrage.Analyzer, exporter *export.OpportunityExporter, logger *zap.Logger, cfg Config) (*Scanner, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if len(cfg.Pairs) == 0 {
		return nil, fmt.Errorf("no pairs configured")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = config.DefaultWorkers
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Duration(config.DefaultScanIntervalMs) * time.Millisecond
	}

	return &Scanner{
		analyzer:    analyzer,
		exporter:    exporter,
		store:       cfg.Store,
		logger:      logger.Named("scanner"),
		pairs:       cfg.Pairs,
		workers:     cfg.Workers,
		retries:     cfg.Retries,
		interval:    cfg.Interval,
		outputDir:   cfg.OutputDir,
		collectOpts: cfg.CollectOpts,
		analyzeOpts: cfg.AnalyzeOpts,
	}, nil
}

// ScanOnce analyzes every configured pair once and returns the results
// keyed by pair. Individual pair failures are logged and skipped; the
// scan itself only fails on ctx cancellation.
func (s *Scanner) ScanOnce(ctx context.Context) (map[string]*arbitrage.AnalysisResult, error) {
	start := time.Now()

	var (
		mu      sync.Mutex
		results = make(map[string]*arbitrage.AnalysisResult, len(s.pairs))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, pc := range s.pairs {
		pair := pricing.TokenPair{
			FromSymbol: pc.From,
			ToSymbol:   pc.To,
			Amount:     decimal.NewFromFloat(pc.Amount),
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			result, err := s.analyzePairWithRetry(gctx, pair)
			if err != nil {
				s.logger.Warn("pair analysis failed",
					zap.String("pair", pair.Key()),
					zap.Error(err))
				return nil
			}

			mu.Lock()
			results[pair.Key()] = result
			mu.Unlock()

			s.logger.Info("pair analyzed",
				zap.String("pair", pair.Key()),
				zap.Int("opportunities", len(result.Opportunities)),
				zap.Int("warnings", len(result.Warnings)),
				zap.Float64("data_quality", result.Metrics.DataQuality))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	s.logger.Info("scan complete",
		zap.Int("pairs", len(s.pairs)),
		zap.Int("analyzed", len(results)),
		zap.Duration("elapsed", time.Since(start)))

	return results, nil
}

// Run scans repeatedly until ctx is cancelled, exporting viable
// opportunities after each pass.
func (s *Scanner) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		results, err := s.ScanOnce(ctx)
		if err != nil {
			return err
		}
		s.exportResults(results)
		s.persistResults(ctx, results)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// analyzePairWithRetry retries the whole collect+analyze call on
// transient failure. Per the collector's contract, unknown symbols fail
// permanently.
func (s *Scanner) analyzePairWithRetry(ctx context.Context, pair pricing.TokenPair) (*arbitrage.AnalysisResult, error) {
	backoffPolicy := backoff.NewExponentialBackOff()
	backoffPolicy.InitialInterval = 200 * time.Millisecond
	backoffPolicy.MaxInterval = 2 * time.Second

	notify := func(err error, duration time.Duration) {
		s.logger.Debug("retrying pair analysis",
			zap.String("pair", pair.Key()),
			zap.Error(err),
			zap.Duration("backoff", duration))
	}

	operation := func() (*arbitrage.AnalysisResult, error) {
		result, err := s.analyzer.Analyze(ctx, pair, s.collectOpts, s.analyzeOpts)
		if err != nil {
			if isResolutionError(err) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return result, nil
	}

	maxTries := uint(s.retries)
	if maxTries == 0 {
		maxTries = 1
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoffPolicy),
		backoff.WithMaxTries(maxTries),
		backoff.WithNotify(notify))
}

func (s *Scanner) exportResults(results map[string]*arbitrage.AnalysisResult) {
	if s.exporter == nil || s.outputDir == "" {
		return
	}

	var opportunities []arbitrage.Opportunity
	for _, result := range results {
		opportunities = append(opportunities, result.Opportunities...)
	}
	if len(opportunities) == 0 {
		return
	}

	if _, err := s.exporter.ExportOpportunities(opportunities, export.ExportOptions{
		Format:    export.FormatCSV,
		OutputDir: s.outputDir,
	}); err != nil {
		s.logger.Warn("export failed", zap.Error(err))
	}
}

// persistResults writes snapshots and viable opportunities to storage.
// Persistence failures are logged, never fatal to the scan loop.
func (s *Scanner) persistResults(ctx context.Context, results map[string]*arbitrage.AnalysisResult) {
	if s.store == nil {
		return
	}

	for key, result := range results {
		if err := s.store.SaveSnapshot(ctx, models.NewSnapshot(result)); err != nil {
			s.logger.Warn("snapshot persist failed",
				zap.String("pair", key),
				zap.Error(err))
		}

		rows := make([]*models.Opportunity, 0, len(result.Opportunities))
		for _, opp := range result.Opportunities {
			rows = append(rows, models.NewOpportunity(opp))
		}
		if err := s.store.SaveOpportunities(ctx, rows); err != nil {
			s.logger.Warn("opportunity persist failed",
				zap.String("pair", key),
				zap.Error(err))
		}
	}
}

func isResolutionError(err error) bool {
	var resErr *token.ResolutionError
	return errors.As(err, &resErr)
}
