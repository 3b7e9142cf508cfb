// internal/arbitrage/analyzer.go
package arbitrage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"solana-arbscan/internal/metrics"
	"solana-arbscan/internal/pricing"
)

// Collection health thresholds for advisory warnings.
const (
	minComparableSources = 2
	slowCollectionMs     = 3000
	minHistorySamples    = 10
)

// Analyzer turns price snapshots into ranked arbitrage opportunities.
// Each Analyze call is stateless except for the bounded history buffer
// used for cross-call outlier advisories.
type Analyzer struct {
	collector *pricing.Collector
	history   *History
	logger    *zap.Logger
	metrics   *metrics.Collector
}

// NewAnalyzer creates an analyzer. The collector may be nil if callers
// only use AnalyzeSnapshot with externally collected snapshots.
func NewAnalyzer(collector *pricing.Collector, logger *zap.Logger, mc *metrics.Collector) (*Analyzer, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &Analyzer{
		collector: collector,
		history:   NewHistory(DefaultHistorySize, logger),
		logger:    logger.Named("analyzer"),
		metrics:   mc,
	}, nil
}

// History exposes the analyzer's bounded opportunity buffer.
func (a *Analyzer) History() *History {
	return a.history
}

// Analyze collects a fresh snapshot for the pair and analyzes it.
// Only token resolution failures surface as errors; everything else is
// reported inside the result.
func (a *Analyzer) Analyze(ctx context.Context, pair pricing.TokenPair, collectOpts pricing.CollectOptions, opts Options) (*AnalysisResult, error) {
	if a.collector == nil {
		return nil, fmt.Errorf("analyzer has no collector; use AnalyzeSnapshot")
	}

	snapshot, err := a.collector.Collect(ctx, pair, collectOpts)
	if err != nil {
		return nil, err
	}
	return a.AnalyzeSnapshot(snapshot, opts), nil
}

// AnalyzeSnapshot derives ranked opportunities from an existing
// snapshot. Deterministic for identical snapshot inputs, aside from
// opportunity timestamps.
func (a *Analyzer) AnalyzeSnapshot(snapshot *pricing.PriceSnapshot, opts Options) *AnalysisResult {
	opts.Weights = opts.Weights.withDefaults()

	result := &AnalysisResult{
		Snapshot: snapshot,
		Metrics: Metrics{
			DataQuality: dataQuality(snapshot),
		},
	}

	a.appendCollectionWarnings(snapshot, result)

	quotes := snapshot.ComparableQuotes()
	if len(quotes) < minComparableSources {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"insufficient data: %d comparable price source(s); arbitrage requires at least %d",
			len(quotes), minComparableSources))
		result.Recommendations = append(result.Recommendations,
			"collect more sources before acting on this pair")
		return result
	}

	// Deterministic pair enumeration regardless of map iteration order.
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Source < quotes[j].Source })

	raw := a.enumerateOpportunities(snapshot, quotes, opts)
	result.Metrics.ComparedPairs = len(quotes) * (len(quotes) - 1)
	result.Metrics.RawOpportunities = len(raw)

	viable := filterViable(raw, opts)

	if opts.EnableStatisticalFiltering {
		viable = a.filterOutliers(viable, opts, result)
	}

	a.appendHistoricalAdvisories(viable, result)

	sort.SliceStable(viable, func(i, j int) bool {
		return viable[i].NetProfit.GreaterThan(viable[j].NetProfit)
	})

	result.Opportunities = viable
	result.Metrics.ViableOpportunities = len(viable)
	fillAggregateMetrics(result)
	a.appendRecommendations(result)

	a.history.Append(viable)

	if a.metrics != nil {
		a.metrics.RecordOpportunities(snapshot.Pair.Key(), len(viable))
	}

	a.logger.Debug("analysis complete",
		zap.String("request_id", snapshot.RequestID),
		zap.String("pair", snapshot.Pair.Key()),
		zap.Int("raw", result.Metrics.RawOpportunities),
		zap.Int("viable", len(viable)),
		zap.Int("outliers_dropped", result.Metrics.FilteredOutliers))

	return result
}

// enumerateOpportunities scores every ordered source pair with
// sellPrice > buyPrice.
func (a *Analyzer) enumerateOpportunities(snapshot *pricing.PriceSnapshot, quotes []*pricing.PriceQuote, opts Options) []Opportunity {
	gasCost := decimal.Zero
	if opts.IncludeGasCosts {
		gasCost = opts.GasCost
	}

	var opportunities []Opportunity
	for _, buy := range quotes {
		for _, sell := range quotes {
			if buy.Source == sell.Source {
				continue
			}
			if !sell.Price.GreaterThan(buy.Price) {
				continue
			}
			opportunities = append(opportunities, a.buildOpportunity(snapshot, buy, sell, gasCost, opts))
		}
	}
	return opportunities
}

func (a *Analyzer) buildOpportunity(snapshot *pricing.PriceSnapshot, buy, sell *pricing.PriceQuote, gasCost decimal.Decimal, opts Options) Opportunity {
	spread := sell.Price.Sub(buy.Price)
	spreadPct := spread.Div(buy.Price)

	grossProfit := snapshot.Pair.Amount.Mul(spread)
	totalImpact := buy.PriceImpact.Add(sell.PriceImpact)
	impactCost := grossProfit.Mul(totalImpact)
	estimatedProfit := grossProfit.Sub(impactCost)
	netProfit := estimatedProfit.Sub(gasCost)

	return Opportunity{
		Pair:                    snapshot.Pair,
		BuySource:               buy.Source,
		SellSource:              sell.Source,
		BuyPrice:                buy.Price,
		SellPrice:               sell.Price,
		Spread:                  spread,
		SpreadPercentage:        spreadPct,
		EstimatedGrossProfit:    grossProfit,
		PriceImpactCost:         impactCost,
		EstimatedGasCost:        gasCost,
		NetProfit:               netProfit,
		Confidence:              confidenceScore(buy, sell, opts.Weights),
		RiskScore:               riskScore(buy, sell, spreadPct, totalImpact, opts.Weights),
		LiquidityScore:          liquidityScore(buy, sell),
		PriceImpactTotal:        totalImpact,
		ResponseTimeAdvantageMs: buy.ResponseTimeMs - sell.ResponseTimeMs,
		MarketEfficiency:        marketEfficiency(spreadPct),
		Timestamp:               time.Now(),
		RequestID:               snapshot.RequestID,
	}
}

// filterViable applies the profitability and risk gates.
func filterViable(opportunities []Opportunity, opts Options) []Opportunity {
	minSpread := decimal.NewFromFloat(opts.MinProfitThreshold)
	maxImpact := decimal.NewFromFloat(opts.MaxPriceImpact)

	viable := make([]Opportunity, 0, len(opportunities))
	for _, opp := range opportunities {
		if opp.SpreadPercentage.LessThan(minSpread) {
			continue
		}
		if opp.RiskScore > opts.MaxRiskScore {
			continue
		}
		if opp.PriceImpactTotal.GreaterThan(maxImpact) {
			continue
		}
		if !opp.NetProfit.IsPositive() {
			continue
		}
		if opts.RequireLiquidity && opp.LiquidityScore < 0.5 {
			continue
		}
		viable = append(viable, opp)
	}
	return viable
}

// filterOutliers drops opportunities whose spread exceeds mean+2σ of the
// current call's viable set, unless the keep strategy retains them for
// high confidence.
func (a *Analyzer) filterOutliers(viable []Opportunity, opts Options, result *AnalysisResult) []Opportunity {
	if len(viable) < 2 {
		return viable
	}

	spreads := make([]float64, len(viable))
	for i, opp := range viable {
		spreads[i], _ = opp.SpreadPercentage.Float64()
	}
	mean, stddev := meanStddev(spreads)
	if stddev == 0 {
		return viable
	}
	cutoff := mean + 2*stddev

	kept := viable[:0]
	for i, opp := range viable {
		if spreads[i] <= cutoff {
			kept = append(kept, opp)
			continue
		}

		if opts.OutlierStrategy == OutlierKeepHighConfidence && opp.Confidence > opts.OutlierKeepConfidence {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"%s->%s spread %.4f%% is a statistical outlier kept for confidence %.2f; large spread likely due to low liquidity or API delay",
				opp.BuySource, opp.SellSource, spreadFloat(opp)*100, opp.Confidence))
			kept = append(kept, opp)
			continue
		}

		result.Metrics.FilteredOutliers++
		a.logger.Debug("dropped outlier opportunity",
			zap.String("buy", opp.BuySource),
			zap.String("sell", opp.SellSource),
			zap.Float64("spread_pct", spreads[i]),
			zap.Float64("cutoff", cutoff))
	}
	return kept
}

// appendHistoricalAdvisories warns about spreads far above the recent
// historical mean without dropping them.
func (a *Analyzer) appendHistoricalAdvisories(viable []Opportunity, result *AnalysisResult) {
	mean, stddev, n := a.history.SpreadStats()
	if n < minHistorySamples || stddev == 0 {
		return
	}
	cutoff := mean + 2*stddev

	for _, opp := range viable {
		if spreadFloat(opp) > cutoff {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"%s->%s spread %.4f%% is well above the recent historical mean %.4f%%; verify before executing",
				opp.BuySource, opp.SellSource, spreadFloat(opp)*100, mean*100))
		}
	}
}

func (a *Analyzer) appendCollectionWarnings(snapshot *pricing.PriceSnapshot, result *AnalysisResult) {
	if snapshot.SuccessfulSources < minComparableSources {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"only %d source(s) responded successfully", snapshot.SuccessfulSources))
	}
	if snapshot.TotalResponseTimeMs > slowCollectionMs {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"collection took %dms; prices may be stale", snapshot.TotalResponseTimeMs))
	}
	if snapshot.FailedSources > snapshot.SuccessfulSources {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"failed sources (%d) outnumber successful ones (%d)",
			snapshot.FailedSources, snapshot.SuccessfulSources))
	}
}

func (a *Analyzer) appendRecommendations(result *AnalysisResult) {
	if len(result.Opportunities) == 0 {
		if len(result.Snapshot.ComparableQuotes()) >= minComparableSources {
			result.Recommendations = append(result.Recommendations,
				"market appears efficient; no viable spreads above threshold")
		}
		return
	}

	best := result.Opportunities[0]
	result.Recommendations = append(result.Recommendations, fmt.Sprintf(
		"best opportunity: buy on %s at %s, sell on %s at %s (net profit %s %s, confidence %.2f, risk %.2f)",
		best.BuySource, best.BuyPrice.StringFixed(6),
		best.SellSource, best.SellPrice.StringFixed(6),
		best.NetProfit.StringFixed(6), best.Pair.ToSymbol,
		best.Confidence, best.RiskScore))
}

func fillAggregateMetrics(result *AnalysisResult) {
	if len(result.Opportunities) == 0 {
		// No exploitable spread means the market looks efficient.
		result.Metrics.MarketEfficiency = 1
		return
	}

	sum := decimal.Zero
	max := decimal.Zero
	efficiency := 0.0
	for _, opp := range result.Opportunities {
		sum = sum.Add(opp.SpreadPercentage)
		if opp.SpreadPercentage.GreaterThan(max) {
			max = opp.SpreadPercentage
		}
		efficiency += opp.MarketEfficiency
	}

	count := decimal.NewFromInt(int64(len(result.Opportunities)))
	result.Metrics.AverageSpreadPercent = sum.Div(count)
	result.Metrics.MaxSpreadPercent = max
	result.Metrics.MarketEfficiency = efficiency / float64(len(result.Opportunities))
}

func dataQuality(snapshot *pricing.PriceSnapshot) float64 {
	total := snapshot.SuccessfulSources + snapshot.FailedSources
	if total == 0 {
		return 0
	}
	return float64(snapshot.SuccessfulSources) / float64(total)
}

func spreadFloat(opp Opportunity) float64 {
	v, _ := opp.SpreadPercentage.Float64()
	return v
}
