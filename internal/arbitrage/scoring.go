// internal/arbitrage/scoring.go
package arbitrage

import (
	"math"

	"github.com/shopspring/decimal"

	"solana-arbscan/internal/pricing"
)

// ScoringWeights carries the hand-tuned scoring constants. None of them
// has a documented derivation, so they are configuration rather than
// hidden literals.
type ScoringWeights struct {
	// Confidence blend.
	SourceKindWeight      float64
	LatencyWeight         float64
	QuoteConfidenceWeight float64

	// Risk penalties, each capped at its weight.
	SpreadRiskWeight     float64
	ImpactRiskWeight     float64
	DivergenceRiskWeight float64
	ConfidenceRiskWeight float64

	BaselineLatencyMs   float64 // latency considered "slow"
	SpreadRiskThreshold float64 // spread fraction where risk starts
	SpreadRiskScale     float64 // risk per unit of excess spread
	ImpactRiskScale     float64 // multiplier on total price impact
}

// DefaultScoringWeights returns the standard weighting.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		SourceKindWeight:      0.4,
		LatencyWeight:         0.2,
		QuoteConfidenceWeight: 0.4,
		SpreadRiskWeight:      0.4,
		ImpactRiskWeight:      0.3,
		DivergenceRiskWeight:  0.2,
		ConfidenceRiskWeight:  0.1,
		BaselineLatencyMs:     2000,
		SpreadRiskThreshold:   0.005,
		SpreadRiskScale:       20,
		ImpactRiskScale:       15,
	}
}

func (w ScoringWeights) withDefaults() ScoringWeights {
	def := DefaultScoringWeights()
	if w.SourceKindWeight == 0 && w.LatencyWeight == 0 && w.QuoteConfidenceWeight == 0 {
		return def
	}
	if w.BaselineLatencyMs <= 0 {
		w.BaselineLatencyMs = def.BaselineLatencyMs
	}
	if w.SpreadRiskScale <= 0 {
		w.SpreadRiskScale = def.SpreadRiskScale
	}
	if w.ImpactRiskScale <= 0 {
		w.ImpactRiskScale = def.ImpactRiskScale
	}
	return w
}

// sourceKindScore rates the buy/sell source pairing; aggregator routes
// rank at least as high as direct venues.
func sourceKindScore(buy, sell *pricing.PriceQuote) float64 {
	aggregators := 0
	if buy.Kind == pricing.SourceKindAggregator {
		aggregators++
	}
	if sell.Kind == pricing.SourceKindAggregator {
		aggregators++
	}
	switch aggregators {
	case 2:
		return 1.0
	case 1:
		return 0.9
	default:
		return 0.8
	}
}

// confidenceScore blends source reliability, response latency, and the
// quotes' own confidences.
func confidenceScore(buy, sell *pricing.PriceQuote, w ScoringWeights) float64 {
	avgLatency := float64(buy.ResponseTimeMs+sell.ResponseTimeMs) / 2
	latencyScore := 1 - avgLatency/w.BaselineLatencyMs
	if latencyScore < 0 {
		latencyScore = 0
	}

	avgQuoteConfidence := (buy.Confidence + sell.Confidence) / 2

	score := w.SourceKindWeight*sourceKindScore(buy, sell) +
		w.LatencyWeight*latencyScore +
		w.QuoteConfidenceWeight*avgQuoteConfidence
	return clamp01(score)
}

// riskScore accumulates capped penalties for spread magnitude, total
// price impact, response-time divergence, and low quote confidence.
func riskScore(buy, sell *pricing.PriceQuote, spreadPct, totalImpact decimal.Decimal, w ScoringWeights) float64 {
	risk := 0.0

	spread, _ := spreadPct.Float64()
	if excess := spread - w.SpreadRiskThreshold; excess > 0 {
		risk += math.Min(w.SpreadRiskWeight, excess*w.SpreadRiskScale)
	}

	impact, _ := totalImpact.Float64()
	if impact > 0 {
		risk += math.Min(w.ImpactRiskWeight, impact*w.ImpactRiskScale)
	}

	divergence := math.Abs(float64(buy.ResponseTimeMs - sell.ResponseTimeMs))
	risk += math.Min(w.DivergenceRiskWeight, divergence/w.BaselineLatencyMs*w.DivergenceRiskWeight)

	avgConfidence := (buy.Confidence + sell.Confidence) / 2
	risk += (1 - avgConfidence) * w.ConfidenceRiskWeight

	return clamp01(risk)
}

// liquidityScore rewards pairs where both venues report available depth
// and both quotes carry solid confidence.
func liquidityScore(buy, sell *pricing.PriceQuote) float64 {
	score := 0.0
	switch {
	case buy.LiquidityAvailable && sell.LiquidityAvailable:
		score = 0.6
	case buy.LiquidityAvailable || sell.LiquidityAvailable:
		score = 0.3
	}
	if buy.Confidence > 0.7 && sell.Confidence > 0.7 {
		score += 0.4
	}
	return clamp01(score)
}

// marketEfficiency maps a spread fraction onto [0,1]: near 1 means the
// prices are essentially identical, near 0 a large, suspicious spread.
func marketEfficiency(spreadPct decimal.Decimal) float64 {
	spread, _ := spreadPct.Float64()
	return clamp01(1 - spread*100)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// meanStddev returns the arithmetic mean and population standard
// deviation of vs.
func meanStddev(vs []float64) (mean, stddev float64) {
	if len(vs) == 0 {
		return 0, 0
	}
	for _, v := range vs {
		mean += v
	}
	mean /= float64(len(vs))

	var variance float64
	for _, v := range vs {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(vs))
	return mean, math.Sqrt(variance)
}
