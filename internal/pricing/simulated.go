// internal/pricing/simulated.go
package pricing

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SimulatedVenueConfig tunes one simulated direct-venue provider.
type SimulatedVenueConfig struct {
	Name string
	// BasePrices maps "FROM/TO" to the venue's mid price.
	BasePrices map[string]decimal.Decimal
	// PriceJitter is the max symmetric deviation fraction per quote.
	PriceJitter float64
	// Liquidity is the venue's depth in from-token units.
	Liquidity decimal.Decimal
	// MinLatency/MaxLatency bound the simulated response delay.
	MinLatency time.Duration
	MaxLatency time.Duration
	// FailureRate is the probability in [0,1] of a simulated outage.
	FailureRate float64
	// Seed fixes the random stream; zero seeds from the clock.
	Seed int64
}

// SimulatedVenue is a stand-in QuoteProvider for a direct DEX. It is a
// deliberate placeholder behind the same interface as real integrations
// and is swappable without touching the collector.
type SimulatedVenue struct {
	cfg    SimulatedVenueConfig
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedVenue creates a simulated provider.
func NewSimulatedVenue(cfg SimulatedVenueConfig, logger *zap.Logger) *SimulatedVenue {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.PriceJitter <= 0 {
		cfg.PriceJitter = 0.002
	}
	if cfg.MaxLatency <= 0 {
		cfg.MaxLatency = 400 * time.Millisecond
	}
	if cfg.MinLatency <= 0 {
		cfg.MinLatency = 30 * time.Millisecond
	}
	return &SimulatedVenue{
		cfg:    cfg,
		logger: logger.Named(cfg.Name),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (v *SimulatedVenue) Name() string     { return v.cfg.Name }
func (v *SimulatedVenue) Kind() SourceKind { return SourceKindDirect }

// GetQuote produces a jittered quote around the venue's base price after
// a randomized delay, honoring ctx cancellation during the wait.
func (v *SimulatedVenue) GetQuote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	delay, jitter, fails := v.roll()

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if fails {
		return nil, fmt.Errorf("simulated %s outage", v.cfg.Name)
	}

	base, ok := v.cfg.BasePrices[req.FromSymbol+"/"+req.ToSymbol]
	if !ok {
		return nil, fmt.Errorf("no market for %s/%s on %s", req.FromSymbol, req.ToSymbol, v.cfg.Name)
	}

	price := base.Mul(decimal.NewFromFloat(1 + jitter))
	input := amountToDecimal(req.Amount, req.FromDecimals)
	impact := v.priceImpact(input)

	// Fill at the jittered price less slippage.
	output := input.Mul(price).Mul(decimal.NewFromInt(1).Sub(impact))
	outputRaw := decimalToAmount(output, req.ToDecimals)

	return &Quote{
		OutputAmount:       outputRaw,
		PriceImpact:        impact,
		Liquidity:          v.cfg.Liquidity,
		LiquidityAvailable: v.cfg.Liquidity.GreaterThanOrEqual(input),
	}, nil
}

func (v *SimulatedVenue) roll() (delay time.Duration, jitter float64, fails bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	window := v.cfg.MaxLatency - v.cfg.MinLatency
	delay = v.cfg.MinLatency
	if window > 0 {
		delay += time.Duration(v.rng.Int63n(int64(window)))
	}
	jitter = (v.rng.Float64()*2 - 1) * v.cfg.PriceJitter
	fails = v.rng.Float64() < v.cfg.FailureRate
	return delay, jitter, fails
}

// priceImpact approximates constant-product slippage: impact grows with
// trade size relative to venue depth.
func (v *SimulatedVenue) priceImpact(input decimal.Decimal) decimal.Decimal {
	if !v.cfg.Liquidity.IsPositive() || !input.IsPositive() {
		return decimal.Zero
	}
	impact := input.Div(v.cfg.Liquidity.Add(input))
	if impact.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return impact
}

// DefaultVenueBasePrices returns the simulated mid prices used by the
// out-of-the-box raydium/orca/phoenix stand-ins.
func DefaultVenueBasePrices() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"SOL/USDC":  decimal.NewFromFloat(185.40),
		"SOL/USDT":  decimal.NewFromFloat(185.25),
		"RAY/USDC":  decimal.NewFromFloat(3.42),
		"JUP/USDC":  decimal.NewFromFloat(1.07),
		"BONK/USDC": decimal.NewFromFloat(0.0000312),
		"USDC/USDT": decimal.NewFromFloat(0.9998),
		"MSOL/SOL":  decimal.NewFromFloat(1.181),
	}
}
