// internal/pricing/collector.go
package pricing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"solana-arbscan/internal/metrics"
	"solana-arbscan/internal/token"
)

// CollectOptions tunes one collection call. Zero values fall back to the
// defaults from DefaultCollectOptions.
type CollectOptions struct {
	Timeout           time.Duration // per-source call timeout
	IncludeAggregator bool
	EnableCaching     bool
	CacheTTL          time.Duration
	SlippageBps       uint16
}

// DefaultCollectOptions returns the standard collection settings.
func DefaultCollectOptions() CollectOptions {
	return CollectOptions{
		Timeout:           5 * time.Second,
		IncludeAggregator: true,
		EnableCaching:     false,
		CacheTTL:          10 * time.Second,
		SlippageBps:       50,
	}
}

func (o CollectOptions) withDefaults() CollectOptions {
	def := DefaultCollectOptions()
	if o.Timeout <= 0 {
		o.Timeout = def.Timeout
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = def.CacheTTL
	}
	if o.SlippageBps == 0 {
		o.SlippageBps = def.SlippageBps
	}
	return o
}

// Collector fans out one price request to every configured source in
// parallel and consolidates the settled results into a PriceSnapshot.
// Individual source failures are captured as data; only token resolution
// failures abort the call.
type Collector struct {
	providers []QuoteProvider
	registry  *token.Registry
	cache     *QuoteCache
	logger    *zap.Logger
	metrics   *metrics.Collector

	requestSeq atomic.Uint64
}

// NewCollector creates a collector over the given providers.
func NewCollector(providers []QuoteProvider, registry *token.Registry, logger *zap.Logger, mc *metrics.Collector) (*Collector, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("at least one quote provider is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("token registry cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &Collector{
		providers: providers,
		registry:  registry,
		cache:     NewQuoteCache(logger),
		logger:    logger.Named("collector"),
		metrics:   mc,
	}, nil
}

// sourceResult pairs one settled source handler with its slot name.
type sourceResult struct {
	source string
	quote  *PriceQuote
}

// Collect resolves the pair, issues one concurrent call per configured
// source, waits for every call to settle, and assembles the snapshot.
// Cancelling ctx aborts all outstanding calls; the sources still pending
// are recorded as failures in the returned snapshot.
func (c *Collector) Collect(ctx context.Context, pair TokenPair, opts CollectOptions) (*PriceSnapshot, error) {
	opts = opts.withDefaults()

	if !pair.Amount.IsPositive() {
		return nil, fmt.Errorf("pair amount must be positive, got %s", pair.Amount)
	}

	resolved, err := c.resolvePair(pair)
	if err != nil {
		return nil, err
	}

	providers := c.selectProviders(opts)
	request := buildQuoteRequest(resolved, opts.SlippageBps)

	start := time.Now()
	results := make(chan sourceResult, len(providers))

	var wg sync.WaitGroup
	for _, provider := range providers {
		wg.Add(1)
		go func(p QuoteProvider) {
			defer wg.Done()
			results <- sourceResult{
				source: p.Name(),
				quote:  c.fetchQuote(ctx, p, resolved, request, opts),
			}
		}(provider)
	}

	// All-settle semantics: every source reports success or failure
	// before the snapshot is assembled.
	wg.Wait()
	close(results)

	elapsed := time.Since(start)
	snapshot := &PriceSnapshot{
		Pair:                resolved,
		Quotes:              make(map[string]*PriceQuote, len(providers)),
		TotalResponseTimeMs: elapsed.Milliseconds(),
		TimestampMs:         time.Now().UnixMilli(),
		RequestID:           c.nextRequestID(),
	}

	for result := range results {
		snapshot.Quotes[result.source] = result.quote
		if result.quote.Failed() {
			snapshot.FailedSources++
		} else {
			snapshot.SuccessfulSources++
		}
	}

	if c.metrics != nil {
		c.metrics.RecordSnapshot(resolved.Key(), elapsed)
	}

	c.logger.Debug("snapshot assembled",
		zap.String("request_id", snapshot.RequestID),
		zap.String("pair", resolved.Key()),
		zap.Int("successful", snapshot.SuccessfulSources),
		zap.Int("failed", snapshot.FailedSources),
		zap.Duration("elapsed", elapsed))

	return snapshot, nil
}

// Cache exposes the collector's quote cache.
func (c *Collector) Cache() *QuoteCache {
	return c.cache
}

// Sources returns the slot names of all configured providers.
func (c *Collector) Sources(includeAggregator bool) []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		if !includeAggregator && p.Kind() == SourceKindAggregator {
			continue
		}
		names = append(names, p.Name())
	}
	return names
}

func (c *Collector) resolvePair(pair TokenPair) (TokenPair, error) {
	fromInfo, err := c.registry.Resolve(pair.FromSymbol)
	if err != nil {
		return TokenPair{}, err
	}
	toInfo, err := c.registry.Resolve(pair.ToSymbol)
	if err != nil {
		return TokenPair{}, err
	}

	pair.FromSymbol = fromInfo.Symbol
	pair.ToSymbol = toInfo.Symbol
	pair.FromToken = fromInfo
	pair.ToToken = toInfo
	return pair, nil
}

func (c *Collector) selectProviders(opts CollectOptions) []QuoteProvider {
	providers := make([]QuoteProvider, 0, len(c.providers))
	for _, p := range c.providers {
		if !opts.IncludeAggregator && p.Kind() == SourceKindAggregator {
			continue
		}
		providers = append(providers, p)
	}
	return providers
}

// fetchQuote serves one source: cache lookup, the provider call raced
// against the per-source timeout, error capture, and cache population.
// It never returns nil and never panics past the provider boundary.
func (c *Collector) fetchQuote(ctx context.Context, provider QuoteProvider, pair TokenPair, request QuoteRequest, opts CollectOptions) *PriceQuote {
	source := provider.Name()

	if opts.EnableCaching {
		if cached := c.cache.Get(source, pair, pair.Amount); cached != nil {
			if c.metrics != nil {
				c.metrics.RecordCacheHit(source)
			}
			return cached
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	start := time.Now()
	raw, err := provider.GetQuote(callCtx, request)
	elapsed := time.Since(start)

	if c.metrics != nil {
		c.metrics.RecordQuote(source, elapsed, err == nil)
	}

	if err != nil {
		captured := classifySourceError(source, err, opts.Timeout)
		c.logger.Debug("source failed",
			zap.String("source", source),
			zap.String("pair", pair.Key()),
			zap.Duration("elapsed", elapsed),
			zap.Error(captured))
		return &PriceQuote{
			Source:         source,
			Kind:           provider.Kind(),
			Price:          decimal.Zero,
			ResponseTimeMs: elapsed.Milliseconds(),
			Timestamp:      time.Now(),
			Err:            captured,
		}
	}

	quote := c.buildPriceQuote(provider, pair, raw, elapsed)

	if opts.EnableCaching {
		c.cache.Put(source, pair, *quote, opts.CacheTTL)
	}
	return quote
}

func (c *Collector) buildPriceQuote(provider QuoteProvider, pair TokenPair, raw *Quote, elapsed time.Duration) *PriceQuote {
	output := amountToDecimal(raw.OutputAmount, pair.ToToken.Decimals)
	price := decimal.Zero
	if pair.Amount.IsPositive() {
		price = output.Div(pair.Amount)
	}

	return &PriceQuote{
		Source:             provider.Name(),
		Kind:               provider.Kind(),
		Price:              price,
		InputAmount:        pair.Amount,
		OutputAmount:       output,
		PriceImpact:        raw.PriceImpact,
		Liquidity:          raw.Liquidity,
		LiquidityAvailable: raw.LiquidityAvailable,
		ResponseTimeMs:     elapsed.Milliseconds(),
		Confidence:         deriveConfidence(raw.Liquidity, pair.Amount, price),
		Timestamp:          time.Now(),
	}
}

func (c *Collector) nextRequestID() string {
	seq := c.requestSeq.Add(1)
	return fmt.Sprintf("req_%d_%d", seq, time.Now().UnixMilli())
}

// deriveConfidence maps liquidity depth relative to the requested trade
// size onto [0,1). Zero or negative liquidity, or a non-positive price,
// yields zero confidence.
func deriveConfidence(liquidity, amount, price decimal.Decimal) float64 {
	if !liquidity.IsPositive() || !price.IsPositive() || !amount.IsPositive() {
		return 0
	}

	ratio, _ := liquidity.Div(amount).Float64()
	confidence := ratio / (ratio + 1)
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

func classifySourceError(source string, err error, timeout time.Duration) error {
	var parseErr *SourceParseError
	if errors.As(err, &parseErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &SourceTimeoutError{Source: source, Timeout: timeout}
	}
	return &SourceNetworkError{Source: source, Err: err}
}

func buildQuoteRequest(pair TokenPair, slippageBps uint16) QuoteRequest {
	return QuoteRequest{
		FromSymbol:   pair.FromSymbol,
		ToSymbol:     pair.ToSymbol,
		FromMint:     pair.FromToken.Mint,
		ToMint:       pair.ToToken.Mint,
		Amount:       decimalToAmount(pair.Amount, pair.FromToken.Decimals),
		FromDecimals: pair.FromToken.Decimals,
		ToDecimals:   pair.ToToken.Decimals,
		SlippageBps:  slippageBps,
	}
}

// amountToDecimal converts raw token units into whole-token decimals.
func amountToDecimal(amount uint64, decimals uint8) decimal.Decimal {
	multiplier := decimal.New(1, int32(decimals))
	return decimal.NewFromUint64(amount).Div(multiplier)
}

// decimalToAmount converts whole-token decimals into raw units,
// truncating any fraction below one raw unit.
func decimalToAmount(amount decimal.Decimal, decimals uint8) uint64 {
	multiplier := decimal.New(1, int32(decimals))
	scaled := amount.Mul(multiplier).Truncate(0)
	if scaled.IsNegative() {
		return 0
	}
	return uint64(scaled.IntPart())
}
