// internal/pricing/types.go
package pricing

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"solana-arbscan/internal/token"
)

// SourceKind distinguishes aggregator quotes from direct venue quotes.
type SourceKind string

const (
	SourceKindDirect     SourceKind = "direct"
	SourceKindAggregator SourceKind = "aggregator"
)

// Logical source slots produced by the default provider set.
const (
	SourceRaydium = "raydium"
	SourceOrca    = "orca"
	SourcePhoenix = "phoenix"
	SourceJupiter = "jupiter"
)

// TokenPair is one immutable price request: swap Amount units of the
// from-token into the to-token.
type TokenPair struct {
	FromSymbol string
	ToSymbol   string
	Amount     decimal.Decimal

	// Resolved by the collector before any provider call.
	FromToken token.Info
	ToToken   token.Info
}

// Key returns the canonical pair key used in logs and cache keys.
func (p TokenPair) Key() string {
	return p.FromSymbol + "/" + p.ToSymbol
}

// QuoteRequest is the provider-ready form of a TokenPair.
type QuoteRequest struct {
	FromSymbol   string
	ToSymbol     string
	FromMint     solana.PublicKey
	ToMint       solana.PublicKey
	Amount       uint64 // raw units of the from-token
	FromDecimals uint8
	ToDecimals   uint8
	SlippageBps  uint16
}

// Quote is a single raw provider response.
type Quote struct {
	OutputAmount       uint64 // raw units of the to-token
	PriceImpact        decimal.Decimal
	Liquidity          decimal.Decimal // available depth in from-token units
	LiquidityAvailable bool
}

// QuoteProvider fetches a quote from one specific source. Implementations
// must honor ctx cancellation; each call carries its own timeout.
type QuoteProvider interface {
	Name() string
	Kind() SourceKind
	GetQuote(ctx context.Context, req QuoteRequest) (*Quote, error)
}

// PriceQuote is one source's entry in a snapshot. A quote with Err set
// carries Price zero and Confidence zero and must never be compared
// against other prices.
type PriceQuote struct {
	Source             string
	Kind               SourceKind
	Price              decimal.Decimal // to-token units per from-token unit
	InputAmount        decimal.Decimal
	OutputAmount       decimal.Decimal
	PriceImpact        decimal.Decimal
	Liquidity          decimal.Decimal
	LiquidityAvailable bool
	ResponseTimeMs     int64
	Confidence         float64
	Timestamp          time.Time
	Err                error
}

// Failed reports whether this quote carries a captured source error.
func (q *PriceQuote) Failed() bool {
	return q.Err != nil
}

// Comparable reports whether the quote may participate in arbitrage math.
func (q *PriceQuote) Comparable() bool {
	return q.Err == nil && q.Price.IsPositive()
}

// PriceSnapshot is the consolidated result of one parallel collection
// call. Immutable after Collect returns.
type PriceSnapshot struct {
	Pair                TokenPair
	Quotes              map[string]*PriceQuote
	TotalResponseTimeMs int64
	SuccessfulSources   int
	FailedSources       int
	TimestampMs         int64
	RequestID           string
}

// ComparableQuotes returns the quotes eligible for pairwise comparison.
func (s *PriceSnapshot) ComparableQuotes() []*PriceQuote {
	quotes := make([]*PriceQuote, 0, len(s.Quotes))
	for _, q := range s.Quotes {
		if q != nil && q.Comparable() {
			quotes = append(quotes, q)
		}
	}
	return quotes
}
