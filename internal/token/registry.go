// internal/token/registry.go
package token

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Info holds the resolved on-chain metadata for one token symbol.
type Info struct {
	Symbol   string
	Mint     solana.PublicKey
	Decimals uint8
}

// ResolutionError reports an unknown token symbol. It is fatal to the
// current collection call and is never retried internally.
type ResolutionError struct {
	Symbol string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("unknown token symbol: %s", e.Symbol)
}

// Registry maps token symbols to mint addresses and decimals.
type Registry struct {
	mu     sync.RWMutex
	tokens map[string]Info
	logger *zap.Logger
}

// Well-known mainnet tokens available without configuration.
var builtins = []Info{
	{Symbol: "SOL", Mint: solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112"), Decimals: 9},
	{Symbol: "USDC", Mint: solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"), Decimals: 6},
	{Symbol: "USDT", Mint: solana.MustPublicKeyFromBase58("Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"), Decimals: 6},
	{Symbol: "RAY", Mint: solana.MustPublicKeyFromBase58("4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R"), Decimals: 6},
	{Symbol: "JUP", Mint: solana.MustPublicKeyFromBase58("JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"), Decimals: 6},
	{Symbol: "BONK", Mint: solana.MustPublicKeyFromBase58("DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"), Decimals: 5},
	{Symbol: "WIF", Mint: solana.MustPublicKeyFromBase58("EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm"), Decimals: 6},
	{Symbol: "MSOL", Mint: solana.MustPublicKeyFromBase58("mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So"), Decimals: 9},
}

// NewRegistry creates a registry seeded with the builtin token table.
func NewRegistry(logger *zap.Logger) *Registry {
	r := &Registry{
		tokens: make(map[string]Info, len(builtins)),
		logger: logger.Named("token_registry"),
	}
	for _, info := range builtins {
		r.tokens[info.Symbol] = info
	}
	return r
}

// Register adds or replaces a token entry. Symbols are upper-cased.
func (r *Registry) Register(symbol, mint string, decimals uint8) error {
	key, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return fmt.Errorf("invalid mint for %s: %w", symbol, err)
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return fmt.Errorf("empty token symbol")
	}

	r.mu.Lock()
	r.tokens[symbol] = Info{Symbol: symbol, Mint: key, Decimals: decimals}
	r.mu.Unlock()

	r.logger.Debug("registered token",
		zap.String("symbol", symbol),
		zap.String("mint", key.String()),
		zap.Uint8("decimals", decimals))
	return nil
}

// Resolve looks up a symbol and returns its mint metadata.
func (r *Registry) Resolve(symbol string) (Info, error) {
	key := strings.ToUpper(strings.TrimSpace(symbol))

	r.mu.RLock()
	info, ok := r.tokens[key]
	r.mu.RUnlock()

	if !ok {
		return Info{}, &ResolutionError{Symbol: symbol}
	}
	return info, nil
}

// Known reports whether a symbol can be resolved.
func (r *Registry) Known(symbol string) bool {
	_, err := r.Resolve(symbol)
	return err == nil
}

// Symbols returns all registered symbols.
func (r *Registry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	symbols := make([]string, 0, len(r.tokens))
	for symbol := range r.tokens {
		symbols = append(symbols, symbol)
	}
	return symbols
}
