package discovery

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/talentscout/scout/internal/cache"
	"github.com/talentscout/scout/internal/chain"
	"github.com/talentscout/scout/internal/config"
	"github.com/talentscout/scout/internal/contracts"
	"github.com/talentscout/scout/internal/metrics"
)

// Price sources reported on a Listing.
const (
	SourceChain     = "chain"
	SourceCache     = "cache"
	SourceSuggested = "suggested"
)

// DefaultConcurrency bounds parallel registry lookups.
const DefaultConcurrency = 4

// DeveloperLookup reads registry entries.
type DeveloperLookup interface {
	GetDeveloper(ctx context.Context, developer common.Address) (contracts.Developer, error)
}

// PriceReader reads a token's current price.
type PriceReader interface {
	CurrentPrice(ctx context.Context) (*big.Int, error)
}

// TokenOpener binds a token address to a PriceReader.
type TokenOpener func(token common.Address) PriceReader

// Listing is a creator with its on-chain state, or the suggested values
// when the chain could not be read.
type Listing struct {
	Creator

	IsClaimed   bool           `json:"is_claimed"`
	Token       common.Address `json:"token,omitempty"`
	TokenName   string         `json:"token_name"`
	TokenSymbol string         `json:"token_symbol"`
	PriceWei    *big.Int       `json:"price_wei"`
	PriceSource string         `json:"price_source"`
	Error       string         `json:"error,omitempty"`
}

// Enricher looks up creators on chain.
type Enricher struct {
	registry    DeveloperLookup
	open        TokenOpener
	chainID     uint64
	endpoint    string
	concurrency int
	limiter     *chain.RateLimiter
	prices      *cache.PriceCache
	staleness   time.Duration
	logger      *config.Logger
	metrics     *metrics.Metrics
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithConcurrency bounds parallel lookups.
func WithConcurrency(n int) Option {
	return func(e *Enricher) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithRateLimiter throttles lookups against endpoint.
func WithRateLimiter(l *chain.RateLimiter, endpoint string) Option {
	return func(e *Enricher) {
		e.limiter = l
		e.endpoint = endpoint
	}
}

// WithPriceCache serves prices younger than staleness from c.
func WithPriceCache(c *cache.PriceCache, staleness time.Duration) Option {
	return func(e *Enricher) {
		e.prices = c
		e.staleness = staleness
	}
}

// WithLogger sets the logger.
func WithLogger(l *config.Logger) Option {
	return func(e *Enricher) { e.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Enricher) { e.metrics = m }
}

// NewEnricher creates an Enricher for chainID. A nil registry means no
// provider is available and every creator gets its suggested values.
func NewEnricher(registry DeveloperLookup, open TokenOpener, chainID uint64, opts ...Option) *Enricher {
	e := &Enricher{
		registry:    registry,
		open:        open,
		chainID:     chainID,
		concurrency: DefaultConcurrency,
		limiter:     chain.NewRateLimiter(0, 1),
		staleness:   cache.DefaultStaleness,
		logger:      config.NullLogger(),
		metrics:     metrics.Global,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich returns one Listing per creator, in order. Per-creator failures
// fall back to suggested values; only cancellation of ctx is an error.
func (e *Enricher) Enrich(ctx context.Context, creators []Creator) ([]Listing, error) {
	listings := make([]Listing, len(creators))
	if e.registry == nil {
		for i, c := range creators {
			listings[i] = suggested(c, "")
		}
		return listings, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, c := range creators {
		g.Go(func() error {
			if err := e.limiter.Wait(gctx, e.endpoint); err != nil {
				return err
			}
			listings[i] = e.enrichOne(gctx, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return listings, nil
}

func (e *Enricher) enrichOne(ctx context.Context, c Creator) Listing {
	dev, err := e.registry.GetDeveloper(ctx, c.Address())
	if err != nil {
		e.logger.Error("registry lookup for %s failed: %v", c.Username, err)
		return suggested(c, err.Error())
	}
	if !dev.IsRegistered {
		return suggested(c, "")
	}

	l := suggested(c, "")
	l.IsClaimed = true
	if !dev.HasToken() {
		return l
	}

	price, source, err := e.price(ctx, dev.TokenAddress)
	if err != nil {
		e.logger.Error("price read for %s failed: %v", c.Username, err)
		return suggested(c, err.Error())
	}
	l.Token = dev.TokenAddress
	l.PriceWei = price
	l.PriceSource = source
	return l
}

func (e *Enricher) price(ctx context.Context, token common.Address) (*big.Int, string, error) {
	if e.prices != nil {
		if p, ok := e.prices.Fresh(e.chainID, token, e.staleness); ok {
			e.metrics.RecordCacheHit()
			return p, SourceCache, nil
		}
		e.metrics.RecordCacheMiss()
	}

	p, err := e.open(token).CurrentPrice(ctx)
	if err != nil {
		return nil, "", err
	}
	if e.prices != nil {
		e.prices.Set(e.chainID, token, p)
	}
	return p, SourceChain, nil
}

func suggested(c Creator, reason string) Listing {
	return Listing{
		Creator:     c,
		TokenName:   c.Analysis.Market.SuggestedTokenName,
		TokenSymbol: c.Analysis.Market.SuggestedTokenSymbol,
		PriceWei:    c.SuggestedPrice(),
		PriceSource: SourceSuggested,
		Error:       reason,
	}
}
