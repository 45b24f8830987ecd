package trading

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/talentscout/scout/internal/cache"
	"github.com/talentscout/scout/internal/session"
)

// SignerProvider is a connected account able to send transactions.
// *session.Signer implements it.
type SignerProvider interface {
	Address() common.Address
	Provider() session.Provider
	TransactOpts(ctx context.Context) *bind.TransactOpts
}

// CacheProvider loads and saves the price cache.
type CacheProvider interface {
	Load() (*cache.PriceCache, error)
	Save(c *cache.PriceCache) error
}

// LogWriter provides logging operations.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

// Compile-time interface check
var _ SignerProvider = (*session.Signer)(nil)
