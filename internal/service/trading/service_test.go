package trading

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentscout/scout/internal/cache"
	"github.com/talentscout/scout/internal/chaintest"
	"github.com/talentscout/scout/internal/config"
	"github.com/talentscout/scout/internal/contracts"
	"github.com/talentscout/scout/internal/metrics"
	"github.com/talentscout/scout/internal/network"
	"github.com/talentscout/scout/internal/session"
	scouterr "github.com/talentscout/scout/pkg/errors"
)

var tokenAddr = common.HexToAddress("0x00000000000000000000000000000000000070cc")

// tokenState records what the scripted token saw.
type tokenState struct {
	mu       sync.Mutex
	balance  *big.Int
	paid     []*big.Int
	sold     []*big.Int
	rejected bool
}

func (s *tokenState) handlers() map[string]chaintest.Handler {
	return map[string]chaintest.Handler{
		"balanceOf": func(chaintest.Call) ([]any, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			return []any{new(big.Int).Set(s.balance)}, nil
		},
		"buy": func(c chaintest.Call) ([]any, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.rejected {
				return nil, errors.New("execution reverted: sale closed") //nolint:err113 // revert reason
			}
			s.paid = append(s.paid, c.Value)
			return nil, nil
		},
		"sell": func(c chaintest.Call) ([]any, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			amount, _ := c.Args[0].(*big.Int)
			s.sold = append(s.sold, amount)
			return nil, nil
		},
	}
}

type fixture struct {
	chain   *chaintest.Chain
	wallet  *chaintest.Wallet
	signer  *session.Signer
	token   *tokenState
	prices  *cache.FileStorage
	service *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	desc := network.LensTestnet()

	c := chaintest.New(desc.ChainID)
	t.Cleanup(c.Close)
	state := &tokenState{balance: big.NewInt(0)}
	c.Deploy(tokenAddr, contracts.CreatorTokenABI, state.handlers())

	w := chaintest.NewWallet(desc.ChainID)
	client := c.Client()
	t.Cleanup(client.Close)

	prices := cache.NewFileStorage(filepath.Join(t.TempDir(), "prices.json"))
	svc := NewService(&Config{
		Descriptor: desc,
		Prices:     prices,
		Logger:     config.NullLogger(),
		Metrics:    &metrics.Metrics{},
	})

	return &fixture{
		chain:   c,
		wallet:  w,
		signer:  session.NewSigner(w, w.Address(), desc.ChainID, client),
		token:   state,
		prices:  prices,
		service: svc,
	}
}

func TestTrade_Buy(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	pc := cache.NewPriceCache()
	pc.Set(network.LensTestnetChainID, tokenAddr, big.NewInt(5))
	require.NoError(t, f.prices.Save(pc))

	res, err := f.service.Trade(context.Background(), f.signer, &Request{
		Side:   Buy,
		Token:  tokenAddr,
		Amount: "0.5",
		Wait:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, res.Status)
	assert.Equal(t, "500000000000000000", res.AmountWei)
	assert.Equal(t, f.wallet.Address().Hex(), res.From)
	assert.Equal(t, "https://block-explorer.testnet.lens.dev/tx/"+res.Hash, res.ExplorerURL)
	assert.NotZero(t, res.BlockNumber)
	require.Len(t, f.token.paid, 1)
	assert.Equal(t, "500000000000000000", f.token.paid[0].String())

	reloaded, err := f.prices.Load()
	require.NoError(t, err)
	assert.Zero(t, reloaded.Size())
}

func TestTrade_BuyWithoutWait(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res, err := f.service.Trade(context.Background(), f.signer, &Request{Side: Buy, Token: tokenAddr, Amount: "1"})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, res.Status)
	assert.Zero(t, res.BlockNumber)
	assert.Len(t, f.chain.Sent(), 1)
}

func TestTrade_Sell(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.token.balance = big.NewInt(0).Mul(big.NewInt(3), big.NewInt(1e18))

	res, err := f.service.Trade(context.Background(), f.signer, &Request{Side: Sell, Token: tokenAddr, Amount: "2", Wait: true})
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, res.Status)
	require.Len(t, f.token.sold, 1)
	assert.Equal(t, "2000000000000000000", f.token.sold[0].String())
}

func TestTrade_SellExceedsBalance(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.token.balance = big.NewInt(1e18)

	_, err := f.service.Trade(context.Background(), f.signer, &Request{Side: Sell, Token: tokenAddr, Amount: "2"})
	require.ErrorIs(t, err, scouterr.ErrInvalidAmount)

	var se *scouterr.ScoutError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "1.0", se.Details["balance"])
	assert.Empty(t, f.chain.Sent())
}

func TestTrade_Reverted(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.token.rejected = true

	res, err := f.service.Trade(context.Background(), f.signer, &Request{Side: Buy, Token: tokenAddr, Amount: "1", Wait: true})
	require.ErrorIs(t, err, scouterr.ErrTxFailed)
	require.NotNil(t, res)
	assert.Equal(t, StatusPending, res.Status)
}

func TestTrade_WalletRejects(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.wallet.Reject(&rejection{})

	_, err := f.service.Trade(context.Background(), f.signer, &Request{Side: Buy, Token: tokenAddr, Amount: "1"})
	require.ErrorIs(t, err, scouterr.ErrUserRejected)
	assert.Empty(t, f.chain.Sent())
}

type rejection struct{}

func (*rejection) Error() string  { return "User rejected the request." }
func (*rejection) ErrorCode() int { return 4001 }

func TestTrade_InvalidRequests(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	tests := []struct {
		name   string
		signer SignerProvider
		req    Request
		want   error
	}{
		{"not connected", nil, Request{Side: Buy, Token: tokenAddr, Amount: "1"}, scouterr.ErrNotConnected},
		{"missing token", f.signer, Request{Side: Buy, Amount: "1"}, scouterr.ErrInvalidAddress},
		{"bad amount", f.signer, Request{Side: Buy, Token: tokenAddr, Amount: "abc"}, scouterr.ErrInvalidAmount},
		{"zero amount", f.signer, Request{Side: Sell, Token: tokenAddr, Amount: "0.0"}, scouterr.ErrInvalidAmount},
		{"bad side", f.signer, Request{Side: "hold", Token: tokenAddr, Amount: "1"}, scouterr.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := f.service.Trade(context.Background(), tt.signer, &tt.req)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseSide(t *testing.T) {
	t.Parallel()
	side, err := ParseSide(" BUY ")
	require.NoError(t, err)
	assert.Equal(t, Buy, side)

	side, err = ParseSide("sell")
	require.NoError(t, err)
	assert.Equal(t, Sell, side)

	_, err = ParseSide("swap")
	require.ErrorIs(t, err, scouterr.ErrInvalidInput)
}
