package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"

	scouterr "github.com/talentscout/scout/pkg/errors"
)

// TokenInfo is a read-only summary of a creator token.
type TokenInfo struct {
	Address      common.Address `json:"address"`
	Name         string         `json:"name"`
	Symbol       string         `json:"symbol"`
	CurrentPrice *big.Int       `json:"current_price"`
	TotalSupply  *big.Int       `json:"total_supply"`
}

// CreatorToken is one creator's bonding-curve token.
type CreatorToken struct {
	bound
}

// NewCreatorToken binds the token at address.
func NewCreatorToken(address common.Address, backend bind.ContractBackend, opts ...Option) *CreatorToken {
	return &CreatorToken{bound: newBound(address, CreatorTokenABI, backend, opts)}
}

// Name returns the token name.
func (t *CreatorToken) Name(ctx context.Context) (string, error) {
	return callOne[string](ctx, &t.bound, "name")
}

// Symbol returns the token symbol.
func (t *CreatorToken) Symbol(ctx context.Context) (string, error) {
	return callOne[string](ctx, &t.bound, "symbol")
}

// CurrentPrice returns the price of the next token in wei.
func (t *CreatorToken) CurrentPrice(ctx context.Context) (*big.Int, error) {
	return callOne[*big.Int](ctx, &t.bound, "getCurrentPrice")
}

// TotalSupply returns the number of tokens in circulation.
func (t *CreatorToken) TotalSupply(ctx context.Context) (*big.Int, error) {
	return callOne[*big.Int](ctx, &t.bound, "totalSupply")
}

// BalanceOf returns the token balance of owner.
func (t *CreatorToken) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	return callOne[*big.Int](ctx, &t.bound, "balanceOf", owner)
}

// Info reads name, symbol, price and supply concurrently.
func (t *CreatorToken) Info(ctx context.Context) (TokenInfo, error) {
	info := TokenInfo{Address: t.address}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		info.Name, err = t.Name(gctx)
		return err
	})
	g.Go(func() (err error) {
		info.Symbol, err = t.Symbol(gctx)
		return err
	})
	g.Go(func() (err error) {
		info.CurrentPrice, err = t.CurrentPrice(gctx)
		return err
	})
	g.Go(func() (err error) {
		info.TotalSupply, err = t.TotalSupply(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return TokenInfo{}, err
	}
	return info, nil
}

// Buy purchases tokens by paying value wei.
func (t *CreatorToken) Buy(opts *bind.TransactOpts, value *big.Int) (*types.Transaction, error) {
	if value == nil || value.Sign() <= 0 {
		return nil, scouterr.WithDetails(scouterr.ErrInvalidAmount, map[string]string{"value": "must be positive"})
	}
	payable := *opts
	payable.Value = new(big.Int).Set(value)

	tx, err := t.contract.Transact(&payable, "buy")
	if err != nil {
		return nil, t.wrap(err, "buy")
	}
	return tx, nil
}

// Sell sells amount tokens back to the curve.
func (t *CreatorToken) Sell(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, scouterr.WithDetails(scouterr.ErrInvalidAmount, map[string]string{"amount": "must be positive"})
	}

	tx, err := t.contract.Transact(opts, "sell", amount)
	if err != nil {
		return nil, t.wrap(err, "sell")
	}
	return tx, nil
}

// Wait blocks until tx is mined and fails if it reverted.
func Wait(ctx context.Context, backend bind.DeployBackend, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, backend, tx)
	if err != nil {
		return nil, scouterr.Wrap(err, "waiting for %s", tx.Hash().Hex())
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, scouterr.WithDetails(scouterr.ErrTxFailed, map[string]string{"tx": tx.Hash().Hex()})
	}
	return receipt, nil
}

func callOne[T any](ctx context.Context, b *bound, method string, args ...any) (T, error) {
	out, err := b.call(ctx, method, args...)
	if err != nil {
		var zero T
		return zero, err
	}
	return first[T](out, method)
}
