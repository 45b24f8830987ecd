package chaintest

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentscout/scout/internal/contracts"
	"github.com/talentscout/scout/internal/extension"
)

var tokenAddr = common.HexToAddress("0x7070")

func priceHandlers(price *big.Int) map[string]Handler {
	return map[string]Handler{
		"getCurrentPrice": func(Call) ([]any, error) { return []any{price}, nil },
		"buy": func(c Call) ([]any, error) {
			if c.Value.Sign() == 0 {
				return nil, errors.New("execution reverted: no value") //nolint:err113 // revert reason
			}
			return nil, nil
		},
	}
}

func TestChain_ReadsAndBalance(t *testing.T) {
	t.Parallel()
	c := New(37111)
	t.Cleanup(c.Close)

	holder := common.HexToAddress("0xbeef")
	c.SetBalance(holder, big.NewInt(5))
	c.Deploy(tokenAddr, contracts.CreatorTokenABI, priceHandlers(big.NewInt(99)))

	client := c.Client()
	defer client.Close()
	ctx := context.Background()

	id, err := client.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(37111), id.Uint64())

	bal, err := client.BalanceAt(ctx, holder, nil)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5), bal)

	price, err := contracts.NewCreatorToken(tokenAddr, client).CurrentPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(99), price)

	_, err = contracts.NewCreatorToken(tokenAddr, client).Name(ctx)
	require.Error(t, err)

	_, err = contracts.NewCreatorToken(common.HexToAddress("0x1"), client).CurrentPrice(ctx)
	require.ErrorIs(t, err, contracts.ErrNoContract)
}

func TestChain_TransactAndWait(t *testing.T) {
	t.Parallel()
	c := New(37111)
	t.Cleanup(c.Close)
	c.Deploy(tokenAddr, contracts.CreatorTokenABI, priceHandlers(big.NewInt(1)))

	w := NewWallet(37111)
	client := c.Client()
	defer client.Close()
	ctx := context.Background()

	opts := &bind.TransactOpts{
		From:    w.Address(),
		Context: ctx,
		Signer: func(from common.Address, tx *types.Transaction) (*types.Transaction, error) {
			return w.SignTransaction(ctx, from, tx, big.NewInt(37111))
		},
	}
	token := contracts.NewCreatorToken(tokenAddr, client)

	tx, err := token.Buy(opts, big.NewInt(10))
	require.NoError(t, err)
	receipt, err := contracts.Wait(ctx, client, tx)
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)

	tx, err = token.Sell(opts, big.NewInt(1))
	require.NoError(t, err)
	_, err = contracts.Wait(ctx, client, tx)
	require.ErrorContains(t, err, "transaction reverted")

	assert.Len(t, c.Sent(), 2)
	assert.Equal(t, 2, w.Signed())
}

func TestChain_FailCalls(t *testing.T) {
	t.Parallel()
	c := New(1)
	t.Cleanup(c.Close)
	c.Deploy(tokenAddr, contracts.CreatorTokenABI, priceHandlers(big.NewInt(1)))
	c.FailCalls(errors.New("boom")) //nolint:err113 // test error

	client := c.Client()
	defer client.Close()
	_, err := contracts.NewCreatorToken(tokenAddr, client).CurrentPrice(context.Background())
	require.ErrorContains(t, err, "boom")
}

func TestWallet(t *testing.T) {
	t.Parallel()
	w := NewWallet(5)
	ctx := context.Background()

	accts, err := w.RequestAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{w.Address()}, accts)

	require.NoError(t, w.SwitchChain(ctx, 37111))
	id, err := w.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(37111), id)

	rejected := errors.New("User rejected the request.") //nolint:err113 // test error
	w.Reject(rejected)
	_, err = w.RequestAccounts(ctx)
	require.ErrorIs(t, err, rejected)

	sub, err := w.Subscribe(ctx)
	require.NoError(t, err)
	w.Emit(extension.Event{Kind: extension.ChainChanged, ChainID: 1})
	ev := <-sub.Events()
	assert.Equal(t, extension.ChainChanged, ev.Kind)
	sub.Unsubscribe()
	sub.Unsubscribe()
	_, open := <-sub.Events()
	assert.False(t, open)
}
