package contracts

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// fakeBackend answers contract calls from canned method outputs and
// records sent transactions.
type fakeBackend struct {
	mu sync.Mutex

	abi      abi.ABI
	outputs  map[string][]any
	callErrs []error
	noCode   bool
	calls    map[string]int
	sent     []*types.Transaction
	sendErr  error
	receipts map[common.Hash]*types.Receipt
}

func newFakeBackend(parsed abi.ABI) *fakeBackend {
	return &fakeBackend{
		abi:      parsed,
		outputs:  make(map[string][]any),
		calls:    make(map[string]int),
		receipts: make(map[common.Hash]*types.Receipt),
	}
}

func (b *fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	if b.noCode {
		return nil, nil
	}
	return []byte{0x60}, nil
}

func (b *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	method, err := b.abi.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	b.calls[method.Name]++

	if len(b.callErrs) > 0 {
		err := b.callErrs[0]
		b.callErrs = b.callErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if b.noCode {
		return nil, nil
	}

	values, ok := b.outputs[method.Name]
	if !ok {
		return nil, fmt.Errorf("no output for %s", method.Name) //nolint:err113 // test
	}
	return method.Outputs.Pack(values...)
}

func (b *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(1)}, nil
}

func (b *fakeBackend) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return b.CodeAt(ctx, account, nil)
}

func (b *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint64(len(b.sent)), nil
}

func (b *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (b *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 100_000, nil
}

func (b *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return b.sendErr
	}
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeBackend) FilterLogs(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (b *fakeBackend) SubscribeFilterLogs(context.Context, ethereum.FilterQuery, chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errors.New("not supported") //nolint:err113 // test
}

func (b *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (b *fakeBackend) callCount(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}
