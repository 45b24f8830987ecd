// Package chaintest serves an in-memory chain over go-ethereum's JSON-RPC
// server, plus a key-backed wallet. Contracts are Go handlers keyed by ABI
// method, so registry and token behavior can be scripted per test.
package chaintest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// DefaultGasPrice is what eth_gasPrice reports.
var DefaultGasPrice = big.NewInt(1_000_000_000)

// Call is one contract invocation.
type Call struct {
	From  common.Address
	Value *big.Int
	Args  []any
}

// Handler implements one contract method. Returning an error reverts.
type Handler func(call Call) ([]any, error)

// Contract is a scripted contract.
type Contract struct {
	ABI      abi.ABI
	Handlers map[string]Handler
}

// Chain is an in-memory chain.
type Chain struct {
	mu        sync.Mutex
	chainID   uint64
	block     uint64
	balances  map[common.Address]*big.Int
	nonces    map[common.Address]uint64
	contracts map[common.Address]*Contract
	receipts  map[common.Hash]*types.Receipt
	sent      []*types.Transaction
	callErr   error

	server *rpc.Server
}

// New starts a chain with the given id.
func New(chainID uint64) *Chain {
	c := &Chain{
		chainID:   chainID,
		block:     1,
		balances:  make(map[common.Address]*big.Int),
		nonces:    make(map[common.Address]uint64),
		contracts: make(map[common.Address]*Contract),
		receipts:  make(map[common.Hash]*types.Receipt),
		server:    rpc.NewServer(),
	}
	if err := c.server.RegisterName("eth", &ethAPI{chain: c}); err != nil {
		panic(err)
	}
	return c
}

// ChainID returns the chain id.
func (c *Chain) ChainID() uint64 {
	return c.chainID
}

// SetBalance sets the native balance of addr.
func (c *Chain) SetBalance(addr common.Address, wei *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[addr] = new(big.Int).Set(wei)
}

// Deploy installs a scripted contract at addr.
func (c *Chain) Deploy(addr common.Address, parsed abi.ABI, handlers map[string]Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contracts[addr] = &Contract{ABI: parsed, Handlers: handlers}
}

// FailCalls makes every eth_call fail with err until cleared with nil.
func (c *Chain) FailCalls(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callErr = err
}

// Sent returns the transactions received so far.
func (c *Chain) Sent() []*types.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*types.Transaction(nil), c.sent...)
}

// Client returns an ethclient attached to the chain in-process.
func (c *Chain) Client() *ethclient.Client {
	return ethclient.NewClient(rpc.DialInProc(c.server))
}

// Dial returns an ethclient and fails when ctx is already done.
func (c *Chain) Dial(ctx context.Context) (*ethclient.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.Client(), nil
}

// Close stops the RPC server.
func (c *Chain) Close() {
	c.server.Stop()
}

var errNoMethod = errors.New("execution reverted: unknown selector")

func (c *Chain) invoke(to common.Address, call Call, input []byte) ([]byte, error) {
	contract, ok := c.contracts[to]
	if !ok {
		return nil, nil
	}
	if len(input) < 4 {
		return nil, errNoMethod
	}
	method, err := contract.ABI.MethodById(input[:4])
	if err != nil {
		return nil, errNoMethod
	}
	handler, ok := contract.Handlers[method.Name]
	if !ok {
		return nil, fmt.Errorf("execution reverted: %s not scripted", method.Name) //nolint:err113 // revert reason
	}

	args, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, err
	}
	call.Args = args
	out, err := handler(call)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(out...)
}

type callArgs struct {
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to"`
	Value *hexutil.Big    `json:"value"`
	Input hexutil.Bytes   `json:"input"`
	Data  hexutil.Bytes   `json:"data"`
}

func (a callArgs) payload() []byte {
	if len(a.Input) > 0 {
		return a.Input
	}
	return a.Data
}

// ethAPI is registered under the "eth" namespace.
type ethAPI struct {
	chain *Chain
}

func (api *ethAPI) ChainId() hexutil.Uint64 { //nolint:revive,stylecheck // RPC method name
	return hexutil.Uint64(api.chain.chainID)
}

func (api *ethAPI) BlockNumber() hexutil.Uint64 {
	api.chain.mu.Lock()
	defer api.chain.mu.Unlock()
	return hexutil.Uint64(api.chain.block)
}

func (api *ethAPI) GetBlockByNumber(_ string, _ *bool) *types.Header {
	api.chain.mu.Lock()
	defer api.chain.mu.Unlock()
	return &types.Header{
		Number:     new(big.Int).SetUint64(api.chain.block),
		Difficulty: new(big.Int),
		GasLimit:   30_000_000,
	}
}

func (api *ethAPI) GetBalance(addr common.Address, _ *string) *hexutil.Big {
	api.chain.mu.Lock()
	defer api.chain.mu.Unlock()
	if b, ok := api.chain.balances[addr]; ok {
		return (*hexutil.Big)(new(big.Int).Set(b))
	}
	return (*hexutil.Big)(new(big.Int))
}

func (api *ethAPI) GetCode(addr common.Address, _ *string) hexutil.Bytes {
	api.chain.mu.Lock()
	defer api.chain.mu.Unlock()
	if _, ok := api.chain.contracts[addr]; ok {
		return hexutil.Bytes{0x60, 0x80}
	}
	return hexutil.Bytes{}
}

func (api *ethAPI) GetTransactionCount(addr common.Address, _ *string) hexutil.Uint64 {
	api.chain.mu.Lock()
	defer api.chain.mu.Unlock()
	return hexutil.Uint64(api.chain.nonces[addr])
}

func (api *ethAPI) GasPrice() *hexutil.Big {
	return (*hexutil.Big)(new(big.Int).Set(DefaultGasPrice))
}

func (api *ethAPI) MaxPriorityFeePerGas() *hexutil.Big {
	return (*hexutil.Big)(big.NewInt(1))
}

func (api *ethAPI) EstimateGas(_ callArgs, _ *string) hexutil.Uint64 {
	return 100_000
}

func (api *ethAPI) Call(args callArgs, _ *string) (hexutil.Bytes, error) {
	api.chain.mu.Lock()
	defer api.chain.mu.Unlock()

	if api.chain.callErr != nil {
		return nil, api.chain.callErr
	}
	if args.To == nil {
		return nil, nil
	}
	value := new(big.Int)
	if args.Value != nil {
		value = args.Value.ToInt()
	}
	return api.chain.invoke(*args.To, Call{From: args.From, Value: value}, args.payload())
}

func (api *ethAPI) SendRawTransaction(raw hexutil.Bytes) (common.Hash, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, err
	}

	c := api.chain
	c.mu.Lock()
	defer c.mu.Unlock()

	from, err := types.Sender(types.LatestSignerForChainID(new(big.Int).SetUint64(c.chainID)), tx)
	if err != nil {
		return common.Hash{}, err
	}
	if tx.Nonce() != c.nonces[from] {
		return common.Hash{}, fmt.Errorf("nonce too low: have %d, want %d", tx.Nonce(), c.nonces[from]) //nolint:err113 // node error text
	}
	c.nonces[from]++
	c.block++
	c.sent = append(c.sent, tx)

	status := types.ReceiptStatusSuccessful
	if tx.To() != nil {
		if _, err := c.invoke(*tx.To(), Call{From: from, Value: tx.Value()}, tx.Data()); err != nil {
			status = types.ReceiptStatusFailed
		}
	}

	c.receipts[tx.Hash()] = &types.Receipt{
		Type:              tx.Type(),
		Status:            status,
		CumulativeGasUsed: 21_000,
		GasUsed:           21_000,
		Logs:              []*types.Log{},
		TxHash:            tx.Hash(),
		BlockNumber:       new(big.Int).SetUint64(c.block),
	}
	return tx.Hash(), nil
}

func (api *ethAPI) GetTransactionReceipt(hash common.Hash) *types.Receipt {
	api.chain.mu.Lock()
	defer api.chain.mu.Unlock()
	return api.chain.receipts[hash]
}
