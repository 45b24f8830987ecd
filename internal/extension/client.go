package extension

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/talentscout/scout/internal/network"
	scouterr "github.com/talentscout/scout/pkg/errors"
)

// DefaultPollInterval is how often the fallback watcher polls a wallet whose
// transport cannot push notifications.
const DefaultPollInterval = 2 * time.Second

// Compile-time interface check
var _ Extension = (*Client)(nil)

// Client talks to a wallet over JSON-RPC.
type Client struct {
	rpc          *gethrpc.Client
	endpoint     string
	pollInterval time.Duration
	forcePolling bool
}

// Option configures a Client.
type Option func(*Client)

// WithPollInterval sets the fallback watcher interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithPolling makes Subscribe poll even when the transport supports notifications.
func WithPolling() Option {
	return func(c *Client) {
		c.forcePolling = true
	}
}

// Dial connects to the wallet at endpoint and checks that it answers.
// An empty endpoint or a wallet that does not answer is ErrExtensionAbsent.
func Dial(ctx context.Context, endpoint string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, scouterr.ErrExtensionAbsent
	}

	rpcClient, err := gethrpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, scouterr.Because(scouterr.ErrExtensionAbsent, err)
	}

	c := NewClient(rpcClient, opts...)
	c.endpoint = endpoint

	// HTTP dials never touch the network, so check the endpoint before declaring the wallet present.
	if _, err := c.ChainID(ctx); err != nil {
		rpcClient.Close()
		return nil, scouterr.Because(scouterr.ErrExtensionAbsent, err)
	}

	return c, nil
}

// NewClient wraps an existing RPC client.
func NewClient(rpcClient *gethrpc.Client, opts ...Option) *Client {
	c := &Client{
		rpc:          rpcClient,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the endpoint the client was dialed with.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Close releases the underlying connection.
func (c *Client) Close() {
	c.rpc.Close()
}

// RequestAccounts calls eth_requestAccounts.
func (c *Client) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := c.rpc.CallContext(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, Classify(err)
	}
	return accounts, nil
}

// Accounts calls eth_accounts.
func (c *Client) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := c.rpc.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, Classify(err)
	}
	return accounts, nil
}

// ChainID calls eth_chainId.
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	var id hexutil.Uint64
	if err := c.rpc.CallContext(ctx, &id, "eth_chainId"); err != nil {
		return 0, Classify(err)
	}
	return uint64(id), nil
}

// SwitchChain calls wallet_switchEthereumChain.
func (c *Client) SwitchChain(ctx context.Context, chainID uint64) error {
	params := network.SwitchChainParams{ChainID: hexutil.EncodeUint64(chainID)}
	if err := c.rpc.CallContext(ctx, nil, "wallet_switchEthereumChain", params); err != nil {
		return Classify(err)
	}
	return nil
}

// AddChain calls wallet_addEthereumChain.
func (c *Client) AddChain(ctx context.Context, desc network.Descriptor) error {
	if err := c.rpc.CallContext(ctx, nil, "wallet_addEthereumChain", desc.AddChainParams()); err != nil {
		return Classify(err)
	}
	return nil
}

// SignTransaction calls eth_signTransaction and checks the wallet signed as from.
func (c *Client) SignTransaction(ctx context.Context, from common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	var result json.RawMessage
	if err := c.rpc.CallContext(ctx, &result, "eth_signTransaction", newTxArgs(from, tx, chainID)); err != nil {
		return nil, Classify(err)
	}

	raw, err := decodeSignResult(result)
	if err != nil {
		return nil, Unknown(err)
	}

	signed := new(types.Transaction)
	if err := signed.UnmarshalBinary(raw); err != nil {
		return nil, Unknown(fmt.Errorf("decoding signed transaction: %w", err))
	}

	sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	if err != nil {
		return nil, Unknown(fmt.Errorf("recovering signer: %w", err))
	}
	if sender != from {
		return nil, Unknown(fmt.Errorf("wallet signed as %s, expected %s", sender.Hex(), from.Hex())) //nolint:err113 // message is surfaced verbatim
	}

	return signed, nil
}

// Subscribe starts delivering account and chain changes. Transports without
// notification support (plain HTTP) fall back to polling.
func (c *Client) Subscribe(ctx context.Context) (Subscription, error) {
	if !c.forcePolling {
		sub, err := c.subscribePush(ctx)
		if err == nil {
			return sub, nil
		}
		if !isNotificationsUnsupported(err) {
			return nil, Classify(err)
		}
	}
	return c.subscribePoll(ctx)
}

// txArgs is the eth_signTransaction request object.
type txArgs struct {
	From                 common.Address  `json:"from"`
	To                   *common.Address `json:"to,omitempty"`
	Gas                  hexutil.Uint64  `json:"gas"`
	GasPrice             *hexutil.Big    `json:"gasPrice,omitempty"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas,omitempty"`
	Value                *hexutil.Big    `json:"value"`
	Nonce                hexutil.Uint64  `json:"nonce"`
	Data                 hexutil.Bytes   `json:"data,omitempty"`
	ChainID              *hexutil.Big    `json:"chainId"`
}

func newTxArgs(from common.Address, tx *types.Transaction, chainID *big.Int) txArgs {
	args := txArgs{
		From:    from,
		To:      tx.To(),
		Gas:     hexutil.Uint64(tx.Gas()),
		Value:   (*hexutil.Big)(tx.Value()),
		Nonce:   hexutil.Uint64(tx.Nonce()),
		Data:    tx.Data(),
		ChainID: (*hexutil.Big)(chainID),
	}

	if tx.Type() == types.DynamicFeeTxType {
		args.MaxFeePerGas = (*hexutil.Big)(tx.GasFeeCap())
		args.MaxPriorityFeePerGas = (*hexutil.Big)(tx.GasTipCap())
	} else {
		args.GasPrice = (*hexutil.Big)(tx.GasPrice())
	}
	return args
}

// decodeSignResult accepts both the bare raw-bytes result and geth's {raw, tx} object.
func decodeSignResult(result json.RawMessage) ([]byte, error) {
	var wrapped struct {
		Raw hexutil.Bytes `json:"raw"`
	}
	if err := json.Unmarshal(result, &wrapped); err == nil && len(wrapped.Raw) > 0 {
		return wrapped.Raw, nil
	}

	var raw hexutil.Bytes
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, fmt.Errorf("unexpected eth_signTransaction result: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty eth_signTransaction result") //nolint:err113 // message is surfaced verbatim
	}
	return raw, nil
}
