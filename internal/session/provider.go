package session

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/talentscout/scout/internal/network"
	scouterr "github.com/talentscout/scout/pkg/errors"
)

// Provider is a read-only chain handle. It is also the backend contract
// bindings use to estimate, send and wait for transactions.
type Provider interface {
	bind.ContractBackend
	bind.DeployBackend

	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	Close()
}

// ProviderDialer opens a Provider for a chain.
type ProviderDialer func(ctx context.Context, desc network.Descriptor) (Provider, error)

// Compile-time interface check
var _ Provider = (*ethclient.Client)(nil)

// DialProvider connects to the descriptor's RPC endpoint and checks that it
// serves the expected chain.
func DialProvider(ctx context.Context, desc network.Descriptor) (Provider, error) {
	client, err := ethclient.DialContext(ctx, desc.RPCURL)
	if err != nil {
		return nil, scouterr.Because(scouterr.ErrNetworkQueryFailed, err)
	}

	id, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, scouterr.Because(scouterr.ErrNetworkQueryFailed, err)
	}
	if !id.IsUint64() || id.Uint64() != desc.ChainID {
		client.Close()
		return nil, scouterr.WithDetails(
			scouterr.Because(scouterr.ErrNetworkQueryFailed,
				fmt.Errorf("rpc endpoint serves chain %s", id)), //nolint:err113 // one-off context
			map[string]string{"rpc": desc.RPCURL},
		)
	}

	return client, nil
}
