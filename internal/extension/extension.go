// Package extension defines the wallet scout talks to and a JSON-RPC client for it.
//
// A wallet is anything that answers the EIP-1193 request methods scout needs:
// account access, the active chain id, chain switching and adding, and
// transaction signing. Account and chain changes arrive as events on a
// Subscription rather than as callbacks.
package extension

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/talentscout/scout/internal/network"
)

// EventKind names a wallet notification.
type EventKind string

// Wallet notifications scout reacts to.
const (
	AccountsChanged EventKind = "accountsChanged"
	ChainChanged    EventKind = "chainChanged"
)

// Event is a single wallet notification.
type Event struct {
	Kind EventKind
	// Accounts is set for AccountsChanged.
	Accounts []common.Address
	// ChainID is set for ChainChanged.
	ChainID uint64
}

// Subscription delivers wallet events until Unsubscribe is called.
// Unsubscribe is idempotent and closes the Events channel.
type Subscription interface {
	Events() <-chan Event
	Unsubscribe()
}

// Extension is the wallet contract the session manager consumes.
type Extension interface {
	// RequestAccounts asks the user to authorize accounts. It may prompt.
	RequestAccounts(ctx context.Context) ([]common.Address, error)

	// Accounts returns the accounts already authorized, without prompting.
	Accounts(ctx context.Context) ([]common.Address, error)

	// ChainID returns the wallet's active chain.
	ChainID(ctx context.Context) (uint64, error)

	// SwitchChain asks the wallet to change its active chain.
	SwitchChain(ctx context.Context, chainID uint64) error

	// AddChain asks the wallet to learn a chain definition.
	AddChain(ctx context.Context, desc network.Descriptor) error

	// SignTransaction has the wallet sign tx for from on chainID.
	SignTransaction(ctx context.Context, from common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)

	// Subscribe starts delivering account and chain change events.
	Subscribe(ctx context.Context) (Subscription, error)
}
