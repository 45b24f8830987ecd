package chaintest

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/talentscout/scout/internal/extension"
	"github.com/talentscout/scout/internal/network"
)

// Wallet is a key-backed extension.Extension. It approves every prompt
// unless Reject is set.
type Wallet struct {
	mu      sync.Mutex
	key     *ecdsa.PrivateKey
	chainID uint64
	reject  error
	events  chan extension.Event
	signed  int
}

// Compile-time interface check
var _ extension.Extension = (*Wallet)(nil)

// NewWallet creates a wallet on chainID with a fresh key.
func NewWallet(chainID uint64) *Wallet {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}
	return &Wallet{key: key, chainID: chainID, events: make(chan extension.Event, 4)}
}

// Address returns the wallet's account.
func (w *Wallet) Address() common.Address {
	return crypto.PubkeyToAddress(w.key.PublicKey)
}

// Reject makes prompts and signatures fail with err. Nil approves again.
func (w *Wallet) Reject(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reject = err
}

// SetChain changes the active chain without emitting an event.
func (w *Wallet) SetChain(chainID uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.chainID = chainID
}

// Signed returns how many transactions were signed.
func (w *Wallet) Signed() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.signed
}

// RequestAccounts implements extension.Extension.
func (w *Wallet) RequestAccounts(context.Context) ([]common.Address, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.reject != nil {
		return nil, w.reject
	}
	return []common.Address{w.Address()}, nil
}

// Accounts implements extension.Extension.
func (w *Wallet) Accounts(context.Context) ([]common.Address, error) {
	return []common.Address{w.Address()}, nil
}

// ChainID implements extension.Extension.
func (w *Wallet) ChainID(context.Context) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chainID, nil
}

// SwitchChain implements extension.Extension.
func (w *Wallet) SwitchChain(_ context.Context, chainID uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.reject != nil {
		return w.reject
	}
	w.chainID = chainID
	return nil
}

// AddChain implements extension.Extension.
func (w *Wallet) AddChain(context.Context, network.Descriptor) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reject
}

// SignTransaction implements extension.Extension.
func (w *Wallet) SignTransaction(_ context.Context, _ common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.reject != nil {
		return nil, w.reject
	}
	w.signed++
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), w.key)
}

// Emit delivers an event to the current subscriber.
func (w *Wallet) Emit(ev extension.Event) {
	w.events <- ev
}

// Subscribe implements extension.Extension.
func (w *Wallet) Subscribe(context.Context) (extension.Subscription, error) {
	return &subscription{events: w.events, done: make(chan struct{})}, nil
}

type subscription struct {
	once   sync.Once
	stop   sync.Once
	events chan extension.Event
	done   chan struct{}
	out    chan extension.Event
}

func (s *subscription) Events() <-chan extension.Event {
	s.once.Do(s.start)
	return s.out
}

func (s *subscription) start() {
	s.out = make(chan extension.Event)
	go func() {
		defer close(s.out)
		for {
			select {
			case ev := <-s.events:
				select {
				case s.out <- ev:
				case <-s.done:
					return
				}
			case <-s.done:
				return
			}
		}
	}()
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.start)
	s.stop.Do(func() { close(s.done) })
}
