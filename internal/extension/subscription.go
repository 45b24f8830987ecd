package extension

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// codeMethodNotFound is the JSON-RPC code for an unknown method.
const codeMethodNotFound = -32601

// eventBuffer is how many events may queue before the producer blocks.
const eventBuffer = 16

// subscription is the shared Subscription implementation. The producer
// goroutine owns the events channel and closes it on exit.
type subscription struct {
	events chan Event
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
	stop   func()
}

func newSubscription(cancel context.CancelFunc, stop func()) *subscription {
	return &subscription{
		events: make(chan Event, eventBuffer),
		cancel: cancel,
		done:   make(chan struct{}),
		stop:   stop,
	}
}

func (s *subscription) Events() <-chan Event {
	return s.events
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		if s.stop != nil {
			s.stop()
		}
		<-s.done
	})
}

// emit delivers ev unless the subscription is being torn down.
func (s *subscription) emit(ctx context.Context, ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Client) subscribePush(ctx context.Context) (Subscription, error) {
	accountsCh := make(chan []common.Address)
	chainCh := make(chan hexutil.Uint64)

	accountsSub, err := c.rpc.EthSubscribe(ctx, accountsCh, string(AccountsChanged))
	if err != nil {
		return nil, err
	}
	chainSub, err := c.rpc.EthSubscribe(ctx, chainCh, string(ChainChanged))
	if err != nil {
		accountsSub.Unsubscribe()
		return nil, err
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	sub := newSubscription(cancel, func() {
		accountsSub.Unsubscribe()
		chainSub.Unsubscribe()
	})

	go func() {
		defer close(sub.done)
		defer close(sub.events)

		for {
			select {
			case accounts := <-accountsCh:
				if !sub.emit(loopCtx, Event{Kind: AccountsChanged, Accounts: accounts}) {
					return
				}
			case id := <-chainCh:
				if !sub.emit(loopCtx, Event{Kind: ChainChanged, ChainID: uint64(id)}) {
					return
				}
			case <-accountsSub.Err():
				return
			case <-chainSub.Err():
				return
			case <-loopCtx.Done():
				return
			}
		}
	}()

	return sub, nil
}

func (c *Client) subscribePoll(ctx context.Context) (Subscription, error) {
	// Baseline so the first tick only reports real changes.
	accounts, err := c.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, err
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	sub := newSubscription(cancel, nil)

	go func() {
		defer close(sub.done)
		defer close(sub.events)

		ticker := time.NewTicker(c.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
			}

			pollCtx, pollCancel := context.WithTimeout(loopCtx, c.pollInterval)
			nextAccounts, accErr := c.Accounts(pollCtx)
			nextChain, chainErr := c.ChainID(pollCtx)
			pollCancel()

			if accErr == nil && !slices.Equal(accounts, nextAccounts) {
				accounts = nextAccounts
				if !sub.emit(loopCtx, Event{Kind: AccountsChanged, Accounts: nextAccounts}) {
					return
				}
			}
			if chainErr == nil && nextChain != chainID {
				chainID = nextChain
				if !sub.emit(loopCtx, Event{Kind: ChainChanged, ChainID: nextChain}) {
					return
				}
			}
		}
	}()

	return sub, nil
}

func isNotificationsUnsupported(err error) bool {
	if errors.Is(err, gethrpc.ErrNotificationsUnsupported) {
		return true
	}
	var rpcErr gethrpc.Error
	return errors.As(err, &rpcErr) && rpcErr.ErrorCode() == codeMethodNotFound
}
