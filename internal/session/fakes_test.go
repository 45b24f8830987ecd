package session

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/talentscout/scout/internal/extension"
	"github.com/talentscout/scout/internal/metrics"
	"github.com/talentscout/scout/internal/network"
)

// codedError is a provider error carrying an EIP-1193 code.
type codedError struct {
	code int
	msg  string
}

func (e *codedError) Error() string  { return e.msg }
func (e *codedError) ErrorCode() int { return e.code }

var (
	errRejected     = &codedError{code: extension.CodeUserRejected, msg: "User rejected the request."}
	errUnknownChain = &codedError{code: extension.CodeUnrecognizedChain, msg: "Unrecognized chain ID"}
)

// fakeExtension is a scriptable wallet. A non-nil gate makes RequestAccounts
// and Accounts block until the gate is closed.
type fakeExtension struct {
	mu sync.Mutex

	accounts []common.Address
	chainID  uint64

	requestErr  error
	accountsErr error
	chainErr    error
	addErr      error
	switchErrs  []error
	signErr     error
	gate        chan struct{}

	requestCalls  int
	accountsCalls int
	switchedTo    []uint64
	added         []network.Descriptor
	signCalls     int

	sub *fakeSubscription
}

func newFakeExtension(accounts ...common.Address) *fakeExtension {
	return &fakeExtension{
		accounts: accounts,
		chainID:  network.LensTestnetChainID,
	}
}

func (f *fakeExtension) waitGate(ctx context.Context) error {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeExtension) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	f.mu.Lock()
	f.requestCalls++
	f.mu.Unlock()
	if err := f.waitGate(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return append([]common.Address(nil), f.accounts...), nil
}

func (f *fakeExtension) Accounts(ctx context.Context) ([]common.Address, error) {
	f.mu.Lock()
	f.accountsCalls++
	f.mu.Unlock()
	if err := f.waitGate(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.accountsErr != nil {
		return nil, f.accountsErr
	}
	return append([]common.Address(nil), f.accounts...), nil
}

func (f *fakeExtension) ChainID(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chainErr != nil {
		return 0, f.chainErr
	}
	return f.chainID, nil
}

func (f *fakeExtension) SwitchChain(_ context.Context, chainID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.switchedTo = append(f.switchedTo, chainID)
	if len(f.switchErrs) == 0 {
		return nil
	}
	err := f.switchErrs[0]
	f.switchErrs = f.switchErrs[1:]
	return err
}

func (f *fakeExtension) AddChain(_ context.Context, desc network.Descriptor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, desc)
	return f.addErr
}

func (f *fakeExtension) SignTransaction(_ context.Context, _ common.Address, tx *types.Transaction, _ *big.Int) (*types.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signCalls++
	if f.signErr != nil {
		return nil, f.signErr
	}
	return tx, nil
}

func (f *fakeExtension) Subscribe(context.Context) (extension.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sub = &fakeSubscription{events: make(chan extension.Event)}
	return f.sub, nil
}

func (f *fakeExtension) emit(kind extension.EventKind) {
	f.mu.Lock()
	sub := f.sub
	f.mu.Unlock()
	sub.events <- extension.Event{Kind: kind}
}

func (f *fakeExtension) set(fn func(f *fakeExtension)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeExtension) counts() (request, accounts int, switched []uint64, added []network.Descriptor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requestCalls, f.accountsCalls,
		append([]uint64(nil), f.switchedTo...),
		append([]network.Descriptor(nil), f.added...)
}

type fakeSubscription struct {
	events chan extension.Event
	once   sync.Once
	closed atomic.Bool
}

func (s *fakeSubscription) Events() <-chan extension.Event { return s.events }

func (s *fakeSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.events)
	})
}

// fakeProvider satisfies Provider without a chain behind it.
type fakeProvider struct {
	closed atomic.Int32
}

func (p *fakeProvider) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return nil, nil
}

func (p *fakeProvider) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return nil, nil
}

func (p *fakeProvider) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{}, nil
}

func (p *fakeProvider) PendingCodeAt(context.Context, common.Address) ([]byte, error) {
	return nil, nil
}

func (p *fakeProvider) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 0, nil
}

func (p *fakeProvider) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (p *fakeProvider) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (p *fakeProvider) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 21000, nil
}

func (p *fakeProvider) SendTransaction(context.Context, *types.Transaction) error {
	return nil
}

func (p *fakeProvider) FilterLogs(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (p *fakeProvider) SubscribeFilterLogs(context.Context, ethereum.FilterQuery, chan<- types.Log) (ethereum.Subscription, error) {
	return nil, ethereum.NotFound
}

func (p *fakeProvider) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return nil, ethereum.NotFound
}

func (p *fakeProvider) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(network.LensTestnetChainID), nil
}

func (p *fakeProvider) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (p *fakeProvider) Close() {
	p.closed.Add(1)
}

// providerRecorder hands out fakeProviders and remembers them.
type providerRecorder struct {
	mu        sync.Mutex
	providers []*fakeProvider
	err       error
}

func (r *providerRecorder) dial(context.Context, network.Descriptor) (Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	p := &fakeProvider{}
	r.providers = append(r.providers, p)
	return p, nil
}

func (r *providerRecorder) all() []*fakeProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*fakeProvider(nil), r.providers...)
}

type harness struct {
	ext     *fakeExtension
	dialer  *providerRecorder
	flag    *MemoryFlag
	metrics *metrics.Metrics
	manager *Manager
}

func newHarness(t *testing.T, ext *fakeExtension) *harness {
	t.Helper()
	h := &harness{
		ext:     ext,
		dialer:  &providerRecorder{},
		flag:    &MemoryFlag{},
		metrics: &metrics.Metrics{},
	}

	var impl extension.Extension
	if ext != nil {
		impl = ext
	}
	m, err := NewManager(context.Background(), impl, network.LensTestnet(),
		WithProviderDialer(h.dialer.dial),
		WithFlagStore(h.flag),
		WithMetrics(h.metrics),
	)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	h.manager = m
	return h
}

// consistent reports whether IsConnected agrees with the identity fields.
func consistent(s Snapshot) bool {
	bound := s.HasAddress() && s.Signer != nil && s.ChainID == network.LensTestnetChainID
	return s.IsConnected == bound
}

// requireEmpty checks that no identity field is set.
func requireEmpty(t *testing.T, s Snapshot) {
	t.Helper()
	require.Equal(t, Disconnected, s.State)
	require.False(t, s.IsConnected)
	require.False(t, s.HasAddress())
	require.Nil(t, s.Signer)
	require.Nil(t, s.Provider)
	require.Zero(t, s.ChainID)
}

// gatedFlag reports each write on entered and holds it until release closes.
type gatedFlag struct {
	MemoryFlag
	entered chan bool
	release chan struct{}
}

func newGatedFlag() *gatedFlag {
	return &gatedFlag{
		entered: make(chan bool, 4),
		release: make(chan struct{}),
	}
}

func (g *gatedFlag) SetConnected(connected bool) error {
	g.entered <- connected
	<-g.release
	return g.MemoryFlag.SetConnected(connected)
}
