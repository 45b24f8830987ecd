package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/talentscout/scout/internal/config"
	"github.com/talentscout/scout/internal/extension"
	"github.com/talentscout/scout/internal/metrics"
	"github.com/talentscout/scout/internal/network"
	scouterr "github.com/talentscout/scout/pkg/errors"
)

// watchBuffer is how many snapshots a slow watcher may fall behind before
// updates are dropped for it.
const watchBuffer = 8

// Manager owns one wallet session. All reads and writes go through mu, so a
// reader never sees a half-applied transition.
type Manager struct {
	mu      sync.Mutex
	snap    Snapshot
	err     error
	attempt uint64
	closed  bool

	// flagMu orders flag writes made after mu is released. flagSeq is
	// assigned under mu; a write older than flagWritten is skipped.
	flagMu      sync.Mutex
	flagSeq     uint64
	flagWritten uint64

	ext     extension.Extension
	desc    network.Descriptor
	dial    ProviderDialer
	flag    FlagStore
	logger  *config.Logger
	metrics *metrics.Metrics

	sub      extension.Subscription
	watchers map[chan Snapshot]struct{}
	done     chan struct{}
	wg       sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithProviderDialer replaces DialProvider.
func WithProviderDialer(dial ProviderDialer) Option {
	return func(m *Manager) {
		m.dial = dial
	}
}

// WithFlagStore sets where the "was connected" flag lives. The default
// keeps it in memory.
func WithFlagStore(flag FlagStore) Option {
	return func(m *Manager) {
		m.flag = flag
	}
}

// WithLogger sets the logger.
func WithLogger(logger *config.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMetrics sets the metrics sink. The default is metrics.Global.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

// NewManager creates a Disconnected session for desc and subscribes once to
// the wallet's account and chain events. A nil ext means no wallet is
// installed: the manager still works, and every Connect reports it.
func NewManager(ctx context.Context, ext extension.Extension, desc network.Descriptor, opts ...Option) (*Manager, error) {
	m := &Manager{
		ext:      ext,
		desc:     desc,
		dial:     DialProvider,
		flag:     &MemoryFlag{},
		metrics:  metrics.Global,
		watchers: make(map[chan Snapshot]struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = config.NullLogger()
	}

	if ext == nil {
		return m, nil
	}

	sub, err := ext.Subscribe(ctx)
	if err != nil {
		return nil, scouterr.Wrap(extension.Classify(err), "subscribing to wallet events")
	}
	m.sub = sub

	m.wg.Add(1)
	go m.handleEvents(sub)

	return m, nil
}

// Close unsubscribes from wallet events, stops the event goroutine and
// resets the session. The persisted flag is left alone.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.attempt++
	close(m.done)
	sub := m.sub
	m.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	m.wg.Wait()

	m.mu.Lock()
	old := m.resetLocked()
	m.mu.Unlock()
	closeProvider(old)
}

// Connect runs one connect attempt and returns the resulting snapshot.
// Failures never escape as errors; they land in Snapshot.Error, and the
// typed error is available from Err. A call made while another attempt is
// in flight returns the current snapshot and changes nothing.
func (m *Manager) Connect(ctx context.Context) Snapshot {
	m.mu.Lock()
	if m.closed || m.snap.State.inFlight() {
		snap := m.snap
		m.mu.Unlock()
		return snap
	}

	m.metrics.RecordConnectAttempt(false)

	if m.ext == nil {
		m.attempt++
		old := m.resetLocked()
		m.failLocked(scouterr.ErrExtensionAbsent)
		m.publishLocked()
		snap := m.snap
		m.mu.Unlock()
		closeProvider(old)
		m.metrics.RecordConnectResult(false, false)
		return snap
	}

	token, old := m.beginLocked()
	m.mu.Unlock()
	closeProvider(old)

	out := m.establish(ctx, token, false)
	return m.commit(token, out, false)
}

// Restore silently reconnects a session that ended connected last time.
// It uses the already-authorized accounts, never prompts, never switches or
// adds chains, and on any failure stays Disconnected without reporting a new error.
func (m *Manager) Restore(ctx context.Context) Snapshot {
	m.mu.Lock()
	if m.closed || m.ext == nil || m.snap.State != Disconnected || !m.flag.Connected() {
		snap := m.snap
		m.mu.Unlock()
		return snap
	}

	m.metrics.RecordConnectAttempt(true)
	token, old := m.beginLocked()
	m.mu.Unlock()
	closeProvider(old)

	out := m.establish(ctx, token, true)
	return m.commit(token, out, true)
}

// Disconnect clears the session, invalidates any in-flight attempt and
// clears the persisted flag.
func (m *Manager) Disconnect() Snapshot {
	m.mu.Lock()
	m.attempt++
	old := m.resetLocked()
	seq := m.nextFlagLocked()
	m.publishLocked()
	snap := m.snap
	m.mu.Unlock()

	m.persistFlag(seq, false)
	closeProvider(old)
	m.metrics.RecordReset(metrics.ResetExplicit)
	m.logger.Debug("session: disconnected")
	return snap
}

// Watch returns a channel of snapshots published after every transition.
// The channel closes when ctx is done or the manager is closed. Updates are
// dropped for a watcher that falls behind.
func (m *Manager) Watch(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, watchBuffer)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		close(ch)
		return ch
	}
	m.watchers[ch] = struct{}{}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		select {
		case <-ctx.Done():
		case <-m.done:
		}
		m.mu.Lock()
		delete(m.watchers, ch)
		close(ch)
		m.mu.Unlock()
	}()
	return ch
}

// Snapshot returns a consistent copy of the session.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

// State returns the current state.
func (m *Manager) State() State { return m.Snapshot().State }

// IsConnected reports whether a signer is bound on the expected chain.
func (m *Manager) IsConnected() bool { return m.Snapshot().IsConnected }

// Address returns the connected account, or the zero address.
func (m *Manager) Address() common.Address { return m.Snapshot().Address }

// Signer returns the bound signer, or nil.
func (m *Manager) Signer() *Signer { return m.Snapshot().Signer }

// Provider returns the session's provider, or nil.
func (m *Manager) Provider() Provider { return m.Snapshot().Provider }

// ChainID returns the connected chain, or 0.
func (m *Manager) ChainID() uint64 { return m.Snapshot().ChainID }

// Error returns the last user-facing failure message, or "".
func (m *Manager) Error() string { return m.Snapshot().Error }

// Err returns the typed error behind Error, or nil.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Descriptor returns the chain the session expects.
func (m *Manager) Descriptor() network.Descriptor {
	return m.desc
}

// outcome is the result of one attempt, computed outside the lock.
type outcome struct {
	address  common.Address
	chainID  uint64
	provider Provider
	signer   *Signer
	err      error
}

// establish performs the wallet and network calls of one attempt.
func (m *Manager) establish(ctx context.Context, token uint64, restore bool) outcome {
	var (
		accounts []common.Address
		err      error
	)
	start := time.Now()
	if restore {
		accounts, err = m.ext.Accounts(ctx)
	} else {
		accounts, err = m.ext.RequestAccounts(ctx)
	}
	m.metrics.RecordRPCCall(time.Since(start), err)
	if err != nil {
		return outcome{err: extension.Classify(err)}
	}
	if len(accounts) == 0 {
		return outcome{err: scouterr.ErrNoAccounts}
	}

	start = time.Now()
	chainID, err := m.ext.ChainID(ctx)
	m.metrics.RecordRPCCall(time.Since(start), err)
	if err != nil {
		return outcome{err: networkFailure(err)}
	}

	if chainID != m.desc.ChainID {
		wrong := scouterr.WithMessage(scouterr.ErrWrongChain, m.desc.SwitchMessage())
		if restore {
			return outcome{err: wrong}
		}
		m.logger.Debug("session: wallet on chain %d, expected %d", chainID, m.desc.ChainID)
		if !m.enterWrongChain(token) {
			return outcome{err: wrong}
		}
		m.guardChain(ctx)
		return outcome{err: wrong}
	}

	provider, err := m.dial(ctx, m.desc)
	if err != nil {
		return outcome{err: networkFailure(err)}
	}

	return outcome{
		address:  accounts[0],
		chainID:  chainID,
		provider: provider,
		signer:   NewSigner(m.ext, accounts[0], chainID, provider),
	}
}

// guardChain asks the wallet to switch to the expected chain, adding the
// chain first when the wallet does not know it. Its result never marks the
// session connected; the user has to connect again.
func (m *Manager) guardChain(ctx context.Context) {
	start := time.Now()
	err := m.ext.SwitchChain(ctx, m.desc.ChainID)
	m.metrics.RecordRPCCall(time.Since(start), err)

	if extension.IsChainUnknown(err) {
		m.logger.Debug("session: wallet does not know chain %d, adding it", m.desc.ChainID)
		start = time.Now()
		err = m.ext.AddChain(ctx, m.desc)
		m.metrics.RecordRPCCall(time.Since(start), err)
		if err == nil {
			start = time.Now()
			err = m.ext.SwitchChain(ctx, m.desc.ChainID)
			m.metrics.RecordRPCCall(time.Since(start), err)
		}
	}

	if err != nil {
		m.logger.Debug("session: chain switch failed: %v", extension.Classify(err))
	}
}

// commit applies out if token still owns the session and discards it otherwise.
func (m *Manager) commit(token uint64, out outcome, restore bool) Snapshot {
	m.mu.Lock()
	if token != m.attempt || !m.snap.State.inFlight() {
		snap := m.snap
		m.mu.Unlock()
		closeProvider(out.provider)
		m.metrics.RecordStaleDiscard()
		m.logger.Debug("session: discarded stale attempt %d", token)
		return snap
	}

	wrongChain := errors.Is(out.err, scouterr.ErrWrongChain)

	var seq uint64
	switch {
	case out.err == nil:
		m.snap = Snapshot{
			State:       Connected,
			IsConnected: true,
			Address:     out.address,
			Signer:      out.signer,
			Provider:    out.provider,
			ChainID:     out.chainID,
		}
		m.err = nil
		seq = m.nextFlagLocked()
		m.logger.Debug("session: connected %s on chain %d", out.address.Hex(), out.chainID)
	case restore:
		m.snap = Snapshot{State: Disconnected, Error: m.snap.Error}
		m.logger.Debug("session: restore skipped: %v", out.err)
	default:
		m.failLocked(out.err)
	}

	m.publishLocked()
	snap := m.snap
	m.mu.Unlock()

	if seq != 0 {
		m.persistFlag(seq, true)
	}
	m.metrics.RecordConnectResult(out.err == nil, wrongChain)
	return snap
}

// handleEvents resets the session on every wallet notification until the
// subscription ends.
func (m *Manager) handleEvents(sub extension.Subscription) {
	defer m.wg.Done()
	for ev := range sub.Events() {
		cause := metrics.ResetAccountsChanged
		if ev.Kind == extension.ChainChanged {
			cause = metrics.ResetChainChanged
		}
		m.reset(cause)
	}
}

// reset is Disconnect without touching the persisted flag.
func (m *Manager) reset(cause metrics.ResetCause) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.attempt++
	old := m.resetLocked()
	m.publishLocked()
	m.mu.Unlock()

	closeProvider(old)
	m.metrics.RecordReset(cause)
	m.logger.Debug("session: reset on %s", cause)
}

// enterWrongChain moves an attempt that still owns the session to WrongChain.
func (m *Manager) enterWrongChain(token uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token != m.attempt || m.snap.State != Connecting {
		return false
	}
	m.snap.State = WrongChain
	m.publishLocked()
	return true
}

// beginLocked starts a new attempt and returns its token together with the
// provider it displaced. The last failure stays visible until the attempt
// commits.
func (m *Manager) beginLocked() (uint64, Provider) {
	m.attempt++
	msg, err := m.snap.Error, m.err
	old := m.resetLocked()
	m.snap.State = Connecting
	m.snap.Error, m.err = msg, err
	m.publishLocked()
	m.logger.Debug("session: connecting (attempt %d)", m.attempt)
	return m.attempt, old
}

// resetLocked clears the session to Disconnected with no error and returns
// the provider that was bound.
func (m *Manager) resetLocked() Provider {
	old := m.snap.Provider
	m.snap = Snapshot{State: Disconnected}
	m.err = nil
	return old
}

func (m *Manager) failLocked(err error) {
	m.snap = Snapshot{State: Disconnected, Error: err.Error()}
	m.err = err
	m.logger.Error("session: connect failed: %v", err)
}

// nextFlagLocked reserves the sequence number of a flag write.
func (m *Manager) nextFlagLocked() uint64 {
	m.flagSeq++
	return m.flagSeq
}

// persistFlag writes the flag outside mu. Writes land in sequence order.
func (m *Manager) persistFlag(seq uint64, connected bool) {
	m.flagMu.Lock()
	defer m.flagMu.Unlock()
	if seq <= m.flagWritten {
		return
	}
	m.flagWritten = seq
	if err := m.flag.SetConnected(connected); err != nil {
		m.logger.Error("session: %v", err)
	}
}

func (m *Manager) publishLocked() {
	for ch := range m.watchers {
		select {
		case ch <- m.snap:
		default:
		}
	}
}

// networkFailure classifies a failed network or chain query.
func networkFailure(err error) error {
	classified := extension.Classify(err)
	if errors.Is(classified, scouterr.ErrUnknown) {
		return scouterr.Because(scouterr.ErrNetworkQueryFailed, err)
	}
	return classified
}

func closeProvider(p Provider) {
	if p != nil {
		p.Close()
	}
}
