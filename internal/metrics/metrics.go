// Package metrics provides application-level metrics collection.
// This is a lightweight metrics foundation using atomic counters.
package metrics

import (
	"sync/atomic"
	"time"
)

// ResetCause names why a wallet session was reset.
type ResetCause string

// Reset causes.
const (
	ResetExplicit        ResetCause = "disconnect"
	ResetAccountsChanged ResetCause = "accountsChanged"
	ResetChainChanged    ResetCause = "chainChanged"
)

// Metrics holds application metrics using atomic counters for thread safety.
type Metrics struct {
	// Contract and RPC reads/writes
	rpcCallsTotal   atomic.Int64
	rpcErrorsTotal  atomic.Int64
	rpcLatencyNanos atomic.Int64

	// Wallet session transitions
	connectAttempts  atomic.Int64
	connectSuccesses atomic.Int64
	connectFailures  atomic.Int64
	wrongChain       atomic.Int64
	staleDiscarded   atomic.Int64
	restoreAttempts  atomic.Int64
	explicitResets   atomic.Int64
	accountResets    atomic.Int64
	chainResets      atomic.Int64

	// Price cache
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
}

// Global is the global metrics instance.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordRPCCall records a chain call with its duration and success status.
func (m *Metrics) RecordRPCCall(duration time.Duration, err error) {
	m.rpcCallsTotal.Add(1)
	m.rpcLatencyNanos.Add(duration.Nanoseconds())
	if err != nil {
		m.rpcErrorsTotal.Add(1)
	}
}

// RecordConnectAttempt records the start of a connect or restore attempt.
func (m *Metrics) RecordConnectAttempt(restore bool) {
	if restore {
		m.restoreAttempts.Add(1)
		return
	}
	m.connectAttempts.Add(1)
}

// RecordConnectResult records how a committed attempt ended.
func (m *Metrics) RecordConnectResult(connected, wrongChain bool) {
	switch {
	case connected:
		m.connectSuccesses.Add(1)
	case wrongChain:
		m.wrongChain.Add(1)
		m.connectFailures.Add(1)
	default:
		m.connectFailures.Add(1)
	}
}

// RecordStaleDiscard records an attempt result dropped because it was superseded.
func (m *Metrics) RecordStaleDiscard() {
	m.staleDiscarded.Add(1)
}

// RecordReset records a session reset.
func (m *Metrics) RecordReset(cause ResetCause) {
	switch cause {
	case ResetAccountsChanged:
		m.accountResets.Add(1)
	case ResetChainChanged:
		m.chainResets.Add(1)
	default:
		m.explicitResets.Add(1)
	}
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	RPCCallsTotal    int64 `json:"rpc_calls_total"`
	RPCErrorsTotal   int64 `json:"rpc_errors_total"`
	RPCLatencyNanos  int64 `json:"rpc_latency_nanos"`
	ConnectAttempts  int64 `json:"connect_attempts"`
	ConnectSuccesses int64 `json:"connect_successes"`
	ConnectFailures  int64 `json:"connect_failures"`
	WrongChain       int64 `json:"wrong_chain"`
	StaleDiscarded   int64 `json:"stale_discarded"`
	RestoreAttempts  int64 `json:"restore_attempts"`
	ExplicitResets   int64 `json:"explicit_resets"`
	AccountResets    int64 `json:"account_resets"`
	ChainResets      int64 `json:"chain_resets"`
	CacheHits        int64 `json:"cache_hits"`
	CacheMisses      int64 `json:"cache_misses"`
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		RPCCallsTotal:    m.rpcCallsTotal.Load(),
		RPCErrorsTotal:   m.rpcErrorsTotal.Load(),
		RPCLatencyNanos:  m.rpcLatencyNanos.Load(),
		ConnectAttempts:  m.connectAttempts.Load(),
		ConnectSuccesses: m.connectSuccesses.Load(),
		ConnectFailures:  m.connectFailures.Load(),
		WrongChain:       m.wrongChain.Load(),
		StaleDiscarded:   m.staleDiscarded.Load(),
		RestoreAttempts:  m.restoreAttempts.Load(),
		ExplicitResets:   m.explicitResets.Load(),
		AccountResets:    m.accountResets.Load(),
		ChainResets:      m.chainResets.Load(),
		CacheHits:        m.cacheHits.Load(),
		CacheMisses:      m.cacheMisses.Load(),
	}
}

// RPCLatencyAvgMs returns the average call latency in milliseconds.
// Returns 0 if no calls have been made.
func (m *Metrics) RPCLatencyAvgMs() float64 {
	calls := m.rpcCallsTotal.Load()
	if calls == 0 {
		return 0
	}
	return float64(m.rpcLatencyNanos.Load()) / float64(calls) / 1e6
}

// CacheHitRate returns the cache hit rate as a percentage (0-100).
func (m *Metrics) CacheHitRate() float64 {
	hits := m.cacheHits.Load()
	total := hits + m.cacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// Reset resets all metrics to zero.
func (m *Metrics) Reset() {
	for _, c := range []*atomic.Int64{
		&m.rpcCallsTotal, &m.rpcErrorsTotal, &m.rpcLatencyNanos,
		&m.connectAttempts, &m.connectSuccesses, &m.connectFailures,
		&m.wrongChain, &m.staleDiscarded, &m.restoreAttempts,
		&m.explicitResets, &m.accountResets, &m.chainResets,
		&m.cacheHits, &m.cacheMisses,
	} {
		c.Store(0)
	}
}
