// Package session owns the wallet connection lifecycle.
//
// A Manager moves one wallet session between Disconnected, Connecting,
// WrongChain and Connected. Readers get immutable Snapshots; only the
// Manager's transitions write. A failure is an annotation on Disconnected
// (Snapshot.Error) rather than a state of its own.
package session

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// State is a position in the connection lifecycle.
type State int

// Session states.
const (
	Disconnected State = iota
	Connecting
	WrongChain
	Connected
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case WrongChain:
		return "wrong_chain"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// inFlight reports whether a connect attempt owns the session.
func (s State) inFlight() bool {
	return s == Connecting || s == WrongChain
}

// Snapshot is a consistent copy of the session. Zero values stand for
// "none": a zero Address, a nil Signer or Provider, ChainID 0, empty Error.
type Snapshot struct {
	State       State
	IsConnected bool
	Address     common.Address
	Signer      *Signer
	Provider    Provider
	ChainID     uint64
	Error       string
}

// HasAddress reports whether an account is bound.
func (s Snapshot) HasAddress() bool {
	return s.Address != (common.Address{})
}

// String renders a snapshot for logs and the status command.
func (s Snapshot) String() string {
	switch {
	case s.IsConnected:
		return fmt.Sprintf("%s %s on chain %d", s.State, s.Address.Hex(), s.ChainID)
	case s.Error != "":
		return fmt.Sprintf("%s: %s", s.State, s.Error)
	default:
		return s.State.String()
	}
}
