// Package contracts reads and writes the developer registry and the
// per-creator token contracts.
package contracts

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/talentscout/scout/internal/chain"
	"github.com/talentscout/scout/internal/metrics"
	scouterr "github.com/talentscout/scout/pkg/errors"
)

var (
	//go:embed abi/TalentRegistry.json
	registryABIJSON string

	//go:embed abi/CreatorToken.json
	creatorTokenABIJSON string

	// RegistryABI is the parsed developer registry interface.
	RegistryABI = mustParseABI(registryABIJSON)

	// CreatorTokenABI is the parsed creator token interface.
	CreatorTokenABI = mustParseABI(creatorTokenABIJSON)
)

// ErrNoContract indicates there is no contract code at the address.
var ErrNoContract = &scouterr.ScoutError{
	Code:     "NO_CONTRACT",
	Message:  "no contract deployed at address",
	ExitCode: scouterr.ExitNotFound,
}

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("contracts: invalid embedded ABI: " + err.Error())
	}
	return parsed
}

// Option configures a contract binding.
type Option func(*bound)

// WithMetrics sets the metrics sink. The default is metrics.Global.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *bound) {
		b.metrics = m
	}
}

// WithRetry sets the retry policy for reads.
func WithRetry(cfg chain.RetryConfig) Option {
	return func(b *bound) {
		b.retry = cfg
	}
}

// bound is the shared core of the contract bindings.
type bound struct {
	address  common.Address
	contract *bind.BoundContract
	metrics  *metrics.Metrics
	retry    chain.RetryConfig
}

func newBound(address common.Address, parsed abi.ABI, backend bind.ContractBackend, opts []Option) bound {
	b := bound{
		address:  address,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
		metrics:  metrics.Global,
		retry:    chain.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// call runs a read-only method, retrying transient failures.
func (b *bound) call(ctx context.Context, method string, args ...any) ([]any, error) {
	out, err := chain.RetryWithConfig(ctx, b.retry, func(ctx context.Context) ([]any, error) {
		var out []any
		start := time.Now()
		err := b.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...)
		b.metrics.RecordRPCCall(time.Since(start), err)
		return out, err
	})
	if err != nil {
		return nil, b.wrap(err, method)
	}
	return out, nil
}

func (b *bound) wrap(err error, method string) error {
	if errors.Is(err, bind.ErrNoCode) {
		return scouterr.WithDetails(ErrNoContract, map[string]string{"address": b.address.Hex()})
	}
	return scouterr.Wrap(err, "calling %s on %s", method, b.address.Hex())
}

// Address returns the contract address.
func (b *bound) Address() common.Address {
	return b.address
}

// first returns the single output of a call as T.
func first[T any](out []any, method string) (T, error) {
	var zero T
	if len(out) == 0 {
		return zero, unexpectedOutput(method, out)
	}
	v, ok := out[0].(T)
	if !ok {
		return zero, unexpectedOutput(method, out)
	}
	return v, nil
}

func unexpectedOutput(method string, out []any) error {
	return scouterr.New("UNEXPECTED_OUTPUT", fmt.Sprintf("%s returned unexpected values %v", method, out))
}
