package contracts

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Developer is a registry entry.
type Developer struct {
	IsRegistered   bool           `json:"is_registered"`
	TokenAddress   common.Address `json:"token_address"`
	GithubUsername string         `json:"github_username"`
	IsVerified     bool           `json:"is_verified"`
	CreatedAt      time.Time      `json:"created_at"`
}

// HasToken reports whether the developer is registered with a token deployed.
func (d Developer) HasToken() bool {
	return d.IsRegistered && d.TokenAddress != (common.Address{})
}

// Registry is the developer registry.
type Registry struct {
	bound
}

// NewRegistry binds the registry at address.
func NewRegistry(address common.Address, backend bind.ContractBackend, opts ...Option) *Registry {
	return &Registry{bound: newBound(address, RegistryABI, backend, opts)}
}

// GetDeveloper looks up the registry entry for a developer address.
// Unregistered addresses return a zero Developer, not an error.
func (r *Registry) GetDeveloper(ctx context.Context, developer common.Address) (Developer, error) {
	const method = "getDeveloperByAddress"

	out, err := r.call(ctx, method, developer)
	if err != nil {
		return Developer{}, err
	}
	if len(out) != 5 {
		return Developer{}, unexpectedOutput(method, out)
	}

	registered, ok1 := out[0].(bool)
	token, ok2 := out[1].(common.Address)
	username, ok3 := out[2].(string)
	verified, ok4 := out[3].(bool)
	created, ok5 := out[4].(*big.Int)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return Developer{}, unexpectedOutput(method, out)
	}

	d := Developer{
		IsRegistered:   registered,
		TokenAddress:   token,
		GithubUsername: username,
		IsVerified:     verified,
	}
	if created.Sign() > 0 && created.IsInt64() {
		d.CreatedAt = time.Unix(created.Int64(), 0).UTC()
	}
	return d, nil
}

// IsGithubRegistered reports whether a GitHub username is already claimed.
func (r *Registry) IsGithubRegistered(ctx context.Context, username string) (bool, error) {
	out, err := r.call(ctx, "isGithubRegistered", username)
	if err != nil {
		return false, err
	}
	return first[bool](out, "isGithubRegistered")
}
