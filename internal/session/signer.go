package session

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/talentscout/scout/internal/extension"
	scouterr "github.com/talentscout/scout/pkg/errors"
)

// Signer submits transactions for one account on one chain. Signing is
// delegated to the wallet; scout never holds key material.
type Signer struct {
	ext      extension.Extension
	address  common.Address
	chainID  uint64
	provider Provider
}

// NewSigner binds a wallet account to a chain and a provider.
func NewSigner(ext extension.Extension, address common.Address, chainID uint64, provider Provider) *Signer {
	return &Signer{
		ext:      ext,
		address:  address,
		chainID:  chainID,
		provider: provider,
	}
}

// Address returns the signing account.
func (s *Signer) Address() common.Address {
	return s.address
}

// ChainID returns the chain the signer is bound to.
func (s *Signer) ChainID() *big.Int {
	return new(big.Int).SetUint64(s.chainID)
}

// Provider returns the backend transactions are sent through.
func (s *Signer) Provider() Provider {
	return s.provider
}

// SignTx asks the wallet to sign tx.
func (s *Signer) SignTx(ctx context.Context, tx *types.Transaction) (*types.Transaction, error) {
	signed, err := s.ext.SignTransaction(ctx, s.address, tx, s.ChainID())
	if err != nil {
		return nil, extension.Classify(err)
	}
	return signed, nil
}

// TransactOpts returns options for contract writes signed by the wallet.
func (s *Signer) TransactOpts(ctx context.Context) *bind.TransactOpts {
	return &bind.TransactOpts{
		From:    s.address,
		Context: ctx,
		Signer: func(from common.Address, tx *types.Transaction) (*types.Transaction, error) {
			if from != s.address {
				return nil, scouterr.WithDetails(scouterr.ErrInvalidAddress, map[string]string{"signer": from.Hex()})
			}
			return s.SignTx(ctx, tx)
		},
	}
}
