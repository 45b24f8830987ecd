// Package trading buys and sells creator tokens through the connected wallet.
package trading

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/talentscout/scout/internal/chain"
	"github.com/talentscout/scout/internal/contracts"
	"github.com/talentscout/scout/internal/metrics"
	"github.com/talentscout/scout/internal/network"
	scouterr "github.com/talentscout/scout/pkg/errors"
)

// TokenDecimals is the precision of every creator token.
const TokenDecimals = 18

// Service sends trades.
type Service struct {
	desc    network.Descriptor
	prices  CacheProvider
	logger  LogWriter
	metrics *metrics.Metrics
}

// Config holds dependencies for the trading service.
type Config struct {
	Descriptor network.Descriptor
	Prices     CacheProvider
	Logger     LogWriter
	Metrics    *metrics.Metrics
}

// NewService creates a new trading service.
func NewService(cfg *Config) *Service {
	m := cfg.Metrics
	if m == nil {
		m = metrics.Global
	}
	return &Service{
		desc:    cfg.Descriptor,
		prices:  cfg.Prices,
		logger:  cfg.Logger,
		metrics: m,
	}
}

// Trade sends req from signer. A nil signer means the wallet is not connected.
func (s *Service) Trade(ctx context.Context, signer SignerProvider, req *Request) (*Result, error) {
	if signer == nil {
		return nil, scouterr.ErrNotConnected
	}
	if req.Token == (common.Address{}) {
		return nil, scouterr.WithDetails(scouterr.ErrInvalidAddress, map[string]string{"token": "missing"})
	}

	amount, err := s.parseAmount(req)
	if err != nil {
		return nil, err
	}

	token := contracts.NewCreatorToken(req.Token, signer.Provider(), contracts.WithMetrics(s.metrics))
	if req.Side == Sell {
		if err := checkBalance(ctx, token, signer.Address(), amount); err != nil {
			return nil, err
		}
	}

	s.debug("trade: %s %s of %s from %s", req.Side, req.Amount, req.Token.Hex(), signer.Address().Hex())

	opts := signer.TransactOpts(ctx)
	var tx *types.Transaction
	switch req.Side {
	case Buy:
		tx, err = token.Buy(opts, amount)
	case Sell:
		tx, err = token.Sell(opts, amount)
	}
	if err != nil {
		s.logError("trade: %s failed: %v", req.Side, err)
		return nil, err
	}

	s.invalidatePrice(req.Token)

	result := &Result{
		Side:        req.Side,
		Hash:        tx.Hash().Hex(),
		From:        signer.Address().Hex(),
		Token:       req.Token.Hex(),
		Amount:      req.Amount,
		AmountWei:   amount.String(),
		Status:      StatusPending,
		ExplorerURL: s.desc.TxURL(tx.Hash().Hex()),
	}
	if !req.Wait {
		return result, nil
	}

	receipt, err := contracts.Wait(ctx, signer.Provider(), tx)
	if err != nil {
		s.logError("trade: %s %s not confirmed: %v", req.Side, result.Hash, err)
		return result, err
	}
	result.Status = StatusConfirmed
	result.GasUsed = receipt.GasUsed
	if receipt.BlockNumber != nil {
		result.BlockNumber = receipt.BlockNumber.Uint64()
	}
	return result, nil
}

func (s *Service) parseAmount(req *Request) (*big.Int, error) {
	var (
		amount *big.Int
		err    error
	)
	switch req.Side {
	case Buy:
		amount, err = chain.ParseAmount(req.Amount, s.desc.Currency.Decimals)
	case Sell:
		amount, err = chain.ParseAmount(req.Amount, TokenDecimals)
	default:
		return nil, scouterr.WithDetails(scouterr.ErrInvalidInput, map[string]string{"side": string(req.Side)})
	}
	if err != nil {
		return nil, err
	}
	if amount.Sign() <= 0 {
		return nil, scouterr.WithDetails(scouterr.ErrInvalidAmount, map[string]string{"amount": req.Amount})
	}
	return amount, nil
}

func checkBalance(ctx context.Context, token *contracts.CreatorToken, owner common.Address, amount *big.Int) error {
	balance, err := token.BalanceOf(ctx, owner)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return scouterr.WithDetails(scouterr.ErrInvalidAmount, map[string]string{
			"reason":    "exceeds token balance",
			"balance":   chain.FormatAmount(balance, TokenDecimals),
			"requested": chain.FormatAmount(amount, TokenDecimals),
		})
	}
	return nil
}

// invalidatePrice drops the cached price of token; the trade moved it.
func (s *Service) invalidatePrice(token common.Address) {
	if s.prices == nil {
		return
	}
	pc, err := s.prices.Load()
	if err != nil {
		s.logError("trade: loading price cache: %v", err)
		return
	}
	pc.Delete(s.desc.ChainID, token)
	if err := s.prices.Save(pc); err != nil {
		s.logError("trade: saving price cache: %v", err)
	}
}

func (s *Service) debug(format string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(format, args...)
	}
}

func (s *Service) logError(format string, args ...any) {
	if s.logger != nil {
		s.logger.Error(format, args...)
	}
}
