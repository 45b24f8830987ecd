// Package network describes the single chain scout expects the wallet to be on.
package network

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	scouterr "github.com/talentscout/scout/pkg/errors"
)

// Lens Network Sepolia Testnet.
const (
	LensTestnetChainID     = 37111
	LensTestnetName        = "Lens Network Sepolia Testnet"
	LensTestnetRPCURL      = "https://rpc.testnet.lens.dev"
	LensTestnetExplorerURL = "https://block-explorer.testnet.lens.dev"
	LensTestnetSymbol      = "GRASS"
)

// Currency is the native currency of a chain as wallets display it.
type Currency struct {
	Name     string `json:"name" yaml:"name"`
	Symbol   string `json:"symbol" yaml:"symbol"`
	Decimals int    `json:"decimals" yaml:"decimals"`
}

// Descriptor is everything a wallet needs to switch to, or add, a chain.
type Descriptor struct {
	ChainID     uint64   `json:"chain_id" yaml:"chain_id"`
	Name        string   `json:"name" yaml:"name"`
	Currency    Currency `json:"currency" yaml:"currency"`
	RPCURL      string   `json:"rpc_url" yaml:"rpc_url"`
	ExplorerURL string   `json:"explorer_url" yaml:"explorer_url"`
}

// AddChainParams is the EIP-3085 wallet_addEthereumChain parameter object.
type AddChainParams struct {
	ChainID           string   `json:"chainId"`
	ChainName         string   `json:"chainName"`
	NativeCurrency    Currency `json:"nativeCurrency"`
	RPCURLs           []string `json:"rpcUrls"`
	BlockExplorerURLs []string `json:"blockExplorerUrls,omitempty"`
}

// SwitchChainParams is the EIP-3326 wallet_switchEthereumChain parameter object.
type SwitchChainParams struct {
	ChainID string `json:"chainId"`
}

// LensTestnet returns the descriptor of Lens Network Sepolia Testnet.
func LensTestnet() Descriptor {
	return Descriptor{
		ChainID: LensTestnetChainID,
		Name:    LensTestnetName,
		Currency: Currency{
			Name:     LensTestnetSymbol,
			Symbol:   LensTestnetSymbol,
			Decimals: 18,
		},
		RPCURL:      LensTestnetRPCURL,
		ExplorerURL: LensTestnetExplorerURL,
	}
}

// HexChainID returns the chain id as a 0x-prefixed quantity.
func (d Descriptor) HexChainID() string {
	return hexutil.EncodeUint64(d.ChainID)
}

// AddChainParams builds the add-chain request for this descriptor.
func (d Descriptor) AddChainParams() AddChainParams {
	p := AddChainParams{
		ChainID:        d.HexChainID(),
		ChainName:      d.Name,
		NativeCurrency: d.Currency,
		RPCURLs:        []string{d.RPCURL},
	}
	if d.ExplorerURL != "" {
		p.BlockExplorerURLs = []string{d.ExplorerURL}
	}
	return p
}

// SwitchChainParams builds the switch-chain request for this descriptor.
func (d Descriptor) SwitchChainParams() SwitchChainParams {
	return SwitchChainParams{ChainID: d.HexChainID()}
}

// SwitchMessage is the user-facing message shown after any chain guard attempt.
func (d Descriptor) SwitchMessage() string {
	return fmt.Sprintf("please switch to %s and try again", d.Name)
}

// TxURL returns the explorer link for a transaction hash, or "" without an explorer.
func (d Descriptor) TxURL(hash string) string {
	if d.ExplorerURL == "" {
		return ""
	}
	return strings.TrimRight(d.ExplorerURL, "/") + "/tx/" + hash
}

// Validate checks that the descriptor is complete enough to hand to a wallet.
func (d Descriptor) Validate() error {
	invalid := func(field, reason string) error {
		return scouterr.WithDetails(scouterr.ErrConfigInvalid, map[string]string{
			"field":  field,
			"reason": reason,
		})
	}

	if d.ChainID == 0 {
		return invalid("chain_id", "must be non-zero")
	}
	if strings.TrimSpace(d.Name) == "" {
		return invalid("name", "must not be empty")
	}
	if strings.TrimSpace(d.Currency.Symbol) == "" {
		return invalid("currency.symbol", "must not be empty")
	}
	if d.Currency.Decimals < 0 || d.Currency.Decimals > 36 {
		return invalid("currency.decimals", "must be between 0 and 36")
	}
	if !isHTTPURL(d.RPCURL) {
		return invalid("rpc_url", "must be an http(s) URL")
	}
	if d.ExplorerURL != "" && !isHTTPURL(d.ExplorerURL) {
		return invalid("explorer_url", "must be an http(s) URL")
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
