package config

import "github.com/talentscout/scout/internal/network"

// DefaultRegistryAddress is the developer registry deployment on Lens testnet.
const DefaultRegistryAddress = "0xebF5B72C11808aa2dFdc5Ef8A3Fce0930F388964"

// DefaultWalletEndpoint is Frame's local JSON-RPC endpoint.
const DefaultWalletEndpoint = "ws://127.0.0.1:1248"

// Defaults returns the default configuration.
func Defaults() *Config {
	lens := network.LensTestnet()

	return &Config{
		Version: 1,
		Home:    "~/.scout",
		Chain: ChainConfig{
			ChainID:          lens.ChainID,
			Name:             lens.Name,
			CurrencyName:     lens.Currency.Name,
			CurrencySymbol:   lens.Currency.Symbol,
			CurrencyDecimals: lens.Currency.Decimals,
			RPC:              lens.RPCURL,
			Explorer:         lens.ExplorerURL,
		},
		Wallet: WalletConfig{
			Endpoint:            DefaultWalletEndpoint,
			AutoRestore:         true,
			PollIntervalSeconds: 2,
			TimeoutSeconds:      120,
		},
		Contracts: ContractsConfig{
			Registry: DefaultRegistryAddress,
		},
		Discovery: DiscoveryConfig{
			Catalog:           "creators.yaml",
			Concurrency:       4,
			RatePerSecond:     5,
			PriceCacheMinutes: 5,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.scout/scout.log",
		},
	}
}
