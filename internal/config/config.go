// Package config provides configuration management for scout.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/talentscout/scout/internal/fileutil"
	"github.com/talentscout/scout/internal/network"
	scouterr "github.com/talentscout/scout/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	Version   int             `yaml:"version"`
	Home      string          `yaml:"home"`
	Chain     ChainConfig     `yaml:"chain"`
	Wallet    WalletConfig    `yaml:"wallet"`
	Contracts ContractsConfig `yaml:"contracts"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ChainConfig defines the network the wallet must be connected to.
type ChainConfig struct {
	ChainID          uint64 `yaml:"chain_id"`
	Name             string `yaml:"name"`
	CurrencyName     string `yaml:"currency_name"`
	CurrencySymbol   string `yaml:"currency_symbol"`
	CurrencyDecimals int    `yaml:"currency_decimals"`
	RPC              string `yaml:"rpc"`
	Explorer         string `yaml:"explorer"`
}

// WalletConfig defines how scout reaches the user's wallet.
type WalletConfig struct {
	// Endpoint is the wallet's JSON-RPC endpoint (ws://, http:// or an IPC path).
	Endpoint            string `yaml:"endpoint"`
	AutoRestore         bool   `yaml:"auto_restore"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
	TimeoutSeconds      int    `yaml:"timeout_seconds"`
}

// ContractsConfig defines the addresses of the contracts scout calls.
type ContractsConfig struct {
	Registry string `yaml:"registry"`
}

// DiscoveryConfig defines creator catalog settings.
type DiscoveryConfig struct {
	Catalog           string  `yaml:"catalog"`
	Concurrency       int     `yaml:"concurrency"`
	RatePerSecond     float64 `yaml:"rate_per_second"`
	PriceCacheMinutes int     `yaml:"price_cache_minutes"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return fileutil.WriteAtomic(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// DefaultHome returns the default scout home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".scout"
	}
	return filepath.Join(home, ".scout")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Descriptor returns the expected network descriptor.
func (c *Config) Descriptor() network.Descriptor {
	return network.Descriptor{
		ChainID: c.Chain.ChainID,
		Name:    c.Chain.Name,
		Currency: network.Currency{
			Name:     c.Chain.CurrencyName,
			Symbol:   c.Chain.CurrencySymbol,
			Decimals: c.Chain.CurrencyDecimals,
		},
		RPCURL:      c.Chain.RPC,
		ExplorerURL: c.Chain.Explorer,
	}
}

// Validate checks the configuration for values scout cannot work with.
func (c *Config) Validate() error {
	if err := c.Descriptor().Validate(); err != nil {
		return err
	}
	if !common.IsHexAddress(c.Contracts.Registry) {
		return scouterr.WithDetails(scouterr.ErrConfigInvalid, map[string]string{
			"field":  "contracts.registry",
			"reason": "must be a hex address",
		})
	}
	if c.Discovery.Concurrency < 1 {
		return scouterr.WithDetails(scouterr.ErrConfigInvalid, map[string]string{
			"field":  "discovery.concurrency",
			"reason": "must be at least 1",
		})
	}
	return nil
}

// GetHome returns the scout home directory path.
func (c *Config) GetHome() string {
	return c.Home
}

// GetRPC returns the chain RPC URL.
func (c *Config) GetRPC() string {
	return c.Chain.RPC
}

// GetWalletEndpoint returns the wallet JSON-RPC endpoint.
func (c *Config) GetWalletEndpoint() string {
	return c.Wallet.Endpoint
}

// GetRegistryAddress returns the developer registry address.
func (c *Config) GetRegistryAddress() string {
	return c.Contracts.Registry
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetLoggingFile returns the configured log file path.
func (c *Config) GetLoggingFile() string {
	return c.Logging.File
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}

// CatalogPath returns the creator catalog path, resolved against the home directory.
func (c *Config) CatalogPath() string {
	p := ExpandHome(c.Discovery.Catalog)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(ExpandHome(c.Home), p)
}
