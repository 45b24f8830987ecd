package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/mrz1836/go-sanitize"
)

// Environment variable names.
const (
	EnvHome            = "SCOUT_HOME"
	EnvWalletEndpoint  = "SCOUT_WALLET_ENDPOINT"
	EnvRPC             = "SCOUT_RPC_URL"
	EnvRegistry        = "SCOUT_REGISTRY_ADDRESS"
	EnvCatalog         = "SCOUT_CATALOG"
	EnvOutputFormat    = "SCOUT_OUTPUT_FORMAT"
	EnvVerbose         = "SCOUT_VERBOSE"
	EnvLogLevel        = "SCOUT_LOG_LEVEL"
	EnvAutoRestore     = "SCOUT_AUTO_RESTORE"
	EnvNoColor         = "NO_COLOR"
	EnvWalletTimeout   = "SCOUT_WALLET_TIMEOUT"
	EnvDiscoveryWorker = "SCOUT_DISCOVERY_CONCURRENCY"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
//
//nolint:gocognit,gocyclo // Environment variable overrides require sequential checks
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvWalletEndpoint); v != "" {
		cfg.Wallet.Endpoint = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvRPC); v != "" {
		cfg.Chain.RPC = SanitizeURL(v)
	}

	if v := os.Getenv(EnvRegistry); v != "" {
		cfg.Contracts.Registry = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvCatalog); v != "" {
		cfg.Discovery.Catalog = v
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	if v := os.Getenv(EnvAutoRestore); v != "" {
		cfg.Wallet.AutoRestore = parseBool(v)
	}

	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}

	if v := os.Getenv(EnvWalletTimeout); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Wallet.TimeoutSeconds = secs
		}
	}

	if v := os.Getenv(EnvDiscoveryWorker); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Discovery.Concurrency = n
		}
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// SanitizeURL cleans a URL string by removing invalid characters and trimming whitespace.
// RPC URLs pasted from dashboards often carry quotes or stray whitespace.
func SanitizeURL(url string) string {
	return sanitize.URL(strings.TrimSpace(url))
}
