package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

const (
	// chainReadTimeout bounds read-only chain commands.
	chainReadTimeout = 30 * time.Second
	// tradeTimeout covers the wallet prompt plus waiting for the receipt.
	tradeTimeout = 5 * time.Minute
	// defaultWalletTimeout applies when wallet.timeout_seconds is unset.
	defaultWalletTimeout = 2 * time.Minute
)

// walletTimeout bounds commands that may wait on a wallet prompt.
func (c *CommandContext) walletTimeout() time.Duration {
	if c.Cfg.Wallet.TimeoutSeconds <= 0 {
		return defaultWalletTimeout
	}
	return time.Duration(c.Cfg.Wallet.TimeoutSeconds) * time.Second
}

// contextWithTimeout derives a deadline from the command's context, which
// carries the interrupt signal from main. A non-positive d only adds
// cancellation.
func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	if d <= 0 {
		return context.WithCancel(base)
	}
	return context.WithTimeout(base, d)
}
