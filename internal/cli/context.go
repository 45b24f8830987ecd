package cli

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/talentscout/scout/internal/cache"
	"github.com/talentscout/scout/internal/config"
	"github.com/talentscout/scout/internal/contracts"
	"github.com/talentscout/scout/internal/metrics"
	"github.com/talentscout/scout/internal/output"
	"github.com/talentscout/scout/internal/session"
	scouterr "github.com/talentscout/scout/pkg/errors"
)

type cmdContextKey struct{}

// CommandContext holds dependencies for CLI commands.
type CommandContext struct {
	Cfg     *config.Config
	Log     *config.Logger
	Fmt     *output.Formatter
	Metrics *metrics.Metrics

	DialWallet   WalletDialer
	DialProvider session.ProviderDialer
}

// NewCommandContext creates a context with the given dependencies and the
// real wallet and chain dialers.
func NewCommandContext(cfg *config.Config, logger *config.Logger, formatter *output.Formatter) *CommandContext {
	return &CommandContext{
		Cfg:          cfg,
		Log:          logger,
		Fmt:          formatter,
		Metrics:      metrics.Global,
		DialWallet:   DialWallet,
		DialProvider: session.DialProvider,
	}
}

// SetCmdContext stores cc in the command's context.
func SetCmdContext(cmd *cobra.Command, cc *CommandContext) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	cmd.SetContext(context.WithValue(base, cmdContextKey{}, cc))
}

// GetCmdContext returns the CommandContext stored by SetCmdContext, or nil.
func GetCmdContext(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	if ctx == nil {
		return nil
	}
	cc, _ := ctx.Value(cmdContextKey{}).(*CommandContext)
	return cc
}

// logger returns the configured logger or a discarding one.
func (c *CommandContext) logger() *config.Logger {
	if c.Log == nil {
		return config.NullLogger()
	}
	return c.Log
}

// formatterFor renders to the command's output stream in the configured format.
func (c *CommandContext) formatterFor(cmd *cobra.Command) *output.Formatter {
	format, color := output.FormatText, false
	if c.Fmt != nil {
		format, color = c.Fmt.Format(), c.Fmt.Color()
	}
	return output.NewFormatter(format, cmd.OutOrStdout()).WithColor(color)
}

// OpenSession builds a session manager against the configured wallet. An
// unreachable wallet is not an error here: the manager then reports the
// wallet as absent on Connect. With restore set and auto-restore enabled, a
// previously connected session is silently restored. The returned func
// releases the manager and the wallet connection.
func (c *CommandContext) OpenSession(ctx context.Context, restore bool) (*session.Manager, func(), error) {
	log := c.logger()

	ext, closeExt, err := c.DialWallet(ctx, c.Cfg.Wallet.Endpoint, c.pollInterval())
	if err != nil {
		log.Debug("wallet unavailable at %q: %v", c.Cfg.Wallet.Endpoint, err)
		ext, closeExt = nil, func() {}
	}

	m, err := session.NewManager(ctx, ext, c.Cfg.Descriptor(),
		session.WithProviderDialer(c.DialProvider),
		session.WithFlagStore(session.NewFileFlag(c.Cfg.Home)),
		session.WithLogger(log),
		session.WithMetrics(c.Metrics),
	)
	if err != nil {
		closeExt()
		return nil, nil, err
	}

	if restore && c.Cfg.Wallet.AutoRestore {
		m.Restore(ctx)
	}

	return m, func() {
		m.Close()
		closeExt()
	}, nil
}

func (c *CommandContext) pollInterval() time.Duration {
	return time.Duration(c.Cfg.Wallet.PollIntervalSeconds) * time.Second
}

// openProvider dials a read-only chain handle.
func (c *CommandContext) openProvider(ctx context.Context) (session.Provider, error) {
	return c.DialProvider(ctx, c.Cfg.Descriptor())
}

// registry binds the configured developer registry.
func (c *CommandContext) registry(backend session.Provider) (*contracts.Registry, error) {
	addr, err := parseAddress("registry", c.Cfg.Contracts.Registry)
	if err != nil {
		return nil, err
	}
	return contracts.NewRegistry(addr, backend, contracts.WithMetrics(c.Metrics)), nil
}

// priceStorage is the on-disk price cache.
func (c *CommandContext) priceStorage() *cache.FileStorage {
	return cache.NewFileStorage(filepath.Join(c.Cfg.Home, "cache", "prices.json"))
}

// parseAddress validates a hex address argument.
func parseAddress(field, s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, scouterr.WithDetails(scouterr.ErrInvalidAddress, map[string]string{field: s})
	}
	return common.HexToAddress(s), nil
}

// requireConnected returns the session's signer, or the reason there is none.
func requireConnected(m *session.Manager) (*session.Signer, error) {
	snap := m.Snapshot()
	if snap.IsConnected && snap.Signer != nil {
		return snap.Signer, nil
	}
	if err := m.Err(); err != nil {
		return nil, err
	}
	return nil, scouterr.ErrNotConnected
}
