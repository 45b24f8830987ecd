// Package cli implements the scout command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/talentscout/scout/internal/config"
	"github.com/talentscout/scout/internal/output"
	"github.com/talentscout/scout/internal/version"
	scouterr "github.com/talentscout/scout/pkg/errors"
)

var (
	// Global flags
	homeDir      string
	outputFormat string
	colorMode    string
	verbose      bool

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *config.Logger
	formatter *output.Formatter

	buildInfo version.BuildInfo
	helpOnce  sync.Once
)

// Command group IDs.
const (
	groupWallet   = "wallet"
	groupCreators = "creators"
	groupConfig   = "config"
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "scout",
	Short: "Discover developers and trade their creator tokens",
	Long: `Scout is a terminal client for the talent discovery network.

It connects to your wallet over JSON-RPC, keeps the session on the expected
network, lists analysed developers with their on-chain token prices, and
buys or sells creator tokens with the connected account.`,
	Example: `  scout connect
  scout creators list
  scout token buy 0x1234...abcd 0.01`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := initGlobals(); err != nil {
			return err
		}
		SetCmdContext(cmd, NewCommandContext(cfg, logger, formatter))
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// SetBuildInfo records the version details injected at build time.
func SetBuildInfo(info version.BuildInfo) {
	buildInfo = info
	rootCmd.Version = info.String()
}

// Execute runs the root command with ctx as the base of every command context.
func Execute(ctx context.Context) error {
	helpOnce.Do(func() {
		walkCommands(rootCmd, enrichParentLong)
	})

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		// Format and print error
		if formatter != nil {
			_ = output.FormatError(os.Stderr, err, formatter.Format())
		} else {
			_ = output.FormatError(os.Stderr, err, output.FormatText)
		}
		return err
	}
	return nil
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return scouterr.ExitCode(err)
}

// initGlobals initializes global configuration, logger, and formatter.
func initGlobals() error {
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}
	home = config.ExpandHome(home)

	var err error
	cfg, err = config.Load(config.Path(home))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return scouterr.WithDetails(scouterr.Because(scouterr.ErrConfigInvalid, err),
				map[string]string{"path": config.Path(home)})
		}
		cfg = config.Defaults()
	}
	cfg.Home = home

	config.ApplyEnvironment(cfg)

	// Flags win over file and environment.
	if homeDir != "" {
		cfg.Home = homeDir
	}
	cfg.Home = config.ExpandHome(cfg.Home)
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != "auto" {
		cfg.Output.DefaultFormat = outputFormat
	}
	if colorMode != "" {
		cfg.Output.Color = colorMode
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logLevel := config.ParseLogLevel(cfg.Logging.Level)
	logger, err = config.NewLogger(logLevel, cfg.Logging.File)
	if err != nil {
		logger = config.NullLogger()
	}

	explicitFormat := output.ParseFormat(cfg.Output.DefaultFormat)
	detectedFormat := output.DetectFormat(os.Stdout, explicitFormat)
	formatter = output.NewFormatter(detectedFormat, os.Stdout).
		WithColor(output.DetectColor(os.Stdout, cfg.Output.Color))

	return nil
}

// cleanup releases resources.
func cleanup() {
	if logger != nil {
		_ = logger.Close()
	}
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "scout data directory (default: ~/.scout)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "", "color mode: auto, always, never")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupWallet, Title: "Wallet Session:"},
		&cobra.Group{ID: groupCreators, Title: "Creators & Tokens:"},
		&cobra.Group{ID: groupConfig, Title: "Configuration:"},
	)
	rootCmd.SetHelpCommandGroupID(groupConfig)
	rootCmd.SetCompletionCommandGroupID(groupConfig)
}
