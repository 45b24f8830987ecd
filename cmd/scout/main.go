// Package main is the entry point for the scout CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/talentscout/scout/internal/cli"
	"github.com/talentscout/scout/internal/version"
)

// Set by -ldflags at build time.
var (
	buildVersion = "" //nolint:gochecknoglobals // linker-injected
	buildCommit  = "" //nolint:gochecknoglobals // linker-injected
	buildDate    = "" //nolint:gochecknoglobals // linker-injected
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli.SetBuildInfo(version.BuildInfo{Version: buildVersion, Commit: buildCommit, Date: buildDate})
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
