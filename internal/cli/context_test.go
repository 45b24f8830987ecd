package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentscout/scout/internal/config"
	"github.com/talentscout/scout/internal/metrics"
	"github.com/talentscout/scout/internal/output"
	scouterr "github.com/talentscout/scout/pkg/errors"
)

func TestNewCommandContext(t *testing.T) {
	cfg := config.Defaults()
	log := config.NullLogger()
	f := output.NewFormatter(output.FormatJSON, nil)

	cc := NewCommandContext(cfg, log, f)

	assert.Same(t, cfg, cc.Cfg)
	assert.Same(t, log, cc.Log)
	assert.Same(t, f, cc.Fmt)
	assert.Same(t, metrics.Global, cc.Metrics)
	assert.NotNil(t, cc.DialWallet)
	assert.NotNil(t, cc.DialProvider)
}

func TestCmdContextRoundTrip(t *testing.T) {
	cmd := &cobra.Command{}
	assert.Nil(t, GetCmdContext(cmd))

	cc := &CommandContext{Cfg: config.Defaults()}
	SetCmdContext(cmd, cc)
	assert.Same(t, cc, GetCmdContext(cmd))

	// A context without the key yields nil.
	cmd.SetContext(context.Background())
	assert.Nil(t, GetCmdContext(cmd))
}

func TestCommandContext_FormatterFor(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	cc := &CommandContext{}
	f := cc.formatterFor(cmd)
	assert.Equal(t, output.FormatText, f.Format())
	assert.False(t, f.Color())

	cc.Fmt = output.NewFormatter(output.FormatText, nil).WithColor(true)
	f = cc.formatterFor(cmd)
	assert.Equal(t, output.FormatText, f.Format())
	assert.True(t, f.Color())

	// JSON never carries color.
	cc.Fmt = output.NewFormatter(output.FormatJSON, nil).WithColor(true)
	f = cc.formatterFor(cmd)
	assert.Equal(t, output.FormatJSON, f.Format())
	assert.False(t, f.Color())

	require.NoError(t, f.Print(map[string]string{"a": "b"}))
	assert.Contains(t, buf.String(), `"a": "b"`)
}

func TestCommandContext_Timeouts(t *testing.T) {
	cfg := config.Defaults()
	cc := &CommandContext{Cfg: cfg}

	assert.Equal(t, 120*time.Second, cc.walletTimeout())
	assert.Equal(t, 2*time.Second, cc.pollInterval())

	cfg.Wallet.TimeoutSeconds = 0
	assert.Equal(t, 2*time.Minute, cc.walletTimeout())
}

func TestParseAddress(t *testing.T) {
	addr, err := parseAddress("token", "  0x00000000000000000000000000000000000070cc ")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x70cc"), addr)

	_, err = parseAddress("token", "0x70cc")
	require.ErrorIs(t, err, scouterr.ErrInvalidAddress)

	var se *scouterr.ScoutError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "0x70cc", se.Details["token"])
}

func TestOpenSession_WalletAbsent(t *testing.T) {
	env := newTestEnv(t)
	env.walletAbsent = true

	m, closeFn, err := env.cc.OpenSession(context.Background(), true)
	require.NoError(t, err)
	defer closeFn()

	assert.False(t, m.IsConnected())
	_, err = requireConnected(m)
	require.ErrorIs(t, err, scouterr.ErrNotConnected)
}

func TestContextWithTimeout(t *testing.T) {
	cmd := &cobra.Command{}

	ctx, cancel := contextWithTimeout(cmd, time.Minute)
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
	cancel()
	require.ErrorIs(t, ctx.Err(), context.Canceled)

	ctx, cancel = contextWithTimeout(cmd, 0)
	defer cancel()
	_, ok = ctx.Deadline()
	assert.False(t, ok)
}
