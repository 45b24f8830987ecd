package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/talentscout/scout/internal/chain"
	"github.com/talentscout/scout/internal/output"
	"github.com/talentscout/scout/internal/session"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// watchConnect asks the watch loop to connect before it starts printing.
	watchConnect bool
)

// connectCmd connects the wallet.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect your wallet",
	Long: `Ask the wallet for an account and bind it to the expected network.

If the wallet is on another network, scout asks it to switch, adding the
network first when the wallet does not know it. The session is remembered
and restored silently by later commands.`,
	Example: `  scout connect
  scout connect -o json`,
	RunE: runConnect,
}

// disconnectCmd forgets the session.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var disconnectCmd = &cobra.Command{
	Use:     "disconnect",
	Short:   "Forget the wallet session",
	Long:    `Clear the session and stop restoring it automatically. The wallet itself is not touched.`,
	Example: `  scout disconnect`,
	RunE:    runDisconnect,
}

// statusCmd shows the session.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the wallet session",
	Long: `Show the session state, the connected account, its network and its
native balance. A remembered session is restored without prompting.`,
	Example: `  scout status
  scout status -o json`,
	RunE: runStatus,
}

// watchCmd follows the session.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow session changes until interrupted",
	Long: `Keep a session open and print every transition. Switching accounts or
networks in the wallet resets the session; run "scout connect" again to
rebind it.`,
	Example: `  scout watch
  scout watch --connect -o json`,
	RunE: runWatch,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	for _, cmd := range []*cobra.Command{connectCmd, disconnectCmd, statusCmd, watchCmd} {
		cmd.GroupID = groupWallet
		rootCmd.AddCommand(cmd)
	}

	watchCmd.Flags().BoolVar(&watchConnect, "connect", false, "connect before watching")
}

// SessionResponse is the JSON form of a session snapshot.
type SessionResponse struct {
	State     string `json:"state"`
	Connected bool   `json:"connected"`
	Address   string `json:"address,omitempty"`
	ChainID   uint64 `json:"chain_id,omitempty"`
	Network   string `json:"network,omitempty"`
	Balance   string `json:"balance,omitempty"`
	Symbol    string `json:"symbol,omitempty"`
	Error     string `json:"error,omitempty"`
}

func newSessionResponse(cc *CommandContext, snap session.Snapshot) SessionResponse {
	resp := SessionResponse{
		State:     snap.State.String(),
		Connected: snap.IsConnected,
		ChainID:   snap.ChainID,
		Error:     snap.Error,
	}
	if snap.HasAddress() {
		resp.Address = snap.Address.Hex()
	}
	if snap.IsConnected {
		resp.Network = cc.Cfg.Descriptor().Name
	}
	return resp
}

func runConnect(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	ctx, cancel := contextWithTimeout(cmd, cc.walletTimeout())
	defer cancel()

	m, closeSession, err := cc.OpenSession(ctx, true)
	if err != nil {
		return err
	}
	defer closeSession()

	snap := m.Snapshot()
	if !snap.IsConnected {
		snap = m.Connect(ctx)
	}
	if !snap.IsConnected {
		if _, err := requireConnected(m); err != nil {
			return err
		}
	}

	f := cc.formatterFor(cmd)
	return f.Emit(newSessionResponse(cc, snap), func(w io.Writer) error {
		output.Success(w, "Connected %s on %s", snap.Address.Hex(), cc.Cfg.Descriptor().Name)
		return nil
	})
}

func runDisconnect(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	ctx, cancel := contextWithTimeout(cmd, cc.walletTimeout())
	defer cancel()

	m, closeSession, err := cc.OpenSession(ctx, false)
	if err != nil {
		return err
	}
	defer closeSession()

	snap := m.Disconnect()

	f := cc.formatterFor(cmd)
	return f.Emit(newSessionResponse(cc, snap), func(w io.Writer) error {
		output.Info(w, "Disconnected. Run 'scout connect' to reconnect.")
		return nil
	})
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	ctx, cancel := contextWithTimeout(cmd, cc.walletTimeout())
	defer cancel()

	m, closeSession, err := cc.OpenSession(ctx, true)
	if err != nil {
		return err
	}
	defer closeSession()

	snap := m.Snapshot()
	resp := newSessionResponse(cc, snap)

	if snap.IsConnected && snap.Provider != nil {
		desc := cc.Cfg.Descriptor()
		wei, err := snap.Provider.BalanceAt(ctx, snap.Address, nil)
		if err != nil {
			cc.logger().Error("balance of %s: %v", snap.Address.Hex(), err)
		} else {
			resp.Balance = chain.FormatAmount(wei, desc.Currency.Decimals)
			resp.Symbol = desc.Currency.Symbol
		}
	}

	f := cc.formatterFor(cmd)
	return f.Emit(resp, func(w io.Writer) error {
		writeSessionText(w, f, resp)
		return nil
	})
}

func writeSessionText(w io.Writer, f *output.Formatter, resp SessionResponse) {
	state := resp.State
	switch {
	case resp.Connected:
		state = f.Paint(output.Green, state)
	case resp.Error != "":
		state = f.Paint(output.Red, state)
	}

	out(w, "State:    %s\n", state)
	if resp.Address != "" {
		out(w, "Address:  %s\n", resp.Address)
	}
	if resp.Connected {
		out(w, "Network:  %s (%d)\n", resp.Network, resp.ChainID)
	}
	if resp.Balance != "" {
		out(w, "Balance:  %s %s\n", resp.Balance, resp.Symbol)
	}
	if resp.Error != "" {
		out(w, "Error:    %s\n", resp.Error)
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	ctx := cmd.Context()

	m, closeSession, err := cc.OpenSession(ctx, true)
	if err != nil {
		return err
	}
	defer closeSession()

	updates := m.Watch(ctx)

	snap := m.Snapshot()
	if watchConnect && !snap.IsConnected {
		connectCtx, cancel := context.WithTimeout(ctx, cc.walletTimeout())
		snap = m.Connect(connectCtx)
		cancel()
		drain(updates)
	}

	f := cc.formatterFor(cmd)
	w := cmd.OutOrStdout()
	emit := func(s session.Snapshot) error {
		resp := newSessionResponse(cc, s)
		if f.IsJSON() {
			return json.NewEncoder(w).Encode(resp)
		}
		_, err := fmt.Fprintln(w, f.Paint(output.Dim, "session:"), s.String())
		return err
	}

	if err := emit(snap); err != nil {
		return err
	}
	for s := range updates {
		if err := emit(s); err != nil {
			return err
		}
	}
	return nil
}

// drain discards queued updates already reflected in the current snapshot.
func drain(ch <-chan session.Snapshot) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
