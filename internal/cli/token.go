package cli

import (
	"context"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/talentscout/scout/internal/chain"
	"github.com/talentscout/scout/internal/contracts"
	"github.com/talentscout/scout/internal/service/trading"
	scouterr "github.com/talentscout/scout/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// tokenOwner is the account whose balance is read.
	tokenOwner string
	// tradeWait blocks until the trade is mined.
	tradeWait bool
	// tradeConnect prompts the wallet when no session can be restored.
	tradeConnect bool
)

// tokenCmd is the parent command for creator token operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Read and trade creator tokens",
	Long: `Read creator token state and trade on its bonding curve with the
connected wallet.`,
}

// tokenInfoCmd reads a token.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var tokenInfoCmd = &cobra.Command{
	Use:     "info <token>",
	Short:   "Show a token's name, symbol, price and supply",
	Long:    `Read a creator token's name, symbol, current price and total supply.`,
	Example: `  scout token info 0x1234...abcd`,
	Args:    cobra.ExactArgs(1),
	RunE:    runTokenInfo,
}

// tokenBalanceCmd reads a holder's balance.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var tokenBalanceCmd = &cobra.Command{
	Use:   "balance <token>",
	Short: "Show how many tokens an account holds",
	Long: `Show the token balance of --owner, or of the connected account when no
owner is given.`,
	Example: `  scout token balance 0x1234...abcd
  scout token balance 0x1234...abcd --owner 0xabcd...1234`,
	Args: cobra.ExactArgs(1),
	RunE: runTokenBalance,
}

// tokenBuyCmd buys tokens.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var tokenBuyCmd = &cobra.Command{
	Use:   "buy <token> <amount>",
	Short: "Buy tokens by paying an amount of the native currency",
	Long: `Buy creator tokens. The amount is what you pay, in the network's native
currency. The wallet is asked to sign the transaction.`,
	Example: `  scout token buy 0x1234...abcd 0.01
  scout token buy 0x1234...abcd 0.01 --wait=false`,
	Args: cobra.ExactArgs(2),
	RunE: runTrade(trading.Buy),
}

// tokenSellCmd sells tokens.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var tokenSellCmd = &cobra.Command{
	Use:   "sell <token> <amount>",
	Short: "Sell an amount of tokens back to the curve",
	Long: `Sell creator tokens back to the bonding curve. The amount is a number of
tokens and may not exceed your balance.`,
	Example: `  scout token sell 0x1234...abcd 1.5`,
	Args:    cobra.ExactArgs(2),
	RunE:    runTrade(trading.Sell),
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	tokenCmd.GroupID = groupCreators
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenInfoCmd, tokenBalanceCmd, tokenBuyCmd, tokenSellCmd)

	tokenBalanceCmd.Flags().StringVar(&tokenOwner, "owner", "", "account to read (default: connected account)")

	for _, cmd := range []*cobra.Command{tokenBuyCmd, tokenSellCmd} {
		cmd.Flags().BoolVar(&tradeWait, "wait", true, "wait for the transaction to be mined")
		cmd.Flags().BoolVar(&tradeConnect, "connect", false, "prompt the wallet if no session is restored")
	}
}

// TokenInfoResponse is the JSON form of token info.
type TokenInfoResponse struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	PriceWei    string `json:"price_wei"`
	Price       string `json:"price"`
	Currency    string `json:"currency"`
	TotalSupply string `json:"total_supply"`
}

// TokenBalanceResponse is the JSON form of a token balance.
type TokenBalanceResponse struct {
	Token   string `json:"token"`
	Owner   string `json:"owner"`
	Balance string `json:"balance"`
	Raw     string `json:"raw"`
}

func runTokenInfo(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	addr, err := parseAddress("token", args[0])
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, chainReadTimeout)
	defer cancel()

	provider, err := cc.openProvider(ctx)
	if err != nil {
		return err
	}
	defer provider.Close()

	info, err := contracts.NewCreatorToken(addr, provider, contracts.WithMetrics(cc.Metrics)).Info(ctx)
	if err != nil {
		return err
	}

	desc := cc.Cfg.Descriptor()
	resp := TokenInfoResponse{
		Address:     info.Address.Hex(),
		Name:        info.Name,
		Symbol:      info.Symbol,
		PriceWei:    info.CurrentPrice.String(),
		Price:       chain.FormatAmount(info.CurrentPrice, desc.Currency.Decimals),
		Currency:    desc.Currency.Symbol,
		TotalSupply: chain.FormatAmount(info.TotalSupply, trading.TokenDecimals),
	}

	f := cc.formatterFor(cmd)
	return f.Emit(resp, func(w io.Writer) error {
		out(w, "Token:    %s (%s)\n", resp.Name, resp.Symbol)
		out(w, "Address:  %s\n", resp.Address)
		out(w, "Price:    %s %s\n", resp.Price, resp.Currency)
		out(w, "Supply:   %s\n", resp.TotalSupply)
		return nil
	})
}

func runTokenBalance(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	token, err := parseAddress("token", args[0])
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, chainReadTimeout)
	defer cancel()

	owner, err := cc.balanceOwner(ctx)
	if err != nil {
		return err
	}

	provider, err := cc.openProvider(ctx)
	if err != nil {
		return err
	}
	defer provider.Close()

	bal, err := contracts.NewCreatorToken(token, provider, contracts.WithMetrics(cc.Metrics)).BalanceOf(ctx, owner)
	if err != nil {
		return err
	}

	resp := TokenBalanceResponse{
		Token:   token.Hex(),
		Owner:   owner.Hex(),
		Balance: chain.FormatAmount(bal, trading.TokenDecimals),
		Raw:     bal.String(),
	}

	f := cc.formatterFor(cmd)
	return f.Emit(resp, func(w io.Writer) error {
		out(w, "%s holds %s tokens of %s\n", resp.Owner, resp.Balance, resp.Token)
		return nil
	})
}

// balanceOwner is --owner, or the restored session's account.
func (c *CommandContext) balanceOwner(ctx context.Context) (common.Address, error) {
	if tokenOwner != "" {
		return parseAddress("owner", tokenOwner)
	}

	m, closeSession, err := c.OpenSession(ctx, true)
	if err != nil {
		return common.Address{}, err
	}
	defer closeSession()

	snap := m.Snapshot()
	if !snap.IsConnected {
		return common.Address{}, scouterr.WithSuggestion(scouterr.ErrNotConnected, "run 'scout connect' or pass --owner")
	}
	return snap.Address, nil
}

func runTrade(side trading.Side) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cc := GetCmdContext(cmd)
		token, err := parseAddress("token", args[0])
		if err != nil {
			return err
		}

		ctx, cancel := contextWithTimeout(cmd, tradeTimeout)
		defer cancel()

		m, closeSession, err := cc.OpenSession(ctx, true)
		if err != nil {
			return err
		}
		defer closeSession()

		if tradeConnect && !m.IsConnected() {
			m.Connect(ctx)
		}
		signer, err := requireConnected(m)
		if err != nil {
			return err
		}

		svc := trading.NewService(&trading.Config{
			Descriptor: cc.Cfg.Descriptor(),
			Prices:     cc.priceStorage(),
			Logger:     cc.logger(),
			Metrics:    cc.Metrics,
		})

		res, err := svc.Trade(ctx, signer, &trading.Request{
			Side:   side,
			Token:  token,
			Amount: args[1],
			Wait:   tradeWait,
		})
		if res == nil {
			return err
		}

		f := cc.formatterFor(cmd)
		if emitErr := f.Emit(res, func(w io.Writer) error {
			writeTradeText(w, res, cc.Cfg.Descriptor().Currency.Symbol)
			return nil
		}); emitErr != nil {
			return emitErr
		}
		return err
	}
}

func writeTradeText(w io.Writer, r *trading.Result, symbol string) {
	what := r.Amount + " " + symbol
	if r.Side == trading.Sell {
		what = r.Amount + " tokens"
	}
	out(w, "%s %s of %s\n", r.Side, what, r.Token)
	out(w, "Tx:       %s\n", r.Hash)
	out(w, "Status:   %s\n", r.Status)
	if r.BlockNumber > 0 {
		out(w, "Block:    %d (gas used %d)\n", r.BlockNumber, r.GasUsed)
	}
	if r.ExplorerURL != "" {
		out(w, "Explorer: %s\n", r.ExplorerURL)
	}
}
