package cli

import (
	"bytes"
	"context"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/talentscout/scout/internal/chaintest"
	"github.com/talentscout/scout/internal/config"
	"github.com/talentscout/scout/internal/contracts"
	"github.com/talentscout/scout/internal/extension"
	"github.com/talentscout/scout/internal/metrics"
	"github.com/talentscout/scout/internal/network"
	"github.com/talentscout/scout/internal/output"
	"github.com/talentscout/scout/internal/session"
	scouterr "github.com/talentscout/scout/pkg/errors"
)

var (
	aliceAddr = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bobAddr   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	tokenAddr = common.HexToAddress("0x00000000000000000000000000000000000070cc")
)

const testCatalog = `creators:
  - username: alice-dev
    name: Alice
    developer_address: "0x00000000000000000000000000000000000000a1"
    analysis:
      confidence_score: 0.92
      investment_thesis: [Ships zk tooling]
      risk_factors: [Small community]
      skills_assessment:
        validated_skills: [Solidity, Go]
      market_metrics:
        growth_potential: 0.7
        suggested_initial_price: "1000000000000000"
        suggested_token_name: Alice Token
        suggested_token_symbol: ALICE
  - username: bob
    developer_address: "0x00000000000000000000000000000000000000b2"
    analysis:
      skills_assessment:
        validated_skills: [Rust]
      market_metrics:
        suggested_initial_price: "2000000000000000"
        suggested_token_name: Builder Bob
        suggested_token_symbol: BOB
`

// chainState is what the scripted registry and token answer.
type chainState struct {
	mu       sync.Mutex
	price    *big.Int
	supply   *big.Int
	balances map[common.Address]*big.Int
	bought   []*big.Int
	sold     []*big.Int
}

func (s *chainState) registryHandlers() map[string]chaintest.Handler {
	return map[string]chaintest.Handler{
		"getDeveloperByAddress": func(c chaintest.Call) ([]any, error) {
			if c.Args[0].(common.Address) == aliceAddr {
				return []any{true, tokenAddr, "alice-dev", true, big.NewInt(1_700_000_000)}, nil
			}
			return []any{false, common.Address{}, "", false, new(big.Int)}, nil
		},
		"isGithubRegistered": func(c chaintest.Call) ([]any, error) {
			return []any{c.Args[0].(string) == "alice-dev"}, nil
		},
	}
}

func (s *chainState) tokenHandlers() map[string]chaintest.Handler {
	return map[string]chaintest.Handler{
		"name":   func(chaintest.Call) ([]any, error) { return []any{"Alice Token"}, nil },
		"symbol": func(chaintest.Call) ([]any, error) { return []any{"ALICE"}, nil },
		"getCurrentPrice": func(chaintest.Call) ([]any, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			return []any{new(big.Int).Set(s.price)}, nil
		},
		"totalSupply": func(chaintest.Call) ([]any, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			return []any{new(big.Int).Set(s.supply)}, nil
		},
		"balanceOf": func(c chaintest.Call) ([]any, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if b, ok := s.balances[c.Args[0].(common.Address)]; ok {
				return []any{new(big.Int).Set(b)}, nil
			}
			return []any{new(big.Int)}, nil
		},
		"buy": func(c chaintest.Call) ([]any, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.bought = append(s.bought, c.Value)
			return nil, nil
		},
		"sell": func(c chaintest.Call) ([]any, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.sold = append(s.sold, c.Args[0].(*big.Int))
			return nil, nil
		},
	}
}

type testEnv struct {
	home   string
	chain  *chaintest.Chain
	wallet *chaintest.Wallet
	state  *chainState
	cc     *CommandContext

	// walletAbsent makes the wallet dialer fail.
	walletAbsent bool
	// chainDown makes the provider dialer fail.
	chainDown bool
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	resetFlags(t)

	desc := network.LensTestnet()
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, "creators.yaml"), []byte(testCatalog), 0o600))

	cfg := config.Defaults()
	cfg.Home = home
	cfg.Logging.File = ""
	cfg.Wallet.AutoRestore = true

	c := chaintest.New(desc.ChainID)
	t.Cleanup(c.Close)

	state := &chainState{
		price:    big.NewInt(3_000_000_000_000_000),
		supply:   new(big.Int).Mul(big.NewInt(42), big.NewInt(1e18)),
		balances: make(map[common.Address]*big.Int),
	}
	c.Deploy(common.HexToAddress(cfg.Contracts.Registry), contracts.RegistryABI, state.registryHandlers())
	c.Deploy(tokenAddr, contracts.CreatorTokenABI, state.tokenHandlers())

	w := chaintest.NewWallet(desc.ChainID)
	c.SetBalance(w.Address(), new(big.Int).Mul(big.NewInt(15), big.NewInt(1e17)))

	env := &testEnv{home: home, chain: c, wallet: w, state: state}
	env.cc = &CommandContext{
		Cfg:     cfg,
		Log:     config.NullLogger(),
		Metrics: &metrics.Metrics{},
		DialWallet: func(context.Context, string, time.Duration) (extension.Extension, func(), error) {
			if env.walletAbsent {
				return nil, nil, scouterr.ErrExtensionAbsent
			}
			return w, func() {}, nil
		},
		DialProvider: func(ctx context.Context, _ network.Descriptor) (session.Provider, error) {
			if env.chainDown {
				return nil, scouterr.ErrNetworkQueryFailed
			}
			client, err := c.Dial(ctx)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
	}
	return env
}

// run invokes a command's RunE with a fresh cobra.Command bound to the env.
func (e *testEnv) run(t *testing.T, fn func(*cobra.Command, []string) error, format output.Format, args ...string) (string, error) {
	t.Helper()

	cc := *e.cc
	cc.Fmt = output.NewFormatter(format, nil)

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	SetCmdContext(cmd, &cc)

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)

	err := fn(cmd, args)
	return buf.String(), err
}

// resetFlags restores package-level flag variables after a test.
func resetFlags(t *testing.T) {
	t.Helper()
	saved := struct {
		offline, watch, wait, connect, force, check bool
		catalog, owner, github                     string
	}{
		creatorsOffline, watchConnect, tradeWait, tradeConnect, configForce, versionCheck,
		creatorsCatalog, tokenOwner, developerGithub,
	}

	creatorsOffline, watchConnect, tradeWait, tradeConnect, configForce, versionCheck = false, false, true, false, false, false
	creatorsCatalog, tokenOwner, developerGithub = "", "", ""

	t.Cleanup(func() {
		creatorsOffline, watchConnect, tradeWait, tradeConnect = saved.offline, saved.watch, saved.wait, saved.connect
		configForce, versionCheck = saved.force, saved.check
		creatorsCatalog, tokenOwner, developerGithub = saved.catalog, saved.owner, saved.github
	})
}
