package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/talentscout/scout/internal/cache"
	"github.com/talentscout/scout/internal/chain"
	"github.com/talentscout/scout/internal/contracts"
	"github.com/talentscout/scout/internal/discovery"
	"github.com/talentscout/scout/internal/output"
	scouterr "github.com/talentscout/scout/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// creatorsOffline skips the chain and shows suggested values only.
	creatorsOffline bool
	// creatorsCatalog overrides the configured catalog path.
	creatorsCatalog string
)

// creatorsCmd is the parent command for catalog operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var creatorsCmd = &cobra.Command{
	Use:   "creators",
	Short: "Browse analysed developers",
	Long: `Browse the catalog of analysed developers. Each entry is checked against
the developer registry: claimed creators show their token's current price,
everyone else shows the suggested initial price from the analysis.`,
}

// creatorsListCmd lists the catalog.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var creatorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all creators with their token prices",
	Long:  `List every creator in the catalog with claim status and token price.`,
	Example: `  scout creators list
  scout creators list --offline -o json`,
	Args: cobra.NoArgs,
	RunE: runCreatorsList,
}

// creatorsSearchCmd filters the catalog.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var creatorsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search creators by name, token or skill",
	Long: `List creators whose username, name, suggested token name or symbol, or
validated skills contain the query. Matching ignores case.`,
	Example: `  scout creators search solidity
  scout creators search ALICE`,
	Args: cobra.ExactArgs(1),
	RunE: runCreatorsSearch,
}

// creatorsShowCmd shows one creator.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var creatorsShowCmd = &cobra.Command{
	Use:     "show <username>",
	Short:   "Show one creator's analysis and token",
	Long:    `Show the full analysis of one creator together with its on-chain token state.`,
	Example: `  scout creators show alice-dev`,
	Args:    cobra.ExactArgs(1),
	RunE:    runCreatorsShow,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	creatorsCmd.GroupID = groupCreators
	rootCmd.AddCommand(creatorsCmd)
	creatorsCmd.AddCommand(creatorsListCmd, creatorsSearchCmd, creatorsShowCmd)

	creatorsCmd.PersistentFlags().BoolVar(&creatorsOffline, "offline", false, "skip chain lookups and show suggested prices")
	creatorsCmd.PersistentFlags().StringVar(&creatorsCatalog, "catalog", "", "catalog file (default: discovery.catalog from config)")
}

// CreatorResponse is the JSON form of an enriched creator.
type CreatorResponse struct {
	Username         string              `json:"username"`
	Name             string              `json:"name,omitempty"`
	DeveloperAddress string              `json:"developer_address"`
	IsClaimed        bool                `json:"is_claimed"`
	TokenAddress     string              `json:"token_address,omitempty"`
	TokenName        string              `json:"token_name"`
	TokenSymbol      string              `json:"token_symbol"`
	PriceWei         string              `json:"price_wei"`
	Price            string              `json:"price"`
	PriceSource      string              `json:"price_source"`
	Error            string              `json:"error,omitempty"`
	Analysis         *discovery.Analysis `json:"analysis,omitempty"`
}

func newCreatorResponse(l discovery.Listing, decimals int) CreatorResponse {
	resp := CreatorResponse{
		Username:         l.Username,
		Name:             l.Name,
		DeveloperAddress: l.Address().Hex(),
		IsClaimed:        l.IsClaimed,
		TokenName:        l.TokenName,
		TokenSymbol:      l.TokenSymbol,
		PriceWei:         "0",
		Price:            "0",
		PriceSource:      l.PriceSource,
		Error:            l.Error,
	}
	if l.Token != (common.Address{}) {
		resp.TokenAddress = l.Token.Hex()
	}
	if l.PriceWei != nil {
		resp.PriceWei = l.PriceWei.String()
		resp.Price = chain.FormatAmount(l.PriceWei, decimals)
	}
	return resp
}

func runCreatorsList(cmd *cobra.Command, _ []string) error {
	return listCreators(cmd, func(c *discovery.Catalog) []discovery.Creator {
		return c.Creators
	})
}

func runCreatorsSearch(cmd *cobra.Command, args []string) error {
	return listCreators(cmd, func(c *discovery.Catalog) []discovery.Creator {
		return c.Search(args[0])
	})
}

func listCreators(cmd *cobra.Command, pick func(*discovery.Catalog) []discovery.Creator) error {
	cc := GetCmdContext(cmd)
	ctx, cancel := contextWithTimeout(cmd, chainReadTimeout)
	defer cancel()

	catalog, err := cc.loadCatalog()
	if err != nil {
		return err
	}

	listings, err := cc.enrich(ctx, cmd, pick(catalog))
	if err != nil {
		return err
	}

	decimals := cc.Cfg.Descriptor().Currency.Decimals
	resp := make([]CreatorResponse, 0, len(listings))
	for _, l := range listings {
		resp = append(resp, newCreatorResponse(l, decimals))
	}

	f := cc.formatterFor(cmd)
	return f.Emit(resp, func(w io.Writer) error {
		if len(resp) == 0 {
			outln(w, "No creators found.")
			return nil
		}
		return creatorsTable(f, resp, cc.Cfg.Descriptor().Currency.Symbol).Render(w)
	})
}

func creatorsTable(f *output.Formatter, rows []CreatorResponse, symbol string) *output.Table {
	t := output.NewTable("USERNAME", "TOKEN", "PRICE ("+symbol+")", "STATUS", "SOURCE").AlignRight(2)
	for _, r := range rows {
		status := f.Paint(output.Dim, "unclaimed")
		if r.IsClaimed {
			status = f.Paint(output.Green, "claimed")
		}
		t.AddRow(r.Username, r.TokenSymbol, r.Price, status, r.PriceSource)
	}
	return t
}

func runCreatorsShow(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	ctx, cancel := contextWithTimeout(cmd, chainReadTimeout)
	defer cancel()

	catalog, err := cc.loadCatalog()
	if err != nil {
		return err
	}
	creator, ok := catalog.Find(args[0])
	if !ok {
		return scouterr.WithDetails(scouterr.ErrNotFound, map[string]string{"creator": args[0]})
	}

	listings, err := cc.enrich(ctx, cmd, []discovery.Creator{creator})
	if err != nil {
		return err
	}

	desc := cc.Cfg.Descriptor()
	resp := newCreatorResponse(listings[0], desc.Currency.Decimals)
	resp.Analysis = &creator.Analysis

	f := cc.formatterFor(cmd)
	return f.Emit(resp, func(w io.Writer) error {
		writeCreatorText(w, resp, desc.Currency.Symbol)
		return nil
	})
}

func writeCreatorText(w io.Writer, r CreatorResponse, symbol string) {
	title := r.Username
	if r.Name != "" {
		title = fmt.Sprintf("%s (%s)", r.Name, r.Username)
	}
	outln(w, title)
	out(w, "Developer:   %s\n", r.DeveloperAddress)
	out(w, "Token:       %s (%s)\n", r.TokenName, r.TokenSymbol)
	if r.TokenAddress != "" {
		out(w, "Contract:    %s\n", r.TokenAddress)
	}
	out(w, "Price:       %s %s [%s]\n", r.Price, symbol, r.PriceSource)
	out(w, "Claimed:     %t\n", r.IsClaimed)

	a := r.Analysis
	if a == nil {
		return
	}
	out(w, "Confidence:  %.2f\n", a.ConfidenceScore)
	out(w, "Growth:      %.2f\n", a.Market.GrowthPotential)
	if len(a.Skills.ValidatedSkills) > 0 {
		out(w, "Skills:      %s\n", strings.Join(a.Skills.ValidatedSkills, ", "))
	}
	if len(a.Skills.MissingCriticalSkills) > 0 {
		out(w, "Missing:     %s\n", strings.Join(a.Skills.MissingCriticalSkills, ", "))
	}
	writeBullets(w, "Thesis", a.InvestmentThesis)
	writeBullets(w, "Risks", a.RiskFactors)
	if a.GithubURL != "" {
		out(w, "GitHub:      %s\n", a.GithubURL)
	}
}

func writeBullets(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	out(w, "%s:\n", title)
	for _, item := range items {
		out(w, "  - %s\n", item)
	}
}

func (c *CommandContext) loadCatalog() (*discovery.Catalog, error) {
	path := creatorsCatalog
	if path == "" {
		path = c.Cfg.CatalogPath()
	}
	catalog, err := discovery.LoadCatalog(path)
	if err != nil {
		return nil, scouterr.WithSuggestion(err, "set discovery.catalog or pass --catalog <file>")
	}
	return catalog, nil
}

// enrich reads registry and price state for creators. Without a reachable
// chain, or with --offline, every creator gets its suggested values.
func (c *CommandContext) enrich(ctx context.Context, cmd *cobra.Command, creators []discovery.Creator) ([]discovery.Listing, error) {
	desc := c.Cfg.Descriptor()
	settings := c.Cfg.Discovery

	if creatorsOffline {
		return discovery.NewEnricher(nil, nil, desc.ChainID).Enrich(ctx, creators)
	}

	provider, err := c.openProvider(ctx)
	if err != nil {
		c.logger().Error("chain unavailable, using suggested prices: %v", err)
		if !c.formatterFor(cmd).IsJSON() {
			output.Warn(cmd.ErrOrStderr(), "%s unreachable, showing suggested prices", desc.Name)
		}
		return discovery.NewEnricher(nil, nil, desc.ChainID).Enrich(ctx, creators)
	}
	defer provider.Close()

	registry, err := c.registry(provider)
	if err != nil {
		return nil, err
	}

	storage := c.priceStorage()
	prices, err := storage.Load()
	if err != nil {
		c.logger().Error("price cache: %v", err)
	}
	if prices == nil {
		prices = cache.NewPriceCache()
	}

	open := func(token common.Address) discovery.PriceReader {
		return contracts.NewCreatorToken(token, provider, contracts.WithMetrics(c.Metrics))
	}
	enricher := discovery.NewEnricher(registry, open, desc.ChainID,
		discovery.WithConcurrency(settings.Concurrency),
		discovery.WithRateLimiter(chain.NewRateLimiter(settings.RatePerSecond, 1), desc.RPCURL),
		discovery.WithPriceCache(prices, time.Duration(settings.PriceCacheMinutes)*time.Minute),
		discovery.WithLogger(c.logger()),
		discovery.WithMetrics(c.Metrics),
	)

	listings, err := enricher.Enrich(ctx, creators)
	if err != nil {
		return nil, err
	}
	if err := storage.Save(prices); err != nil {
		c.logger().Error("saving price cache: %v", err)
	}
	return listings, nil
}
