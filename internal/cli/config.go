package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/talentscout/scout/internal/config"
	"github.com/talentscout/scout/internal/output"
	scouterr "github.com/talentscout/scout/pkg/errors"
)

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and modify scout configuration settings.`,
}

// configInitCmd initializes the configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.scout/config.yaml.

If a configuration file already exists, this command will not overwrite it
unless --force is specified.`,
	Example: `  scout config init
  scout config init --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// configShowCmd shows the current configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after environment and flag overrides.`,
	Example: `  scout config show
  scout config show -o json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// configPathCmd prints the config file location.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configPathCmd = &cobra.Command{
	Use:     "path",
	Short:   "Print the configuration file path",
	Long:    `Print where scout reads its configuration file from.`,
	Example: `  scout config path`,
	Args:    cobra.NoArgs,
	RunE:    runConfigPath,
}

// configGetCmd gets a specific configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long:  `Get one configuration value by its dotted key.`,
	Example: `  scout config get wallet.endpoint
  scout config get contracts.registry`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

// configSetCmd sets a configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set one configuration value by its dotted key and save the file.
The result is validated before it is written.`,
	Example: `  scout config set wallet.endpoint ws://127.0.0.1:1248
  scout config set discovery.catalog ~/creators.yaml
  scout config set logging.level debug`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

var errNegative = errors.New("must not be negative")

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	configCmd.GroupID = groupConfig
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configPathCmd, configGetCmd, configSetCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")
	configGetCmd.ValidArgsFunction = configKeyNames
	configSetCmd.ValidArgsFunction = configKeyNames
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	configPath := config.Path(cc.Cfg.Home)

	if _, err := os.Stat(configPath); err == nil && !configForce {
		return scouterr.WithSuggestion(
			scouterr.WithDetails(scouterr.ErrGeneral, map[string]string{"path": configPath}),
			"configuration already exists; use --force to overwrite",
		)
	}

	defaults := config.Defaults()
	defaults.Home = cc.Cfg.Home
	if err := config.Save(defaults, configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	w := cmd.OutOrStdout()
	out(w, "Configuration initialized at %s\n", configPath)
	outln(w)
	outln(w, "Edit this file to configure:")
	outln(w, "  - wallet.endpoint: Your wallet's JSON-RPC endpoint")
	outln(w, "  - discovery.catalog: The creator catalog file")
	outln(w, "  - contracts.registry: The developer registry address")
	outln(w, "  - logging.level: Log level (off/error/debug)")

	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	w := cmd.OutOrStdout()

	data, err := yaml.Marshal(cc.Cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	f := cc.formatterFor(cmd)
	if f.Format() != output.FormatJSON {
		_, err = w.Write(data)
		return err
	}

	// Round-trip through YAML so JSON keys match the file's keys.
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return f.Print(tree)
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	outln(cmd.OutOrStdout(), config.Path(cc.Cfg.Home))
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	key, ok := configKeys[args[0]]
	if !ok {
		return unknownConfigKey(args[0])
	}
	outln(cmd.OutOrStdout(), key.get(cc.Cfg))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	name, value := args[0], args[1]

	key, ok := configKeys[name]
	if !ok {
		return unknownConfigKey(name)
	}

	// Edit the file, not the effective config, so overrides are not persisted.
	configPath := config.Path(cc.Cfg.Home)
	current, err := config.Load(configPath)
	if err != nil {
		current = config.Defaults()
		current.Home = cc.Cfg.Home
	}

	if err := key.set(current, value); err != nil {
		return scouterr.WithDetails(scouterr.Because(scouterr.ErrConfigInvalid, err),
			map[string]string{"key": name, "value": value})
	}
	if err := current.Validate(); err != nil {
		return err
	}
	if err := config.Save(current, configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	out(cmd.OutOrStdout(), "Set %s = %s\n", name, value)
	return nil
}

func unknownConfigKey(name string) error {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return scouterr.WithSuggestion(
		scouterr.WithDetails(scouterr.ErrUnknownConfigKey, map[string]string{"key": name}),
		"valid keys: "+strings.Join(keys, ", "),
	)
}

// configKey reads and writes one dotted key.
type configKey struct {
	get func(*config.Config) string
	set func(*config.Config, string) error
}

func stringKey(field func(*config.Config) *string) configKey {
	return configKey{
		get: func(c *config.Config) string { return *field(c) },
		set: func(c *config.Config, v string) error {
			*field(c) = strings.TrimSpace(v)
			return nil
		},
	}
}

func oneOfKey(field func(*config.Config) *string, allowed ...string) configKey {
	k := stringKey(field)
	k.set = func(c *config.Config, v string) error {
		v = strings.ToLower(strings.TrimSpace(v))
		for _, a := range allowed {
			if v == a {
				*field(c) = v
				return nil
			}
		}
		return fmt.Errorf("must be one of %s", strings.Join(allowed, ", ")) //nolint:err113 // validation message
	}
	return k
}

func intKey(field func(*config.Config) *int) configKey {
	return configKey{
		get: func(c *config.Config) string { return strconv.Itoa(*field(c)) },
		set: func(c *config.Config, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return err
			}
			*field(c) = n
			return nil
		},
	}
}

func boolKey(field func(*config.Config) *bool) configKey {
	return configKey{
		get: func(c *config.Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *config.Config, v string) error {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return err
			}
			*field(c) = b
			return nil
		},
	}
}

//nolint:gochecknoglobals // static lookup table
var configKeys = map[string]configKey{
	"chain.rpc":                     stringKey(func(c *config.Config) *string { return &c.Chain.RPC }),
	"chain.explorer":                stringKey(func(c *config.Config) *string { return &c.Chain.Explorer }),
	"wallet.endpoint":               stringKey(func(c *config.Config) *string { return &c.Wallet.Endpoint }),
	"wallet.auto_restore":           boolKey(func(c *config.Config) *bool { return &c.Wallet.AutoRestore }),
	"wallet.poll_interval_seconds":  intKey(func(c *config.Config) *int { return &c.Wallet.PollIntervalSeconds }),
	"wallet.timeout_seconds":        intKey(func(c *config.Config) *int { return &c.Wallet.TimeoutSeconds }),
	"contracts.registry":            stringKey(func(c *config.Config) *string { return &c.Contracts.Registry }),
	"discovery.catalog":             stringKey(func(c *config.Config) *string { return &c.Discovery.Catalog }),
	"discovery.concurrency":         intKey(func(c *config.Config) *int { return &c.Discovery.Concurrency }),
	"discovery.price_cache_minutes": intKey(func(c *config.Config) *int { return &c.Discovery.PriceCacheMinutes }),
	"discovery.rate_per_second": {
		get: func(c *config.Config) string { return strconv.FormatFloat(c.Discovery.RatePerSecond, 'f', -1, 64) },
		set: func(c *config.Config, v string) error {
			r, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return err
			}
			if r < 0 {
				return errNegative
			}
			c.Discovery.RatePerSecond = r
			return nil
		},
	},
	"output.default_format": oneOfKey(func(c *config.Config) *string { return &c.Output.DefaultFormat }, "text", "json", "auto"),
	"output.color":          oneOfKey(func(c *config.Config) *string { return &c.Output.Color }, "auto", "always", "never"),
	"output.verbose":        boolKey(func(c *config.Config) *bool { return &c.Output.Verbose }),
	"logging.level":         oneOfKey(func(c *config.Config) *string { return &c.Logging.Level }, "off", "error", "debug"),
	"logging.file":          stringKey(func(c *config.Config) *string { return &c.Logging.File }),
}

// configKeyNames is used by shell completion.
func configKeyNames(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	names := make([]string, 0, len(configKeys))
	for k := range configKeys {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, cobra.ShellCompDirectiveNoFileComp
}
