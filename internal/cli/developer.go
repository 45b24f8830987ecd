package cli

import (
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/talentscout/scout/internal/contracts"
	scouterr "github.com/talentscout/scout/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var developerGithub string

// developerCmd looks up the developer registry.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var developerCmd = &cobra.Command{
	Use:   "developer [address]",
	Short: "Look up a developer in the registry",
	Long: `Show the registry entry for a developer address: whether it is registered,
its GitHub username, verification and creator token. With --github, report
whether a GitHub username is already claimed instead.`,
	Example: `  scout developer 0x1234...abcd
  scout developer --github octocat`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDeveloper,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	developerCmd.GroupID = groupCreators
	rootCmd.AddCommand(developerCmd)

	developerCmd.Flags().StringVar(&developerGithub, "github", "", "check whether a GitHub username is registered")
}

// DeveloperResponse is the JSON form of a registry entry.
type DeveloperResponse struct {
	Address        string `json:"address"`
	IsRegistered   bool   `json:"is_registered"`
	GithubUsername string `json:"github_username,omitempty"`
	IsVerified     bool   `json:"is_verified"`
	TokenAddress   string `json:"token_address,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// GithubResponse is the JSON form of a username lookup.
type GithubResponse struct {
	Username     string `json:"username"`
	IsRegistered bool   `json:"is_registered"`
}

func runDeveloper(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)

	username := strings.TrimPrefix(strings.TrimSpace(developerGithub), "@")
	if (username == "") == (len(args) == 0) {
		return scouterr.WithSuggestion(scouterr.ErrInvalidInput, "pass either an address or --github <username>")
	}

	ctx, cancel := contextWithTimeout(cmd, chainReadTimeout)
	defer cancel()

	provider, err := cc.openProvider(ctx)
	if err != nil {
		return err
	}
	defer provider.Close()

	registry, err := cc.registry(provider)
	if err != nil {
		return err
	}

	f := cc.formatterFor(cmd)

	if username != "" {
		registered, err := registry.IsGithubRegistered(ctx, username)
		if err != nil {
			return err
		}
		resp := GithubResponse{Username: username, IsRegistered: registered}
		return f.Emit(resp, func(w io.Writer) error {
			if registered {
				out(w, "%s is registered\n", username)
			} else {
				out(w, "%s is not registered\n", username)
			}
			return nil
		})
	}

	addr, err := parseAddress("address", args[0])
	if err != nil {
		return err
	}
	dev, err := registry.GetDeveloper(ctx, addr)
	if err != nil {
		return err
	}

	resp := newDeveloperResponse(addr.Hex(), dev)
	return f.Emit(resp, func(w io.Writer) error {
		writeDeveloperText(w, resp)
		return nil
	})
}

func newDeveloperResponse(address string, dev contracts.Developer) DeveloperResponse {
	resp := DeveloperResponse{
		Address:        address,
		IsRegistered:   dev.IsRegistered,
		GithubUsername: dev.GithubUsername,
		IsVerified:     dev.IsVerified,
	}
	if dev.HasToken() {
		resp.TokenAddress = dev.TokenAddress.Hex()
	}
	if !dev.CreatedAt.IsZero() {
		resp.CreatedAt = dev.CreatedAt.Format(time.RFC3339)
	}
	return resp
}

func writeDeveloperText(w io.Writer, d DeveloperResponse) {
	out(w, "Address:     %s\n", d.Address)
	if !d.IsRegistered {
		outln(w, "Registered:  no")
		return
	}
	outln(w, "Registered:  yes")
	out(w, "GitHub:      %s\n", d.GithubUsername)
	out(w, "Verified:    %t\n", d.IsVerified)
	if d.TokenAddress != "" {
		out(w, "Token:       %s\n", d.TokenAddress)
	} else {
		outln(w, "Token:       not deployed")
	}
	if d.CreatedAt != "" {
		out(w, "Since:       %s\n", d.CreatedAt)
	}
}
