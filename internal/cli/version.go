package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/talentscout/scout/internal/version"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	versionCheck bool
	// versionClient is replaced in tests.
	versionClient = version.NewClient()
)

// versionCmd prints build information.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the scout version, commit and build date. With --check, compare against the latest release.`,
	Example: `  scout version
  scout version --check`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	versionCmd.GroupID = groupConfig
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "check GitHub for a newer release")
}

// VersionResponse is the JSON form of the version command.
type VersionResponse struct {
	version.BuildInfo

	Latest          string `json:"latest,omitempty"`
	UpdateAvailable bool   `json:"update_available,omitempty"`
	ReleaseURL      string `json:"release_url,omitempty"`
}

func runVersion(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	resp := VersionResponse{BuildInfo: buildInfo}

	if versionCheck {
		ctx, cancel := contextWithTimeout(cmd, chainReadTimeout)
		defer cancel()

		status, err := versionClient.Check(ctx, version.Repository, buildInfo.Version)
		if err != nil {
			return err
		}
		resp.Latest = status.Latest
		resp.UpdateAvailable = status.UpdateAvailable
		resp.ReleaseURL = status.URL
	}

	f := cc.formatterFor(cmd)
	return f.Emit(resp, func(w io.Writer) error {
		out(w, "scout %s\n", resp.BuildInfo.String())
		switch {
		case !versionCheck:
		case resp.UpdateAvailable:
			out(w, "%s is available: %s\n", resp.Latest, resp.ReleaseURL)
		default:
			outln(w, "You are running the latest release.")
		}
		return nil
	})
}
