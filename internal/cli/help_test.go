package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAllCommandsHaveShortDescription walks the entire command tree and
// verifies that every command has a non-empty Short description.
func TestAllCommandsHaveShortDescription(t *testing.T) {
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		t.Run(cmd.CommandPath(), func(t *testing.T) {
			assert.NotEmpty(t, cmd.Short, "%s: missing Short description", cmd.CommandPath())
		})
	})
}

func TestAllCommandsHaveLongDescription(t *testing.T) {
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		t.Run(cmd.CommandPath(), func(t *testing.T) {
			assert.NotEmpty(t, cmd.Long, "%s: missing Long description", cmd.CommandPath())
		})
	})
}

// TestLeafCommandsHaveExamples verifies that every runnable command has an
// Example field.
func TestLeafCommandsHaveExamples(t *testing.T) {
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		if cmd.RunE == nil && cmd.Run == nil {
			return
		}
		if cmd.Name() == "help" || cmd.HasParent() && cmd.Parent().Name() == "completion" {
			return
		}
		t.Run(cmd.CommandPath(), func(t *testing.T) {
			assert.NotEmpty(t, cmd.Example, "%s: leaf command missing Example field", cmd.CommandPath())
			assert.Contains(t, cmd.Example, "scout")
		})
	})
}

func TestNoEmbeddedExamplesInLong(t *testing.T) {
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		t.Run(cmd.CommandPath(), func(t *testing.T) {
			assert.False(t,
				strings.Contains(cmd.Long, "\nExample:") || strings.Contains(cmd.Long, "\nExamples:"),
				"%s: Long contains embedded examples; move to Example field", cmd.CommandPath())
		})
	})
}

func TestAllFlagsHaveDescriptions(t *testing.T) {
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			t.Run(cmd.CommandPath()+"/--"+f.Name, func(t *testing.T) {
				assert.NotEmpty(t, f.Usage, "flag --%s on %s has no description", f.Name, cmd.CommandPath())
			})
		})
	})
}

// TestCommandGroupsAssigned verifies top-level commands land in a help group.
func TestCommandGroupsAssigned(t *testing.T) {
	for _, cmd := range rootCmd.Commands() {
		if !cmd.IsAvailableCommand() {
			continue
		}
		t.Run(cmd.Name(), func(t *testing.T) {
			assert.NotEmpty(t, cmd.GroupID, "top-level command %q missing GroupID", cmd.Name())
		})
	}
}

func TestRootHelpContainsGroups(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"--help"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		_ = rootCmd.Flags().Set("help", "false")
	})

	require.NoError(t, rootCmd.Execute())

	help := buf.String()
	assert.Contains(t, help, "Wallet Session:")
	assert.Contains(t, help, "Creators & Tokens:")
	assert.Contains(t, help, "Configuration:")
	assert.Contains(t, help, "connect")
	assert.Contains(t, help, "creators")
}

func TestParentCommandsShowSubcommandsInHelp(t *testing.T) {
	parents := []*cobra.Command{creatorsCmd, tokenCmd, configCmd}

	for _, parent := range parents {
		t.Run(parent.Name(), func(t *testing.T) {
			buf := new(bytes.Buffer)
			parent.SetOut(buf)
			t.Cleanup(func() { parent.SetOut(nil) })
			require.NoError(t, parent.Help())

			help := buf.String()
			assert.Contains(t, help, "Available Commands:")
			for _, sub := range parent.Commands() {
				if sub.IsAvailableCommand() {
					assert.Contains(t, help, sub.Name())
				}
			}
		})
	}
}

func TestHelpOutputContainsGlobalFlags(t *testing.T) {
	buf := new(bytes.Buffer)
	tokenBuyCmd.SetOut(buf)
	t.Cleanup(func() { tokenBuyCmd.SetOut(nil) })
	require.NoError(t, tokenBuyCmd.Help())

	help := buf.String()
	assert.Contains(t, help, "Examples:")
	assert.Contains(t, help, "--home")
	assert.Contains(t, help, "--output")
	assert.Contains(t, help, "--wait")
}

func TestWalkCommandsVisitsAll(t *testing.T) {
	var visited []string
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		visited = append(visited, cmd.CommandPath())
	})

	expected := []string{
		"scout",
		"scout connect",
		"scout disconnect",
		"scout status",
		"scout watch",
		"scout developer",
		"scout creators",
		"scout creators list",
		"scout creators search",
		"scout creators show",
		"scout token",
		"scout token info",
		"scout token balance",
		"scout token buy",
		"scout token sell",
		"scout config",
		"scout config init",
		"scout config show",
		"scout config path",
		"scout config get",
		"scout config set",
		"scout version",
	}
	for _, path := range expected {
		assert.Contains(t, visited, path, "walkCommands did not visit %q", path)
	}
}

func newNoopRun() func(*cobra.Command, []string) {
	return func(_ *cobra.Command, _ []string) {}
}

// newTestTree builds root -> parent -> children so the children count as
// available commands.
func newTestTree(children ...*cobra.Command) *cobra.Command {
	root := &cobra.Command{Use: "root"}
	parent := &cobra.Command{Use: "parent", Short: "Parent", Long: "Base description."}
	parent.AddCommand(children...)
	root.AddCommand(parent)
	return parent
}

func TestEnrichParentLong(t *testing.T) {
	parent := newTestTree(
		&cobra.Command{Use: "sub1", Short: "First subcommand", Run: newNoopRun()},
		&cobra.Command{Use: "sub2", Short: "Second subcommand", Run: newNoopRun()},
		&cobra.Command{Use: "hidden", Short: "Hidden command", Hidden: true, Run: newNoopRun()},
	)

	enrichParentLong(parent)

	assert.True(t, strings.HasPrefix(parent.Long, "Base description.\n\nSubcommands:\n"))
	assert.Contains(t, parent.Long, "sub1")
	assert.Contains(t, parent.Long, "First subcommand")
	assert.Contains(t, parent.Long, "Second subcommand")
	assert.NotContains(t, parent.Long, "hidden")
	assert.False(t, strings.HasSuffix(parent.Long, "\n"))
}

func TestEnrichParentLong_SkipsLeavesAndRoot(t *testing.T) {
	leaf := &cobra.Command{Use: "leaf", Short: "A leaf", Long: "Leaf description."}
	enrichParentLong(leaf)
	assert.Equal(t, "Leaf description.", leaf.Long)

	root := &cobra.Command{Use: "root", Long: "Root description."}
	root.AddCommand(&cobra.Command{Use: "child", Short: "Child", Run: newNoopRun()})
	enrichParentLong(root)
	assert.Equal(t, "Root description.", root.Long)
}

func TestCommandShortDescriptionsAreReasonableLength(t *testing.T) {
	const maxShortLen = 80
	walkCommands(rootCmd, func(cmd *cobra.Command) {
		t.Run(cmd.CommandPath(), func(t *testing.T) {
			assert.LessOrEqual(t, len(cmd.Short), maxShortLen)
		})
	})
}
