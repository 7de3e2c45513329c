package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/noderig/pkg/manager"
)

// execCommand creates the exec command that shims call into.
func (c *CLI) execCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <command> [-- args...]",
		Short: "Run a command from the active Node.js version",
		Long: `Run a Node.js executable (node, npm, npx or a globally installed tool) from the
version selected for the working directory, installing it if needed. The exit
code of the command becomes noderig's exit code.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withManager(cmd.Context(), func(m *manager.Manager) error {
				code, err := m.Exec(cmd.Context(), args[0], commandArgs(args[1:]))
				if err != nil {
					return err
				}
				if code != 0 {
					return &ExitError{Code: code}
				}
				return nil
			})
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// commandArgs drops the "--" shims put between the command and its
// arguments. Flag parsing stops at the command name, so it is still there.
func commandArgs(args []string) []string {
	if len(args) > 0 && args[0] == "--" {
		return args[1:]
	}
	return args
}

// whichCommand creates the which command.
func (c *CLI) whichCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "which <command>",
		Short: "Print the executable a shim would run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withManager(cmd.Context(), func(m *manager.Manager) error {
				path, r, err := m.Which(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				c.Logger.Debug("resolved command", "command", args[0], "version", r.Version)
				fmt.Fprintln(stdout, path)
				return nil
			})
		},
	}
}

// remapCommand creates the remap command.
func (c *CLI) remapCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remap",
		Short: "Rebuild the shim directory for the active version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withManager(cmd.Context(), func(m *manager.Manager) error {
				report, err := m.Remap(cmd.Context())
				if err != nil {
					return err
				}
				printSuccess("Shims up to date")
				printDetail("%d written, %d removed, %d unchanged", len(report.Written), len(report.Removed), len(report.Unchanged))
				return nil
			})
		},
	}
}
