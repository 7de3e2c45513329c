package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/noderig/pkg/manager"
	"github.com/matzehuels/noderig/pkg/versions"
)

// pinCommand creates the pin command.
func (c *CLI) pinCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pin [<command> <version>]",
		Short: "Always run a command with a specific Node.js version",
		Long: `Pin a command such as yarn or pnpm to a version spec. The pin overrides the
version detected for the working directory. Without arguments, list pins.`,
		Example: `  noderig pin yarn 18
  noderig pin`,
		Args: cobra.MatchAll(func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return cobra.ExactArgs(2)(cmd, args)
			}
			return cobra.MaximumNArgs(2)(cmd, args)
		}),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withManager(cmd.Context(), func(m *manager.Manager) error {
				if len(args) == 0 {
					names, pins, err := m.Pins()
					if err != nil {
						return err
					}
					if len(names) == 0 {
						printInfo("No pinned commands")
						return nil
					}
					for _, name := range names {
						printKeyValue(name, pins[name].String())
					}
					return nil
				}

				spec, err := versions.ParseSpec(args[1])
				if err != nil {
					return err
				}
				if err := m.Pin(args[0], spec); err != nil {
					return err
				}
				printSuccess("Pinned %s to %s", styleCommand.Render(args[0]), StyleHighlight.Render(spec.String()))
				return nil
			})
		},
	}
}

// unpinCommand creates the unpin command.
func (c *CLI) unpinCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unpin <command>",
		Short: "Remove a command pin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withManager(cmd.Context(), func(m *manager.Manager) error {
				existed, err := m.Unpin(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !existed {
					printInfo("%s was not pinned", args[0])
					return nil
				}
				printSuccess("Unpinned %s", styleCommand.Render(args[0]))
				return nil
			})
		},
	}
}
