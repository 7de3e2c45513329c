package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/noderig/pkg/manager"
	"github.com/matzehuels/noderig/pkg/versions"
)

// installCommand creates the install command.
func (c *CLI) installCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "install <version>",
		Short: "Install a Node.js release",
		Long: `Install the newest Node.js release matching a version spec.

Specs are "latest", "lts", an LTS codename such as "iron" or "lts/iron", or a
semver range such as "20", "^18.2" or ">=16 <19".`,
		Example: `  noderig install lts
  noderig install 20
  noderig install hydrogen --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := versions.ParseSpec(args[0])
			if err != nil {
				return err
			}
			return c.withManager(cmd.Context(), func(m *manager.Manager) error {
				p := newProgress()
				r, outcome, err := m.Install(cmd.Context(), spec, force)
				if err != nil {
					return err
				}
				if outcome == manager.OutcomeUnchanged {
					printInfo("Node %s is already installed", StyleHighlight.Render(r.String()))
					return nil
				}
				printSuccess("Installed Node %s %s", StyleHighlight.Render(r.String()), StyleDim.Render("("+p.elapsed().String()+")"))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "reinstall without asking if already installed")
	return cmd
}

// uninstallCommand creates the uninstall command.
func (c *CLI) uninstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "uninstall <version>",
		Aliases: []string{"rm"},
		Short:   "Remove an installed Node.js release",
		Long: `Remove the newest installed release matching a version spec. Only installed
releases are considered, so "latest" and "lts" are not accepted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := versions.ParseSpec(args[0])
			if err != nil {
				return err
			}
			return c.withManager(cmd.Context(), func(m *manager.Manager) error {
				r, outcome, err := m.Uninstall(cmd.Context(), spec)
				if err != nil {
					return err
				}
				if outcome == manager.OutcomeUnchanged {
					printInfo("Kept Node %s", r.Version)
					return nil
				}
				printSuccess("Uninstalled Node %s", StyleHighlight.Render(r.String()))
				return nil
			})
		},
	}
}
