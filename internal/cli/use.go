package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/noderig/pkg/detect"
	"github.com/matzehuels/noderig/pkg/manager"
	"github.com/matzehuels/noderig/pkg/versions"
)

// useCommand creates the use command.
func (c *CLI) useCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "use <version>",
		Short: "Set the default Node.js version",
		Long: `Set the version used when no .node-version, package.json engines.node or
NODE_VERSION applies. A release that is not installed yet is installed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := versions.ParseSpec(args[0])
			if err != nil {
				return err
			}
			return c.withManager(cmd.Context(), func(m *manager.Manager) error {
				r, outcome, err := m.Use(cmd.Context(), spec)
				if err != nil {
					return err
				}
				if outcome == manager.OutcomeUnchanged {
					printWarning("Default unchanged, Node %s is not installed", r.Version)
					printNextStep("Install it with", "noderig install "+spec.String())
					return nil
				}
				printSuccess("Default set to %s", StyleHighlight.Render(spec.String()))
				printDetail("resolves to Node %s", r)
				return nil
			})
		},
	}
}

// currentCommand creates the current command.
func (c *CLI) currentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the active Node.js version and where it was chosen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withManager(cmd.Context(), func(m *manager.Manager) error {
				active, err := m.Current(cmd.Context())
				if err != nil {
					return err
				}
				printKeyValue("spec", active.Spec.String())
				source := active.Source.String()
				if active.Source != detect.SourceDefault {
					source += " " + StyleDim.Render(active.Origin)
				}
				printKeyValue("source", source)
				resolved := active.Release.String()
				if !active.Installed {
					resolved += " " + StyleWarning.Render("(not installed)")
				}
				printKeyValue("version", resolved)
				shims, err := m.Shims()
				if err != nil {
					return err
				}
				printKeyValue("shims", fmt.Sprintf("%s %s", m.ShimDir(), StyleDim.Render(fmt.Sprintf("(%d commands)", len(shims)))))
				return nil
			})
		},
	}
}
