package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/noderig/pkg/manager"
)

// listCommand creates the list command.
func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List installed Node.js versions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withManager(cmd.Context(), func(m *manager.Manager) error {
				installed := m.Installed()
				if len(installed) == 0 {
					printInfo("No versions installed")
					printNextStep("Install one with", "noderig install lts")
					return nil
				}
				active, err := m.Current(cmd.Context())
				if err != nil {
					c.Logger.Debug("could not determine active version", "error", err)
				}

				rows := make([]releaseRow, 0, len(installed))
				for i := len(installed) - 1; i >= 0; i-- {
					r := installed[i]
					row := releaseRow{release: r}
					if err == nil && r.Version == active.Release.Version {
						row.active = true
						row.note = active.Source.String()
					}
					rows = append(rows, row)
				}
				printReleases(rows)
				return nil
			})
		},
	}
}

// listRemoteCommand creates the list-remote command.
func (c *CLI) listRemoteCommand() *cobra.Command {
	var ltsOnly bool
	var limit int

	cmd := &cobra.Command{
		Use:   "list-remote",
		Short: "List Node.js releases available for install",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withManager(cmd.Context(), func(m *manager.Manager) error {
				spin := newSpinner(cmd.Context(), "Loading releases...")
				spin.Start()
				releases, err := m.ListRemote(cmd.Context(), ltsOnly)
				spin.Stop()
				if err != nil {
					return err
				}
				if limit > 0 && len(releases) > limit {
					releases = releases[:limit]
				}
				rows := make([]releaseRow, len(releases))
				for i, r := range releases {
					rows[i] = releaseRow{release: r}
					if m.IsInstalled(r.Version) {
						rows[i].note = "installed"
					}
				}
				printReleases(rows)
				if ltsOnly {
					cat, err := m.Catalog(cmd.Context())
					if err != nil {
						return err
					}
					printDetail("LTS lines: %s", strings.Join(cat.LTSNames(), ", "))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&ltsOnly, "lts", false, "only list LTS releases")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "show at most this many releases (0 for all)")
	return cmd
}

// refreshCommand creates the refresh command.
func (c *CLI) refreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refetch the release list and rebuild shims",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withManager(cmd.Context(), func(m *manager.Manager) error {
				spin := newSpinner(cmd.Context(), "Fetching releases...")
				spin.Start()
				n, err := m.Refresh(cmd.Context())
				spin.Stop()
				if err != nil {
					return err
				}
				printSuccess("Release list refreshed %s", StyleDim.Render(fmt.Sprintf("(%d releases)", n)))
				return nil
			})
		},
	}
}
