// Package cli implements the noderig command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/noderig/pkg/buildinfo"
	"github.com/matzehuels/noderig/pkg/config"
	"github.com/matzehuels/noderig/pkg/detect"
	"github.com/matzehuels/noderig/pkg/manager"
	"github.com/matzehuels/noderig/pkg/mapper"
	"github.com/matzehuels/noderig/pkg/nodedist"
	"github.com/matzehuels/noderig/pkg/paths"
)

// appName is the application name used for directories and display.
const appName = "noderig"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// assumeYes answers every confirmation with yes.
	assumeYes bool
	// dirs overrides the resolved directories; tests set it.
	dirs *paths.Dirs
	// store overrides the config file store; tests set it.
	store config.Store
	// stdin is read by confirmation prompts.
	stdin io.Reader
}

// New creates a new CLI instance with a logger writing to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), stdin: os.Stdin}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "noderig manages Node.js versions",
		Long: `noderig installs Node.js releases side by side and picks the right one for
each project from .node-version, package.json engines.node or NODE_VERSION.
Put the shim directory (see "noderig current") on your PATH.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.assumeYes, "yes", "y", false, "answer yes to every confirmation")

	root.AddCommand(c.installCommand())
	root.AddCommand(c.uninstallCommand())
	root.AddCommand(c.useCommand())
	root.AddCommand(c.currentCommand())
	root.AddCommand(c.pinCommand())
	root.AddCommand(c.unpinCommand())
	root.AddCommand(c.execCommand())
	root.AddCommand(c.whichCommand())
	root.AddCommand(c.remapCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.listRemoteCommand())
	root.AddCommand(c.refreshCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Manager Factory
// =============================================================================

// resolveDirs returns the directories to use and makes sure they exist.
func (c *CLI) resolveDirs() (paths.Dirs, error) {
	dirs := paths.Dirs{}
	if c.dirs != nil {
		dirs = *c.dirs
	} else {
		var err error
		if dirs, err = paths.Default(); err != nil {
			return paths.Dirs{}, err
		}
	}
	if err := dirs.Ensure(); err != nil {
		return paths.Dirs{}, err
	}
	return dirs, nil
}

// newManager wires a Manager for the current working directory. The caller
// must Close it so configuration changes are written.
func (c *CLI) newManager(ctx context.Context) (*manager.Manager, error) {
	dirs, err := c.resolveDirs()
	if err != nil {
		return nil, err
	}

	store := c.store
	if store == nil {
		store = config.NewFileStore(dirs.ConfigFile(), c.Logger)
	}
	access, err := config.Load(store)
	if err != nil {
		return nil, err
	}
	cfg, err := access.Get()
	if err != nil {
		return nil, err
	}

	target, err := nodedist.HostTarget()
	if err != nil {
		return nil, err
	}
	self, err := selfPath()
	if err != nil {
		return nil, err
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	c.Logger.Debug("starting", "version", buildinfo.Version, "config", dirs.ConfigFile(), "target", target)
	return manager.New(manager.Options{
		Dirs:     dirs,
		Config:   access,
		Fetcher:  nodedist.New(cfg.DistBaseURL, target, dirs.Downloads(), c.Logger),
		Mapper:   mapper.New(mapper.Current(), dirs.Shims, self, c.Logger),
		Detector: detect.ForDir(wd, c.Logger),
		Confirm:  c.confirmer(),
		Logger:   c.Logger,
	}), nil
}

// withManager runs fn with a fresh Manager and closes it afterwards. A
// failure to write the config on close only fails the command when fn
// succeeded and left a change unwritten; otherwise it is logged so fn's
// result, such as a child's exit code, stands.
func (c *CLI) withManager(ctx context.Context, fn func(*manager.Manager) error) (err error) {
	m, err := c.newManager(ctx)
	if err != nil {
		return err
	}
	defer func() {
		pending := m.ConfigPending()
		cerr := m.Close()
		switch {
		case cerr == nil:
		case err == nil && pending:
			err = cerr
		default:
			c.Logger.Warn("could not save configuration", "error", cerr)
		}
	}()
	return fn(m)
}

// selfPath is the absolute path of the running executable, used in shims.
func selfPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate %s executable: %w", appName, err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return exe, nil
}
