// Package cli implements the wlsqlite command-line interface: a thin
// shell over the adapter that registers one connection from the config
// directory and runs a single operation against it.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/wlsqlite/internal/paths"
	"github.com/mesh-intelligence/wlsqlite/pkg/sqlite"
	"github.com/mesh-intelligence/wlsqlite/pkg/types"
)

// Version is the CLI version, overridden at build time with -ldflags.
var Version = "v0.1.0"

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// usageError marks failures caused by bad arguments or input.
type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }

func userErrorf(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

// positional reports argument count failures as usage errors.
func positional(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// app holds the global flags and the state set up before each command.
type app struct {
	configDir  string
	dataDir    string
	connection string
	output     string
	logLevel   string

	log         *log.Logger
	adapter     *sqlite.Adapter
	identity    string
	collections map[string]types.Collection
}

// NewRootCmd creates the top-level wlsqlite command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	root, _ := newRoot()
	return root
}

func newRoot() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:   "wlsqlite",
		Short: "Inspect and modify SQLite stores through the adapter",
		Long: "wlsqlite registers a connection described by config.yaml and runs one\n" +
			"adapter operation against it, printing the result as JSON or YAML.",
		Version:            Version,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.configDir, "config-dir", "", "configuration directory (default: ./.wlsqlite, then the user config directory)")
	pf.StringVar(&a.dataDir, "data-dir", "", "directory database files resolve against (default: working directory)")
	pf.StringVar(&a.connection, "connection", "", "connection identity (default: from config)")
	pf.StringVarP(&a.output, "output", "o", "json", "output format: json, yaml or table")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	root.AddCommand(newVersionCmd())
	root.AddCommand(a.newDescribeCmd())
	root.AddCommand(a.newDefineCmd())
	root.AddCommand(a.newDropCmd())
	root.AddCommand(a.newAddAttributeCmd())
	root.AddCommand(a.newRemoveAttributeCmd())
	root.AddCommand(a.newQueryCmd())
	root.AddCommand(a.newFindCmd())
	root.AddCommand(a.newCountCmd())
	root.AddCommand(a.newJoinCmd())
	root.AddCommand(a.newCreateCmd())
	root.AddCommand(a.newUpdateCmd())
	root.AddCommand(a.newDestroyCmd())
	root.AddCommand(a.newExportCmd())
	root.AddCommand(a.newImportCmd())
	return root, a
}

// execute runs root and then tears down every connection. Cobra skips
// post-run hooks when a command fails, so teardown happens here too.
func (a *app) execute(root *cobra.Command) error {
	err := root.Execute()
	if terr := a.teardown(root, nil); err == nil {
		err = terr
	}
	return err
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root, a := newRoot()
	err := a.execute(root)
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, new(usageError)):
		return exitUserError
	default:
		return exitSysError
	}
}

// setup loads the configuration and registers the connection.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	if a.output != "json" && a.output != "yaml" && a.output != "table" {
		return userErrorf("unknown output format %q", a.output)
	}

	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return err
	}

	level := a.logLevel
	if level == "" {
		level = v.GetString(cfgKeyLogLevel)
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return usageError{err}
	}
	a.log = log.New()
	a.log.SetOutput(cmd.ErrOrStderr())
	a.log.SetLevel(lvl)

	cfg, err := connectionConfig(v)
	if err != nil {
		return err
	}
	if a.connection != "" {
		cfg.Identity = a.connection
	}
	if !cfg.Ephemeral {
		dataDir, err := paths.ResolveDataDir(a.dataDir, v.GetString(cfgKeyDataDir))
		if err != nil {
			return fmt.Errorf("resolve data dir: %w", err)
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		if cfg.Filename == "" {
			cfg.Filename = types.DefaultFilename
		}
		cfg.Filename = paths.DatabaseFile(dataDir, cfg.Filename)
	}

	cols := map[string]types.Collection{}
	if file := v.GetString(cfgKeySchemaFile); file != "" {
		if !filepath.IsAbs(file) {
			file = filepath.Join(configDir, file)
		}
		if cols, err = loadCollections(file); err != nil {
			return err
		}
	}

	a.adapter = sqlite.NewAdapter(sqlite.WithLogger(a.log))
	if err := a.adapter.RegisterConnection(cmd.Context(), cfg, cols); err != nil {
		return fmt.Errorf("register connection: %w", err)
	}
	a.identity = cfg.Identity
	a.collections = cols
	return nil
}

func (a *app) teardown(*cobra.Command, []string) error {
	if a.adapter == nil {
		return nil
	}
	return a.adapter.TeardownAll()
}
