// Package cmd implements the shellconf CLI commands.
//
// The root command resolves configuration and sets up logging before
// dispatching to a subcommand (check, fmt, run, version). Subcommands
// register themselves from their own files.
package cmd

import (
	"io"

	"github.com/containerd/log"
	"github.com/spf13/cobra"

	"github.com/go-drift/shellconf/cmd/shellconf/internal/config"
	"github.com/go-drift/shellconf/pkg/errors"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

var (
	configDir string
	overrides config.Overrides

	// resolved is set by the root command before any subcommand runs.
	resolved *config.Resolved
)

var rootCmd = &cobra.Command{
	Use:   "shellconf",
	Short: "Live configuration tree for a desktop shell",
	Long: `shellconf keeps a desktop shell's layout (backgrounds, panels and the
widgets inside them) in sync with an XML layout document.

Editing the document reconfigures the running shell in place: elements that
keep their id keep their live object, only what changed is created or
destroyed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dir := configDir
		if dir == "" {
			var err error
			if dir, err = config.DefaultDir(); err != nil {
				return err
			}
		}
		cfg, err := config.Resolve(dir, overrides)
		if err != nil {
			return err
		}
		if err := setupLogging(cfg, cmd.ErrOrStderr()); err != nil {
			return err
		}
		resolved = cfg
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configDir, "config-dir", "", "Directory holding shellconf.yaml and the default layout (default: $XDG_CONFIG_HOME/shellconf)")
	flags.StringVarP(&overrides.DocumentPath, "document", "d", "", "Layout document path")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.StringVar(&overrides.LogFormat, "log-format", "", "Log format (text or json)")
	flags.BoolVarP(&overrides.Verbose, "verbose", "v", false, "Include stack traces in error logs")
}

// RegisterCommand adds a command to the CLI.
func RegisterCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return rootCmd.Execute()
}

func setupLogging(cfg *config.Resolved, out io.Writer) error {
	if err := log.SetFormat(cfg.LogFormat); err != nil {
		return err
	}
	if err := log.SetLevel(cfg.LogLevel); err != nil {
		return err
	}
	log.L.Logger.SetOutput(out)
	errors.SetHandler(&errors.LogHandler{Verbose: cfg.Verbose})
	return nil
}
