package cmd

import (
	"context"
	stderrors "errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/containerd/log"
	"github.com/spf13/cobra"

	"github.com/go-drift/shellconf/cmd/shellconf/internal/config"
	"github.com/go-drift/shellconf/pkg/core"
	"github.com/go-drift/shellconf/pkg/errors"
	"github.com/go-drift/shellconf/pkg/factory"
	"github.com/go-drift/shellconf/pkg/platform"
	"github.com/go-drift/shellconf/pkg/watch"
)

func init() {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the shell layout and keep it in sync with the document",
		Long: `Build the shell from the layout document and keep it running.

The document is reloaded when it changes on disk or on SIGHUP. SIGUSR1
toggles edit mode; leaving edit mode writes the live layout back to the
document. On SIGINT or SIGTERM the layout is saved first if edit mode is on.

Elements are backed by property-bag objects for the types listed in the
configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runShell(ctx, resolved, nil)
		},
	}
	runCmd.Flags().BoolVar(&overrides.NoWatch, "no-watch", false, "Do not reload when the document changes on disk")
	RegisterCommand(runCmd)
}

// runShell loads the layout and drives the engine from a platform.Loop until
// ctx is done. ready, if set, is called on the loop goroutine once the
// layout is loaded.
func runShell(ctx context.Context, cfg *config.Resolved, ready func(*core.Engine, *platform.Loop)) error {
	logger := log.G(ctx).WithField("document", cfg.DocumentPath)

	registry := factory.NewRegistry()
	registry.RegisterBasic(cfg.Types...)
	eng := core.New(core.Options{
		Factory:    registry,
		Path:       cfg.DocumentPath,
		SearchPath: cfg.SearchPath,
	})
	defer eng.Close()

	loop := platform.NewLoop()
	platform.RegisterDispatch(loop.Dispatch)
	defer platform.RegisterDispatch(nil)

	if err := eng.Load(); err != nil {
		return err
	}
	logger.WithFields(log.Fields{
		"elements":  eng.Len(),
		"iconTheme": eng.IconTheme(),
		"source":    eng.Source(),
	}).Info("shell layout loaded")

	reload := func() {
		stats := eng.Reload()
		logger.WithFields(log.Fields{
			"created":   stats.Created,
			"reused":    stats.Reused,
			"destroyed": stats.Destroyed,
			"skipped":   stats.Skipped,
		}).Info("shell layout reloaded")
	}

	if cfg.Watch {
		w, err := watch.New(watch.Options{
			Path:     cfg.DocumentPath,
			Debounce: cfg.Debounce,
			OnChange: func() { platform.Dispatch(reload) },
		})
		if err != nil {
			// The shell still runs; SIGHUP reloads by hand.
			errors.Report(&errors.ShellError{Op: "watch.New", Kind: errors.KindWatch, Err: err})
		} else {
			defer w.Close()
			go w.Run(ctx)
		}
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP, syscall.SIGUSR1)
	defer signal.Stop(signals)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-signals:
				switch sig {
				case syscall.SIGHUP:
					loop.Dispatch(reload)
				case syscall.SIGUSR1:
					loop.Dispatch(func() {
						active := eng.EditMode().Toggle()
						logger.WithField("editMode", active).Info("edit mode toggled")
					})
				}
			}
		}
	}()

	if ready != nil {
		loop.Dispatch(func() { ready(eng, loop) })
	}
	err := loop.Run(ctx)

	if eng.EditMode().Active() {
		eng.SetEditMode(false)
	}
	if stderrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
