// pipeview polls a pipeline backend and shows the evaluated pipeline in the terminal.
//
// By default it starts an interactive UI. With --once it fetches the pipeline a single
// time, prints it and exits.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-pipeview/internal/config"
	"github.com/askiada/go-pipeview/internal/log"
	"github.com/askiada/go-pipeview/internal/tui"
	"github.com/askiada/go-pipeview/pkg/pipeview"
	"github.com/askiada/go-pipeview/pkg/pipeview/drawer"
	"github.com/askiada/go-pipeview/pkg/pipeview/view"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, nil, os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}

		return err
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	poller, err := pipeview.New(cfg.Endpoint,
		pipeview.WithLogger(log.SubLogger(logger, "poller")),
		pipeview.WithTimeout(cfg.Timeout),
		pipeview.WithOrdering(cfg.PollerOrdering()),
	)
	if err != nil {
		return err
	}
	defer poller.Close()

	vm := view.NewModel()

	if cfg.Once {
		return printOnce(ctx, poller, vm)
	}

	return runUI(log.IntoContext(ctx, logger), cfg, poller, vm)
}

// newLogger logs to stderr with --once. The UI owns the terminal, so it logs to --log-file or nowhere.
func newLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	if cfg.Once {
		h, err := log.NewHandler("pipeview", log.Options{Level: cfg.LogLevel})
		if err != nil {
			return nil, nil, err
		}

		return slog.New(h), func() {}, nil
	}

	if cfg.LogFile == "" {
		return log.Discard(), func() {}, nil
	}

	file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "unable to open log file %s", cfg.LogFile)
	}

	h, err := log.NewHandler("pipeview", log.Options{Writer: file, Level: cfg.LogLevel})
	if err != nil {
		_ = file.Close()

		return nil, nil, err
	}

	return slog.New(h), func() { _ = file.Close() }, nil
}

func printOnce(ctx context.Context, poller *pipeview.Poller, vm *view.Model) error {
	err := poller.FetchSnapshot(ctx)
	if err != nil {
		return err
	}

	err = vm.Apply(poller.CurrentSnapshot())
	if err != nil {
		return err
	}

	return view.Render(os.Stdout, vm)
}

func runUI(ctx context.Context, cfg *config.Config, poller *pipeview.Poller, vm *view.Model) error {
	logger := log.FromContext(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(tui.NewModel(tui.Config{
		View:     vm,
		Fetcher:  poller,
		Drawer:   drawer.NewDotDrawer(),
		DotFile:  cfg.DotFile,
		Interval: cfg.Interval,
		Logger:   log.SubLogger(logger, "tui"),
	}), tea.WithAltScreen(), tea.WithContext(ctx))

	grp, gctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		// Watch catches up from CurrentSnapshot when the first fetch lands before it subscribes
		err := poller.StartPolling(gctx, cfg.Interval)
		if err != nil {
			return err
		}

		<-gctx.Done()
		poller.StopPolling()

		return nil
	})

	grp.Go(func() error {
		return view.Watch(gctx, poller, vm, func(ev pipeview.Event) {
			program.Send(tui.SnapshotMsg{Event: ev})
		})
	})

	grp.Go(func() error {
		defer cancel()

		_, err := program.Run()
		if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return errors.Wrap(err, "terminal ui failed")
		}

		return nil
	})

	err := grp.Wait()
	logger.Info("pipeview stopped", "stats", poller.Stats())

	return err
}
