// pipeview-fixture serves a pipeline document from a YAML or JSON file on /api/pipeline.
// The file is read on every request, edits show up on the next poll.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-pipeview/internal/fixture"
	"github.com/askiada/go-pipeview/internal/log"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		addr     string
		file     string
		delay    time.Duration
		logLevel string
	)

	fs := pflag.NewFlagSet("pipeview-fixture", pflag.ContinueOnError)
	fs.StringVarP(&addr, "addr", "a", "localhost:5000", "listen address")
	fs.StringVarP(&file, "file", "f", ".gitlab-ci.yml", "pipeline document, .yml, .yaml or .json")
	fs.DurationVar(&delay, "delay", 0, "hold every response for this long")
	fs.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")

	err := fs.Parse(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}

		return err
	}

	h, err := log.NewHandler("fixture", log.Options{Level: logLevel})
	if err != nil {
		return err
	}

	logger := slog.New(h)

	srv := fixture.New(file, fixture.WithLogger(logger), fixture.WithDelay(delay))
	if _, err := srv.Load(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second, //nolint:mnd
	}

	grp, gctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		logger.Info("serving pipeline", "address", addr, "file", file)

		err := httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "unable to serve")
		}

		return nil
	})

	grp.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return errors.Wrap(httpSrv.Shutdown(shutdownCtx), "unable to shut down")
	})

	return grp.Wait()
}
