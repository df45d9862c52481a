package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"taskboard/api"
	"taskboard/session"
	"taskboard/storage"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP",
		Long: `Serve the board over HTTP on LISTEN_ADDR.

Every change is written to the configured store in the background. When the
redis store is used, POST requests carrying an Idempotency-Key header are
deduplicated for DEDUPER_TTL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	e, writer := a.newServer(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", a.cfg.ListenAddr).Info("listening")
		errCh <- e.Start(a.cfg.ListenAddr)
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	case <-ctx.Done():
		a.log.Info("shutting down")
	}

	a.shutdown(e, writer)
	if serveErr != nil {
		a.log.WithError(serveErr).Error("server stopped")
	}
	return serveErr
}

// newServer opens the session from the store and returns the HTTP server
// together with the writer persisting its changes.
func (a *app) newServer(ctx context.Context) (*echo.Echo, *storage.Writer) {
	writer := storage.NewWriter(a.store, a.cfg.SaveTimeout, a.log)
	sess := session.Open(ctx, a.store, a.ids(), writer.Submit, a.log)

	var deduper api.Deduper
	if a.redis != nil {
		deduper = api.NewRedisDeduper(a.redis, a.cfg.DeduperTTL)
	}
	return api.NewServer(sess, deduper, a.log), writer
}

// shutdown stops the HTTP server, then flushes the last board. Each step
// gets its own deadline so a slow drain cannot cut the flush short.
func (a *app) shutdown(e *echo.Echo, writer *storage.Writer) {
	httpCtx, cancelHTTP := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelHTTP()
	if err := e.Shutdown(httpCtx); err != nil {
		a.log.WithError(err).Warn("http shutdown")
	}

	flushCtx, cancelFlush := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelFlush()
	if err := writer.Close(flushCtx); err != nil {
		a.log.WithError(err).Error("flush pending snapshot")
	}
}
