package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/taskdesk/todo-service/internal/api"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, e)
		},
	}
}

func serve(ctx context.Context, e *env) error {
	a, err := wireApp(ctx, e.cfg, e.log)
	if err != nil {
		return err
	}

	router := api.NewRouter(a.deps)
	srv := &http.Server{
		Addr:              ":" + e.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.limiter.Run(gctx)
		return nil
	})

	g.Go(func() error {
		a.reaper.Run(gctx)
		return nil
	})

	g.Go(func() error {
		// Without the bus, remote sign-outs still reach this instance through
		// the reaper once the session key is gone.
		if err := a.authBus.Run(gctx, a.registry.HandleAuthEvent); err != nil {
			e.log.Error().Err(err).Msg("auth event bus stopped")
		}
		return nil
	})

	g.Go(func() error {
		e.log.Info().Str("port", e.cfg.Port).Str("env", e.cfg.Env).Str("changefeed", e.cfg.ChangeFeed.Driver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return wrap("http server", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		e.log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// Close sessions first so open notification streams end.
		a.registry.Shutdown()
		err := srv.Shutdown(shutdownCtx)
		a.close(shutdownCtx)
		if err != nil {
			return wrap("http shutdown", err)
		}
		e.log.Info().Msg("server stopped")
		return nil
	})

	return g.Wait()
}
