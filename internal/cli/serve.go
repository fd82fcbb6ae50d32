package cli

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/handler"
	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/service/events"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversation over HTTP, SSE and websockets",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sess, err := newSession(ctx, opts.cfg, nil)
			if err != nil {
				return err
			}

			bus := events.NewBus()
			defer bus.Close()
			unsubscribe := sess.store.Subscribe(bus.Publish)
			defer unsubscribe()

			if addr == "" {
				addr = opts.cfg.Server.Addr
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           handler.NewRouter(sess.profile, sess.orchestrator, bus),
				ReadHeaderTimeout: 5 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			log.Info().Str("addr", addr).Str("assistant", sess.profile.ID).Msg("conversation service listening")
			return runServer(ctx, srv)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to PORT)")
	return cmd
}

// runServer serves until ctx is done. Request contexts are cancelled as soon as
// shutdown begins so long-lived streams let Shutdown finish.
func runServer(ctx context.Context, srv *http.Server) error {
	baseCtx, cancelRequests := context.WithCancel(context.Background())
	defer cancelRequests()
	srv.BaseContext = func(net.Listener) context.Context { return baseCtx }
	srv.RegisterOnShutdown(cancelRequests)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server error")
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info().Msg("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("graceful shutdown incomplete")
		}
		return nil
	})

	return g.Wait()
}
