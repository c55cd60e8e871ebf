package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Makepad-fr/tada/internal/docstore"
	"github.com/Makepad-fr/tada/internal/logger"
	"github.com/Makepad-fr/tada/internal/remote/sqlitestore"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(app *App) *cobra.Command {
	var addr, dbPath, secret string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the document store the cloud backend syncs with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.cfg
			if addr == "" {
				addr = cfg.ServerAddr
			}
			if dbPath == "" {
				dbPath = cfg.ServerDB
			}
			if secret == "" {
				secret = cfg.TokenSecret
			}
			if secret == "" {
				return errors.New("a token secret is required (--secret or TADA_TOKEN_SECRET)")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, addr, dbPath, []byte(secret), cfg.LogLevel, nil)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default TADA_SERVER_ADDR)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite file (default TADA_SERVER_DB)")
	cmd.Flags().StringVar(&secret, "secret", "", "HMAC secret for bearer tokens (default TADA_TOKEN_SECRET)")
	return cmd
}

// serve runs the document store until ctx ends. ready, when set, receives
// the bound address once the listener is up.
func serve(ctx context.Context, addr, dbPath string, secret []byte, level string, ready chan<- string) error {
	log := logger.New("tada-docstore", level)

	db, err := sqlitestore.Open(ctx, dbPath)
	if err != nil {
		log.Error().Stack().Err(err).Str("db", dbPath).Msg("open store failed")
		return err
	}
	defer db.Close()

	srv, err := docstore.New(docstore.Config{
		Backend: docstore.SQLite(db),
		Secret:  secret,
		Logger:  log,
	})
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	httpSrv := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	log.Info().Str("addr", ln.Addr().String()).Str("db", dbPath).Msg("document store listening")
	if ready != nil {
		ready <- ln.Addr().String()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Stack().Err(err).Msg("HTTP server failed")
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(sctx)
	})
	return g.Wait()
}
