package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/NecrosisO-O/VikingClaw/internal/api"
	"github.com/NecrosisO-O/VikingClaw/internal/dedup"
	"github.com/NecrosisO-O/VikingClaw/internal/lifecycle"
	"github.com/NecrosisO-O/VikingClaw/internal/planner"
	"github.com/NecrosisO-O/VikingClaw/internal/reconcile"
	"github.com/NecrosisO-O/VikingClaw/internal/resolver"
	"github.com/NecrosisO-O/VikingClaw/internal/retrieve"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP/JSON API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			emb := newEmbedder(logger)
			st, err := newStore(logger)
			if err != nil {
				return fmt.Errorf("serve: connecting to store: %w", err)
			}
			defer func() { _ = st.Close() }()

			completer := newCompleter(logger)

			pl := planner.New(completer, cfg.Memory.MaxRecentMessages, logger)
			rt := retrieve.New(st, emb, cfg.Memory.PerQueryLimit, logger)
			res := resolver.New(st, emb, newFS(logger), logger)
			en := dedup.NewEngine(res, completer, logger)
			rc := reconcile.New(st, logger)
			sw := lifecycle.NewManager(st, logger)

			srv := api.NewServer(pl, rt, en, rc, sw, logger, cfg.API.AuthToken)

			if cfg.API.AuthToken == "" {
				logger.Warn("HTTP API: auth is DISABLED; set VIKINGCLAW_API_AUTH_TOKEN or api.auth_token for production use")
			}

			httpSrv := &http.Server{
				Addr:              cfg.API.ListenAddr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      60 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("HTTP API server starting", "addr", cfg.API.ListenAddr)
				if listenErr := httpSrv.ListenAndServe(); listenErr != nil && listenErr != http.ErrServerClosed {
					errCh <- fmt.Errorf("serve: HTTP server: %w", listenErr)
				}
				close(errCh)
			}()

			select {
			case <-cmd.Context().Done():
				logger.Info("shutting down")
			case startErr := <-errCh:
				if startErr != nil {
					return startErr
				}
				return nil
			}

			const shutdownTimeout = 10 * time.Second
			if shutdownErr := api.Shutdown(httpSrv, shutdownTimeout); shutdownErr != nil {
				return fmt.Errorf("serve: graceful shutdown: %w", shutdownErr)
			}

			// Drain the errCh in case ListenAndServe returned after Shutdown.
			if startErr := <-errCh; startErr != nil {
				return startErr
			}

			return nil
		},
	}
	return cmd
}
