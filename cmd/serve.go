package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hubmatch/internal/config"
)

var (
	servePort int
	serveHubs string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis report as a JSON API",
	Long:  "Computes the report once at start-up and serves it over HTTP until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyDataFlags(cfg, serveHubs, "", "")
		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		env, err := initAnalysis(ctx, cfg, config.ModeServe)
		if err != nil {
			return err
		}
		defer env.Close()

		rep, res, err := env.Analyze(ctx, cfg.Resolver.Concurrency)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           newRouter(&apiState{env: env, report: rep, resolution: res}, cfg.Server.CORSOrigins),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		// Graceful shutdown
		select {
		case <-ctx.Done():
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return eris.Wrap(srv.Shutdown(shutdownCtx), "server shutdown")
		case err := <-errCh:
			return eris.Wrap(err, "server listen")
		}
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveHubs, "hubs", "", "hub definition YAML (default from config)")
	rootCmd.AddCommand(serveCmd)
}
