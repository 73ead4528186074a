package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stock-valuator/internal/api"
	"stock-valuator/observability"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.HTTP.Port = port
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		observability.InitMetrics()
		application := newApp(cfg)

		handler := api.NewHandler(application, cfg)
		server := &http.Server{
			Addr:              cfg.Addr(),
			Handler:           api.NewRouter(handler, cfg),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       cfg.HTTP.Timeout(),
			WriteTimeout:      cfg.HTTP.Timeout() + 5*time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			observability.Info("starting server",
				"addr", server.Addr,
				"fmp_configured", application.HasKey(),
				"default_template", cfg.Scoring.DefaultTemplate,
				"locale", cfg.Scoring.Locale)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case err, ok := <-errCh:
			if ok {
				return err
			}
			return nil
		case <-quit:
		}

		observability.Info("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return err
		}
		observability.Info("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (overrides HTTP_PORT)")
}
