package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/upliftlab/affirmd/internal/engine"
	"github.com/upliftlab/affirmd/internal/kvstore"
	"github.com/upliftlab/affirmd/internal/llm"
	"github.com/upliftlab/affirmd/internal/server"
	"github.com/upliftlab/affirmd/internal/telemetry"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the affirmation generation HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		logger, err := newLogger(cfg.Verbose)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		store, err := kvstore.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("open config store: %w", err)
		}
		defer func() { _ = store.Close() }()

		provider, err := llm.ValidateProvider(cfg.LLM.Provider)
		if err != nil {
			return err
		}
		client, err := llm.NewClient(cmd.Context(), llm.Config{
			Provider:              provider,
			Model:                 cfg.LLM.ModelName,
			APIKey:                cfg.LLM.APIKey,
			BaseURL:               cfg.LLM.BaseURL,
			RequestTimeoutSeconds: cfg.LLM.RequestTimeoutSeconds,
		})
		if err != nil {
			return fmt.Errorf("init LLM client: %w", err)
		}

		var tel telemetry.Client = telemetry.NopClient{}
		if cfg.Telemetry.Enabled {
			tel = telemetry.NewClient(telemetry.ClientConfig{
				APIKey:   cfg.Telemetry.APIKey,
				Endpoint: cfg.Telemetry.Endpoint,
			})
		}
		defer func() { _ = tel.Close() }()

		generator := engine.NewGenerator(store, client, logger, tel)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := server.New(port, cfg.Server.AllowedOrigins, store, generator, logger)

		var wg sync.WaitGroup
		errChan := make(chan error, 1)
		srv.Start(&wg, errChan)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		select {
		case <-ctx.Done():
			logger.Info("shutting down")
		case err := <-errChan:
			return err
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		wg.Wait()
		return nil
	},
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

// exitErr prints an error and exits; used by the keys subcommands.
func exitErr(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
