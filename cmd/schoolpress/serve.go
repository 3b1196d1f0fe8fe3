package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bilgisen/schoolpress/internal/api"
	"github.com/bilgisen/schoolpress/internal/config"
	"github.com/bilgisen/schoolpress/internal/logger"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := setupLogger(cfg); err != nil {
		return err
	}

	log := logger.Get()
	log.Info().Str("env", cfg.Env).Msg("Starting application...")

	d, err := buildDeps(cmd.Context(), cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize dependencies")
		return err
	}
	defer d.Close()

	app := api.NewApp(cfg.HTTPTimeout)
	api.SetupRoutes(app, api.NewHandlers(cfg, d.content, d.gate, d.directory, d.archive))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		errCh <- app.Listen(":" + cfg.Port)
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("Server error")
		return err
	case <-quit:
	}

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
	return nil
}
