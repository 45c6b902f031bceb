package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/LevdanskyVitaliy/todo-sync/internal/config"
	"github.com/LevdanskyVitaliy/todo-sync/internal/logger"
	"github.com/LevdanskyVitaliy/todo-sync/internal/storeserver"
)

var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var addr, driver string
	var verbose bool

	cmd := &cobra.Command{
		Use:     "todo-store",
		Short:   "Serve the todo REST store for local development",
		Version: Version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.Init(os.Stderr, verbose)

			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Store.Addr = addr
			}
			if cmd.Flags().Changed("driver") {
				cfg.Store.Driver = driver
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			backend, err := openBackend(ctx, cfg.Store)
			if err != nil {
				return err
			}
			defer backend.Close()

			return serve(ctx, cfg.Store.Addr, storeserver.NewServer(backend))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":3000", "Listen address")
	cmd.Flags().StringVar(&driver, "driver", config.DriverSQLite, "Backend (sqlite, mongo)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	return cmd
}

func openBackend(ctx context.Context, cfg config.StoreConfig) (storeserver.Backend, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		logger.Info("Using SQLite store at %s", cfg.SQLitePath)
		return storeserver.OpenSQLite(cfg.SQLitePath)
	case config.DriverMongo:
		logger.Info("Using MongoDB store %s/%s", cfg.MongoURI, cfg.MongoDatabase)
		return storeserver.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

func serve(ctx context.Context, addr string, s *storeserver.Server) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("todo-store %s listening on %s", Version, addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
