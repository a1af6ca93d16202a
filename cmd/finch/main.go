package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/finchbot/finch/internal/profile"
	"github.com/finchbot/finch/server"
	"github.com/finchbot/finch/store"
	"github.com/finchbot/finch/store/db"
)

const version = "0.3.0"

var (
	serverProfile = &profile.Profile{Version: version}

	rootCmd = &cobra.Command{
		Use:   "finch",
		Short: "A conversational bot with semantic retrieval over chat history, knowledge, and memories.",
		Run: func(_ *cobra.Command, _ []string) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := run(ctx); err != nil {
				slog.Error("finch exited with error", "error", err)
				os.Exit(1)
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverProfile.Mode, "mode", "dev", `server mode, "dev" or "prod"`)
	rootCmd.PersistentFlags().StringVar(&serverProfile.Addr, "addr", "", "binding address")
	rootCmd.PersistentFlags().IntVar(&serverProfile.Port, "port", 8230, "binding port")
	rootCmd.PersistentFlags().StringVar(&serverProfile.Data, "data", ".", "data directory")
	rootCmd.PersistentFlags().StringVar(&serverProfile.Driver, "driver", "sqlite", `database driver, "sqlite" or "postgres"`)
	rootCmd.PersistentFlags().StringVar(&serverProfile.DSN, "dsn", "", "database connection string")
}

func run(ctx context.Context) error {
	serverProfile.FromEnv()
	if err := serverProfile.Validate(); err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if serverProfile.IsDev() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	driver, err := db.NewDBDriver(serverProfile)
	if err != nil {
		return err
	}
	st := store.New(driver, serverProfile)
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	s, err := server.NewServer(ctx, serverProfile, st)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start(ctx)
	}()

	select {
	case err := <-errCh:
		s.Shutdown(context.Background())
		return err
	case <-ctx.Done():
		slog.Info("shutdown signal received")
		s.Shutdown(context.Background())
		return nil
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
