package main

import (
	"context"
	stdLog "log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/Astemirdum/book-service/book/app"
	"github.com/Astemirdum/book-service/book/config"
	"github.com/Astemirdum/book-service/book/migrations"
	"github.com/Astemirdum/book-service/pkg/postgres"
)

// @title Book Service API
// @version 1.0
// @description Book catalog: CRUD, search and inventory.
// @BasePath /
func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		stdLog.Fatal("load envs from .env ", err)
	}

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newConfig() *config.Config {
	return config.NewConfig(
		config.WithLogLevel(zapcore.DebugLevel),
		config.WithWriteTimeout(time.Minute),
		config.WithStorage(config.StoragePostgres),
	)
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "book-service",
		Short:        "Book catalog service",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), migrateCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the inventory consumer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), newConfig())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|redo|version]",
		Short:     "Apply the embedded database migrations",
		Args:      cobra.RangeArgs(0, 1),
		ValidArgs: []string{"up", "down", "status", "redo", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}
			cfg := newConfig()
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			db, err := postgres.Connect(ctx, &cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			return postgres.Migrate(db, migrations.MigrationFiles, command)
		},
	}
}
