// Command dbtool runs schema migrations and operator chores against the
// app database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/internal/config"
)

var dsnFlag string

var rootCmd = &cobra.Command{
	Use:           "dbtool",
	Short:         "SmartBiz database and operator tooling",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dsnFlag, "dsn", "", "postgres connection string (defaults to postgres.dsn from config)")
	rootCmd.AddCommand(migrateCmd(), tenantCmd(), seedCmd(), tokenCmd(), rlsSmokeCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveDSN prefers --dsn and falls back to the layered config.
func resolveDSN() (string, error) {
	if dsnFlag != "" {
		return dsnFlag, nil
	}
	cfg, err := config.LoadDefault()
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	return cfg.Postgres.DSN, nil
}

func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	dsn, err := resolveDSN()
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}
