package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/spf13/cobra"
)

var errSmokeFailed = errors.New("rls smoke failed")

func rlsSmokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rls-smoke",
		Short: "Check that tenant row-level security fails closed and isolates tenants",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			// Everything runs in one transaction that is always rolled back.
			tx, err := pool.Begin(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = tx.Rollback(context.Background()) }()

			if err := rlsSmoke(ctx, tx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "[rls-smoke] OK")
			return nil
		},
	}
}

func rlsSmoke(ctx context.Context, tx pgx.Tx) error {
	tenantA, tenantB := uuid.NewString(), uuid.NewString()
	for _, id := range []string{tenantA, tenantB} {
		if _, err := upsertTenant(ctx, tx, id, "rls-smoke "+id[:8]); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, `SAVEPOINT sp_failclosed`); err != nil {
		return err
	}
	var n int
	err := tx.QueryRow(ctx, `SELECT count(*) FROM clients`).Scan(&n)
	if err == nil {
		return fmt.Errorf("%w: clients readable without app.current_tenant", errSmokeFailed)
	}
	if pgErr, ok := errors.AsType[*pgconn.PgError](err); !ok || pgErr.Message != "RLS_TENANT_CONTEXT_MISSING" {
		return fmt.Errorf("%w: unexpected error without tenant: %v", errSmokeFailed, err)
	}
	if _, err := tx.Exec(ctx, `ROLLBACK TO SAVEPOINT sp_failclosed`); err != nil {
		return err
	}

	if err := setTenant(ctx, tx, tenantA); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO clients (id, tenant_id, name) VALUES ($1::uuid, $2::uuid, 'rls-smoke')`, uuid.NewString(), tenantA); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `SAVEPOINT sp_cross_write`); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO clients (id, tenant_id, name) VALUES ($1::uuid, $2::uuid, 'rls-smoke')`, uuid.NewString(), tenantB); err == nil {
		return fmt.Errorf("%w: wrote a row for another tenant", errSmokeFailed)
	}
	if _, err := tx.Exec(ctx, `ROLLBACK TO SAVEPOINT sp_cross_write`); err != nil {
		return err
	}

	if err := setTenant(ctx, tx, tenantB); err != nil {
		return err
	}
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM clients WHERE name = 'rls-smoke'`).Scan(&n); err != nil {
		return err
	}
	if n != 0 {
		return fmt.Errorf("%w: tenant B sees %d rows of tenant A", errSmokeFailed, n)
	}
	return nil
}

func setTenant(ctx context.Context, tx pgx.Tx, tenantID string) error {
	_, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true)`, tenantID)
	return err
}
