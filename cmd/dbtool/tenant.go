package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/spf13/cobra"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func tenantCmd() *cobra.Command {
	var id, name string
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants",
	}
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a tenant (or rename it when the id exists)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := openPool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			tenantID, err := upsertTenant(cmd.Context(), pool, id, name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tenantID)
			return nil
		},
	}
	add.Flags().StringVar(&id, "id", "", "tenant uuid (generated when empty)")
	add.Flags().StringVar(&name, "name", "", "display name")
	cmd.AddCommand(add)
	return cmd
}

func normalizeTenant(id, name string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", errors.New("tenant name is required")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return uuid.NewString(), name, nil
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", "", fmt.Errorf("tenant id: %w", err)
	}
	return parsed.String(), name, nil
}

func upsertTenant(ctx context.Context, db execer, id, name string) (string, error) {
	id, name, err := normalizeTenant(id, name)
	if err != nil {
		return "", err
	}
	_, err = db.Exec(ctx, `
INSERT INTO tenants (id, name) VALUES ($1::uuid, $2::text)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
`, id, name)
	if err != nil {
		return "", err
	}
	return id, nil
}
