package persistence

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/catalog/domain/ports"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/catalog/domain/types"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/pkg/ids"
)

type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

const listLimit = 500

type ClientPGStore struct {
	pool  pgBeginner
	newID ids.Generator
}

func NewClientPGStore(pool pgBeginner) ports.ClientStore {
	return &ClientPGStore{pool: pool, newID: ids.NewV7}
}

func beginTenantTx(ctx context.Context, pool pgBeginner, tenantID string) (pgx.Tx, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, tenantID); err != nil {
		_ = tx.Rollback(context.Background())
		return nil, err
	}
	return tx, nil
}

func (s *ClientPGStore) ListClients(ctx context.Context, tenantID string) ([]types.Client, error) {
	tx, err := beginTenantTx(ctx, s.pool, tenantID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, `
SELECT id::text, tenant_id::text, name, COALESCE(email, ''), COALESCE(phone, ''), created_at
FROM clients
WHERE tenant_id = $1::uuid
ORDER BY created_at DESC, id DESC
LIMIT $2
`, tenantID, listLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Client
	for rows.Next() {
		var c types.Client
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ClientPGStore) CreateClient(ctx context.Context, tenantID string, in types.NewClient) (types.Client, error) {
	id, err := s.newID()
	if err != nil {
		return types.Client{}, err
	}

	tx, err := beginTenantTx(ctx, s.pool, tenantID)
	if err != nil {
		return types.Client{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	c := types.Client{ID: id, TenantID: tenantID, Name: in.Name, Email: in.Email, Phone: in.Phone}
	if err := tx.QueryRow(ctx, `
INSERT INTO clients (id, tenant_id, name, email, phone)
VALUES ($1::uuid, $2::uuid, $3::text, NULLIF($4::text, ''), NULLIF($5::text, ''))
RETURNING created_at
`, id, tenantID, in.Name, in.Email, in.Phone).Scan(&c.CreatedAt); err != nil {
		return types.Client{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return types.Client{}, err
	}
	return c, nil
}
