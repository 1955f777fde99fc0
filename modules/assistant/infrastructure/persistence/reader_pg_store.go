package persistence

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/assistant/domain/ports"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/assistant/domain/types"
	catalogtypes "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/catalog/domain/types"
	salestypes "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/domain/types"
)

type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type ReaderPGStore struct {
	pool pgBeginner
}

func NewReaderPGStore(pool pgBeginner) ports.Reader {
	return &ReaderPGStore{pool: pool}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// read runs fn in a read-only transaction scoped to tenantID.
func (s *ReaderPGStore) read(ctx context.Context, tenantID string, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, tenantID); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *ReaderPGStore) count(ctx context.Context, tenantID string, sql string, args ...any) (int, error) {
	var n int
	err := s.read(ctx, tenantID, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, sql, append([]any{tenantID}, args...)...).Scan(&n)
	})
	return n, err
}

func (s *ReaderPGStore) CountClients(ctx context.Context, tenantID string) (int, error) {
	return s.count(ctx, tenantID, `SELECT count(*)::int FROM clients WHERE tenant_id = $1::uuid`)
}

func (s *ReaderPGStore) CountProducts(ctx context.Context, tenantID string) (int, error) {
	return s.count(ctx, tenantID, `SELECT count(*)::int FROM products WHERE tenant_id = $1::uuid`)
}

func (s *ReaderPGStore) CountLowStock(ctx context.Context, tenantID string, max int) (int, error) {
	return s.count(ctx, tenantID, `SELECT count(*)::int FROM products WHERE tenant_id = $1::uuid AND stock <= $2::int`, max)
}

func (s *ReaderPGStore) CountOrders(ctx context.Context, tenantID string) (types.OrderCounts, error) {
	var c types.OrderCounts
	err := s.read(ctx, tenantID, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, `
SELECT
  count(*)::int,
  count(*) FILTER (WHERE status = 'PENDING')::int,
  count(*) FILTER (WHERE status = 'COMPLETED')::int,
  count(*) FILTER (WHERE status = 'CANCELLED')::int
FROM orders
WHERE tenant_id = $1::uuid
`, tenantID).Scan(&c.Total, &c.Pending, &c.Completed, &c.Cancelled)
	})
	return c, err
}

func (s *ReaderPGStore) Revenue(ctx context.Context, tenantID string) (decimal.Decimal, error) {
	var raw string
	err := s.read(ctx, tenantID, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, `
SELECT COALESCE(sum(total), 0)::text
FROM orders
WHERE tenant_id = $1::uuid AND status = 'COMPLETED'
`, tenantID).Scan(&raw)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
}

const clientColumns = `id::text, tenant_id::text, name, COALESCE(email, ''), COALESCE(phone, ''), created_at`

func (s *ReaderPGStore) SearchClients(ctx context.Context, tenantID string, name string, limit int) ([]catalogtypes.Client, error) {
	return s.clients(ctx, tenantID, `
SELECT `+clientColumns+`
FROM clients
WHERE tenant_id = $1::uuid AND unaccent(name) ILIKE '%' || $2::text || '%' ESCAPE '\'
ORDER BY created_at DESC, id DESC
LIMIT $3
`, likeEscaper.Replace(name), limit)
}

func (s *ReaderPGStore) RecentClients(ctx context.Context, tenantID string, limit int) ([]catalogtypes.Client, error) {
	return s.clients(ctx, tenantID, `
SELECT `+clientColumns+`
FROM clients
WHERE tenant_id = $1::uuid
ORDER BY created_at DESC, id DESC
LIMIT $2
`, limit)
}

func (s *ReaderPGStore) clients(ctx context.Context, tenantID string, sql string, args ...any) ([]catalogtypes.Client, error) {
	var out []catalogtypes.Client
	err := s.read(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, sql, append([]any{tenantID}, args...)...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var c catalogtypes.Client
			if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt); err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	return out, err
}

const productColumns = `id::text, tenant_id::text, name, price::text, stock, created_at`

func (s *ReaderPGStore) SearchProducts(ctx context.Context, tenantID string, name string, limit int) ([]catalogtypes.Product, error) {
	return s.products(ctx, tenantID, `
SELECT `+productColumns+`
FROM products
WHERE tenant_id = $1::uuid AND unaccent(name) ILIKE '%' || $2::text || '%' ESCAPE '\'
ORDER BY created_at DESC, id DESC
LIMIT $3
`, likeEscaper.Replace(name), limit)
}

func (s *ReaderPGStore) RecentProducts(ctx context.Context, tenantID string, limit int) ([]catalogtypes.Product, error) {
	return s.products(ctx, tenantID, `
SELECT `+productColumns+`
FROM products
WHERE tenant_id = $1::uuid
ORDER BY created_at DESC, id DESC
LIMIT $2
`, limit)
}

func (s *ReaderPGStore) LowStock(ctx context.Context, tenantID string, max int, limit int) ([]catalogtypes.Product, error) {
	return s.products(ctx, tenantID, `
SELECT `+productColumns+`
FROM products
WHERE tenant_id = $1::uuid AND stock <= $2::int
ORDER BY stock ASC, name ASC, id ASC
LIMIT $3
`, max, limit)
}

func (s *ReaderPGStore) products(ctx context.Context, tenantID string, sql string, args ...any) ([]catalogtypes.Product, error) {
	var out []catalogtypes.Product
	err := s.read(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, sql, append([]any{tenantID}, args...)...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var p catalogtypes.Product
			var price string
			if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &price, &p.Stock, &p.CreatedAt); err != nil {
				return err
			}
			if p.Price, err = decimal.NewFromString(price); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	return out, err
}

func (s *ReaderPGStore) RecentOrders(ctx context.Context, tenantID string, status salestypes.Status, limit int) ([]types.OrderSummary, error) {
	var out []types.OrderSummary
	err := s.read(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
SELECT o.id::text, c.name, COALESCE(c.email, ''), o.status, o.total::text
FROM orders o
JOIN clients c ON c.tenant_id = o.tenant_id AND c.id = o.client_id
WHERE o.tenant_id = $1::uuid
  AND ($2::text = '' OR o.status = $2::text)
ORDER BY o.created_at DESC, o.id DESC
LIMIT $3
`, tenantID, string(status), limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var o types.OrderSummary
			var st, total string
			if err := rows.Scan(&o.ID, &o.ClientName, &o.ClientEmail, &st, &total); err != nil {
				return err
			}
			o.Status = salestypes.Status(st)
			if o.Total, err = decimal.NewFromString(total); err != nil {
				return err
			}
			out = append(out, o)
		}
		return rows.Err()
	})
	return out, err
}
