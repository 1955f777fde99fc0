package persistence

import (
	"context"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/catalog/domain/ports"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/catalog/domain/types"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/pkg/ids"
	"github.com/shopspring/decimal"
)

type ProductPGStore struct {
	pool  pgBeginner
	newID ids.Generator
}

func NewProductPGStore(pool pgBeginner) ports.ProductStore {
	return &ProductPGStore{pool: pool, newID: ids.NewV7}
}

func (s *ProductPGStore) ListProducts(ctx context.Context, tenantID string) ([]types.Product, error) {
	tx, err := beginTenantTx(ctx, s.pool, tenantID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, `
SELECT id::text, tenant_id::text, name, price::text, stock, created_at
FROM products
WHERE tenant_id = $1::uuid
ORDER BY created_at DESC, id DESC
LIMIT $2
`, tenantID, listLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Product
	for rows.Next() {
		var p types.Product
		var price string
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &price, &p.Stock, &p.CreatedAt); err != nil {
			return nil, err
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ProductPGStore) CreateProduct(ctx context.Context, tenantID string, in types.NewProduct) (types.Product, error) {
	id, err := s.newID()
	if err != nil {
		return types.Product{}, err
	}

	tx, err := beginTenantTx(ctx, s.pool, tenantID)
	if err != nil {
		return types.Product{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	p := types.Product{ID: id, TenantID: tenantID, Name: in.Name, Price: in.Price, Stock: in.Stock}
	if err := tx.QueryRow(ctx, `
INSERT INTO products (id, tenant_id, name, price, stock)
VALUES ($1::uuid, $2::uuid, $3::text, $4::numeric, $5::int)
RETURNING created_at
`, id, tenantID, in.Name, in.Price.String(), in.Stock).Scan(&p.CreatedAt); err != nil {
		return types.Product{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return types.Product{}, err
	}
	return p, nil
}
