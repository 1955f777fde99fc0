package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/internal/outbox"
	catalogtypes "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/catalog/domain/types"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/domain/ports"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/domain/types"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/pkg/ids"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type OrderPGStore struct {
	pool  pgBeginner
	topic string
}

// NewOrderPGStore returns a store whose lifecycle events are enqueued on topic.
func NewOrderPGStore(pool pgBeginner, topic string) ports.OrderStore {
	return &OrderPGStore{pool: pool, topic: topic}
}

func (s *OrderPGStore) begin(ctx context.Context, tenantID string) (pgx.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, tenantID); err != nil {
		_ = tx.Rollback(context.Background())
		return nil, err
	}
	return tx, nil
}

func (s *OrderPGStore) WithinTenantTx(ctx context.Context, tenantID string, fn func(tx ports.OrderTx) error) error {
	tx, err := s.begin(ctx, tenantID)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if err := fn(&pgOrderTx{tx: tx, tenantID: tenantID, topic: s.topic}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *OrderPGStore) GetOrder(ctx context.Context, tenantID string, orderID string) (types.Order, bool, error) {
	if !ids.Valid(orderID) {
		return types.Order{}, false, nil
	}
	tx, err := s.begin(ctx, tenantID)
	if err != nil {
		return types.Order{}, false, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	o, ok, err := readOrder(ctx, tx, tenantID, orderID, false)
	if err != nil || !ok {
		return types.Order{}, ok, err
	}
	if err := tx.Commit(ctx); err != nil {
		return types.Order{}, false, err
	}
	return o, true, nil
}

func (s *OrderPGStore) ListOrders(ctx context.Context, tenantID string, filter types.OrderFilter) ([]types.Order, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	tx, err := s.begin(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, `
SELECT o.id::text, o.tenant_id::text, o.client_id::text, c.name, o.total::text, o.status, o.created_by, o.created_at
FROM orders o
JOIN clients c ON c.tenant_id = o.tenant_id AND c.id = o.client_id
WHERE o.tenant_id = $1::uuid
  AND ($2::text = '' OR o.status = $2::text)
ORDER BY o.created_at DESC, o.id DESC
LIMIT $3
`, tenantID, string(filter.Status), limit)
	if err != nil {
		return nil, err
	}
	var out []types.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(out) > 0 {
		orderIDs := make([]string, 0, len(out))
		for _, o := range out {
			orderIDs = append(orderIDs, o.ID)
		}
		items, err := readItems(ctx, tx, tenantID, orderIDs)
		if err != nil {
			return nil, err
		}
		for i := range out {
			out[i].Items = items[out[i].ID]
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

type pgOrderTx struct {
	tx       pgx.Tx
	tenantID string
	topic    string
}

func (t *pgOrderTx) FindClient(ctx context.Context, clientID string) (catalogtypes.Client, bool, error) {
	if !ids.Valid(clientID) {
		return catalogtypes.Client{}, false, nil
	}
	var c catalogtypes.Client
	err := t.tx.QueryRow(ctx, `
SELECT id::text, tenant_id::text, name, COALESCE(email, ''), COALESCE(phone, ''), created_at
FROM clients
WHERE tenant_id = $1::uuid AND id = $2::uuid
`, t.tenantID, clientID).Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalogtypes.Client{}, false, nil
	}
	if err != nil {
		return catalogtypes.Client{}, false, err
	}
	return c, true, nil
}

func (t *pgOrderTx) LockProducts(ctx context.Context, productIDs []string) ([]catalogtypes.Product, error) {
	valid := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		if ids.Valid(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}

	// ORDER BY id gives every transaction the same lock order.
	rows, err := t.tx.Query(ctx, `
SELECT id::text, tenant_id::text, name, price::text, stock, created_at
FROM products
WHERE tenant_id = $1::uuid AND id = ANY($2::uuid[])
ORDER BY id
FOR UPDATE
`, t.tenantID, valid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalogtypes.Product
	for rows.Next() {
		var p catalogtypes.Product
		var price string
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &price, &p.Stock, &p.CreatedAt); err != nil {
			return nil, err
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (t *pgOrderTx) DebitStock(ctx context.Context, productID string, quantity int) (bool, error) {
	tag, err := t.tx.Exec(ctx, `
UPDATE products
SET stock = stock - $3::int
WHERE tenant_id = $1::uuid AND id = $2::uuid AND stock >= $3::int
`, t.tenantID, productID, quantity)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (t *pgOrderTx) CreditStock(ctx context.Context, productID string, quantity int) error {
	tag, err := t.tx.Exec(ctx, `
UPDATE products
SET stock = stock + $3::int
WHERE tenant_id = $1::uuid AND id = $2::uuid
`, t.tenantID, productID, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("credit stock: product %s not found", productID)
	}
	return nil
}

func (t *pgOrderTx) InsertOrder(ctx context.Context, o types.Order) error {
	if _, err := t.tx.Exec(ctx, `
INSERT INTO orders (id, tenant_id, client_id, total, status, created_by, created_at)
VALUES ($1::uuid, $2::uuid, $3::uuid, $4::numeric, $5::text, $6::text, $7)
`, o.ID, t.tenantID, o.ClientID, o.Total.String(), string(o.Status), o.CreatedBy, o.CreatedAt); err != nil {
		return err
	}
	for _, it := range o.Items {
		if _, err := t.tx.Exec(ctx, `
INSERT INTO order_items (id, tenant_id, order_id, product_id, quantity, price)
VALUES ($1::uuid, $2::uuid, $3::uuid, $4::uuid, $5::int, $6::numeric)
`, it.ID, t.tenantID, o.ID, it.ProductID, it.Quantity, it.Price.String()); err != nil {
			return err
		}
	}
	return nil
}

func (t *pgOrderTx) LockOrder(ctx context.Context, orderID string) (types.Order, bool, error) {
	if !ids.Valid(orderID) {
		return types.Order{}, false, nil
	}
	return readOrder(ctx, t.tx, t.tenantID, orderID, true)
}

func (t *pgOrderTx) UpdateOrderStatus(ctx context.Context, orderID string, status types.Status) error {
	tag, err := t.tx.Exec(ctx, `
UPDATE orders SET status = $3::text
WHERE tenant_id = $1::uuid AND id = $2::uuid
`, t.tenantID, orderID, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("update order status: order %s not found", orderID)
	}
	return nil
}

func (t *pgOrderTx) AppendEvent(ctx context.Context, evt types.Event) error {
	return outbox.Insert(ctx, t.tx, evt.ID, t.tenantID, t.topic, evt.OrderID, evt)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (types.Order, error) {
	var o types.Order
	var total, status string
	if err := row.Scan(&o.ID, &o.TenantID, &o.ClientID, &o.ClientName, &total, &status, &o.CreatedBy, &o.CreatedAt); err != nil {
		return types.Order{}, err
	}
	var err error
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return types.Order{}, err
	}
	st, ok := types.ParseStatus(status)
	if !ok {
		return types.Order{}, fmt.Errorf("order %s: unknown status %q", o.ID, status)
	}
	o.Status = st
	return o, nil
}

func readOrder(ctx context.Context, tx pgx.Tx, tenantID string, orderID string, forUpdate bool) (types.Order, bool, error) {
	q := `
SELECT o.id::text, o.tenant_id::text, o.client_id::text, c.name, o.total::text, o.status, o.created_by, o.created_at
FROM orders o
JOIN clients c ON c.tenant_id = o.tenant_id AND c.id = o.client_id
WHERE o.tenant_id = $1::uuid AND o.id = $2::uuid
`
	if forUpdate {
		q += "FOR UPDATE OF o\n"
	}
	o, err := scanOrder(tx.QueryRow(ctx, q, tenantID, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Order{}, false, nil
	}
	if err != nil {
		return types.Order{}, false, err
	}
	items, err := readItems(ctx, tx, tenantID, []string{o.ID})
	if err != nil {
		return types.Order{}, false, err
	}
	o.Items = items[o.ID]
	return o, true, nil
}

func readItems(ctx context.Context, tx pgx.Tx, tenantID string, orderIDs []string) (map[string][]types.OrderItem, error) {
	rows, err := tx.Query(ctx, `
SELECT i.id::text, i.order_id::text, i.product_id::text, p.name, i.quantity, i.price::text
FROM order_items i
JOIN products p ON p.tenant_id = i.tenant_id AND p.id = i.product_id
WHERE i.tenant_id = $1::uuid AND i.order_id = ANY($2::uuid[])
ORDER BY i.order_id, i.id
`, tenantID, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]types.OrderItem, len(orderIDs))
	for rows.Next() {
		var it types.OrderItem
		var price string
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &price); err != nil {
			return nil, err
		}
		if it.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}
