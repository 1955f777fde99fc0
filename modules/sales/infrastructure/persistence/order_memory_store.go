package persistence

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/internal/memstore"
	catalogtypes "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/catalog/domain/types"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/domain/ports"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/domain/types"
)

// OrderMemoryStore runs every WithinTenantTx as one memstore.Update, which
// serializes writers the way row locks do in Postgres.
type OrderMemoryStore struct {
	db *memstore.DB
}

func NewOrderMemoryStore(db *memstore.DB) ports.OrderStore {
	return &OrderMemoryStore{db: db}
}

func (s *OrderMemoryStore) WithinTenantTx(ctx context.Context, tenantID string, fn func(tx ports.OrderTx) error) error {
	return s.db.Update(ctx, func(t *memstore.Tables) error {
		return fn(&memOrderTx{t: t, tenantID: tenantID})
	})
}

func (s *OrderMemoryStore) GetOrder(ctx context.Context, tenantID string, orderID string) (types.Order, bool, error) {
	var out types.Order
	var found bool
	err := s.db.View(ctx, func(t *memstore.Tables) error {
		o, ok := t.Orders[orderID]
		if !ok || o.TenantID != tenantID {
			return nil
		}
		out, found = hydrate(t, o), true
		return nil
	})
	return out, found, err
}

func (s *OrderMemoryStore) ListOrders(ctx context.Context, tenantID string, filter types.OrderFilter) ([]types.Order, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	var out []types.Order
	err := s.db.View(ctx, func(t *memstore.Tables) error {
		for _, o := range t.Orders {
			if o.TenantID != tenantID {
				continue
			}
			if filter.Status != "" && o.Status != filter.Status {
				continue
			}
			out = append(out, hydrate(t, o))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b types.Order) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func hydrate(t *memstore.Tables, o types.Order) types.Order {
	if c, ok := t.Clients[o.ClientID]; ok {
		o.ClientName = c.Name
	}
	items := slices.Clone(o.Items)
	for i := range items {
		if p, ok := t.Products[items[i].ProductID]; ok {
			items[i].ProductName = p.Name
		}
	}
	o.Items = items
	return o
}

type memOrderTx struct {
	t        *memstore.Tables
	tenantID string
}

func (m *memOrderTx) FindClient(_ context.Context, clientID string) (catalogtypes.Client, bool, error) {
	c, ok := m.t.Clients[clientID]
	if !ok || c.TenantID != m.tenantID {
		return catalogtypes.Client{}, false, nil
	}
	return c, true, nil
}

func (m *memOrderTx) LockProducts(_ context.Context, productIDs []string) ([]catalogtypes.Product, error) {
	var out []catalogtypes.Product
	for _, id := range productIDs {
		if p, ok := m.t.Products[id]; ok && p.TenantID == m.tenantID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b catalogtypes.Product) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *memOrderTx) DebitStock(_ context.Context, productID string, quantity int) (bool, error) {
	p, ok := m.t.Products[productID]
	if !ok || p.TenantID != m.tenantID || p.Stock < quantity {
		return false, nil
	}
	p.Stock -= quantity
	m.t.Products[productID] = p
	return true, nil
}

func (m *memOrderTx) CreditStock(_ context.Context, productID string, quantity int) error {
	p, ok := m.t.Products[productID]
	if !ok || p.TenantID != m.tenantID {
		return fmt.Errorf("credit stock: product %s not found", productID)
	}
	p.Stock += quantity
	m.t.Products[productID] = p
	return nil
}

func (m *memOrderTx) InsertOrder(_ context.Context, o types.Order) error {
	if _, exists := m.t.Orders[o.ID]; exists {
		return fmt.Errorf("insert order: duplicate id %s", o.ID)
	}
	o.TenantID = m.tenantID
	o.Items = slices.Clone(o.Items)
	m.t.Orders[o.ID] = o
	return nil
}

func (m *memOrderTx) LockOrder(_ context.Context, orderID string) (types.Order, bool, error) {
	o, ok := m.t.Orders[orderID]
	if !ok || o.TenantID != m.tenantID {
		return types.Order{}, false, nil
	}
	return hydrate(m.t, o), true, nil
}

func (m *memOrderTx) UpdateOrderStatus(_ context.Context, orderID string, status types.Status) error {
	o, ok := m.t.Orders[orderID]
	if !ok || o.TenantID != m.tenantID {
		return fmt.Errorf("update order status: order %s not found", orderID)
	}
	o.Status = status
	m.t.Orders[orderID] = o
	return nil
}

func (m *memOrderTx) AppendEvent(_ context.Context, evt types.Event) error {
	evt.TenantID = m.tenantID
	m.t.Events = append(m.t.Events, evt)
	return nil
}
