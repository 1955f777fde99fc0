package persistence

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/internal/memstore"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/assistant/domain/ports"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/assistant/domain/types"
	catalogtypes "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/catalog/domain/types"
	salestypes "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/domain/types"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/pkg/textnorm"
)

type ReaderMemoryStore struct {
	db *memstore.DB
}

func NewReaderMemoryStore(db *memstore.DB) ports.Reader {
	return &ReaderMemoryStore{db: db}
}

func (s *ReaderMemoryStore) CountClients(ctx context.Context, tenantID string) (int, error) {
	n := 0
	err := s.db.View(ctx, func(t *memstore.Tables) error {
		for _, c := range t.Clients {
			if c.TenantID == tenantID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (s *ReaderMemoryStore) CountProducts(ctx context.Context, tenantID string) (int, error) {
	return s.countProducts(ctx, tenantID, func(catalogtypes.Product) bool { return true })
}

func (s *ReaderMemoryStore) CountLowStock(ctx context.Context, tenantID string, max int) (int, error) {
	return s.countProducts(ctx, tenantID, func(p catalogtypes.Product) bool { return p.Stock <= max })
}

func (s *ReaderMemoryStore) countProducts(ctx context.Context, tenantID string, keep func(catalogtypes.Product) bool) (int, error) {
	n := 0
	err := s.db.View(ctx, func(t *memstore.Tables) error {
		for _, p := range t.Products {
			if p.TenantID == tenantID && keep(p) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (s *ReaderMemoryStore) CountOrders(ctx context.Context, tenantID string) (types.OrderCounts, error) {
	var c types.OrderCounts
	err := s.db.View(ctx, func(t *memstore.Tables) error {
		for _, o := range t.Orders {
			if o.TenantID != tenantID {
				continue
			}
			c.Total++
			switch o.Status {
			case salestypes.StatusPending:
				c.Pending++
			case salestypes.StatusCompleted:
				c.Completed++
			case salestypes.StatusCancelled:
				c.Cancelled++
			}
		}
		return nil
	})
	return c, err
}

func (s *ReaderMemoryStore) Revenue(ctx context.Context, tenantID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	err := s.db.View(ctx, func(t *memstore.Tables) error {
		for _, o := range t.Orders {
			if o.TenantID == tenantID && o.Status == salestypes.StatusCompleted {
				sum = sum.Add(o.Total)
			}
		}
		return nil
	})
	return sum, err
}

func (s *ReaderMemoryStore) SearchClients(ctx context.Context, tenantID string, name string, limit int) ([]catalogtypes.Client, error) {
	needle := textnorm.Normalize(name)
	return s.clients(ctx, tenantID, limit, func(c catalogtypes.Client) bool {
		return strings.Contains(textnorm.Normalize(c.Name), needle)
	})
}

func (s *ReaderMemoryStore) RecentClients(ctx context.Context, tenantID string, limit int) ([]catalogtypes.Client, error) {
	return s.clients(ctx, tenantID, limit, func(catalogtypes.Client) bool { return true })
}

func (s *ReaderMemoryStore) clients(ctx context.Context, tenantID string, limit int, keep func(catalogtypes.Client) bool) ([]catalogtypes.Client, error) {
	var out []catalogtypes.Client
	err := s.db.View(ctx, func(t *memstore.Tables) error {
		for _, c := range t.Clients {
			if c.TenantID == tenantID && keep(c) {
				out = append(out, c)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b catalogtypes.Client) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})
	return truncate(out, limit), err
}

func (s *ReaderMemoryStore) SearchProducts(ctx context.Context, tenantID string, name string, limit int) ([]catalogtypes.Product, error) {
	needle := textnorm.Normalize(name)
	out, err := s.products(ctx, tenantID, func(p catalogtypes.Product) bool {
		return strings.Contains(textnorm.Normalize(p.Name), needle)
	})
	sortNewest(out)
	return truncate(out, limit), err
}

func (s *ReaderMemoryStore) RecentProducts(ctx context.Context, tenantID string, limit int) ([]catalogtypes.Product, error) {
	out, err := s.products(ctx, tenantID, func(catalogtypes.Product) bool { return true })
	sortNewest(out)
	return truncate(out, limit), err
}

func (s *ReaderMemoryStore) LowStock(ctx context.Context, tenantID string, max int, limit int) ([]catalogtypes.Product, error) {
	out, err := s.products(ctx, tenantID, func(p catalogtypes.Product) bool { return p.Stock <= max })
	slices.SortFunc(out, func(a, b catalogtypes.Product) int {
		return cmp.Or(cmp.Compare(a.Stock, b.Stock), cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return truncate(out, limit), err
}

func (s *ReaderMemoryStore) products(ctx context.Context, tenantID string, keep func(catalogtypes.Product) bool) ([]catalogtypes.Product, error) {
	var out []catalogtypes.Product
	err := s.db.View(ctx, func(t *memstore.Tables) error {
		for _, p := range t.Products {
			if p.TenantID == tenantID && keep(p) {
				out = append(out, p)
			}
		}
		return nil
	})
	return out, err
}

func (s *ReaderMemoryStore) RecentOrders(ctx context.Context, tenantID string, status salestypes.Status, limit int) ([]types.OrderSummary, error) {
	var orders []salestypes.Order
	clients := map[string]catalogtypes.Client{}
	err := s.db.View(ctx, func(t *memstore.Tables) error {
		for _, o := range t.Orders {
			if o.TenantID != tenantID || (status != "" && o.Status != status) {
				continue
			}
			orders = append(orders, o)
			clients[o.ClientID] = t.Clients[o.ClientID]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(orders, func(a, b salestypes.Order) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})
	orders = truncate(orders, limit)

	out := make([]types.OrderSummary, 0, len(orders))
	for _, o := range orders {
		c := clients[o.ClientID]
		out = append(out, types.OrderSummary{
			ID:          o.ID,
			ClientName:  c.Name,
			ClientEmail: c.Email,
			Status:      o.Status,
			Total:       o.Total,
		})
	}
	return out, nil
}

func sortNewest(ps []catalogtypes.Product) {
	slices.SortFunc(ps, func(a, b catalogtypes.Product) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})
}

func truncate[T any](s []T, limit int) []T {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}
