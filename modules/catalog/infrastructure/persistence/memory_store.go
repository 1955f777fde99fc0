package persistence

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/internal/memstore"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/catalog/domain/types"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/pkg/ids"
)

// MemoryStore serves clients and products from a memstore.DB shared with
// the sales and assistant memory stores.
type MemoryStore struct {
	DB     *memstore.DB
	NewID  ids.Generator
	NowUTC func() time.Time
}

func NewMemoryStore(db *memstore.DB) *MemoryStore {
	return &MemoryStore{DB: db, NewID: ids.NewV7, NowUTC: func() time.Time { return time.Now().UTC() }}
}

func (s *MemoryStore) ListClients(ctx context.Context, tenantID string) ([]types.Client, error) {
	var out []types.Client
	err := s.DB.View(ctx, func(t *memstore.Tables) error {
		for _, c := range t.Clients {
			if c.TenantID == tenantID {
				out = append(out, c)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b types.Client) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})
	return out, err
}

func (s *MemoryStore) CreateClient(ctx context.Context, tenantID string, in types.NewClient) (types.Client, error) {
	id, err := s.NewID()
	if err != nil {
		return types.Client{}, err
	}
	c := types.Client{ID: id, TenantID: tenantID, Name: in.Name, Email: in.Email, Phone: in.Phone, CreatedAt: s.NowUTC()}
	err = s.DB.Update(ctx, func(t *memstore.Tables) error {
		t.Clients[c.ID] = c
		return nil
	})
	if err != nil {
		return types.Client{}, err
	}
	return c, nil
}

func (s *MemoryStore) ListProducts(ctx context.Context, tenantID string) ([]types.Product, error) {
	var out []types.Product
	err := s.DB.View(ctx, func(t *memstore.Tables) error {
		for _, p := range t.Products {
			if p.TenantID == tenantID {
				out = append(out, p)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b types.Product) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})
	return out, err
}

func (s *MemoryStore) CreateProduct(ctx context.Context, tenantID string, in types.NewProduct) (types.Product, error) {
	id, err := s.NewID()
	if err != nil {
		return types.Product{}, err
	}
	p := types.Product{ID: id, TenantID: tenantID, Name: in.Name, Price: in.Price, Stock: in.Stock, CreatedAt: s.NowUTC()}
	err = s.DB.Update(ctx, func(t *memstore.Tables) error {
		t.Products[p.ID] = p
		return nil
	})
	if err != nil {
		return types.Product{}, err
	}
	return p, nil
}
