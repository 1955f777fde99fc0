package services

import (
	"context"
	"strings"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/catalog/domain/ports"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/catalog/domain/types"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/pkg/httperr"
)

const (
	errNameRequired  = "NAME_REQUIRED"
	errEmailInvalid  = "EMAIL_INVALID"
	errPriceInvalid  = "PRICE_INVALID"
	errStockInvalid  = "STOCK_INVALID"
	errTenantMissing = "TENANT_MISSING"
)

type CatalogService interface {
	ListClients(ctx context.Context, tenantID string) ([]types.Client, error)
	CreateClient(ctx context.Context, tenantID string, in types.NewClient) (types.Client, error)
	ListProducts(ctx context.Context, tenantID string) ([]types.Product, error)
	CreateProduct(ctx context.Context, tenantID string, in types.NewProduct) (types.Product, error)
}

type catalogService struct {
	clients  ports.ClientStore
	products ports.ProductStore
}

func NewCatalogService(clients ports.ClientStore, products ports.ProductStore) CatalogService {
	return &catalogService{clients: clients, products: products}
}

func (s *catalogService) ListClients(ctx context.Context, tenantID string) ([]types.Client, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, httperr.NewBadRequest(errTenantMissing)
	}
	return s.clients.ListClients(ctx, tenantID)
}

func (s *catalogService) CreateClient(ctx context.Context, tenantID string, in types.NewClient) (types.Client, error) {
	if strings.TrimSpace(tenantID) == "" {
		return types.Client{}, httperr.NewBadRequest(errTenantMissing)
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Name == "" {
		return types.Client{}, httperr.NewBadRequest(errNameRequired)
	}
	if in.Email != "" && !strings.Contains(in.Email, "@") {
		return types.Client{}, httperr.NewBadRequest(errEmailInvalid)
	}
	return s.clients.CreateClient(ctx, tenantID, in)
}

func (s *catalogService) ListProducts(ctx context.Context, tenantID string) ([]types.Product, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, httperr.NewBadRequest(errTenantMissing)
	}
	return s.products.ListProducts(ctx, tenantID)
}

func (s *catalogService) CreateProduct(ctx context.Context, tenantID string, in types.NewProduct) (types.Product, error) {
	if strings.TrimSpace(tenantID) == "" {
		return types.Product{}, httperr.NewBadRequest(errTenantMissing)
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return types.Product{}, httperr.NewBadRequest(errNameRequired)
	}
	if !in.Price.IsPositive() {
		return types.Product{}, httperr.NewBadRequest(errPriceInvalid)
	}
	if in.Stock < 0 {
		return types.Product{}, httperr.NewBadRequest(errStockInvalid)
	}
	return s.products.CreateProduct(ctx, tenantID, in)
}
