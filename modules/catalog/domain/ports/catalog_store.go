package ports

import (
	"context"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/catalog/domain/types"
)

type ClientStore interface {
	ListClients(ctx context.Context, tenantID string) ([]types.Client, error)
	CreateClient(ctx context.Context, tenantID string, in types.NewClient) (types.Client, error)
}

type ProductStore interface {
	ListProducts(ctx context.Context, tenantID string) ([]types.Product, error)
	CreateProduct(ctx context.Context, tenantID string, in types.NewProduct) (types.Product, error)
}
