package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/assistant/domain/types"
	catalogtypes "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/catalog/domain/types"
	salestypes "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/domain/types"
)

// Reader is the read side the assistant answers from. Every call is
// scoped to tenantID; listings are newest first unless stated otherwise.
type Reader interface {
	CountClients(ctx context.Context, tenantID string) (int, error)
	CountProducts(ctx context.Context, tenantID string) (int, error)
	// CountLowStock counts products with stock <= max.
	CountLowStock(ctx context.Context, tenantID string, max int) (int, error)
	CountOrders(ctx context.Context, tenantID string) (types.OrderCounts, error)
	// Revenue sums the totals of COMPLETED orders.
	Revenue(ctx context.Context, tenantID string) (decimal.Decimal, error)

	// SearchClients matches name as a case-insensitive substring.
	SearchClients(ctx context.Context, tenantID string, name string, limit int) ([]catalogtypes.Client, error)
	RecentClients(ctx context.Context, tenantID string, limit int) ([]catalogtypes.Client, error)
	SearchProducts(ctx context.Context, tenantID string, name string, limit int) ([]catalogtypes.Product, error)
	RecentProducts(ctx context.Context, tenantID string, limit int) ([]catalogtypes.Product, error)
	// LowStock lists products with stock <= max, by stock then name.
	LowStock(ctx context.Context, tenantID string, max int, limit int) ([]catalogtypes.Product, error)
	// RecentOrders filters by status unless it is empty.
	RecentOrders(ctx context.Context, tenantID string, status salestypes.Status, limit int) ([]types.OrderSummary, error)
}
