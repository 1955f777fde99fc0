package ports

import (
	"context"

	catalogtypes "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/catalog/domain/types"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/domain/types"
)

// OrderStore owns order persistence. WithinTenantTx runs fn inside one
// tenant-scoped transaction: it commits when fn returns nil and rolls back
// on any error, panic or context cancellation.
type OrderStore interface {
	WithinTenantTx(ctx context.Context, tenantID string, fn func(tx OrderTx) error) error
	GetOrder(ctx context.Context, tenantID string, orderID string) (types.Order, bool, error)
	ListOrders(ctx context.Context, tenantID string, filter types.OrderFilter) ([]types.Order, error)
}

// OrderTx is the set of reads and writes available inside WithinTenantTx.
// Every call is already scoped to the transaction's tenant.
type OrderTx interface {
	FindClient(ctx context.Context, clientID string) (catalogtypes.Client, bool, error)
	// LockProducts returns the subset of ids that exist, holding them
	// exclusively until the transaction ends.
	LockProducts(ctx context.Context, productIDs []string) ([]catalogtypes.Product, error)
	// DebitStock reports false when stock would drop below zero; nothing is written then.
	DebitStock(ctx context.Context, productID string, quantity int) (bool, error)
	CreditStock(ctx context.Context, productID string, quantity int) error
	InsertOrder(ctx context.Context, order types.Order) error
	LockOrder(ctx context.Context, orderID string) (types.Order, bool, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status types.Status) error
	AppendEvent(ctx context.Context, evt types.Event) error
}

// IdempotencyStore remembers which order a client-supplied key produced.
type IdempotencyStore interface {
	TryLock(ctx context.Context, scope string, key string) (bool, error)
	Release(ctx context.Context, scope string, key string) error
	Remember(ctx context.Context, scope string, key string, value string) error
	Recall(ctx context.Context, scope string, key string) (string, bool, error)
}
