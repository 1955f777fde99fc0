package services

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/domain/ports"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/domain/types"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/pkg/ids"
)

// OrdersService owns order creation and the status state machine.
// Every write runs inside one Store.WithinTenantTx.
type OrdersService struct {
	Store       ports.OrderStore
	Idempotency ports.IdempotencyStore
	NewID       ids.Generator
	NowUTC      func() time.Time
	Logger      *slog.Logger
	// Observe receives an event type after each committed write, or "rejected".
	Observe func(event string)
}

func NewOrdersService(store ports.OrderStore) *OrdersService {
	return &OrdersService{
		Store:  store,
		NewID:  ids.NewV7,
		NowUTC: func() time.Time { return time.Now().UTC() },
		Logger: slog.New(slog.DiscardHandler),
	}
}

func (s *OrdersService) CreateOrder(ctx context.Context, tenantID, actorID, clientID string, items []types.CartLine) (types.Order, error) {
	if len(items) == 0 {
		return types.Order{}, s.reject(ctx, "create", types.ErrEmptyCart())
	}
	for _, line := range items {
		if line.Quantity <= 0 {
			return types.Order{}, s.reject(ctx, "create", types.ErrInvalidQuantity(line.ProductID, line.Quantity))
		}
	}
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return types.Order{}, s.reject(ctx, "create", types.ErrInvalidClient())
	}

	var out types.Order
	err := s.Store.WithinTenantTx(ctx, tenantID, func(tx ports.OrderTx) error {
		client, ok, err := tx.FindClient(ctx, clientID)
		if err != nil {
			return err
		}
		if !ok {
			return types.ErrClientNotFound()
		}

		distinct := distinctProductIDs(items)
		products, err := tx.LockProducts(ctx, distinct)
		if err != nil {
			return err
		}
		if len(products) != len(distinct) {
			return types.ErrProductNotFound()
		}
		byID := make(map[string]int, len(products))
		remaining := make(map[string]int, len(products))
		for i, p := range products {
			byID[p.ID] = i
			remaining[p.ID] = p.Stock
		}

		// Check every line before writing so the first shortfall, in caller
		// order, is the one reported.
		for _, line := range items {
			if remaining[line.ProductID] < line.Quantity {
				return types.ErrInsufficientStock(products[byID[line.ProductID]].Name)
			}
			remaining[line.ProductID] -= line.Quantity
		}

		orderID, err := s.NewID()
		if err != nil {
			return err
		}
		order := types.Order{
			ID:         orderID,
			TenantID:   tenantID,
			ClientID:   client.ID,
			ClientName: client.Name,
			Status:     types.StatusPending,
			CreatedBy:  actorID,
			CreatedAt:  s.NowUTC(),
			Items:      make([]types.OrderItem, 0, len(items)),
		}
		for _, line := range items {
			p := products[byID[line.ProductID]]
			applied, err := tx.DebitStock(ctx, p.ID, line.Quantity)
			if err != nil {
				return err
			}
			if !applied {
				return types.ErrInsufficientStock(p.Name)
			}
			itemID, err := s.NewID()
			if err != nil {
				return err
			}
			order.Items = append(order.Items, types.OrderItem{
				ID:          itemID,
				OrderID:     order.ID,
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    line.Quantity,
				Price:       p.Price,
			})
		}
		order.Total = types.ItemsTotal(order.Items)

		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		if err := s.appendEvent(ctx, tx, order, types.EventOrderCreated, actorID); err != nil {
			return err
		}
		out = order
		return nil
	})
	if err != nil {
		return types.Order{}, s.reject(ctx, "create", err)
	}

	s.observe(types.EventOrderCreated)
	s.Logger.InfoContext(ctx, "order created", "tenant_id", tenantID, "order_id", out.ID, "items", len(out.Items), "total", out.Total.String())
	return out, nil
}

// CreateOrderIdempotent replays the order a previous request with the same
// key produced. replayed is true when nothing new was written.
func (s *OrdersService) CreateOrderIdempotent(ctx context.Context, tenantID, actorID, key, clientID string, items []types.CartLine) (types.Order, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" || s.Idempotency == nil {
		o, err := s.CreateOrder(ctx, tenantID, actorID, clientID, items)
		return o, false, err
	}
	scope := "orders:" + tenantID

	if id, ok, err := s.Idempotency.Recall(ctx, scope, key); err != nil {
		return types.Order{}, false, err
	} else if ok {
		o, found, err := s.Store.GetOrder(ctx, tenantID, id)
		if err != nil {
			return types.Order{}, false, err
		}
		if found {
			return o, true, nil
		}
	}

	locked, err := s.Idempotency.TryLock(ctx, scope, key)
	if err != nil {
		return types.Order{}, false, err
	}
	if !locked {
		return types.Order{}, false, s.reject(ctx, "create", types.ErrIdempotencyInProgress())
	}

	o, err := s.CreateOrder(ctx, tenantID, actorID, clientID, items)
	if err != nil {
		s.releaseKey(ctx, scope, key)
		return types.Order{}, false, err
	}
	if err := s.Idempotency.Remember(ctx, scope, key, o.ID); err != nil {
		// Nothing to replay, so let a retry claim the key again.
		s.Logger.WarnContext(ctx, "idempotency remember failed", "order_id", o.ID, "err", err)
		s.releaseKey(ctx, scope, key)
	}
	return o, false, nil
}

func (s *OrdersService) releaseKey(ctx context.Context, scope, key string) {
	if err := s.Idempotency.Release(context.WithoutCancel(ctx), scope, key); err != nil {
		s.Logger.WarnContext(ctx, "idempotency release failed", "err", err)
	}
}

// SetOrderStatus moves a PENDING order to COMPLETED or CANCELLED. Cancelling
// gives every item's quantity back to its product.
func (s *OrdersService) SetOrderStatus(ctx context.Context, tenantID, orderID string, target types.Status) (types.Order, error) {
	if target != types.StatusCompleted && target != types.StatusCancelled {
		return types.Order{}, s.reject(ctx, "transition", types.ErrInvalidStatusTarget(string(target)))
	}

	var out types.Order
	err := s.Store.WithinTenantTx(ctx, tenantID, func(tx ports.OrderTx) error {
		order, ok, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !ok {
			return types.ErrOrderNotFound()
		}
		if err := order.Status.TransitionTo(target); err != nil {
			return err
		}

		if target.RestoresStock() {
			items := slices.Clone(order.Items)
			slices.SortStableFunc(items, func(a, b types.OrderItem) int { return cmp.Compare(a.ProductID, b.ProductID) })
			for _, it := range items {
				if err := tx.CreditStock(ctx, it.ProductID, it.Quantity); err != nil {
					return err
				}
			}
		}

		if err := tx.UpdateOrderStatus(ctx, order.ID, target); err != nil {
			return err
		}
		order.Status = target
		if err := s.appendEvent(ctx, tx, order, target.EventType(), ""); err != nil {
			return err
		}
		out = order
		return nil
	})
	if err != nil {
		return types.Order{}, s.reject(ctx, "transition", err)
	}

	s.observe(target.EventType())
	s.Logger.InfoContext(ctx, "order status changed", "tenant_id", tenantID, "order_id", out.ID, "status", string(out.Status))
	return out, nil
}

func (s *OrdersService) ListOrders(ctx context.Context, tenantID string, filter types.OrderFilter) ([]types.Order, error) {
	return s.Store.ListOrders(ctx, tenantID, filter)
}

func (s *OrdersService) appendEvent(ctx context.Context, tx ports.OrderTx, o types.Order, eventType, actorID string) error {
	id, err := s.NewID()
	if err != nil {
		return err
	}
	return tx.AppendEvent(ctx, types.Event{
		ID:         id,
		Type:       eventType,
		TenantID:   o.TenantID,
		OrderID:    o.ID,
		Status:     o.Status,
		Total:      o.Total.StringFixed(2),
		ActorID:    actorID,
		OccurredAt: s.NowUTC(),
	})
}

// reject logs err at the level its kind deserves and returns it unchanged.
func (s *OrdersService) reject(ctx context.Context, op string, err error) error {
	if oe, ok := types.AsOrderError(err); ok {
		s.observe("rejected")
		s.Logger.InfoContext(ctx, "order "+op+" rejected", "code", oe.Code, "kind", string(oe.Kind))
		return err
	}
	s.Logger.ErrorContext(ctx, "order "+op+" failed", "err", err)
	return err
}

func (s *OrdersService) observe(event string) {
	if s.Observe != nil {
		s.Observe(event)
	}
}

func distinctProductIDs(items []types.CartLine) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, line := range items {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		out = append(out, line.ProductID)
	}
	return out
}
