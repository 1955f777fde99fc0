package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/internal/routing"
	salestypes "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/domain/types"
	salesservices "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/services"
)

const idempotencyKeyHeader = "Idempotency-Key"

type createOrderRequest struct {
	ClientID string                `json:"client_id"`
	Items    []salestypes.CartLine `json:"items"`
}

type ordersListResponse struct {
	Items []salestypes.Order `json:"items"`
}

func handleOrdersAPI(w http.ResponseWriter, r *http.Request, svc *salesservices.OrdersService) {
	tenant, ok := currentTenant(r.Context())
	if !ok {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "tenant_missing", "tenant missing")
		return
	}

	switch r.Method {
	case http.MethodGet:
		filter, ok := parseOrderFilter(w, r)
		if !ok {
			return
		}
		items, err := svc.ListOrders(r.Context(), tenant.ID, filter)
		if err != nil {
			writeOrderError(w, r, err)
			return
		}
		routing.WriteJSON(w, http.StatusOK, ordersListResponse{Items: nonNil(items)})

	case http.MethodPost:
		var req createOrderRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}
		actorID := ""
		if p, ok := currentPrincipal(r.Context()); ok {
			actorID = p.ID
		}
		key := r.Header.Get(idempotencyKeyHeader)
		if len(key) > 255 {
			routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "invalid_request", "idempotency key too long")
			return
		}
		order, replayed, err := svc.CreateOrderIdempotent(r.Context(), tenant.ID, actorID, key, req.ClientID, req.Items)
		if err != nil {
			writeOrderError(w, r, err)
			return
		}
		if replayed {
			w.Header().Set("Idempotent-Replayed", "true")
			routing.WriteJSON(w, http.StatusOK, order)
			return
		}
		w.Header().Set("Location", "/sales/api/orders/"+order.ID)
		routing.WriteJSON(w, http.StatusCreated, order)

	default:
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}
}

func parseOrderFilter(w http.ResponseWriter, r *http.Request) (salestypes.OrderFilter, bool) {
	var f salestypes.OrderFilter
	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		s, ok := salestypes.ParseStatus(raw)
		if !ok {
			routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "invalid_status_filter", "status must be PENDING, COMPLETED or CANCELLED")
			return f, false
		}
		f.Status = s
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return f, false
		}
		f.Limit = n
	}
	return f, true
}

func handleOrderGetAPI(w http.ResponseWriter, r *http.Request, svc *salesservices.OrdersService) {
	tenant, ok := currentTenant(r.Context())
	if !ok {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "tenant_missing", "tenant missing")
		return
	}
	order, found, err := svc.Store.GetOrder(r.Context(), tenant.ID, routing.PathParam(r, "id"))
	if err != nil {
		writeOrderError(w, r, err)
		return
	}
	if !found {
		writeOrderError(w, r, salestypes.ErrOrderNotFound())
		return
	}
	routing.WriteJSON(w, http.StatusOK, order)
}

func handleOrderTransitionAPI(w http.ResponseWriter, r *http.Request, svc *salesservices.OrdersService, target salestypes.Status) {
	tenant, ok := currentTenant(r.Context())
	if !ok {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "tenant_missing", "tenant missing")
		return
	}
	order, err := svc.SetOrderStatus(r.Context(), tenant.ID, routing.PathParam(r, "id"), target)
	if err != nil {
		writeOrderError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, order)
}

// orderErrorStatus: input 400, not_found 404, insufficient stock 422,
// other business rules 409.
func orderErrorStatus(oe *salestypes.OrderError) int {
	switch oe.Kind {
	case salestypes.KindInput:
		return http.StatusBadRequest
	case salestypes.KindNotFound:
		return http.StatusNotFound
	}
	if oe.Code == salestypes.CodeInsufficientStock {
		return http.StatusUnprocessableEntity
	}
	return http.StatusConflict
}

func writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	if oe, ok := salestypes.AsOrderError(err); ok {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, orderErrorStatus(oe), oe.Code, oe.Message)
		return
	}
	if code, ok := stablePgCode(err); ok && code == salestypes.CodeInsufficientStock {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusUnprocessableEntity, salestypes.CodeInsufficientStock, "insufficient stock")
		return
	}
	requestLogger(r).ErrorContext(r.Context(), "order request failed", "error", err)
	routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "internal_error", "internal error")
}
