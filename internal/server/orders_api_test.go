package server

import (
	"fmt"
	"net/http"
	"testing"

	catalogtypes "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/catalog/domain/types"
	salestypes "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/domain/types"
)

type orderFixture struct {
	s        *testServer
	clientID string
	mugID    string
	capID    string
}

func newOrderFixture(t *testing.T) orderFixture {
	t.Helper()
	s := newTestServer(t)
	c := decodeBody[catalogtypes.Client](t, s.do(http.MethodPost, "/catalog/api/clients", testTenant, "admin", map[string]string{"name": "Carla"}))
	mug := decodeBody[catalogtypes.Product](t, s.do(http.MethodPost, "/catalog/api/products", testTenant, "admin", `{"name":"Caneca","price":"10.50","stock":5}`))
	hat := decodeBody[catalogtypes.Product](t, s.do(http.MethodPost, "/catalog/api/products", testTenant, "admin", `{"name":"Bone","price":"30","stock":2}`))
	return orderFixture{s: s, clientID: c.ID, mugID: mug.ID, capID: hat.ID}
}

func (f orderFixture) stockOf(t *testing.T, productID string) int {
	t.Helper()
	list := decodeBody[productsListResponse](t, f.s.do(http.MethodGet, "/catalog/api/products", testTenant, "admin", nil))
	for _, p := range list.Items {
		if p.ID == productID {
			return p.Stock
		}
	}
	t.Fatalf("product %s not listed", productID)
	return 0
}

func (f orderFixture) cart(lines ...salestypes.CartLine) createOrderRequest {
	return createOrderRequest{ClientID: f.clientID, Items: lines}
}

func TestOrdersAPI_CreateAndTransition(t *testing.T) {
	f := newOrderFixture(t)

	rec := f.s.do(http.MethodPost, "/sales/api/orders", testTenant, "sales", f.cart(
		salestypes.CartLine{ProductID: f.mugID, Quantity: 2},
		salestypes.CartLine{ProductID: f.capID, Quantity: 1},
	))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	order := decodeBody[salestypes.Order](t, rec)
	if order.Status != salestypes.StatusPending || order.Total.String() != "51" || len(order.Items) != 2 {
		t.Fatalf("order=%+v", order)
	}
	if got := rec.Header().Get("Location"); got != "/sales/api/orders/"+order.ID {
		t.Fatalf("location=%q", got)
	}
	if f.stockOf(t, f.mugID) != 3 || f.stockOf(t, f.capID) != 1 {
		t.Fatal("stock not debited")
	}

	got := f.s.do(http.MethodGet, "/sales/api/orders/"+order.ID, testTenant, "user", nil)
	if got.Code != http.StatusOK || decodeBody[salestypes.Order](t, got).ID != order.ID {
		t.Fatalf("get status=%d body=%s", got.Code, got.Body.String())
	}
	expectError(t, f.s.do(http.MethodGet, "/sales/api/orders/"+order.ID, testOtherTenant, "admin", nil), http.StatusNotFound, salestypes.CodeOrderNotFound)

	expectError(t, f.s.do(http.MethodPost, "/sales/api/orders/"+order.ID+":complete", testTenant, "sales", nil), http.StatusForbidden, "forbidden")

	done := f.s.do(http.MethodPost, "/sales/api/orders/"+order.ID+":complete", testTenant, "manager", nil)
	if done.Code != http.StatusOK || decodeBody[salestypes.Order](t, done).Status != salestypes.StatusCompleted {
		t.Fatalf("complete status=%d body=%s", done.Code, done.Body.String())
	}
	expectError(t, f.s.do(http.MethodPost, "/sales/api/orders/"+order.ID+":cancel", testTenant, "manager", nil), http.StatusConflict, salestypes.CodeAlreadyCompleted)
	if f.stockOf(t, f.mugID) != 3 {
		t.Fatal("completed order must keep its stock")
	}
}

func TestOrdersAPI_CancelRestoresStock(t *testing.T) {
	f := newOrderFixture(t)
	order := decodeBody[salestypes.Order](t, f.s.do(http.MethodPost, "/sales/api/orders", testTenant, "admin", f.cart(
		salestypes.CartLine{ProductID: f.mugID, Quantity: 5},
	)))
	if f.stockOf(t, f.mugID) != 0 {
		t.Fatal("stock not debited")
	}

	rec := f.s.do(http.MethodPost, "/sales/api/orders/"+order.ID+":cancel", testTenant, "admin", nil)
	if rec.Code != http.StatusOK || decodeBody[salestypes.Order](t, rec).Status != salestypes.StatusCancelled {
		t.Fatalf("cancel status=%d body=%s", rec.Code, rec.Body.String())
	}
	if f.stockOf(t, f.mugID) != 5 {
		t.Fatal("stock not restored")
	}
	expectError(t, f.s.do(http.MethodPost, "/sales/api/orders/"+order.ID+":cancel", testTenant, "admin", nil), http.StatusConflict, salestypes.CodeAlreadyCancelled)
	if f.stockOf(t, f.mugID) != 5 {
		t.Fatal("second cancel must not credit again")
	}
}

func TestOrdersAPI_Rejections(t *testing.T) {
	f := newOrderFixture(t)

	cases := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"empty cart", f.cart(), http.StatusBadRequest, salestypes.CodeEmptyCart},
		{"zero quantity", f.cart(salestypes.CartLine{ProductID: f.mugID, Quantity: 0}), http.StatusBadRequest, salestypes.CodeInvalidQuantity},
		{"missing client", createOrderRequest{Items: []salestypes.CartLine{{ProductID: f.mugID, Quantity: 1}}}, http.StatusBadRequest, salestypes.CodeInvalidClient},
		{"unknown client", createOrderRequest{ClientID: "nope", Items: []salestypes.CartLine{{ProductID: f.mugID, Quantity: 1}}}, http.StatusNotFound, salestypes.CodeClientNotFound},
		{"unknown product", f.cart(salestypes.CartLine{ProductID: "nope", Quantity: 1}), http.StatusNotFound, salestypes.CodeProductNotFound},
		{"insufficient stock", f.cart(salestypes.CartLine{ProductID: f.capID, Quantity: 3}), http.StatusUnprocessableEntity, salestypes.CodeInsufficientStock},
		{"duplicate lines add up", f.cart(
			salestypes.CartLine{ProductID: f.capID, Quantity: 2},
			salestypes.CartLine{ProductID: f.capID, Quantity: 1},
		), http.StatusUnprocessableEntity, salestypes.CodeInsufficientStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			expectError(t, f.s.do(http.MethodPost, "/sales/api/orders", testTenant, "admin", tc.body), tc.status, tc.code)
		})
	}

	if f.stockOf(t, f.mugID) != 5 || f.stockOf(t, f.capID) != 2 {
		t.Fatal("rejected orders must not touch stock")
	}
	list := decodeBody[ordersListResponse](t, f.s.do(http.MethodGet, "/sales/api/orders", testTenant, "admin", nil))
	if len(list.Items) != 0 {
		t.Fatalf("orders=%+v", list.Items)
	}

	expectError(t, f.s.do(http.MethodPost, "/sales/api/orders/nope:complete", testTenant, "admin", nil), http.StatusNotFound, salestypes.CodeOrderNotFound)
	expectError(t, f.s.do(http.MethodPost, "/sales/api/orders", testTenant, "user", f.cart(salestypes.CartLine{ProductID: f.mugID, Quantity: 1})), http.StatusForbidden, "forbidden")
}

func TestOrdersAPI_ListFilters(t *testing.T) {
	f := newOrderFixture(t)
	var ids []string
	for range 3 {
		o := decodeBody[salestypes.Order](t, f.s.do(http.MethodPost, "/sales/api/orders", testTenant, "admin", f.cart(
			salestypes.CartLine{ProductID: f.mugID, Quantity: 1},
		)))
		ids = append(ids, o.ID)
	}
	_ = f.s.do(http.MethodPost, "/sales/api/orders/"+ids[0]+":cancel", testTenant, "admin", nil)

	pending := decodeBody[ordersListResponse](t, f.s.do(http.MethodGet, "/sales/api/orders?status=pending", testTenant, "admin", nil))
	if len(pending.Items) != 2 {
		t.Fatalf("pending=%d", len(pending.Items))
	}
	limited := decodeBody[ordersListResponse](t, f.s.do(http.MethodGet, "/sales/api/orders?limit=1", testTenant, "admin", nil))
	if len(limited.Items) != 1 {
		t.Fatalf("limited=%d", len(limited.Items))
	}

	expectError(t, f.s.do(http.MethodGet, "/sales/api/orders?status=shipped", testTenant, "admin", nil), http.StatusBadRequest, "invalid_status_filter")
	expectError(t, f.s.do(http.MethodGet, "/sales/api/orders?limit=0", testTenant, "admin", nil), http.StatusBadRequest, "invalid_limit")
}

func TestOrdersAPI_IdempotentReplay(t *testing.T) {
	f := newOrderFixture(t)
	body := f.cart(salestypes.CartLine{ProductID: f.mugID, Quantity: 1})

	first := f.s.do(http.MethodPost, "/sales/api/orders", testTenant, "admin", body, idempotencyKeyHeader, "key-1")
	if first.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", first.Code, first.Body.String())
	}
	second := f.s.do(http.MethodPost, "/sales/api/orders", testTenant, "admin", body, idempotencyKeyHeader, "key-1")
	if second.Code != http.StatusOK || second.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("replay status=%d headers=%v", second.Code, second.Header())
	}
	a, b := decodeBody[salestypes.Order](t, first), decodeBody[salestypes.Order](t, second)
	if a.ID != b.ID {
		t.Fatalf("replay returned %s, want %s", b.ID, a.ID)
	}
	if f.stockOf(t, f.mugID) != 4 {
		t.Fatal("replay must not debit stock again")
	}

	long := fmt.Sprintf("%0256d", 0)
	expectError(t, f.s.do(http.MethodPost, "/sales/api/orders", testTenant, "admin", body, idempotencyKeyHeader, long), http.StatusBadRequest, "invalid_request")
}

func TestOrderErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{salestypes.ErrEmptyCart(), http.StatusBadRequest},
		{salestypes.ErrOrderNotFound(), http.StatusNotFound},
		{salestypes.ErrAlreadyCancelled(), http.StatusConflict},
		{salestypes.ErrIdempotencyInProgress(), http.StatusConflict},
	}
	for _, tc := range cases {
		oe, ok := salestypes.AsOrderError(tc.err)
		if !ok {
			t.Fatalf("%v is not an OrderError", tc.err)
		}
		if got := orderErrorStatus(oe); got != tc.want {
			t.Fatalf("%s => %d want %d", oe.Code, got, tc.want)
		}
	}
}
