package types

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseStatus(t *testing.T) {
	for raw, want := range map[string]Status{"pending": StatusPending, " COMPLETED ": StatusCompleted, "Cancelled": StatusCancelled} {
		got, ok := ParseStatus(raw)
		if !ok || got != want {
			t.Fatalf("raw=%q got=%q ok=%v", raw, got, ok)
		}
	}
	if _, ok := ParseStatus("shipped"); ok {
		t.Fatal("expected unknown status")
	}
}

func TestTransitionTo(t *testing.T) {
	cases := []struct {
		from, to Status
		code     string
	}{
		{StatusPending, StatusCompleted, ""},
		{StatusPending, StatusCancelled, ""},
		{StatusPending, StatusPending, CodeInvalidStatusTarget},
		{StatusPending, Status("SHIPPED"), CodeInvalidStatusTarget},
		{StatusCompleted, StatusCancelled, CodeAlreadyCompleted},
		{StatusCompleted, StatusCompleted, CodeAlreadyCompleted},
		{StatusCompleted, StatusPending, CodeAlreadyCompleted},
		{StatusCancelled, StatusCompleted, CodeAlreadyCancelled},
		{StatusCancelled, StatusCancelled, CodeAlreadyCancelled},
		{StatusCancelled, StatusPending, CodeAlreadyCancelled},
	}
	for _, tc := range cases {
		err := tc.from.TransitionTo(tc.to)
		if tc.code == "" {
			if err != nil {
				t.Fatalf("%s->%s err=%v", tc.from, tc.to, err)
			}
			continue
		}
		if !HasCode(err, tc.code) {
			t.Fatalf("%s->%s err=%v want=%s", tc.from, tc.to, err, tc.code)
		}
	}
}

func TestStatusHelpers(t *testing.T) {
	if StatusPending.Terminal() || !StatusCompleted.Terminal() || !StatusCancelled.Terminal() {
		t.Fatal("terminal mismatch")
	}
	if !StatusCancelled.RestoresStock() || StatusCompleted.RestoresStock() {
		t.Fatal("restores stock mismatch")
	}
	if StatusCancelled.EventType() != EventOrderCancelled || StatusCompleted.EventType() != EventOrderCompleted || StatusPending.EventType() != EventOrderCreated {
		t.Fatal("event type mismatch")
	}
}

func TestOrderError(t *testing.T) {
	err := ErrInsufficientStock("Camiseta")
	if err.Error() != "INSUFFICIENT_STOCK:Camiseta" {
		t.Fatalf("err=%q", err.Error())
	}
	if !errors.Is(err, ErrInsufficientStock("")) {
		t.Fatal("expected errors.Is by code")
	}
	oe, ok := AsOrderError(err)
	if !ok || oe.Kind != KindBusiness || oe.ProductName != "Camiseta" {
		t.Fatalf("oe=%+v", oe)
	}
	if HasCode(errors.New("INSUFFICIENT_STOCK"), CodeInsufficientStock) {
		t.Fatal("plain errors never carry a code")
	}
}

func TestItemsTotal(t *testing.T) {
	items := []OrderItem{
		{Quantity: 3, Price: decimal.RequireFromString("10.50")},
		{Quantity: 2, Price: decimal.RequireFromString("0.25")},
	}
	if got := ItemsTotal(items); !got.Equal(decimal.RequireFromString("32.00")) {
		t.Fatalf("total=%s", got)
	}
	if !ItemsTotal(nil).IsZero() {
		t.Fatal("expected zero")
	}
}
