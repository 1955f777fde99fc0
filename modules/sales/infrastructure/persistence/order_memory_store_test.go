package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/internal/memstore"
	catalogtypes "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/catalog/domain/types"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/domain/ports"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/domain/types"
)

func seed(t *testing.T, db *memstore.DB) {
	t.Helper()
	err := db.Update(context.Background(), func(tb *memstore.Tables) error {
		tb.Clients["c1"] = catalogtypes.Client{ID: "c1", TenantID: "t1", Name: "Carla"}
		tb.Clients["c2"] = catalogtypes.Client{ID: "c2", TenantID: "t2", Name: "Other"}
		tb.Products["p2"] = catalogtypes.Product{ID: "p2", TenantID: "t1", Name: "Caneca", Price: decimal.NewFromInt(10), Stock: 5}
		tb.Products["p1"] = catalogtypes.Product{ID: "p1", TenantID: "t1", Name: "Camiseta", Price: decimal.NewFromInt(50), Stock: 1}
		tb.Products["p9"] = catalogtypes.Product{ID: "p9", TenantID: "t2", Name: "Alien", Price: decimal.NewFromInt(1), Stock: 1}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestOrderMemoryStore_TxScoping(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	seed(t, db)
	s := NewOrderMemoryStore(db)

	err := s.WithinTenantTx(ctx, "t1", func(tx ports.OrderTx) error {
		if _, ok, _ := tx.FindClient(ctx, "c2"); ok {
			t.Fatal("client of another tenant visible")
		}
		got, _ := tx.LockProducts(ctx, []string{"p2", "p1", "p9", "missing"})
		if len(got) != 2 || got[0].ID != "p1" || got[1].ID != "p2" {
			t.Fatalf("got=%+v", got)
		}
		if ok, _ := tx.DebitStock(ctx, "p1", 2); ok {
			t.Fatal("debit past zero applied")
		}
		if ok, _ := tx.DebitStock(ctx, "p2", 5); !ok {
			t.Fatal("debit refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}

	_ = db.View(ctx, func(tb *memstore.Tables) error {
		if tb.Products["p2"].Stock != 0 || tb.Products["p1"].Stock != 1 {
			t.Fatalf("products=%+v", tb.Products)
		}
		return nil
	})
}

func TestOrderMemoryStore_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	seed(t, db)
	s := NewOrderMemoryStore(db)

	boom := errors.New("boom")
	err := s.WithinTenantTx(ctx, "t1", func(tx ports.OrderTx) error {
		if ok, _ := tx.DebitStock(ctx, "p2", 3); !ok {
			t.Fatal("debit refused")
		}
		_ = tx.InsertOrder(ctx, types.Order{ID: "o1", ClientID: "c1", Status: types.StatusPending})
		_ = tx.AppendEvent(ctx, types.Event{ID: "e1", OrderID: "o1"})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
	if _, ok, _ := s.GetOrder(ctx, "t1", "o1"); ok {
		t.Fatal("order survived rollback")
	}
	if evts := db.DrainEvents(); len(evts) != 0 {
		t.Fatalf("events=%v", evts)
	}
}

func TestOrderMemoryStore_Reads(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	seed(t, db)
	s := NewOrderMemoryStore(db)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	err := s.WithinTenantTx(ctx, "t1", func(tx ports.OrderTx) error {
		for i, st := range []types.Status{types.StatusPending, types.StatusCompleted, types.StatusPending} {
			o := types.Order{
				ID: "o" + string(rune('1'+i)), ClientID: "c1", Status: st, CreatedAt: base.Add(time.Duration(i) * time.Hour),
				Items: []types.OrderItem{{ID: "i", ProductID: "p2", Quantity: 1, Price: decimal.NewFromInt(10)}},
			}
			if err := tx.InsertOrder(ctx, o); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}

	got, err := s.ListOrders(ctx, "t1", types.OrderFilter{Status: types.StatusPending})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(got) != 2 || got[0].ID != "o3" || got[1].ID != "o1" {
		t.Fatalf("got=%+v", got)
	}
	if got[0].ClientName != "Carla" || got[0].Items[0].ProductName != "Caneca" {
		t.Fatalf("not hydrated: %+v", got[0])
	}

	limited, _ := s.ListOrders(ctx, "t1", types.OrderFilter{Limit: 1})
	if len(limited) != 1 || limited[0].ID != "o3" {
		t.Fatalf("limited=%+v", limited)
	}

	if other, _ := s.ListOrders(ctx, "t2", types.OrderFilter{}); len(other) != 0 {
		t.Fatalf("tenant leak: %+v", other)
	}
	if _, ok, _ := s.GetOrder(ctx, "t2", "o1"); ok {
		t.Fatal("tenant leak on get")
	}
}
