package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	salestypes "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/domain/types"
)

const tenantA = "00000000-0000-0000-0000-00000000000a"

func TestReaderPG_Counts(t *testing.T) {
	ctx := context.Background()

	t.Run("begin error", func(t *testing.T) {
		r := &ReaderPGStore{pool: beginnerFunc(func(context.Context) (pgx.Tx, error) { return nil, errors.New("begin") })}
		if _, err := r.CountClients(ctx, tenantA); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("low stock passes threshold", func(t *testing.T) {
		tx := &stubTx{row: [][]any{{4}}}
		r := &ReaderPGStore{pool: tx}
		n, err := r.CountLowStock(ctx, tenantA, 8)
		if err != nil || n != 4 {
			t.Fatalf("n=%d err=%v", n, err)
		}
		if tx.rowArgs[0][0] != tenantA || tx.rowArgs[0][1] != 8 {
			t.Fatalf("args=%v", tx.rowArgs[0])
		}
		if !tx.committed {
			t.Fatal("expected commit")
		}
	})

	t.Run("orders by status", func(t *testing.T) {
		tx := &stubTx{row: [][]any{{6, 3, 2, 1}}}
		c, err := (&ReaderPGStore{pool: tx}).CountOrders(ctx, tenantA)
		if err != nil || c.Total != 6 || c.Pending != 3 || c.Completed != 2 || c.Cancelled != 1 {
			t.Fatalf("c=%+v err=%v", c, err)
		}
	})

	t.Run("revenue", func(t *testing.T) {
		tx := &stubTx{row: [][]any{{"149.80"}}}
		rev, err := (&ReaderPGStore{pool: tx}).Revenue(ctx, tenantA)
		if err != nil || !rev.Equal(decimal.RequireFromString("149.8")) {
			t.Fatalf("rev=%s err=%v", rev, err)
		}
	})

	t.Run("query error", func(t *testing.T) {
		tx := &stubTx{rowErr: errors.New("db")}
		if _, err := (&ReaderPGStore{pool: tx}).CountProducts(ctx, tenantA); err == nil {
			t.Fatal("expected error")
		}
		if tx.committed {
			t.Fatal("unexpected commit")
		}
	})
}

func TestReaderPG_Lists(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("search escapes like wildcards", func(t *testing.T) {
		tx := &stubTx{rows: [][][]any{{{"c1", tenantA, "Carla", "", "", at}}}}
		got, err := (&ReaderPGStore{pool: tx}).SearchClients(ctx, tenantA, "50%_off", 12)
		if err != nil || len(got) != 1 {
			t.Fatalf("got=%v err=%v", got, err)
		}
		if tx.queryArgs[0][1] != `50\%\_off` {
			t.Fatalf("pattern=%v", tx.queryArgs[0][1])
		}
	})

	t.Run("low stock", func(t *testing.T) {
		tx := &stubTx{rows: [][][]any{{
			{"a", tenantA, "A", "1.00", 3, at},
			{"c", tenantA, "C", "1.00", 8, at},
		}}}
		got, err := (&ReaderPGStore{pool: tx}).LowStock(ctx, tenantA, 8, 12)
		if err != nil || len(got) != 2 || got[1].Stock != 8 {
			t.Fatalf("got=%+v err=%v", got, err)
		}
	})

	t.Run("bad price", func(t *testing.T) {
		tx := &stubTx{rows: [][][]any{{{"a", tenantA, "A", "x", 3, at}}}}
		if _, err := (&ReaderPGStore{pool: tx}).RecentProducts(ctx, tenantA, 12); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("recent orders with filter", func(t *testing.T) {
		tx := &stubTx{rows: [][][]any{{{"o1", "Carla", "c@x.com", "PENDING", "25.00"}}}}
		got, err := (&ReaderPGStore{pool: tx}).RecentOrders(ctx, tenantA, salestypes.StatusPending, 10)
		if err != nil || len(got) != 1 || got[0].Status != salestypes.StatusPending {
			t.Fatalf("got=%+v err=%v", got, err)
		}
		if tx.queryArgs[0][1] != "PENDING" {
			t.Fatalf("args=%v", tx.queryArgs[0])
		}
	})

	t.Run("recent clients query error", func(t *testing.T) {
		tx := &stubTx{queryErr: errors.New("db")}
		if _, err := (&ReaderPGStore{pool: tx}).RecentClients(ctx, tenantA, 12); err == nil {
			t.Fatal("expected error")
		}
	})
}
