package server

import (
	"context"
	"testing"
)

func TestTenantContext(t *testing.T) {
	if _, ok := currentTenant(context.Background()); ok {
		t.Fatal("unexpected tenant")
	}
	ctx := withTenant(context.Background(), Tenant{ID: "t1"})
	got, ok := currentTenant(ctx)
	if !ok || got.ID != "t1" {
		t.Fatalf("got=%+v ok=%v", got, ok)
	}
}

func TestPrincipalContext(t *testing.T) {
	if _, ok := currentPrincipal(context.Background()); ok {
		t.Fatal("unexpected principal")
	}
	p := Principal{ID: "u1", TenantID: "t1", RoleSlug: "sales"}
	got, ok := currentPrincipal(withPrincipal(context.Background(), p))
	if !ok || got != p {
		t.Fatalf("got=%+v ok=%v", got, ok)
	}
}
