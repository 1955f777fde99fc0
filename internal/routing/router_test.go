package routing

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	c, err := NewClassifier(serverAllowlist(), "server")
	if err != nil {
		t.Fatal(err)
	}
	return NewRouter(c)
}

func TestRouter_PanicBecomes500JSON(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	r.Handle(RouteClassPublicAPI, http.MethodGet, "/api/v1/panic", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/panic", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("content-type=%q", rec.Header().Get("Content-Type"))
	}
}

func TestRouter_MethodNotAllowed_JSONOnly(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	r.Handle(RouteClassPublicAPI, http.MethodGet, "/api/v1/ping", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ping", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("content-type=%q", rec.Header().Get("Content-Type"))
	}
}

func TestRouter_PathParams(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	var got string
	r.Handle(RouteClassInternalAPI, http.MethodPost, "/sales/api/orders/{id}:cancel", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		got = PathParam(req, "id")
		w.WriteHeader(http.StatusNoContent)
	}))
	r.Handle(RouteClassInternalAPI, http.MethodPost, "/sales/api/orders/{id}:complete", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		got = "complete:" + PathParam(req, "id")
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sales/api/orders/o-1:cancel", nil))
	if rec.Code != http.StatusNoContent || got != "o-1" {
		t.Fatalf("status=%d got=%q", rec.Code, got)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sales/api/orders/o-2:complete", nil))
	if got != "complete:o-2" {
		t.Fatalf("got=%q", got)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales/api/orders/o-2:complete", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", rec.Code)
	}

	if PathParam(httptest.NewRequest(http.MethodGet, "/", nil), "id") != "" {
		t.Fatal("expected empty param outside router")
	}
}

func TestRouter_SuffixedPatternBeatsBareParam(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	var hit string
	r.Handle(RouteClassInternalAPI, http.MethodGet, "/sales/api/orders/{id}", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		hit = "get"
	}))
	r.Handle(RouteClassInternalAPI, http.MethodPost, "/sales/api/orders/{id}:cancel", http.HandlerFunc(func(_ http.ResponseWriter, req *http.Request) {
		hit = "cancel:" + PathParam(req, "id")
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sales/api/orders/o-9:cancel", nil))
	if rec.Code != http.StatusOK || hit != "cancel:o-9" {
		t.Fatalf("status=%d hit=%q", rec.Code, hit)
	}
	if got := r.Template(httptest.NewRequest(http.MethodPost, "/sales/api/orders/o-9:cancel", nil)); got != "/sales/api/orders/{id}:cancel" {
		t.Fatalf("template=%q", got)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales/api/orders/o-9", nil))
	if hit != "get" {
		t.Fatalf("hit=%q", hit)
	}
}

func TestRouter_Template(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	r.Handle(RouteClassOps, http.MethodGet, "/health", noop)
	r.Handle(RouteClassInternalAPI, http.MethodPost, "/sales/api/orders/{id}:cancel", noop)

	cases := map[string]string{
		"/health":                    "/health",
		"/sales/api/orders/x:cancel": "/sales/api/orders/{id}:cancel",
		"/nope":                      "",
	}
	for path, want := range cases {
		if got := r.Template(httptest.NewRequest(http.MethodGet, path, nil)); got != want {
			t.Fatalf("path=%s got=%q want=%q", path, got, want)
		}
	}
}

func TestEntrypointClass_Fallback(t *testing.T) {
	t.Parallel()

	if got := entrypointClass(map[string]routeEntry{}, RouteClassUnknown); got != RouteClassUnknown {
		t.Fatalf("got=%q", got)
	}
}
