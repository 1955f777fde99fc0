package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/pkg/authz"
)

const (
	testTenant      = "tenant-a"
	testOtherTenant = "tenant-b"
)

var testTokens = TokenConfig{
	Secret:   "test-secret-0123456789abcdef0123456789",
	Issuer:   "smartbiz",
	Audience: "smartbiz-api",
	TTL:      time.Hour,
}

type memIdempotency struct {
	mu     sync.Mutex
	locks  map[string]bool
	values map[string]string
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{locks: map[string]bool{}, values: map[string]string{}}
}

func (m *memIdempotency) TryLock(_ context.Context, scope, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := scope + ":" + key
	if m.locks[k] {
		return false, nil
	}
	m.locks[k] = true
	return true, nil
}

func (m *memIdempotency) Release(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, scope+":"+key)
	return nil
}

func (m *memIdempotency) Remember(_ context.Context, scope, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[scope+":"+key] = value
	return nil
}

func (m *memIdempotency) Recall(_ context.Context, scope, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[scope+":"+key]
	return v, ok, nil
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	metrics *Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	az, err := LoadAuthorizer("", "", authz.ModeEnforce)
	if err != nil {
		t.Fatalf("authorizer: %v", err)
	}
	m := NewMetrics()
	h, err := NewHandlerWithOptions(HandlerOptions{
		Tokens:      testTokens,
		Authorizer:  az,
		Metrics:     m,
		Idempotency: newMemIdempotency(),
	})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return &testServer{t: t, handler: h, metrics: m}
}

func tokenFor(t *testing.T, tenantID, role string) string {
	t.Helper()
	tok, err := IssueToken(testTokens, Principal{ID: "user-" + role, TenantID: tenantID, RoleSlug: role})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return tok
}

// do sends body as JSON with a token for (tenant, role); an empty role
// sends no Authorization header.
func (s *testServer) do(method, path, tenantID, role string, body any, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+tokenFor(s.t, tenantID, role))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

type errBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status=%d want %d body=%s", rec.Code, status, rec.Body.String())
	}
	if got := decodeBody[errBody](t, rec).Code; got != code {
		t.Fatalf("code=%q want %q", got, code)
	}
}
