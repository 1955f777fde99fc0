package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/internal/logging"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/internal/routing"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/pkg/authz"
)

const tokenLeeway = 30 * time.Second

var errInvalidToken = errors.New("server: invalid token")

// TokenConfig holds the HS256 settings shared by IssueToken and the
// identity middleware.
type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
	// Now is used for issuing and verifying; nil means time.Now.
	Now func() time.Time
}

func (c TokenConfig) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

type tokenClaims struct {
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken mints a signed bearer token for p.
func IssueToken(cfg TokenConfig, p Principal) (string, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return "", errors.New("server: token secret is empty")
	}
	if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.TenantID) == "" {
		return "", errors.New("server: token needs a subject and a tenant")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	now := cfg.now()
	claims := tokenClaims{
		TenantID: p.TenantID,
		Role:     strings.ToLower(strings.TrimSpace(p.RoleSlug)),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
}

// VerifyToken checks signature, issuer, audience and expiry.
func VerifyToken(cfg TokenConfig, raw string) (Principal, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return []byte(cfg.Secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audience),
		jwt.WithLeeway(tokenLeeway),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(cfg.now),
	)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w", errInvalidToken, err)
	}
	if claims.Subject == "" || strings.TrimSpace(claims.TenantID) == "" {
		return Principal{}, fmt.Errorf("%w: missing subject or tenant", errInvalidToken)
	}
	role := strings.ToLower(strings.TrimSpace(claims.Role))
	if !authz.KnownRole(role) {
		return Principal{}, fmt.Errorf("%w: unknown role %q", errInvalidToken, claims.Role)
	}
	return Principal{ID: claims.Subject, TenantID: strings.TrimSpace(claims.TenantID), RoleSlug: role}, nil
}

func bearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func isOpsPath(path string) bool {
	return path == "/health" || path == "/metrics"
}

// withIdentity turns the bearer token into a Principal and its Tenant.
func withIdentity(classifier *routing.Classifier, cfg TokenConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isOpsPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		rc := classifier.Classify(r.URL.Path)

		raw, ok := bearerToken(r)
		if !ok {
			routing.WriteError(w, r, rc, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		p, err := VerifyToken(cfg, raw)
		if err != nil {
			requestLogger(r).InfoContext(r.Context(), "token rejected", "error", err)
			routing.WriteError(w, r, rc, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}

		ctx := withPrincipal(r.Context(), p)
		ctx = withTenant(ctx, Tenant{ID: p.TenantID})
		ctx = logging.WithCtx(ctx, requestLogger(r).With("tenant_id", p.TenantID, "user_id", p.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withTenantGuard rejects requests that reached the API without a tenant.
func withTenantGuard(classifier *routing.Classifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isOpsPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		t, ok := currentTenant(r.Context())
		if !ok || strings.TrimSpace(t.ID) == "" {
			routing.WriteError(w, r, classifier.Classify(r.URL.Path), http.StatusUnauthorized, "tenant_missing", "tenant missing")
			return
		}
		if h := strings.TrimSpace(r.Header.Get("X-Tenant-ID")); h != "" && !strings.EqualFold(h, t.ID) {
			routing.WriteError(w, r, classifier.Classify(r.URL.Path), http.StatusForbidden, "tenant_mismatch", "tenant header does not match token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
