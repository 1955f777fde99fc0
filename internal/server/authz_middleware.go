package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/internal/routing"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/pkg/authz"
)

// LoadAuthorizer builds the casbin authorizer. Blank paths are searched
// for under config/access from the working directory upwards.
func LoadAuthorizer(modelPath string, policyPath string, mode authz.Mode) (*authz.Authorizer, error) {
	if modelPath == "" {
		p, err := findUpwards("config/access/model.conf")
		if err != nil {
			return nil, err
		}
		modelPath = p
	}
	if policyPath == "" {
		p, err := findUpwards("config/access/policy.csv")
		if err != nil {
			return nil, err
		}
		policyPath = p
	}
	return authz.NewAuthorizer(modelPath, policyPath, mode)
}

func findUpwards(path string) (string, error) {
	for range 8 {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = filepath.Join("..", path)
	}
	return "", errors.New("server: " + filepath.Base(path) + " not found")
}

type authorizer interface {
	Authorize(subject string, domain string, object string, action string) (allowed bool, enforced bool, err error)
}

func withAuthz(classifier *routing.Classifier, a authorizer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if isOpsPath(path) {
			next.ServeHTTP(w, r)
			return
		}
		rc := classifier.Classify(path)

		object, action, shouldCheck := authzRequirementForRoute(r.Method, path)
		if !shouldCheck {
			next.ServeHTTP(w, r)
			return
		}

		tenant, ok := currentTenant(r.Context())
		if !ok {
			routing.WriteError(w, r, rc, http.StatusInternalServerError, "tenant_missing", "tenant missing")
			return
		}
		roleSlug := authz.RoleAnonymous
		if p, ok := currentPrincipal(r.Context()); ok {
			roleSlug = p.RoleSlug
		}

		allowed, enforced, err := a.Authorize(authz.SubjectFromRoleSlug(roleSlug), authz.DomainFromTenantID(tenant.ID), object, action)
		if err != nil {
			requestLogger(r).ErrorContext(r.Context(), "authz error", "error", err)
			routing.WriteError(w, r, rc, http.StatusInternalServerError, "authz_error", "authz error")
			return
		}
		if !allowed {
			if enforced {
				routing.WriteError(w, r, rc, http.StatusForbidden, "forbidden", "forbidden")
				return
			}
			requestLogger(r).WarnContext(r.Context(), "authz shadow deny", "role", roleSlug, "object", object, "action", action)
		}

		next.ServeHTTP(w, r)
	})
}

var (
	patternOrderGet      = routeMatcher("/sales/api/orders/{id}")
	patternOrderComplete = routeMatcher("/sales/api/orders/{id}:complete")
	patternOrderCancel   = routeMatcher("/sales/api/orders/{id}:cancel")
)

func routeMatcher(raw string) func(string) bool {
	return func(path string) bool { return routing.MatchPath(raw, path) }
}

// authzRequirementForRoute maps a route to its casbin object and action.
// The assistant checks its own permission so it can answer with its
// own denial message.
func authzRequirementForRoute(method string, path string) (object string, action string, ok bool) {
	switch {
	case patternOrderComplete(path), patternOrderCancel(path):
		if method == http.MethodPost {
			return authz.ObjectSalesOrders, authz.ActionTransition, true
		}
		return "", "", false
	case patternOrderGet(path):
		if method == http.MethodGet {
			return authz.ObjectSalesOrders, authz.ActionRead, true
		}
		return "", "", false
	}

	switch path {
	case "/catalog/api/clients":
		return readWrite(method, authz.ObjectCatalogClients, authz.ActionWrite)
	case "/catalog/api/products":
		return readWrite(method, authz.ObjectCatalogProducts, authz.ActionWrite)
	case "/sales/api/orders":
		return readWrite(method, authz.ObjectSalesOrders, authz.ActionCreate)
	default:
		return "", "", false
	}
}

func readWrite(method string, object string, writeAction string) (string, string, bool) {
	switch method {
	case http.MethodGet:
		return object, authz.ActionRead, true
	case http.MethodPost:
		return object, writeAction, true
	default:
		return "", "", false
	}
}
