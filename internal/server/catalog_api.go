package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/internal/routing"
	catalogtypes "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/catalog/domain/types"
	catalogservices "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/catalog/services"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/pkg/httperr"
)

const maxBodyBytes = 1 << 20

type clientsListResponse struct {
	Items []catalogtypes.Client `json:"items"`
}

type productsListResponse struct {
	Items []catalogtypes.Product `json:"items"`
}

func handleClientsAPI(w http.ResponseWriter, r *http.Request, svc catalogservices.CatalogService) {
	tenant, ok := currentTenant(r.Context())
	if !ok {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "tenant_missing", "tenant missing")
		return
	}

	switch r.Method {
	case http.MethodGet:
		items, err := svc.ListClients(r.Context(), tenant.ID)
		if err != nil {
			writeServiceError(w, r, err, "client_list_failed")
			return
		}
		routing.WriteJSON(w, http.StatusOK, clientsListResponse{Items: nonNil(items)})
	case http.MethodPost:
		var in catalogtypes.NewClient
		if !decodeJSONBody(w, r, &in) {
			return
		}
		c, err := svc.CreateClient(r.Context(), tenant.ID, in)
		if err != nil {
			writeServiceError(w, r, err, "client_create_failed")
			return
		}
		routing.WriteJSON(w, http.StatusCreated, c)
	default:
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}
}

func handleProductsAPI(w http.ResponseWriter, r *http.Request, svc catalogservices.CatalogService) {
	tenant, ok := currentTenant(r.Context())
	if !ok {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "tenant_missing", "tenant missing")
		return
	}

	switch r.Method {
	case http.MethodGet:
		items, err := svc.ListProducts(r.Context(), tenant.ID)
		if err != nil {
			writeServiceError(w, r, err, "product_list_failed")
			return
		}
		routing.WriteJSON(w, http.StatusOK, productsListResponse{Items: nonNil(items)})
	case http.MethodPost:
		var in catalogtypes.NewProduct
		if !decodeJSONBody(w, r, &in) {
			return
		}
		p, err := svc.CreateProduct(r.Context(), tenant.ID, in)
		if err != nil {
			writeServiceError(w, r, err, "product_create_failed")
			return
		}
		routing.WriteJSON(w, http.StatusCreated, p)
	default:
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}
}

// decodeJSONBody writes the 400 itself and reports false on failure.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "invalid_request", "request body is empty")
			return false
		}
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "invalid_request", "invalid json: "+err.Error())
		return false
	}
	return true
}

// writeServiceError maps typed service errors to their status and stable
// code; anything else is logged and reported as fallback.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := httperr.StatusOf(err)
	if status == http.StatusInternalServerError {
		if code, ok := stablePgCode(err); ok {
			routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusConflict, code, code)
			return
		}
		if isPgInvalidInput(err) {
			routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "invalid_request", "invalid input")
			return
		}
		requestLogger(r).ErrorContext(r.Context(), "catalog request failed", "error", err)
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, fallback, fallback)
		return
	}
	code := err.Error()
	if !isStableCode(code) {
		code = "invalid_request"
	}
	routing.WriteError(w, r, routing.RouteClassInternalAPI, status, code, code)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
