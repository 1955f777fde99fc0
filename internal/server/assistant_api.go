package server

import (
	"errors"
	"net/http"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/internal/routing"
	assistanttypes "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/assistant/domain/types"
	assistantservices "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/assistant/services"
)

type chatRequest struct {
	Message string `json:"message"`
}

// handleAssistantChatAPI answers {"answer": ...} for success as well as
// for the empty-question and forbidden cases, so chat clients can render
// every reply the same way.
func handleAssistantChatAPI(w http.ResponseWriter, r *http.Request, svc *assistantservices.ChatService) {
	tenant, ok := currentTenant(r.Context())
	if !ok {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "tenant_missing", "tenant missing")
		return
	}
	if r.Method != http.MethodPost {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	var req chatRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	role := ""
	if p, ok := currentPrincipal(r.Context()); ok {
		role = p.RoleSlug
	}

	answer, err := svc.Chat(r.Context(), tenant.ID, role, req.Message)
	switch {
	case err == nil:
		routing.WriteJSON(w, http.StatusOK, answer)
	case errors.Is(err, assistantservices.ErrEmptyQuery):
		routing.WriteJSON(w, http.StatusBadRequest, assistanttypes.Answer{Answer: assistantservices.MsgEmptyQuery})
	case errors.Is(err, assistantservices.ErrForbidden):
		routing.WriteJSON(w, http.StatusForbidden, assistanttypes.Answer{Answer: assistantservices.MsgForbidden})
	default:
		requestLogger(r).ErrorContext(r.Context(), "assistant chat failed", "error", err)
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "assistant_failed", "assistant_failed")
	}
}
