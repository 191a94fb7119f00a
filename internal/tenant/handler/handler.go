// Package handler wires the tenant endpoints.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"origen/internal/tenant/service"
	id "origen/pkg/domain"
	"origen/pkg/platform/httputil"
	"origen/pkg/requestcontext"
)

// Handler wires tenant endpoints to the tenant service.
type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

func New(service *service.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts tenant onboarding, which has no tenant to
// authenticate against yet.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/tenants", h.HandleCreate)
}

// Register mounts the authenticated tenant endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/tenants/{tenantID}", h.HandleGet)
	r.Post("/tenants/{tenantID}/deactivate", h.HandleDeactivate)
	r.Post("/tenants/{tenantID}/reactivate", h.HandleReactivate)
}

// CreateRequest is the payload for POST /tenants.
type CreateRequest struct {
	Name string `json:"name"`
}

// HandleCreate handles POST /tenants.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[CreateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	tenant, err := h.service.CreateTenant(ctx, req.Name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, tenant)
}

func (h *Handler) tenantID(w http.ResponseWriter, r *http.Request) (id.TenantID, bool) {
	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.TenantID{}, false
	}
	return tenantID, true
}

// HandleGet handles GET /tenants/{tenantID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	details, err := h.service.GetTenant(r.Context(), tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, details)
}

// HandleDeactivate handles POST /tenants/{tenantID}/deactivate.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	tenant, err := h.service.DeactivateTenant(r.Context(), tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tenant)
}

// HandleReactivate handles POST /tenants/{tenantID}/reactivate.
func (h *Handler) HandleReactivate(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	tenant, err := h.service.ReactivateTenant(r.Context(), tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tenant)
}
