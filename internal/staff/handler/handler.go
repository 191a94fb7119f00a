// Package handler wires the staff endpoints: login and account management.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"origen/internal/staff/models"
	"origen/internal/staff/service"
	id "origen/pkg/domain"
	"origen/pkg/platform/httputil"
	"origen/pkg/requestcontext"
)

// Handler wires staff endpoints to the staff service.
type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

func New(service *service.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the unauthenticated login endpoint.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/staff/login", h.HandleLogin)
}

// Register mounts the authenticated staff endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/staff", h.HandleCreate)
	r.Get("/staff/{staffID}", h.HandleGet)
}

// LoginRequest is the payload for POST /staff/login.
type LoginRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

// LoginResponse returns the minted access token.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	Staff       *models.Staff  `json:"staff"`
}

// CreateRequest is the payload for POST /staff.
type CreateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// CreateResponse returns the record with the one-time secret. The secret is
// shown exactly once; only its hash is stored.
type CreateResponse struct {
	Staff  *models.Staff `json:"staff"`
	Secret string        `json:"secret"`
}

// HandleLogin handles POST /staff/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[LoginRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	token, staff, err := h.service.Login(ctx, req.Email, req.Secret)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		Staff:       staff,
	})
}

// HandleCreate handles POST /staff.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[CreateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	staff, secret, err := h.service.CreateStaff(ctx, requestcontext.TenantID(ctx), req.Name, req.Email, req.Role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, CreateResponse{Staff: staff, Secret: secret})
}

// HandleGet handles GET /staff/{staffID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	staffID, err := id.ParseStaffID(chi.URLParam(r, "staffID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	staff, err := h.service.Get(r.Context(), staffID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, staff)
}
