// Package handler wires the official-registry lookup endpoint.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"origen/internal/registry"
	id "origen/pkg/domain"
	"origen/pkg/platform/httputil"
	"origen/pkg/requestcontext"
)

// Handler wires registry endpoints to the registry service.
type Handler struct {
	service *registry.Service
	logger  *slog.Logger
}

func New(service *registry.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts registry endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/registry/curp", h.HandleVerifyCURP)
}

// VerifyCURPRequest is the payload for POST /registry/curp.
type VerifyCURPRequest struct {
	PersonID string `json:"person_id"`
	CURP     string `json:"curp"`
}

// HandleVerifyCURP handles POST /registry/curp.
func (h *Handler) HandleVerifyCURP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.Decode[VerifyCURPRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	personID, err := id.ParsePersonID(req.PersonID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.service.VerifyCURP(ctx, personID, req.CURP)
	if err != nil {
		h.logger.WarnContext(ctx, "curp verification failed",
			"request_id", requestID,
			"person_id", personID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}
