// Package handler wires the person endpoints.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"origen/internal/person/models"
	"origen/internal/person/service"
	id "origen/pkg/domain"
	"origen/pkg/platform/httputil"
	"origen/pkg/requestcontext"
)

// Handler wires person endpoints to the person service.
type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

func New(service *service.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts person endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/persons", h.HandleCreate)
	r.Get("/persons/{personID}", h.HandleGet)
	r.Post("/persons/{personID}/identifications", h.HandleAddIdentification)
}

// CreateRequest is the payload for POST /persons.
type CreateRequest struct {
	FirstName string `json:"first_name"`
	LastName1 string `json:"last_name_1"`
	LastName2 string `json:"last_name_2,omitempty"`
	BirthDate string `json:"birth_date,omitempty"`
	CURP      string `json:"curp,omitempty"`
	RFC       string `json:"rfc,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// AddIdentificationRequest is the payload for
// POST /persons/{personID}/identifications.
type AddIdentificationRequest struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// HandleCreate handles POST /persons.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[CreateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	person, err := h.service.CreatePerson(ctx, requestcontext.TenantID(ctx), service.CreatePersonInput{
		FirstName: req.FirstName,
		LastName1: req.LastName1,
		LastName2: req.LastName2,
		BirthDate: req.BirthDate,
		CURP:      req.CURP,
		RFC:       req.RFC,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, person)
}

// HandleGet handles GET /persons/{personID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	personID, err := id.ParsePersonID(chi.URLParam(r, "personID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	person, err := h.service.GetPerson(r.Context(), personID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, person)
}

// HandleAddIdentification handles POST /persons/{personID}/identifications.
func (h *Handler) HandleAddIdentification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	personID, err := id.ParsePersonID(chi.URLParam(r, "personID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[AddIdentificationRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	ident, err := h.service.AddIdentification(ctx, personID, models.IdentificationType(req.Type), req.Value)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, ident)
}
