// Package handler wires the verification endpoints to the lock engine.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	personmodels "origen/internal/person/models"
	staffmodels "origen/internal/staff/models"
	"origen/internal/verification/models"
	"origen/internal/verification/service"
	id "origen/pkg/domain"
	dErrors "origen/pkg/domain-errors"
	"origen/pkg/platform/httputil"
	"origen/pkg/requestcontext"
)

// Service defines the lock engine operations the handler exposes.
type Service interface {
	Verify(ctx context.Context, entity personmodels.EntityRef, field models.Field, value string, method models.Method, metadata map[string]string, notes string) (*models.DataVerification, error)
	VerifyINEDocument(ctx context.Context, entity personmodels.EntityRef, ocr service.INEOCRResult) (*models.DataVerification, error)
	VerifySelfieDocument(ctx context.Context, entity personmodels.EntityRef, result service.SelfieResult) (*models.DataVerification, error)
	VerifyProofOfAddress(ctx context.Context, entity personmodels.EntityRef, result service.ProofOfAddressResult) (*models.DataVerification, error)
	Summary(ctx context.Context, personID id.PersonID) (*models.Summary, error)
	LockedFields(ctx context.Context, personID id.PersonID) ([]models.Field, error)
}

// Handler wires verification endpoints to the engine.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts verification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/persons/{personID}", func(r chi.Router) {
		r.Post("/verifications", h.HandleVerify)
		r.Get("/verifications/summary", h.HandleSummary)
		r.Get("/verifications/locked", h.HandleLockedFields)
		r.Post("/documents/ine", h.HandleINEDocument)
		r.Post("/documents/selfie", h.HandleSelfieDocument)
		r.Post("/documents/proof-of-address", h.HandleProofOfAddress)
	})
}

func (h *Handler) personID(w http.ResponseWriter, r *http.Request) (id.PersonID, bool) {
	personID, err := id.ParsePersonID(chi.URLParam(r, "personID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.PersonID{}, false
	}
	return personID, true
}

// requireWriteCapability gates mutating endpoints on the verification write
// capability carried in the actor's token claims.
func (h *Handler) requireWriteCapability(w http.ResponseWriter, ctx context.Context) bool {
	for _, c := range requestcontext.Capabilities(ctx) {
		if c == staffmodels.CapVerifyFields {
			return true
		}
	}
	httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "actor may not write verifications"))
	return false
}

// HandleVerify handles POST /persons/{personID}/verifications.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	personID, ok := h.personID(w, r)
	if !ok {
		return
	}
	if !h.requireWriteCapability(w, ctx) {
		return
	}

	req, ok := httputil.Decode[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	field, err := req.ParsedField()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	method, err := req.ParsedMethod()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.service.Verify(ctx, personmodels.PersonRef{PersonID: personID},
		field, req.Value, method, req.Metadata, req.Notes)
	if err != nil {
		h.logger.WarnContext(ctx, "verification refused",
			"request_id", requestID,
			"person_id", personID,
			"field", field,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

// HandleSummary handles GET /persons/{personID}/verifications/summary.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	personID, ok := h.personID(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Summary(r.Context(), personID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

// HandleLockedFields handles GET /persons/{personID}/verifications/locked.
func (h *Handler) HandleLockedFields(w http.ResponseWriter, r *http.Request) {
	personID, ok := h.personID(w, r)
	if !ok {
		return
	}
	locked, err := h.service.LockedFields(r.Context(), personID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, LockedFieldsResponse{Fields: locked})
}

// HandleINEDocument handles POST /persons/{personID}/documents/ine.
func (h *Handler) HandleINEDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	personID, ok := h.personID(w, r)
	if !ok {
		return
	}
	if !h.requireWriteCapability(w, ctx) {
		return
	}
	req, ok := httputil.Decode[INEDocumentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	record, err := h.service.VerifyINEDocument(ctx, personmodels.PersonRef{PersonID: personID}, req.OCR())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

// HandleSelfieDocument handles POST /persons/{personID}/documents/selfie.
func (h *Handler) HandleSelfieDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	personID, ok := h.personID(w, r)
	if !ok {
		return
	}
	if !h.requireWriteCapability(w, ctx) {
		return
	}
	req, ok := httputil.Decode[SelfieDocumentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	record, err := h.service.VerifySelfieDocument(ctx, personmodels.PersonRef{PersonID: personID},
		service.SelfieResult{MatchScore: req.MatchScore})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

// HandleProofOfAddress handles POST /persons/{personID}/documents/proof-of-address.
func (h *Handler) HandleProofOfAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	personID, ok := h.personID(w, r)
	if !ok {
		return
	}
	if !h.requireWriteCapability(w, ctx) {
		return
	}
	req, ok := httputil.Decode[ProofOfAddressRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	record, err := h.service.VerifyProofOfAddress(ctx, personmodels.PersonRef{PersonID: personID},
		service.ProofOfAddressResult{Address: req.Address})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}
