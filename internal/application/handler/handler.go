// Package handler wires the application endpoints to the status transition
// engine.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"origen/internal/application/models"
	"origen/internal/application/service"
	id "origen/pkg/domain"
	"origen/pkg/platform/httputil"
	"origen/pkg/requestcontext"
)

// Service defines the engine operations the handler exposes.
type Service interface {
	Create(ctx context.Context, tenantID id.TenantID, personID id.PersonID, productID id.ProductID, amount float64, term int) (*models.Application, error)
	Get(ctx context.Context, appID id.ApplicationID) (*models.Application, error)
	ChangeStatus(ctx context.Context, appID id.ApplicationID, target models.Status, actor service.Actor, reason string, metadata map[string]string) (*models.Application, error)
	Approve(ctx context.Context, appID id.ApplicationID, actor service.Actor, decision models.Decision, reason string) (*models.Application, error)
	Reject(ctx context.Context, appID id.ApplicationID, actor service.Actor, reason string) (*models.Application, error)
	Cancel(ctx context.Context, appID id.ApplicationID, actor service.Actor, reason string) (*models.Application, error)
	Assign(ctx context.Context, appID id.ApplicationID, staffID id.StaffID, actor service.Actor) (*models.Application, error)
	SendCounterOffer(ctx context.Context, appID id.ApplicationID, actor service.Actor, offer models.CounterOffer) (*models.Application, error)
	AllowedNextStatuses(ctx context.Context, appID id.ApplicationID, actor service.Actor) ([]models.Status, error)
	History(ctx context.Context, appID id.ApplicationID) ([]models.StatusHistoryEntry, error)
}

// Handler wires application endpoints to the engine.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts application endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/applications", h.HandleCreate)
	r.Route("/applications/{applicationID}", func(r chi.Router) {
		r.Get("/", h.HandleGet)
		r.Post("/status", h.HandleChangeStatus)
		r.Post("/approve", h.HandleApprove)
		r.Post("/reject", h.HandleReject)
		r.Post("/cancel", h.HandleCancel)
		r.Post("/assign", h.HandleAssign)
		r.Post("/counter-offer", h.HandleCounterOffer)
		r.Get("/allowed-statuses", h.HandleAllowedStatuses)
		r.Get("/history", h.HandleHistory)
	})
}

func (h *Handler) appID(w http.ResponseWriter, r *http.Request) (id.ApplicationID, bool) {
	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ApplicationID{}, false
	}
	return appID, true
}

// HandleCreate handles POST /applications.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.Decode[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	personID, err := req.ParsedPersonID()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	productID, err := req.ParsedProductID()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	app, err := h.service.Create(ctx, requestcontext.TenantID(ctx), personID, productID, req.Amount, req.Term)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, app)
}

// HandleGet handles GET /applications/{applicationID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	appID, ok := h.appID(w, r)
	if !ok {
		return
	}
	app, err := h.service.Get(r.Context(), appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, app)
}

// HandleChangeStatus handles POST /applications/{applicationID}/status.
func (h *Handler) HandleChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	appID, ok := h.appID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.Decode[ChangeStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	target, err := req.ParsedStatus()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	app, err := h.service.ChangeStatus(ctx, appID, target, service.ActorFromContext(ctx), req.Reason, req.Metadata)
	if err != nil {
		h.logger.WarnContext(ctx, "status change refused",
			"request_id", requestID,
			"application_id", appID,
			"target_status", target,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, app)
}

// HandleApprove handles POST /applications/{applicationID}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.appID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[ApproveRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	app, err := h.service.Approve(ctx, appID, service.ActorFromContext(ctx), req.Decision(), req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, app)
}

// HandleReject handles POST /applications/{applicationID}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.appID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[RejectRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	app, err := h.service.Reject(ctx, appID, service.ActorFromContext(ctx), req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, app)
}

// HandleCancel handles POST /applications/{applicationID}/cancel.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.appID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[CancelRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	app, err := h.service.Cancel(ctx, appID, service.ActorFromContext(ctx), req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, app)
}

// HandleAssign handles POST /applications/{applicationID}/assign.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.appID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[AssignRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	staffID, err := req.ParsedStaffID()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	app, err := h.service.Assign(ctx, appID, staffID, service.ActorFromContext(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, app)
}

// HandleCounterOffer handles POST /applications/{applicationID}/counter-offer.
func (h *Handler) HandleCounterOffer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.appID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[CounterOfferRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	app, err := h.service.SendCounterOffer(ctx, appID, service.ActorFromContext(ctx), req.Offer())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, app)
}

// HandleAllowedStatuses handles GET /applications/{applicationID}/allowed-statuses.
func (h *Handler) HandleAllowedStatuses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.appID(w, r)
	if !ok {
		return
	}
	statuses, err := h.service.AllowedNextStatuses(ctx, appID, service.ActorFromContext(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AllowedStatusesResponse{Statuses: statuses})
}

// HandleHistory handles GET /applications/{applicationID}/history.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.appID(w, r)
	if !ok {
		return
	}
	entries, err := h.service.History(ctx, appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, HistoryResponse{Entries: entries})
}
