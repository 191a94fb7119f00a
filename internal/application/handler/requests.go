package handler

import (
	"origen/internal/application/models"
	id "origen/pkg/domain"
)

// CreateRequest is the payload for POST /applications.
type CreateRequest struct {
	PersonID  string  `json:"person_id"`
	ProductID string  `json:"product_id"`
	Amount    float64 `json:"amount"`
	Term      int     `json:"term"`
}

func (r CreateRequest) ParsedPersonID() (id.PersonID, error) {
	return id.ParsePersonID(r.PersonID)
}

func (r CreateRequest) ParsedProductID() (id.ProductID, error) {
	return id.ParseProductID(r.ProductID)
}

// ChangeStatusRequest is the payload for POST /applications/{id}/status.
type ChangeStatusRequest struct {
	Status   string            `json:"status"`
	Reason   string            `json:"reason,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (r ChangeStatusRequest) ParsedStatus() (models.Status, error) {
	return models.ParseStatus(r.Status)
}

// ApproveRequest is the payload for POST /applications/{id}/approve.
// A zero amount defaults to the requested amount.
type ApproveRequest struct {
	Amount float64 `json:"amount,omitempty"`
	Rate   float64 `json:"rate,omitempty"`
	Term   int     `json:"term,omitempty"`
	Reason string  `json:"reason,omitempty"`
}

func (r ApproveRequest) Decision() models.Decision {
	return models.Decision{Amount: r.Amount, Rate: r.Rate, Term: r.Term}
}

// RejectRequest is the payload for POST /applications/{id}/reject.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// CancelRequest is the payload for POST /applications/{id}/cancel.
type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

// AssignRequest is the payload for POST /applications/{id}/assign.
type AssignRequest struct {
	StaffID string `json:"staff_id"`
}

func (r AssignRequest) ParsedStaffID() (id.StaffID, error) {
	return id.ParseStaffID(r.StaffID)
}

// CounterOfferRequest is the payload for POST /applications/{id}/counter-offer.
type CounterOfferRequest struct {
	Amount float64 `json:"amount"`
	Rate   float64 `json:"rate"`
	Term   int     `json:"term"`
	Notes  string  `json:"notes,omitempty"`
}

func (r CounterOfferRequest) Offer() models.CounterOffer {
	return models.CounterOffer{Amount: r.Amount, Rate: r.Rate, Term: r.Term, Notes: r.Notes}
}
