package handler

import (
	"origen/internal/application/models"
)

// AllowedStatusesResponse lists the statuses the actor may transition to.
type AllowedStatusesResponse struct {
	Statuses []models.Status `json:"statuses"`
}

// HistoryResponse wraps the append-only transition log.
type HistoryResponse struct {
	Entries []models.StatusHistoryEntry `json:"entries"`
}
