package handlers

import (
	"net/http"

	"github.com/milbratheduardo/task-manager/middleware"
	"github.com/milbratheduardo/task-manager/services"
)

type DashboardHandler struct {
	service *services.DashboardService
}

func NewDashboardHandler(service *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// GetDashboardData returns the global statistics, charts and recent tasks.
func (h *DashboardHandler) GetDashboardData(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.GetDashboardData(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, data)
}

// GetUserDashboardData returns the dashboard scoped to the acting user's
// assigned tasks.
func (h *DashboardHandler) GetUserDashboardData(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	data, err := h.service.GetUserDashboardData(r.Context(), identity.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, data)
}
