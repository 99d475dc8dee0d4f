package transport

import (
	"net/http"

	"tokotani/internal/middleware"
	"tokotani/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DashboardHandler serves the admin dashboard summary
type DashboardHandler struct {
	statsService service.StatsService
	logger       *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(statsService service.StatsService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		statsService: statsService,
		logger:       logger,
	}
}

// RegisterRoutes registers the dashboard routes
func (h *DashboardHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/dashboard", func(r chi.Router) {
		r.Use(authMiddleware, adminMiddleware)
		r.Get("/stats", h.GetStats)
	})
}

// GetStats serves the entity counts shown on the dashboard cards
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.DashboardStats(r.Context())
	if err != nil {
		h.logger.Error("Failed to load dashboard stats", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load dashboard stats")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, stats)
}
