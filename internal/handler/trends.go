package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/madison-marketplace/internal/service"
)

// TrendsHandler serves the price-trend chart.
type TrendsHandler struct {
	svc    *service.PricingService
	logger *slog.Logger
}

func NewTrendsHandler(svc *service.PricingService, logger *slog.Logger) *TrendsHandler {
	return &TrendsHandler{svc: svc, logger: logger}
}

// HandleTrends returns {category, median, count, recent}.
//
// HTTP: GET /price-trends?category=term
func (h *TrendsHandler) HandleTrends(w http.ResponseWriter, r *http.Request) {
	trend, err := h.svc.Trends(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, trend)
}
