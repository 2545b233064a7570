package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers the advisor endpoints on the router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/optimize-portfolio", h.HandleOptimize)
	r.Post("/api/predict-market", h.HandlePredict)
	r.Post("/api/assess-risk", h.HandleAssessRisk)
}
