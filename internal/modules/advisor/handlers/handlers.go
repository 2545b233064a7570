// Package handlers provides HTTP handlers for the advisor operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/quantfolio/advisor/internal/domain"
	"github.com/quantfolio/advisor/internal/modules/advisor"
)

// Handler handles advisor HTTP requests
type Handler struct {
	service *advisor.Service
	log     zerolog.Logger
}

// NewHandler creates a new advisor handler
func NewHandler(service *advisor.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "advisor").Logger(),
	}
}

// HandleOptimize handles POST /api/optimize-portfolio
func (h *Handler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	var req advisor.OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Missing required data")
		return
	}
	if len(req.Assets) == 0 {
		h.writeError(w, http.StatusBadRequest, "Missing required data")
		return
	}

	resp, err := h.service.Optimize(req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandlePredict handles POST /api/predict-market
func (h *Handler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	var req advisor.PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Missing required data")
		return
	}
	if len(req.Symbols) == 0 {
		h.writeError(w, http.StatusBadRequest, "Missing required data")
		return
	}

	resp, err := h.service.Predict(req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleAssessRisk handles POST /api/assess-risk
func (h *Handler) HandleAssessRisk(w http.ResponseWriter, r *http.Request) {
	var req advisor.RiskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Missing required data")
		return
	}
	if len(req.Assets) == 0 {
		h.writeError(w, http.StatusBadRequest, "Missing required data")
		return
	}

	resp, err := h.service.AssessRisk(req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// handleServiceError maps the analytics error taxonomy onto HTTP statuses.
// Caller mistakes are 400s or 422s; everything else is a 500.
func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	var (
		invalidPortfolio *domain.InvalidPortfolioError
		symbolMismatch   *domain.SymbolMismatchError
		insufficientData *domain.InsufficientDataError
		shortHistory     *domain.InsufficientHistoryError
		infeasible       *domain.OptimizationInfeasibleError
	)

	switch {
	case errors.As(err, &invalidPortfolio):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &symbolMismatch):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &insufficientData),
		errors.As(err, &shortHistory),
		errors.As(err, &infeasible):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.log.Error().Err(err).Msg("Analysis failed")
		h.writeError(w, http.StatusInternalServerError, "Server error: "+err.Error())
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response in the {"error": ...} shape
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
