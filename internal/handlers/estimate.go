package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/todone/todone/internal/services/ai"
	"github.com/todone/todone/internal/validation"
)

// minEstimateTextLength matches the client-side threshold: anything
// this short is not worth a model call.
const minEstimateTextLength = 3

// EstimateHandler serves the remote per-task estimate endpoint.
type EstimateHandler struct {
	provider ai.Provider
	logger   *zap.Logger
}

// NewEstimateHandler creates an estimate handler
func NewEstimateHandler(provider ai.Provider, logger *zap.Logger) *EstimateHandler {
	return &EstimateHandler{provider: provider, logger: logger}
}

// EstimateRequest is the estimate endpoint request body
type EstimateRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// Estimate handles POST /api/estimate. The contract is degrade-to-empty:
// short text, provider failure or an empty model answer all produce a
// 200 with an empty object, and the client falls back to its local
// heuristics.
func (h *EstimateHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}

	req.Text = validation.SanitizeText(req.Text)
	if err := validation.Validate.Struct(req); err != nil || len(req.Text) <= minEstimateTextLength {
		respondJSON(w, http.StatusOK, struct{}{})
		return
	}

	if h.provider == nil {
		respondJSON(w, http.StatusOK, struct{}{})
		return
	}

	estimate, err := h.provider.EstimateTask(r.Context(), req.Text)
	if err != nil {
		h.logger.Warn("estimate_failed",
			zap.Error(err),
		)
		respondJSON(w, http.StatusOK, struct{}{})
		return
	}
	if estimate == nil {
		respondJSON(w, http.StatusOK, struct{}{})
		return
	}

	respondJSON(w, http.StatusOK, estimate)
}
