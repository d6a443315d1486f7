package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/todone/todone/internal/middleware"
	"github.com/todone/todone/internal/models"
	"github.com/todone/todone/internal/services/ai"
)

// NudgeCacheInterface defines the cache operations the handler needs.
type NudgeCacheInterface interface {
	Get(ctx context.Context, userID uuid.UUID) ([]models.Nudge, bool, error)
	Set(ctx context.Context, userID uuid.UUID, nudges []models.Nudge) error
}

// SuggestHandler serves the remote nudges endpoint. The worker keeps a
// per-user cache warm; on a miss the handler calls the model inline.
type SuggestHandler struct {
	provider ai.Provider
	cache    NudgeCacheInterface
	logger   *zap.Logger
}

// NewSuggestHandler creates a suggest handler
func NewSuggestHandler(provider ai.Provider, cache NudgeCacheInterface, logger *zap.Logger) *SuggestHandler {
	return &SuggestHandler{provider: provider, cache: cache, logger: logger}
}

// SuggestResponse is the suggest endpoint response body
type SuggestResponse struct {
	Suggestions []models.Nudge `json:"suggestions"`
}

// Suggest handles POST /api/suggest. Failures degrade to an empty
// suggestion list; the client keeps its rule-based nudges.
func (h *SuggestHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req ai.SuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}

	userID := middleware.UserFromContext(r)

	if h.cache != nil && userID != uuid.Nil {
		if cached, ok, err := h.cache.Get(r.Context(), userID); err == nil && ok {
			respondJSON(w, http.StatusOK, SuggestResponse{Suggestions: nonNil(cached)})
			return
		} else if err != nil {
			h.logger.Warn("nudge_cache_read_failed",
				zap.Error(err),
				zap.String("user_id", userID.String()),
			)
		}
	}

	if h.provider == nil {
		respondJSON(w, http.StatusOK, SuggestResponse{Suggestions: []models.Nudge{}})
		return
	}

	nudges, err := h.provider.SuggestNudges(r.Context(), req)
	if err != nil {
		h.logger.Warn("suggest_failed",
			zap.Error(err),
		)
		respondJSON(w, http.StatusOK, SuggestResponse{Suggestions: []models.Nudge{}})
		return
	}

	if h.cache != nil && userID != uuid.Nil {
		if err := h.cache.Set(r.Context(), userID, nudges); err != nil {
			h.logger.Warn("nudge_cache_write_failed",
				zap.Error(err),
				zap.String("user_id", userID.String()),
			)
		}
	}

	respondJSON(w, http.StatusOK, SuggestResponse{Suggestions: nonNil(nudges)})
}

func nonNil(nudges []models.Nudge) []models.Nudge {
	if nudges == nil {
		return []models.Nudge{}
	}
	return nudges
}
