package api

import (
	"context"
	"net/http"

	"github.com/okian/skillbest/internal/domain/types"
)

// CompetitorDependencies defines the single-competitor view.
type CompetitorDependencies interface {
	Competitor(ctx context.Context, competitorID string) (types.Competitor, error)
}

// CompetitorHandler serves one competitor's sheet and wins.
type CompetitorHandler struct {
	deps CompetitorDependencies
}

// NewCompetitorHandler creates a new competitor handler.
func NewCompetitorHandler(deps CompetitorDependencies) *CompetitorHandler {
	return &CompetitorHandler{deps: deps}
}

// HandleGetCompetitor handles GET /competitors/{competitor_id} requests.
func (h *CompetitorHandler) HandleGetCompetitor(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_competitor"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := pathParam(r, "/competitors/")
	if id == "" {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}
	c, err := h.deps.Competitor(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}
