package api

import (
	"context"
	"net/http"

	"github.com/okian/skillbest/internal/domain/assignment"
	"github.com/okian/skillbest/internal/domain/types"
)

// AssignmentDependencies runs the assignment engine.
type AssignmentDependencies interface {
	Assignments(ctx context.Context) (types.AssignmentReport, error)
	Compute(ctx context.Context, scores assignment.Scores) (types.AssignmentReport, error)
}

// AssignmentsHandler serves engine runs.
type AssignmentsHandler struct {
	deps AssignmentDependencies
}

// NewAssignmentsHandler creates a new assignments handler.
func NewAssignmentsHandler(deps AssignmentDependencies) *AssignmentsHandler {
	return &AssignmentsHandler{deps: deps}
}

// HandleAssignments handles GET /assignments (stored sheets) and
// POST /assignments (snapshot in the body).
func (h *AssignmentsHandler) HandleAssignments(w http.ResponseWriter, r *http.Request) {
	const op = "api.assignments"

	var (
		report types.AssignmentReport
		err    error
	)
	switch r.Method {
	case http.MethodGet:
		report, err = h.deps.Assignments(r.Context())
	case http.MethodPost:
		doc, rerr := readJSON(w, r)
		if rerr != nil {
			writeFailure(w, WrapKind(op, ErrBadRequest, rerr))
			return
		}
		scores, derr := decodeSnapshot(doc)
		if derr != nil {
			writeFailure(w, WrapKind(op, ErrBadRequest, derr))
			return
		}
		report, err = h.deps.Compute(r.Context(), scores)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
