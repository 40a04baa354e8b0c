package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/skillbest/internal/domain/dedupe"
	"github.com/okian/skillbest/internal/domain/model"
)

// SheetDependencies defines what sheet ingestion needs.
type SheetDependencies interface {
	dedupe.Deduper
	Enqueue(ctx context.Context, s model.Sheet) bool
}

// SheetsHandler handles score sheet submissions.
type SheetsHandler struct {
	deps SheetDependencies
	now  func() time.Time
}

// NewSheetsHandler creates a new sheets handler.
func NewSheetsHandler(deps SheetDependencies) *SheetsHandler {
	return &SheetsHandler{deps: deps, now: func() time.Time { return time.Now().UTC() }}
}

// HandlePostSheet handles POST /sheets requests.
func (h *SheetsHandler) HandlePostSheet(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_sheet"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	doc, err := readJSON(w, r)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	sheet, err := decodeSheet(doc, h.now())
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	if h.deps.SeenAndRecord(r.Context(), sheet.SubmissionID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true, SubmissionID: sheet.SubmissionID})
		return
	}
	if ok := h.deps.Enqueue(r.Context(), sheet); !ok {
		h.deps.Unrecord(r.Context(), sheet.SubmissionID)
		writeFailure(w, NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", SubmissionID: sheet.SubmissionID})
}
