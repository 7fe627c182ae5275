// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/calgrid/internal/domain/layout"
	"github.com/okian/calgrid/internal/domain/view"
)

// LayoutDependencies defines the interface for computing layouts.
type LayoutDependencies interface {
	Layout(ctx context.Context, w view.Window) (layout.Result, error)
}

// LayoutHandler handles layout requests.
type LayoutHandler struct {
	deps LayoutDependencies
}

// NewLayoutHandler creates a new layout handler.
func NewLayoutHandler(deps LayoutDependencies) *LayoutHandler {
	return &LayoutHandler{deps: deps}
}

// HandleGetLayout handles GET /layout?view=week&date=2024-05-06[&days=N].
// view defaults to week; date is required.
func (h *LayoutHandler) HandleGetLayout(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_layout"
	q := r.URL.Query()

	win := view.Window{Type: view.Type(q.Get("view")), Anchor: q.Get("date")}
	if win.Type == "" {
		win.Type = view.Week
	}
	if win.Anchor == "" {
		writeError(w, http.StatusBadRequest, "missing_date", NewKind(op, ErrBadRequest))
		return
	}
	if s := q.Get("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		win.DaysCount = &n
	}

	res, err := h.deps.Layout(r.Context(), win)
	if err != nil {
		writeUpstreamError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
