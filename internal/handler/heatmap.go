package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/contribgraph/internal/heatmap"
	"github.com/sakif/contribgraph/internal/service"
)

// HeatmapHandler serves the rendered contribution data: the flat weeks
// payload, the calendar grid, and the public shareable view. All reads
// come from local storage; these endpoints never call GitHub.
type HeatmapHandler struct {
	heatmaps *service.HeatmapService
	logger   *slog.Logger
}

func NewHeatmapHandler(heatmaps *service.HeatmapService, logger *slog.Logger) *HeatmapHandler {
	return &HeatmapHandler{heatmaps: heatmaps, logger: logger}
}

// HandleLevels returns the fixed level taxonomy, for clients rendering
// a legend.
//
// HTTP: GET /api/levels
func (h *HeatmapHandler) HandleLevels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, heatmap.Levels())
}

// HandleSeries returns the zero-filled weeks payload.
//
// HTTP: GET /api/heatmap/{username}?from=YYYY-MM-DD&to=YYYY-MM-DD
//
// Both query parameters are optional; omitting them selects the rolling
// year ending today. Providing only one of them is a range error.
func (h *HeatmapHandler) HandleSeries(w http.ResponseWriter, r *http.Request) {
	result, err := h.heatmaps.Series(r.Context(),
		r.PathValue("username"),
		r.URL.Query().Get("from"),
		r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleGrid returns the week-aligned calendar grid.
//
// HTTP: GET /api/heatmap/{username}/grid?from=...&to=...
func (h *HeatmapHandler) HandleGrid(w http.ResponseWriter, r *http.Request) {
	result, err := h.heatmaps.Grid(r.Context(),
		r.PathValue("username"),
		r.URL.Query().Get("from"),
		r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleMe is the live view: it resolves the caller's GitHub token and
// streams their current contribution weeks straight from GitHub, no
// profile registration needed and nothing persisted.
//
// HTTP: GET /api/heatmap/me
// Auth: Authorization: Bearer <github token>
func (h *HeatmapHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.heatmaps.Me(r.Context(), token,
		r.URL.Query().Get("from"),
		r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandlePublicGrid resolves a shareable link to its grid. The public id
// is opaque; an unknown id yields a plain 404 with no hint about which
// usernames exist.
//
// HTTP: GET /api/public/{publicID}/grid?from=...&to=...
func (h *HeatmapHandler) HandlePublicGrid(w http.ResponseWriter, r *http.Request) {
	result, err := h.heatmaps.PublicGrid(r.Context(),
		r.PathValue("publicID"),
		r.URL.Query().Get("from"),
		r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
