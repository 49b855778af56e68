package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/safe-route/internal/heatmap"
	"github.com/ukydev/safe-route/internal/mapview"
	"github.com/ukydev/safe-route/internal/orchestrator"
	"github.com/ukydev/safe-route/internal/render"
)

// RouteQuery is the body of POST /api/route. Blank fields are reported by the
// orchestrator so the panel shows the same message as the UI would.
type RouteQuery struct {
	Start string `json:"start" validate:"max=256"`
	End   string `json:"end" validate:"max=256"`
}

// RouteResponse carries the analysis and the board it produced.
type RouteResponse struct {
	Result *orchestrator.Result `json:"result,omitempty"`
	State  mapview.Snapshot     `json:"state"`
}

// RouteHandler serves the interactive route-safety controls.
type RouteHandler struct {
	orch     *orchestrator.Orchestrator
	heat     *heatmap.Manager
	board    *mapview.Board
	validate *validator.Validate
	log      *logrus.Entry
}

func NewRouteHandler(orch *orchestrator.Orchestrator, heat *heatmap.Manager, board *mapview.Board) *RouteHandler {
	return &RouteHandler{
		orch:     orch,
		heat:     heat,
		board:    board,
		validate: validator.New(),
		log:      logrus.WithField("component", "handlers"),
	}
}

// FindRoute runs the pipeline for the submitted locations.
func (h *RouteHandler) FindRoute(w http.ResponseWriter, r *http.Request) {
	var q RouteQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid JSON", nil)
		return
	}
	if err := h.validate.Struct(q); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid route request", validationMessages(err))
		return
	}

	result, err := h.orch.FindAndAnalyzeRoute(r.Context(), q.Start, q.End)
	if err != nil {
		code := StatusForError(err)
		if code >= http.StatusInternalServerError {
			h.log.WithError(err).Warn("Route request failed")
		}
		RespondWithError(w, code, orchestrator.StatusForError(err), []string{err.Error()})
		return
	}
	RespondWithSuccess(w, http.StatusOK, orchestrator.StatusComplete, RouteResponse{Result: result, State: h.board.Snapshot()})
}

// ToggleHeatmap shows or hides the accident heatmap.
func (h *RouteHandler) ToggleHeatmap(w http.ResponseWriter, r *http.Request) {
	visible := h.heat.Toggle()
	RespondWithSuccess(w, http.StatusOK, "", map[string]bool{
		"visible": visible,
		"loaded":  h.heat.Loaded(),
	})
}

// State returns the current board.
func (h *RouteHandler) State(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.board.Snapshot())
}

// Legend returns the risk color legend.
func (h *RouteHandler) Legend(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, render.Legend())
}

func Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
