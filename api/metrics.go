package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/duongdatdev/miniisland-2.0-sub000/pathfinding"
	"github.com/duongdatdev/miniisland-2.0-sub000/tilemap"
)

// HealthStatus represents the overall health of the simulation
type HealthStatus string

const (
	HealthOk       HealthStatus = "ok"
	HealthDegraded HealthStatus = "degraded"
	HealthDown     HealthStatus = "down"
)

// HealthResponse is returned by /v1/health
type HealthResponse struct {
	Status      HealthStatus   `json:"status"`
	Description string         `json:"description,omitempty"`
	Tick        uint64         `json:"tick"`
	Map         string         `json:"map"`
	Mode        string         `json:"mode"`
	Entities    map[string]int `json:"entities"`
	UptimeSec   int64          `json:"uptime_sec"`
}

// PathResponse is returned by /v1/path
type PathResponse struct {
	Mode   string   `json:"mode"`
	Length int      `json:"length"`
	Path   [][2]int `json:"path"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// StateHandler serves read-only views of the simulation.
type StateHandler struct {
	src     Source
	log     *zap.Logger
	started time.Time
}

func NewStateHandler(src Source, log *zap.Logger) *StateHandler {
	return &StateHandler{src: src, log: log, started: time.Now()}
}

// Routes registers the state endpoints on r.
func (h *StateHandler) Routes(r chi.Router) {
	r.Get("/health", h.GetHealth)
	r.Get("/snapshot", h.GetSnapshot)
	r.Get("/wave", h.GetWave)
	r.Get("/leaderboard", h.GetLeaderboard)
	r.Get("/map", h.GetMap)
	r.Get("/path", h.GetPath)
}

// GetHealth reports whether the simulation is publishing state.
func (h *StateHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: HealthDown, UptimeSec: int64(time.Since(h.started).Seconds())}
	if s := h.src.Snapshot(); s != nil {
		resp.Status = HealthOk
		resp.Tick = s.Tick
		resp.Map = s.MapID
		resp.Mode = s.Mode
		resp.Entities = s.EntityCounts()
		if s.Maze != nil && s.Maze.Degraded {
			resp.Status = HealthDegraded
			resp.Description = "maze has no entrance-to-exit route"
		}
	}
	status := http.StatusOK
	if resp.Status == HealthDown {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// GetSnapshot returns the last published snapshot as JSON, or as msgpack
// when asked for with ?format=msgpack or an Accept header.
func (h *StateHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	s := h.src.Snapshot()
	if s == nil {
		writeError(w, http.StatusServiceUnavailable, "no snapshot published yet")
		return
	}
	if r.URL.Query().Get("format") == "msgpack" || strings.Contains(r.Header.Get("Accept"), "msgpack") {
		body, err := msgpack.Marshal(s)
		if err != nil {
			h.log.Error("snapshot encode failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "encode failed")
			return
		}
		w.Header().Set("Content-Type", "application/msgpack")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GetWave returns the arena progression counters.
func (h *StateHandler) GetWave(w http.ResponseWriter, r *http.Request) {
	s := h.src.Snapshot()
	if s == nil {
		writeError(w, http.StatusServiceUnavailable, "no snapshot published yet")
		return
	}
	writeJSON(w, http.StatusOK, s.Wave)
}

// GetLeaderboard returns the last leaderboard received from the server.
func (h *StateHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries := h.src.Leaderboard()
	if entries == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetMap returns the active grid in layout text.
func (h *StateHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	g := h.src.Grid()
	if g == nil {
		writeError(w, http.StatusServiceUnavailable, "no map loaded")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(tilemap.FormatLayout(g)))
}

// GetPath runs the path engine on the active grid:
// /v1/path?from=col,row&to=col,row&mode=astar|bfs
func (h *StateHandler) GetPath(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseCell(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "from: "+err.Error())
		return
	}
	to, err := parseCell(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "to: "+err.Error())
		return
	}
	mode := pathfinding.AStarMode
	if m := q.Get("mode"); m != "" {
		if mode, err = pathfinding.ParseMode(m); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	g := h.src.Grid()
	if g == nil {
		writeError(w, http.StatusServiceUnavailable, "no map loaded")
		return
	}

	path := pathfinding.FindPath(g, mode, from, to)
	resp := PathResponse{Mode: mode.String(), Length: len(path), Path: make([][2]int, 0, len(path))}
	for _, c := range path {
		resp.Path = append(resp.Path, [2]int{c.Col, c.Row})
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseCell(s string) (tilemap.Cell, error) {
	a, b, ok := strings.Cut(s, ",")
	if !ok {
		return tilemap.Cell{}, fmt.Errorf("want col,row, got %q", s)
	}
	col, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return tilemap.Cell{}, err
	}
	row, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return tilemap.Cell{}, err
	}
	return tilemap.Cell{Col: col, Row: row}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
