package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	alarms "noc-console/internal/alarms/domain"
	"noc-console/internal/feed"
	"noc-console/internal/timemode"
)

const timeLayout = time.RFC3339

// Handler provides time-mode HTTP endpoints. All transitions are
// operator-driven; nothing here fires automatically.
type Handler struct {
	controller *timemode.Controller
	history    feed.HistoricalSource
	logger     *zap.Logger
}

// NewHandler constructs a handler. The historical source may be nil when no
// archive is configured; replay then serves an empty set.
func NewHandler(controller *timemode.Controller, history feed.HistoricalSource, logger *zap.Logger) (*Handler, error) {
	if controller == nil {
		return nil, errors.New("timemode handler: nil controller")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{controller: controller, history: history, logger: logger}, nil
}

// ServeHTTP handles /api/v1/timemode and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/timemode":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, h.controller.State())
	case "/api/v1/timemode/live":
		if !requirePost(w, r) {
			return
		}
		h.controller.EnterLive()
		writeJSON(w, h.controller.State())
	case "/api/v1/timemode/snapshot":
		if !requirePost(w, r) {
			return
		}
		h.controller.EnterSnapshot()
		writeJSON(w, h.controller.State())
	case "/api/v1/timemode/snapshot/range":
		if !requirePost(w, r) {
			return
		}
		h.handleSnapshotRange(w, r)
	case "/api/v1/timemode/historical":
		if !requirePost(w, r) {
			return
		}
		h.handleHistorical(w, r)
	case "/api/v1/timemode/pause":
		if !requirePost(w, r) {
			return
		}
		h.handlePause(w)
	case "/api/v1/timemode/replay":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleReplay(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type rangeRequest struct {
	Start  string `json:"start,omitempty"`
	End    string `json:"end,omitempty"`
	Preset string `json:"preset,omitempty"`
}

func (h *Handler) handleSnapshotRange(w http.ResponseWriter, r *http.Request) {
	tr, err := decodeRange(r, time.Time{})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.controller.SetSnapshotRange(tr); err != nil {
		writeRangeError(w, err)
		return
	}
	writeJSON(w, h.controller.State())
}

func (h *Handler) handleHistorical(w http.ResponseWriter, r *http.Request) {
	tr, err := decodeRange(r, time.Now().UTC())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.controller.EnterHistorical(tr); err != nil {
		writeRangeError(w, err)
		return
	}
	writeJSON(w, h.controller.State())
}

func (h *Handler) handlePause(w http.ResponseWriter) {
	paused, err := h.controller.TogglePause()
	if err != nil {
		http.Error(w, "pause is only available in live mode", http.StatusConflict)
		return
	}
	writeJSON(w, map[string]bool{"paused": paused})
}

// handleReplay serves the alarm set for the active historical range from the
// archive. The working set is untouched; replay is a read-only view.
func (h *Handler) handleReplay(w http.ResponseWriter, r *http.Request) {
	state := h.controller.State()
	if state.Mode != timemode.ModeHistorical || state.HistoricalRange == nil {
		http.Error(w, "not in historical mode", http.StatusConflict)
		return
	}
	var records []alarms.Alarm
	if h.history != nil {
		var err error
		records, err = h.history.FetchRange(r.Context(), state.HistoricalRange.Start, state.HistoricalRange.End)
		if err != nil {
			h.logger.Warn("historical fetch failed", zap.Error(err))
			http.Error(w, "archive unavailable", http.StatusBadGateway)
			return
		}
	}
	writeJSON(w, map[string]any{
		"range":  state.HistoricalRange,
		"alarms": records,
	})
}

// decodeRange parses a range request, expanding presets against now when a
// reference time is given.
func decodeRange(r *http.Request, now time.Time) (timemode.TimeRange, error) {
	var req rangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return timemode.TimeRange{}, errors.New("invalid request body")
	}
	if req.Preset != "" && !now.IsZero() {
		span, err := presetSpan(req.Preset)
		if err != nil {
			return timemode.TimeRange{}, err
		}
		return timemode.PresetRange(now, span), nil
	}
	start, err := time.Parse(timeLayout, req.Start)
	if err != nil {
		return timemode.TimeRange{}, errors.New("invalid start: expected RFC3339 datetime")
	}
	end, err := time.Parse(timeLayout, req.End)
	if err != nil {
		return timemode.TimeRange{}, errors.New("invalid end: expected RFC3339 datetime")
	}
	return timemode.TimeRange{Start: start, End: end}, nil
}

func presetSpan(preset string) (time.Duration, error) {
	switch preset {
	case "1h":
		return time.Hour, nil
	case "6h":
		return 6 * time.Hour, nil
	case "24h":
		return 24 * time.Hour, nil
	default:
		return 0, errors.New("unknown preset: expected 1h, 6h or 24h")
	}
}

func writeRangeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, timemode.ErrNotInMode) {
		status = http.StatusConflict
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}
