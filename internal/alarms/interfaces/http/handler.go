package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	alarmapp "noc-console/internal/alarms/application"
	alarms "noc-console/internal/alarms/domain"
	"noc-console/internal/alarms/filtering"
	"noc-console/internal/alarms/interfaces"
	"noc-console/internal/alarms/sla"
	"noc-console/internal/alarms/storm"
	"noc-console/internal/observability/metrics"
	"noc-console/internal/timemode"
)

// Handler provides the alarm console HTTP endpoints.
type Handler struct {
	store      *alarmapp.Store
	controller *timemode.Controller
	policy     sla.Policy
	detector   storm.Detector
	clock      alarmapp.Clock
}

// NewHandler constructs a handler.
func NewHandler(store *alarmapp.Store, controller *timemode.Controller, policy sla.Policy, detector storm.Detector, clock alarmapp.Clock) (*Handler, error) {
	if store == nil {
		return nil, errors.New("alarms handler: nil store")
	}
	if controller == nil {
		return nil, errors.New("alarms handler: nil controller")
	}
	if clock == nil {
		return nil, errors.New("alarms handler: nil clock")
	}
	return &Handler{
		store:      store,
		controller: controller,
		policy:     policy,
		detector:   detector,
		clock:      clock,
	}, nil
}

// ServeHTTP handles /api/v1/alarms and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/alarms":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleList(w, r)
	case "/api/v1/alarms/ack":
		h.handleAck(w, r)
	case "/api/v1/alarms/assign":
		h.handleAssign(w, r)
	case "/api/v1/alarms/escalate":
		h.handleEscalate(w, r)
	case "/api/v1/alarms/comment":
		h.handleComment(w, r)
	case "/api/v1/alarms/export":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleExport(w, r)
	case "/api/v1/alarms/storm":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleStorm(w)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type alarmView struct {
	alarms.Alarm
	SLA sla.Evaluation `json:"sla"`
}

type listResponse struct {
	Alarms []alarmView   `json:"alarms"`
	Total  int           `json:"total"`
	Storm  storm.Result  `json:"storm"`
	Mode   timemode.Mode `json:"mode"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	state := filterStateFromQuery(r)
	hier := hierarchyFromQuery(r)
	expert := r.URL.Query().Get("expert") == "true"

	snapshot := h.store.Snapshot()
	filtered := filtering.Apply(snapshot, state, hier)
	now := h.controller.ReferenceNow(h.clock.Now())

	views := make([]alarmView, 0, len(filtered))
	for _, alarm := range filtered {
		if !expert {
			alarm = alarm.Redacted()
		}
		views = append(views, alarmView{
			Alarm: alarm,
			SLA:   sla.Evaluate(alarm, now, h.policy),
		})
	}

	result := h.detector.Evaluate(len(snapshot))
	metrics.SetStormActive(result.Storm)

	writeJSON(w, listResponse{
		Alarms: views,
		Total:  len(snapshot),
		Storm:  result,
		Mode:   h.controller.Mode(),
	})
}

type bulkRequest struct {
	IDs         []string        `json:"ids"`
	Actor       string          `json:"actor,omitempty"`
	Team        string          `json:"team,omitempty"`
	Level       string          `json:"level,omitempty"`
	Text        string          `json:"text,omitempty"`
	SeverityTag alarms.Severity `json:"severity_tag,omitempty"`
}

func (h *Handler) handleAck(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBulk(w, r)
	if !ok {
		return
	}
	changed := h.store.Acknowledge(r.Context(), req.IDs, req.Actor, h.clock.Now())
	writeJSON(w, map[string]int{"changed": changed})
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBulk(w, r)
	if !ok {
		return
	}
	changed := h.store.Assign(r.Context(), req.IDs, req.Team)
	writeJSON(w, map[string]int{"changed": changed})
}

func (h *Handler) handleEscalate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBulk(w, r)
	if !ok {
		return
	}
	level := alarms.EscalationLevel(req.Level)
	if !level.Valid() {
		http.Error(w, "invalid escalation level", http.StatusBadRequest)
		return
	}
	changed := h.store.SetEscalation(r.Context(), req.IDs, level)
	writeJSON(w, map[string]int{"changed": changed})
}

func (h *Handler) handleComment(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBulk(w, r)
	if !ok {
		return
	}
	appended, err := h.store.AddComment(r.Context(), req.IDs, req.Text, req.SeverityTag, req.Actor, h.clock.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]int{"appended": appended})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	ids := splitParam(r.URL.Query().Get("ids"))
	if len(ids) == 0 {
		// No explicit selection exports the whole working set.
		for _, alarm := range h.store.Snapshot() {
			ids = append(ids, alarm.GlobalAlarmID)
		}
	}
	now := h.controller.ReferenceNow(h.clock.Now())
	rows := h.store.BulkExport(ids, now)

	started := h.clock.Now()
	var (
		payload     []byte
		contentType string
		filename    string
		err         error
	)
	switch format {
	case "csv":
		payload, err = interfaces.BuildAlarmsCSV(rows)
		contentType = "text/csv"
		filename = "alarms.csv"
	case "xlsx":
		payload, err = interfaces.BuildAlarmsXLSX(rows)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = "alarms.xlsx"
	case "pdf":
		payload, err = interfaces.BuildAlarmReportPDF(h.reportSummary(len(rows)), rows)
		contentType = "application/pdf"
		filename = "alarms.pdf"
	default:
		http.Error(w, "unsupported format", http.StatusBadRequest)
		return
	}
	metrics.ObserveExport(format, err, h.clock.Now().Sub(started))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(payload)
}

func (h *Handler) handleStorm(w http.ResponseWriter) {
	result := h.detector.Evaluate(h.store.Count())
	metrics.SetStormActive(result.Storm)
	writeJSON(w, result)
}

func (h *Handler) reportSummary(total int) interfaces.ReportSummary {
	summary := interfaces.ReportSummary{
		GeneratedAt: h.clock.Now(),
		Mode:        string(h.controller.Mode()),
		Total:       total,
	}
	for _, alarm := range h.store.Snapshot() {
		switch alarm.Severity {
		case alarms.SeverityCritical:
			summary.Critical++
		case alarms.SeverityMajor:
			summary.Major++
		}
		if alarm.Acknowledged {
			summary.Acked++
		}
	}
	return summary
}

func decodeBulk(w http.ResponseWriter, r *http.Request) (bulkRequest, bool) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return bulkRequest{}, false
	}
	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return bulkRequest{}, false
	}
	if len(req.IDs) == 0 {
		http.Error(w, "ids are required", http.StatusBadRequest)
		return bulkRequest{}, false
	}
	return req, true
}

func filterStateFromQuery(r *http.Request) filtering.FilterState {
	q := r.URL.Query()
	state := filtering.FilterState{
		AlarmTypes:    splitParam(q.Get("alarm_type")),
		Categories:    splitParam(q.Get("category")),
		Technologies:  splitParam(q.Get("technology")),
		SourceSystems: splitParam(q.Get("source_system")),
		SearchText:    q.Get("search"),
	}
	for _, value := range splitParam(q.Get("severity")) {
		state.Severities = append(state.Severities, alarms.Severity(value))
	}
	switch q.Get("acked") {
	case "only":
		state.SetAckFilter(true, false)
	case "exclude":
		state.SetAckFilter(false, true)
	}
	return state
}

func hierarchyFromQuery(r *http.Request) filtering.HierarchyFilter {
	q := r.URL.Query()
	return filtering.HierarchyFilter{
		Region:  q.Get("region"),
		Cluster: q.Get("cluster"),
		Site:    q.Get("site"),
		Node:    q.Get("node"),
	}
}

func splitParam(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
