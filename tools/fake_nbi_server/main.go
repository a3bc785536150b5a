// fake_nbi_server is a standalone northbound alarm API for local development
// and load testing. It serves the same contract the REST feed adapter
// consumes, backed by the deterministic mock generator, with optional latency
// and failure injection.
package main

import (
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	alarms "noc-console/internal/alarms/domain"
	"noc-console/internal/feed/mock"
)

type server struct {
	gen      *mock.Generator
	latency  time.Duration
	failRate float64
}

func main() {
	addr := getenvDefault("FAKE_NBI_ADDR", ":18081")
	count := getenvIntDefault("FAKE_NBI_COUNT", 80)
	critical := getenvIntDefault("FAKE_NBI_CRITICAL", 5)
	major := getenvIntDefault("FAKE_NBI_MAJOR", 10)
	seed := int64(getenvIntDefault("FAKE_NBI_SEED", 0))
	latencyMs := getenvIntDefault("FAKE_NBI_LATENCY_MS", 0)
	failRate := getenvFloatDefault("FAKE_NBI_FAIL_RATE", 0)

	srv := &server{
		gen: mock.NewGenerator(mock.Options{
			Count:          count,
			ForcedCritical: critical,
			ForcedMajor:    major,
			Seed:           seed,
		}),
		latency:  time.Duration(latencyMs) * time.Millisecond,
		failRate: failRate,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/alarms", srv.handleAlarms)
	mux.HandleFunc("/alarms/history", srv.handleHistory)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	log.Printf("fake nbi listening on %s (count=%d critical=%d major=%d)", addr, count, critical, major)
	log.Fatal(http.ListenAndServe(addr, mux))
}

func (s *server) handleAlarms(w http.ResponseWriter, r *http.Request) {
	if !s.admit(w) {
		return
	}
	batch, err := s.gen.Fetch(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeAlarms(w, batch)
}

// handleHistory serves a synthetic past window: the same shape as /alarms with
// created_at shifted into the requested range.
func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !s.admit(w) {
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, "invalid to: expected RFC3339 datetime", http.StatusBadRequest)
		return
	}
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil || !from.Before(to) {
		http.Error(w, "invalid from: expected RFC3339 datetime before to", http.StatusBadRequest)
		return
	}

	batch, err := s.gen.Fetch(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	span := to.Sub(from)
	for i := range batch {
		created := from.Add(time.Duration(rand.Int63n(int64(span))))
		batch[i].CreatedAt = created
		batch[i].UpdatedAt = created
	}
	writeAlarms(w, batch)
}

func (s *server) admit(w http.ResponseWriter) bool {
	if s.latency > 0 {
		time.Sleep(s.latency)
	}
	if s.failRate > 0 && rand.Float64() < s.failRate {
		http.Error(w, "injected failure", http.StatusBadGateway)
		return false
	}
	return true
}

func writeAlarms(w http.ResponseWriter, batch []alarms.Alarm) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"alarms": batch})
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
