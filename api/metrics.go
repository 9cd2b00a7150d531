package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	game "plaza-server/src"
)

// HealthStatus represents the overall health of the room process.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthWarning  HealthStatus = "warning"
	HealthCritical HealthStatus = "critical"
)

// RoomMetrics summarizes the live room for operators.
type RoomMetrics struct {
	Players   int     `json:"players"`
	Moving    int     `json:"moving"`
	Capacity  int     `json:"capacity"`
	Load      float64 `json:"load"`
	Tick      uint64  `json:"tick"`
	UptimeSec int64   `json:"uptime_sec"`
}

// MetricsResponse is the complete metrics response structure.
type MetricsResponse struct {
	Timestamp         time.Time    `json:"timestamp"`
	Health            HealthStatus `json:"health"`
	HealthDescription string       `json:"health_description"`
	Room              RoomMetrics  `json:"room"`
}

// MetricsHandler reports room occupancy and health.
type MetricsHandler struct {
	room *game.Room
}

// NewMetricsHandler creates a metrics handler over the given room.
func NewMetricsHandler(room *game.Room) *MetricsHandler {
	return &MetricsHandler{room: room}
}

// Routes registers metrics routes.
func (h *MetricsHandler) Routes(r chi.Router) {
	r.Get("/metrics", h.GetMetrics)
	r.Get("/metrics/room", h.GetRoom)
}

// GetMetrics returns the complete metrics response.
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	stats := h.room.Stats()
	metrics := MetricsResponse{
		Timestamp: time.Now(),
		Room:      roomMetrics(stats),
	}
	metrics.Health, metrics.HealthDescription = healthFor(stats)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(metrics)
}

// GetRoom returns occupancy metrics only.
func (h *MetricsHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(roomMetrics(h.room.Stats()))
}

func roomMetrics(s game.Stats) RoomMetrics {
	load := 0.0
	if s.Capacity > 0 {
		load = float64(s.Players) / float64(s.Capacity)
	}
	return RoomMetrics{
		Players:   s.Players,
		Moving:    s.Moving,
		Capacity:  s.Capacity,
		Load:      load,
		Tick:      s.Tick,
		UptimeSec: s.UptimeSec,
	}
}

func healthFor(s game.Stats) (HealthStatus, string) {
	switch {
	case s.Capacity > 0 && s.Players >= s.Capacity:
		return HealthCritical, "room at capacity"
	case s.Capacity > 0 && float64(s.Players) >= 0.8*float64(s.Capacity):
		return HealthWarning, "room above 80% capacity"
	default:
		return HealthHealthy, "room operating normally"
	}
}
