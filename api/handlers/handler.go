package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jusunglee/mta-arrivals/internal/models"
	"github.com/jusunglee/mta-arrivals/pkg/mta"
)

// Handler handles HTTP requests
type Handler struct {
	client mta.Client
}

// NewHandler creates a new HTTP handler
func NewHandler(client mta.Client) *Handler {
	return &Handler{client: client}
}

// RegisterRoutes registers all routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.handleIndex).Methods("GET")
	r.HandleFunc("/healthz", h.handleHealth).Methods("GET")
	r.HandleFunc("/arrivals", h.handleArrivals).Methods("GET")
	r.HandleFunc("/arrivals/{station}", h.handleStation).Methods("GET")
	r.HandleFunc("/feeds", h.handleFeeds).Methods("GET")
}

// ArrivalsResponse wraps the full summary
type ArrivalsResponse struct {
	Data         models.ArrivalSummary `json:"data"`
	Updated      string                `json:"updated"`
	SkippedFeeds int                   `json:"skipped_feeds"`
}

// StationResponse wraps a single station's arrivals
type StationResponse struct {
	Station      string                  `json:"station"`
	Data         *models.StationArrivals `json:"data"`
	Updated      string                  `json:"updated"`
	SkippedFeeds int                     `json:"skipped_feeds"`
}

// FeedsResponse reports per-feed outcomes of a run
type FeedsResponse struct {
	Data    []models.FeedStatus `json:"data"`
	Updated string              `json:"updated"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

const fetchFailedMessage = "Failed to fetch MTA data"

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	feeds := h.client.GetFeeds()
	names := make([]string, len(feeds))
	for i, f := range feeds {
		names[i] = f.Name
	}
	h.writeJSON(w, map[string]any{
		"title": "mta-arrivals",
		"feeds": names,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handler) handleArrivals(w http.ResponseWriter, r *http.Request) {
	summary, stats, ok := h.run(w, r)
	if !ok {
		return
	}

	h.writeJSON(w, ArrivalsResponse{
		Data:         summary,
		Updated:      stats.GeneratedAt.Format(time.RFC3339),
		SkippedFeeds: stats.Skipped,
	})
}

func (h *Handler) handleStation(w http.ResponseWriter, r *http.Request) {
	station := mux.Vars(r)["station"]

	summary, stats, ok := h.run(w, r)
	if !ok {
		return
	}

	arrivals, found := summary[station]
	if !found {
		h.writeError(w, "no arrivals for station "+station, http.StatusNotFound)
		return
	}

	h.writeJSON(w, StationResponse{
		Station:      station,
		Data:         arrivals,
		Updated:      stats.GeneratedAt.Format(time.RFC3339),
		SkippedFeeds: stats.Skipped,
	})
}

func (h *Handler) handleFeeds(w http.ResponseWriter, r *http.Request) {
	_, stats, ok := h.run(w, r)
	if !ok {
		return
	}

	h.writeJSON(w, FeedsResponse{
		Data:    stats.Feeds,
		Updated: stats.GeneratedAt.Format(time.RFC3339),
	})
}

// run executes one pipeline run for the request and writes the error response
// itself when the run fails
func (h *Handler) run(w http.ResponseWriter, r *http.Request) (models.ArrivalSummary, models.RunStats, bool) {
	summary, stats, err := h.client.GetArrivals(r.Context())
	if err != nil {
		if ctxErr := r.Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			// Client went away; nobody is reading the response
			return nil, models.RunStats{}, false
		}
		slog.Error("MTA fetch error", "error", err)
		h.writeError(w, fetchFailedMessage, http.StatusInternalServerError)
		return nil, models.RunStats{}, false
	}
	return summary, stats, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.writeError(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
