package handlers

import (
	"log"
	"net/http"

	"github.com/diewo77/icash/internal/httpx"
	"github.com/diewo77/icash/internal/stats"
)

// StatsHandler serves the owner's dashboard aggregates.
type StatsHandler struct {
	Agg *stats.Aggregator
}

func NewStatsHandler(agg *stats.Aggregator) *StatsHandler { return &StatsHandler{Agg: agg} }

// Get: GET /api/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.Agg.ComputeStats()
	if err != nil {
		log.Printf("stats query failed: %v", err)
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_compute_stats", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, snapshot)
}
