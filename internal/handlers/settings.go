package handlers

import (
	"context"
	"net/http"

	"docchat/internal/indexer"
)

// SettingsHandler serves the non-secret runtime configuration.
type SettingsHandler struct {
	summary map[string]any
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(summary map[string]any) *SettingsHandler {
	return &SettingsHandler{summary: summary}
}

func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, h.summary)
}

// StatsProvider computes corpus statistics.
type StatsProvider interface {
	CorpusStats(ctx context.Context, embedModel string) (*indexer.CorpusStats, error)
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	stats      StatsProvider
	embedModel string
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(stats StatsProvider, embedModel string) *StatsHandler {
	return &StatsHandler{stats: stats, embedModel: embedModel}
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.stats.CorpusStats(ctx, h.embedModel)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to compute corpus stats")
		return
	}
	writeJSON(ctx, w, http.StatusOK, stats)
}
