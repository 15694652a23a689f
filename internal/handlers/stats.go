package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/ratelimit-go/internal/audit"
)

// StatsHandler exposes rejection counts recorded by the audit consumer.
type StatsHandler struct {
	store audit.Store
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(store audit.Store) *StatsHandler {
	return &StatsHandler{store: store}
}

// StatsRequest selects the window to report over.
type StatsRequest struct {
	SinceMinutes int `query:"since_minutes" default:"60" minimum:"1" maximum:"10080" doc:"How many minutes back to count rejections"`
}

// StatsResponse is the response for the stats endpoint.
type StatsResponse struct {
	Body struct {
		Rejected     int64     `json:"rejected"`
		SinceMinutes int       `json:"sinceMinutes"`
		Since        time.Time `json:"since"`
	}
}

// RecentRejections reports how many requests were rejected in the recent
// window.
func (h *StatsHandler) RecentRejections(ctx context.Context, req *StatsRequest) (*StatsResponse, error) {
	since := time.Now().UTC().Add(-time.Duration(req.SinceMinutes) * time.Minute)

	count, err := h.store.CountSince(ctx, since)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to read rejection stats", err)
	}

	resp := &StatsResponse{}
	resp.Body.Rejected = count
	resp.Body.SinceMinutes = req.SinceMinutes
	resp.Body.Since = since

	return resp, nil
}
