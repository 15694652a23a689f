package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers the service's operations.
func RegisterRoutes(api huma.API, ping *PingHandler, stats *StatsHandler, health *HealthHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "ping",
		Method:      http.MethodGet,
		Path:        "/ping",
		Summary:     "Ping",
		Description: "Responds to any request that passed the rate limiters.",
		Tags:        []string{"Demo"},
	}, ping.Ping)

	huma.Register(api, huma.Operation{
		OperationID: "ratelimit-stats",
		Method:      http.MethodGet,
		Path:        "/ratelimit/stats",
		Summary:     "Recent rejections",
		Description: "Reports how many requests were rejected by the user rate limiter recently.",
		Tags:        []string{"Rate limiting"},
	}, stats.RecentRejections)

	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/healthz",
		Summary:     "Health check",
		Description: "Reports connectivity to the rate limit counter store.",
		Tags:        []string{"Health"},
	}, health.Check)
}
