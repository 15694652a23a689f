package middleware

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/ratelimit-go/internal/ratelimit"
	"go.uber.org/zap"
)

// IPRateLimiter returns a Huma middleware applying the local, IP-keyed
// token bucket layer. It runs for all traffic, attributed or anonymous,
// and composes with the user limiter rather than replacing it.
func IPRateLimiter(
	api huma.API,
	limiter *ratelimit.IPLimiter,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		ip := extractClientIP(ctx)

		if !limiter.Allow(ip) {
			logger.Debug("ip rate limit exceeded",
				zap.String("client_ip", ip),
				zap.String("method", ctx.Method()),
			)

			ctx.SetHeader("Retry-After", "1")
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, "rate limit exceeded")

			return
		}

		next(ctx)
	}
}
