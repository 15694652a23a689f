package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/serroba/ratelimit-go/internal/audit"
	"github.com/serroba/ratelimit-go/internal/messaging"
	"github.com/serroba/ratelimit-go/internal/ratelimit"
	"go.uber.org/zap"
)

// UserHeader carries the identity a request is attributed to. Requests
// without it are anonymous and bypass the user limiter entirely; the
// IP-based layer still covers them.
const UserHeader = "x-user"

// rejectionDetail is the exact body contract for a 429 from this layer.
const rejectionDetail = "User Rate Limit Exceeded"

type rejectionBody struct {
	Detail string `json:"detail"`
}

// UserRateLimiterOptions tunes behavior that must be an explicit, conscious
// choice rather than whatever the store driver happens to do.
type UserRateLimiterOptions struct {
	// FailOpen forwards requests when the counter store is unavailable.
	// The default (false) fails closed with a 503 attributable to this
	// layer.
	FailOpen bool
	// PublishExceeded, when set, emits an audit event for every rejection.
	// Publishing is best-effort and never blocks or fails the request.
	PublishExceeded messaging.Publish[audit.LimitExceededEvent]
}

// UserRateLimiter returns a Huma middleware enforcing the distributed
// per-user, per-minute rate limit.
func UserRateLimiter(
	api huma.API,
	limiter *ratelimit.UserLimiter,
	logger *zap.Logger,
	opts UserRateLimiterOptions,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		identity := ctx.Header(UserHeader)
		if identity == "" {
			// Anonymous traffic: deliberate bypass, no store round trip.
			next(ctx)

			return
		}

		decision, err := limiter.Check(ctx.Context(), identity)
		if err != nil {
			if opts.FailOpen {
				logger.Warn("rate limit store unavailable, failing open",
					zap.String("path", getOperationPath(ctx)),
					zap.Error(err),
				)
				next(ctx)

				return
			}

			logger.Error("rate limit store unavailable, failing closed",
				zap.String("path", getOperationPath(ctx)),
				zap.Error(err),
			)
			_ = huma.WriteErr(api, ctx, http.StatusServiceUnavailable, "rate limiter unavailable", err)

			return
		}

		if decision.Allowed {
			next(ctx)

			return
		}

		logger.Warn("user rate limit exceeded",
			zap.String("path", getOperationPath(ctx)),
			zap.String("method", ctx.Method()),
			zap.Int64("count", decision.Count),
			zap.Int64("limit", decision.Limit),
			zap.Int("retry_after", decision.RetryAfter),
		)

		publishExceeded(ctx, identity, decision, opts.PublishExceeded, logger)
		writeRejection(ctx, decision)
	}
}

// writeRejection short-circuits the request with the 429 contract: exact
// JSON body plus Retry-After and X-Rate-Limit headers.
func writeRejection(ctx huma.Context, decision ratelimit.Decision) {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.SetHeader("Retry-After", strconv.Itoa(decision.RetryAfter))
	ctx.SetHeader("X-Rate-Limit", strconv.FormatInt(decision.Limit, 10))
	ctx.SetStatus(http.StatusTooManyRequests)

	body, _ := json.Marshal(rejectionBody{Detail: rejectionDetail})
	_, _ = ctx.BodyWriter().Write(body)
}

func publishExceeded(
	ctx huma.Context,
	identity string,
	decision ratelimit.Decision,
	publish messaging.Publish[audit.LimitExceededEvent],
	logger *zap.Logger,
) {
	if publish == nil {
		return
	}

	info := RequestInfoFromContext(ctx.Context())

	event := &audit.LimitExceededEvent{
		ID:           uuid.NewString(),
		IdentityHash: ratelimit.HashIdentity(identity),
		Count:        decision.Count,
		Limit:        decision.Limit,
		Method:       ctx.Method(),
		Path:         getOperationPath(ctx),
		ClientIP:     extractClientIP(ctx),
		RequestID:    info.RequestID,
		OccurredAt:   time.Now().UTC(),
	}

	if err := publish(ctx.Context(), event); err != nil {
		logger.Warn("failed to publish rate limit exceeded event", zap.Error(err))
	}
}

// getOperationPath extracts the route template from the operation, if any.
func getOperationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ""
}
