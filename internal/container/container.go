package container

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/ratelimit-go/internal/audit"
	"github.com/serroba/ratelimit-go/internal/handlers"
	"github.com/serroba/ratelimit-go/internal/messaging"
	"github.com/serroba/ratelimit-go/internal/middleware"
	"github.com/serroba/ratelimit-go/internal/ratelimit"
	"github.com/serroba/ratelimit-go/internal/store"
	"go.uber.org/zap"
)

const requestIDLength = 12

// Options configures both binaries. Values come from flags or environment
// via humacli.
type Options struct {
	Port               int    `default:"8888"           help:"Port to listen on"                                         short:"p"`
	RedisAddr          string `default:"localhost:6379" help:"Redis address, the shared rate limit counter store"        short:"r"`
	PostgresDSN        string `help:"Postgres DSN for the audit store; empty keeps audit events log-only"`
	RateLimitPerMinute int    `default:"5"              help:"Requests allowed per user per minute"`
	StoreTimeoutMS     int    `default:"250"            help:"Counter store call timeout in milliseconds"`
	FailOpen           bool   `help:"Forward requests when the counter store is unavailable (default is fail-closed)"`
	IPBurst            int    `default:"2"              help:"IP limiter burst size"`
	IPWindowSeconds    int    `default:"5"              help:"Seconds for the IP limiter to refill a full burst"`
	LogFormat          string `default:"console"        help:"Log format: console or json"`
}

// LoggerPackage provides the zap logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the shared Redis client. It is created once at
// startup and reused for the lifetime of the process; the client is safe
// for concurrent use.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*redis.Client, error) {
		opts := do.MustInvoke[*Options](i)

		return redis.NewClient(&redis.Options{
			Addr: opts.RedisAddr,
		}), nil
	})
}

// AuditStorePackage provides the audit store: Postgres when a DSN is
// configured, log-only otherwise.
func AuditStorePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (audit.Store, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.PostgresDSN == "" {
			logger.Info("no postgres dsn configured, audit events are log-only")

			return audit.NewNoopStore(logger), nil
		}

		pool, err := pgxpool.New(context.Background(), opts.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect audit store: %w", err)
		}

		return audit.NewPostgresStore(pool), nil
	})
}

// RateLimitPackage provides both limiter layers.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*ratelimit.UserLimiter, error) {
		opts := do.MustInvoke[*Options](i)
		client := do.MustInvoke[*redis.Client](i)

		counters := store.NewRedisCounterStore(client, time.Duration(opts.StoreTimeoutMS)*time.Millisecond)

		return ratelimit.NewUserLimiter(counters, int64(opts.RateLimitPerMinute)), nil
	})

	do.Provide(injector, func(i *do.Injector) (*ratelimit.IPLimiter, error) {
		opts := do.MustInvoke[*Options](i)

		rps := float64(opts.IPBurst) / float64(opts.IPWindowSeconds)

		return ratelimit.NewIPLimiter(rps, opts.IPBurst), nil
	})
}

// PublisherGroupPackage provides the Redis stream publisher and the typed
// publish function for rejection events.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*redis.Client](i)

		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client: client,
		}, watermill.NopLogger{})
		if err != nil {
			return nil, fmt.Errorf("create stream publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[audit.LimitExceededEvent], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[audit.LimitExceededEvent](group.Publisher(), audit.TopicLimitExceeded), nil
	})
}

// ConsumerGroupPackage provides the consumer group persisting rejection
// events to the audit store.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		client := do.MustInvoke[*redis.Client](i)
		logger := do.MustInvoke[*zap.Logger](i)
		auditStore := do.MustInvoke[audit.Store](i)

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client,
			ConsumerGroup: "ratelimit-audit",
		}, watermill.NopLogger{})
		if err != nil {
			return nil, fmt.Errorf("create stream subscriber: %w", err)
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(
			subscriber,
			audit.TopicLimitExceeded,
			func(ctx context.Context, event *audit.LimitExceededEvent) error {
				return auditStore.SaveLimitExceeded(ctx, event)
			},
			logger,
		))

		return group, nil
	})
}

// HTTPPackage provides the router and the API with the middleware chain
// composed in order: request metadata, IP layer, user layer.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)
		redisClient := do.MustInvoke[*redis.Client](i)
		userLimiter := do.MustInvoke[*ratelimit.UserLimiter](i)
		ipLimiter := do.MustInvoke[*ratelimit.IPLimiter](i)
		auditStore := do.MustInvoke[audit.Store](i)
		publishExceeded := do.MustInvoke[messaging.Publish[audit.LimitExceededEvent]](i)

		api := humachi.New(router, huma.DefaultConfig("User Rate Limiter", "1.0.0"))

		newRequestID, err := nanoid.Standard(requestIDLength)
		if err != nil {
			return nil, fmt.Errorf("create request id generator: %w", err)
		}

		api.UseMiddleware(
			middleware.RequestMeta(newRequestID),
			middleware.IPRateLimiter(api, ipLimiter, logger),
			middleware.UserRateLimiter(api, userLimiter, logger, middleware.UserRateLimiterOptions{
				FailOpen:        opts.FailOpen,
				PublishExceeded: publishExceeded,
			}),
		)

		handlers.RegisterRoutes(api,
			handlers.NewPingHandler(),
			handlers.NewStatsHandler(auditStore),
			handlers.NewHealthHandler(handlers.NewRedisHealthChecker(redisClient)),
		)

		return api, nil
	})
}
