// Command billingd serves the subscription billing endpoints and the
// holiday discount schedule.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/billingkit/migrations"
	"github.com/dmitrymomot/billingkit/modules/billing"
	"github.com/dmitrymomot/billingkit/modules/discounts"
	"github.com/dmitrymomot/billingkit/pkg/calendar"
	"github.com/dmitrymomot/billingkit/pkg/config"
	"github.com/dmitrymomot/billingkit/pkg/discount"
	"github.com/dmitrymomot/billingkit/pkg/httpserver"
	"github.com/dmitrymomot/billingkit/pkg/logger"
	"github.com/dmitrymomot/billingkit/pkg/metrics"
	"github.com/dmitrymomot/billingkit/pkg/pg"
	"github.com/dmitrymomot/billingkit/pkg/ratelimiter"
	"github.com/dmitrymomot/billingkit/pkg/redis"
	"github.com/dmitrymomot/billingkit/pkg/requestid"
	"github.com/dmitrymomot/billingkit/pkg/subscription"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("billingd stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.Name),
		logger.WithContextExtractors(requestid.LoggerExtractor(), billing.AccountLogExtractor()),
	)
	logger.SetAsDefault(log)

	checks := map[string]httpserver.Check{}

	subStore, discountStore, closeStores, err := openStores(ctx, cfg, log, checks)
	if err != nil {
		return err
	}
	defer closeStores()

	m := metrics.New()

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}
	var prices priceConfig
	if err := config.Load(&prices); err != nil {
		return err
	}
	table, err := prices.table()
	if err != nil {
		return err
	}

	subs := subscription.NewService(subStore, provider, table,
		subscription.WithLogger(log),
		subscription.WithReturnURL(cfg.ReturnURL),
		subscription.WithStrictPrices(cfg.StrictPrices),
		subscription.WithRecorder(m),
	)
	discountSvc := discount.NewService(discountStore, discount.WithLogger(log))

	var calCfg calendar.Config
	if err := config.Load(&calCfg); err != nil {
		return err
	}
	var defaults calendar.Defaults
	if err := config.Load(&defaults); err != nil {
		return err
	}
	rdb, closeRedis, err := openRedis(ctx, log, checks)
	if err != nil {
		return err
	}
	defer closeRedis()

	var cache calendar.Cache = calendar.NewMemoryCache(256)
	var limitStore ratelimiter.Store
	if rdb != nil {
		cache = calendar.NewRedisCache(rdb, calCfg.CachePrefix)
		limitStore = ratelimiter.NewRedisStore(rdb, "ratelimit:")
	} else {
		mem := ratelimiter.NewMemoryStore()
		defer mem.Close()
		limitStore = mem
	}

	var limitCfg ratelimiter.Config
	if err := config.Load(&limitCfg); err != nil {
		return err
	}
	limiter, err := ratelimiter.NewBucket(limitStore, limitCfg)
	if err != nil {
		return err
	}

	holidays := calendar.NewClient(calCfg,
		calendar.WithCache(cache),
		calendar.WithClientLogger(log),
		calendar.WithFetchRecorder(m),
	)
	planner := calendar.NewPlanner(discountSvc, holidays, defaults)

	r := chi.NewRouter()
	r.Use(requestid.Middleware(), m.Middleware, middleware.Recoverer)
	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, 5*time.Second, checks))
	r.Method(http.MethodGet, "/metrics", m.Handler())
	r.Mount("/api/billing", billing.Router(subs,
		billing.WithLogger(log),
		billing.WithProviderName(strings.ToLower(cfg.Provider)),
		billing.WithFlowMiddleware(ratelimiter.Middleware(limiter, billing.AccountKey,
			ratelimiter.WithLogger(log), ratelimiter.WithKeyPrefix("flows:"))),
	))
	r.Mount("/api/catalog", discounts.Router(discountSvc, planner,
		discounts.WithLogger(log),
		discounts.WithDefaultCountry(cfg.DefaultCountry),
	))

	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return err
	}
	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))

	var prefetch *calendar.Prefetcher
	if cfg.Prefetch {
		prefetch, err = calendar.NewPrefetcher(holidays, calCfg.Countries, calCfg.PrefetchSchedule,
			calendar.WithPrefetchLogger(log))
		if err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx, r)
	})
	if prefetch != nil {
		g.Go(func() error {
			if err := prefetch.RunOnce(ctx); err != nil {
				log.WarnContext(ctx, "initial holiday prefetch failed", logger.Error(err))
			}
			prefetch.Start()
			<-ctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return prefetch.Stop(stopCtx)
		})
	}

	log.InfoContext(ctx, "billingd started",
		slog.String("addr", httpCfg.Addr),
		slog.String("provider", cfg.Provider),
		slog.String("store", cfg.Store),
	)
	return g.Wait()
}

func openStores(ctx context.Context, cfg appConfig, log *slog.Logger, checks map[string]httpserver.Check) (subscription.Store, discount.Store, func(), error) {
	if strings.EqualFold(cfg.Store, StoreMemory) {
		log.WarnContext(ctx, "using in-memory storage, data is lost on restart")
		return subscription.NewMemoryStore(), discount.NewMemoryStore(), func() {}, nil
	}

	var pgCfg pg.Config
	if err := config.Load(&pgCfg); err != nil {
		return nil, nil, nil, err
	}
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := pg.Migrate(ctx, pool, migrations.FS, pgCfg, log); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	checks["postgres"] = pg.Healthcheck(pool)

	return subscription.NewPostgresStore(pool), discount.NewPostgresStore(pool), pool.Close, nil
}

// openRedis returns a nil client when REDIS_URL is unset.
func openRedis(ctx context.Context, log *slog.Logger, checks map[string]httpserver.Check) (goredis.UniversalClient, func(), error) {
	var redisCfg redis.Config
	if err := config.Load(&redisCfg); err != nil {
		return nil, nil, err
	}
	if !redisCfg.Enabled() {
		log.InfoContext(ctx, "redis not configured, using in-process cache and rate limits")
		return nil, func() {}, nil
	}

	client, err := redis.Connect(ctx, redisCfg, log)
	if err != nil {
		return nil, nil, err
	}
	checks["redis"] = redis.Healthcheck(client)

	return client, func() {
		if err := client.Close(); err != nil {
			log.Error("failed to close redis client", logger.Error(err))
		}
	}, nil
}

func newProvider(cfg appConfig) (subscription.BillingProvider, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderStripe:
		var c subscription.StripeConfig
		if err := config.Load(&c); err != nil {
			return nil, err
		}
		return subscription.NewStripeProvider(c)
	case ProviderPaddle:
		var c subscription.PaddleConfig
		if err := config.Load(&c); err != nil {
			return nil, err
		}
		return subscription.NewPaddleProvider(c)
	}
	return nil, fmt.Errorf("unknown billing provider %q", cfg.Provider)
}
