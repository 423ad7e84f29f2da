package routes

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/coinvault/coinvault/internal/balance"
	"github.com/coinvault/coinvault/internal/config"
	"github.com/coinvault/coinvault/internal/currency"
	"github.com/coinvault/coinvault/internal/economy"
	"github.com/coinvault/coinvault/internal/middleware"
	"github.com/coinvault/coinvault/internal/notification"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares, composes the balance tier chain and wires all
// application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.DB == nil && !d.Cfg.IsDev() {
		return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	// Tier composition: the store is always the lowest tier; the distributed
	// tier slots in when Redis is configured; the local tier always fronts
	// the chain.
	var store balance.Store
	if d.DB != nil {
		store = balance.NewPostgresStore(d.DB)
	} else {
		store = balance.NewMemoryStore()
	}

	var lower balance.Tier
	if d.Cache != nil {
		lower = balance.NewRedisTier(d.Cache, store, d.Cfg.RedisCacheTTL)
	} else {
		lower = balance.NewStoreTier(store)
	}
	local := balance.NewLocalTier(lower, d.Cfg.LocalCacheTTL)

	defs, err := currency.ParseList(d.Cfg.Currencies)
	if err != nil {
		return err
	}
	registry, err := currency.NewRegistry(defs)
	if err != nil {
		return err
	}

	notifier := notification.NewLoggerNotifier(d.Logger)
	svc := economy.NewService(local, store, notifier, d.Logger)
	handler := economy.NewHandler(svc, local, registry)

	RegisterHealthRoutes(app, d)

	api := app.Group("/api/v1")
	RegisterCurrencyRoutes(api, handler)

	// Mutating endpoints carry an audit log and, when Redis is available,
	// idempotency keyed by the Idempotency-Key header.
	mutations := api.Group("", middleware.Audit(d.Logger))
	if d.Cache != nil {
		mutations = mutations.Group("", middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	RegisterBalanceRoutes(api, mutations, handler)

	return nil
}
