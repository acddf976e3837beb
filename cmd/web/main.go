package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/villa-web/internal/api/dto"
	httptransport "github.com/spec-kit/villa-web/internal/api/http"
	"github.com/spec-kit/villa-web/internal/api/http/handlers"
	"github.com/spec-kit/villa-web/internal/apiclient"
	"github.com/spec-kit/villa-web/internal/cache"
	"github.com/spec-kit/villa-web/internal/config"
	"github.com/spec-kit/villa-web/internal/events"
	"github.com/spec-kit/villa-web/internal/guard"
	"github.com/spec-kit/villa-web/internal/observability"
	"github.com/spec-kit/villa-web/internal/persistence"
	"github.com/spec-kit/villa-web/internal/service"
	"github.com/spec-kit/villa-web/internal/web"
)

const bodyLimit = 4 << 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close() //nolint:errcheck

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	service.StartAuditService(dispatcher, logger, metrics)

	renderer, err := web.NewRenderer()
	if err != nil {
		logger.Fatal("failed to parse templates", zap.Error(err))
	}

	client := apiclient.New(cfg.API.BaseURL,
		apiclient.WithTimeout(cfg.API.Timeout()),
		apiclient.WithLogger(logger),
	)
	validate := dto.NewValidator()
	sessionService := service.NewSessionService(client, validate, logger)
	villaService := service.NewVillaService(client, validate, logger)
	catalogService := service.NewCatalogService(client,
		cache.NewCatalog(redis.Client(), cfg.Cache.CatalogTTL(), logger))

	app := fiber.New(fiber.Config{
		AppName:       cfg.App.Name,
		BodyLimit:     bodyLimit,
		CaseSensitive: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, renderer, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:       handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, redis, metrics),
		Auth:         handlers.NewAuthHandler(sessionService, renderer, logger),
		Pages:        handlers.NewPagesHandler(villaService, sessionService, renderer),
		Villas:       handlers.NewVillasHandler(villaService, catalogService, renderer),
		Guard:        httptransport.NewGuardMiddleware(guard.DefaultTree(), sessionStores(cfg, redis), dispatcher, logger),
		LoginLimiter: httptransport.LoginLimiter(cfg.App.LoginRatePerMinute),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// sessionStores picks the credential store. config.Load already refuses
// SESSION_STORE=redis without Redis.
func sessionStores(cfg *config.Config, redis *persistence.Redis) httptransport.StoreFactory {
	if cfg.Session.Store == config.SessionStoreRedis {
		return httptransport.RedisSessions(redis.Client(), cfg.Session)
	}
	return httptransport.CookieSessions(cfg.Session)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
