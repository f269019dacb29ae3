package main

import (
	"context"
	"expvar"
	"log"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/sketchrelay/server/internal/collab"
	"github.com/sketchrelay/server/internal/infrastructure/configs"
	"github.com/sketchrelay/server/internal/infrastructure/metrics"
	"github.com/sketchrelay/server/internal/infrastructure/ratelimiter"
	"github.com/sketchrelay/server/internal/infrastructure/tracing"
	"github.com/sketchrelay/server/internal/presentation/api"
	"github.com/sketchrelay/server/internal/presentation/handler/health"
	"github.com/sketchrelay/server/internal/presentation/handler/rooms"
)

func main() {
	_ = godotenv.Load()

	logger := zap.Must(zap.NewProduction()).Sugar()
	defer logger.Sync()

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(tracing.NewDefaultConfig(cfg.Tracing.ServiceName, cfg.Tracing.Endpoint))
		if err != nil {
			logger.Fatalw("tracing init failed", "err", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
	}

	registry := collab.NewRegistry(cfg.Room.GracePeriod, logger)
	defer registry.Close()
	broadcaster := collab.NewBroadcaster(registry)

	promRegistry := prometheus.NewRegistry()
	m := metrics.New(promRegistry)
	metrics.RegisterRoomGauge(promRegistry, registry.Len)

	roomHandler := rooms.NewHandler(registry, broadcaster, cfg.WS, logger, m)
	healthHandler := health.NewHandler()
	rateLimiter := ratelimiter.NewFixedWindowRateLimiter(cfg.RateLimiter.RequestsPerTimeFrame, cfg.RateLimiter.TimeFrame)
	defer rateLimiter.Close()

	app := api.NewApplication(*cfg, roomHandler, healthHandler, metrics.Handler(promRegistry), logger, rateLimiter)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	logger.Fatal(app.Run(mux))
}
