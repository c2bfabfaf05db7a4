package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"go.uber.org/zap"

	"github.com/stelliform/sketchsphere/internal/infrastructure/configs"
	"github.com/stelliform/sketchsphere/internal/infrastructure/ratelimiter"
	"github.com/stelliform/sketchsphere/internal/infrastructure/tracing"
	"github.com/stelliform/sketchsphere/internal/presentation/api"
	"github.com/stelliform/sketchsphere/internal/presentation/handler/boards"
	"github.com/stelliform/sketchsphere/internal/presentation/handler/health"
	"github.com/stelliform/sketchsphere/internal/registry"
	"github.com/stelliform/sketchsphere/internal/ws"
)

const (
	serviceName = "sketchsphere-sync"
)

func main() {
	tracerCfg := tracing.NewDefaultConfig(serviceName)

	sh, err := tracing.InitTracer(tracerCfg)
	if err != nil {
		log.Fatalf("Failed to initialize the tracer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer sh(ctx)

	logger := zap.Must(zap.NewProduction()).Sugar()
	defer logger.Sync()

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	reg := registry.New()

	core := ws.NewCore(reg, logger)
	go core.Run()

	boardsHandler := boards.NewHandler(reg, core, *cfg, logger)
	healthHandler := health.NewHandler()

	rl := ratelimiter.New(ratelimiter.Options{
		MaxRatePerSecond: cfg.RateLimiter.MaxRatePerSecond,
		MaxBurst:         cfg.RateLimiter.MaxBurst,
		CacheTTL:         cfg.RateLimiter.CacheTTL,
		SourceHeaderKey:  cfg.RateLimiter.SourceHeaderKey,
	})
	app := api.NewApplication(*cfg, *boardsHandler, *healthHandler, logger, rl)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	logger.Fatal(app.Run(mux))
}
