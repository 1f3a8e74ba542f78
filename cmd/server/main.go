package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"arena/internal/game"
	"arena/internal/metrics"
	"arena/internal/pairing"
	"arena/internal/queue"
	"arena/internal/routers"
	"arena/internal/store"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "dev-secret"
		logger.Warn("JWT_SECRET not set, using development secret")
	}
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("connecting to redis", zap.String("addr", redisAddr), zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	st := store.New(rdb)
	q := queue.New(rdb)
	lifecycle := game.NewLifecycle(st, logger, m)
	connRegistry := game.NewRegistry(lifecycle, logger, m)
	engine := game.NewEngine(st, connRegistry, lifecycle, logger, m)
	pairingSvc := pairing.NewService(q, st, logger, m, []byte(jwtSecret))
	socketHandler := game.NewSocketHandler(engine, connRegistry, logger)

	ctx, cancel := context.WithCancel(context.Background())
	engine.Run(ctx)
	go pairingSvc.RunLoop(ctx)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("ok")) })
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	routers.MatchRoutes(r, pairingSvc, socketHandler)

	server := &http.Server{Addr: ":" + port, Handler: r}
	go func() {
		logger.Info("arena listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	cancel()
	engine.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
}
