package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/gogotex/gogotex/backend/go-users/handlers"
	"github.com/gogotex/gogotex/backend/go-users/internal/cache"
	"github.com/gogotex/gogotex/backend/go-users/internal/config"
	"github.com/gogotex/gogotex/backend/go-users/internal/database"
	"github.com/gogotex/gogotex/backend/go-users/internal/users"
	"github.com/gogotex/gogotex/backend/go-users/pkg/logger"
	"github.com/gogotex/gogotex/backend/go-users/pkg/metrics"
	"github.com/gogotex/gogotex/backend/go-users/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, flush := logger.New(logger.Options{
		Level: cfg.Log.Level,
		JSON:  cfg.Log.JSON || cfg.Server.Environment == "production",
		File:  cfg.Log.File,
	})
	defer flush()
	log.Info("config loaded",
		zap.String("env", cfg.Server.Environment),
		zap.Bool("mongo", cfg.MongoDB.URI != ""),
		zap.Bool("redis", cfg.Redis.Addr() != ""),
	)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	checks := map[string]handlers.Check{}

	// Redis backs the user cache and the shared rate limiter; both are optional.
	var rdb *redis.Client
	if addr := cfg.Redis.Addr(); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis ping failed", zap.String("addr", addr), zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	var repo users.UserRepository
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongoWithRetry(ctx, log, cfg.MongoDB.URI, cfg.MongoDB.Timeout, database.DefaultRetry)
		if err != nil {
			log.Fatal("mongo unavailable", zap.Error(err))
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		mrepo, err := users.NewMongoUserRepository(ctx, client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection))
		if err != nil {
			log.Fatal("mongo user repository", zap.Error(err))
		}
		repo = mrepo
		checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		log.Info("using MongoDB user store", zap.String("database", cfg.MongoDB.Database), zap.String("collection", cfg.MongoDB.Collection))
	} else {
		repo = users.NewMemoryRepository()
		log.Warn("MONGODB_URI not set, using in-memory user store")
	}
	if rdb != nil && cfg.Cache.Enabled {
		repo = cache.NewUserCache(repo, rdb, cfg.Cache.TTL, "user:")
		log.Info("user cache enabled", zap.Duration("ttl", cfg.Cache.TTL))
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(ginzap.Ginzap(log, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(log, true))
	r.Use(cors.Default())
	r.Use(middleware.Metrics())
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
		log.Info("rate limiter enabled", zap.Float64("rps", cfg.RateLimit.RPS), zap.Int("burst", cfg.RateLimit.Burst))
	}

	handlers.RegisterHealth(r, checks, 2*time.Second)
	handlers.RegisterSwagger(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.NewUserHandler(users.NewService(repo), log).Register(&r.RouterGroup)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("users service listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	log.Info("users service stopped")
}
