package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"krishilink/config"
	"krishilink/crops"
	"krishilink/dashboard"
	"krishilink/db"
	"krishilink/identity"
	"krishilink/interests"
	"krishilink/logger"
	"krishilink/middleware"
	"krishilink/notify"
	"krishilink/ratelim"
	"krishilink/rdx"
	"krishilink/routes"
	"krishilink/uploads"
	"krishilink/users"
)

type services struct {
	auth    *middleware.Auth
	limiter *ratelim.RateLimiter
	hub     *notify.Hub
	crops   *crops.Handler
	ints    *interests.Handler
	dash    *dashboard.Handler
	users   *users.Handler
	images  *uploads.Images
}

// Set up all routes and middleware layers
func setupRouter(cfg config.Config, log *logger.Logger, s services) http.Handler {
	router := httprouter.New()

	routes.AddHealthRoutes(router)
	routes.AddCropRoutes(router, s.auth, s.crops)
	routes.AddInterestRoutes(router, s.auth, s.ints)
	routes.AddDashboardRoutes(router, s.auth, s.dash)
	routes.AddUserRoutes(router, s.limiter, s.users)
	routes.AddUploadRoutes(router, s.auth, s.limiter, s.images)
	routes.AddRealtimeRoutes(router, s.hub)
	routes.AddStaticRoutes(router, cfg.UploadDir)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	return middleware.Recover(log, middleware.RequestLogger(log, middleware.SecurityHeaders(c.Handler(router))))
}

func main() {
	cfg, envLoaded := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if !envLoaded {
		log.Info("no .env file, using process environment")
	}

	verifier, err := identity.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		log.Fatal("JWT_SECRET environment variable is not set", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		cancel()
		log.Fatal("could not connect to MongoDB", "error", err)
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Warn("index creation failed", "error", err)
	}
	cancel()
	log.Info("connected to MongoDB", "database", cfg.MongoDB)

	var cache rdx.Cache = rdx.Nop{}
	var redisCache *rdx.RedisCache
	if cfg.RedisAddr != "" {
		redisCache, err = rdx.Connect(context.Background(), cfg.RedisAddr)
		if err != nil {
			log.Warn("redis unavailable, stats cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			cache = redisCache
			log.Info("connected to Redis", "addr", cfg.RedisAddr)
		}
	}

	hub := notify.NewHub(log, verifier)

	stats := dashboard.NewAggregator(dashboard.NewMongoStore(store.Crops), cache, cfg.StatsCacheTTL, log)
	catalog := crops.NewCatalog(crops.NewMongoStore(store.Crops), stats, log)
	ledger := interests.NewLedger(interests.NewMongoStore(store.Crops), hub, stats, log)
	registry := users.NewRegistry(users.NewMongoStore(store.Users), log)

	rateLimiter := ratelim.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	rateLimiter.TrustProxies(cfg.TrustedProxies...)
	stopLimiter := make(chan struct{})
	go rateLimiter.Run(time.Minute, stopLimiter)

	handler := setupRouter(cfg, log, services{
		auth:    middleware.NewAuth(log, verifier),
		limiter: rateLimiter,
		hub:     hub,
		crops:   crops.NewHandler(catalog, log),
		ints:    interests.NewHandler(ledger, log),
		dash:    dashboard.NewHandler(stats, log),
		users:   users.NewHandler(registry, log),
		images:  uploads.NewImages(cfg.UploadDir, "/static/uploads", log),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		log.Info("closing websocket connections")
		hub.Close()
	})

	go func() {
		log.Info("server started", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("could not listen", "port", cfg.Port, "error", err)
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)
	<-shutdownChan

	log.Info("shutdown signal received, shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}
	close(stopLimiter)

	if err := store.Close(shutdownCtx); err != nil {
		log.Error("mongo disconnect failed", "error", err)
	}
	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			log.Error("redis close failed", "error", err)
		}
	}

	log.Info("server stopped cleanly")
}
