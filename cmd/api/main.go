package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"attendbot/internal/attendance"
	"attendbot/internal/auth"
	"attendbot/internal/config"
	"attendbot/internal/handler"
	"attendbot/internal/httpmiddleware"
	"attendbot/internal/logging"
	"attendbot/internal/messaging"
	"attendbot/internal/portal"
	"attendbot/internal/store"
	"attendbot/internal/telemetry"
)

const serviceName = "attendbot"

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.IsProduction())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

func runHTTP(cfg config.App) error {
	ctx := context.Background()

	tel, err := telemetry.Setup(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tel.Shutdown(shutdownCtx)
	}()

	gen := portal.Limit(portal.NewChrome(portal.Options{
		ExecPath:  cfg.ChromeBin,
		RemoteURL: cfg.ChromeRemoteURL,
		Timeout:   cfg.ScrapeTimeout,
	}), cfg.MaxConcurrentScrape)

	sender := messaging.New(cfg)
	optIn := attendance.OptInInstruction(cfg.TwilioJoinCode, cfg.TwilioFrom)

	var redisClient *store.Redis
	var scrapeMW []gin.HandlerFunc
	if cfg.RateLimitPerMin > 0 {
		var limiter httpmiddleware.Limiter
		if cfg.RateLimitBackend == "redis" {
			redisClient = store.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
			defer func() { _ = redisClient.Close() }()
			limiter = httpmiddleware.NewRedisWindow(redisClient.Client, cfg.RateLimitPerMin)
			log.Info().Str("addr", cfg.RedisAddr).Msg("rate limiting through redis")
		} else {
			limiter = httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
		}
		scrapeMW = append(scrapeMW, httpmiddleware.RateLimit(limiter))
	}
	if cfg.APISigningKey != "" {
		log.Info().Str("issuer", cfg.APITokenIssuer).Msg("bearer auth enabled on /api/scrape")
	}
	scrapeMW = append(scrapeMW, auth.RequireBearer(cfg.APISigningKey, cfg.APITokenIssuer))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestID())
	r.Use(httpmiddleware.AccessLog("/healthz", "/metrics"))
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods:    []string{"GET", "POST", "OPTIONS", "HEAD"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			httpmiddleware.RequestIDHeader,
		},
		ExposeHeaders: []string{"Content-Length", httpmiddleware.RequestIDHeader},
		MaxAge:        24 * time.Hour,
	}))
	r.Use(httpmiddleware.SecurityHeaders())

	handler.Register(r, handler.New(gen, sender, optIn, redisClient), cfg.PublicDir, scrapeMW...)

	// Scrapes run for minutes; the write deadline has to outlast them.
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ScrapeTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("env", cfg.Env).Msgf("Server running on port %s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced shutdown")
	}

	log.Info().Msg("server exited")
	return nil
}
