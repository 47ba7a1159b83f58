package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"blum/internal/config"
	"blum/internal/db"
	"blum/internal/email"
	apihttp "blum/internal/http"
	"blum/internal/metrics"
	"blum/internal/repository"
	"blum/internal/service"
	"blum/internal/sheets"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	m, err := metrics.New("blum", prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal("metrics init", zap.Error(err))
	}

	var fallbackRepo repository.FallbackRepository
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		if err := db.EnsureSchema(ctx, pool); err != nil {
			logger.Fatal("db schema", zap.Error(err))
		}
		fallbackRepo = repository.NewPgFallbackRepository(pool)
	} else {
		memRepo := repository.NewBoundedMemoryFallbackRepository(cfg.FallbackMemoryLimit)
		if err := metrics.RegisterFallbackEvictions("blum", prometheus.DefaultRegisterer, memRepo.Evicted); err != nil {
			logger.Warn("fallback eviction metric not registered", zap.Error(err))
		}
		fallbackRepo = memRepo
		logger.Warn("database not configured, fallback cache kept in memory",
			zap.Int("max_entries", cfg.FallbackMemoryLimit),
		)
	}

	var (
		progress    = service.NewMemoryProgressStore(cfg.SessionTTL())
		limiter     = service.NewSessionRateLimiter(cfg.SessionRateWindow(), cfg.SessionRateLimit)
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			progress = service.NewRedisProgressStore(redisClient, cfg.SessionTTL())
			limiter = service.NewRedisSessionRateLimiter(redisClient, cfg.SessionRateWindow(), cfg.SessionRateLimit)
		}
		cancel()
	}

	if cfg.SheetWebhookURL == "" {
		logger.Warn("sheet webhook not configured, every submission goes to the fallback cache")
	}
	sheetClient := sheets.NewHTTPClient(cfg.SheetWebhookURL, cfg.SheetTimeout(), logger)
	submissions := service.NewSubmissionService(logger, sheetClient, fallbackRepo, progress, m)

	registry := service.NewRegistry(progress, service.ControllerConfig{
		AutosaveInterval: cfg.AutosaveInterval(),
		Autosave:         submissions,
		Finalizer:        submissions,
		Logger:           logger,
		Metrics:          m,
	}, cfg.SessionTTL())

	secret := cfg.SessionSecret
	if secret == "" {
		logger.Warn("session secret not configured, tokens will not survive a restart")
		secret = uuid.NewString()
	}
	tokens := service.NewSessionTokenService(secret, cfg.SessionTTL())

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}
	reports := service.NewReportService(logger, nil, emailSender)

	questionnaireHandler := apihttp.NewQuestionnaireHandler(logger, registry, tokens, limiter, reports)
	protocolHandler := apihttp.NewProtocolHandler(logger)
	router := apihttp.NewRouter(logger, questionnaireHandler, protocolHandler, tokens, registry, promhttp.Handler())

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return registry.Run(gctx, time.Minute)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		registry.Shutdown()
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}
