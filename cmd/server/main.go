package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/omrgrade/omr-backend/internal/config"
	"github.com/omrgrade/omr-backend/internal/database"
	"github.com/omrgrade/omr-backend/internal/grading"
	"github.com/omrgrade/omr-backend/internal/handler"
	"github.com/omrgrade/omr-backend/internal/logger"
	"github.com/omrgrade/omr-backend/internal/middleware"
	"github.com/omrgrade/omr-backend/internal/repository"
	"github.com/omrgrade/omr-backend/internal/router"
	"github.com/omrgrade/omr-backend/internal/service"
	"github.com/omrgrade/omr-backend/internal/validator"
	"github.com/omrgrade/omr-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting OMR grading backend")

	// ─── Default Grading Scheme ────────────────────────────────────────
	scoreDefaults, err := cfg.ScoreDefaults()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid SCORE_* configuration")
	}
	defaultScheme, err := grading.DefaultScheme(scoreDefaults)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid SCORE_* configuration")
	}
	log.Info().
		Float64("correct", defaultScheme.CorrectScore()).
		Float64("incorrect", defaultScheme.IncorrectScore()).
		Float64("none", defaultScheme.DefaultScore()).
		Msg("Default scheme loaded")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	operatorRepo := repository.NewOperatorRepository(pool)
	schemeRepo := repository.NewSchemeRepository(pool)
	testRepo := repository.NewTestRepository(pool)
	sheetRepo := repository.NewSheetRepository(pool)
	resultRepo := repository.NewResultRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, operatorRepo)
	schemeService := service.NewSchemeService(schemeRepo, rdb, defaultScheme, log)
	testService := service.NewTestService(testRepo, rdb, log)
	sheetService := service.NewSheetService(sheetRepo, testService)
	gradingService := service.NewGradingService(testService, schemeService, sheetService, resultRepo, rdb, cfg.GradingWorkers, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Grading: handler.NewGradingHandler(schemeService, cfg.MaxSheetBytes),
		Scheme:  handler.NewSchemeHandler(schemeService),
		Test:    handler.NewTestHandler(testService),
		Sheet:   handler.NewSheetHandler(sheetService, gradingService, cfg.MaxSheetBytes, log),
		WS:      handler.NewWSHandler(rdb, testService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	gradingWorker := worker.NewGradingWorker(rdb, gradingService, resultRepo, log)
	go gradingWorker.Start(workerCtx)

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	if err := schemeService.PrewarmCache(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	// 10 login attempts per minute per IP.
	loginLimiter := middleware.NewRateLimiter(rdb, 10, time.Minute, config.CacheKey.LoginAttemptsKey)
	r := router.SetupRouter(authService, handlers, loginLimiter, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the grading worker; it flushes its pending batch on exit.
	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
