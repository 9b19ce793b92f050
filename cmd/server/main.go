package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mindbridge-gateway/internal/config"
	"github.com/mindbridge-gateway/internal/handlers"
	"github.com/mindbridge-gateway/internal/i18n"
	"github.com/mindbridge-gateway/internal/middleware"
	"github.com/mindbridge-gateway/internal/models"
	"github.com/mindbridge-gateway/internal/services/ai"
	"github.com/mindbridge-gateway/internal/services/cache"
	"github.com/mindbridge-gateway/internal/services/crisis"
	"github.com/mindbridge-gateway/internal/services/dialogue"
	"github.com/mindbridge-gateway/internal/services/emotion"
	"github.com/mindbridge-gateway/internal/services/prompt"
	"github.com/mindbridge-gateway/pkg/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	envFile := flag.String("env", ".env", "Path to .env file")
	flag.Parse()

	// Load .env file if exists
	if err := godotenv.Load(*envFile); err != nil {
		// It's okay if .env doesn't exist
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info("Starting gateway...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := middleware.NewMetrics()

	localizer, err := i18n.NewLocalizer(&cfg.I18n)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize i18n")
	}

	detector, err := crisis.NewDetector(crisis.KeywordsOrDefault(cfg.Safety.Keywords))
	if err != nil {
		log.WithError(err).Fatal("Failed to build crisis detector")
	}
	log.WithField("keywords", len(detector.Keywords())).Info("Crisis detector ready")

	resultCache, err := cache.NewCache(&cfg.Cache, metrics, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize cache")
	}

	client := ai.NewOllamaClient(&cfg.Inference, metrics, log)
	prompts := prompt.New(&cfg.Inference)

	dialogueService := dialogue.NewService(client, prompts, detector, localizer, cfg.Sampling, metrics, log)
	emotionService := emotion.NewService(client, prompts, resultCache, cfg.Sampling.Emotion, log)

	defaultLanguage := models.ParseLanguage(cfg.I18n.DefaultLanguage, models.LanguageEnglish)
	api := handlers.NewAPIHandler(dialogueService, emotionService, localizer, defaultLanguage, log)
	rateLimiter := middleware.NewRateLimiter(ctx, &cfg.RateLimit, log)

	router := handlers.NewRouter(api, &cfg.Server, log,
		middleware.RequestID,
		middleware.AccessLog(log, metrics),
		middleware.RateLimit(rateLimiter, localizer, metrics, defaultLanguage),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var metricsServer *http.Server
	if cfg.Monitoring.Metrics.Enabled {
		metricsServer = middleware.NewMetricsServer(cfg.Monitoring.Metrics.Port, cfg.Monitoring.Metrics.Path)
		go func() {
			log.WithFields(logrus.Fields{
				"port": cfg.Monitoring.Metrics.Port,
				"path": cfg.Monitoring.Metrics.Path,
			}).Info("Starting metrics server")

			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	go func() {
		log.WithField("addr", server.Addr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	log.Info("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Metrics server shutdown failed")
		}
	}

	// Stop background goroutines
	cancel()

	if closer, ok := resultCache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.WithError(err).Warn("Failed to close cache")
		}
	}

	log.Info("Gateway stopped")
}
