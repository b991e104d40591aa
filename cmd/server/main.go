package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/strollscribe/service-walkroute/internal/application"
	"github.com/strollscribe/service-walkroute/internal/cache"
	"github.com/strollscribe/service-walkroute/internal/client"
	"github.com/strollscribe/service-walkroute/internal/config"
	"github.com/strollscribe/service-walkroute/internal/domain/walk"
	"github.com/strollscribe/service-walkroute/internal/handler"
	"github.com/strollscribe/service-walkroute/internal/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-walkroute")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-walkroute",
		zap.String("port", cfg.Port),
		zap.String("geocoder", cfg.Geocoder.Provider),
	)

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	// Process-wide caches, shared by every run.
	geocodeCache := cache.New[walk.Coordinate]()
	routeCache := cache.New[walk.Trip]()

	// Select the geocoding provider.
	var geocoder walk.Geocoder
	switch cfg.Geocoder.Provider {
	case "google":
		geocoder, err = client.NewGoogleGeocoder(cfg.Geocoder.GoogleAPIKey, geocodeCache, log)
		if err != nil {
			log.Fatal("failed to create google geocoder", zap.Error(err))
		}
	default:
		geocoder = client.NewNominatimGeocoder(cfg.Geocoder.NominatimBaseURL, httpClient, geocodeCache, log)
	}

	planner := client.NewValhallaPlanner(cfg.Routing.ValhallaBaseURL, cfg.Routing.Costing, httpClient, routeCache, log)
	imagery := client.NewSatelliteImagery(
		cfg.Imagery.BaseURL,
		cfg.Imagery.Width,
		cfg.Imagery.Height,
		cfg.Imagery.PadRatio,
		httpClient,
		log,
	)
	vision := client.NewVisionClient(cfg.Vision.APIKey, cfg.Vision.Model, cfg.Vision.MaxTokens, log)

	// Initialize the pipeline orchestrator
	walkService := application.NewWalkService(
		vision,
		geocoder,
		planner,
		imagery,
		vision,
		cfg.Pipeline.MaxDurationSeconds,
		log,
	)

	// Initialize HTTP handlers
	walkHandler := handler.NewWalkHandler(walkService)
	statusHandler := handler.NewStatusStreamHandler(walkService, log)
	healthHandler := handler.NewHealthHandler(cfg)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(handler.RecoveryMiddleware(log))
	router.Use(handler.LoggerMiddleware(log))
	router.Use(handler.RequestIDMiddleware())

	// Register routes
	healthHandler.RegisterRoutes(router)
	walkHandler.RegisterRoutes(&router.RouterGroup)
	statusHandler.RegisterRoutes(&router.RouterGroup)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-walkroute...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-walkroute stopped")
}
