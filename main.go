// File: planora/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"planora/config"
	"planora/handlers"
	"planora/middleware"
	"planora/routes"
	"planora/services/concierge"
	"planora/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	// Session store: Redis by default, in-process when configured.
	ttl := time.Duration(config.AppConfig.SessionTTLMin) * time.Minute
	var store concierge.SessionStore
	if config.AppConfig.SessionStore == "memory" {
		store = concierge.NewMemorySessionStore(ttl)
	} else {
		utils.InitSessionCache()
		store = concierge.NewRedisSessionStore(utils.GetSessionCacheClient(), ttl)
	}

	completion, err := concierge.NewGeminiClient(
		context.Background(),
		config.AppConfig.GeminiAPIKey,
		config.AppConfig.GeminiModel,
	)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize completion client: %v", err)
	}

	conciergeSvc := concierge.NewDefaultConciergeService(store, completion, concierge.Options{
		DefaultCityDays:   config.AppConfig.DefaultCityDays,
		MetaRetryLimit:    config.AppConfig.MetaRetryLimit,
		CompletionTimeout: time.Duration(config.AppConfig.CompletionTimeoutSec) * time.Second,
	})

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	handlerBundle := &routes.HandlerBundle{
		Concierge: handlers.NewConciergeHandler(conciergeSvc),
		Assistant: handlers.NewAssistantHandler(conciergeSvc),
	}
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
