package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/article-threads-api/internal/api"
	"github.com/article-threads-api/internal/auth"
	"github.com/article-threads-api/internal/config"
	"github.com/article-threads-api/internal/database"
	"github.com/article-threads-api/internal/notify"
	"github.com/article-threads-api/internal/repository"
	"github.com/article-threads-api/internal/service"
	"github.com/article-threads-api/internal/storage"
	"github.com/article-threads-api/migrations"
	"github.com/article-threads-api/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "json")
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Str("env", cfg.Env).Msg("Starting article threads API server...")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.RunMigrations(migrations.FS); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Redis is optional
	rdb := database.NewRedis(&cfg.Redis, log)
	if rdb != nil {
		defer rdb.Close()
	}

	// Notification pipeline
	emitter := notify.NewEmitter(notify.NewRedisPublisher(rdb), cfg.Redis.NotifyTimeout, log)
	dispatcher := notify.NewDispatcher(emitter, cfg.Redis.NotifyWorkers, log)

	files, err := storage.New(&cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize file storage")
	}

	repos := repository.New(db)
	services := service.NewServices(repos, dispatcher, files, log)

	router := api.NewRouter(api.Dependencies{
		Services: services,
		Resolver: auth.NewJWTResolver(cfg.Auth.JWTSecret),
		Redis:    rdb,
		DB:       db,
	}, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Let in-flight notifications finish
	if err := dispatcher.Close(ctx); err != nil {
		log.Warn().Err(err).Msg("Pending notifications abandoned")
	}

	log.Info().Msg("Server exited gracefully")
}
