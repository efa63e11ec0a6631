package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Sandi19/arctic-siberia-quiz-service/internal/cache"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/config"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/handlers"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/middleware"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/models"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/repositories/postgres"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/services"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/utils"
	"github.com/Sandi19/arctic-siberia-quiz-service/internal/validator"
	"github.com/Sandi19/arctic-siberia-quiz-service/pkg"
)

// timeoutSweepInterval controls how often expired in-progress attempts are
// finalized in the background.
const timeoutSweepInterval = time.Minute

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	var logHandler slog.Handler
	if cfg.Environment == "production" {
		logHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(logHandler)
	appLogger := utils.NewSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Question{},
		&models.Quiz{},
		&models.QuizSettings{},
		&models.QuizQuestion{},
		&models.QuizAttempt{},
		&models.StudentAnswer{},
	); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	cacheService := cache.NewRedisCache(redisClient, logger)

	publisher, err := config.LoadEventConfig().CreateEventPublisher(logger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	repo := postgres.NewRepository(db)
	v := validator.New()

	quizService := services.NewQuizService(repo, logger, v, cacheService, publisher)
	questionService := services.NewQuestionService(repo, logger, v)
	gradingService := services.NewGradingService(repo, logger, publisher)
	attemptService := services.NewAttemptService(repo, logger, v, publisher, gradingService)
	exportService := services.NewExportService(repo, logger)

	middleware.InitCasdoor(cfg)
	authMiddleware := middleware.Auth(repo.User(), appLogger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(appLogger))

	hm := handlers.NewHandlerManager(
		quizService, questionService, attemptService, gradingService, exportService,
		appLogger,
	)
	hm.SetupRoutes(router, authMiddleware)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go runTimeoutSweep(sweepCtx, attemptService, logger)

	go func() {
		logger.Info("Starting quiz service", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}

	logger.Info("Server stopped")
}

// runTimeoutSweep periodically finalizes attempts whose deadline passed
// without a submit.
func runTimeoutSweep(ctx context.Context, attempts services.AttemptService, logger *slog.Logger) {
	ticker := time.NewTicker(timeoutSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := attempts.ProcessTimedOut(ctx); err != nil {
				logger.Error("Timeout sweep failed", "error", err)
			}
		}
	}
}
