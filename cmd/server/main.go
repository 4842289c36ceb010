package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fadilmartias/cv-matcher/internal/bootstrap"
	"github.com/fadilmartias/cv-matcher/internal/config"
	"github.com/fadilmartias/cv-matcher/internal/domain/fiber/handler"
	"github.com/fadilmartias/cv-matcher/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Could not load .env file")
	}

	appConfig := config.LoadAppConfig()

	zlog, err := bootstrap.NewLogger()
	if err != nil {
		log.Fatalf("could not build logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := bootstrap.Connect()
	if err != nil {
		zlog.Fatal("database", zap.Error(err))
	}
	c, err := bootstrap.New(ctx, db, zlog)
	if err != nil {
		zlog.Fatal("bootstrap", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:      appConfig.Name,
		ErrorHandler: handler.ErrorHandler,
	})
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: !appConfig.IsProduction(),
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(*fiber.Ctx) bool {
			return appConfig.IsProduction()
		},
	}))
	app.Use(healthcheck.New(healthcheck.Config{
		ReadinessProbe: func(*fiber.Ctx) bool {
			return c.Evaluator.Available()
		},
	}))
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.RateLimiter(50, 1*time.Minute))

	sessionTTL := config.LoadSessionConfig().MarkerTTL
	handler.NewAnalyzeHandler(c.Controller, sessionTTL, zlog.Named("http")).RegisterRoutes(app)
	handler.NewScoreHandler(c.Scores).RegisterRoutes(app)
	handler.NewJobHandler(c.Jobs).RegisterRoutes(app)
	handler.NewCandidateHandler(c.Candidates).RegisterRoutes(app)

	// Monitor goroutine count
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				zlog.Debug("runtime", zap.Int("goroutines", runtime.NumGoroutine()))
			}
		}
	}()

	go func() {
		zlog.Info("server running", zap.String("port", appConfig.Port))
		if err := app.Listen(appConfig.Port); err != nil {
			zlog.Error("listen", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Warn("http shutdown", zap.Error(err))
	}
	if err := c.Close(shutdownCtx); err != nil {
		zlog.Warn("close", zap.Error(err))
	}
}
