// Package bootstrap wires configuration, storage and the scoring pipeline
// into the components shared by the HTTP server and the matcher CLI.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/fadilmartias/cv-matcher/internal/config"
	"github.com/fadilmartias/cv-matcher/internal/evaluator"
	"github.com/fadilmartias/cv-matcher/internal/extractor"
	"github.com/fadilmartias/cv-matcher/internal/logger"
	"github.com/fadilmartias/cv-matcher/internal/repository"
	"github.com/fadilmartias/cv-matcher/internal/scoring"
	"github.com/fadilmartias/cv-matcher/internal/service"
	"github.com/fadilmartias/cv-matcher/internal/session"
	"github.com/fadilmartias/cv-matcher/internal/storage"
	"github.com/fadilmartias/cv-matcher/internal/usecase"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Container struct {
	DB     *gorm.DB
	Logger *zap.Logger

	JobRepo       *repository.JobRepository
	CandidateRepo *repository.CandidateRepository
	ScoreRepo     *repository.ScoreRepository
	RunRepo       *repository.RunRepository

	Evaluator  *evaluator.Evaluator
	Controller *usecase.Controller
	Jobs       *usecase.JobUsecase
	Candidates *usecase.CandidateUsecase
	Scores     *usecase.ScoreUsecase
}

// Connect opens the database with the pool sized for the current environment
// and applies migrations.
func Connect() (*gorm.DB, error) {
	pool := repository.DevelopmentPool()
	if config.LoadAppConfig().IsProduction() {
		pool = repository.ProductionPool()
	}
	db, err := repository.Open(config.LoadDBConfig().DSN(), pool)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// New builds the full pipeline on top of db. Runs left in running state by a
// previous process are closed as cancelled.
func New(ctx context.Context, db *gorm.DB, log *zap.Logger) (*Container, error) {
	engineCfg := config.LoadEngineConfig()
	llmCfg := config.LoadLLMConfig()

	policy, err := scoring.Lookup(engineCfg.AlgorithmVersion)
	if err != nil {
		return nil, err
	}

	c := &Container{
		DB:            db,
		Logger:        log,
		JobRepo:       repository.NewJobRepository(db),
		CandidateRepo: repository.NewCandidateRepository(db),
		ScoreRepo:     repository.NewScoreRepository(db),
		RunRepo:       repository.NewRunRepository(db),
	}

	if n, err := c.RunRepo.MarkInterrupted(ctx); err != nil {
		return nil, fmt.Errorf("close interrupted runs: %w", err)
	} else if n > 0 {
		log.Warn("closed runs interrupted by restart", zap.Int64("count", n))
	}

	fetcher, err := storage.New(config.LoadStorageConfig())
	if err != nil {
		return nil, err
	}
	ex := extractor.New(fetcher, extractor.Options{
		Timeout:    engineCfg.ExtractionTimeout,
		MaxChars:   engineCfg.MaxCVChars,
		OCREnabled: engineCfg.OCREnabled,
	}, log.Named("extractor"))

	gen, err := service.NewGenerator(ctx, llmCfg)
	if err != nil {
		return nil, err
	}
	c.Evaluator = evaluator.New(gen, evaluator.OptionsFromConfig(llmCfg, engineCfg), log.Named("evaluator"))

	marker, err := session.New(config.LoadSessionConfig())
	if err != nil {
		return nil, err
	}

	engine := usecase.NewScoringEngine(ex, c.Evaluator, c.ScoreRepo, usecase.EngineOptions{
		ShortlistThreshold: engineCfg.ShortlistThreshold,
	}, log.Named("engine"))

	c.Controller = usecase.NewController(c.JobRepo, c.ScoreRepo, c.RunRepo, engine, c.Evaluator, marker, policy,
		usecase.ControllerOptions{
			Concurrency: engineCfg.RunConcurrency,
			RunTimeout:  engineCfg.RunTimeout,
		}, log.Named("controller"))

	c.Jobs = usecase.NewJobUsecase(c.JobRepo, c.Controller, log)
	c.Candidates = usecase.NewCandidateUsecase(c.CandidateRepo, log)
	c.Scores = usecase.NewScoreUsecase(c.ScoreRepo, c.RunRepo, c.JobRepo, c.CandidateRepo)

	log.Info("scoring pipeline ready",
		zap.String("algorithm_version", policy.Version),
		zap.String("provider", gen.Name()),
		zap.String("model", gen.Model()),
	)
	return c, nil
}

// Close stops in-flight runs and releases the database pool.
func (c *Container) Close(ctx context.Context) error {
	if c.Controller != nil {
		if err := c.Controller.Shutdown(ctx); err != nil {
			c.Logger.Warn("controller shutdown", zap.Error(err))
		}
	}
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewLogger builds the process logger from app configuration.
func NewLogger() (*zap.Logger, error) {
	app := config.LoadAppConfig()
	return logger.New(app.LogJSON, app.LogDebug)
}
