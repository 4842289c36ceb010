package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/fadilmartias/cv-matcher/internal/model"
	"github.com/fadilmartias/cv-matcher/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type jobStore interface {
	CreateJob(ctx context.Context, job *model.JobPosting) error
	FindJobByID(ctx context.Context, id uuid.UUID) (*model.JobPosting, error)
	DeleteJob(ctx context.Context, id uuid.UUID) error
}

type runCanceller interface {
	Cancel(ctx context.Context, jobID uuid.UUID) error
}

type JobUsecase struct {
	jobs   jobStore
	runs   runCanceller
	logger *zap.Logger
}

func NewJobUsecase(jobs jobStore, runs runCanceller, logger *zap.Logger) *JobUsecase {
	return &JobUsecase{jobs: jobs, runs: runs, logger: logger}
}

func (uc *JobUsecase) Create(ctx context.Context, job *model.JobPosting) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	job.RequiredSkills = model.NewSkillSet(job.RequiredSkills)
	return uc.jobs.CreateJob(ctx, job)
}

func (uc *JobUsecase) Get(ctx context.Context, id uuid.UUID) (*model.JobPosting, error) {
	job, err := uc.jobs.FindJobByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrJobNotFound
	}
	return job, err
}

// Delete stops any run for the job before removing it with its scores and
// run history.
func (uc *JobUsecase) Delete(ctx context.Context, id uuid.UUID) error {
	if err := uc.runs.Cancel(ctx, id); err != nil {
		return fmt.Errorf("cancel run: %w", err)
	}
	err := uc.jobs.DeleteJob(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrJobNotFound
	}
	if err == nil {
		uc.logger.Info("job deleted", zap.String("job_id", id.String()))
	}
	return err
}
