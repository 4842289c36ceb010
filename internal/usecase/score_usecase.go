package usecase

import (
	"context"
	"errors"

	"github.com/fadilmartias/cv-matcher/internal/model"
	"github.com/fadilmartias/cv-matcher/internal/repository"
	"github.com/google/uuid"
)

type scoreReader interface {
	Get(ctx context.Context, candidateID, jobID uuid.UUID) (*model.CandidateJobScore, error)
	ListByJob(ctx context.Context, jobID uuid.UUID, page, pageSize int) ([]model.CandidateJobScore, int64, error)
	ListByCandidate(ctx context.Context, candidateID uuid.UUID) ([]model.CandidateJobScore, error)
}

type runReader interface {
	LatestRun(ctx context.Context, jobID uuid.UUID) (*model.AnalysisRun, error)
}

type jobFinder interface {
	FindJobByID(ctx context.Context, id uuid.UUID) (*model.JobPosting, error)
}

type candidateFinder interface {
	FindCandidateByID(ctx context.Context, id uuid.UUID) (*model.Candidate, error)
}

// ScoreUsecase serves stored scores and run history.
type ScoreUsecase struct {
	scores     scoreReader
	runs       runReader
	jobs       jobFinder
	candidates candidateFinder
}

func NewScoreUsecase(scores scoreReader, runs runReader, jobs jobFinder, candidates candidateFinder) *ScoreUsecase {
	return &ScoreUsecase{scores: scores, runs: runs, jobs: jobs, candidates: candidates}
}

func (uc *ScoreUsecase) ListByJob(ctx context.Context, jobID uuid.UUID, page, pageSize int) ([]model.CandidateJobScore, int64, error) {
	if _, err := uc.jobs.FindJobByID(ctx, jobID); err != nil {
		return nil, 0, notFound(err, ErrJobNotFound)
	}
	return uc.scores.ListByJob(ctx, jobID, page, pageSize)
}

func (uc *ScoreUsecase) ListByCandidate(ctx context.Context, candidateID uuid.UUID) ([]model.CandidateJobScore, error) {
	if _, err := uc.candidates.FindCandidateByID(ctx, candidateID); err != nil {
		return nil, notFound(err, ErrCandidateNotFound)
	}
	return uc.scores.ListByCandidate(ctx, candidateID)
}

func (uc *ScoreUsecase) Get(ctx context.Context, candidateID, jobID uuid.UUID) (*model.CandidateJobScore, error) {
	s, err := uc.scores.Get(ctx, candidateID, jobID)
	if err != nil {
		return nil, notFound(err, ErrScoreNotFound)
	}
	return s, nil
}

func (uc *ScoreUsecase) LatestRun(ctx context.Context, jobID uuid.UUID) (*model.AnalysisRun, error) {
	if _, err := uc.jobs.FindJobByID(ctx, jobID); err != nil {
		return nil, notFound(err, ErrJobNotFound)
	}
	run, err := uc.runs.LatestRun(ctx, jobID)
	if err != nil {
		return nil, notFound(err, ErrRunNotFound)
	}
	return run, nil
}

func notFound(err, sentinel error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return sentinel
	}
	return err
}
