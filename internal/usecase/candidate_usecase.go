package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fadilmartias/cv-matcher/internal/model"
	"github.com/fadilmartias/cv-matcher/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type candidateStore interface {
	CreateCandidate(ctx context.Context, c *model.Candidate) error
	FindCandidateByID(ctx context.Context, id uuid.UUID) (*model.Candidate, error)
	Search(ctx context.Context, q string, page, pageSize int) ([]model.Candidate, int64, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, status model.CandidateStatus, actor string) (bool, error)
	StatusHistory(ctx context.Context, id uuid.UUID) ([]model.StatusChangeRecord, error)
	DeleteCandidate(ctx context.Context, id uuid.UUID) error
}

type CandidateUsecase struct {
	candidates candidateStore
	logger     *zap.Logger
}

func NewCandidateUsecase(candidates candidateStore, logger *zap.Logger) *CandidateUsecase {
	return &CandidateUsecase{candidates: candidates, logger: logger}
}

func (uc *CandidateUsecase) Create(ctx context.Context, c *model.Candidate) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if c.Skills != nil {
		c.Skills = model.NewSkillSet(c.Skills)
	}
	return uc.candidates.CreateCandidate(ctx, c)
}

func (uc *CandidateUsecase) Get(ctx context.Context, id uuid.UUID) (*model.Candidate, error) {
	c, err := uc.candidates.FindCandidateByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCandidateNotFound
	}
	return c, err
}

// Search matches q as a substring of the name or CV text.
func (uc *CandidateUsecase) Search(ctx context.Context, q string, page, pageSize int) ([]model.Candidate, int64, error) {
	return uc.candidates.Search(ctx, strings.TrimSpace(q), page, pageSize)
}

// ChangeStatus reports whether the status actually changed.
func (uc *CandidateUsecase) ChangeStatus(ctx context.Context, id uuid.UUID, status model.CandidateStatus, actor string) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("%w: invalid candidate status %q", ErrInvalidInput, status)
	}
	if strings.TrimSpace(actor) == "" {
		return false, fmt.Errorf("%w: actor is required", ErrInvalidInput)
	}
	changed, err := uc.candidates.ChangeStatus(ctx, id, status, actor)
	if errors.Is(err, repository.ErrNotFound) {
		return false, ErrCandidateNotFound
	}
	return changed, err
}

func (uc *CandidateUsecase) StatusHistory(ctx context.Context, id uuid.UUID) ([]model.StatusChangeRecord, error) {
	if _, err := uc.Get(ctx, id); err != nil {
		return nil, err
	}
	return uc.candidates.StatusHistory(ctx, id)
}

func (uc *CandidateUsecase) Delete(ctx context.Context, id uuid.UUID) error {
	err := uc.candidates.DeleteCandidate(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrCandidateNotFound
	}
	if err == nil {
		uc.logger.Info("candidate deleted", zap.String("candidate_id", id.String()))
	}
	return err
}
