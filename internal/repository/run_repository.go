package repository

import (
	"context"
	"time"

	"github.com/fadilmartias/cv-matcher/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RunRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db}
}

func (r *RunRepository) CreateRun(ctx context.Context, run *model.AnalysisRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// FinishRun stores the final status and counters of a run.
func (r *RunRepository) FinishRun(ctx context.Context, run *model.AnalysisRun) error {
	if run.FinishedAt == nil {
		now := time.Now()
		run.FinishedAt = &now
	}
	return r.db.WithContext(ctx).
		Model(&model.AnalysisRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]any{
			"status":         run.Status,
			"scored":         run.Scored,
			"failed":         run.Failed,
			"low_confidence": run.LowConfidence,
			"error":          run.Error,
			"finished_at":    run.FinishedAt,
		}).Error
}

func (r *RunRepository) RecordFailure(ctx context.Context, f *model.PairFailure) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *RunRepository) LatestRun(ctx context.Context, jobID uuid.UUID) (*model.AnalysisRun, error) {
	var run model.AnalysisRun
	err := r.db.WithContext(ctx).
		Preload("Failures").
		Where("job_posting_id = ?", jobID).
		Order("started_at DESC").
		First(&run).Error
	if err != nil {
		return nil, translate(err)
	}
	return &run, nil
}

// MarkInterrupted closes runs left in running state by a previous process.
func (r *RunRepository) MarkInterrupted(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.AnalysisRun{}).
		Where("status = ?", model.RunStatusRunning).
		Updates(map[string]any{
			"status":      model.RunStatusCancelled,
			"error":       "interrupted by restart",
			"finished_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}
