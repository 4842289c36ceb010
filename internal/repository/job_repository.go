package repository

import (
	"context"

	"github.com/fadilmartias/cv-matcher/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db}
}

func (r *JobRepository) CreateJob(ctx context.Context, job *model.JobPosting) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *JobRepository) UpdateJob(ctx context.Context, job *model.JobPosting) error {
	return r.db.WithContext(ctx).Save(job).Error
}

func (r *JobRepository) FindJobByID(ctx context.Context, id uuid.UUID) (*model.JobPosting, error) {
	var j model.JobPosting
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &j, nil
}

func (r *JobRepository) ListJobsByStatus(ctx context.Context, status model.JobStatus) ([]model.JobPosting, error) {
	var jobs []model.JobPosting
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&jobs).Error
	return jobs, err
}

// DeleteJob removes the job together with its scores and analysis runs.
// Candidates are left untouched.
func (r *JobRepository) DeleteJob(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		runs := tx.Model(&model.AnalysisRun{}).Select("id").Where("job_posting_id = ?", id)
		if err := tx.Where("run_id IN (?)", runs).Delete(&model.PairFailure{}).Error; err != nil {
			return err
		}
		if err := tx.Where("job_posting_id = ?", id).Delete(&model.AnalysisRun{}).Error; err != nil {
			return err
		}
		if err := tx.Where("job_posting_id = ?", id).Delete(&model.CandidateJobScore{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.JobPosting{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
