package repository

import (
	"context"
	"strings"

	"github.com/fadilmartias/cv-matcher/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CandidateRepository struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) *CandidateRepository {
	return &CandidateRepository{db}
}

func (r *CandidateRepository) CreateCandidate(ctx context.Context, c *model.Candidate) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CandidateRepository) FindCandidateByID(ctx context.Context, id uuid.UUID) (*model.Candidate, error) {
	var c model.Candidate
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// Search matches q as a case-insensitive substring of the candidate name or
// the extracted CV text.
func (r *CandidateRepository) Search(ctx context.Context, q string, page, pageSize int) ([]model.Candidate, int64, error) {
	_, pageSize, offset := normalizePage(page, pageSize)

	query := r.db.WithContext(ctx).Model(&model.Candidate{})
	if q = strings.TrimSpace(q); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		query = query.Where("full_name ILIKE ? OR cv_text ILIKE ?", pattern, pattern)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var candidates []model.Candidate
	err := query.Order("created_at DESC").Limit(pageSize).Offset(offset).Find(&candidates).Error
	return candidates, total, err
}

// ChangeStatus moves the candidate to status and appends an audit record.
// It reports false without writing anything when the status is unchanged.
func (r *CandidateRepository) ChangeStatus(ctx context.Context, id uuid.UUID, status model.CandidateStatus, actor string) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c model.Candidate
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		if c.Status == status {
			return nil
		}
		if err := applyTransition(tx, id, c.Status, status, actor); err != nil {
			return err
		}
		changed = true
		return nil
	})
	return changed, err
}

func (r *CandidateRepository) StatusHistory(ctx context.Context, id uuid.UUID) ([]model.StatusChangeRecord, error) {
	var records []model.StatusChangeRecord
	err := r.db.WithContext(ctx).
		Where("candidate_id = ?", id).
		Order("created_at ASC, id ASC").
		Find(&records).Error
	return records, err
}

// DeleteCandidate removes the candidate, its scores and its audit trail.
func (r *CandidateRepository) DeleteCandidate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("candidate_id = ?", id).Delete(&model.CandidateJobScore{}).Error; err != nil {
			return err
		}
		if err := tx.Where("candidate_id = ?", id).Delete(&model.StatusChangeRecord{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Candidate{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func applyTransition(tx *gorm.DB, id uuid.UUID, from, to model.CandidateStatus, actor string) error {
	if err := tx.Model(&model.Candidate{}).Where("id = ?", id).Update("status", to).Error; err != nil {
		return err
	}
	return tx.Create(&model.StatusChangeRecord{
		CandidateID:    id,
		PreviousStatus: from,
		NewStatus:      to,
		Actor:          actor,
	}).Error
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
