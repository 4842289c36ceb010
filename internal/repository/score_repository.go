package repository

import (
	"context"
	"time"

	"github.com/fadilmartias/cv-matcher/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileBackfill carries candidate fields learned during an evaluation.
// Each one is written only when the stored value is still empty.
type ProfileBackfill struct {
	CVText            *string
	Skills            []string
	YearsOfExperience *int
	EducationLevel    string
	Email             string
	Phone             string
}

// StatusTransition is applied only if the candidate is still in From.
type StatusTransition struct {
	From  model.CandidateStatus
	To    model.CandidateStatus
	Actor string
}

type ScoreWrite struct {
	Score   model.CandidateJobScore
	Profile ProfileBackfill
	Status  *StatusTransition
}

type SaveResult struct {
	StatusChanged bool
}

var scoreUpdateColumns = []string{
	"experience_score",
	"skills_score",
	"education_score",
	"location_score",
	"overall_score",
	"scoring_algorithm_version",
	"low_confidence",
	"score_details",
	"scored_at",
	"updated_at",
}

type ScoreRepository struct {
	db *gorm.DB
}

func NewScoreRepository(db *gorm.DB) *ScoreRepository {
	return &ScoreRepository{db}
}

// SaveEvaluation upserts the pair's score row and applies the profile
// backfill and status transition in one transaction.
func (r *ScoreRepository) SaveEvaluation(ctx context.Context, w ScoreWrite) (SaveResult, error) {
	var result SaveResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c model.Candidate
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&c, "id = ?", w.Score.CandidateID).Error; err != nil {
			return translate(err)
		}

		score := w.Score
		now := time.Now()
		if score.ScoredAt.IsZero() {
			score.ScoredAt = now
		}
		score.UpdatedAt = now
		score.Candidate = nil
		score.JobPosting = nil

		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "candidate_id"}, {Name: "job_posting_id"}},
			DoUpdates: clause.AssignmentColumns(scoreUpdateColumns),
		}).Create(&score).Error; err != nil {
			return err
		}

		if updates := backfillUpdates(&c, w.Profile); len(updates) > 0 {
			if err := tx.Model(&model.Candidate{}).Where("id = ?", c.ID).Updates(updates).Error; err != nil {
				return err
			}
		}

		if t := w.Status; t != nil && t.From != t.To && c.Status == t.From {
			if err := applyTransition(tx, c.ID, t.From, t.To, t.Actor); err != nil {
				return err
			}
			result.StatusChanged = true
		}
		return nil
	})
	return result, err
}

func backfillUpdates(c *model.Candidate, p ProfileBackfill) map[string]any {
	updates := map[string]any{}
	if p.CVText != nil && !c.HasCVText() {
		updates["cv_text"] = *p.CVText
	}
	if p.Skills != nil && !c.SkillsKnown() {
		updates["skills"] = model.NewSkillSet(p.Skills)
	}
	if p.YearsOfExperience != nil && c.YearsOfExperience == nil {
		updates["years_of_experience"] = *p.YearsOfExperience
	}
	if p.EducationLevel != "" && c.EducationLevel == "" {
		updates["education_level"] = p.EducationLevel
	}
	if p.Email != "" && c.Email == "" {
		updates["email"] = p.Email
	}
	if p.Phone != "" && c.Phone == "" {
		updates["phone"] = p.Phone
	}
	return updates
}

func (r *ScoreRepository) Get(ctx context.Context, candidateID, jobID uuid.UUID) (*model.CandidateJobScore, error) {
	var s model.CandidateJobScore
	err := r.db.WithContext(ctx).
		First(&s, "candidate_id = ? AND job_posting_id = ?", candidateID, jobID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// ListByJob returns the job's scores, best first.
func (r *ScoreRepository) ListByJob(ctx context.Context, jobID uuid.UUID, page, pageSize int) ([]model.CandidateJobScore, int64, error) {
	_, pageSize, offset := normalizePage(page, pageSize)

	query := r.db.WithContext(ctx).
		Model(&model.CandidateJobScore{}).
		Where("job_posting_id = ?", jobID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var scores []model.CandidateJobScore
	err := query.Preload("Candidate").
		Order("overall_score DESC, scored_at ASC").
		Limit(pageSize).
		Offset(offset).
		Find(&scores).Error
	return scores, total, err
}

// ListByCandidate returns the candidate's scores across all jobs, best first.
func (r *ScoreRepository) ListByCandidate(ctx context.Context, candidateID uuid.UUID) ([]model.CandidateJobScore, error) {
	var scores []model.CandidateJobScore
	err := r.db.WithContext(ctx).
		Preload("JobPosting").
		Where("candidate_id = ?", candidateID).
		Order("overall_score DESC, scored_at ASC").
		Find(&scores).Error
	return scores, err
}

// PendingCandidates lists candidates without a score of version for the job.
func (r *ScoreRepository) PendingCandidates(ctx context.Context, jobID uuid.UUID, version string) ([]model.Candidate, error) {
	scored := r.db.Model(&model.CandidateJobScore{}).
		Select("1").
		Where("candidate_job_scores.candidate_id = candidates.id").
		Where("candidate_job_scores.job_posting_id = ?", jobID).
		Where("candidate_job_scores.scoring_algorithm_version = ?", version)

	var candidates []model.Candidate
	err := r.db.WithContext(ctx).
		Where("NOT EXISTS (?)", scored).
		Order("created_at ASC").
		Find(&candidates).Error
	return candidates, err
}
