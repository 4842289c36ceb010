package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	InputQualityComplete = "complete"
	InputQualityDegraded = "degraded"
)

// ScoreDetails is the qualitative part of an evaluation, stored as jsonb.
type ScoreDetails struct {
	Summary            string   `json:"summary"`
	PositiveSignals    []string `json:"positive_signals"`
	RiskSignals        []string `json:"risk_signals"`
	ExperienceAnalysis string   `json:"experience_analysis,omitempty"`
	SkillsAnalysis     string   `json:"skills_analysis,omitempty"`
	EducationAnalysis  string   `json:"education_analysis,omitempty"`
	MatchReasoning     string   `json:"match_reasoning,omitempty"`
	InputQuality       string   `json:"input_quality"`
	ExtractionError    string   `json:"extraction_error,omitempty"`
	BaselineScore      float64  `json:"baseline_score"`
	Deviation          float64  `json:"deviation"`
	Adjustments        []string `json:"adjustments,omitempty"`
	Provider           string   `json:"provider,omitempty"`
	Model              string   `json:"model,omitempty"`
}

// CandidateJobScore is keyed by the (candidate, job) pair: one row per pair,
// replaced on re-evaluation.
type CandidateJobScore struct {
	CandidateID             uuid.UUID                        `gorm:"type:uuid;primaryKey" json:"candidate_id"`
	JobPostingID            uuid.UUID                        `gorm:"type:uuid;primaryKey;index" json:"job_posting_id"`
	ExperienceScore         float64                          `gorm:"not null;check:experience_score BETWEEN 0 AND 100" json:"experience_score"`
	SkillsScore             float64                          `gorm:"not null;check:skills_score BETWEEN 0 AND 100" json:"skills_score"`
	EducationScore          float64                          `gorm:"not null;check:education_score BETWEEN 0 AND 100" json:"education_score"`
	LocationScore           float64                          `gorm:"not null;check:location_score BETWEEN 0 AND 100" json:"location_score"`
	OverallScore            float64                          `gorm:"not null;index;check:overall_score BETWEEN 0 AND 100" json:"overall_score"`
	ScoringAlgorithmVersion string                           `gorm:"type:varchar(32);not null;index" json:"scoring_algorithm_version"`
	LowConfidence           bool                             `gorm:"not null;default:false" json:"low_confidence"`
	ScoreDetails            datatypes.JSONType[ScoreDetails] `json:"score_details"`
	ScoredAt                time.Time                        `json:"scored_at"`
	CreatedAt               time.Time                        `json:"created_at"`
	UpdatedAt               time.Time                        `json:"updated_at"`

	Candidate  *Candidate  `gorm:"foreignKey:CandidateID;constraint:OnDelete:CASCADE" json:"-"`
	JobPosting *JobPosting `gorm:"foreignKey:JobPostingID;constraint:OnDelete:CASCADE" json:"-"`
}

func (s *CandidateJobScore) TableName() string {
	return "candidate_job_scores"
}
