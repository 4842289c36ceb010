package dto

import (
	"time"

	"github.com/fadilmartias/cv-matcher/internal/model"
	"github.com/google/uuid"
)

type ScoreDTO struct {
	CandidateID             uuid.UUID          `json:"candidate_id"`
	JobPostingID            uuid.UUID          `json:"job_posting_id"`
	CandidateName           string             `json:"candidate_name,omitempty"`
	JobTitle                string             `json:"job_title,omitempty"`
	OverallScore            float64            `json:"overall_score"`
	ExperienceScore         float64            `json:"experience_score"`
	SkillsScore             float64            `json:"skills_score"`
	EducationScore          float64            `json:"education_score"`
	LocationScore           float64            `json:"location_score"`
	ScoringAlgorithmVersion string             `json:"scoring_algorithm_version"`
	LowConfidence           bool               `json:"low_confidence"`
	Details                 model.ScoreDetails `json:"score_details"`
	ScoredAt                time.Time          `json:"scored_at"`
}

func NewScoreDTO(s model.CandidateJobScore) ScoreDTO {
	out := ScoreDTO{
		CandidateID:             s.CandidateID,
		JobPostingID:            s.JobPostingID,
		OverallScore:            s.OverallScore,
		ExperienceScore:         s.ExperienceScore,
		SkillsScore:             s.SkillsScore,
		EducationScore:          s.EducationScore,
		LocationScore:           s.LocationScore,
		ScoringAlgorithmVersion: s.ScoringAlgorithmVersion,
		LowConfidence:           s.LowConfidence,
		Details:                 s.ScoreDetails.Data(),
		ScoredAt:                s.ScoredAt,
	}
	if s.Candidate != nil {
		out.CandidateName = s.Candidate.FullName
	}
	if s.JobPosting != nil {
		out.JobTitle = s.JobPosting.Title
	}
	return out
}

func NewScoreDTOs(scores []model.CandidateJobScore) []ScoreDTO {
	out := make([]ScoreDTO, 0, len(scores))
	for _, s := range scores {
		out = append(out, NewScoreDTO(s))
	}
	return out
}
