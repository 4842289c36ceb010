package dto

import (
	"time"

	"github.com/fadilmartias/cv-matcher/internal/model"
	"github.com/google/uuid"
)

type AnalyzeRequest struct {
	JobID string `json:"job_id"`
}

type RunTicketDTO struct {
	RunID     *uuid.UUID `json:"run_id"`
	JobID     uuid.UUID  `json:"job_id"`
	Scheduled int        `json:"scheduled"`
	Coalesced bool       `json:"coalesced"`
	Skipped   bool       `json:"skipped,omitempty"`
}

// PairFailureDTO carries the failure kind in Detail, never raw provider output.
type PairFailureDTO struct {
	CandidateID uuid.UUID `json:"candidate_id"`
	Reason      string    `json:"reason"`
	Detail      string    `json:"detail,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type RunDTO struct {
	ID               uuid.UUID        `json:"id"`
	JobPostingID     uuid.UUID        `json:"job_posting_id"`
	Trigger          string           `json:"trigger"`
	Status           string           `json:"status"`
	AlgorithmVersion string           `json:"algorithm_version"`
	Scheduled        int              `json:"scheduled"`
	Scored           int              `json:"scored"`
	Failed           int              `json:"failed"`
	LowConfidence    int              `json:"low_confidence"`
	Error            string           `json:"error,omitempty"`
	StartedAt        time.Time        `json:"started_at"`
	FinishedAt       *time.Time       `json:"finished_at,omitempty"`
	Failures         []PairFailureDTO `json:"failures"`
}

func NewRunDTO(r *model.AnalysisRun) RunDTO {
	out := RunDTO{
		ID:               r.ID,
		JobPostingID:     r.JobPostingID,
		Trigger:          string(r.Trigger),
		Status:           string(r.Status),
		AlgorithmVersion: r.AlgorithmVersion,
		Scheduled:        r.Scheduled,
		Scored:           r.Scored,
		Failed:           r.Failed,
		LowConfidence:    r.LowConfidence,
		Error:            r.Error,
		StartedAt:        r.StartedAt,
		FinishedAt:       r.FinishedAt,
		Failures:         make([]PairFailureDTO, 0, len(r.Failures)),
	}
	for _, f := range r.Failures {
		out.Failures = append(out.Failures, PairFailureDTO{
			CandidateID: f.CandidateID,
			Reason:      f.Reason,
			Detail:      f.Detail,
			CreatedAt:   f.CreatedAt,
		})
	}
	return out
}
