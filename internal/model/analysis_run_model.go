package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TriggerMode string

const (
	TriggerExplicit TriggerMode = "explicit"
	TriggerImplicit TriggerMode = "implicit"
	TriggerGlobal   TriggerMode = "global"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Failure reasons recorded per pair.
const (
	FailureProviderError = "provider-error"
	FailureTimeout       = "timeout"
	FailureAborted       = "aborted"
	FailureStore         = "store"
)

type AnalysisRun struct {
	ID               uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	JobPostingID     uuid.UUID   `gorm:"type:uuid;not null;index" json:"job_posting_id"`
	Trigger          TriggerMode `gorm:"type:varchar(20);not null" json:"trigger"`
	Status           RunStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	AlgorithmVersion string      `gorm:"type:varchar(32);not null" json:"algorithm_version"`
	Scheduled        int         `json:"scheduled"`
	Scored           int         `json:"scored"`
	Failed           int         `json:"failed"`
	LowConfidence    int         `json:"low_confidence"`
	Error            string      `gorm:"type:text" json:"error,omitempty"`
	StartedAt        time.Time   `json:"started_at"`
	FinishedAt       *time.Time  `json:"finished_at,omitempty"`

	Failures   []PairFailure `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"failures,omitempty"`
	JobPosting *JobPosting   `gorm:"foreignKey:JobPostingID;constraint:OnDelete:CASCADE" json:"-"`
}

func (r *AnalysisRun) TableName() string {
	return "analysis_runs"
}

func (r *AnalysisRun) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// PairFailure records why a pair ended in Failed during a run.
type PairFailure struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID        uuid.UUID `gorm:"type:uuid;not null;index" json:"run_id"`
	CandidateID  uuid.UUID `gorm:"type:uuid;not null;index" json:"candidate_id"`
	JobPostingID uuid.UUID `gorm:"type:uuid;not null" json:"job_posting_id"`
	Reason       string    `gorm:"type:varchar(32);not null" json:"reason"`
	Detail       string    `gorm:"type:text" json:"detail,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (f *PairFailure) TableName() string {
	return "pair_failures"
}

// Models lists every table for AutoMigrate in dependency order.
func Models() []any {
	return []any{
		&JobPosting{},
		&Candidate{},
		&CandidateJobScore{},
		&StatusChangeRecord{},
		&AnalysisRun{},
		&PairFailure{},
	}
}
