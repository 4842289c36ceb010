package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type JobStatus string

const (
	JobStatusDraft  JobStatus = "draft"
	JobStatusOpen   JobStatus = "open"
	JobStatusClosed JobStatus = "closed"
	JobStatusFilled JobStatus = "filled"
)

func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusDraft, JobStatusOpen, JobStatusClosed, JobStatusFilled:
		return true
	}
	return false
}

type JobPosting struct {
	ID                 uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title              string         `gorm:"type:varchar(255);not null" json:"title"`
	Description        string         `gorm:"type:text" json:"description"`
	Requirements       string         `gorm:"type:text" json:"requirements"`
	Location           string         `gorm:"type:varchar(255)" json:"location"`
	RequiredExperience int            `gorm:"not null;default:0;check:required_experience >= 0" json:"required_experience"`
	RequiredSkills     pq.StringArray `gorm:"type:text[]" json:"required_skills"`
	Status             JobStatus      `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

func (j *JobPosting) TableName() string {
	return "job_postings"
}

func (j *JobPosting) BeforeCreate(_ *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.Status == "" {
		j.Status = JobStatusDraft
	}
	return nil
}

func (j *JobPosting) Validate() error {
	if strings.TrimSpace(j.Title) == "" {
		return errors.New("title is required")
	}
	if j.RequiredExperience < 0 {
		return errors.New("required_experience must be >= 0")
	}
	if j.Status != "" && !j.Status.Valid() {
		return errors.New("status must be one of draft, open, closed, filled")
	}
	return nil
}
