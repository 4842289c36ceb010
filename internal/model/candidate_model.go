package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type CandidateStatus string

const (
	CandidateStatusNew         CandidateStatus = "new"
	CandidateStatusToContact   CandidateStatus = "to_contact"
	CandidateStatusContacted   CandidateStatus = "contacted"
	CandidateStatusInterviewed CandidateStatus = "interviewed"
	CandidateStatusRejected    CandidateStatus = "rejected"
	CandidateStatusHired       CandidateStatus = "hired"
)

func (s CandidateStatus) Valid() bool {
	switch s {
	case CandidateStatusNew, CandidateStatusToContact, CandidateStatusContacted,
		CandidateStatusInterviewed, CandidateStatusRejected, CandidateStatusHired:
		return true
	}
	return false
}

// Candidate is not bound to a job; its relation to job postings lives only in
// CandidateJobScore rows.
//
// Skills is NULL until an evaluation or a recruiter fills it. An empty,
// non-NULL array means the candidate explicitly has no listed skills.
type Candidate struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FullName          string          `gorm:"type:varchar(255);not null;index" json:"full_name"`
	Email             string          `gorm:"type:varchar(255)" json:"email"`
	Phone             string          `gorm:"type:varchar(64)" json:"phone"`
	Location          string          `gorm:"type:varchar(255)" json:"location"`
	CVReference       *string         `gorm:"type:text" json:"cv_reference,omitempty"`
	CVText            *string         `gorm:"type:text" json:"cv_text,omitempty"`
	Skills            pq.StringArray  `gorm:"type:text[]" json:"skills"`
	YearsOfExperience *int            `json:"years_of_experience,omitempty"`
	EducationLevel    string          `gorm:"type:varchar(64)" json:"education_level"`
	Status            CandidateStatus `gorm:"type:varchar(20);not null;default:'new';index" json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (c *Candidate) TableName() string {
	return "candidates"
}

func (c *Candidate) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = CandidateStatusNew
	}
	return nil
}

func (c *Candidate) Validate() error {
	if strings.TrimSpace(c.FullName) == "" {
		return errors.New("full_name is required")
	}
	if c.Status != "" && !c.Status.Valid() {
		return errors.New("invalid candidate status")
	}
	if c.YearsOfExperience != nil && *c.YearsOfExperience < 0 {
		return errors.New("years_of_experience must be >= 0")
	}
	return nil
}

// HasCVText reports whether extracted CV text is already stored.
func (c *Candidate) HasCVText() bool {
	return c.CVText != nil && strings.TrimSpace(*c.CVText) != ""
}

// SkillsKnown distinguishes "not extracted yet" from an explicit empty set.
func (c *Candidate) SkillsKnown() bool {
	return c.Skills != nil
}

// NewSkillSet trims, de-duplicates (case-insensitively) and keeps order.
// The result is never nil, so it always stores as an explicit set.
func NewSkillSet(skills []string) pq.StringArray {
	seen := make(map[string]struct{}, len(skills))
	out := make(pq.StringArray, 0, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
