package model

import (
	"time"

	"github.com/google/uuid"
)

// StatusChangeRecord is write-once; rows only disappear with their candidate.
type StatusChangeRecord struct {
	ID             uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	CandidateID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"candidate_id"`
	PreviousStatus CandidateStatus `gorm:"type:varchar(20);not null" json:"previous_status"`
	NewStatus      CandidateStatus `gorm:"type:varchar(20);not null" json:"new_status"`
	Actor          string          `gorm:"type:varchar(255);not null" json:"actor"`
	CreatedAt      time.Time       `json:"created_at"`

	Candidate *Candidate `gorm:"foreignKey:CandidateID;constraint:OnDelete:CASCADE" json:"-"`
}

func (r *StatusChangeRecord) TableName() string {
	return "status_change_records"
}
