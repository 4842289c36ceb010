package dto

import (
	"time"

	"github.com/fadilmartias/cv-matcher/internal/model"
	"github.com/google/uuid"
)

type CreateCandidateRequest struct {
	FullName          string   `json:"full_name"`
	Email             string   `json:"email"`
	Phone             string   `json:"phone"`
	Location          string   `json:"location"`
	CVReference       *string  `json:"cv_reference"`
	CVText            *string  `json:"cv_text"`
	Skills            []string `json:"skills"`
	YearsOfExperience *int     `json:"years_of_experience"`
	EducationLevel    string   `json:"education_level"`
}

func (r CreateCandidateRequest) ToModel() *model.Candidate {
	return &model.Candidate{
		FullName:          r.FullName,
		Email:             r.Email,
		Phone:             r.Phone,
		Location:          r.Location,
		CVReference:       r.CVReference,
		CVText:            r.CVText,
		Skills:            r.Skills,
		YearsOfExperience: r.YearsOfExperience,
		EducationLevel:    r.EducationLevel,
	}
}

type ChangeStatusRequest struct {
	Status string `json:"status"`
	Actor  string `json:"actor"`
}

// CandidateDTO omits the CV text; Skills is null when not yet extracted.
type CandidateDTO struct {
	ID                uuid.UUID `json:"id"`
	FullName          string    `json:"full_name"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	Location          string    `json:"location"`
	HasCV             bool      `json:"has_cv"`
	Skills            []string  `json:"skills"`
	YearsOfExperience *int      `json:"years_of_experience"`
	EducationLevel    string    `json:"education_level"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func NewCandidateDTO(c *model.Candidate) CandidateDTO {
	return CandidateDTO{
		ID:                c.ID,
		FullName:          c.FullName,
		Email:             c.Email,
		Phone:             c.Phone,
		Location:          c.Location,
		HasCV:             c.HasCVText() || (c.CVReference != nil && *c.CVReference != ""),
		Skills:            c.Skills,
		YearsOfExperience: c.YearsOfExperience,
		EducationLevel:    c.EducationLevel,
		Status:            string(c.Status),
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

func NewCandidateDTOs(cs []model.Candidate) []CandidateDTO {
	out := make([]CandidateDTO, 0, len(cs))
	for i := range cs {
		out = append(out, NewCandidateDTO(&cs[i]))
	}
	return out
}

type StatusChangeDTO struct {
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Actor          string    `json:"actor"`
	CreatedAt      time.Time `json:"created_at"`
}
