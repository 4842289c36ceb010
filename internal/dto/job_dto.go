package dto

import (
	"time"

	"github.com/fadilmartias/cv-matcher/internal/model"
	"github.com/google/uuid"
)

type CreateJobRequest struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Requirements       string   `json:"requirements"`
	Location           string   `json:"location"`
	RequiredExperience int      `json:"required_experience"`
	RequiredSkills     []string `json:"required_skills"`
	Status             string   `json:"status"`
}

func (r CreateJobRequest) ToModel() *model.JobPosting {
	return &model.JobPosting{
		Title:              r.Title,
		Description:        r.Description,
		Requirements:       r.Requirements,
		Location:           r.Location,
		RequiredExperience: r.RequiredExperience,
		RequiredSkills:     r.RequiredSkills,
		Status:             model.JobStatus(r.Status),
	}
}

type JobDTO struct {
	ID                 uuid.UUID `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Requirements       string    `json:"requirements"`
	Location           string    `json:"location"`
	RequiredExperience int       `json:"required_experience"`
	RequiredSkills     []string  `json:"required_skills"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func NewJobDTO(j *model.JobPosting) JobDTO {
	skills := []string(j.RequiredSkills)
	if skills == nil {
		skills = []string{}
	}
	return JobDTO{
		ID:                 j.ID,
		Title:              j.Title,
		Description:        j.Description,
		Requirements:       j.Requirements,
		Location:           j.Location,
		RequiredExperience: j.RequiredExperience,
		RequiredSkills:     skills,
		Status:             string(j.Status),
		CreatedAt:          j.CreatedAt,
		UpdatedAt:          j.UpdatedAt,
	}
}
