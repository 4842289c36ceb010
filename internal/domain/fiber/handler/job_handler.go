package handler

import (
	"context"

	"github.com/fadilmartias/cv-matcher/internal/dto"
	"github.com/fadilmartias/cv-matcher/internal/model"
	"github.com/fadilmartias/cv-matcher/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type JobService interface {
	Create(ctx context.Context, job *model.JobPosting) error
	Get(ctx context.Context, id uuid.UUID) (*model.JobPosting, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type JobHandler struct {
	jobs JobService
}

func NewJobHandler(jobs JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

func (h *JobHandler) RegisterRoutes(app fiber.Router) {
	app.Post("/jobs", h.Create)
	app.Get("/jobs/:id", h.Get)
	app.Delete("/jobs/:id", h.Delete)
}

func (h *JobHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	job := req.ToModel()
	if err := h.jobs.Create(c.UserContext(), job); err != nil {
		return writeError(c, err, "failed to create job")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "Success create job",
		Data:    dto.NewJobDTO(job),
	})
}

func (h *JobHandler) Get(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	job, err := h.jobs.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err, "failed to get job")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get job",
		Data:    dto.NewJobDTO(job),
	})
}

// Delete removes the job together with its scores and run history.
func (h *JobHandler) Delete(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.jobs.Delete(c.UserContext(), id); err != nil {
		return writeError(c, err, "failed to delete job")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success delete job",
	})
}
