package handler

import (
	"context"

	"github.com/fadilmartias/cv-matcher/internal/dto"
	"github.com/fadilmartias/cv-matcher/internal/model"
	"github.com/fadilmartias/cv-matcher/internal/response"
	"github.com/fadilmartias/cv-matcher/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ScoreReader interface {
	ListByJob(ctx context.Context, jobID uuid.UUID, page, pageSize int) ([]model.CandidateJobScore, int64, error)
	ListByCandidate(ctx context.Context, candidateID uuid.UUID) ([]model.CandidateJobScore, error)
	Get(ctx context.Context, candidateID, jobID uuid.UUID) (*model.CandidateJobScore, error)
	LatestRun(ctx context.Context, jobID uuid.UUID) (*model.AnalysisRun, error)
}

type ScoreHandler struct {
	scores ScoreReader
}

func NewScoreHandler(scores ScoreReader) *ScoreHandler {
	return &ScoreHandler{scores: scores}
}

func (h *ScoreHandler) RegisterRoutes(app fiber.Router) {
	app.Get("/jobs/:id/scores", h.ListByJob)
	app.Get("/jobs/:id/runs/latest", h.LatestRun)
	app.Get("/candidates/:id/scores", h.ListByCandidate)
	app.Get("/scores/:candidate_id/:job_id", h.Get)
}

func (h *ScoreHandler) ListByJob(c *fiber.Ctx) error {
	jobID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 20)

	scores, total, err := h.scores.ListByJob(c.UserContext(), jobID, page, pageSize)
	if err != nil {
		return writeError(c, err, "failed to list scores")
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message:    "Success get job scores",
		Data:       dto.NewScoreDTOs(scores),
		Pagination: response.NewPagination(page, pageSize, total, len(scores)),
	})
}

func (h *ScoreHandler) ListByCandidate(c *fiber.Ctx) error {
	candidateID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	scores, err := h.scores.ListByCandidate(c.UserContext(), candidateID)
	if err != nil {
		return writeError(c, err, "failed to list scores")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get candidate scores",
		Data:    dto.NewScoreDTOs(scores),
	})
}

func (h *ScoreHandler) Get(c *fiber.Ctx) error {
	candidateID, err := parseUUIDParam(c, "candidate_id")
	if err != nil {
		return err
	}
	jobID, err := parseUUIDParam(c, "job_id")
	if err != nil {
		return err
	}
	score, err := h.scores.Get(c.UserContext(), candidateID, jobID)
	if err != nil {
		return writeError(c, err, "failed to get score")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get score",
		Data:    dto.NewScoreDTO(*score),
	})
}

func (h *ScoreHandler) LatestRun(c *fiber.Ctx) error {
	jobID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	run, err := h.scores.LatestRun(c.UserContext(), jobID)
	if err != nil {
		return writeError(c, err, "failed to get analysis run")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get latest analysis run",
		Data:    dto.NewRunDTO(run),
	})
}
