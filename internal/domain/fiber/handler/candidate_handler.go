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

type CandidateService interface {
	Create(ctx context.Context, c *model.Candidate) error
	Get(ctx context.Context, id uuid.UUID) (*model.Candidate, error)
	Search(ctx context.Context, q string, page, pageSize int) ([]model.Candidate, int64, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, status model.CandidateStatus, actor string) (bool, error)
	StatusHistory(ctx context.Context, id uuid.UUID) ([]model.StatusChangeRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CandidateHandler struct {
	candidates CandidateService
}

func NewCandidateHandler(candidates CandidateService) *CandidateHandler {
	return &CandidateHandler{candidates: candidates}
}

func (h *CandidateHandler) RegisterRoutes(app fiber.Router) {
	app.Post("/candidates", h.Create)
	app.Get("/candidates", h.Search)
	app.Get("/candidates/:id", h.Get)
	app.Delete("/candidates/:id", h.Delete)
	app.Patch("/candidates/:id/status", h.ChangeStatus)
	app.Get("/candidates/:id/status-history", h.StatusHistory)
}

func (h *CandidateHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateCandidateRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	cand := req.ToModel()
	if err := h.candidates.Create(c.UserContext(), cand); err != nil {
		return writeError(c, err, "failed to create candidate")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "Success create candidate",
		Data:    dto.NewCandidateDTO(cand),
	})
}

// Search does a substring match over name and CV text.
func (h *CandidateHandler) Search(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 20)
	cands, total, err := h.candidates.Search(c.UserContext(), c.Query("q"), page, pageSize)
	if err != nil {
		return writeError(c, err, "failed to search candidates")
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message:    "Success search candidates",
		Data:       dto.NewCandidateDTOs(cands),
		Pagination: response.NewPagination(page, pageSize, total, len(cands)),
	})
}

func (h *CandidateHandler) Get(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	cand, err := h.candidates.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err, "failed to get candidate")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get candidate",
		Data:    dto.NewCandidateDTO(cand),
	})
}

func (h *CandidateHandler) Delete(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.candidates.Delete(c.UserContext(), id); err != nil {
		return writeError(c, err, "failed to delete candidate")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success delete candidate",
	})
}

func (h *CandidateHandler) ChangeStatus(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	changed, err := h.candidates.ChangeStatus(c.UserContext(), id, model.CandidateStatus(req.Status), req.Actor)
	if err != nil {
		return writeError(c, err, "failed to change candidate status")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success change candidate status",
		Data:    fiber.Map{"id": id, "status": req.Status, "changed": changed},
	})
}

func (h *CandidateHandler) StatusHistory(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	records, err := h.candidates.StatusHistory(c.UserContext(), id)
	if err != nil {
		return writeError(c, err, "failed to get status history")
	}
	data := make([]dto.StatusChangeDTO, 0, len(records))
	for _, r := range records {
		data = append(data, dto.StatusChangeDTO{
			PreviousStatus: string(r.PreviousStatus),
			NewStatus:      string(r.NewStatus),
			Actor:          r.Actor,
			CreatedAt:      r.CreatedAt,
		})
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get status history",
		Data:    data,
	})
}
