package handler

import (
	"context"
	"strings"
	"time"

	"github.com/fadilmartias/cv-matcher/internal/dto"
	"github.com/fadilmartias/cv-matcher/internal/middleware"
	"github.com/fadilmartias/cv-matcher/internal/model"
	"github.com/fadilmartias/cv-matcher/internal/usecase"
	"github.com/fadilmartias/cv-matcher/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Analyzer interface {
	Analyze(ctx context.Context, req usecase.AnalyzeRequest) (usecase.RunTicket, error)
	AnalyzeAll(ctx context.Context) ([]usecase.RunTicket, error)
}

type AnalyzeHandler struct {
	analyzer   Analyzer
	sessionTTL time.Duration
	logger     *zap.Logger
}

func NewAnalyzeHandler(analyzer Analyzer, sessionTTL time.Duration, logger *zap.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{analyzer: analyzer, sessionTTL: sessionTTL, logger: logger}
}

func (h *AnalyzeHandler) RegisterRoutes(app fiber.Router) {
	app.Post("/analyze", middleware.RateLimiter(10, time.Minute), h.Analyze)
	app.Post("/jobs/:id/candidates/view", middleware.SessionID(h.sessionTTL), h.View)
}

// Analyze starts an explicit run for one job, or for every open job when no
// job_id is given.
func (h *AnalyzeHandler) Analyze(c *fiber.Ctx) error {
	var req dto.AnalyzeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badBody(c, err)
		}
	}

	if strings.TrimSpace(req.JobID) == "" {
		tickets, err := h.analyzer.AnalyzeAll(c.UserContext())
		if err != nil && len(tickets) == 0 {
			return writeError(c, err, "failed to start analysis")
		}
		if err != nil {
			h.logger.Warn("some jobs could not be scheduled", zap.Error(err))
		}
		data := make([]dto.RunTicketDTO, 0, len(tickets))
		for _, t := range tickets {
			data = append(data, ticketDTO(t))
		}
		return util.SuccessResponse(c, util.SuccessResponseFormat{
			Code:    fiber.StatusAccepted,
			Message: "Analysis scheduled for open jobs",
			Data:    data,
		})
	}

	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid job_id",
		})
	}

	ticket, err := h.analyzer.Analyze(c.UserContext(), usecase.AnalyzeRequest{JobID: jobID, Mode: model.TriggerExplicit})
	if err != nil {
		return writeError(c, err, "failed to start analysis")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusAccepted,
		Message: "Analysis scheduled",
		Data:    ticketDTO(ticket),
	})
}

// View is called when a recruiter opens a job's candidate list. It triggers
// analysis at most once per session and never fails the caller.
func (h *AnalyzeHandler) View(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.SendStatus(fiber.StatusNoContent)
	}

	ticket, err := h.analyzer.Analyze(c.UserContext(), usecase.AnalyzeRequest{
		JobID:     jobID,
		Mode:      model.TriggerImplicit,
		SessionID: middleware.GetSessionID(c),
	})
	if err != nil {
		h.logger.Info("implicit analysis not started", zap.String("job_id", jobID.String()), zap.Error(err))
		return c.SendStatus(fiber.StatusNoContent)
	}
	if ticket.Skipped {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusAccepted,
		Message: "Analysis scheduled",
		Data:    ticketDTO(ticket),
	})
}

func ticketDTO(t usecase.RunTicket) dto.RunTicketDTO {
	out := dto.RunTicketDTO{
		JobID:     t.JobID,
		Scheduled: t.Scheduled,
		Coalesced: t.Coalesced,
		Skipped:   t.Skipped,
	}
	if t.RunID != uuid.Nil {
		id := t.RunID
		out.RunID = &id
	}
	return out
}
