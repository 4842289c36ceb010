package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fadilmartias/cv-matcher/internal/evaluator"
	"github.com/fadilmartias/cv-matcher/internal/extractor"
	"github.com/fadilmartias/cv-matcher/internal/logger"
	"github.com/fadilmartias/cv-matcher/internal/model"
	"github.com/fadilmartias/cv-matcher/internal/repository"
	"github.com/fadilmartias/cv-matcher/internal/scoring"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type PairState string

const (
	PairPending    PairState = "pending"
	PairExtracting PairState = "extracting"
	PairEvaluating PairState = "evaluating"
	PairScored     PairState = "scored"
	PairFailed     PairState = "failed"
)

// ScoringEngineActor is recorded on status changes made by the engine.
const ScoringEngineActor = "scoring-engine"

const missingCVRisk = "No CV text was available for this evaluation"

// PairOutcome is the terminal state of one (candidate, job) evaluation.
type PairOutcome struct {
	CandidateID   uuid.UUID
	JobID         uuid.UUID
	State         PairState
	Reason        string
	Detail        string
	OverallScore  float64
	LowConfidence bool
	StatusChanged bool
}

type cvExtractor interface {
	Extract(ctx context.Context, ref string) (string, error)
}

type pairEvaluator interface {
	Evaluate(ctx context.Context, candidate evaluator.CandidateProfile, job evaluator.JobProfile) (*evaluator.StructuredEvaluation, error)
	Provider() string
	Model() string
}

type evaluationWriter interface {
	SaveEvaluation(ctx context.Context, w repository.ScoreWrite) (repository.SaveResult, error)
}

type EngineOptions struct {
	// ShortlistThreshold moves new candidates to to_contact when reached.
	// Zero or less disables the status policy.
	ShortlistThreshold float64
}

type ScoringEngine struct {
	extractor cvExtractor
	evaluator pairEvaluator
	scores    evaluationWriter
	opts      EngineOptions
	logger    *zap.Logger
	now       func() time.Time
}

func NewScoringEngine(ex cvExtractor, ev pairEvaluator, scores evaluationWriter, opts EngineOptions, log *zap.Logger) *ScoringEngine {
	return &ScoringEngine{
		extractor: ex,
		evaluator: ev,
		scores:    scores,
		opts:      opts,
		logger:    logger.WithCommonFields(log, ev.Provider(), ev.Model()),
		now:       time.Now,
	}
}

// ScorePair drives one pair from Pending to Scored or Failed. The returned
// error is non-nil only for store failures, which callers treat as fatal to
// the run.
func (e *ScoringEngine) ScorePair(ctx context.Context, c *model.Candidate, job *model.JobPosting, policy scoring.Policy) (PairOutcome, error) {
	log := e.logger.With(logger.PairFields(c.ID, job.ID)...)
	out := PairOutcome{CandidateID: c.ID, JobID: job.ID, State: PairPending}
	log.Debug("pair state", zap.String("state", string(PairPending)))

	out.State = PairExtracting
	log.Debug("pair state", zap.String("state", string(PairExtracting)))
	input := e.extract(ctx, c, log)
	if input.abortErr != nil {
		return e.fail(log, out, contextReason(input.abortErr), input.abortErr.Error()), nil
	}

	out.State = PairEvaluating
	log.Debug("pair state", zap.String("state", string(PairEvaluating)))
	eval, err := e.evaluator.Evaluate(ctx, candidateProfile(c, input.text), jobProfile(job))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return e.fail(log, out, contextReason(ctxErr), ctxErr.Error()), nil
		}
		detail := string(evaluator.KindOf(err))
		if detail == "" {
			detail = string(evaluator.KindUnavailable)
		}
		log.Warn("evaluation failed", zap.String("kind", detail), zap.Error(err))
		return e.fail(log, out, model.FailureProviderError, detail), nil
	}

	write := e.buildWrite(c, job, policy, eval, input, log)
	res, err := e.scores.SaveEvaluation(ctx, write)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return e.fail(log, out, contextReason(ctxErr), ctxErr.Error()), nil
		}
		if errors.Is(err, repository.ErrNotFound) {
			return e.fail(log, out, model.FailureAborted, "candidate deleted during evaluation"), nil
		}
		log.Error("store evaluation", zap.Error(err))
		return e.fail(log, out, model.FailureStore, "score store failure"), fmt.Errorf("%w: %v", ErrStore, err)
	}

	out.State = PairScored
	out.OverallScore = write.Score.OverallScore
	out.LowConfidence = write.Score.LowConfidence
	out.StatusChanged = res.StatusChanged
	log.Info("pair scored",
		zap.String("state", string(PairScored)),
		zap.Float64("overall_score", out.OverallScore),
		zap.Bool("low_confidence", out.LowConfidence),
		zap.Bool("status_changed", out.StatusChanged),
	)
	return out, nil
}

type extraction struct {
	text     string
	// fresh is set when text came from the extractor and should be stored.
	fresh    bool
	degraded bool
	kind     extractor.Kind
	abortErr error
}

func (e *ScoringEngine) extract(ctx context.Context, c *model.Candidate, log *zap.Logger) extraction {
	if c.HasCVText() {
		return extraction{text: *c.CVText}
	}
	if c.CVReference == nil || *c.CVReference == "" {
		return extraction{degraded: true, kind: extractor.KindMissingDocument}
	}

	text, err := e.extractor.Extract(ctx, *c.CVReference)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return extraction{abortErr: ctxErr}
		}
		kind := extractor.KindOf(err)
		// An untyped context error is a cancellation, not a document problem.
		if kind == "" && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return extraction{abortErr: err}
		}
		log.Warn("cv extraction failed, continuing with degraded input", zap.String("kind", string(kind)), zap.Error(err))
		return extraction{degraded: true, kind: kind}
	}
	if text == "" {
		return extraction{degraded: true}
	}
	return extraction{text: text, fresh: true}
}

func (e *ScoringEngine) buildWrite(c *model.Candidate, job *model.JobPosting, policy scoring.Policy, eval *evaluator.StructuredEvaluation, input extraction, log *zap.Logger) repository.ScoreWrite {
	components := scoring.Components{
		Experience: eval.ExperienceScore,
		Skills:     eval.SkillsScore,
		Education:  eval.EducationScore,
		Location:   eval.LocationScore,
	}
	adjustments := append([]string(nil), eval.Adjustments...)
	risks := append([]string{}, eval.RiskSignals...)
	lowConfidence := false

	quality := model.InputQualityComplete
	if input.degraded {
		quality = model.InputQualityDegraded
	}
	if input.text == "" {
		var capped bool
		components, capped = scoring.CapDegraded(components)
		if capped {
			adjustments = append(adjustments, fmt.Sprintf("cv-derived components capped at %g: no cv text", scoring.DegradedComponentCap))
		}
		if len(risks) == 0 {
			risks = append(risks, missingCVRisk)
		}
		lowConfidence = true
	}

	baseline, deviation, consistent := policy.Check(eval.OverallScore, components)
	if !consistent {
		lowConfidence = true
		log.Warn("overall score deviates from weighted baseline",
			zap.Float64("overall_score", eval.OverallScore),
			zap.Float64("baseline_score", baseline),
			zap.Float64("deviation", deviation),
			zap.Float64("tolerance", policy.Tolerance),
			zap.String("algorithm_version", policy.Version),
		)
	}

	details := model.ScoreDetails{
		Summary:            eval.Summary,
		PositiveSignals:    append([]string{}, eval.PositiveSignals...),
		RiskSignals:        risks,
		ExperienceAnalysis: eval.ExperienceRationale,
		SkillsAnalysis:     eval.SkillsRationale,
		EducationAnalysis:  eval.EducationRationale,
		MatchReasoning:     eval.MatchReasoning,
		InputQuality:       quality,
		ExtractionError:    string(input.kind),
		BaselineScore:      baseline,
		Deviation:          deviation,
		Adjustments:        adjustments,
		Provider:           e.evaluator.Provider(),
		Model:              e.evaluator.Model(),
	}

	w := repository.ScoreWrite{
		Score: model.CandidateJobScore{
			CandidateID:             c.ID,
			JobPostingID:            job.ID,
			ExperienceScore:         components.Experience,
			SkillsScore:             components.Skills,
			EducationScore:          components.Education,
			LocationScore:           components.Location,
			OverallScore:            eval.OverallScore,
			ScoringAlgorithmVersion: policy.Version,
			LowConfidence:           lowConfidence,
			ScoreDetails:            datatypes.NewJSONType(details),
			ScoredAt:                e.now(),
		},
		Profile: profileBackfill(eval.Profile),
	}
	if input.fresh {
		text := input.text
		w.Profile.CVText = &text
	}
	// Low-confidence scores are stored but never move a candidate.
	if !lowConfidence && e.opts.ShortlistThreshold > 0 && eval.OverallScore >= e.opts.ShortlistThreshold {
		w.Status = &repository.StatusTransition{
			From:  model.CandidateStatusNew,
			To:    model.CandidateStatusToContact,
			Actor: ScoringEngineActor,
		}
	}
	return w
}

func (e *ScoringEngine) fail(log *zap.Logger, out PairOutcome, reason, detail string) PairOutcome {
	out.State = PairFailed
	out.Reason = reason
	out.Detail = detail
	log.Info("pair failed", zap.String("state", string(PairFailed)), zap.String("reason", reason), zap.String("detail", detail))
	return out
}

func profileBackfill(p *evaluator.ExtractedProfile) repository.ProfileBackfill {
	if p == nil {
		return repository.ProfileBackfill{}
	}
	return repository.ProfileBackfill{
		Skills:            p.Skills,
		YearsOfExperience: p.YearsOfExperience,
		EducationLevel:    p.EducationLevel,
		Email:             p.Email,
		Phone:             p.Phone,
	}
}

func candidateProfile(c *model.Candidate, cvText string) evaluator.CandidateProfile {
	p := evaluator.CandidateProfile{
		FullName:          c.FullName,
		Location:          c.Location,
		EducationLevel:    c.EducationLevel,
		YearsOfExperience: c.YearsOfExperience,
		CVText:            cvText,
	}
	if c.SkillsKnown() {
		p.Skills = append([]string{}, c.Skills...)
	}
	return p
}

func jobProfile(j *model.JobPosting) evaluator.JobProfile {
	return evaluator.JobProfile{
		Title:              j.Title,
		Description:        j.Description,
		Requirements:       j.Requirements,
		Location:           j.Location,
		RequiredExperience: j.RequiredExperience,
		RequiredSkills:     append([]string{}, j.RequiredSkills...),
	}
}

func contextReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return model.FailureTimeout
	}
	return model.FailureAborted
}
