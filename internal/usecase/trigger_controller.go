package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fadilmartias/cv-matcher/internal/logger"
	"github.com/fadilmartias/cv-matcher/internal/model"
	"github.com/fadilmartias/cv-matcher/internal/repository"
	"github.com/fadilmartias/cv-matcher/internal/scoring"
	"github.com/fadilmartias/cv-matcher/internal/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// recordTimeout bounds run bookkeeping writes made after the run context ended.
const recordTimeout = 5 * time.Second

type jobLookup interface {
	FindJobByID(ctx context.Context, id uuid.UUID) (*model.JobPosting, error)
	ListJobsByStatus(ctx context.Context, status model.JobStatus) ([]model.JobPosting, error)
}

type pendingSelector interface {
	PendingCandidates(ctx context.Context, jobID uuid.UUID, version string) ([]model.Candidate, error)
}

type runRecorder interface {
	CreateRun(ctx context.Context, run *model.AnalysisRun) error
	FinishRun(ctx context.Context, run *model.AnalysisRun) error
	RecordFailure(ctx context.Context, f *model.PairFailure) error
}

type pairScorer interface {
	ScorePair(ctx context.Context, c *model.Candidate, job *model.JobPosting, policy scoring.Policy) (PairOutcome, error)
}

type providerHealth interface {
	Available() bool
}

type AnalyzeRequest struct {
	JobID     uuid.UUID
	Mode      model.TriggerMode
	SessionID string
}

// RunTicket is returned once a run is accepted. Coalesced tickets share the
// run that was already in flight.
type RunTicket struct {
	RunID     uuid.UUID
	JobID     uuid.UUID
	Scheduled int
	Coalesced bool
	Skipped   bool

	run *activeRun
}

type RunSummary struct {
	RunID         uuid.UUID
	JobID         uuid.UUID
	Status        model.RunStatus
	Scheduled     int
	Scored        int
	Failed        int
	LowConfidence int
	Failures      []model.PairFailure
}

type activeRun struct {
	ready   chan struct{}
	done    chan struct{}
	cancel  context.CancelFunc
	ticket  RunTicket
	err     error
	summary RunSummary
}

type ControllerOptions struct {
	Concurrency int
	RunTimeout  time.Duration
}

// Controller selects pending pairs and runs them, at most one run per job at
// a time.
type Controller struct {
	jobs    jobLookup
	pending pendingSelector
	runs    runRecorder
	engine  pairScorer
	health  providerHealth
	marker  session.Marker
	policy  scoring.Policy
	opts    ControllerOptions
	logger  *zap.Logger

	mu      sync.Mutex
	active  map[uuid.UUID]*activeRun
	closed  bool
	wg      sync.WaitGroup
	baseCtx context.Context
	stop    context.CancelFunc
}

func NewController(jobs jobLookup, pending pendingSelector, runs runRecorder, engine pairScorer, health providerHealth, marker session.Marker, policy scoring.Policy, opts ControllerOptions, log *zap.Logger) *Controller {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	baseCtx, stop := context.WithCancel(context.Background())
	return &Controller{
		jobs:    jobs,
		pending: pending,
		runs:    runs,
		engine:  engine,
		health:  health,
		marker:  marker,
		policy:  policy,
		opts:    opts,
		logger:  logger.WithFields(log),
		active:  make(map[uuid.UUID]*activeRun),
		baseCtx: baseCtx,
		stop:    stop,
	}
}

func (c *Controller) Policy() scoring.Policy {
	return c.policy
}

// Analyze schedules analysis of every pending candidate for one job.
func (c *Controller) Analyze(ctx context.Context, req AnalyzeRequest) (RunTicket, error) {
	if req.Mode == "" {
		req.Mode = model.TriggerExplicit
	}

	job, err := c.jobs.FindJobByID(ctx, req.JobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return RunTicket{}, ErrJobNotFound
		}
		return RunTicket{}, fmt.Errorf("find job: %w", err)
	}
	if job.Status != model.JobStatusOpen {
		return RunTicket{}, ErrJobNotAnalyzable
	}
	if !c.health.Available() {
		return RunTicket{}, ErrProviderUnavailable
	}

	if req.Mode == model.TriggerImplicit {
		first, err := c.marker.MarkOnce(ctx, req.SessionID, job.ID)
		if err != nil {
			return RunTicket{}, fmt.Errorf("mark session: %w", err)
		}
		if !first {
			return RunTicket{JobID: job.ID, Skipped: true}, nil
		}
	}

	return c.start(ctx, job, req.Mode)
}

// AnalyzeAll schedules a run for every open job. Jobs that fail to schedule
// are reported in the joined error; the others still run.
func (c *Controller) AnalyzeAll(ctx context.Context) ([]RunTicket, error) {
	if !c.health.Available() {
		return nil, ErrProviderUnavailable
	}
	jobs, err := c.jobs.ListJobsByStatus(ctx, model.JobStatusOpen)
	if err != nil {
		return nil, fmt.Errorf("list open jobs: %w", err)
	}

	tickets := make([]RunTicket, 0, len(jobs))
	var errs []error
	for i := range jobs {
		t, err := c.start(ctx, &jobs[i], model.TriggerGlobal)
		if err != nil {
			c.logger.Error("schedule run", zap.String(logger.FieldJob, jobs[i].ID.String()), zap.Error(err))
			errs = append(errs, fmt.Errorf("job %s: %w", jobs[i].ID, err))
			continue
		}
		tickets = append(tickets, t)
	}
	return tickets, errors.Join(errs...)
}

func (c *Controller) start(ctx context.Context, job *model.JobPosting, mode model.TriggerMode) (RunTicket, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return RunTicket{}, ErrShuttingDown
	}
	if ar, ok := c.active[job.ID]; ok {
		c.mu.Unlock()
		select {
		case <-ar.ready:
		case <-ctx.Done():
			return RunTicket{}, ctx.Err()
		}
		if ar.err != nil {
			return RunTicket{}, ar.err
		}
		t := ar.ticket
		t.Coalesced = true
		c.logger.Debug("analysis coalesced into running run",
			zap.String(logger.FieldRun, t.RunID.String()),
			zap.String(logger.FieldJob, job.ID.String()),
		)
		return t, nil
	}

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if c.opts.RunTimeout > 0 {
		runCtx, cancel = context.WithTimeout(c.baseCtx, c.opts.RunTimeout)
	} else {
		runCtx, cancel = context.WithCancel(c.baseCtx)
	}
	ar := &activeRun{
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	c.active[job.ID] = ar
	c.wg.Add(1)
	c.mu.Unlock()

	candidates, err := c.pending.PendingCandidates(runCtx, job.ID, c.policy.Version)
	if err != nil {
		return c.abortStart(job.ID, ar, fmt.Errorf("select pending candidates: %w", err))
	}

	ar.ticket = RunTicket{JobID: job.ID, Scheduled: len(candidates), run: ar}
	ar.summary = RunSummary{JobID: job.ID, Status: model.RunStatusCompleted, Scheduled: len(candidates)}
	if len(candidates) == 0 {
		close(ar.ready)
		c.finish(job.ID, ar)
		return ar.ticket, nil
	}

	run := &model.AnalysisRun{
		JobPostingID:     job.ID,
		Trigger:          mode,
		Status:           model.RunStatusRunning,
		AlgorithmVersion: c.policy.Version,
		Scheduled:        len(candidates),
		StartedAt:        time.Now(),
	}
	if err := c.runs.CreateRun(runCtx, run); err != nil {
		return c.abortStart(job.ID, ar, fmt.Errorf("create run: %w", err))
	}

	ar.ticket.RunID = run.ID
	ar.summary.RunID = run.ID
	close(ar.ready)

	go c.execute(runCtx, ar, job, run, candidates)
	return ar.ticket, nil
}

func (c *Controller) abortStart(jobID uuid.UUID, ar *activeRun, err error) (RunTicket, error) {
	ar.err = err
	ar.summary.Status = model.RunStatusFailed
	close(ar.ready)
	c.finish(jobID, ar)
	return RunTicket{}, err
}

func (c *Controller) finish(jobID uuid.UUID, ar *activeRun) {
	c.mu.Lock()
	if c.active[jobID] == ar {
		delete(c.active, jobID)
	}
	c.mu.Unlock()
	ar.cancel()
	close(ar.done)
	c.wg.Done()
}

func (c *Controller) execute(ctx context.Context, ar *activeRun, job *model.JobPosting, run *model.AnalysisRun, candidates []model.Candidate) {
	defer c.finish(job.ID, ar)

	log := c.logger.With(
		zap.String(logger.FieldRun, run.ID.String()),
		zap.String(logger.FieldJob, job.ID.String()),
	)
	log.Info("analysis run started",
		zap.String("trigger", string(run.Trigger)),
		zap.String("algorithm_version", run.AlgorithmVersion),
		zap.Int("scheduled", run.Scheduled),
	)

	var (
		mu       sync.Mutex
		failures []model.PairFailure
	)
	tally := func(out PairOutcome) {
		if out.State == PairScored {
			mu.Lock()
			run.Scored++
			if out.LowConfidence {
				run.LowConfidence++
			}
			mu.Unlock()
			return
		}

		f := model.PairFailure{
			RunID:        run.ID,
			CandidateID:  out.CandidateID,
			JobPostingID: out.JobID,
			Reason:       out.Reason,
			Detail:       out.Detail,
		}
		c.recordFailure(ctx, log, &f)
		mu.Lock()
		run.Failed++
		failures = append(failures, f)
		mu.Unlock()
	}
	unresolved := func(cand *model.Candidate, err error) PairOutcome {
		return PairOutcome{
			CandidateID: cand.ID,
			JobID:       job.ID,
			State:       PairFailed,
			Reason:      contextReason(err),
			Detail:      err.Error(),
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i := range candidates {
		cand := &candidates[i]
		if err := gctx.Err(); err != nil {
			tally(unresolved(cand, err))
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				tally(unresolved(cand, err))
				return nil
			}
			out, err := c.engine.ScorePair(gctx, cand, job, c.policy)
			tally(out)
			return err
		})
	}
	runErr := g.Wait()

	switch {
	case runErr != nil:
		run.Status = model.RunStatusFailed
		run.Error = ErrStore.Error()
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		run.Status = model.RunStatusFailed
		run.Error = "run timed out"
	case errors.Is(ctx.Err(), context.Canceled):
		run.Status = model.RunStatusCancelled
		run.Error = "run cancelled"
	default:
		run.Status = model.RunStatusCompleted
	}
	now := time.Now()
	run.FinishedAt = &now

	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := c.runs.FinishRun(finishCtx, run); err != nil {
		log.Error("finish run", zap.Error(err))
	}

	ar.summary = RunSummary{
		RunID:         run.ID,
		JobID:         job.ID,
		Status:        run.Status,
		Scheduled:     run.Scheduled,
		Scored:        run.Scored,
		Failed:        run.Failed,
		LowConfidence: run.LowConfidence,
		Failures:      failures,
	}
	log.Info("analysis run finished",
		zap.String("status", string(run.Status)),
		zap.Int("scored", run.Scored),
		zap.Int("failed", run.Failed),
		zap.Int("low_confidence", run.LowConfidence),
	)
}

func (c *Controller) recordFailure(ctx context.Context, log *zap.Logger, f *model.PairFailure) {
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := c.runs.RecordFailure(recCtx, f); err != nil {
		log.Warn("record pair failure",
			zap.String(logger.FieldCandidate, f.CandidateID.String()),
			zap.String("reason", f.Reason),
			zap.Error(err),
		)
	}
}

// Wait blocks until the ticket's run finishes and returns its summary.
func (c *Controller) Wait(ctx context.Context, t RunTicket) (RunSummary, error) {
	if t.run == nil {
		return RunSummary{JobID: t.JobID, Status: model.RunStatusCompleted}, nil
	}
	select {
	case <-t.run.done:
		return t.run.summary, nil
	case <-ctx.Done():
		return RunSummary{}, ctx.Err()
	}
}

func (c *Controller) Running(jobID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.active[jobID]
	return ok
}

// Cancel stops the job's run, if any, and waits for it to wind down.
func (c *Controller) Cancel(ctx context.Context, jobID uuid.UUID) error {
	c.mu.Lock()
	ar, ok := c.active[jobID]
	c.mu.Unlock()
	if !ok {
		return nil
	}
	ar.cancel()
	select {
	case <-ar.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown cancels every run and waits for them to record their results.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.stop()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
