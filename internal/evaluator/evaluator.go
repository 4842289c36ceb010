package evaluator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fadilmartias/cv-matcher/internal/config"
	"github.com/fadilmartias/cv-matcher/internal/logger"
	"github.com/fadilmartias/cv-matcher/internal/service"
	"github.com/fadilmartias/cv-matcher/internal/util"
	"go.uber.org/zap"
)

type Options struct {
	MaxRetries         int
	MaxTimeoutAttempts int
	BaseDelay          time.Duration
	MaxDelay           time.Duration
	RequestTimeout     time.Duration
	CircuitBreakerMax  int
	BreakerCooldown    time.Duration
	MaxLogLength       int
	MaxCVChars         int
}

func OptionsFromConfig(llm *config.LLMConfig, engine *config.EngineConfig) Options {
	return Options{
		MaxRetries:         llm.MaxRetries,
		MaxTimeoutAttempts: llm.MaxTimeoutAttempts,
		BaseDelay:          llm.BaseDelay,
		MaxDelay:           llm.MaxDelay,
		RequestTimeout:     llm.RequestTimeout,
		CircuitBreakerMax:  llm.CircuitBreakerMax,
		BreakerCooldown:    llm.BreakerCooldown,
		MaxLogLength:       llm.MaxLogLength,
		MaxCVChars:         engine.MaxCVChars,
	}
}

// Evaluator turns a (candidate, job) pair into a validated evaluation using a
// text-generation backend.
type Evaluator struct {
	gen    service.Generator
	opts   Options
	logger *zap.Logger

	mu                sync.Mutex
	consecutiveErrors int
	openedAt          time.Time
	probing           bool
	now               func() time.Time
}

func New(gen service.Generator, opts Options, log *zap.Logger) *Evaluator {
	if opts.MaxTimeoutAttempts <= 0 {
		opts.MaxTimeoutAttempts = 1
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	if opts.MaxDelay < opts.BaseDelay {
		opts.MaxDelay = opts.BaseDelay
	}
	return &Evaluator{
		gen:    gen,
		opts:   opts,
		logger: logger.WithCommonFields(log, gen.Name(), gen.Model()),
		now:    time.Now,
	}
}

func (e *Evaluator) Provider() string { return e.gen.Name() }
func (e *Evaluator) Model() string    { return e.gen.Model() }

// Evaluate scores one pair. It returns a *ProviderError when the retry policy
// gives up, or the context error when ctx ends first.
func (e *Evaluator) Evaluate(ctx context.Context, candidate CandidateProfile, job JobProfile) (*StructuredEvaluation, error) {
	ok, trial := e.admit()
	if !ok {
		return nil, &ProviderError{Kind: KindUnavailable, Err: ErrBreakerOpen}
	}
	if trial {
		defer e.endProbe()
	}

	req := service.GenerateRequest{
		System: systemPrompt,
		Prompt: buildPrompt(candidate, job, e.opts.MaxCVChars),
		JSON:   true,
	}
	eval, err := e.run(ctx, req)
	if err != nil {
		var pe *ProviderError
		// Malformed output is a problem with one pair, not with the backend.
		if errors.As(err, &pe) && pe.Kind != KindMalformed {
			e.recordFailure()
		}
		return nil, err
	}
	e.recordSuccess()
	return eval, nil
}

func (e *Evaluator) run(ctx context.Context, req service.GenerateRequest) (*StructuredEvaluation, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.opts.BaseDelay
	bo.MaxInterval = e.opts.MaxDelay
	bo.MaxElapsedTime = 0
	bo.Reset()

	basePrompt := req.Prompt
	var (
		attempts    int
		rateLimited int
		timeouts    int
		corrected   bool
	)

	for {
		attempts++
		raw, err := e.generate(ctx, req)
		if err == nil {
			eval, verr := parseEvaluation(raw)
			if verr == nil {
				eval.Attempts = attempts
				return eval, nil
			}
			err = verr
			e.logger.Debug("provider returned unusable output",
				zap.Int("attempt", attempts),
				zap.String("response_preview", util.TruncateForLog(raw, e.opts.MaxLogLength)),
				zap.Error(verr),
			)
			if corrected {
				return nil, &ProviderError{Kind: KindMalformed, Attempts: attempts, Err: err}
			}
			corrected = true
			req.Prompt = correctivePrompt(basePrompt, verr)
			continue
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		kind := classify(err)
		e.logger.Warn("provider attempt failed",
			zap.Int("attempt", attempts),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)

		switch kind {
		case KindRateLimited:
			rateLimited++
			if rateLimited > e.opts.MaxRetries {
				return nil, &ProviderError{Kind: kind, Attempts: attempts, Err: err}
			}
			if err := sleep(ctx, bo.NextBackOff()); err != nil {
				return nil, err
			}
		case KindTimeout:
			timeouts++
			if timeouts >= e.opts.MaxTimeoutAttempts {
				return nil, &ProviderError{Kind: kind, Attempts: attempts, Err: err}
			}
		case KindMalformed:
			if corrected {
				return nil, &ProviderError{Kind: kind, Attempts: attempts, Err: err}
			}
			corrected = true
			req.Prompt = correctivePrompt(basePrompt, err)
		default:
			return nil, &ProviderError{Kind: KindUnavailable, Attempts: attempts, Err: err}
		}
	}
}

func (e *Evaluator) generate(ctx context.Context, req service.GenerateRequest) (string, error) {
	if e.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.RequestTimeout)
		defer cancel()
	}

	e.logger.Debug("sending evaluation prompt",
		zap.String("prompt_preview", util.TruncateForLog(req.Prompt, e.opts.MaxLogLength)),
	)
	raw, err := e.gen.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	e.logger.Debug("received evaluation response",
		zap.String("response_preview", util.TruncateForLog(raw, e.opts.MaxLogLength)),
	)
	return raw, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Available reports whether the circuit breaker would let a request through.
// After BreakerCooldown an open breaker is half-open: it admits one trial
// request and stays unavailable until that request reports back.
func (e *Evaluator) Available() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.openLocked() {
		return true
	}
	return e.cooledDownLocked() && !e.probing
}

// admit is Available for a request that is about to be sent. When the breaker
// is half-open the caller takes the trial slot and must release it with
// endProbe.
func (e *Evaluator) admit() (ok, trial bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.openLocked() {
		return true, false
	}
	if !e.cooledDownLocked() || e.probing {
		return false, false
	}
	e.probing = true
	e.logger.Info("circuit breaker half-open: sending trial request")
	return true, true
}

func (e *Evaluator) openLocked() bool {
	return e.opts.CircuitBreakerMax > 0 && e.consecutiveErrors >= e.opts.CircuitBreakerMax
}

func (e *Evaluator) cooledDownLocked() bool {
	return e.opts.BreakerCooldown > 0 && e.now().Sub(e.openedAt) >= e.opts.BreakerCooldown
}

func (e *Evaluator) ResetBreaker() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.consecutiveErrors = 0
	e.openedAt = time.Time{}
	e.probing = false
}

func (e *Evaluator) BreakerStatus() (consecutiveErrors int, isOpen bool) {
	open := !e.Available()
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.consecutiveErrors, open
}

func (e *Evaluator) recordSuccess() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.consecutiveErrors = 0
	e.openedAt = time.Time{}
	e.probing = false
}

// recordFailure counts a backend failure. A failed trial re-opens the breaker
// for another cooldown.
func (e *Evaluator) recordFailure() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.consecutiveErrors++
	if e.opts.CircuitBreakerMax > 0 && e.consecutiveErrors >= e.opts.CircuitBreakerMax {
		e.openedAt = e.now()
		e.logger.Warn(fmt.Sprintf("circuit breaker open: too many consecutive errors (%d)", e.consecutiveErrors))
	}
}

// endProbe frees the trial slot without changing the failure count.
func (e *Evaluator) endProbe() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.probing = false
}
