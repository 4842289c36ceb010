package evaluator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fadilmartias/cv-matcher/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const validResponse = `{
  "overall_score": 82,
  "experience_score": 80,
  "skills_score": 85,
  "education_score": 70,
  "location_score": 90,
  "summary": "Solid backend engineer",
  "positive_signals": ["Go", "PostgreSQL"],
  "risk_signals": [],
  "experience_rationale": "Five years of backend work",
  "match_reasoning": "Strong overlap with requirements",
  "extracted_profile": {"full_name": "Jane Doe", "email": "jane@example.com", "phone": null, "years_of_experience": 5, "education_level": "Bachelor", "skills": ["Go", "SQL"]}
}`

type step struct {
	response string
	err      error
}

type stubGenerator struct {
	mu      sync.Mutex
	steps   []step
	calls   int
	prompts []string
}

func (s *stubGenerator) Generate(_ context.Context, req service.GenerateRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, req.Prompt)
	idx := s.calls
	s.calls++
	if idx >= len(s.steps) {
		idx = len(s.steps) - 1
	}
	return s.steps[idx].response, s.steps[idx].err
}

func (s *stubGenerator) Name() string  { return "stub" }
func (s *stubGenerator) Model() string { return "stub-model" }

func testOptions() Options {
	return Options{
		MaxRetries:         3,
		MaxTimeoutAttempts: 2,
		BaseDelay:          time.Millisecond,
		MaxDelay:           2 * time.Millisecond,
		RequestTimeout:     time.Second,
		CircuitBreakerMax:  2,
		BreakerCooldown:    time.Minute,
		MaxLogLength:       50,
		MaxCVChars:         15000,
	}
}

func newTestEvaluator(steps ...step) (*Evaluator, *stubGenerator) {
	gen := &stubGenerator{steps: steps}
	return New(gen, testOptions(), zap.NewNop()), gen
}

func TestEvaluateSuccess(t *testing.T) {
	ev, gen := newTestEvaluator(step{response: "```json\n" + validResponse + "\n```"})

	got, err := ev.Evaluate(context.Background(), CandidateProfile{FullName: "Jane"}, JobProfile{Title: "Backend Engineer"})
	require.NoError(t, err)

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, 82.0, got.OverallScore)
	assert.Equal(t, 85.0, got.SkillsScore)
	assert.Equal(t, "Solid backend engineer", got.Summary)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, got.PositiveSignals)
	assert.Empty(t, got.RiskSignals)
	assert.NotNil(t, got.RiskSignals)
	assert.Equal(t, "Five years of backend work", got.ExperienceRationale)
	require.NotNil(t, got.Profile)
	assert.Equal(t, "jane@example.com", got.Profile.Email)
	assert.Empty(t, got.Profile.Phone)
	require.NotNil(t, got.Profile.YearsOfExperience)
	assert.Equal(t, 5, *got.Profile.YearsOfExperience)
	assert.Equal(t, []string{"Go", "SQL"}, got.Profile.Skills)
	assert.Equal(t, 1, got.Attempts)
}

func TestEvaluateRetriesRateLimit(t *testing.T) {
	rateLimited := fmt.Errorf("%w: slow down", service.ErrRateLimited)
	ev, gen := newTestEvaluator(
		step{err: rateLimited},
		step{err: rateLimited},
		step{response: validResponse},
	)

	got, err := ev.Evaluate(context.Background(), CandidateProfile{}, JobProfile{})
	require.NoError(t, err)
	assert.Equal(t, 3, gen.calls)
	assert.Equal(t, 3, got.Attempts)
}

func TestEvaluateRateLimitExhausted(t *testing.T) {
	ev, gen := newTestEvaluator(step{err: fmt.Errorf("%w: slow down", service.ErrRateLimited)})

	_, err := ev.Evaluate(context.Background(), CandidateProfile{}, JobProfile{})
	require.Error(t, err)

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindRateLimited, pe.Kind)
	assert.Equal(t, 4, pe.Attempts)
	assert.Equal(t, 4, gen.calls)
}

func TestEvaluateTimeoutAttempts(t *testing.T) {
	ev, gen := newTestEvaluator(step{err: fmt.Errorf("%w: slow", service.ErrTimeout)})

	_, err := ev.Evaluate(context.Background(), CandidateProfile{}, JobProfile{})
	assert.Equal(t, KindTimeout, KindOf(err))
	assert.Equal(t, 2, gen.calls)
}

func TestEvaluateUnavailableFailsFast(t *testing.T) {
	ev, gen := newTestEvaluator(step{err: fmt.Errorf("%w: bad key", service.ErrUnavailable)})

	_, err := ev.Evaluate(context.Background(), CandidateProfile{}, JobProfile{})
	assert.Equal(t, KindUnavailable, KindOf(err))
	assert.Equal(t, 1, gen.calls)
}

func TestEvaluateMalformedReprompt(t *testing.T) {
	ev, gen := newTestEvaluator(
		step{response: "I think the candidate is great"},
		step{response: validResponse},
	)

	got, err := ev.Evaluate(context.Background(), CandidateProfile{}, JobProfile{})
	require.NoError(t, err)
	assert.Equal(t, 82.0, got.OverallScore)
	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[1], "Your previous response could not be used")
	assert.False(t, strings.Contains(gen.prompts[0], "Your previous response"))
}

func TestEvaluateMalformedTwice(t *testing.T) {
	ev, gen := newTestEvaluator(step{response: `{"overall_score": "high"}`})

	_, err := ev.Evaluate(context.Background(), CandidateProfile{}, JobProfile{})
	assert.Equal(t, KindMalformed, KindOf(err))
	assert.Equal(t, 2, gen.calls)
}

func TestEvaluateContextCancelled(t *testing.T) {
	ev, _ := newTestEvaluator(step{err: context.Canceled})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ev.Evaluate(ctx, CandidateProfile{}, JobProfile{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Kind(""), KindOf(err))

	_, open := ev.BreakerStatus()
	assert.False(t, open)
}

func TestCircuitBreaker(t *testing.T) {
	ev, gen := newTestEvaluator(step{err: errors.New("connection refused")})
	now := time.Now()
	ev.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		_, err := ev.Evaluate(context.Background(), CandidateProfile{}, JobProfile{})
		require.Error(t, err)
	}
	assert.False(t, ev.Available())
	count, open := ev.BreakerStatus()
	assert.Equal(t, 2, count)
	assert.True(t, open)

	_, err := ev.Evaluate(context.Background(), CandidateProfile{}, JobProfile{})
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.Equal(t, KindUnavailable, KindOf(err))
	assert.Equal(t, 2, gen.calls)

	now = now.Add(2 * time.Minute)
	assert.True(t, ev.Available())

	ev.ResetBreaker()
	count, open = ev.BreakerStatus()
	assert.Zero(t, count)
	assert.False(t, open)
}

type gatedGenerator struct {
	stubGenerator
	entered chan struct{}
	release chan struct{}
}

func (g *gatedGenerator) Generate(ctx context.Context, req service.GenerateRequest) (string, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.stubGenerator.Generate(ctx, req)
}

func TestCircuitBreakerHalfOpenAdmitsOneTrial(t *testing.T) {
	gen := &gatedGenerator{
		stubGenerator: stubGenerator{steps: []step{{response: validResponse}}},
		entered:       make(chan struct{}, 1),
		release:       make(chan struct{}),
	}
	ev := New(gen, testOptions(), zap.NewNop())
	now := time.Now()
	ev.now = func() time.Time { return now }
	ev.recordFailure()
	ev.recordFailure()
	require.False(t, ev.Available())

	now = now.Add(2 * time.Minute)
	require.True(t, ev.Available())

	trialErr := make(chan error, 1)
	go func() {
		_, err := ev.Evaluate(context.Background(), CandidateProfile{}, JobProfile{})
		trialErr <- err
	}()
	<-gen.entered

	assert.False(t, ev.Available())
	for i := 0; i < 3; i++ {
		_, err := ev.Evaluate(context.Background(), CandidateProfile{}, JobProfile{})
		assert.ErrorIs(t, err, ErrBreakerOpen)
	}

	close(gen.release)
	require.NoError(t, <-trialErr)
	assert.Equal(t, 1, gen.calls)

	count, open := ev.BreakerStatus()
	assert.Zero(t, count)
	assert.False(t, open)
}

func TestCircuitBreakerFailedTrialReopens(t *testing.T) {
	ev, gen := newTestEvaluator(
		step{err: fmt.Errorf("%w: down", service.ErrUnavailable)},
		step{err: fmt.Errorf("%w: down", service.ErrUnavailable)},
		step{err: fmt.Errorf("%w: still down", service.ErrUnavailable)},
		step{response: validResponse},
	)
	now := time.Now()
	ev.now = func() time.Time { return now }
	for i := 0; i < 2; i++ {
		_, err := ev.Evaluate(context.Background(), CandidateProfile{}, JobProfile{})
		require.Error(t, err)
	}

	now = now.Add(2 * time.Minute)
	_, err := ev.Evaluate(context.Background(), CandidateProfile{}, JobProfile{})
	assert.Equal(t, KindUnavailable, KindOf(err))
	assert.NotErrorIs(t, err, ErrBreakerOpen)
	assert.Equal(t, 3, gen.calls)
	assert.False(t, ev.Available())

	now = now.Add(30 * time.Second)
	assert.False(t, ev.Available())

	now = now.Add(time.Minute)
	_, err = ev.Evaluate(context.Background(), CandidateProfile{}, JobProfile{})
	require.NoError(t, err)
	assert.True(t, ev.Available())
}

func TestMalformedOutputDoesNotOpenBreaker(t *testing.T) {
	ev, gen := newTestEvaluator(step{response: "not json at all"})

	for i := 0; i < 5; i++ {
		_, err := ev.Evaluate(context.Background(), CandidateProfile{}, JobProfile{})
		assert.Equal(t, KindMalformed, KindOf(err))
	}
	assert.Equal(t, 10, gen.calls)
	assert.True(t, ev.Available())
	count, open := ev.BreakerStatus()
	assert.Zero(t, count)
	assert.False(t, open)
}

func TestBuildPromptSkills(t *testing.T) {
	unknown := buildPrompt(CandidateProfile{}, JobProfile{}, 100)
	assert.Contains(t, unknown, "Skills: not extracted (infer from CV)")
	assert.Contains(t, unknown, "No CV text is available")

	none := buildPrompt(CandidateProfile{Skills: []string{}}, JobProfile{}, 100)
	assert.Contains(t, none, "Skills: none\n")

	listed := buildPrompt(CandidateProfile{Skills: []string{"Go", "SQL"}, CVText: strings.Repeat("x", 500)}, JobProfile{RequiredSkills: []string{"Go"}}, 100)
	assert.Contains(t, listed, "Skills: Go, SQL")
	assert.Contains(t, listed, "Required skills: Go")
	assert.NotContains(t, listed, strings.Repeat("x", 101))
}
