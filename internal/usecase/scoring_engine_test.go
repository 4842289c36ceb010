package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fadilmartias/cv-matcher/internal/evaluator"
	"github.com/fadilmartias/cv-matcher/internal/extractor"
	"github.com/fadilmartias/cv-matcher/internal/model"
	"github.com/fadilmartias/cv-matcher/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func mustPolicy(t *testing.T, version string) scoring.Policy {
	t.Helper()
	p, err := scoring.Lookup(version)
	require.NoError(t, err)
	return p
}

func newEngine(store *memoryStore, ev *scriptedEvaluator, ex *stubExtractor, log *zap.Logger) *ScoringEngine {
	if ex == nil {
		ex = &stubExtractor{}
	}
	return NewScoringEngine(ex, ev, store, EngineOptions{ShortlistThreshold: 75}, log)
}

func TestScorePairHighScoreShortlists(t *testing.T) {
	store := newMemoryStore()
	job := store.addJob(model.JobStatusOpen)
	cand := store.addCandidate("Jane", strPtr("Go developer, 7 years"))
	ev := newScriptedEvaluator()
	ev.results["Jane"] = evaluation(92, 90, 95, 85, 100)

	out, err := newEngine(store, ev, nil, zap.NewNop()).ScorePair(context.Background(), cand, job, mustPolicy(t, "v1.0"))
	require.NoError(t, err)

	assert.Equal(t, PairScored, out.State)
	assert.Equal(t, 92.0, out.OverallScore)
	assert.False(t, out.LowConfidence)
	assert.True(t, out.StatusChanged)

	sc, ok := store.score(cand.ID, job.ID)
	require.True(t, ok)
	assert.Equal(t, 92.0, sc.OverallScore)
	assert.Equal(t, "v1.0", sc.ScoringAlgorithmVersion)
	details := sc.ScoreDetails.Data()
	assert.Equal(t, model.InputQualityComplete, details.InputQuality)
	assert.Equal(t, "stub", details.Provider)

	got := store.candidate(cand.ID)
	assert.Equal(t, model.CandidateStatusToContact, got.Status)
	require.Len(t, store.history, 1)
	assert.Equal(t, ScoringEngineActor, store.history[0].Actor)
	assert.Equal(t, model.CandidateStatusNew, store.history[0].PreviousStatus)
}

func TestScorePairBelowThresholdKeepsStatus(t *testing.T) {
	store := newMemoryStore()
	job := store.addJob(model.JobStatusOpen)
	cand := store.addCandidate("Joe", strPtr("cv"))
	ev := newScriptedEvaluator()

	out, err := newEngine(store, ev, nil, zap.NewNop()).ScorePair(context.Background(), cand, job, mustPolicy(t, "v1.0"))
	require.NoError(t, err)
	assert.False(t, out.StatusChanged)
	assert.Equal(t, model.CandidateStatusNew, store.candidate(cand.ID).Status)
	assert.Empty(t, store.history)
}

func TestScorePairWithoutCV(t *testing.T) {
	store := newMemoryStore()
	job := store.addJob(model.JobStatusOpen)
	cand := store.addCandidate("NoCV", nil)
	ev := newScriptedEvaluator()
	ev.results["NoCV"] = evaluation(30, 60, 40, 50, 80)

	out, err := newEngine(store, ev, nil, zap.NewNop()).ScorePair(context.Background(), cand, job, mustPolicy(t, "v1.0"))
	require.NoError(t, err)
	assert.Equal(t, PairScored, out.State)
	assert.True(t, out.LowConfidence)

	sc, _ := store.score(cand.ID, job.ID)
	assert.Equal(t, 20.0, sc.ExperienceScore)
	assert.Equal(t, 20.0, sc.SkillsScore)
	assert.Equal(t, 20.0, sc.EducationScore)
	assert.Equal(t, 80.0, sc.LocationScore)
	assert.True(t, sc.LowConfidence)

	details := sc.ScoreDetails.Data()
	assert.Equal(t, model.InputQualityDegraded, details.InputQuality)
	assert.Equal(t, string(extractor.KindMissingDocument), details.ExtractionError)
	assert.Equal(t, []string{missingCVRisk}, details.RiskSignals)
	assert.NotEmpty(t, details.Adjustments)

	require.Len(t, ev.seen, 1)
	assert.Empty(t, ev.seen[0].CVText)
	assert.Nil(t, ev.seen[0].Skills)
}

func TestScorePairExtractsAndBackfills(t *testing.T) {
	store := newMemoryStore()
	job := store.addJob(model.JobStatusOpen)
	cand := store.addCandidate("Ref", nil)
	cand.CVReference = strPtr("cv/ref.pdf")
	ex := &stubExtractor{text: map[string]string{"cv/ref.pdf": "Extracted CV text"}}
	ev := newScriptedEvaluator()
	res := evaluation(70, 70, 70, 70, 70)
	res.Profile = &evaluator.ExtractedProfile{Email: "ref@example.com", YearsOfExperience: intPtr(4), Skills: []string{"Go", "go", "SQL"}}
	ev.results["Ref"] = res

	out, err := newEngine(store, ev, ex, zap.NewNop()).ScorePair(context.Background(), cand, job, mustPolicy(t, "v1.0"))
	require.NoError(t, err)
	assert.Equal(t, PairScored, out.State)

	got := store.candidate(cand.ID)
	require.NotNil(t, got.CVText)
	assert.Equal(t, "Extracted CV text", *got.CVText)
	assert.Equal(t, "ref@example.com", got.Email)
	assert.Equal(t, 4, *got.YearsOfExperience)
	assert.Equal(t, []string{"Go", "SQL"}, []string(got.Skills))
	assert.Equal(t, "Extracted CV text", ev.seen[0].CVText)
}

func TestScorePairExtractionFailureIsDegraded(t *testing.T) {
	store := newMemoryStore()
	job := store.addJob(model.JobStatusOpen)
	cand := store.addCandidate("Broken", nil)
	cand.CVReference = strPtr("cv/broken.pdf")
	ex := &stubExtractor{err: &extractor.Error{Kind: extractor.KindCorruptDocument, Err: errors.New("bad xref")}}

	out, err := newEngine(store, newScriptedEvaluator(), ex, zap.NewNop()).ScorePair(context.Background(), cand, job, mustPolicy(t, "v1.0"))
	require.NoError(t, err)
	assert.Equal(t, PairScored, out.State)

	sc, _ := store.score(cand.ID, job.ID)
	assert.Equal(t, string(extractor.KindCorruptDocument), sc.ScoreDetails.Data().ExtractionError)
	assert.Nil(t, store.candidate(cand.ID).CVText)
}

func TestScorePairLowConfidenceKeepsStatus(t *testing.T) {
	testCases := []struct {
		name   string
		cvText *string
		result evaluator.StructuredEvaluation
	}{
		{name: "no cv", cvText: nil, result: evaluation(90, 95, 95, 95, 90)},
		{name: "inconsistent overall", cvText: strPtr("cv"), result: evaluation(95, 40, 40, 40, 40)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemoryStore()
			job := store.addJob(model.JobStatusOpen)
			cand := store.addCandidate("Unsure", tc.cvText)
			ev := newScriptedEvaluator()
			ev.results["Unsure"] = tc.result

			out, err := newEngine(store, ev, nil, zap.NewNop()).ScorePair(context.Background(), cand, job, mustPolicy(t, "v1.0"))
			require.NoError(t, err)
			assert.Equal(t, PairScored, out.State)
			assert.True(t, out.LowConfidence)
			assert.False(t, out.StatusChanged)
			assert.Equal(t, model.CandidateStatusNew, store.candidate(cand.ID).Status)
			assert.Empty(t, store.history)
		})
	}
}

func TestScorePairExtractorCancellationAborts(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		reason string
	}{
		{name: "cancelled", err: context.Canceled, reason: model.FailureAborted},
		{name: "deadline", err: fmt.Errorf("fetch: %w", context.DeadlineExceeded), reason: model.FailureTimeout},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemoryStore()
			job := store.addJob(model.JobStatusOpen)
			cand := store.addCandidate("Shared", nil)
			cand.CVReference = strPtr("cv/shared.pdf")
			ev := newScriptedEvaluator()

			out, err := newEngine(store, ev, &stubExtractor{err: tc.err}, zap.NewNop()).ScorePair(context.Background(), cand, job, mustPolicy(t, "v1.0"))
			require.NoError(t, err)
			assert.Equal(t, PairFailed, out.State)
			assert.Equal(t, tc.reason, out.Reason)
			assert.Zero(t, ev.calls.Load())
			assert.Zero(t, store.scoreCount())
		})
	}
}

func TestScorePairProviderFailureWritesNothing(t *testing.T) {
	store := newMemoryStore()
	job := store.addJob(model.JobStatusOpen)
	cand := store.addCandidate("Flaky", strPtr("cv"))
	ev := newScriptedEvaluator()
	ev.failFor["Flaky"] = &evaluator.ProviderError{Kind: evaluator.KindMalformed, Attempts: 2, Err: errors.New("bad json")}

	out, err := newEngine(store, ev, nil, zap.NewNop()).ScorePair(context.Background(), cand, job, mustPolicy(t, "v1.0"))
	require.NoError(t, err)
	assert.Equal(t, PairFailed, out.State)
	assert.Equal(t, model.FailureProviderError, out.Reason)
	assert.Equal(t, string(evaluator.KindMalformed), out.Detail)
	assert.Zero(t, store.writes)
	assert.Zero(t, store.scoreCount())
	assert.Equal(t, model.CandidateStatusNew, store.candidate(cand.ID).Status)
}

func TestScorePairDeviationLogsLowConfidence(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	store := newMemoryStore()
	job := store.addJob(model.JobStatusOpen)
	cand := store.addCandidate("Odd", strPtr("cv"))
	ev := newScriptedEvaluator()
	ev.results["Odd"] = evaluation(95, 40, 40, 40, 40)

	out, err := newEngine(store, ev, nil, zap.New(core)).ScorePair(context.Background(), cand, job, mustPolicy(t, "v1.0"))
	require.NoError(t, err)
	assert.Equal(t, PairScored, out.State)
	assert.True(t, out.LowConfidence)

	sc, _ := store.score(cand.ID, job.ID)
	assert.Equal(t, 95.0, sc.OverallScore)
	assert.Equal(t, 55.0, sc.ScoreDetails.Data().Deviation)

	entries := logs.FilterMessage("overall score deviates from weighted baseline").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "stub", entries[0].ContextMap()["ai_provider"])
}

func TestScorePairStoreFailure(t *testing.T) {
	store := newMemoryStore()
	job := store.addJob(model.JobStatusOpen)
	cand := store.addCandidate("Jane", strPtr("cv"))
	store.saveErr = fmt.Errorf("connection reset")

	out, err := newEngine(store, newScriptedEvaluator(), nil, zap.NewNop()).ScorePair(context.Background(), cand, job, mustPolicy(t, "v1.0"))
	assert.ErrorIs(t, err, ErrStore)
	assert.Equal(t, PairFailed, out.State)
	assert.Equal(t, model.FailureStore, out.Reason)
}

func TestScorePairCandidateDeleted(t *testing.T) {
	store := newMemoryStore()
	job := store.addJob(model.JobStatusOpen)
	cand := store.addCandidate("Gone", strPtr("cv"))
	delete(store.candidates, cand.ID)

	out, err := newEngine(store, newScriptedEvaluator(), nil, zap.NewNop()).ScorePair(context.Background(), cand, job, mustPolicy(t, "v1.0"))
	require.NoError(t, err)
	assert.Equal(t, PairFailed, out.State)
	assert.Equal(t, model.FailureAborted, out.Reason)
}

func TestScorePairIsIdempotent(t *testing.T) {
	store := newMemoryStore()
	job := store.addJob(model.JobStatusOpen)
	cand := store.addCandidate("Jane", strPtr("cv"))
	ev := newScriptedEvaluator()
	engine := newEngine(store, ev, nil, zap.NewNop())
	policy := mustPolicy(t, "v1.0")

	_, err := engine.ScorePair(context.Background(), cand, job, policy)
	require.NoError(t, err)
	first, _ := store.score(cand.ID, job.ID)

	_, err = engine.ScorePair(context.Background(), cand, job, policy)
	require.NoError(t, err)
	second, _ := store.score(cand.ID, job.ID)

	assert.Equal(t, 1, store.scoreCount())
	assert.Equal(t, first.OverallScore, second.OverallScore)
	assert.Equal(t, first.ScoreDetails.Data(), second.ScoreDetails.Data())
}
