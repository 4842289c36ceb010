package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/fadilmartias/cv-matcher/internal/evaluator"
	"github.com/fadilmartias/cv-matcher/internal/model"
	"github.com/fadilmartias/cv-matcher/internal/repository"
	"github.com/google/uuid"
)

type pairKey struct {
	candidate uuid.UUID
	job       uuid.UUID
}

// memoryStore mimics the score store semantics the engine and controller rely
// on: one row per pair, backfill of empty fields, conditional transitions.
type memoryStore struct {
	mu         sync.Mutex
	jobs       map[uuid.UUID]*model.JobPosting
	candidates map[uuid.UUID]*model.Candidate
	order      []uuid.UUID
	scores     map[pairKey]model.CandidateJobScore
	history    []model.StatusChangeRecord
	runs       map[uuid.UUID]*model.AnalysisRun
	failures   []model.PairFailure
	writes     int
	saveErr    error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		jobs:       map[uuid.UUID]*model.JobPosting{},
		candidates: map[uuid.UUID]*model.Candidate{},
		scores:     map[pairKey]model.CandidateJobScore{},
		runs:       map[uuid.UUID]*model.AnalysisRun{},
	}
}

func (s *memoryStore) addJob(status model.JobStatus) *model.JobPosting {
	s.mu.Lock()
	defer s.mu.Unlock()
	j := &model.JobPosting{ID: uuid.New(), Title: "Backend Engineer", Location: "Jakarta", RequiredExperience: 3, Status: status}
	s.jobs[j.ID] = j
	return j
}

func (s *memoryStore) addCandidate(name string, cvText *string) *model.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &model.Candidate{ID: uuid.New(), FullName: name, CVText: cvText, Status: model.CandidateStatusNew}
	s.candidates[c.ID] = c
	s.order = append(s.order, c.ID)
	return c
}

func (s *memoryStore) candidate(id uuid.UUID) model.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.candidates[id]
}

func (s *memoryStore) score(candidateID, jobID uuid.UUID) (model.CandidateJobScore, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scores[pairKey{candidateID, jobID}]
	return sc, ok
}

func (s *memoryStore) scoreCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scores)
}

func (s *memoryStore) FindJobByID(_ context.Context, id uuid.UUID) (*model.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (s *memoryStore) ListJobsByStatus(_ context.Context, status model.JobStatus) ([]model.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.JobPosting
	for _, j := range s.jobs {
		if j.Status == status {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (s *memoryStore) PendingCandidates(_ context.Context, jobID uuid.UUID, version string) ([]model.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Candidate
	for _, id := range s.order {
		c, ok := s.candidates[id]
		if !ok {
			continue
		}
		if sc, ok := s.scores[pairKey{id, jobID}]; ok && sc.ScoringAlgorithmVersion == version {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (s *memoryStore) SaveEvaluation(_ context.Context, w repository.ScoreWrite) (repository.SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return repository.SaveResult{}, s.saveErr
	}
	c, ok := s.candidates[w.Score.CandidateID]
	if !ok {
		return repository.SaveResult{}, repository.ErrNotFound
	}
	s.writes++
	s.scores[pairKey{w.Score.CandidateID, w.Score.JobPostingID}] = w.Score

	p := w.Profile
	if p.CVText != nil && !c.HasCVText() {
		text := *p.CVText
		c.CVText = &text
	}
	if p.Skills != nil && !c.SkillsKnown() {
		c.Skills = model.NewSkillSet(p.Skills)
	}
	if p.YearsOfExperience != nil && c.YearsOfExperience == nil {
		years := *p.YearsOfExperience
		c.YearsOfExperience = &years
	}
	if p.EducationLevel != "" && c.EducationLevel == "" {
		c.EducationLevel = p.EducationLevel
	}
	if p.Email != "" && c.Email == "" {
		c.Email = p.Email
	}

	var res repository.SaveResult
	if t := w.Status; t != nil && c.Status == t.From && t.From != t.To {
		s.history = append(s.history, model.StatusChangeRecord{CandidateID: c.ID, PreviousStatus: t.From, NewStatus: t.To, Actor: t.Actor})
		c.Status = t.To
		res.StatusChanged = true
	}
	return res, nil
}

func (s *memoryStore) CreateRun(_ context.Context, run *model.AnalysisRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	cp := *run
	s.runs[run.ID] = &cp
	return nil
}

func (s *memoryStore) FinishRun(_ context.Context, run *model.AnalysisRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *run
	s.runs[run.ID] = &cp
	return nil
}

func (s *memoryStore) RecordFailure(_ context.Context, f *model.PairFailure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, *f)
	return nil
}

func (s *memoryStore) run(id uuid.UUID) model.AnalysisRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.runs[id]
}

// scriptedEvaluator returns a deterministic evaluation per candidate name.
type scriptedEvaluator struct {
	calls     atomic.Int32
	gate      chan struct{}
	results   map[string]evaluator.StructuredEvaluation
	fallback  evaluator.StructuredEvaluation
	failFor   map[string]error
	mu        sync.Mutex
	seen      []evaluator.CandidateProfile
	available atomic.Bool
}

func newScriptedEvaluator() *scriptedEvaluator {
	ev := &scriptedEvaluator{
		results:  map[string]evaluator.StructuredEvaluation{},
		failFor:  map[string]error{},
		fallback: evaluation(70, 70, 70, 70, 70),
	}
	ev.available.Store(true)
	return ev
}

func evaluation(overall, exp, skills, edu, loc float64) evaluator.StructuredEvaluation {
	return evaluator.StructuredEvaluation{
		OverallScore:    overall,
		ExperienceScore: exp,
		SkillsScore:     skills,
		EducationScore:  edu,
		LocationScore:   loc,
		Summary:         "summary",
		PositiveSignals: []string{"communicates well"},
		RiskSignals:     []string{},
	}
}

func (e *scriptedEvaluator) Evaluate(ctx context.Context, c evaluator.CandidateProfile, _ evaluator.JobProfile) (*evaluator.StructuredEvaluation, error) {
	e.calls.Add(1)
	e.mu.Lock()
	e.seen = append(e.seen, c)
	e.mu.Unlock()

	if e.gate != nil {
		select {
		case <-e.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := e.failFor[c.FullName]; ok {
		return nil, err
	}
	res, ok := e.results[c.FullName]
	if !ok {
		res = e.fallback
	}
	return &res, nil
}

func (e *scriptedEvaluator) Provider() string { return "stub" }
func (e *scriptedEvaluator) Model() string    { return "stub-model" }
func (e *scriptedEvaluator) Available() bool  { return e.available.Load() }

type stubExtractor struct {
	text  map[string]string
	err   error
	calls atomic.Int32
}

func (x *stubExtractor) Extract(_ context.Context, ref string) (string, error) {
	x.calls.Add(1)
	if x.err != nil {
		return "", x.err
	}
	text, ok := x.text[ref]
	if !ok {
		return "", errors.New("no such reference")
	}
	return text, nil
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }
