package task

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/hirewire/talent-api/internal/blob"
	"github.com/hirewire/talent-api/internal/domain"
	"github.com/hirewire/talent-api/internal/events"
	"github.com/hirewire/talent-api/internal/intel"
	"github.com/hirewire/talent-api/internal/store"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeCandidateStore keeps candidates in a map.
type fakeCandidateStore struct {
	mu         sync.Mutex
	candidates map[uuid.UUID]*domain.Candidate
}

func newFakeCandidateStore() *fakeCandidateStore {
	return &fakeCandidateStore{candidates: make(map[uuid.UUID]*domain.Candidate)}
}

func (s *fakeCandidateStore) CreateCandidate(ctx context.Context, c *domain.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates[c.ID] = c
	return nil
}

func (s *fakeCandidateStore) GetCandidate(ctx context.Context, id uuid.UUID) (*domain.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.candidates[id]
	if !ok {
		return nil, store.ErrCandidateNotFound
	}
	return c, nil
}

// fakeMatchStore records every upsert.
type fakeMatchStore struct {
	mu      sync.Mutex
	results []*domain.MatchResult
}

func (s *fakeMatchStore) UpsertMatch(ctx context.Context, m *domain.MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, m)
	return nil
}

func (s *fakeMatchStore) ListMatchesByJob(ctx context.Context, jobID uuid.UUID) ([]*domain.MatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.MatchResult
	for _, m := range s.results {
		if m.JobID == jobID {
			out = append(out, m)
		}
	}
	return out, nil
}

// fakeBlobStore serves blobs from a map.
type fakeBlobStore struct {
	blobs map[string][]byte
}

func (s *fakeBlobStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	data, ok := s.blobs[key]
	if !ok {
		return nil, blob.ErrBlobNotFound
	}
	return data, nil
}

func (s *fakeBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	s.blobs[key] = data
	return nil
}

// fakeProvider implements all three intel interfaces with stubbable funcs.
type fakeProvider struct {
	parseFunc    func(ctx context.Context, data []byte, filename string) (*intel.ParsedResume, error)
	scoreFunc    func(ctx context.Context, jobID uuid.UUID, candidate *domain.Candidate) (*intel.MatchScore, error)
	generateFunc func(ctx context.Context, subject, department string) (string, error)
}

func (p *fakeProvider) ParseResume(ctx context.Context, data []byte, filename string) (*intel.ParsedResume, error) {
	return p.parseFunc(ctx, data, filename)
}

func (p *fakeProvider) ScoreCandidate(ctx context.Context, jobID uuid.UUID, candidate *domain.Candidate) (*intel.MatchScore, error) {
	return p.scoreFunc(ctx, jobID, candidate)
}

func (p *fakeProvider) GenerateContent(ctx context.Context, subject, department string) (string, error) {
	return p.generateFunc(ctx, subject, department)
}

// recordingEmitter captures emitted queue events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.QueueEvent
}

func (e *recordingEmitter) Emit(ctx context.Context, event *events.QueueEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

func (e *recordingEmitter) actions() []events.QueueAction {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]events.QueueAction, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.Action)
	}
	return out
}

// claimForRun moves a pending task in the store to RUNNING the way the
// service layer does before handing it to the engine.
func claimForRun(t *testing.T, tasks store.TaskStore, taskID uuid.UUID) *domain.Task {
	t.Helper()
	claimed, err := tasks.ClaimTask(context.Background(), taskID)
	require.NoError(t, err)
	return claimed
}

// drainEvents collects everything from a stream until it closes.
func drainEvents(stream *Stream) []Event {
	var out []Event
	for ev := range stream.Events() {
		out = append(out, ev)
	}
	return out
}
