package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Lllllllleong/pdfinterleaver/internal/models"
	"github.com/google/uuid"
)

// Sentinel errors for job store operations.
var (
	ErrInvalidTransition = errors.New("invalid job state transition")
	ErrUnknownJob        = errors.New("unknown job")
)

var validTransitions = map[models.JobState][]models.JobState{
	models.JobPending: {models.JobRunning},
	models.JobRunning: {models.JobSaved, models.JobFailed},
}

func canTransition(from, to models.JobState) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Observer receives a snapshot of a job every time the store changes it.
type Observer func(ctx context.Context, job models.TransformJob)

type subscription struct {
	id int
	fn Observer
}

// JobStore tracks every job of the batches it was given and the identity of
// the current batch. Observers are called after the lock is released, on
// the goroutine that made the change.
type JobStore struct {
	mu        sync.Mutex
	jobs      map[string]*models.TransformJob
	batches   map[string][]string
	currentID string
	observers []subscription
	nextObsID int
}

// NewJobStore returns an empty store.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs:    make(map[string]*models.TransformJob),
		batches: make(map[string][]string),
	}
}

// Subscribe registers fn and returns a function that removes it.
func (s *JobStore) Subscribe(fn Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextObsID
	s.nextObsID++
	s.observers = append(s.observers, subscription{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.observers {
			if sub.id == id {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// Register creates a Pending job per file and makes batchID the current
// batch. Jobs of earlier batches are kept untouched.
func (s *JobStore) Register(ctx context.Context, batchID string, files []models.InputFile, now time.Time) []models.TransformJob {
	s.mu.Lock()
	ids := make([]string, 0, len(files))
	snapshots := make([]models.TransformJob, 0, len(files))
	for i, f := range files {
		job := &models.TransformJob{
			ID:         uuid.NewString(),
			BatchID:    batchID,
			Sequence:   i,
			SourceName: f.Name,
			SourceSize: f.Size,
			SourceType: f.MimeType,
			FileHash:   f.Hash(),
			State:      models.JobPending,
			CreatedAt:  now,
		}
		s.jobs[job.ID] = job
		ids = append(ids, job.ID)
		snapshots = append(snapshots, *job)
	}
	s.batches[batchID] = ids
	s.currentID = batchID
	observers := s.snapshotObservers()
	s.mu.Unlock()

	for _, job := range snapshots {
		notify(ctx, observers, job)
	}
	return snapshots
}

// Transition moves a job to state `to`, applying mutate to the record under
// the lock. Only Pending→Running and Running→Saved|Failed are accepted.
func (s *JobStore) Transition(ctx context.Context, id string, to models.JobState, mutate func(*models.TransformJob)) (models.TransformJob, error) {
	s.mu.Lock()
	job, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return models.TransformJob{}, fmt.Errorf("job %s: %w", id, ErrUnknownJob)
	}
	if !canTransition(job.State, to) {
		from := job.State
		s.mu.Unlock()
		return models.TransformJob{}, fmt.Errorf("job %s %s -> %s: %w", id, from, to, ErrInvalidTransition)
	}
	job.State = to
	if mutate != nil {
		mutate(job)
	}
	snapshot := *job
	observers := s.snapshotObservers()
	s.mu.Unlock()

	notify(ctx, observers, snapshot)
	return snapshot, nil
}

// Annotate updates a job's record without changing its state.
func (s *JobStore) Annotate(ctx context.Context, id string, mutate func(*models.TransformJob)) (models.TransformJob, error) {
	s.mu.Lock()
	job, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return models.TransformJob{}, fmt.Errorf("job %s: %w", id, ErrUnknownJob)
	}
	state := job.State
	mutate(job)
	job.State = state
	snapshot := *job
	observers := s.snapshotObservers()
	s.mu.Unlock()

	notify(ctx, observers, snapshot)
	return snapshot, nil
}

// Get returns a snapshot of the job with the given ID.
func (s *JobStore) Get(id string) (models.TransformJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return models.TransformJob{}, false
	}
	return *job, true
}

// Batch returns snapshots of the jobs of batchID in submission order.
func (s *JobStore) Batch(batchID string) []models.TransformJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.batches[batchID]
	out := make([]models.TransformJob, 0, len(ids))
	for _, id := range ids {
		out = append(out, *s.jobs[id])
	}
	return out
}

// Current returns the ID and jobs of the most recently registered batch.
func (s *JobStore) Current() (string, []models.TransformJob) {
	s.mu.Lock()
	id := s.currentID
	s.mu.Unlock()
	return id, s.Batch(id)
}

// Release drops the records of a finished batch. Releasing the current
// batch leaves Current with an empty job list.
func (s *JobStore) Release(batchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.batches[batchID] {
		delete(s.jobs, id)
	}
	delete(s.batches, batchID)
}

func (s *JobStore) snapshotObservers() []Observer {
	out := make([]Observer, len(s.observers))
	for i, sub := range s.observers {
		out[i] = sub.fn
	}
	return out
}

func notify(ctx context.Context, observers []Observer, job models.TransformJob) {
	for _, fn := range observers {
		fn(ctx, job)
	}
}
