package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Lllllllleong/pdfinterleaver/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStore_RegisterMakesPendingJobs(t *testing.T) {
	s := NewJobStore()
	now := time.Now()

	jobs := s.Register(context.Background(), "b1", []models.InputFile{pdfFile("a.pdf", 1), pdfFile("b.pdf", 2)}, now)

	require.Len(t, jobs, 2)
	for i, j := range jobs {
		assert.Equal(t, models.JobPending, j.State)
		assert.Equal(t, "b1", j.BatchID)
		assert.Equal(t, i, j.Sequence)
		assert.Equal(t, now, j.CreatedAt)
		assert.NotEmpty(t, j.ID)
		assert.NotEmpty(t, j.FileHash)
		assert.Equal(t, "application/pdf", j.SourceType)
	}
	assert.NotEqual(t, jobs[0].ID, jobs[1].ID)

	id, current := s.Current()
	assert.Equal(t, "b1", id)
	assert.Equal(t, jobs, current)
}

func TestJobStore_Transitions(t *testing.T) {
	ctx := context.Background()
	s := NewJobStore()
	jobs := s.Register(ctx, "b1", []models.InputFile{pdfFile("a.pdf", 1), pdfFile("b.pdf", 1)}, time.Now())
	a, b := jobs[0].ID, jobs[1].ID

	_, err := s.Transition(ctx, a, models.JobSaved, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition, "Pending -> Saved skips Running")

	_, err = s.Transition(ctx, a, models.JobRunning, nil)
	require.NoError(t, err)
	got, err := s.Transition(ctx, a, models.JobSaved, func(j *models.TransformJob) { j.OutputFilename = "a_dop.pdf" })
	require.NoError(t, err)
	assert.Equal(t, models.JobSaved, got.State)
	assert.Equal(t, "a_dop.pdf", got.OutputFilename)

	// Saved is terminal.
	for _, to := range []models.JobState{models.JobRunning, models.JobFailed, models.JobPending} {
		_, err = s.Transition(ctx, a, to, nil)
		assert.ErrorIs(t, err, ErrInvalidTransition, "Saved -> %s", to)
	}

	_, err = s.Transition(ctx, b, models.JobRunning, nil)
	require.NoError(t, err)
	_, err = s.Transition(ctx, b, models.JobFailed, nil)
	require.NoError(t, err)
	_, err = s.Transition(ctx, b, models.JobRunning, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition, "Failed is terminal")

	_, err = s.Transition(ctx, "missing", models.JobRunning, nil)
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestJobStore_AnnotateKeepsState(t *testing.T) {
	ctx := context.Background()
	s := NewJobStore()
	id := s.Register(ctx, "b1", []models.InputFile{pdfFile("a.pdf", 1)}, time.Now())[0].ID

	got, err := s.Annotate(ctx, id, func(j *models.TransformJob) {
		j.State = models.JobSaved
		j.DeliveryError = "boom"
	})
	require.NoError(t, err)
	assert.Equal(t, models.JobPending, got.State)
	assert.Equal(t, "boom", got.DeliveryError)

	_, err = s.Annotate(ctx, "missing", func(*models.TransformJob) {})
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestJobStore_ObserversSeeEveryChange(t *testing.T) {
	ctx := context.Background()
	s := NewJobStore()

	var mu sync.Mutex
	var seen []models.JobState
	unsubscribe := s.Subscribe(func(_ context.Context, j models.TransformJob) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, j.State)
	})

	id := s.Register(ctx, "b1", []models.InputFile{pdfFile("a.pdf", 1)}, time.Now())[0].ID
	_, err := s.Transition(ctx, id, models.JobRunning, nil)
	require.NoError(t, err)
	_, err = s.Transition(ctx, id, models.JobFailed, nil)
	require.NoError(t, err)

	unsubscribe()
	_, err = s.Annotate(ctx, id, func(*models.TransformJob) {})
	require.NoError(t, err)

	assert.Equal(t, []models.JobState{models.JobPending, models.JobRunning, models.JobFailed}, seen)
}

func TestJobStore_NewBatchKeepsOldJobs(t *testing.T) {
	ctx := context.Background()
	s := NewJobStore()
	first := s.Register(ctx, "b1", []models.InputFile{pdfFile("a.pdf", 1)}, time.Now())
	s.Register(ctx, "b2", []models.InputFile{pdfFile("b.pdf", 1)}, time.Now())

	id, _ := s.Current()
	assert.Equal(t, "b2", id)
	_, ok := s.Get(first[0].ID)
	assert.True(t, ok)
	assert.Len(t, s.Batch("b1"), 1)

	s.Release("b1")
	_, ok = s.Get(first[0].ID)
	assert.False(t, ok)
	assert.Empty(t, s.Batch("b1"))
}
