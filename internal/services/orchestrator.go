package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lllllllleong/pdfinterleaver/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxConcurrency bounds how many files of one batch are transformed at once.
const DefaultMaxConcurrency = 10

// Emitter delivers an artifact and returns where it was delivered.
type Emitter interface {
	Emit(ctx context.Context, batchID string, artifact models.Artifact) (string, error)
}

// Batch is the set of jobs created by one Submit call.
type Batch struct {
	ID    string
	store *JobStore
	done  chan struct{}
}

// Done is closed once every job of the batch is Saved or Failed.
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// Jobs returns the current snapshots of the batch's jobs in submission order.
func (b *Batch) Jobs() []models.TransformJob {
	return b.store.Batch(b.ID)
}

// Wait blocks until the batch is done and returns its jobs.
func (b *Batch) Wait() []models.TransformJob {
	<-b.done
	return b.Jobs()
}

// Orchestrator runs one Transformer task per file of a batch.
type Orchestrator struct {
	transformer    *Transformer
	emitter        Emitter
	store          *JobStore
	signal         *CompletionSignal
	maxConcurrency int
}

// NewOrchestrator wires the orchestrator. emitter may be nil, in which case
// artifacts are only kept on the job records.
func NewOrchestrator(transformer *Transformer, emitter Emitter, store *JobStore, signal *CompletionSignal, maxConcurrency int) *Orchestrator {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	return &Orchestrator{
		transformer:    transformer,
		emitter:        emitter,
		store:          store,
		signal:         signal,
		maxConcurrency: maxConcurrency,
	}
}

// Submit registers a new batch and starts its tasks without waiting for them.
// Earlier batches keep running: their tasks are not cancelled and still
// deliver their artifacts. Cancelling ctx does not stop the tasks either.
func (o *Orchestrator) Submit(ctx context.Context, files []models.InputFile) *Batch {
	batchID := uuid.NewString()
	logCtx := slog.With("batchId", batchID)

	jobs := o.store.Register(ctx, batchID, files, time.Now())
	batch := &Batch{ID: batchID, store: o.store, done: make(chan struct{})}
	logCtx.Info("Batch submitted.", "fileCount", len(files))

	taskCtx := context.WithoutCancel(ctx)
	go func() {
		defer close(batch.done)
		var g errgroup.Group
		g.SetLimit(o.maxConcurrency)
		for i, job := range jobs {
			file := files[i]
			jobID := job.ID
			g.Go(func() error {
				o.runJob(taskCtx, batchID, jobID, file)
				return nil
			})
		}
		_ = g.Wait()
		logCtx.Info("Batch finished.")
	}()
	return batch
}

// RunBatch submits files and waits for every job to finish.
func (o *Orchestrator) RunBatch(ctx context.Context, files []models.InputFile) *Batch {
	batch := o.Submit(ctx, files)
	<-batch.Done()
	return batch
}

func (o *Orchestrator) runJob(ctx context.Context, batchID, jobID string, file models.InputFile) {
	logCtx := slog.With("batchId", batchID, "jobId", jobID, "sourceName", file.Name)

	if _, err := o.store.Transition(ctx, jobID, models.JobRunning, func(j *models.TransformJob) {
		j.StartedAt = time.Now()
	}); err != nil {
		logCtx.Error("Failed to start job", "error", err)
		return
	}

	result, err := o.safeTransform(ctx, file)
	if err != nil {
		logCtx.Error("Transform failed", "error", err)
		if _, terr := o.store.Transition(ctx, jobID, models.JobFailed, func(j *models.TransformJob) {
			j.ErrorDetails = err.Error()
			j.CompletedAt = time.Now()
		}); terr != nil {
			logCtx.Error("CRITICAL: Failed to mark job as failed", "error", terr)
		}
		return
	}

	artifact := result.Artifact
	if _, err := o.store.Transition(ctx, jobID, models.JobSaved, func(j *models.TransformJob) {
		j.Artifact = &artifact
		j.OutputFilename = artifact.Filename
		j.PageCount = result.PageCount
		j.CompletedAt = time.Now()
	}); err != nil {
		logCtx.Error("CRITICAL: Failed to mark job as saved", "error", err)
		return
	}
	if o.signal.Set() {
		logCtx.Info("First document saved.")
	}

	if o.emitter == nil {
		logCtx.Info("Job saved.", "outputFilename", artifact.Filename, "pageCount", result.PageCount)
		return
	}
	location, err := o.emitter.Emit(ctx, batchID, artifact)
	if err != nil {
		logCtx.Warn("Artifact delivery failed", "error", err, "outputFilename", artifact.Filename)
		if _, aerr := o.store.Annotate(ctx, jobID, func(j *models.TransformJob) {
			j.DeliveryError = err.Error()
		}); aerr != nil {
			logCtx.Error("Failed to record delivery error", "error", aerr)
		}
		return
	}
	if _, err := o.store.Annotate(ctx, jobID, func(j *models.TransformJob) {
		j.OutputLocation = location
	}); err != nil {
		logCtx.Error("Failed to record output location", "error", err, "outputLocation", location)
	}
	logCtx.Info("Job saved.", "outputFilename", artifact.Filename, "outputLocation", location, "pageCount", result.PageCount)
}

// safeTransform keeps a codec panic on one malformed file from taking the
// whole batch down.
func (o *Orchestrator) safeTransform(ctx context.Context, file models.InputFile) (result *TransformResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("transform of %s panicked: %v", file.Name, r)
		}
	}()
	return o.transformer.Transform(ctx, file)
}
