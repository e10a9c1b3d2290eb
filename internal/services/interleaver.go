package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Lllllllleong/pdfinterleaver/internal/codec"
	"github.com/Lllllllleong/pdfinterleaver/internal/gcp"
	"github.com/Lllllllleong/pdfinterleaver/internal/models"
)

// InterleaverConfig holds all configuration for the function entry points.
type InterleaverConfig struct {
	ProjectID        string
	OutputBucket     string
	OutputPrefix     string
	CollectionName   string
	Naming           NamingStrategy
	BlankPageSize    string
	Optimize         bool
	MaxConcurrency   int
	WorkflowID       string
	WorkflowLocation string
}

// loadConfig loads and validates all necessary environment variables for this service.
func loadConfig() (*InterleaverConfig, error) {
	outputBucket := gcp.GetEnv("OUTPUT_BUCKET", "")
	if outputBucket == "" {
		return nil, fmt.Errorf("OUTPUT_BUCKET environment variable must be set")
	}
	naming, err := ParseNamingStrategy(gcp.GetEnv("NAMING_STRATEGY", string(NamingTimestamp)))
	if err != nil {
		return nil, fmt.Errorf("NAMING_STRATEGY: %w", err)
	}
	maxConcurrency, err := strconv.Atoi(gcp.GetEnv("MAX_CONCURRENCY", strconv.Itoa(DefaultMaxConcurrency)))
	if err != nil || maxConcurrency <= 0 {
		return nil, fmt.Errorf("MAX_CONCURRENCY must be a positive integer")
	}
	optimize, err := strconv.ParseBool(gcp.GetEnv("OPTIMIZE_OUTPUT", "false"))
	if err != nil {
		return nil, fmt.Errorf("OPTIMIZE_OUTPUT must be a boolean: %w", err)
	}

	config := &InterleaverConfig{
		ProjectID:        gcp.GetEnv("PROJECT_ID", ""),
		OutputBucket:     outputBucket,
		OutputPrefix:     gcp.GetEnv("OUTPUT_PREFIX", ""),
		CollectionName:   gcp.GetEnv("FIRESTORE_COLLECTION", ""),
		Naming:           naming,
		BlankPageSize:    gcp.GetEnv("BLANK_PAGE_SIZE", ""),
		Optimize:         optimize,
		MaxConcurrency:   maxConcurrency,
		WorkflowID:       gcp.GetEnv("WORKFLOW_ID", ""),
		WorkflowLocation: gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
	}
	if (config.CollectionName != "" || config.WorkflowID != "") && config.ProjectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set when FIRESTORE_COLLECTION or WORKFLOW_ID is set")
	}
	return config, nil
}

// InterleaverFunction holds the dependencies shared by the function entry points.
type InterleaverFunction struct {
	clients      *gcp.Clients
	emitter      *gcp.BucketEmitter
	store        *JobStore
	orchestrator *Orchestrator
	notifier     *WorkflowNotifier
	config       InterleaverConfig
}

// NewInterleaver creates a new InterleaverFunction instance.
func NewInterleaver(ctx context.Context) (*InterleaverFunction, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	pdfCodec, err := codec.New(codec.Config{BlankPageSize: config.BlankPageSize, Optimize: config.Optimize})
	if err != nil {
		return nil, fmt.Errorf("failed to create codec: %w", err)
	}

	clients, err := gcp.NewClients(ctx, gcp.ClientOptions{
		ProjectID: config.ProjectID,
		Firestore: config.CollectionName != "",
		Workflows: config.WorkflowID != "",
	})
	if err != nil {
		return nil, err
	}

	store := NewJobStore()
	if clients.Firestore != nil {
		store.Subscribe(NewFirestoreRecorder(clients.Firestore, config.CollectionName).Observe)
	}
	signal := &CompletionSignal{}
	signal.Subscribe(func() {
		slog.Info("First document of this instance saved.")
	})

	emitter := gcp.NewBucketEmitter(clients.Storage, config.OutputBucket, config.OutputPrefix)
	f := &InterleaverFunction{
		clients:      clients,
		emitter:      emitter,
		store:        store,
		orchestrator: NewOrchestrator(NewTransformer(pdfCodec, config.Naming), emitter, store, signal, config.MaxConcurrency),
		config:       *config,
	}
	if clients.Executions != nil {
		f.notifier = NewWorkflowNotifier(clients.Executions, config.ProjectID, config.WorkflowLocation, config.WorkflowID)
	}
	slog.Info("Interleaver initialized.",
		"outputBucket", config.OutputBucket,
		"naming", config.Naming,
		"firestore", config.CollectionName != "",
		"workflowId", config.WorkflowID,
	)
	return f, nil
}

// ProcessFiles runs files as one batch, waits for it, then writes the batch
// manifest and notifies the workflow. Per-file failures are reported in the
// response, not as an error.
func (f *InterleaverFunction) ProcessFiles(ctx context.Context, files []models.InputFile) *models.BatchResponse {
	batch := f.orchestrator.RunBatch(ctx, files)
	jobs := batch.Jobs()
	defer f.store.Release(batch.ID)
	logCtx := slog.With("batchId", batch.ID)

	if len(jobs) > 0 {
		if uri, err := f.emitter.WriteManifest(ctx, batch.ID, jobs); err != nil {
			logCtx.Error("Failed to write batch manifest", "error", err)
		} else {
			logCtx.Info("Batch manifest written.", "manifest", uri)
		}
	}

	summary := Summarize(batch.ID, jobs)
	if f.notifier != nil && len(jobs) > 0 {
		if err := f.notifier.Notify(ctx, summary); err != nil {
			logCtx.Error("Failed to notify workflow", "error", err)
		}
	}
	logCtx.Info("Batch complete.", "saved", summary.Saved, "failed", summary.Failed)
	return &models.BatchResponse{BatchID: batch.ID, Jobs: jobs}
}

// ProcessObject handles a newly finalized Cloud Storage object.
func (f *InterleaverFunction) ProcessObject(ctx context.Context, e models.GCSEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)
	if e.Bucket == f.config.OutputBucket {
		logCtx.Info("Object is in the output bucket. Skipping.")
		return nil
	}
	if !gcp.IsPDFObject(e.Name, e.ContentType) {
		logCtx.Info("Object is not a PDF. Skipping.", "contentType", e.ContentType)
		return nil
	}

	file, err := gcp.ReadObject(ctx, f.clients.Storage, e.Bucket, e.Name)
	if err != nil {
		logCtx.Error("Failed to download source PDF", "error", err)
		return err
	}
	resp := f.ProcessFiles(ctx, []models.InputFile{file})
	for _, job := range resp.Jobs {
		if job.State == models.JobFailed {
			// A malformed upload will not get better on retry.
			logCtx.Warn("Object could not be transformed.", "jobId", job.ID, "error", job.ErrorDetails)
		}
	}
	return nil
}
