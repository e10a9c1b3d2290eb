package services

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/pdfinterleaver/internal/models"
)

// newEmulatorClient connects to the Firestore emulator named by
// FIRESTORE_EMULATOR_HOST, skipping the test when none is running.
func newEmulatorClient(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	client, err := firestore.NewClient(context.Background(), "pdfinterleaver-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestFirestoreRecorder_MirrorsLatestSnapshot(t *testing.T) {
	client := newEmulatorClient(t)
	ctx := context.Background()
	collection := "jobs_" + uuid.NewString()
	recorder := NewFirestoreRecorder(client, collection)

	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	job := models.TransformJob{
		ID:         uuid.NewString(),
		BatchID:    "batch-1",
		SourceName: "a.pdf",
		SourceSize: 123,
		State:      models.JobPending,
		CreatedAt:  created,
	}
	recorder.Observe(ctx, job)

	job.State = models.JobSaved
	job.OutputFilename = "a_dop.pdf"
	job.PageCount = 3
	job.Artifact = &models.Artifact{Filename: "a_dop.pdf", Content: []byte("pdf")}
	recorder.Observe(ctx, job)

	snap, err := client.Collection(collection).Doc(job.ID).Get(ctx)
	require.NoError(t, err)
	var got models.TransformJob
	require.NoError(t, snap.DataTo(&got))

	assert.Equal(t, models.JobSaved, got.State)
	assert.Equal(t, "batch-1", got.BatchID)
	assert.Equal(t, "a_dop.pdf", got.OutputFilename)
	assert.Equal(t, 3, got.PageCount)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Nil(t, got.Artifact)
	assert.NotContains(t, snap.Data(), "Artifact")
}

func TestJobStore_FeedsFirestoreRecorder(t *testing.T) {
	client := newEmulatorClient(t)
	ctx := context.Background()
	collection := "jobs_" + uuid.NewString()

	store := NewJobStore()
	store.Subscribe(NewFirestoreRecorder(client, collection).Observe)
	orch := NewOrchestrator(NewTransformer(&fakeCodec{}, NamingSuffix), nil, store, &CompletionSignal{}, 2)

	jobs := orch.RunBatch(ctx, []models.InputFile{pdfFile("ok.pdf", 1), rawFile("bad.pdf", "x")}).Jobs()
	require.Len(t, jobs, 2)

	for _, j := range jobs {
		snap, err := client.Collection(collection).Doc(j.ID).Get(ctx)
		require.NoError(t, err, j.SourceName)
		state, err := snap.DataAt("state")
		require.NoError(t, err)
		assert.Equal(t, string(j.State), state, j.SourceName)
	}
}
