package services

import (
	"context"
	"log/slog"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/pdfinterleaver/internal/models"
)

// FirestoreRecorder mirrors job records into a Firestore collection, one
// document per job. It is write-only; nothing reads the records back.
type FirestoreRecorder struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreRecorder creates a recorder writing to collection.
func NewFirestoreRecorder(client *firestore.Client, collection string) *FirestoreRecorder {
	return &FirestoreRecorder{client: client, collection: collection}
}

// Observe writes the job snapshot. Failures are logged and never reach the job.
func (r *FirestoreRecorder) Observe(ctx context.Context, job models.TransformJob) {
	if _, err := r.client.Collection(r.collection).Doc(job.ID).Set(ctx, job); err != nil {
		slog.Error("CRITICAL: Failed to mirror job state to Firestore.",
			"jobId", job.ID,
			"batchId", job.BatchID,
			"state", job.State,
			"updateError", err,
		)
	}
}
