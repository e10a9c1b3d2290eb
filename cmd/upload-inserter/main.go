package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/pdfinterleaver/internal/models"
	"github.com/Lllllllleong/pdfinterleaver/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	interleaverInstance *services.InterleaverFunction
	once                sync.Once
	initErr             error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Triggered by google.cloud.storage.object.v1.finalized on the input bucket.
	functions.CloudEvent("InsertBlankPagesOnUpload", insertBlankPagesOnUpload)
}

// main is required by the Go Functions Framework.
func main() {}

func insertBlankPagesOnUpload(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		interleaverInstance, initErr = services.NewInterleaver(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	gcsEvent, err := decodeEvent(e)
	if err != nil {
		return err
	}
	return interleaverInstance.ProcessObject(ctx, gcsEvent)
}

func decodeEvent(e cloudevents.Event) (models.GCSEvent, error) {
	var gcsEvent models.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return models.GCSEvent{}, fmt.Errorf("json.Unmarshal: %w", err)
	}
	return gcsEvent, nil
}
