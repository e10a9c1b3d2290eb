package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/pdfinterleaver/internal/models"
	"github.com/Lllllllleong/pdfinterleaver/internal/services"
)

// maxUploadMemory is how much of a multipart upload is held in memory
// before the rest spills to temporary files.
const maxUploadMemory = 32 << 20

var (
	interleaverInstance *services.InterleaverFunction
	once                sync.Once
	initErr             error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "HandleInsertBlankPages" is the entry point name configured in GCP.
	functions.HTTP("HandleInsertBlankPages", handleInsertBlankPages)
}

// main is required by the Go Functions Framework.
func main() {}

type batchProcessor interface {
	ProcessFiles(ctx context.Context, files []models.InputFile) *models.BatchResponse
}

func handleInsertBlankPages(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		interleaverInstance, initErr = services.NewInterleaver(context.Background())
	})
	if initErr != nil {
		slog.Error("CRITICAL: Interleaver initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	serveInsert(w, r, interleaverInstance)
}

func serveInsert(w http.ResponseWriter, r *http.Request, p batchProcessor) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	files, err := services.FromMultipart(r, maxUploadMemory)
	if err != nil {
		slog.Error("Could not read upload", "error", err)
		http.Error(w, "Bad Request: expected multipart form with \"files\"", http.StatusBadRequest)
		return
	}

	res := p.ProcessFiles(r.Context(), files)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
