package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Lllllllleong/pdfinterleaver/internal/document"
	"github.com/Lllllllleong/pdfinterleaver/internal/models"
)

// fakeCodec understands "FAKEPDF <n>" documents and saves a document as a
// comma-separated page listing such as "p0,blank,p1,blank".
// "PANIC" panics on load; "WAIT FAKEPDF <n>" blocks until gate is closed.
type fakeCodec struct {
	gate     chan struct{}
	delay    time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (c *fakeCodec) Load(ctx context.Context, content []byte) (*document.Document, error) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		seen := c.maxSeen.Load()
		if n <= seen || c.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if c.delay > 0 {
		time.Sleep(c.delay)
	}

	s := string(content)
	switch {
	case s == "PANIC":
		panic("corrupt cross-reference table")
	case strings.HasPrefix(s, "WAIT "):
		<-c.gate
		s = strings.TrimPrefix(s, "WAIT ")
	}
	var pages int
	if _, err := fmt.Sscanf(s, "FAKEPDF %d", &pages); err != nil {
		return nil, fmt.Errorf("%w: %v", document.ErrParse, err)
	}
	return document.FromSource(&document.Source{Content: content, PageCount: pages}), nil
}

func (c *fakeCodec) Save(ctx context.Context, doc *document.Document) ([]byte, error) {
	parts := make([]string, 0, doc.PageCount())
	for _, p := range doc.Pages() {
		if p.IsBlank() {
			parts = append(parts, "blank")
			continue
		}
		parts = append(parts, fmt.Sprintf("p%d", p.Index()))
	}
	return []byte(strings.Join(parts, ",")), nil
}

func pdfFile(name string, pages int) models.InputFile {
	content := []byte(fmt.Sprintf("FAKEPDF %d", pages))
	return models.InputFile{Name: name, Size: int64(len(content)), MimeType: "application/pdf", Content: content}
}

func rawFile(name, content string) models.InputFile {
	return models.InputFile{Name: name, Size: int64(len(content)), Content: []byte(content)}
}

// recordingEmitter keeps every delivered artifact keyed by filename.
type recordingEmitter struct {
	mu        sync.Mutex
	delivered map[string]models.Artifact
	batches   map[string]string
	fail      bool
}

func newRecordingEmitter() *recordingEmitter {
	return &recordingEmitter{
		delivered: make(map[string]models.Artifact),
		batches:   make(map[string]string),
	}
}

func (e *recordingEmitter) Emit(ctx context.Context, batchID string, artifact models.Artifact) (string, error) {
	if e.fail {
		return "", errors.New("download target unavailable")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.delivered[artifact.Filename] = artifact
	e.batches[artifact.Filename] = batchID
	return "mem://" + batchID + "/" + artifact.Filename, nil
}

func (e *recordingEmitter) get(name string) (models.Artifact, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	a, ok := e.delivered[name]
	return a, ok
}

func (e *recordingEmitter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.delivered)
}
