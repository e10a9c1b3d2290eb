package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/Lllllllleong/pdfinterleaver/internal/models"
)

// lockedWriter serializes writes from concurrent job goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// progress advances a bar once per job that reaches a terminal state.
type progress struct {
	bar  *progressbar.ProgressBar
	mu   sync.Mutex
	done map[string]bool
}

func newProgress(total int, w io.Writer) *progress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Interleaving"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionShowIts(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
	)
	return &progress{bar: bar, done: make(map[string]bool)}
}

// Observe is a job store observer.
func (p *progress) Observe(_ context.Context, job models.TransformJob) {
	if !job.State.Terminal() {
		return
	}
	p.mu.Lock()
	if p.done[job.ID] {
		p.mu.Unlock()
		return
	}
	p.done[job.ID] = true
	p.mu.Unlock()
	_ = p.bar.Add(1)
}

func (p *progress) Finish() {
	_ = p.bar.Finish()
}

func readyNotice(w io.Writer) {
	color.New(color.FgGreen, color.Bold).Fprintln(w, "\nFirst interleaved PDF is ready.")
}

func printReport(w io.Writer, jobs []models.TransformJob) {
	saved := color.New(color.FgGreen).SprintFunc()
	failed := color.New(color.FgRed, color.Bold).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, j := range jobs {
		source := fmt.Sprintf("%s\t%s\t%s", j.SourceName, formatSize(j.SourceSize), sourceType(j.SourceType))
		switch {
		case j.State == models.JobFailed:
			fmt.Fprintf(tw, "%s\t%s\t%s\n", failed(j.State), source, j.ErrorDetails)
		case j.DeliveryError != "":
			fmt.Fprintf(tw, "%s\t%s\t%s (not delivered: %s)\n", warn(j.State), source, j.OutputFilename, j.DeliveryError)
		default:
			fmt.Fprintf(tw, "%s\t%s\t%s\n", saved(j.State), source, j.OutputLocation)
		}
	}
	_ = tw.Flush()
}

func sourceType(mimeType string) string {
	if mimeType == "" {
		return "-"
	}
	return mimeType
}

// formatSize renders a byte count with a binary unit, e.g. "1.5 KiB".
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
