package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/spf13/viper"

	"github.com/Lllllllleong/pdfinterleaver/internal/codec"
	"github.com/Lllllllleong/pdfinterleaver/internal/gcp"
	"github.com/Lllllllleong/pdfinterleaver/internal/models"
	"github.com/Lllllllleong/pdfinterleaver/internal/services"
)

type options struct {
	Out         string
	Naming      services.NamingStrategy
	BlankSize   string
	Optimize    bool
	Concurrency int
}

func optionsFromViper() (options, error) {
	naming, err := services.ParseNamingStrategy(viper.GetString("naming"))
	if err != nil {
		return options{}, err
	}
	concurrency := viper.GetInt("concurrency")
	if concurrency <= 0 {
		return options{}, fmt.Errorf("concurrency must be positive, got %d", concurrency)
	}
	out := viper.GetString("out")
	if out == "" {
		return options{}, fmt.Errorf("an output location is required")
	}
	return options{
		Out:         out,
		Naming:      naming,
		BlankSize:   viper.GetString("blank-size"),
		Optimize:    viper.GetBool("optimize"),
		Concurrency: concurrency,
	}, nil
}

func isGSURI(s string) bool {
	return strings.HasPrefix(s, "gs://")
}

// run transforms every input as one batch. It returns an error if any
// file failed or was not delivered, after reporting all of them.
func run(ctx context.Context, opts options, args []string, stdout, stderr io.Writer) error {
	pdfCodec, err := codec.New(codec.Config{BlankPageSize: opts.BlankSize, Optimize: opts.Optimize})
	if err != nil {
		return err
	}

	var storageClient *storage.Client
	if needsStorage(opts.Out, args) {
		clients, err := gcp.NewClients(ctx, gcp.ClientOptions{})
		if err != nil {
			return err
		}
		defer clients.Close()
		storageClient = clients.Storage
	}

	files, err := collectInputs(ctx, storageClient, args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(stderr, "No PDF files found.")
		return nil
	}

	emitter, err := newEmitter(storageClient, opts.Out)
	if err != nil {
		return err
	}

	stderr = &lockedWriter{w: stderr}
	store := services.NewJobStore()
	signal := &services.CompletionSignal{}
	bar := newProgress(len(files), stderr)
	store.Subscribe(bar.Observe)
	signal.Subscribe(func() {
		readyNotice(stderr)
	})

	orchestrator := services.NewOrchestrator(services.NewTransformer(pdfCodec, opts.Naming), emitter, store, signal, opts.Concurrency)
	batch := orchestrator.RunBatch(ctx, files)
	bar.Finish()
	jobs := batch.Jobs()

	if bucketEmitter, ok := emitter.(*gcp.BucketEmitter); ok {
		if uri, err := bucketEmitter.WriteManifest(ctx, batch.ID, jobs); err != nil {
			fmt.Fprintf(stderr, "Failed to write manifest: %v\n", err)
		} else {
			fmt.Fprintln(stderr, "Manifest:", uri)
		}
	}

	printReport(stdout, jobs)
	summary := services.Summarize(batch.ID, jobs)
	switch {
	case summary.Failed > 0 && summary.Undelivered > 0:
		return fmt.Errorf("%d of %d files failed, %d not delivered", summary.Failed, len(jobs), summary.Undelivered)
	case summary.Failed > 0:
		return fmt.Errorf("%d of %d files failed", summary.Failed, len(jobs))
	case summary.Undelivered > 0:
		return fmt.Errorf("%d of %d files not delivered to %s", summary.Undelivered, len(jobs), opts.Out)
	}
	return nil
}

func needsStorage(out string, args []string) bool {
	if isGSURI(out) {
		return true
	}
	for _, a := range args {
		if isGSURI(a) {
			return true
		}
	}
	return false
}

// collectInputs reads every argument in order. A gs:// URI naming a .pdf
// object reads that object; any other gs:// URI is treated as a prefix.
func collectInputs(ctx context.Context, client *storage.Client, args []string) ([]models.InputFile, error) {
	var files []models.InputFile
	for _, arg := range args {
		if !isGSURI(arg) {
			local, err := services.FromPaths([]string{arg})
			if err != nil {
				return nil, err
			}
			files = append(files, local...)
			continue
		}

		bucket, prefix, err := gcp.ParseGSURI(arg)
		if err != nil {
			return nil, err
		}
		if gcp.IsPDFObject(prefix, "") {
			f, err := gcp.ReadObject(ctx, client, bucket, prefix)
			if err != nil {
				return nil, err
			}
			files = append(files, f)
			continue
		}
		remote, err := gcp.ReadPrefix(ctx, client, bucket, prefix)
		if err != nil {
			return nil, err
		}
		files = append(files, remote...)
	}
	return files, nil
}

func newEmitter(client *storage.Client, out string) (services.Emitter, error) {
	if !isGSURI(out) {
		return services.DirEmitter{Dir: out}, nil
	}
	bucket, prefix, err := gcp.ParseGSURI(out)
	if err != nil {
		return nil, err
	}
	return gcp.NewBucketEmitter(client, bucket, prefix), nil
}
