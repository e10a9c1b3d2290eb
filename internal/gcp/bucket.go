package gcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/pdfinterleaver/internal/models"
	"google.golang.org/api/iterator"
)

// ReadObject downloads one object into an InputFile named after the
// object's base name.
func ReadObject(ctx context.Context, client *storage.Client, bucket, object string) (models.InputFile, error) {
	gcsReader, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return models.InputFile{}, fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, object, err)
	}
	defer gcsReader.Close()

	content, err := io.ReadAll(gcsReader)
	if err != nil {
		return models.InputFile{}, fmt.Errorf("failed to read gs://%s/%s: %w", bucket, object, err)
	}
	return models.InputFile{
		Name:     path.Base(object),
		Size:     int64(len(content)),
		MimeType: gcsReader.Attrs.ContentType,
		Content:  content,
	}, nil
}

// ListPDFObjects returns the names of every .pdf object under prefix, sorted.
func ListPDFObjects(ctx context.Context, client *storage.Client, bucket, prefix string) ([]string, error) {
	it := client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gs://%s/%s: %w", bucket, prefix, err)
		}
		if IsPDFObject(attrs.Name, attrs.ContentType) {
			names = append(names, attrs.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// ReadPrefix downloads every PDF under prefix as one ordered batch.
func ReadPrefix(ctx context.Context, client *storage.Client, bucket, prefix string) ([]models.InputFile, error) {
	names, err := ListPDFObjects(ctx, client, bucket, prefix)
	if err != nil {
		return nil, err
	}
	files := make([]models.InputFile, 0, len(names))
	for _, name := range names {
		f, err := ReadObject(ctx, client, bucket, name)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// IsPDFObject reports whether an object looks like a PDF by name or content type.
func IsPDFObject(name, contentType string) bool {
	if strings.HasSuffix(name, "/") {
		return false
	}
	if strings.EqualFold(path.Ext(name), ".pdf") {
		return true
	}
	return strings.HasPrefix(strings.ToLower(contentType), "application/pdf")
}

// BucketEmitter uploads artifacts to a Cloud Storage bucket under
// <prefix>/<batchID>/<filename>.
type BucketEmitter struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewBucketEmitter creates a BucketEmitter.
func NewBucketEmitter(client *storage.Client, bucket, prefix string) *BucketEmitter {
	return &BucketEmitter{client: client, bucket: bucket, prefix: prefix}
}

// Bucket returns the destination bucket name.
func (e *BucketEmitter) Bucket() string {
	return e.bucket
}

// Emit uploads the artifact and returns its gs:// URI.
func (e *BucketEmitter) Emit(ctx context.Context, batchID string, artifact models.Artifact) (string, error) {
	object := objectPath(e.prefix, batchID, path.Base(artifact.Filename))
	if err := UploadWithRetry(ctx, e.client.Bucket(e.bucket), object, artifact.Content, models.PDFContentType); err != nil {
		return "", err
	}
	return fmt.Sprintf("gs://%s/%s", e.bucket, object), nil
}

// WriteManifest stores the batch's job records as <prefix>/<batchID>/manifest.json.
// A manifest that already exists is left as is.
func (e *BucketEmitter) WriteManifest(ctx context.Context, batchID string, jobs []models.TransformJob) (string, error) {
	content, err := json.MarshalIndent(models.BatchResponse{BatchID: batchID, Jobs: jobs}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}
	object := objectPath(e.prefix, batchID, "manifest.json")
	if err := SaveToGCSAtomically(ctx, e.client.Bucket(e.bucket), object, content, "application/json"); err != nil {
		return "", err
	}
	return fmt.Sprintf("gs://%s/%s", e.bucket, object), nil
}
