package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Lllllllleong/pdfinterleaver/internal/document"
	"github.com/Lllllllleong/pdfinterleaver/internal/models"
)

// Codec parses and serializes documents.
type Codec interface {
	Load(ctx context.Context, content []byte) (*document.Document, error)
	Save(ctx context.Context, doc *document.Document) ([]byte, error)
}

// TransformResult is the outcome of a successful transform.
type TransformResult struct {
	Artifact  models.Artifact
	PageCount int
}

// Transformer inserts a blank page after every page of a single file.
// Calls share no state and may run concurrently.
type Transformer struct {
	codec  Codec
	naming NamingStrategy
	now    func() time.Time
}

// NewTransformer creates a Transformer using codec and the naming strategy.
func NewTransformer(codec Codec, naming NamingStrategy) *Transformer {
	return &Transformer{codec: codec, naming: naming, now: time.Now}
}

// Transform loads file, interleaves blank pages and serializes the result.
func (t *Transformer) Transform(ctx context.Context, file models.InputFile) (*TransformResult, error) {
	input, err := t.codec.Load(ctx, file.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file.Name, err)
	}

	output := document.New()
	for i := 0; i < input.PageCount(); i++ {
		pages, err := input.CopyPages(i)
		if err != nil {
			return nil, fmt.Errorf("failed to copy page %d of %s: %w", i, file.Name, err)
		}
		output.AppendPage(pages[0])
		output.AppendBlank()
	}

	content, err := t.codec.Save(ctx, output)
	if err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", file.Name, err)
	}

	return &TransformResult{
		Artifact: models.Artifact{
			Filename: t.naming.OutputName(file.Name, t.now()),
			Content:  content,
		},
		PageCount: input.PageCount(),
	}, nil
}
