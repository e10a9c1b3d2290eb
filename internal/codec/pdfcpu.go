// Package codec parses and serializes PDF documents with pdfcpu.
//
// Load turns raw bytes into a document.Document whose pages point back at
// the parsed source. Save materializes a Document: its source pages are
// collected in order and blank pages are inserted next to them.
package codec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/Lllllllleong/pdfinterleaver/internal/document"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Config holds codec settings.
type Config struct {
	// BlankPageSize names the paper size of inserted blank pages (e.g. "A4",
	// "Letter"). Empty selects DefaultBlankPageSize.
	BlankPageSize string
	// Optimize runs pdfcpu's optimizer over every saved document.
	Optimize bool
}

// DefaultBlankPageSize is the paper size of blank pages when none is
// configured. Blank pages never take the size of the page they follow.
const DefaultBlankPageSize = "Letter"

// PDFCodec implements document loading and saving on top of pdfcpu.
// It is safe for concurrent use; every call works on its own pdfcpu context.
type PDFCodec struct {
	blankPage *pdfcpu.PageConfiguration
	optimize  bool
}

// New creates a PDFCodec from cfg.
func New(cfg Config) (*PDFCodec, error) {
	size := cfg.BlankPageSize
	if size == "" {
		size = DefaultBlankPageSize
	}
	dim, ok := types.PaperSize[size]
	if !ok {
		return nil, fmt.Errorf("unknown blank page size %q", size)
	}
	return &PDFCodec{
		optimize: cfg.Optimize,
		blankPage: &pdfcpu.PageConfiguration{
			PageDim:  dim,
			PageSize: size,
			UserDim:  true,
			InpUnit:  types.POINTS,
		},
	}, nil
}

// newConfiguration returns a fresh pdfcpu configuration. pdfcpu writes to the
// configuration while processing, so it is never shared between calls.
func newConfiguration() *model.Configuration {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return cfg
}

// Load parses content into a Document holding every page of the input.
func (c *PDFCodec) Load(ctx context.Context, content []byte) (*document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pdfCtx, err := api.ReadContext(bytes.NewReader(content), newConfiguration())
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w: %w", document.ErrParse, err)
	}
	if err := api.ValidateContext(pdfCtx); err != nil {
		return nil, fmt.Errorf("failed to validate PDF: %w: %w", document.ErrParse, err)
	}
	src := &document.Source{Content: content, PageCount: pdfCtx.PageCount}
	return document.FromSource(src), nil
}

// Save serializes doc to PDF bytes.
func (c *PDFCodec) Save(ctx context.Context, doc *document.Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pages := doc.Pages()
	if len(pages) == 0 {
		return emptyPDF()
	}

	merged, offsets, err := mergeSources(pages)
	if err != nil {
		return nil, err
	}

	// Source pages in document order, plus how many blanks follow each one.
	var (
		selected     []string
		blanksAfter  []int
		blanksBefore int
		identity     = true
	)
	for _, p := range pages {
		if p.IsBlank() {
			if len(selected) == 0 {
				blanksBefore++
			} else {
				blanksAfter[len(blanksAfter)-1]++
			}
			continue
		}
		pageNr := offsets[p.Source()] + p.Index() + 1
		if pageNr != len(selected)+1 {
			identity = false
		}
		selected = append(selected, strconv.Itoa(pageNr))
		blanksAfter = append(blanksAfter, 0)
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("document of %d blank pages has no page to anchor on: %w", len(pages), document.ErrSerialization)
	}
	if !identity || len(selected) != totalPages(offsets) {
		var buf bytes.Buffer
		if err := api.Collect(bytes.NewReader(merged), &buf, selected, newConfiguration()); err != nil {
			return nil, fmt.Errorf("failed to collect pages: %w: %w", document.ErrSerialization, err)
		}
		merged = buf.Bytes()
	}

	out, err := c.insertAfter(merged, blanksAfter)
	if err != nil {
		return nil, err
	}
	for i := 0; i < blanksBefore; i++ {
		if out, err = c.insert(out, []string{"1"}, true); err != nil {
			return nil, err
		}
	}
	if c.optimize {
		return optimize(out)
	}
	return out, nil
}

func optimize(content []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := api.Optimize(bytes.NewReader(content), &buf, newConfiguration()); err != nil {
		return nil, fmt.Errorf("failed to optimize PDF: %w: %w", document.ErrSerialization, err)
	}
	return buf.Bytes(), nil
}

// insertAfter inserts counts[j] blank pages after page j+1 of content.
// Each pass inserts at most one blank per page, so a document with one blank
// after every page takes a single pdfcpu call.
func (c *PDFCodec) insertAfter(content []byte, counts []int) ([]byte, error) {
	for pass := 1; ; pass++ {
		var selected []string
		shift := 0
		for j, n := range counts {
			if n >= pass {
				selected = append(selected, strconv.Itoa(j+1+shift))
			}
			shift += min(n, pass-1)
		}
		if len(selected) == 0 {
			return content, nil
		}
		var err error
		if content, err = c.insert(content, selected, false); err != nil {
			return nil, err
		}
	}
}

func (c *PDFCodec) insert(content []byte, selected []string, before bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := api.InsertPages(bytes.NewReader(content), &buf, selected, before, c.blankPage, newConfiguration()); err != nil {
		return nil, fmt.Errorf("failed to insert blank pages: %w: %w", document.ErrSerialization, err)
	}
	return buf.Bytes(), nil
}

// mergeSources returns a single PDF containing every distinct source used by
// pages, along with each source's page offset in it.
func mergeSources(pages []document.Page) ([]byte, map[*document.Source]int, error) {
	offsets := make(map[*document.Source]int)
	var sources []*document.Source
	next := 0
	for _, p := range pages {
		src := p.Source()
		if src == nil {
			continue
		}
		if _, seen := offsets[src]; seen {
			continue
		}
		offsets[src] = next
		next += src.PageCount
		sources = append(sources, src)
	}
	switch len(sources) {
	case 0:
		return nil, offsets, nil
	case 1:
		return sources[0].Content, offsets, nil
	}

	readers := make([]io.ReadSeeker, 0, len(sources))
	for _, src := range sources {
		readers = append(readers, bytes.NewReader(src.Content))
	}
	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, false, newConfiguration()); err != nil {
		return nil, nil, fmt.Errorf("failed to merge sources: %w: %w", document.ErrSerialization, err)
	}
	return buf.Bytes(), offsets, nil
}

func totalPages(offsets map[*document.Source]int) int {
	total := 0
	for src := range offsets {
		total += src.PageCount
	}
	return total
}

// emptyPDF writes a document with an empty page tree.
func emptyPDF() ([]byte, error) {
	pdfCtx, err := pdfcpu.CreateContextWithXRefTable(newConfiguration(), types.PaperSize["A4"])
	if err != nil {
		return nil, fmt.Errorf("failed to create empty PDF: %w: %w", document.ErrSerialization, err)
	}
	var buf bytes.Buffer
	if err := api.WriteContext(pdfCtx, &buf); err != nil {
		return nil, fmt.Errorf("failed to write empty PDF: %w: %w", document.ErrSerialization, err)
	}
	return buf.Bytes(), nil
}
