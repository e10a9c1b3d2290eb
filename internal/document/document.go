package document

import "fmt"

// Source is a parsed input file that pages can point back to.
// Codecs create sources on load; the model never inspects Content.
type Source struct {
	Content   []byte
	PageCount int
}

// Page is a single page of a Document. A Page is a value: copying it into
// another Document yields an independent entry.
type Page struct {
	source *Source
	index  int
}

// BlankPage returns a page with no content and default dimensions.
func BlankPage() Page {
	return Page{}
}

// IsBlank reports whether the page is a BlankPage.
func (p Page) IsBlank() bool {
	return p.source == nil
}

// Source returns the source the page was copied from, or nil for a blank page.
func (p Page) Source() *Source {
	return p.source
}

// Index returns the zero-based index of the page within its source.
// It is -1 for a blank page.
func (p Page) Index() int {
	if p.source == nil {
		return -1
	}
	return p.index
}

// Document is an ordered sequence of pages.
type Document struct {
	pages []Page
}

// New returns an empty Document.
func New() *Document {
	return &Document{}
}

// FromSource returns a Document holding every page of src in order.
func FromSource(src *Source) *Document {
	doc := &Document{pages: make([]Page, 0, src.PageCount)}
	for i := 0; i < src.PageCount; i++ {
		doc.pages = append(doc.pages, Page{source: src, index: i})
	}
	return doc
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return len(d.pages)
}

// Pages returns a copy of the document's pages.
func (d *Document) Pages() []Page {
	out := make([]Page, len(d.pages))
	copy(out, d.pages)
	return out
}

// CopyPages returns copies of the pages at the given indices, in the order
// requested. The source document is left untouched.
func (d *Document) CopyPages(indices ...int) ([]Page, error) {
	out := make([]Page, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(d.pages) {
			return nil, fmt.Errorf("copy page %d of %d: %w", i, len(d.pages), ErrIndex)
		}
		out = append(out, d.pages[i])
	}
	return out, nil
}

// AppendPage appends a copy of p at the end of the document.
func (d *Document) AppendPage(p Page) {
	d.pages = append(d.pages, p)
}

// AppendBlank appends a new BlankPage at the end of the document.
func (d *Document) AppendBlank() {
	d.pages = append(d.pages, BlankPage())
}
