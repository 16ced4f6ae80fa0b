// Package pdfdoc extracts per-page text from PDF files for the stopover
// scanner. The PDF engine sits behind Opener so callers and tests can swap
// it; the default is MuPDF through go-fitz.
package pdfdoc

// Doc abstracts an open PDF document.
type Doc interface {
	NumPage() int
	Page(i int) (Page, error)
	Close() error
}

// Page abstracts a single PDF page.
type Page interface {
	Text() (string, error)
	Close()
}

// Opener abstracts opening a PDF path into a Doc.
type Opener interface {
	Open(path string) (Doc, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(path string) (Doc, error)

func (f OpenerFunc) Open(path string) (Doc, error) { return f(path) }

// DefaultOpener returns the go-fitz backed opener.
func DefaultOpener() Opener { return fitzOpener{} }
