package pdfdoc

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/local/stopoverdispatch/internal/detect"
)

// ProgressFunc is told how many pages are done out of total.
type ProgressFunc func(done, total int)

// Extractor turns a PDF file into scanner input.
type Extractor struct {
	opener Opener
}

// NewExtractor returns an Extractor over opener, or the go-fitz opener
// when nil.
func NewExtractor(opener Opener) *Extractor {
	if opener == nil {
		opener = DefaultOpener()
	}
	return &Extractor{opener: opener}
}

// Pages extracts every page in order. A page that fails to extract is
// returned with Err set so the scanner skips it; only failing to open the
// document or a cancelled ctx aborts.
func (e *Extractor) Pages(ctx context.Context, path string, progress ProgressFunc) ([]detect.Page, error) {
	doc, err := e.opener.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	total := doc.NumPage()
	pages := make([]detect.Page, 0, total)
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := detect.Page{Index: i}
		p.Text, p.Err = pageText(doc, i)
		if p.Err != nil {
			log.Warn().Err(p.Err).Str("file", path).Int("page", i+1).Msg("failed to extract text from page")
		}
		pages = append(pages, p)
		if progress != nil {
			progress(i+1, total)
		}
	}

	log.Debug().Str("file", path).Int("pages", total).Msg("extracted page texts")
	return pages, nil
}

// PageText extracts a single page; pageIndex is 0-based.
func (e *Extractor) PageText(path string, pageIndex int) (string, error) {
	doc, err := e.opener.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()
	if pageIndex < 0 || pageIndex >= doc.NumPage() {
		return "", fmt.Errorf("page %d out of range (document has %d pages)", pageIndex+1, doc.NumPage())
	}
	return pageText(doc, pageIndex)
}

func pageText(doc Doc, i int) (string, error) {
	page, err := doc.Page(i)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", i+1, err)
	}
	defer page.Close()
	text, err := page.Text()
	if err != nil {
		return "", fmt.Errorf("text page %d: %w", i+1, err)
	}
	return text, nil
}
