package detect

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Page is the extracted text of one document page. Err carries an upstream
// extraction failure; such pages never produce a stopover.
type Page struct {
	Index int
	Text  string
	Err   error
}

// Skipped reports whether the page has nothing to scan.
func (p Page) Skipped() bool {
	return p.Err != nil || strings.TrimSpace(p.Text) == ""
}

// Scan runs Match over every page in order and returns one Stopover per
// matching page. Repeated codes are kept.
func Scan(pages []Page) []Stopover {
	out := make([]Stopover, 0)
	for _, p := range pages {
		if s, ok := scanPage(p); ok {
			out = append(out, s)
		}
	}
	return out
}

// ScanConcurrent produces the same result as Scan with up to workers pages
// matched at once.
func ScanConcurrent(ctx context.Context, pages []Page, workers int) ([]Stopover, error) {
	if workers <= 1 || len(pages) < 2 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return Scan(pages), nil
	}

	found := make([]*Stopover, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range pages {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if s, ok := scanPage(pages[i]); ok {
				found[i] = &s
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Stopover, 0)
	for _, s := range found {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out, nil
}

// Codes returns the distinct codes of a result in first-seen order.
func Codes(stopovers []Stopover) []string {
	seen := make(map[string]struct{}, len(stopovers))
	codes := make([]string, 0, len(stopovers))
	for _, s := range stopovers {
		if _, ok := seen[s.Code]; ok {
			continue
		}
		seen[s.Code] = struct{}{}
		codes = append(codes, s.Code)
	}
	return codes
}

// Find returns the stopover found on pageIndex.
func Find(stopovers []Stopover, pageIndex int) (Stopover, bool) {
	for _, s := range stopovers {
		if s.PageIndex == pageIndex {
			return s, true
		}
	}
	return Stopover{}, false
}

func scanPage(p Page) (Stopover, bool) {
	if p.Skipped() {
		return Stopover{}, false
	}
	code, ok := Match(p.Text)
	if !ok {
		return Stopover{}, false
	}
	return Stopover{Code: code, PageIndex: p.Index}, true
}
