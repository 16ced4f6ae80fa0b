package pdfdoc

import (
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"time"
)

// DefaultThreshold is the number of non-whitespace runes a sample must
// reach for a document to count as text-based.
const DefaultThreshold = 300

var whitespaceRegex = regexp.MustCompile(`\s+`)

// PageProbe captures the result of probing a single PDF page.
type PageProbe struct {
	PageIndex int    `json:"page_index"`
	CharCount int    `json:"char_count"`
	Err       string `json:"err,omitempty"`
}

// Diagnostics describes a text-extractability check. Scanned documents
// without a text layer can never produce stopovers.
type Diagnostics struct {
	FilePath           string      `json:"file_path"`
	TotalPages         int         `json:"total_pages"`
	SampledPages       []int       `json:"sampled_pages"`
	TotalCharsInSample int         `json:"total_chars_in_sample"`
	Threshold          int         `json:"threshold"`
	Probes             []PageProbe `json:"probes"`
	HasExtractableText bool        `json:"has_extractable_text"`
	DurationMs         int64       `json:"duration_ms"`
}

// HasExtractableText samples up to five pages (first, middle, last and
// random ones) and sums their non-whitespace runes. A non-positive
// threshold uses DefaultThreshold.
func (e *Extractor) HasExtractableText(path string, threshold int) (bool, *Diagnostics, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	start := time.Now()
	doc, err := e.opener.Open(path)
	if err != nil {
		return false, nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	total := doc.NumPage()
	diag := &Diagnostics{FilePath: path, TotalPages: total, SampledPages: []int{}, Threshold: threshold}
	if total <= 0 {
		diag.DurationMs = time.Since(start).Milliseconds()
		return false, diag, nil
	}

	diag.SampledPages = sampleIndices(total, rand.New(rand.NewSource(time.Now().UnixNano())))
	for _, idx := range diag.SampledPages {
		probe := PageProbe{PageIndex: idx}
		text, err := pageText(doc, idx)
		if err != nil {
			probe.Err = err.Error()
			diag.Probes = append(diag.Probes, probe)
			continue
		}
		probe.CharCount = len([]rune(whitespaceRegex.ReplaceAllString(text, "")))
		diag.TotalCharsInSample += probe.CharCount
		diag.Probes = append(diag.Probes, probe)
		if diag.TotalCharsInSample >= threshold {
			break
		}
	}

	diag.HasExtractableText = diag.TotalCharsInSample >= threshold
	diag.DurationMs = time.Since(start).Milliseconds()
	return diag.HasExtractableText, diag, nil
}

// sampleIndices returns every page for short documents, otherwise first,
// middle, last and two random distinct pages, sorted.
func sampleIndices(total int, rnd *rand.Rand) []int {
	if total <= 0 {
		return []int{}
	}
	if total <= 5 {
		idx := make([]int, total)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}

	base := map[int]struct{}{0: {}, total / 2: {}, total - 1: {}}
	for len(base) < 5 {
		base[rnd.Intn(total)] = struct{}{}
	}
	out := make([]int, 0, len(base))
	for i := range base {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
