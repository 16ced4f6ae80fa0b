package pdfdoc

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/stopoverdispatch/internal/detect"
)

type fakeDoc struct {
	texts  []string
	fail   map[int]error
	closed bool
}

func (d *fakeDoc) NumPage() int { return len(d.texts) }

func (d *fakeDoc) Page(i int) (Page, error) {
	if err := d.fail[i]; err != nil {
		return nil, err
	}
	return fakePage(d.texts[i]), nil
}

func (d *fakeDoc) Close() error { d.closed = true; return nil }

type fakePage string

func (p fakePage) Text() (string, error) { return string(p), nil }
func (p fakePage) Close()                {}

func openerFor(doc *fakeDoc) Opener {
	return OpenerFunc(func(string) (Doc, error) { return doc, nil })
}

func TestPages_ExtractsInOrder(t *testing.T) {
	doc := &fakeDoc{texts: []string{"random text", "CDG-Bilan report, objectifs reached", "no bilan here"}}
	var progress []int
	pages, err := NewExtractor(openerFor(doc)).Pages(context.Background(), "doc.pdf", func(done, total int) {
		assert.Equal(t, 3, total)
		progress = append(progress, done)
	})
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, []int{1, 2, 3}, progress)
	assert.True(t, doc.closed)

	assert.Equal(t, []detect.Stopover{{Code: "CDG", PageIndex: 1}}, detect.Scan(pages))
}

func TestPages_FailedPageIsMarked(t *testing.T) {
	boom := errors.New("broken xref")
	doc := &fakeDoc{
		texts: []string{"CDG-Bilan objectifs", "ORY-Bilan objectifs"},
		fail:  map[int]error{0: boom},
	}
	pages, err := NewExtractor(openerFor(doc)).Pages(context.Background(), "doc.pdf", nil)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.ErrorIs(t, pages[0].Err, boom)
	assert.NoError(t, pages[1].Err)

	assert.Equal(t, []detect.Stopover{{Code: "ORY", PageIndex: 1}}, detect.Scan(pages))
}

func TestPages_OpenError(t *testing.T) {
	ex := NewExtractor(OpenerFunc(func(string) (Doc, error) { return nil, errors.New("not a pdf") }))
	_, err := ex.Pages(context.Background(), "x.pdf", nil)
	assert.ErrorContains(t, err, "failed to open PDF")
}

func TestPages_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewExtractor(openerFor(&fakeDoc{texts: []string{"a"}})).Pages(ctx, "doc.pdf", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPageText(t *testing.T) {
	ex := NewExtractor(openerFor(&fakeDoc{texts: []string{"one", "two"}}))
	text, err := ex.PageText("doc.pdf", 1)
	require.NoError(t, err)
	assert.Equal(t, "two", text)

	_, err = ex.PageText("doc.pdf", 2)
	assert.ErrorContains(t, err, "out of range")
}

func TestHasExtractableText(t *testing.T) {
	long := strings.Repeat("objectifs ", 40)
	ok, diag, err := NewExtractor(openerFor(&fakeDoc{texts: []string{long}})).HasExtractableText("doc.pdf", 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, DefaultThreshold, diag.Threshold)
	assert.Equal(t, 360, diag.TotalCharsInSample)

	ok, diag, err = NewExtractor(openerFor(&fakeDoc{texts: []string{" \n ", ""}})).HasExtractableText("scan.pdf", 10)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []int{0, 1}, diag.SampledPages)

	ok, diag, err = NewExtractor(openerFor(&fakeDoc{})).HasExtractableText("empty.pdf", 10)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, diag.SampledPages)
}

func TestSampleIndices(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	assert.Equal(t, []int{0, 1, 2}, sampleIndices(3, rnd))

	got := sampleIndices(40, rnd)
	require.Len(t, got, 5)
	assert.Contains(t, got, 0)
	assert.Contains(t, got, 20)
	assert.Contains(t, got, 39)
	assert.IsIncreasing(t, got)
}
