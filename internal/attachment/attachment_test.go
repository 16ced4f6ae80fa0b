package attachment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/stopoverdispatch/internal/detect"
	"github.com/local/stopoverdispatch/internal/testpdf"
)

func TestName(t *testing.T) {
	assert.Equal(t, "Bilan_Enquete_Satisfaction_CDG.pdf", Name("CDG"))
}

func TestPageCount(t *testing.T) {
	dir := t.TempDir()
	path := testpdf.Write(t, dir, "report.pdf", "intro", "CDG-Bilan objectifs", "ORY-Bilan objectifs")

	n, err := PageCount(path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	bogus := filepath.Join(dir, "bogus.pdf")
	require.NoError(t, os.WriteFile(bogus, []byte("not a pdf"), 0o644))
	_, err = PageCount(bogus)
	assert.ErrorContains(t, err, "pdf page count failed")
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()
	src := testpdf.Write(t, dir, "report.pdf", "intro", "CDG-Bilan objectifs", "ORY-Bilan objectifs")
	outDir := filepath.Join(dir, "out", "nested")

	out, err := Create(src, detect.Stopover{Code: "ORY", PageIndex: 2}, outDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "Bilan_Enquete_Satisfaction_ORY.pdf"), out)

	n, err := PageCount(out)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCreate_OutOfRange(t *testing.T) {
	dir := t.TempDir()
	src := testpdf.Write(t, dir, "report.pdf", "only page")

	_, err := Create(src, detect.Stopover{Code: "CDG", PageIndex: 1}, dir)
	assert.ErrorContains(t, err, "out of range")
	assert.NoFileExists(t, filepath.Join(dir, Name("CDG")))
}

func TestCleanup(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pdf")
	require.NoError(t, os.WriteFile(a, []byte("x"), 0o644))

	Cleanup(a, filepath.Join(dir, "missing.pdf"), "")
	assert.NoFileExists(t, a)
}
