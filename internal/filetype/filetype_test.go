package filetype

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/stopoverdispatch/internal/testpdf"
)

func TestValidatePDF(t *testing.T) {
	dir := t.TempDir()

	// Content decides, not the extension.
	path := filepath.Join(dir, "report.bin")
	require.NoError(t, os.WriteFile(path, testpdf.Build([]string{"CDG-Bilan objectifs"}), 0o644))
	info, err := ValidatePDF(path)
	require.NoError(t, err)
	assert.True(t, info.IsPDF())
	assert.Equal(t, ".pdf", info.Extension)
	assert.Positive(t, info.Size)

	txt := filepath.Join(dir, "fake.pdf")
	require.NoError(t, os.WriteFile(txt, []byte("just some text\n"), 0o644))
	_, err = ValidatePDF(txt)
	assert.ErrorIs(t, err, ErrNotPDF)
	assert.ErrorContains(t, err, "text/plain")
}

func TestValidatePDF_NotAFile(t *testing.T) {
	dir := t.TempDir()

	_, err := ValidatePDF(filepath.Join(dir, "missing.pdf"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = ValidatePDF(dir)
	assert.ErrorContains(t, err, "not a regular file")
}
