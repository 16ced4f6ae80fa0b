// Package attachment cuts the single-page PDF attached to each stopover
// report.
package attachment

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"

	"github.com/local/stopoverdispatch/internal/detect"
)

const namePrefix = "Bilan_Enquete_Satisfaction_"

// Name is the attachment file name for code.
func Name(code string) string {
	return namePrefix + code + ".pdf"
}

// PageCount returns the number of pages of the PDF at path.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("pdf page count failed: %w", err)
	}
	return n, nil
}

// Create writes the stopover page of pdfPath as a one-page PDF named
// after the stopover code into outDir and returns its path.
func Create(pdfPath string, s detect.Stopover, outDir string) (string, error) {
	total, err := PageCount(pdfPath)
	if err != nil {
		return "", err
	}
	if s.PageIndex < 0 || s.PageIndex >= total {
		return "", fmt.Errorf("page %d out of range (document has %d pages)", s.PageNumber(), total)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create attachment dir: %w", err)
	}

	out := filepath.Join(outDir, Name(s.Code))
	conf := model.NewDefaultConfiguration()
	if err := api.TrimFile(pdfPath, out, []string{strconv.Itoa(s.PageNumber())}, conf); err != nil {
		_ = os.Remove(out)
		return "", fmt.Errorf("extract page %d: %w", s.PageNumber(), err)
	}

	log.Debug().Str("code", s.Code).Int("page", s.PageNumber()).Str("file", out).Msg("created attachment")
	return out, nil
}

// Cleanup removes the given files, logging failures.
func Cleanup(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", p).Msg("failed to remove attachment")
		}
	}
}
