package filetype

import (
	"errors"
	"fmt"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

const pdfMIME = "application/pdf"

// ErrNotPDF is returned when the content of a file is not a PDF document.
var ErrNotPDF = errors.New("not a PDF document")

// Info contains detected file type information
type Info struct {
	MIMEType  string `json:"mime_type"`
	Extension string `json:"extension"`
	Size      int64  `json:"size"`
}

// IsPDF reports whether the detected content is a PDF.
func (i *Info) IsPDF() bool { return i.MIMEType == pdfMIME }

// Detect detects the actual file type using magic bytes, not the filename.
func Detect(path string) (*Info, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if !st.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}
	info := &Info{MIMEType: mtype.String(), Extension: mtype.Extension(), Size: st.Size()}
	log.Debug().Str("mime", info.MIMEType).Str("ext", info.Extension).Str("file", path).Msg("detected file type")
	return info, nil
}

// ValidatePDF checks that path is a regular file whose content is a PDF,
// whatever its extension.
func ValidatePDF(path string) (*Info, error) {
	info, err := Detect(path)
	if err != nil {
		return nil, err
	}
	if !info.IsPDF() {
		return info, fmt.Errorf("%w: detected %s", ErrNotPDF, info.MIMEType)
	}
	return info, nil
}
