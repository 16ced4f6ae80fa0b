package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"math"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"
)

// Bounds used when Options leaves them unset.
const (
	DefaultMaxWidth  = 1200
	DefaultMaxHeight = 800
	DefaultQuality   = 85
)

// Options controls preview rendering.
type Options struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
	Gray      bool
}

func (o Options) withDefaults() Options {
	if o.MaxWidth <= 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.MaxHeight <= 0 {
		o.MaxHeight = DefaultMaxHeight
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	return o
}

// Image is an encoded page preview.
type Image struct {
	JPEG   []byte
	Width  int
	Height int
}

// Renderer renders PDF pages with MuPDF.
type Renderer struct {
	opts Options
}

// NewRenderer returns a Renderer with opts, defaults filled in.
func NewRenderer(opts Options) *Renderer {
	return &Renderer{opts: opts.withDefaults()}
}

// Render draws pageNumber (1-based) of the PDF at pdfPath scaled to fit
// the configured box and encodes it as JPEG.
func (r *Renderer) Render(pdfPath string, pageNumber int) (*Image, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if pageNumber < 1 || pageNumber > doc.NumPage() {
		return nil, fmt.Errorf("invalid page number %d (document has %d pages)", pageNumber, doc.NumPage())
	}

	// go-fitz reports bounds in points, i.e. at 72 DPI.
	bounds, err := doc.Bound(pageNumber - 1)
	if err != nil {
		return nil, fmt.Errorf("failed to read bounds of page %d: %w", pageNumber, err)
	}
	dpi := 72 * FitZoom(bounds.Dx(), bounds.Dy(), r.opts.MaxWidth, r.opts.MaxHeight)

	img, err := doc.ImageDPI(pageNumber-1, dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", pageNumber, err)
	}

	out, err := Encode(img, r.opts.Quality, r.opts.Gray)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Int("page", pageNumber).
		Int("width", out.Width).
		Int("height", out.Height).
		Float64("dpi", dpi).
		Int("jpeg_size", len(out.JPEG)).
		Msg("rendered page preview")
	return out, nil
}

// RenderPage renders one page with opts without keeping a Renderer.
func RenderPage(pdfPath string, pageNumber int, opts Options) (*Image, error) {
	return NewRenderer(opts).Render(pdfPath, pageNumber)
}

// FitZoom returns the scale that fits a w x h page inside maxW x maxH.
// Degenerate pages render at scale 1.
func FitZoom(w, h, maxW, maxH int) float64 {
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return 1
	}
	return math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
}

// Encode converts img to JPEG, optionally in grayscale.
func Encode(img image.Image, quality int, gray bool) (*Image, error) {
	bounds := img.Bounds()
	final := img
	if gray {
		g := image.NewGray(bounds)
		draw.Draw(g, bounds, img, bounds.Min, draw.Src)
		final = g
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, final, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return &Image{JPEG: buf.Bytes(), Width: bounds.Dx(), Height: bounds.Dy()}, nil
}
