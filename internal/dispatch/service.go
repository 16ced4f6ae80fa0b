package dispatch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/stopoverdispatch/internal/appconfig"
	"github.com/local/stopoverdispatch/internal/attachment"
	"github.com/local/stopoverdispatch/internal/detect"
	"github.com/local/stopoverdispatch/internal/filetype"
	"github.com/local/stopoverdispatch/internal/limiter"
	"github.com/local/stopoverdispatch/internal/mailer"
	"github.com/local/stopoverdispatch/internal/mapping"
	"github.com/local/stopoverdispatch/internal/metrics"
	"github.com/local/stopoverdispatch/internal/pdfdoc"
	"github.com/local/stopoverdispatch/internal/preview"
	"github.com/local/stopoverdispatch/internal/store"
)

// Extractor yields the text of every page of a PDF.
type Extractor interface {
	Pages(ctx context.Context, path string, progress pdfdoc.ProgressFunc) ([]detect.Page, error)
}

// textChecker is implemented by extractors that can tell scanned
// documents from text documents.
type textChecker interface {
	HasExtractableText(path string, threshold int) (bool, *pdfdoc.Diagnostics, error)
}

// Previewer renders a 1-based page of a PDF.
type Previewer interface {
	Render(path string, pageNumber int) (*preview.Image, error)
}

// Dependencies wires the service. Jobs, Config, Extractor and Mailer are
// required; the function fields default to the real implementations.
type Dependencies struct {
	Extractor Extractor
	Jobs      store.JobStore
	Config    *appconfig.Store
	Mailer    mailer.Mailer
	Previewer Previewer

	ValidatePDF      func(path string) error
	CountPages       func(path string) (int, error)
	CreateAttachment func(pdfPath string, s detect.Stopover, outDir string) (string, error)

	// Inflight guards against two concurrent sends of one stopover.
	Inflight *limiter.Inflight

	From          string
	AttachmentDir string
	Workers       int
}

// Service analyses stopover reports and sends the per-stopover messages.
type Service struct {
	deps Dependencies
	now  func() time.Time
}

func New(deps Dependencies) *Service {
	if deps.ValidatePDF == nil {
		deps.ValidatePDF = func(path string) error {
			_, err := filetype.ValidatePDF(path)
			return err
		}
	}
	if deps.CountPages == nil {
		deps.CountPages = attachment.PageCount
	}
	if deps.CreateAttachment == nil {
		deps.CreateAttachment = attachment.Create
	}
	if deps.Inflight == nil {
		deps.Inflight = limiter.New(1)
	}
	if deps.Workers < 1 {
		deps.Workers = 1
	}
	return &Service{deps: deps, now: time.Now}
}

// Analyze runs detection over the PDF at path and stores the result as a
// new job.
func (s *Service) Analyze(ctx context.Context, path string) (*store.Job, error) {
	return s.AnalyzeWithProgress(ctx, path, nil)
}

// AnalyzeWithProgress is Analyze reporting extraction progress.
func (s *Service) AnalyzeWithProgress(ctx context.Context, path string, progress pdfdoc.ProgressFunc) (*store.Job, error) {
	start := time.Now()
	if err := s.deps.ValidatePDF(path); err != nil {
		return nil, err
	}
	total, err := s.deps.CountPages(path)
	if err != nil {
		return nil, err
	}

	pages, err := s.deps.Extractor.Pages(ctx, path, progress)
	if err != nil {
		return nil, fmt.Errorf("extract pages: %w", err)
	}
	if len(pages) != total {
		log.Warn().Str("file", path).Int("counted", total).Int("extracted", len(pages)).Msg("page count mismatch")
	}

	var found []detect.Stopover
	if s.deps.Workers > 1 {
		found, err = detect.ScanConcurrent(ctx, pages, s.deps.Workers)
		if err != nil {
			return nil, err
		}
	} else {
		found = detect.Scan(pages)
	}

	job := &store.Job{
		ID:         uuid.NewString(),
		FilePath:   path,
		FileName:   filepath.Base(path),
		TotalPages: total,
		Stopovers:  found,
		Unmapped:   mapping.Unmapped(found, s.deps.Config.Mappings()),
		Warnings:   []string{},
		CreatedAt:  s.now().UTC(),
	}
	for _, code := range job.Unmapped {
		job.Warnings = append(job.Warnings, (&UnmappedError{Code: code}).Error())
		metrics.IncUnmapped(code)
	}
	if len(found) == 0 {
		if tc, ok := s.deps.Extractor.(textChecker); ok {
			if has, _, err := tc.HasExtractableText(path, 0); err == nil && !has {
				job.Warnings = append(job.Warnings, "document has no extractable text, it may be a scan")
			}
		}
	}

	skipped := 0
	for _, p := range pages {
		if p.Skipped() {
			skipped++
		}
	}
	metrics.ObservePages(len(found), len(pages)-len(found)-skipped, skipped)
	for _, st := range found {
		metrics.IncDetected(st.Code)
	}

	if err := s.deps.Jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}
	metrics.ObserveAnalysis(time.Since(start))
	log.Info().
		Str("job_id", job.ID).
		Str("file", path).
		Int("pages", total).
		Int("stopovers", len(found)).
		Strs("unmapped", job.Unmapped).
		Dur("duration", time.Since(start)).
		Msg("analysis complete")
	return job, nil
}

// Job returns a stored job.
func (s *Service) Job(ctx context.Context, id string) (*store.Job, error) {
	return s.deps.Jobs.Get(ctx, id)
}

// Preview renders the page of a job's document as JPEG.
func (s *Service) Preview(ctx context.Context, jobID string, pageIndex int) (*preview.Image, error) {
	job, err := s.deps.Jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if s.deps.Previewer == nil {
		return nil, fmt.Errorf("preview rendering is not configured")
	}
	if pageIndex < 0 || pageIndex >= job.TotalPages {
		return nil, fmt.Errorf("%w: page %d (document has %d pages)", ErrPageOutOfRange, pageIndex+1, job.TotalPages)
	}
	return s.deps.Previewer.Render(job.FilePath, pageIndex+1)
}
