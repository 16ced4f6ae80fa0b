package store

import (
	"context"
	"errors"
	"time"

	"github.com/local/stopoverdispatch/internal/detect"
)

// ErrJobNotFound is returned when a job id is unknown or expired.
var ErrJobNotFound = errors.New("job not found")

// Job is the outcome of analysing one document.
type Job struct {
	ID         string            `json:"id"`
	FilePath   string            `json:"file_path"`
	FileName   string            `json:"file_name"`
	TotalPages int               `json:"total_pages"`
	Stopovers  []detect.Stopover `json:"stopovers"`
	Unmapped   []string          `json:"unmapped"`
	Warnings   []string          `json:"warnings"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Stopover returns the stopover detected on pageIndex.
func (j *Job) Stopover(pageIndex int) (detect.Stopover, bool) {
	return detect.Find(j.Stopovers, pageIndex)
}

// JobStore keeps analysis jobs between requests.
type JobStore interface {
	Save(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	Delete(ctx context.Context, id string) error
}
