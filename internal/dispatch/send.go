package dispatch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/stopoverdispatch/internal/attachment"
	"github.com/local/stopoverdispatch/internal/mailer"
	"github.com/local/stopoverdispatch/internal/metrics"
	"github.com/local/stopoverdispatch/internal/store"
)

// SendStatus is the outcome of one stopover in a batch.
type SendStatus string

const (
	StatusSuccess SendStatus = "SUCCESS"
	StatusFailed  SendStatus = "FAILED"
	StatusSkipped SendStatus = "SKIPPED"
)

// SendResult reports what happened to one stopover.
type SendResult struct {
	Code      string     `json:"code"`
	PageIndex int        `json:"page_index"`
	Status    SendStatus `json:"status"`
	Reason    string     `json:"reason,omitempty"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}

// Send prepares and sends the message for the stopover on pageIndex.
func (s *Service) Send(ctx context.Context, jobID string, pageIndex int) (*SendResult, error) {
	job, err := s.deps.Jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return s.send(ctx, job, pageIndex)
}

func (s *Service) send(ctx context.Context, job *store.Job, pageIndex int) (*SendResult, error) {
	st, ok := job.Stopover(pageIndex)
	if !ok {
		return nil, fmt.Errorf("%w %d of job %s", ErrNoStopover, pageIndex+1, job.ID)
	}
	d := s.Draft(job, st)
	if !d.Sendable() {
		metrics.IncMessage("refused")
		return nil, &UnmappedError{Code: st.Code}
	}
	release, ok := s.deps.Inflight.Allow(st.Code)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSendInProgress, st.Code)
	}
	defer release()

	dir := s.deps.AttachmentDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create attachment dir: %w", err)
	}
	// Each send gets its own directory so equal codes never collide.
	workDir, err := os.MkdirTemp(dir, "attach-*")
	if err != nil {
		return nil, fmt.Errorf("create attachment dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	att, err := s.deps.CreateAttachment(job.FilePath, st, workDir)
	if err != nil {
		metrics.IncMessage("failed")
		return nil, fmt.Errorf("create attachment for %s: %w", st.Code, err)
	}
	defer attachment.Cleanup(att)

	msg := mailer.Message{
		From:        s.deps.From,
		To:          d.Recipients.To,
		CC:          d.Recipients.CC,
		BCC:         d.Recipients.BCC,
		Subject:     d.Subject,
		Body:        d.Body,
		Attachments: []string{att},
		Tag:         st.Code,
	}
	if err := s.deps.Mailer.Send(ctx, msg); err != nil {
		metrics.IncMessage("failed")
		log.Error().Err(err).Str("job_id", job.ID).Str("code", st.Code).Int("page", st.PageNumber()).Msg("send failed")
		return nil, fmt.Errorf("send %s: %w", st.Code, err)
	}

	sentAt := s.now().UTC().Truncate(time.Second)
	if err := s.deps.Config.SetLastSent(st.Code, sentAt); err != nil {
		log.Warn().Err(err).Str("code", st.Code).Msg("failed to record last sent time")
	}
	metrics.IncMessage("success")
	log.Info().Str("job_id", job.ID).Str("code", st.Code).Int("page", st.PageNumber()).Strs("to", msg.To).Msg("message sent")
	return &SendResult{Code: st.Code, PageIndex: st.PageIndex, Status: StatusSuccess, SentAt: &sentAt}, nil
}

// SendAll sends every enabled, mapped stopover of a job. Failures are
// reported per stopover and do not stop the batch; only a cancelled ctx
// ends it early.
func (s *Service) SendAll(ctx context.Context, jobID string) ([]SendResult, error) {
	job, err := s.deps.Jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	results := make([]SendResult, 0, len(job.Stopovers))
	for _, st := range job.Stopovers {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		d := s.Draft(job, st)
		switch {
		case !d.Enabled:
			results = append(results, SendResult{Code: st.Code, PageIndex: st.PageIndex, Status: StatusSkipped, Reason: "disabled"})
			continue
		case !d.Sendable():
			results = append(results, SendResult{Code: st.Code, PageIndex: st.PageIndex, Status: StatusSkipped, Reason: "no recipients"})
			continue
		}

		res, err := s.send(ctx, job, st.PageIndex)
		if err != nil {
			results = append(results, SendResult{Code: st.Code, PageIndex: st.PageIndex, Status: StatusFailed, Reason: err.Error()})
			continue
		}
		results = append(results, *res)
	}

	log.Info().Str("job_id", job.ID).Int("stopovers", len(job.Stopovers)).Msg("batch send finished")
	return results, nil
}
