package dispatch

import (
	"context"
	"time"

	"github.com/local/stopoverdispatch/internal/appconfig"
	"github.com/local/stopoverdispatch/internal/attachment"
	"github.com/local/stopoverdispatch/internal/detect"
	"github.com/local/stopoverdispatch/internal/mapping"
	"github.com/local/stopoverdispatch/internal/render"
	"github.com/local/stopoverdispatch/internal/store"
)

// Draft is the message prepared for one detected stopover.
type Draft struct {
	Code           string             `json:"code"`
	PageIndex      int                `json:"page_index"`
	PageNumber     int                `json:"page_number"`
	Recipients     mapping.Recipients `json:"recipients"`
	Subject        string             `json:"subject"`
	Body           string             `json:"body"`
	AttachmentName string             `json:"attachment_name"`
	Enabled        bool               `json:"enabled"`
	LastSent       *time.Time         `json:"last_sent,omitempty"`
	Warnings       []string           `json:"warnings"`
}

// Sendable reports whether the draft has somewhere to go.
func (d Draft) Sendable() bool { return !d.Recipients.Empty() }

// Drafts prepares a draft for every stopover of a job, in page order.
func (s *Service) Drafts(ctx context.Context, jobID string) ([]Draft, error) {
	job, err := s.deps.Jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	snap := s.deps.Config.Snapshot()
	out := make([]Draft, 0, len(job.Stopovers))
	for _, st := range job.Stopovers {
		out = append(out, draftFrom(snap, st))
	}
	return out, nil
}

// Draft prepares the draft for one stopover of job with the current
// configuration.
func (s *Service) Draft(job *store.Job, st detect.Stopover) Draft {
	return draftFrom(s.deps.Config.Snapshot(), st)
}

func draftFrom(snap appconfig.State, st detect.Stopover) Draft {
	subject, body := render.Render(render.Effective(snap.Templates), st.Code)
	d := Draft{
		Code:           st.Code,
		PageIndex:      st.PageIndex,
		PageNumber:     st.PageNumber(),
		Recipients:     mapping.ResolveRecipients(st.Code, snap.Mappings),
		Subject:        subject,
		Body:           body,
		AttachmentName: attachment.Name(st.Code),
		Warnings:       []string{},
	}
	for _, c := range snap.Stopovers {
		if c == st.Code {
			d.Enabled = true
			break
		}
	}
	if v, ok := snap.LastSent[st.Code]; ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			d.LastSent = &t
		}
	}
	if d.Recipients.Empty() {
		d.Warnings = append(d.Warnings, "unmapped")
	}
	if !d.Enabled {
		d.Warnings = append(d.Warnings, "disabled")
	}
	return d
}
