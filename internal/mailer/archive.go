package mailer

import (
	"bytes"
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/stopoverdispatch/internal/storage"
)

// Archiving uploads a copy of every successfully sent message. Archive
// failures are logged and never fail the send.
type Archiving struct {
	next Mailer
	up   storage.Uploader
	now  func() time.Time
}

func NewArchiving(next Mailer, up storage.Uploader) *Archiving {
	return &Archiving{next: next, up: up, now: time.Now}
}

func (a *Archiving) Send(ctx context.Context, m Message) error {
	if err := a.next.Send(ctx, m); err != nil {
		return err
	}

	now := a.now()
	raw, err := Compose(m, now, newMessageID())
	if err != nil {
		log.Warn().Err(err).Str("tag", m.Tag).Msg("failed to compose archive copy")
		return nil
	}
	key := storage.JoinKey(now.UTC().Format("2006/01/02"), fileName(now, m.Tag))
	meta := map[string]string{"tag": m.Tag}
	if _, err := a.up.Upload(ctx, key, bytes.NewReader(raw), "message/rfc822", meta); err != nil {
		log.Warn().Err(err).Str("key", key).Str("tag", m.Tag).Msg("failed to archive sent message")
	}
	return nil
}
