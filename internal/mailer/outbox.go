package mailer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Outbox writes each message as an .eml draft into a directory watched by
// the mail client.
type Outbox struct {
	dir string
	now func() time.Time

	mu   sync.Mutex
	last string
}

func NewOutbox(dir string) *Outbox {
	return &Outbox{dir: dir, now: time.Now}
}

// Dir returns the outbox directory.
func (o *Outbox) Dir() string { return o.dir }

// LastPath returns the file written by the most recent successful Send.
func (o *Outbox) LastPath() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

func (o *Outbox) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}
	now := o.now()
	raw, err := Compose(m, now, newMessageID())
	if err != nil {
		return fmt.Errorf("compose message: %w", err)
	}
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return fmt.Errorf("create outbox: %w", err)
	}

	path := filepath.Join(o.dir, fileName(now, m.Tag))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write draft: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write draft: %w", err)
	}

	o.mu.Lock()
	o.last = path
	o.mu.Unlock()
	log.Info().Str("file", path).Str("tag", m.Tag).Int("recipients", len(m.To)+len(m.CC)+len(m.BCC)).Msg("wrote draft to outbox")
	return nil
}

// CheckWritable creates and removes a probe file in the outbox.
func (o *Outbox) CheckWritable() error {
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(o.dir, ".probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
