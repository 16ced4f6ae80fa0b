package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNoRecipients is returned for a message without To, Cc or Bcc.
var ErrNoRecipients = errors.New("message has no recipients")

// Mailer hands a prepared message to a mail transport.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// Message is a prepared report mail. Tag names the message in file names
// and archive keys, usually the stopover code.
type Message struct {
	From        string   `json:"from,omitempty"`
	To          []string `json:"to"`
	CC          []string `json:"cc,omitempty"`
	BCC         []string `json:"bcc,omitempty"`
	Subject     string   `json:"subject"`
	Body        string   `json:"body"`
	Attachments []string `json:"attachments,omitempty"`
	Tag         string   `json:"tag,omitempty"`
}

// Validate checks that the message has a recipient and that every
// address parses.
func (m Message) Validate() error {
	if len(m.To)+len(m.CC)+len(m.BCC) == 0 {
		return ErrNoRecipients
	}
	var bad []string
	for _, list := range [][]string{m.To, m.CC, m.BCC} {
		for _, a := range list {
			if _, err := mail.ParseAddress(a); err != nil {
				bad = append(bad, a)
			}
		}
	}
	if m.From != "" {
		if _, err := mail.ParseAddress(m.From); err != nil {
			bad = append(bad, m.From)
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("invalid address: %s", strings.Join(bad, ", "))
	}
	return nil
}

// Compose renders m as an RFC 5322 draft: a multipart/mixed message with
// a quoted-printable text body and base64 attachments. The X-Unsent header
// makes mail clients open it as an editable draft.
func Compose(m Message, date time.Time, messageID string) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
		}
	}
	h("From", m.From)
	h("To", strings.Join(m.To, ", "))
	h("Cc", strings.Join(m.CC, ", "))
	h("Bcc", strings.Join(m.BCC, ", "))
	h("Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	h("Date", date.Format(time.RFC1123Z))
	h("Message-ID", messageID)
	h("X-Unsent", "1")
	h("MIME-Version", "1.0")
	h("Content-Type", "multipart/mixed; boundary="+mw.Boundary())
	buf.WriteString("\r\n")

	body, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=utf-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, err
	}
	qp := quotedprintable.NewWriter(body)
	if _, err := qp.Write([]byte(strings.ReplaceAll(m.Body, "\n", "\r\n"))); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}

	for _, path := range m.Attachments {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read attachment: %w", err)
		}
		name := filepath.Base(path)
		ctype := mime.TypeByExtension(filepath.Ext(name))
		if ctype == "" {
			ctype = "application/octet-stream"
		}
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {mime.FormatMediaType(ctype, map[string]string{"name": name})},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": name})},
			"Content-Transfer-Encoding": {"base64"},
		})
		if err != nil {
			return nil, err
		}
		if err := writeBase64Lines(part, data); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeBase64Lines(w io.Writer, data []byte) error {
	enc := base64.StdEncoding.EncodeToString(data)
	for len(enc) > 76 {
		if _, err := w.Write([]byte(enc[:76] + "\r\n")); err != nil {
			return err
		}
		enc = enc[76:]
	}
	_, err := w.Write([]byte(enc + "\r\n"))
	return err
}

func newMessageID() string {
	return "<" + uuid.NewString() + "@stopoverdispatch>"
}

// fileName builds a sortable, filesystem-safe name for a message.
func fileName(at time.Time, tag string) string {
	tag = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, tag)
	if tag == "" {
		tag = "message"
	}
	return at.UTC().Format("20060102T150405.000Z") + "_" + tag + ".eml"
}
