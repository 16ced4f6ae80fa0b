package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, Message{Subject: "x"}.Validate(), ErrNoRecipients)
	assert.NoError(t, Message{BCC: []string{"audit@example.com"}}.Validate())

	err := Message{To: []string{"ops@example.com", "not an address"}}.Validate()
	assert.ErrorContains(t, err, "not an address")
}

func TestCompose(t *testing.T) {
	dir := t.TempDir()
	att := filepath.Join(dir, "Bilan_Enquete_Satisfaction_CDG.pdf")
	payload := bytes.Repeat([]byte("%PDF-1.4 payload "), 20)
	require.NoError(t, os.WriteFile(att, payload, 0o644))

	date := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	raw, err := Compose(Message{
		From:        "reports@example.com",
		To:          []string{"ops@cdg.example.com"},
		CC:          []string{"lead@example.com"},
		Subject:     "Rapport d’escale - CDG",
		Body:        "Bonjour,\nCordialement,",
		Attachments: []string{att},
	}, date, "<id@test>")
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "ops@cdg.example.com", msg.Header.Get("To"))
	assert.Equal(t, "lead@example.com", msg.Header.Get("Cc"))
	assert.Empty(t, msg.Header.Get("Bcc"))
	assert.Equal(t, "1", msg.Header.Get("X-Unsent"))

	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Rapport d’escale - CDG", subject)

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	mr := multipart.NewReader(msg.Body, params["boundary"])
	bodyPart, err := mr.NextPart()
	require.NoError(t, err)
	// NextPart strips the quoted-printable transfer encoding itself.
	text, err := io.ReadAll(bodyPart)
	require.NoError(t, err)
	assert.Equal(t, "Bonjour,\r\nCordialement,", string(text))

	attPart, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "Bilan_Enquete_Satisfaction_CDG.pdf", attPart.FileName())
	encoded, err := io.ReadAll(attPart)
	require.NoError(t, err)
	decoded, err := decodeBase64Lines(string(encoded))
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)

	_, err = mr.NextPart()
	assert.ErrorIs(t, err, io.EOF)
}

func TestCompose_MissingAttachment(t *testing.T) {
	_, err := Compose(Message{To: []string{"a@example.com"}, Attachments: []string{"/nonexistent/file.pdf"}}, time.Now(), "<id>")
	assert.ErrorContains(t, err, "read attachment")
}

func TestFileName(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "20260301T100000.000Z_CDG.eml", fileName(at, "CDG"))
	assert.Equal(t, "20260301T100000.000Z_a_b.eml", fileName(at, "a/b"))
	assert.Equal(t, "20260301T100000.000Z_message.eml", fileName(at, ""))
}

func TestOutbox_Send(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outbox")
	o := NewOutbox(dir)
	o.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }

	err := o.Send(context.Background(), Message{To: []string{"ops@example.com"}, Subject: "Rapport", Body: "hi", Tag: "CDG"})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "20260301T100000.000Z_CDG.eml"), o.LastPath())
	raw, err := os.ReadFile(o.LastPath())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "To: ops@example.com\r\n")
	assert.NoError(t, o.CheckWritable())

	err = o.Send(context.Background(), Message{Subject: "nobody"})
	assert.ErrorIs(t, err, ErrNoRecipients)
}

type recordingMailer struct {
	sent []Message
	err  error
}

func (r *recordingMailer) Send(_ context.Context, m Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, m)
	return nil
}

type fakeUploader struct {
	keys   []string
	bodies []string
	err    error
}

func (f *fakeUploader) Upload(_ context.Context, key string, body io.Reader, contentType string, _ map[string]string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, _ := io.ReadAll(body)
	f.keys = append(f.keys, key)
	f.bodies = append(f.bodies, string(b))
	return "s3://bucket/" + key, nil
}

func TestArchiving(t *testing.T) {
	next := &recordingMailer{}
	up := &fakeUploader{}
	a := NewArchiving(next, up)
	a.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }

	m := Message{To: []string{"ops@example.com"}, Subject: "Rapport", Tag: "ORY"}
	require.NoError(t, a.Send(context.Background(), m))
	require.Len(t, next.sent, 1)
	assert.Equal(t, []string{"2026/03/01/20260301T100000.000Z_ORY.eml"}, up.keys)
	assert.True(t, strings.Contains(up.bodies[0], "Subject: Rapport"))
}

func TestArchiving_SendFailureSkipsUpload(t *testing.T) {
	up := &fakeUploader{}
	a := NewArchiving(&recordingMailer{err: errors.New("smtp down")}, up)

	err := a.Send(context.Background(), Message{To: []string{"ops@example.com"}})
	assert.ErrorContains(t, err, "smtp down")
	assert.Empty(t, up.keys)
}

func TestArchiving_UploadFailureIsNotFatal(t *testing.T) {
	next := &recordingMailer{}
	a := NewArchiving(next, &fakeUploader{err: errors.New("access denied")})

	assert.NoError(t, a.Send(context.Background(), Message{To: []string{"ops@example.com"}}))
	assert.Len(t, next.sent, 1)
}

func decodeBase64Lines(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(strings.NewReplacer("\r", "", "\n", "").Replace(s))
}
