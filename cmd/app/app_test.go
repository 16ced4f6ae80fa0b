package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/stopoverdispatch/internal/appconfig"
	"github.com/local/stopoverdispatch/internal/dispatch"
	"github.com/local/stopoverdispatch/internal/filetype"
	"github.com/local/stopoverdispatch/internal/mapping"
)

type cli struct {
	t      *testing.T
	dir    string
	config string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("LOG_FILE", filepath.Join(dir, "logs", "test.log"))
	t.Setenv("OUTBOX_DIR", filepath.Join(dir, "outbox"))
	t.Setenv("REDIS_URL", "")
	t.Setenv("AWS_S3_BUCKET", "")
	return &cli{t: t, dir: dir, config: filepath.Join(dir, "app_config.json")}
}

func (c *cli) run(args ...string) (string, error) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	base := []string{"--config", c.config, "--env-file", filepath.Join(c.dir, "missing.env"), "--no-color"}
	root.SetArgs(append(base, args...))
	err := root.Execute()
	return out.String(), err
}

func (c *cli) state() *appconfig.Store {
	st, err := appconfig.Open(c.config)
	require.NoError(c.t, err)
	return st
}

func TestMappingCommands(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("mapping", "set", "cdg", "--to", "ops@cdg.example.com", "--cc", "lead@example.com")
	require.NoError(t, err)
	_, err = c.run("mapping", "add", "CDG", "audit@example.com", "--bcc")
	require.NoError(t, err)

	r := mapping.ResolveRecipients("CDG", c.state().Mappings())
	assert.Equal(t, []string{"ops@cdg.example.com"}, r.To)
	assert.Equal(t, []string{"lead@example.com"}, r.CC)
	assert.Equal(t, []string{"audit@example.com"}, r.BCC)

	out, err := c.run("mapping", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "CDG")
	assert.Contains(t, out, "lead@example.com")
	assert.Contains(t, out, "audit@example.com")

	out, err = c.run("mapping", "add", "CDG", "audit@example.com", "--bcc")
	require.NoError(t, err)
	assert.Contains(t, out, "already has")

	_, err = c.run("mapping", "remove", "CDG", "audit@example.com")
	require.NoError(t, err)
	assert.Empty(t, mapping.ResolveRecipients("CDG", c.state().Mappings()).BCC)

	_, err = c.run("mapping", "remove", "CDG")
	require.NoError(t, err)
	assert.Empty(t, c.state().Mappings())

	_, err = c.run("mapping", "remove", "CDG")
	assert.ErrorIs(t, err, appconfig.ErrNotFound)
}

func TestMappingSet_RejectsBadCode(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("mapping", "set", "CD1", "--to", "ops@example.com")
	assert.ErrorIs(t, err, mapping.ErrInvalidCode)
}

func TestMappingAdd_ExclusiveHeaders(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("mapping", "add", "CDG", "ops@example.com", "--cc", "--bcc")
	assert.Error(t, err)
	assert.Empty(t, c.state().Mappings())
}

func TestTemplateCommands(t *testing.T) {
	c := newCLI(t)

	out, err := c.run("template", "set", "--subject", "Escale {CODE} du {DATE}")
	require.NoError(t, err)
	assert.Contains(t, out, "template saved")
	assert.Contains(t, out, "{DATE}")

	body := filepath.Join(c.dir, "body.txt")
	require.NoError(t, os.WriteFile(body, []byte("Bonjour {{stopover_code}}"), 0o644))
	_, err = c.run("template", "set", "--body-file", body)
	require.NoError(t, err)

	out, err = c.run("template", "show", "--code", "ory")
	require.NoError(t, err)
	assert.Contains(t, out, "Subject: Escale ORY du {DATE}")
	assert.Contains(t, out, "Bonjour ORY")

	_, err = c.run("template", "set")
	assert.ErrorContains(t, err, "nothing to change")
}

func TestScan_RejectsNonPDF(t *testing.T) {
	c := newCLI(t)
	path := filepath.Join(c.dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("CDG-Bilan objectifs"), 0o644))

	_, err := c.run("scan", path)
	assert.ErrorIs(t, err, filetype.ErrNotPDF)
}

func TestSend_RejectsBadCode(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("send", "report.pdf", "--code", "12")
	assert.ErrorIs(t, err, mapping.ErrInvalidCode)
}

func TestPrintResults(t *testing.T) {
	setupUI(true)
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)

	printResults(root, []dispatch.SendResult{
		{Code: "CDG", PageIndex: 0, Status: dispatch.StatusSuccess},
		{Code: "ORY", PageIndex: 3, Status: dispatch.StatusSkipped, Reason: "no recipients"},
	})
	assert.Contains(t, out.String(), "SUCCESS  CDG page 1")
	assert.Contains(t, out.String(), "SKIPPED  ORY page 4  (no recipients)")
}

func TestRecipientsLine(t *testing.T) {
	d := dispatch.Draft{Recipients: mapping.Recipients{To: []string{"a@x.io"}, CC: []string{"b@x.io"}, BCC: []string{"c@x.io"}}}
	assert.Equal(t, "a@x.io, cc:b@x.io, bcc:c@x.io", recipientsLine(d))
	assert.Equal(t, "(none)", recipientsLine(dispatch.Draft{}))
}
