package statuscheck

import (
	"context"
	"errors"
	"time"
)

// RedisPinger models the minimal Redis capability we need for status checks.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to RedisPinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// BucketChecker reports whether the archive bucket is reachable.
type BucketChecker interface {
	HeadBucket(ctx context.Context) error
}

// WritableChecker reports whether a directory accepts new files.
type WritableChecker interface {
	CheckWritable() error
}

// Checker aggregates health checks for the collaborators of the service.
type Checker struct {
	redis     RedisPinger
	bucket    BucketChecker
	outbox    WritableChecker
	pdfEngine string
}

// Options configures the Checker. Nil collaborators are reported as not
// configured.
type Options struct {
	Redis     RedisPinger
	Bucket    BucketChecker
	Outbox    WritableChecker
	PDFEngine string
}

// Status represents the readiness of a subsystem.
type Status struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Summary bundles all subsystem statuses.
type Summary struct {
	Redis     Status `json:"redis"`
	S3        Status `json:"s3"`
	Outbox    Status `json:"outbox"`
	PDFEngine Status `json:"pdf_engine"`
}

// Healthy reports whether every configured subsystem is ready.
func (s Summary) Healthy() bool {
	for _, st := range []Status{s.Redis, s.S3, s.Outbox, s.PDFEngine} {
		if !st.OK && st.Message != notConfigured {
			return false
		}
	}
	return true
}

const notConfigured = "Not configured"

func New(opts Options) *Checker {
	return &Checker{
		redis:     opts.Redis,
		bucket:    opts.Bucket,
		outbox:    opts.Outbox,
		pdfEngine: opts.PDFEngine,
	}
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
	return Summary{
		Redis:     c.checkRedis(ctx),
		S3:        c.checkS3(ctx),
		Outbox:    c.checkOutbox(),
		PDFEngine: c.checkPDFEngine(),
	}
}

func (c *Checker) checkRedis(ctx context.Context) Status {
	if c.redis == nil {
		return Status{OK: false, Message: notConfigured}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.redis.Ping(ctx); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkS3(ctx context.Context) Status {
	if c.bucket == nil {
		return Status{OK: false, Message: notConfigured}
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.bucket.HeadBucket(ctx); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkOutbox() Status {
	if c.outbox == nil {
		return Status{OK: false, Message: notConfigured}
	}
	if err := c.outbox.CheckWritable(); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: "Writable"}
}

func (c *Checker) checkPDFEngine() Status {
	if c.pdfEngine == "" {
		return Status{OK: false, Message: notConfigured}
	}
	return Status{OK: true, Message: c.pdfEngine}
}

func trimError(err error) string {
	if err == nil {
		return ""
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	msg := err.Error()
	if len(msg) > 120 {
		return msg[:120]
	}
	return msg
}
