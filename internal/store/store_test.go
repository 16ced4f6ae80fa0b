package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/stopoverdispatch/internal/detect"
)

func sampleJob() *Job {
	return &Job{
		ID:         "job-1",
		FilePath:   "/tmp/report.pdf",
		FileName:   "report.pdf",
		TotalPages: 3,
		Stopovers:  []detect.Stopover{{Code: "CDG", PageIndex: 1}, {Code: "ORY", PageIndex: 2}},
		Unmapped:   []string{"ORY"},
		CreatedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestMemory_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)

	job := sampleJob()
	require.NoError(t, m.Save(ctx, job))

	// Mutating the caller's copy does not leak into the store.
	job.Stopovers[0].Code = "XXX"

	got, err := m.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "CDG", got.Stopovers[0].Code)
	assert.Equal(t, []string{"ORY"}, got.Unmapped)
	assert.True(t, got.CreatedAt.Equal(job.CreatedAt))

	s, ok := got.Stopover(2)
	assert.True(t, ok)
	assert.Equal(t, "ORY", s.Code)
	_, ok = got.Stopover(0)
	assert.False(t, ok)

	require.NoError(t, m.Delete(ctx, "job-1"))
	_, err = m.Get(ctx, "job-1")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Hour)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Save(ctx, sampleJob()))
	_, err := m.Get(ctx, "job-1")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = m.Get(ctx, "job-1")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestJobKey(t *testing.T) {
	assert.Equal(t, "stopover:job:abc", jobKey("abc"))
}
