package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddJob(t *testing.T) {
	s := New(zerolog.Nop())
	var runs atomic.Int32
	job := JobFunc("count", func(context.Context) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, s.AddJob("@every 1s", job))
	assert.Error(t, s.AddJob("not a schedule", job))

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}

func TestRunNow(t *testing.T) {
	s := New(zerolog.Nop())
	boom := errors.New("boom")
	err := s.RunNow(JobFunc("fail", func(context.Context) error { return boom }))
	assert.ErrorIs(t, err, boom)

	s.Stop()
	err = s.RunNow(JobFunc("ctx", func(ctx context.Context) error { return ctx.Err() }))
	assert.ErrorIs(t, err, context.Canceled)
}
