package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs atomic.Int32
	err  error
	done chan struct{}
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("missing deadline")
	}
	if j.done != nil {
		j.done <- struct{}{}
	}
	return j.err
}

func TestScheduler_AddRejectsBadSpec(t *testing.T) {
	s := NewScheduler(nil, nil)
	err := s.Add("not a cron", &countingJob{})
	assert.ErrorContains(t, err, "counting")
}

func TestScheduler_Next(t *testing.T) {
	s := NewScheduler(nil, nil)
	require.NoError(t, s.Add("0 6 * * 1", &countingJob{}))
	require.NoError(t, s.Add("@daily", &countingJob{}))

	s.Start()
	defer s.Stop()

	next := s.Next()
	require.Len(t, next, 2)
	for _, n := range next {
		assert.True(t, n.After(time.Now()))
	}
}

func TestScheduler_RunNow(t *testing.T) {
	s := NewScheduler(nil, nil)
	job := &countingJob{done: make(chan struct{}, 1)}

	s.RunNow(job)
	select {
	case <-job.done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
	assert.Equal(t, int32(1), job.runs.Load())
}

func TestScheduler_RunLogsFailure(t *testing.T) {
	s := NewScheduler(nil, nil)
	job := &countingJob{err: errors.New("boom")}

	assert.NotPanics(t, func() { s.run(job) })
	assert.Equal(t, int32(1), job.runs.Load())
}
