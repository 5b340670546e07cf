package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmoretti/sibyl/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	ran      chan struct{}
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }
func (j *fakeJob) Run(ctx context.Context) error {
	select {
	case j.ran <- struct{}{}:
	default:
	}
	return nil
}

func TestAddJob_DuplicateName(t *testing.T) {
	s := New(logger.NewNop())

	first := &fakeJob{name: "sync", schedule: "@daily", ran: make(chan struct{}, 1)}
	require.NoError(t, s.AddJob(first))

	second := &fakeJob{name: "sync", schedule: "@hourly", ran: make(chan struct{}, 1)}
	err := s.AddJob(second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestAddJob_InvalidSchedule(t *testing.T) {
	s := New(logger.NewNop())

	job := &fakeJob{name: "broken", schedule: "not a cron expression", ran: make(chan struct{}, 1)}
	require.Error(t, s.AddJob(job))
}

func TestRunJob_Immediate(t *testing.T) {
	s := New(logger.NewNop())

	job := &fakeJob{name: "sync", schedule: "@daily", ran: make(chan struct{}, 1)}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("sync"))

	select {
	case <-job.ran:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestRunJob_Unknown(t *testing.T) {
	s := New(logger.NewNop())
	require.Error(t, s.RunJob("missing"))
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	assert.Nil(t, h.LastResult())
	assert.Equal(t, 0.0, h.SuccessRate())

	h.AddResult(JobResult{JobName: "sync", Success: true})
	h.AddResult(JobResult{JobName: "sync", Success: false, Error: "boom"})

	require.NotNil(t, h.LastResult())
	assert.Equal(t, "boom", h.LastResult().Error)
	assert.InDelta(t, 0.5, h.SuccessRate(), 1e-9)
}

func TestJobHistory_Capped(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < historyLimit+20; i++ {
		h.AddResult(JobResult{JobName: "sync", Success: true})
	}
	assert.Len(t, h.Results, historyLimit)
}
