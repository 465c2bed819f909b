package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJobState_Valid(t *testing.T) {
	for _, s := range []JobState{JobStatePending, JobStateProcessing, JobStateFailed, JobStateCompleted, JobStateDead} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, JobState("bogus").Valid())
}

func TestJobState_Terminal(t *testing.T) {
	assert.True(t, JobStateCompleted.Terminal())
	assert.True(t, JobStateDead.Terminal())
	assert.False(t, JobStatePending.Terminal())
	assert.False(t, JobStateProcessing.Terminal())
	assert.False(t, JobStateFailed.Terminal())
}

func TestNewJobState(t *testing.T) {
	s, err := NewJobState("pending")
	assert.NoError(t, err)
	assert.Equal(t, JobStatePending, s)

	_, err = NewJobState("bogus")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestJob_Eligible(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	pending := Job{State: JobStatePending}
	assert.True(t, pending.Eligible(now))

	dueFailed := Job{State: JobStateFailed, RunAt: now.Add(-time.Minute)}
	assert.True(t, dueFailed.Eligible(now))

	notYetDueFailed := Job{State: JobStateFailed, RunAt: now.Add(time.Minute)}
	assert.False(t, notYetDueFailed.Eligible(now))

	processing := Job{State: JobStateProcessing}
	assert.False(t, processing.Eligible(now))

	completed := Job{State: JobStateCompleted}
	assert.False(t, completed.Eligible(now))

	dead := Job{State: JobStateDead}
	assert.False(t, dead.Eligible(now))
}
