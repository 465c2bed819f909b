package domain

import (
	"strings"
	"time"
)

// JobState is a value object enumerating the closed set of states a Job can
// occupy. It is a small state machine, not an open string: every transition
// between states is expressed as an explicit Store operation rather than an
// ad-hoc field assignment.
type JobState string

const (
	JobStatePending    JobState = "pending"
	JobStateProcessing JobState = "processing"
	JobStateFailed     JobState = "failed"
	JobStateCompleted  JobState = "completed"
	JobStateDead       JobState = "dead"
)

// NewJobState validates and normalizes a state string (case-insensitive)
// into a JobState. Used when parsing the --state flag and other external
// input; internal code that already holds a JobState should not re-validate.
func NewJobState(s string) (JobState, error) {
	state := JobState(strings.ToLower(s))
	if !state.Valid() {
		return "", ErrInvalidState
	}
	return state, nil
}

// Valid reports whether s is one of the five recognized job states.
func (s JobState) Valid() bool {
	switch s {
	case JobStatePending, JobStateProcessing, JobStateFailed, JobStateCompleted, JobStateDead:
		return true
	default:
		return false
	}
}

// Terminal reports whether a job in this state is never claimed again.
func (s JobState) Terminal() bool {
	return s == JobStateCompleted || s == JobStateDead
}

func (s JobState) String() string {
	return string(s)
}

// Job is the central entity of the queue: a shell command plus the
// scheduling metadata the Store needs to dispatch it at most once and
// retry it with exponential backoff on failure.
type Job struct {
	ID         string
	Command    string
	State      JobState
	Attempts   int
	MaxRetries int

	// RunAt is the earliest time the job is eligible for claim. For a
	// freshly enqueued job this equals CreatedAt; for a FAILED job it is
	// the time of the failure pushed forward by the backoff formula.
	RunAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// StartedAt is non-nil only while the job is PROCESSING (or was most
	// recently PROCESSING); other states may leave it nil.
	StartedAt *time.Time

	// ClaimedBy is the worker ID that most recently claimed this job.
	// Non-empty only meaningfully while PROCESSING; left stale afterwards
	// for audit purposes.
	ClaimedBy string

	// LastError holds a short description of the most recent failure:
	// exit code plus a truncated stderr tail. Empty if the job has never
	// failed.
	LastError string
}

// Eligible reports whether the job can be claimed at the given instant,
// per spec: PENDING, or FAILED with RunAt <= now.
func (j Job) Eligible(now time.Time) bool {
	switch j.State {
	case JobStatePending:
		return true
	case JobStateFailed:
		return !j.RunAt.After(now)
	default:
		return false
	}
}

// JobSpec carries the client-supplied fields for enqueue. ID and MaxRetries
// are optional; Command is required and must be non-empty after trimming.
type JobSpec struct {
	ID         string
	Command    string
	MaxRetries *int
}
