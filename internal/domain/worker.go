package domain

import "time"

// WorkerRegistration records that a Worker process is (or, if stale,
// recently was) alive. Removed on graceful shutdown; a force-killed worker
// leaves its row behind, which spec.md accepts as a tolerated limitation
// rather than something the core reconciles automatically.
type WorkerRegistration struct {
	WorkerID  string
	PID       int
	StartedAt time.Time
}
