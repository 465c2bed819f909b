package domain

import "errors"

// ErrorKind classifies a core error into the closed set spec.md §7 defines.
// Every error the core returns maps to exactly one kind, and every kind maps
// to exactly one CLI exit code, so cmd/queuectl has a single place that
// decides os.Exit and never re-derives it from error text.
type ErrorKind int

const (
	// KindNone is the zero value: no error. Kind returns it only for a nil
	// error; unclassified errors map to KindStoreUnavailable.
	KindNone ErrorKind = iota
	KindValidation
	KindDuplicateID
	KindNotFound
	KindInvalidTransition
	KindStoreBusy
	KindStoreUnavailable
)

// ExitCode returns the CLI exit code spec.md §6 assigns to this kind.
// KindStoreBusy never reaches the CLI (workers absorb it internally) but is
// given a code for completeness and for direct Store callers in tests.
func (k ErrorKind) ExitCode() int {
	switch k {
	case KindNone:
		return 0
	case KindValidation:
		return 1
	case KindDuplicateID, KindNotFound, KindInvalidTransition, KindStoreUnavailable:
		return 2
	case KindStoreBusy:
		return 2
	default:
		return 2
	}
}

// Sentinel errors returned by the Store and ControlAPI. Callers use
// errors.Is against these, never string matching.
var (
	ErrValidation        = errors.New("validation error")
	ErrInvalidState      = errors.New("unknown job state")
	ErrDuplicateID       = errors.New("duplicate job id")
	ErrNotFound          = errors.New("job not found")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrNotDead           = errors.New("job is not in the dead state")
	ErrStoreBusy         = errors.New("store busy: could not acquire write lock")
	ErrStoreUnavailable  = errors.New("store unavailable")
)

// Kind classifies err into an ErrorKind by walking its error chain against
// the sentinel errors above. Unrecognized errors are treated as operational
// (KindStoreUnavailable) since the core never raises anything else.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidState):
		return KindValidation
	case errors.Is(err, ErrDuplicateID):
		return KindDuplicateID
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrNotDead):
		return KindInvalidTransition
	case errors.Is(err, ErrStoreBusy):
		return KindStoreBusy
	default:
		return KindStoreUnavailable
	}
}
