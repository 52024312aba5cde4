package cache

// Outcome classifies the result of a resilient cache lookup.
//
// Production code treats Miss and BackendError identically (the value is
// absent); the distinction exists so that callers and tests can observe
// whether absence came from a true miss or a failing backend.
type Outcome int

const (
	// OutcomeHit means the key was present and the value was read.
	OutcomeHit Outcome = iota
	// OutcomeMiss means the key was absent from a healthy backend.
	OutcomeMiss
	// OutcomeBackendError means the backend failed; the value is absent.
	OutcomeBackendError
)

// String returns the outcome name for logging and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeHit:
		return "hit"
	case OutcomeMiss:
		return "miss"
	case OutcomeBackendError:
		return "backend_error"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of a resilient cache lookup.
type Result struct {
	// Outcome classifies the lookup.
	Outcome Outcome

	// Value is the cached payload; set only when Outcome is OutcomeHit.
	Value []byte

	// Err is the backend failure; set only when Outcome is OutcomeBackendError.
	Err error
}

// Hit constructs a hit result carrying the cached value.
func Hit(value []byte) Result {
	return Result{Outcome: OutcomeHit, Value: value}
}

// Miss constructs a miss result.
func Miss() Result {
	return Result{Outcome: OutcomeMiss}
}

// BackendError constructs a backend-error result carrying the cause.
func BackendError(err error) Result {
	return Result{Outcome: OutcomeBackendError, Err: err}
}

// Present reports whether the lookup produced a value.
func (r Result) Present() bool {
	return r.Outcome == OutcomeHit
}
