package hierarchy

// Status is a node's lifecycle state
type Status int

const (
	// StatusUninitialized is the state of a freshly created node
	StatusUninitialized Status = iota
	// StatusInitializing is held while the node's Initialize callback runs
	StatusInitializing
	// StatusReady means the node can execute, suspend or be torn down
	StatusReady
	// StatusExecuting is held while the node's Execute callback runs
	StatusExecuting
	// StatusSuspended means the node is paused and may resume
	StatusSuspended
	// StatusError means an unrecovered failure occurred
	StatusError
	// StatusCleaning is held while the node is being torn down
	StatusCleaning
)

var statusNames = map[Status]string{
	StatusUninitialized: "uninitialized",
	StatusInitializing:  "initializing",
	StatusReady:         "ready",
	StatusExecuting:     "executing",
	StatusSuspended:     "suspended",
	StatusError:         "error",
	StatusCleaning:      "cleaning",
}

// String returns the lower-case status name
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText renders the status name
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// transitions lists the allowed moves. Error is reachable from every state
// and is handled separately in CanTransition. A node that never started may
// be discarded directly.
var transitions = map[Status][]Status{
	StatusUninitialized: {StatusInitializing, StatusCleaning},
	StatusInitializing:  {StatusReady},
	StatusReady:         {StatusExecuting, StatusSuspended, StatusCleaning},
	StatusExecuting:     {StatusReady},
	StatusSuspended:     {StatusReady, StatusCleaning},
	StatusError:         {StatusInitializing, StatusCleaning},
	StatusCleaning:      {},
}

// CanTransition reports whether a node may move from one status to another.
func CanTransition(from, to Status) bool {
	if to == StatusError {
		return true
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Health summarises a node's runtime condition
type Health string

const (
	HealthHealthy   Health = "healthy"
	HealthDegraded  Health = "degraded"
	HealthUnhealthy Health = "unhealthy"
)

func deriveHealth(status Status, errorCount int) Health {
	switch {
	case status == StatusError:
		return HealthUnhealthy
	case errorCount > 0:
		return HealthDegraded
	default:
		return HealthHealthy
	}
}
