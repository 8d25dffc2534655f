package scrape

import "encoding/json"

// State is the poller's lifecycle position.
type State string

const (
	StateIdle           State = "idle"
	StateSubmitting     State = "submitting"
	StatePolling        State = "polling"
	StateSucceeded      State = "succeeded"
	StateFailed         State = "failed"
	StateConnectionLost State = "connection-lost"
	StateCancelled      State = "cancelled"
)

// Terminal reports whether no further automatic transition can happen.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateConnectionLost, StateCancelled:
		return true
	}
	return false
}

// Result is the payload of a successful import.
type Result struct {
	JobID    string
	Platform string
	Preview  json.RawMessage
	Data     json.RawMessage
}

// Snapshot is an immutable copy of the poller state handed to observers.
type Snapshot struct {
	State State
	JobID string
	URL   string

	// Status is the last server-reported job status.
	Status string
	// Progress never decreases during one job and is 100 once completed.
	Progress int
	Message  string

	// Attempt counts successful non-terminal polls.
	Attempt int
	// NetworkFailures counts consecutive failed poll requests.
	NetworkFailures int
	// LongWait is an advisory hint that the import is taking longer than usual.
	LongWait bool

	Result *Result
	Err    error
}
