package scrape

import "errors"

var (
	// ErrSubmission means the job could not be created (bad URL, unreachable
	// host, disallowed domain). Nothing was polled.
	ErrSubmission = errors.New("could not start website import")

	// ErrMalformedResult means the server reported completion without the
	// preview or the data payload.
	ErrMalformedResult = errors.New("website import finished without results")

	// ErrScrapeFailed means the server reported the job as failed.
	ErrScrapeFailed = errors.New("website import failed")

	// ErrConnectionLost means polling gave up after too many consecutive
	// network failures. The job may still be running server-side.
	ErrConnectionLost = errors.New("lost connection while checking import progress; the import may still be running, refresh to check again instead of resubmitting")

	ErrCancelled  = errors.New("website import cancelled")
	ErrBusy       = errors.New("a website import is already running")
	ErrNotStarted = errors.New("no website import started")
)

// fallbackFailure is shown when a failed job carries no error text.
const fallbackFailure = "website scan failed"
