// Package scrape drives the "Import Wedding Website" flow: it submits a
// website URL as a background scrape job and polls the job until it reaches a
// terminal state.
//
// A flaky connection is never reported as a failed import: transport errors
// while polling are retried on the normal interval and only a long run of
// consecutive failures ends the job as ErrConnectionLost. Server-declared
// terminal states are never retried.
package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/weddingkeeper/internal/client/api"
	"github.com/dmitrijs2005/weddingkeeper/internal/logging"
)

const (
	DefaultInterval           = 3 * time.Second
	DefaultSettleDelay        = 500 * time.Millisecond
	DefaultLongWaitAfter      = 17
	DefaultMaxNetworkFailures = 60
)

// Backend is the part of the API client the poller needs.
type Backend interface {
	StartScrape(ctx context.Context, websiteURL string) (string, error)
	ScrapeStatus(ctx context.Context, jobID string) (*api.ScrapeStatus, error)
}

// Options tunes polling. Zero values fall back to the defaults above.
type Options struct {
	// Interval between polls and between retries after a network failure.
	Interval time.Duration
	// SettleDelay is the pause at 100% before reporting success.
	SettleDelay time.Duration
	// LongWaitAfter is the number of non-terminal polls after which the
	// LongWait hint is raised.
	LongWaitAfter int
	// MaxNetworkFailures is the number of consecutive failed polls tolerated;
	// one more ends the job with ErrConnectionLost.
	MaxNetworkFailures int
	Scheduler          Scheduler
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.SettleDelay < 0 {
		o.SettleDelay = 0
	} else if o.SettleDelay == 0 {
		o.SettleDelay = DefaultSettleDelay
	}
	if o.LongWaitAfter <= 0 {
		o.LongWaitAfter = DefaultLongWaitAfter
	}
	if o.MaxNetworkFailures <= 0 {
		o.MaxNetworkFailures = DefaultMaxNetworkFailures
	}
	if o.Scheduler == nil {
		o.Scheduler = ClockScheduler{}
	}
	return o
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

// Poller runs one import at a time. It is safe for concurrent use.
//
// Every asynchronous continuation (poll results, the settle timer) carries
// the epoch it was started under and is dropped if the epoch has moved on,
// so nothing observed after Cancel can come from an earlier request.
type Poller struct {
	backend Backend
	logger  logging.Logger
	opts    Options

	mu           sync.Mutex
	epoch        uint64
	snap         Snapshot
	timer        Timer
	reqCtx       context.Context
	stopRequests context.CancelFunc
	pending      *Result
	done         chan struct{}

	subs        []subscriber
	nextSub     int
	queue       []Snapshot
	dispatching bool
}

func New(backend Backend, logger logging.Logger, opts Options) *Poller {
	return &Poller{
		backend: backend,
		logger:  logger,
		opts:    opts.withDefaults(),
		snap:    Snapshot{State: StateIdle},
	}
}

// Snapshot returns the current state.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Subscribe registers fn to receive every state change, in order. fn may call
// back into the poller, including Cancel. The returned func unsubscribes.
func (p *Poller) Subscribe(fn func(Snapshot)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs = append(p.subs, subscriber{id: id, fn: fn})
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, s := range p.subs {
			if s.id == id {
				p.subs = append(p.subs[:i:i], p.subs[i+1:]...)
				return
			}
		}
	}
}

// Start submits websiteURL and begins polling. It returns once the server
// has accepted (or rejected) the job; progress is reported to subscribers.
// Start is allowed from idle and from any terminal state, in which case a
// brand-new job replaces the old one.
func (p *Poller) Start(ctx context.Context, websiteURL string) (string, error) {
	p.mu.Lock()
	if s := p.snap.State; s == StateSubmitting || s == StatePolling {
		p.mu.Unlock()
		return "", ErrBusy
	}

	p.epoch++
	epoch := p.epoch

	submitCtx, stopSubmit := context.WithCancel(ctx)
	reqCtx, stopPolls := context.WithCancel(context.WithoutCancel(ctx))
	p.reqCtx = reqCtx
	p.stopRequests = func() {
		stopSubmit()
		stopPolls()
	}
	p.done = make(chan struct{})
	p.pending = nil
	p.snap = Snapshot{State: StateSubmitting, URL: websiteURL}
	p.publishLocked()
	p.mu.Unlock()
	p.dispatch()

	jobID, err := p.backend.StartScrape(submitCtx, websiteURL)
	stopSubmit()
	if err == nil && jobID == "" {
		err = errors.New("server returned no job id")
	}

	p.mu.Lock()
	if p.epoch != epoch {
		p.mu.Unlock()
		return "", ErrCancelled
	}

	if err != nil {
		subErr := fmt.Errorf("%w: %w", ErrSubmission, err)
		p.snap.State = StateFailed
		p.snap.Err = subErr
		p.finishLocked()
		p.publishLocked()
		p.mu.Unlock()
		p.dispatch()

		p.logger.Warn(ctx, "website import rejected", "url", websiteURL, "error", err)
		return "", subErr
	}

	p.snap.State = StatePolling
	p.snap.JobID = jobID
	p.snap.Status = api.StatusPending
	p.scheduleLocked(epoch, 0, p.poll)
	p.publishLocked()
	p.mu.Unlock()
	p.dispatch()

	p.logger.Info(ctx, "website import started", "job_id", jobID, "url", websiteURL)
	return jobID, nil
}

// Cancel stops polling and discards the result of any request already in
// flight. It is idempotent and safe to call from a subscriber.
func (p *Poller) Cancel() {
	p.mu.Lock()
	p.epoch++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.pending = nil
	if p.stopRequests != nil {
		p.stopRequests()
	}

	if s := p.snap.State; s == StateSubmitting || s == StatePolling {
		p.snap.State = StateCancelled
		p.snap.Err = ErrCancelled
		p.closeDoneLocked()
		p.publishLocked()
	}
	p.mu.Unlock()
	p.dispatch()
}

// Wait blocks until the current job is terminal and returns its result, or
// the error that ended it.
func (p *Poller) Wait(ctx context.Context) (*Result, error) {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if done == nil {
		return nil, ErrNotStarted
	}

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	snap := p.Snapshot()
	if snap.State == StateSucceeded {
		return snap.Result, nil
	}
	return nil, snap.Err
}

func (p *Poller) poll(epoch uint64) {
	p.mu.Lock()
	if p.epoch != epoch || p.snap.State != StatePolling {
		p.mu.Unlock()
		return
	}
	p.timer = nil
	jobID, ctx := p.snap.JobID, p.reqCtx
	p.mu.Unlock()

	st, err := p.backend.ScrapeStatus(ctx, jobID)

	p.mu.Lock()
	if p.epoch != epoch {
		// cancelled or restarted while the request was in flight
		p.mu.Unlock()
		return
	}
	switch {
	case errors.Is(err, api.ErrResponseTooLarge):
		p.snap.State = StateFailed
		p.snap.Err = fmt.Errorf("%w: %w", ErrMalformedResult, err)
		p.finishLocked()
		p.logger.Error(ctx, "website import status too large", "job_id", jobID, "error", err)
	case err != nil:
		p.networkFailureLocked(ctx, epoch, err)
	default:
		p.applyStatusLocked(ctx, epoch, st)
	}
	p.publishLocked()
	p.mu.Unlock()
	p.dispatch()
}

func (p *Poller) networkFailureLocked(ctx context.Context, epoch uint64, err error) {
	p.snap.NetworkFailures++

	if p.snap.NetworkFailures > p.opts.MaxNetworkFailures {
		p.snap.State = StateConnectionLost
		p.snap.Err = ErrConnectionLost
		p.finishLocked()
		p.logger.Error(ctx, "giving up on website import status",
			"job_id", p.snap.JobID, "failures", p.snap.NetworkFailures, "error", err)
		return
	}

	p.logger.Warn(ctx, "website import status unavailable, retrying",
		"job_id", p.snap.JobID, "failures", p.snap.NetworkFailures, "error", err)
	p.scheduleLocked(epoch, p.opts.Interval, p.poll)
}

func (p *Poller) applyStatusLocked(ctx context.Context, epoch uint64, st *api.ScrapeStatus) {
	p.snap.NetworkFailures = 0
	p.snap.Status = st.Status
	if st.Message != nil {
		p.snap.Message = *st.Message
	}

	switch st.Status {
	case api.StatusCompleted:
		if missing := missingPayload(st); missing != "" {
			p.snap.State = StateFailed
			p.snap.Err = fmt.Errorf("%w: response has no %s", ErrMalformedResult, missing)
			p.finishLocked()
			p.logger.Error(ctx, "website import completed without results", "job_id", p.snap.JobID, "missing", missing)
			return
		}
		p.snap.Progress = 100
		p.pending = &Result{
			JobID:    p.snap.JobID,
			Platform: st.Platform,
			Preview:  st.Preview,
			Data:     st.Data,
		}
		p.scheduleLocked(epoch, p.opts.SettleDelay, p.settle)

	case api.StatusFailed:
		text := fallbackFailure
		if st.Error != nil && strings.TrimSpace(*st.Error) != "" {
			text = *st.Error
		}
		p.snap.State = StateFailed
		p.snap.Err = fmt.Errorf("%w: %s", ErrScrapeFailed, text)
		p.finishLocked()
		p.logger.Warn(ctx, "website import failed", "job_id", p.snap.JobID, "reason", text)

	default:
		p.snap.Attempt++
		if progress := clampProgress(st.Progress); progress > p.snap.Progress {
			p.snap.Progress = progress
		}
		wasLong := p.snap.LongWait
		p.snap.LongWait = p.snap.Attempt > p.opts.LongWaitAfter
		if p.snap.LongWait && !wasLong {
			p.logger.Info(ctx, "website import is taking longer than usual", "job_id", p.snap.JobID, "attempt", p.snap.Attempt)
		}
		p.logger.Debug(ctx, "website import in progress",
			"job_id", p.snap.JobID, "status", st.Status, "progress", p.snap.Progress, "attempt", p.snap.Attempt)
		p.scheduleLocked(epoch, p.opts.Interval, p.poll)
	}
}

func (p *Poller) settle(epoch uint64) {
	p.mu.Lock()
	if p.epoch != epoch || p.snap.State != StatePolling || p.pending == nil {
		p.mu.Unlock()
		return
	}
	p.timer = nil
	p.snap.State = StateSucceeded
	p.snap.Result = p.pending
	p.pending = nil
	p.finishLocked()
	p.publishLocked()
	ctx, jobID := p.reqCtx, p.snap.JobID
	p.mu.Unlock()
	p.dispatch()

	p.logger.Info(ctx, "website import finished", "job_id", jobID)
}

func (p *Poller) scheduleLocked(epoch uint64, d time.Duration, fn func(uint64)) {
	p.timer = p.opts.Scheduler.AfterFunc(d, func() { fn(epoch) })
}

// finishLocked releases the resources of a job that reached a terminal state.
func (p *Poller) finishLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.stopRequests != nil {
		p.stopRequests()
	}
	p.closeDoneLocked()
}

func (p *Poller) closeDoneLocked() {
	if p.done == nil {
		return
	}
	select {
	case <-p.done:
	default:
		close(p.done)
	}
}

func (p *Poller) publishLocked() {
	p.queue = append(p.queue, p.snap)
}

// dispatch delivers queued snapshots to subscribers without holding the
// lock. Only one goroutine drains the queue at a time, so subscribers see
// changes in the order they were made even when a subscriber itself causes
// a new change.
func (p *Poller) dispatch() {
	p.mu.Lock()
	if p.dispatching {
		p.mu.Unlock()
		return
	}
	p.dispatching = true

	for len(p.queue) > 0 {
		snap := p.queue[0]
		p.queue = p.queue[1:]
		subs := append([]subscriber(nil), p.subs...)
		p.mu.Unlock()

		for _, s := range subs {
			s.fn(snap)
		}

		p.mu.Lock()
	}

	p.dispatching = false
	p.mu.Unlock()
}

func clampProgress(v float64) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(math.Round(v))
}

func missingPayload(st *api.ScrapeStatus) string {
	var missing []string
	if !present(st.Preview) {
		missing = append(missing, "preview")
	}
	if !present(st.Data) {
		missing = append(missing, "data")
	}
	return strings.Join(missing, " or ")
}

// present reports whether raw holds a JSON object or array. Scalars such as
// "", false or 0 do not count as results.
func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}
