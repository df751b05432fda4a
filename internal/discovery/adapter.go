package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/btfind/internal/device"
)

// Operation is a native asynchronous operation with a single completion signal.
//
// Start must return the immediate native status. When it returns success the
// operation must later invoke complete exactly once, from any goroutine.
// complete may also be invoked before Start returns.
type Operation interface {
	Start(complete device.CompleteFunc) device.Status
	// Describe names the operation in errors and logs, e.g. "device inquiry".
	Describe() string
}

// Releaser is implemented by operations that hold a native handle which must
// be released once Run returns, whatever the outcome.
type Releaser interface {
	Release()
}

// Adapter runs one asynchronous Operation at a time and blocks the caller
// until it completes or the timeout elapses.
//
// The zero value is not usable; create adapters with NewAdapter.
type Adapter struct {
	mu      sync.Mutex
	pending *pendingOperation
	logger  *logrus.Logger
}

// NewAdapter creates an idle adapter.
func NewAdapter(logger *logrus.Logger) *Adapter {
	if logger == nil {
		logger = logrus.New()
	}
	return &Adapter{logger: logger}
}

// Pending reports whether an operation is currently being awaited and since when.
func (a *Adapter) Pending() (time.Time, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending == nil {
		return time.Time{}, false
	}
	return a.pending.startedAt, true
}

// Run starts op and waits for its completion signal.
//
// It fails with *ConcurrentOperationError if another Run is in progress on a,
// with *StartError if op rejects Start, with *TimeoutError if timeout elapses
// first (timeout <= 0 waits without a deadline), with ctx.Err() if ctx is done
// first, and with *OperationError if op completes with a non-success status.
//
// A timeout only abandons the wait. The native operation may still complete
// later; that signal is discarded.
func (a *Adapter) Run(ctx context.Context, op Operation, timeout time.Duration) (device.Status, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if r, ok := op.(Releaser); ok {
		defer r.Release()
	}

	what := op.Describe()
	log := a.logger.WithField("operation", what)

	p, err := a.arm(what)
	if err != nil {
		log.WithError(err).Debug("Rejected overlapping operation")
		return 0, err
	}
	defer a.disarm(p)

	complete := func(status device.Status) {
		accepted, late := p.complete(status)
		switch {
		case late:
			log.WithField("status", status).Debug("Discarding completion after the wait was abandoned")
		case !accepted:
			log.WithField("status", status).Debug("Discarding duplicate completion")
		}
	}

	log.WithField("timeout", timeout).Debug("Starting operation")
	if status := op.Start(complete); !status.IsSuccess() {
		p.abandon()
		return status, &StartError{Status: status, Context: what}
	}

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case <-p.done:
	case <-deadline:
		if p.abandon() {
			log.WithField("elapsed", time.Since(p.startedAt)).Debug("Operation timed out")
			return 0, &TimeoutError{Context: what, Timeout: timeout}
		}
	case <-ctx.Done():
		if p.abandon() {
			log.WithError(ctx.Err()).Debug("Operation wait cancelled")
			return 0, ctx.Err()
		}
	}

	status, _ := p.outcome()
	log.WithFields(logrus.Fields{
		"status":  status,
		"elapsed": time.Since(p.startedAt),
	}).Debug("Operation completed")

	if !status.IsSuccess() {
		return status, &OperationError{Status: status, Context: what}
	}
	return status, nil
}

// arm installs a fresh pending operation, or fails if one is already installed.
func (a *Adapter) arm(what string) (*pendingOperation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending != nil {
		return nil, &ConcurrentOperationError{Context: what}
	}
	a.pending = newPendingOperation()
	return a.pending, nil
}

func (a *Adapter) disarm(p *pendingOperation) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending == p {
		a.pending = nil
	}
}
