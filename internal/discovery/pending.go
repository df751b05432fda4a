package discovery

import (
	"sync"
	"time"

	"github.com/srg/btfind/internal/device"
)

// pendingOperation is the single-slot result cell of one in-flight operation.
// done is closed exactly once, together with setting result.
type pendingOperation struct {
	mu        sync.Mutex
	completed bool
	abandoned bool
	result    device.Status
	startedAt time.Time
	done      chan struct{}
}

func newPendingOperation() *pendingOperation {
	return &pendingOperation{
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}
}

// complete records status and wakes the waiter. It reports false when the
// status was discarded: a duplicate signal, or one arriving after the waiter left.
func (p *pendingOperation) complete(status device.Status) (accepted, late bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.completed {
		return false, p.abandoned
	}
	p.result = status
	p.completed = true
	close(p.done)
	return !p.abandoned, p.abandoned
}

// outcome returns the result if completed.
func (p *pendingOperation) outcome() (device.Status, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result, p.completed
}

// abandon marks that no one is waiting any more. Returns true if the
// operation had not completed yet.
func (p *pendingOperation) abandon() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.abandoned = true
	return !p.completed
}
