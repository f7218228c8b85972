package service

import (
	"sync"
	"time"

	"gearledger/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Roster tracks currently connected clients by peer address. An entry is
// refreshed on any request recognized as client activity and dropped by the
// background sweep once it has been silent for the staleness window. This is
// a liveness heuristic, not an identity: several logical clients behind one
// address collapse into a single entry.
type Roster struct {
	staleAfter time.Duration
	sweepEvery time.Duration
	observer   interfaces.RosterObserver
	logger     log.Logger

	mu        sync.Mutex
	seen      map[string]time.Time
	lastCount int

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewRoster creates a roster. observer may be nil; staleAfter and sweepEvery
// must be positive.
func NewRoster(staleAfter, sweepEvery time.Duration, observer interfaces.RosterObserver, logger log.Logger) *Roster {
	return &Roster{
		staleAfter: staleAfter,
		sweepEvery: sweepEvery,
		observer:   observer,
		logger:     log.WithPrefix(logger, "component", "roster"),
		seen:       make(map[string]time.Time),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the background stale sweep. Call Stop to terminate it.
func (r *Roster) Start() {
	go r.sweepLoop()
}

// Stop terminates the sweep and waits for it to exit. Idempotent.
func (r *Roster) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done
}

// Touch creates or refreshes the entry for addr. A previously unseen address
// fires the count-changed observer.
func (r *Roster) Touch(addr string) {
	if addr == "" {
		return
	}

	r.mu.Lock()
	_, known := r.seen[addr]
	r.seen[addr] = time.Now()
	count := len(r.seen)
	if !known {
		r.lastCount = count
	}
	r.mu.Unlock()

	if !known {
		level.Debug(r.logger).Log("msg", "client connected", "addr", addr, "count", count)
		if r.observer != nil {
			r.observer.ClientCountChanged(count)
		}
	}
}

// Count prunes stale entries and returns the live count.
func (r *Roster) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked(time.Now())
	return len(r.seen)
}

func (r *Roster) sweepLoop() {
	defer close(r.done)
	ticker := time.NewTicker(r.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

// sweep prunes stale entries and fires the observer when the count moved
// since the previous sweep.
func (r *Roster) sweep() {
	r.mu.Lock()
	r.pruneLocked(time.Now())
	count := len(r.seen)
	changed := count != r.lastCount
	r.lastCount = count
	r.mu.Unlock()

	if changed {
		level.Debug(r.logger).Log("msg", "client count changed", "count", count)
		if r.observer != nil {
			r.observer.ClientCountChanged(count)
		}
	}
}

func (r *Roster) pruneLocked(now time.Time) {
	for addr, last := range r.seen {
		if now.Sub(last) > r.staleAfter {
			delete(r.seen, addr)
		}
	}
}
