package watcher

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// pendingEntry tracks the newest observation of a path and the generation
// of its live confirmation timer. A stopped timer can still fire once; the
// generation check turns that late fire into a no-op.
type pendingEntry struct {
	lastObserved time.Time
	generation   uint64
	timer        *time.Timer
}

// Coalescer folds bursts of notifications for one path into a single
// dispatch after a quiet period. Each new observation cancels and replaces
// the path's confirmation timer, so only the newest event's quiet period
// counts. Dispatch runs on its own goroutine; a confirmation never blocks
// on image I/O. The in-flight set keeps normalizations for the same path
// strictly serial: a confirmation for a busy path re-arms instead of
// overlapping or dropping the work.
type Coalescer struct {
	window   time.Duration
	dispatch func(path string, lastObserved time.Time)
	now      func() time.Time
	logger   zerolog.Logger

	mu         sync.Mutex
	pending    map[string]*pendingEntry
	inflight   map[string]struct{}
	generation uint64
	stopped    bool
}

func NewCoalescer(window time.Duration, dispatch func(path string, lastObserved time.Time), logger zerolog.Logger) *Coalescer {
	if window <= 0 {
		window = 2 * time.Second
	}
	return &Coalescer{
		window:   window,
		dispatch: dispatch,
		now:      time.Now,
		logger:   logger,
		pending:  map[string]*pendingEntry{},
		inflight: map[string]struct{}{},
	}
}

// Observe records a qualifying event for path and starts (or restarts) its
// quiet period.
func (c *Coalescer) Observe(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.generation++
	generation := c.generation
	if entry, ok := c.pending[path]; ok {
		entry.timer.Stop()
	}
	entry := &pendingEntry{lastObserved: c.now(), generation: generation}
	entry.timer = time.AfterFunc(c.window, func() {
		c.confirm(path, generation)
	})
	c.pending[path] = entry
}

func (c *Coalescer) confirm(path string, generation uint64) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	entry, ok := c.pending[path]
	if !ok || entry.generation != generation {
		// Superseded by a newer observation or already dispatched.
		c.mu.Unlock()
		return
	}
	if _, busy := c.inflight[path]; busy {
		entry.timer = time.AfterFunc(c.window, func() {
			c.confirm(path, generation)
		})
		c.mu.Unlock()
		c.logger.Debug().Str("path", path).Msg("confirmation deferred; path still in flight")
		return
	}
	delete(c.pending, path)
	c.inflight[path] = struct{}{}
	lastObserved := entry.lastObserved
	c.mu.Unlock()

	go func() {
		defer c.release(path)
		c.dispatch(path, lastObserved)
	}()
}

func (c *Coalescer) release(path string) {
	c.mu.Lock()
	delete(c.inflight, path)
	c.mu.Unlock()
}

// Stop cancels all pending confirmations and refuses new observations.
// In-flight dispatches are not joined.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	for path, entry := range c.pending {
		entry.timer.Stop()
		delete(c.pending, path)
	}
}

// Pending returns the number of paths waiting out their quiet period.
func (c *Coalescer) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Inflight returns the number of paths currently being processed.
func (c *Coalescer) Inflight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}
