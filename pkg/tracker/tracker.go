package tracker

import (
	"sync"
	"sync/atomic"
)

// Tracker counts pipeline and poll activity per chat feature ("postcard",
// "barhopping", "debug"). Counters are cheap enough to keep always-on and
// are dumped to the log on shutdown.
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*Stats
}

// Stats holds counters for one feature. Fields are accessed atomically.
type Stats struct {
	RemoteImages  int64
	LocalRenders  int64
	Placeholders  int64
	Failures      int64
	PollsOpened   int64
	Votes         int64
	Notifications int64
}

// New creates a Tracker.
func New() *Tracker {
	return &Tracker{stats: make(map[string]*Stats)}
}

func (t *Tracker) get(feature string) *Stats {
	t.mu.RLock()
	s, ok := t.stats[feature]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok = t.stats[feature]; ok {
		return s
	}
	s = &Stats{}
	t.stats[feature] = s
	return s
}

func (t *Tracker) TrackRemoteImage(feature string) {
	atomic.AddInt64(&t.get(feature).RemoteImages, 1)
}

func (t *Tracker) TrackLocalRender(feature string) {
	atomic.AddInt64(&t.get(feature).LocalRenders, 1)
}

func (t *Tracker) TrackPlaceholder(feature string) {
	atomic.AddInt64(&t.get(feature).Placeholders, 1)
}

func (t *Tracker) TrackFailure(feature string) {
	atomic.AddInt64(&t.get(feature).Failures, 1)
}

func (t *Tracker) TrackPollOpened(feature string) {
	atomic.AddInt64(&t.get(feature).PollsOpened, 1)
}

func (t *Tracker) TrackVote(feature string) {
	atomic.AddInt64(&t.get(feature).Votes, 1)
}

func (t *Tracker) TrackNotification(feature string) {
	atomic.AddInt64(&t.get(feature).Notifications, 1)
}

// Snapshot returns a copy of the current counters.
func (t *Tracker) Snapshot() map[string]Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]Stats, len(t.stats))
	for k, v := range t.stats {
		result[k] = Stats{
			RemoteImages:  atomic.LoadInt64(&v.RemoteImages),
			LocalRenders:  atomic.LoadInt64(&v.LocalRenders),
			Placeholders:  atomic.LoadInt64(&v.Placeholders),
			Failures:      atomic.LoadInt64(&v.Failures),
			PollsOpened:   atomic.LoadInt64(&v.PollsOpened),
			Votes:         atomic.LoadInt64(&v.Votes),
			Notifications: atomic.LoadInt64(&v.Notifications),
		}
	}
	return result
}
