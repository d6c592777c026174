package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Registry owns the per-chat debug interval triggers. Each chat has at most
// one active interval timer: enabling again cancels the previous timer
// before installing the new one, so repeated "on" commands are idempotent.
type Registry struct {
	interval time.Duration

	mu      sync.Mutex
	entries map[int64]context.CancelFunc
}

// NewRegistry creates a Registry whose triggers fire every interval.
func NewRegistry(interval time.Duration) *Registry {
	return &Registry{
		interval: interval,
		entries:  make(map[int64]context.CancelFunc),
	}
}

// Enable installs the interval trigger for the chat, replacing any existing
// one. The trigger runs until Disable is called or ctx is cancelled.
func (r *Registry) Enable(ctx context.Context, chatID int64, action func(ctx context.Context)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cancel, ok := r.entries[chatID]; ok {
		cancel()
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r.entries[chatID] = cancel

	slog.Info("debug trigger enabled", "chat", chatID, "interval", r.interval)
	go r.loop(loopCtx, chatID, action)
}

// Disable cancels the chat's interval trigger, including any scheduled but
// not-yet-fired occurrence. It reports whether a trigger was active.
func (r *Registry) Disable(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cancel, ok := r.entries[chatID]
	if !ok {
		return false
	}
	cancel()
	delete(r.entries, chatID)

	slog.Info("debug trigger disabled", "chat", chatID)
	return true
}

// Enabled reports whether the chat currently has an active trigger.
func (r *Registry) Enabled(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[chatID]
	return ok
}

func (r *Registry) loop(ctx context.Context, chatID int64, action func(ctx context.Context)) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			action(ctx)
		}
	}
}
