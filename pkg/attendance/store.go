// Package attendance tracks who is coming. Each broadcast opens a
// non-anonymous poll; votes stream back as poll-answer events and the first
// time the "going" count reaches the quorum the chat gets exactly one
// reminder to reserve a table.
package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"beerbot/pkg/tracker"
)

// GoingOptionIndex is the poll option that counts toward the quorum.
const GoingOptionIndex = 0

// PollSender posts a poll message to the chat platform.
type PollSender interface {
	SendPoll(ctx context.Context, chatID int64, question string, options []string) (Handle, error)
}

// Notifier delivers the quorum notification.
type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Handle identifies a posted poll message.
type Handle struct {
	PollID    string
	MessageID int
}

// Poll is the tracked state of one attendance poll.
type Poll struct {
	ChatID    int64
	MessageID int
	Notified  bool
	Votes     map[int64][]int // user id -> selected option indices, last write wins
}

// Store owns every tracked poll for the process lifetime. Entries are never
// evicted: the map grows with each broadcast until restart, which also wipes
// all poll state (in-memory by design).
type Store struct {
	sender    PollSender
	notifier  Notifier
	tracker   *tracker.Tracker
	threshold int

	mu    sync.Mutex
	polls map[string]*Poll
}

// NewStore creates a Store with the given quorum threshold.
func NewStore(sender PollSender, notifier Notifier, tr *tracker.Tracker, threshold int) *Store {
	if threshold <= 0 {
		threshold = 5
	}
	return &Store{
		sender:    sender,
		notifier:  notifier,
		tracker:   tr,
		threshold: threshold,
		polls:     make(map[string]*Poll),
	}
}

// Open posts a fresh poll to the chat and registers it for vote tracking.
func (s *Store) Open(ctx context.Context, chatID int64, question string, options []string) (Handle, error) {
	handle, err := s.sender.SendPoll(ctx, chatID, question, options)
	if err != nil {
		return Handle{}, fmt.Errorf("failed to open attendance poll: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.polls[handle.PollID]; exists {
		// The platform assigns poll ids; a duplicate means a bug upstream.
		slog.Error("duplicate poll id, replacing tracked state", "poll", handle.PollID)
	}
	s.polls[handle.PollID] = &Poll{
		ChatID:    chatID,
		MessageID: handle.MessageID,
		Votes:     make(map[int64][]int),
	}

	s.tracker.TrackPollOpened("attendance")
	slog.Info("attendance poll opened", "chat", chatID, "poll", handle.PollID)
	return handle, nil
}

// RecordVote applies one poll-answer event. A later vote by the same user
// overwrites the earlier one. Votes for unknown polls are ignored: the poll
// may belong to an older, untracked message. When the going count first
// reaches the threshold the chat is notified exactly once; the notified flag
// never resets, even if the count later drops and recovers.
func (s *Store) RecordVote(ctx context.Context, pollID string, userID int64, options []int) {
	s.mu.Lock()
	poll, ok := s.polls[pollID]
	if !ok {
		s.mu.Unlock()
		slog.Debug("vote for unknown poll ignored", "poll", pollID)
		return
	}

	poll.Votes[userID] = options
	s.tracker.TrackVote("attendance")

	going := goingCount(poll)
	notify := going >= s.threshold && !poll.Notified
	if notify {
		poll.Notified = true
	}
	chatID := poll.ChatID
	s.mu.Unlock()

	if !notify {
		return
	}

	s.tracker.TrackNotification("attendance")
	text := fmt.Sprintf("Нас уже %d! Пора бронировать стол 🍻", going)
	if err := s.notifier.SendMessage(ctx, chatID, text); err != nil {
		slog.Error("failed to send quorum notification", "chat", chatID, "error", err)
	}
}

// GoingCount returns the current number of attending voters, or 0 for an
// unknown poll.
func (s *Store) GoingCount(pollID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	poll, ok := s.polls[pollID]
	if !ok {
		return 0
	}
	return goingCount(poll)
}

// Len returns the number of tracked polls.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.polls)
}

func goingCount(p *Poll) int {
	count := 0
	for _, selected := range p.Votes {
		for _, idx := range selected {
			if idx == GoingOptionIndex {
				count++
				break
			}
		}
	}
	return count
}
