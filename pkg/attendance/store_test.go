package attendance

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"beerbot/pkg/tracker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	nextID int
	err    error
	calls  []int64
}

func (f *fakeSender) SendPoll(_ context.Context, chatID int64, _ string, _ []string) (Handle, error) {
	if f.err != nil {
		return Handle{}, f.err
	}
	f.nextID++
	f.calls = append(f.calls, chatID)
	return Handle{PollID: fmt.Sprintf("poll-%d", f.nextID), MessageID: 100 + f.nextID}, nil
}

type fakeNotifier struct {
	messages []string
	chats    []int64
}

func (f *fakeNotifier) SendMessage(_ context.Context, chatID int64, text string) error {
	f.chats = append(f.chats, chatID)
	f.messages = append(f.messages, text)
	return nil
}

func newTestStore(t *testing.T) (*Store, *fakeSender, *fakeNotifier) {
	t.Helper()
	sender := &fakeSender{}
	notifier := &fakeNotifier{}
	return NewStore(sender, notifier, tracker.New(), 5), sender, notifier
}

func openTestPoll(t *testing.T, s *Store) Handle {
	t.Helper()
	h, err := s.Open(context.Background(), 555, "Кто идёт?", []string{"Я иду", "Ещё не решил", "Не смогу"})
	require.NoError(t, err)
	return h
}

func TestStore_ThresholdNotifiesExactlyOnce(t *testing.T) {
	s, _, notifier := newTestStore(t)
	h := openTestPoll(t, s)
	ctx := context.Background()

	for user := int64(1); user <= 5; user++ {
		s.RecordVote(ctx, h.PollID, user, []int{0})
	}

	require.Len(t, notifier.messages, 1)
	assert.Equal(t, "Нас уже 5! Пора бронировать стол 🍻", notifier.messages[0])
	assert.Equal(t, int64(555), notifier.chats[0])

	// A sixth attending vote keeps the count above threshold but must not
	// renotify.
	s.RecordVote(ctx, h.PollID, 6, []int{0})
	assert.Len(t, notifier.messages, 1)
}

func TestStore_NotifiedIsMonotonic(t *testing.T) {
	s, _, notifier := newTestStore(t)
	h := openTestPoll(t, s)
	ctx := context.Background()

	for user := int64(1); user <= 5; user++ {
		s.RecordVote(ctx, h.PollID, user, []int{0})
	}
	require.Len(t, notifier.messages, 1)

	// User 5 backs out, then returns: count dips below threshold and
	// recovers, with no second notification.
	s.RecordVote(ctx, h.PollID, 5, []int{1})
	assert.Equal(t, 4, s.GoingCount(h.PollID))

	s.RecordVote(ctx, h.PollID, 5, []int{0})
	assert.Equal(t, 5, s.GoingCount(h.PollID))
	assert.Len(t, notifier.messages, 1)
}

func TestStore_RevoteIsIdempotentPerUser(t *testing.T) {
	s, _, _ := newTestStore(t)
	h := openTestPoll(t, s)
	ctx := context.Background()

	s.RecordVote(ctx, h.PollID, 7, []int{0})
	s.RecordVote(ctx, h.PollID, 7, []int{1, 2})

	s.mu.Lock()
	poll := s.polls[h.PollID]
	assert.Len(t, poll.Votes, 1)
	assert.Equal(t, []int{1, 2}, poll.Votes[7])
	s.mu.Unlock()

	assert.Equal(t, 0, s.GoingCount(h.PollID))
}

func TestStore_UnknownPollIgnored(t *testing.T) {
	s, _, notifier := newTestStore(t)

	s.RecordVote(context.Background(), "never-opened", 1, []int{0})
	assert.Empty(t, notifier.messages)
	assert.Equal(t, 0, s.Len())
}

func TestStore_OpenFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("telegram unavailable")}
	s := NewStore(sender, &fakeNotifier{}, tracker.New(), 5)

	_, err := s.Open(context.Background(), 555, "q", []string{"a"})
	require.Error(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestStore_MultipleAnswerSelection(t *testing.T) {
	s, _, _ := newTestStore(t)
	h := openTestPoll(t, s)

	// Option 0 anywhere in the selection counts as attending.
	s.RecordVote(context.Background(), h.PollID, 9, []int{2, 0})
	assert.Equal(t, 1, s.GoingCount(h.PollID))
}
