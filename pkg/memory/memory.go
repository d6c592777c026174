// Package memory keeps a bounded per-chat conversation history so the
// sommelier can answer follow-up questions in context.
package memory

import "sync"

// DefaultMaxLength is the number of messages kept per chat.
const DefaultMaxLength = 20

// Message is one turn of a conversation.
type Message struct {
	Role    string
	Content string
}

// Manager holds the history for every chat. All state is in-memory and lost
// on restart.
type Manager struct {
	mu        sync.Mutex
	histories map[int64][]Message
	max       int
}

// NewManager creates a Manager keeping at most max messages per chat.
func NewManager(max int) *Manager {
	if max <= 0 {
		max = DefaultMaxLength
	}
	return &Manager{
		histories: make(map[int64][]Message),
		max:       max,
	}
}

// Add appends a message to the chat's history, evicting the oldest entry
// once the bound is reached.
func (m *Manager) Add(chatID int64, role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := append(m.histories[chatID], Message{Role: role, Content: content})
	if len(h) > m.max {
		h = h[len(h)-m.max:]
	}
	m.histories[chatID] = h
}

// History returns a copy of the chat's history, oldest first.
func (m *Manager) History(chatID int64) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.histories[chatID]
	out := make([]Message, len(h))
	copy(out, h)
	return out
}

// Clear drops the chat's history.
func (m *Manager) Clear(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.histories, chatID)
}
