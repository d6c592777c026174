package memory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_AddAndHistory(t *testing.T) {
	m := NewManager(5)

	assert.Empty(t, m.History(1))

	m.Add(1, "user", "какое пиво взять?")
	m.Add(1, "assistant", "возьми стаут")

	h := m.History(1)
	assert.Equal(t, []Message{
		{Role: "user", Content: "какое пиво взять?"},
		{Role: "assistant", Content: "возьми стаут"},
	}, h)

	// Histories are isolated per chat.
	assert.Empty(t, m.History(2))
}

func TestManager_Bound(t *testing.T) {
	m := NewManager(3)
	for i := 0; i < 10; i++ {
		m.Add(1, "user", fmt.Sprintf("msg-%d", i))
	}

	h := m.History(1)
	assert.Len(t, h, 3)
	assert.Equal(t, "msg-7", h[0].Content)
	assert.Equal(t, "msg-9", h[2].Content)
}

func TestManager_Clear(t *testing.T) {
	m := NewManager(5)
	m.Add(1, "user", "привет")
	m.Clear(1)
	assert.Empty(t, m.History(1))
}

func TestManager_HistoryIsACopy(t *testing.T) {
	m := NewManager(5)
	m.Add(1, "user", "оригинал")

	h := m.History(1)
	h[0].Content = "изменено"

	assert.Equal(t, "оригинал", m.History(1)[0].Content)
}
