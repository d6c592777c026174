package sommelier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"beerbot/pkg/config"
	"beerbot/pkg/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStub(t *testing.T, content string, capture *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, content)
	}))
}

func newTestClient(url string) *Client {
	return NewClient(config.GroqConfig{
		Key:         "test-key",
		Model:       "llava-v1.5-7b-4096-preview",
		BaseURL:     url,
		Temperature: 0.7,
		MaxTokens:   1024,
	})
}

func TestReviewBeer(t *testing.T) {
	var captured chatRequest
	server := newStub(t, "  Отличный стаут, держи краба!  ", &captured)
	defer server.Close()

	c := newTestClient(server.URL)
	review, err := c.ReviewBeer(context.Background(), []byte("jpeg"), "мой крафт")
	require.NoError(t, err)

	assert.Equal(t, "Отличный стаут, держи краба!", review)
	assert.Equal(t, "llava-v1.5-7b-4096-preview", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
}

func TestIsBeerPhoto(t *testing.T) {
	cases := []struct {
		answer string
		want   bool
	}{
		{"Да", true},
		{"да, это пиво", true},
		{"«Да»", true},
		{"Yes", true},
		{"Нет", false},
		{"на фото кот", false},
	}

	for _, tc := range cases {
		t.Run(tc.answer, func(t *testing.T) {
			server := newStub(t, tc.answer, nil)
			defer server.Close()

			got, err := newTestClient(server.URL).IsBeerPhoto(context.Background(), []byte("jpeg"), "")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAnswerQuestion_IncludesHistory(t *testing.T) {
	var captured chatRequest
	server := newStub(t, "Бери IPA.", &captured)
	defer server.Close()

	history := []memory.Message{
		{Role: "user", Content: "что такое IPA?"},
		{Role: "assistant", Content: "индийский пейл-эль"},
	}

	answer, err := newTestClient(server.URL).AnswerQuestion(context.Background(), "а что взять сегодня?", history)
	require.NoError(t, err)
	assert.Equal(t, "Бери IPA.", answer)

	require.Len(t, captured.Messages, 4)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "что такое IPA?", captured.Messages[1].Content)
	assert.Equal(t, "а что взять сегодня?", captured.Messages[3].Content)
}

func TestComplete_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).ReviewBeer(context.Background(), []byte("jpeg"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestComplete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).ReviewBeer(context.Background(), []byte("jpeg"), "")
	assert.Error(t, err)
}
