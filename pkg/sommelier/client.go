// Package sommelier wraps the Groq multimodal chat-completions endpoint: it
// reviews beer photos and answers beer questions in the voice of an ironic
// beer sommelier.
package sommelier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"beerbot/pkg/config"
	"beerbot/pkg/memory"
)

const (
	reviewPrompt = "Ты – ироничный пивной сомелье. Посмотри на фото кружки или банки пива, " +
		"опиши, что видишь и придумай короткий, смешной и дружелюбный отзыв. " +
		"Если на фото нет пива, мягко пошути об этом."

	detectPrompt = "Посмотри на фото и ответь строго одним словом: «да», если на нём есть пиво " +
		"(бокал, кружка, банка или бутылка), и «нет», если пива на фото нет."

	questionPrompt = "Ты – дружелюбный и ироничный пивной сомелье. Отвечай на вопросы о пиве " +
		"коротко, по делу и с лёгким юмором. Если вопрос не про пиво, мягко верни разговор к пиву."
)

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float32
	maxTokens   int
}

// NewClient creates a Client from the Groq configuration.
func NewClient(cfg config.GroqConfig) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		apiKey:      cfg.Key,
		model:       cfg.Model,
		baseURL:     cfg.BaseURL,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// chatRequest follows the standard OpenAI chat-completions format.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []contentPart
}

type contentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *imageContent `json:"image_url,omitempty"`
}

type imageContent struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ReviewBeer sends the photo and returns a witty review.
func (c *Client) ReviewBeer(ctx context.Context, image []byte, caption string) (string, error) {
	text := caption
	if text == "" {
		text = "Держи фото сегодняшнего крафта."
	}
	return c.complete(ctx, []chatMessage{
		{Role: "system", Content: reviewPrompt},
		{Role: "user", Content: imageMessage(text, image)},
	})
}

// IsBeerPhoto classifies whether the photo shows beer.
func (c *Client) IsBeerPhoto(ctx context.Context, image []byte, caption string) (bool, error) {
	text := caption
	if text == "" {
		text = "Есть ли здесь пиво?"
	}
	answer, err := c.complete(ctx, []chatMessage{
		{Role: "system", Content: detectPrompt},
		{Role: "user", Content: imageMessage(text, image)},
	})
	if err != nil {
		return false, err
	}

	normalized := strings.ToLower(strings.Trim(answer, " .!«»\"'\n"))
	return strings.HasPrefix(normalized, "да") || strings.HasPrefix(normalized, "yes"), nil
}

// AnswerQuestion answers a beer question using the chat's bounded history
// for context.
func (c *Client) AnswerQuestion(ctx context.Context, question string, history []memory.Message) (string, error) {
	messages := make([]chatMessage, 0, len(history)+2)
	messages = append(messages, chatMessage{Role: "system", Content: questionPrompt})
	for _, m := range history {
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: question})

	return c.complete(ctx, messages)
}

func (c *Client) complete(ctx context.Context, messages []chatMessage) (string, error) {
	payload := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat endpoint returned %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse chat response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("chat endpoint error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat response contained no choices")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func imageMessage(text string, image []byte) []contentPart {
	return []contentPart{
		{Type: "text", Text: text},
		{Type: "image_url", ImageURL: &imageContent{URL: imageDataURL(image)}},
	}
}

func imageDataURL(image []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
