package postcard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// maxLoadingWait caps the service-suggested retry delay for the "model is
// loading" status.
const maxLoadingWait = 10 * time.Second

// defaultLoadingWait is used when the service suggests no usable delay.
const defaultLoadingWait = 3 * time.Second

// HFClient calls the Hugging Face serverless inference endpoint for
// text-to-image generation.
type HFClient struct {
	httpClient *http.Client
	token      string
	baseURL    string
	maxRetries int
}

// HFOptions configures an HFClient.
type HFOptions struct {
	Token      string
	BaseURL    string
	Timeout    time.Duration // per-attempt request timeout
	MaxRetries int           // total attempts, retried only while the model loads
}

// NewHFClient creates a client for the given endpoint. Zero option values
// fall back to 60s timeout and 3 attempts.
func NewHFClient(opts HFOptions) *HFClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	retries := opts.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	return &HFClient{
		httpClient: &http.Client{Timeout: timeout},
		token:      opts.Token,
		baseURL:    opts.BaseURL,
		maxRetries: retries,
	}
}

type hfPayload struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	GuidanceScale  float64 `json:"guidance_scale"`
	Steps          int     `json:"num_inference_steps"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
}

// Generate requests image bytes for the prompt. It retries only the "model
// is loading" status, sleeping for the service-suggested duration capped at
// maxLoadingWait, up to the configured attempt count. A quota status is
// returned as ErrQuotaExceeded; any other non-success status is a
// *StatusError; transport failures are wrapped network errors.
func (c *HFClient) Generate(ctx context.Context, req Request) ([]byte, error) {
	payload := hfPayload{
		Inputs: req.Prompt,
		Parameters: hfParameters{
			NegativePrompt: req.NegativePrompt,
			GuidanceScale:  req.GuidanceScale,
			Steps:          req.Steps,
			Width:          req.Width,
			Height:         req.Height,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode generation request: %w", err)
	}

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		slog.Debug("requesting postcard generation",
			"attempt", attempt, "max", c.maxRetries, "url", c.baseURL)

		img, retryAfter, err := c.attempt(ctx, body)
		if err == nil && img != nil {
			return img, nil
		}
		if err != nil {
			return nil, err
		}

		// Model still loading: wait and try again. The wait deliberately
		// runs after the final attempt too, before ErrStillLoading is
		// returned.
		slog.Info("remote model is loading, retrying", "wait", retryAfter)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryAfter):
		}
	}

	return nil, fmt.Errorf("%w after %d attempts", ErrStillLoading, c.maxRetries)
}

// attempt performs one request. It returns (image, 0, nil) on success,
// (nil, wait, nil) when the model is still loading, or a terminal error.
func (c *HFClient) attempt(ctx context.Context, body []byte) ([]byte, time.Duration, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "image/png")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("postcard request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK &&
		strings.HasPrefix(resp.Header.Get("Content-Type"), "image/"):
		return data, 0, nil

	case resp.StatusCode == http.StatusAccepted:
		return nil, loadingWait(data), nil

	case resp.StatusCode == http.StatusPaymentRequired ||
		resp.StatusCode == http.StatusTooManyRequests:
		return nil, 0, ErrQuotaExceeded

	default:
		return nil, 0, &StatusError{Code: resp.StatusCode, Detail: errorDetail(data)}
	}
}

// loadingWait extracts the service-suggested delay from a 202 body.
func loadingWait(body []byte) time.Duration {
	var status struct {
		EstimatedTime float64 `json:"estimated_time"`
	}
	if err := json.Unmarshal(body, &status); err != nil || status.EstimatedTime <= 0 {
		return defaultLoadingWait
	}
	wait := time.Duration(status.EstimatedTime * float64(time.Second))
	if wait > maxLoadingWait {
		wait = maxLoadingWait
	}
	return wait
}

func errorDetail(body []byte) string {
	var detail struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &detail); err == nil && detail.Error != "" {
		return detail.Error
	}
	s := string(body)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
