package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/natteepao-collab/jwherbal-roots-and-remedies-sub000/internal/models"
)

// UpstreamClient talks to the OpenAI-compatible chat-completion endpoint the
// relay proxies. It only opens streams; the caller owns reading and closing.
type UpstreamClient struct {
	baseURL     string
	apiKey      string
	model       string
	idleTimeout time.Duration
	httpClient  *http.Client
}

// NewUpstreamClient creates an upstream client. idleTimeout bounds the gap
// between consecutive chunks of an open stream; the overall call has no
// deadline because generation length is unbounded.
func NewUpstreamClient(baseURL, apiKey, model string, idleTimeout time.Duration) *UpstreamClient {
	return &UpstreamClient{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		idleTimeout: idleTimeout,
		httpClient:  &http.Client{},
	}
}

type chatCompletionRequest struct {
	Model       string               `json:"model"`
	Messages    []models.ChatMessage `json:"messages"`
	Stream      bool                 `json:"stream"`
	Temperature *float64             `json:"temperature,omitempty"`
}

// maxErrorBody bounds how much of a failed upstream response is read for logs.
const maxErrorBody = 8 << 10

// OpenStream issues the upstream streaming call and maps the initial response
// status to the service error taxonomy before any byte of the body is
// consumed. On success the returned stream yields the raw SSE bytes exactly
// as upstream sent them.
func (c *UpstreamClient) OpenStream(ctx context.Context, system string, history []models.ChatMessage) (*Stream, error) {
	if c.apiKey == "" {
		return nil, &ConfigurationError{Message: "upstream API key is not configured"}
	}

	payload := chatCompletionRequest{
		Model:    c.model,
		Messages: append([]models.ChatMessage{{Role: "system", Content: system}}, history...),
		Stream:   true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("upstream request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		cancel()
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return nil, &RateLimitError{Message: "the assistant is receiving too many requests, please try again shortly"}
		case http.StatusPaymentRequired:
			return nil, &QuotaError{Message: "the assistant is temporarily unavailable"}
		default:
			return nil, &UpstreamError{Status: resp.StatusCode, Body: string(raw)}
		}
	}

	s := &Stream{body: resp.Body, cancel: cancel, gap: c.idleTimeout}
	if s.gap > 0 {
		s.watchdog = time.AfterFunc(s.gap, cancel)
	}
	return s, nil
}

// Stream is an open upstream SSE body. Each successful Read re-arms the idle
// watchdog; if upstream stalls longer than the configured gap the underlying
// request is cancelled and the next Read fails.
type Stream struct {
	body     io.ReadCloser
	cancel   context.CancelFunc
	watchdog *time.Timer
	gap      time.Duration
}

func (s *Stream) Read(p []byte) (int, error) {
	n, err := s.body.Read(p)
	if err == nil && s.watchdog != nil {
		s.watchdog.Reset(s.gap)
	}
	return n, err
}

// Close releases the upstream connection. Safe to call more than once.
func (s *Stream) Close() error {
	if s.watchdog != nil {
		s.watchdog.Stop()
	}
	s.cancel()
	return s.body.Close()
}
