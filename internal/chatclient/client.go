// Package chatclient is the Go consumer of the storefront chat stream. It
// keeps the in-memory transcript the widget renders: a placeholder assistant
// message is appended when a turn is sent and filled incrementally as deltas
// are decoded from the response body, regardless of how the transport chunks
// the bytes.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/natteepao-collab/jwherbal-roots-and-remedies-sub000/internal/models"
	"github.com/natteepao-collab/jwherbal-roots-and-remedies-sub000/internal/sse"
)

// ErrTurnInFlight is returned when a turn is started while one is running.
// One stream per conversation at a time; the widget's send button mirrors
// this flag.
var ErrTurnInFlight = errors.New("a chat turn is already in flight")

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// Conversation is one chat session's client-side state. Methods are not safe
// for concurrent use: the widget drives a single cooperative loop per turn.
type Conversation struct {
	client         *Client
	sessionID      string
	language       models.Language
	conversationID string
	messages       []models.ChatMessage
	busy           bool
	onDelta        func(delta string)
}

// NewConversation starts client-side state for sessionID. onDelta, if not
// nil, is invoked for every rendered content fragment.
func (c *Client) NewConversation(sessionID string, lang models.Language, onDelta func(delta string)) *Conversation {
	return &Conversation{
		client:    c,
		sessionID: sessionID,
		language:  lang,
		onDelta:   onDelta,
	}
}

// Messages returns the rendered transcript, including a partially filled
// assistant message while a turn is streaming.
func (cv *Conversation) Messages() []models.ChatMessage {
	return cv.messages
}

// ConversationID returns the server-resolved conversation id, available
// after the first successful turn.
func (cv *Conversation) ConversationID() string {
	return cv.conversationID
}

// Busy reports whether a turn is currently streaming.
func (cv *Conversation) Busy() bool {
	return cv.busy
}

// Send runs one chat turn: it appends the user message and an empty
// assistant placeholder, streams the response into the placeholder and
// finalizes it when the connection closes. If the initial response is an
// error the placeholder is removed entirely; it is never left half filled.
func (cv *Conversation) Send(ctx context.Context, content string) error {
	if cv.busy {
		return ErrTurnInFlight
	}
	cv.busy = true
	defer func() { cv.busy = false }()

	cv.messages = append(cv.messages, models.ChatMessage{Role: models.RoleUser, Content: content})
	history := make([]models.ChatMessage, len(cv.messages))
	copy(history, cv.messages)

	// Placeholder filled incrementally below.
	cv.messages = append(cv.messages, models.ChatMessage{Role: models.RoleAssistant})
	placeholder := len(cv.messages) - 1

	payload, err := json.Marshal(models.ChatStreamRequest{
		Messages:  history,
		Language:  string(cv.language),
		SessionID: cv.sessionID,
	})
	if err != nil {
		cv.messages = cv.messages[:placeholder]
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cv.client.baseURL+"/api/v1/chat/stream", bytes.NewReader(payload))
	if err != nil {
		cv.messages = cv.messages[:placeholder]
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := cv.client.httpClient.Do(req)
	if err != nil {
		cv.messages = cv.messages[:placeholder]
		return fmt.Errorf("send turn: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		cv.messages = cv.messages[:placeholder]
		var body models.ChatErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
			return fmt.Errorf("chat failed (%d): %s", resp.StatusCode, body.Error)
		}
		return fmt.Errorf("chat failed with status %d", resp.StatusCode)
	}

	if id := resp.Header.Get("X-Conversation-Id"); id != "" {
		cv.conversationID = id
	}

	// Incremental read loop. The sentinel is advisory: reading continues
	// until the connection actually closes, and whatever accumulated by then
	// is final. A mid-stream network failure is just an early close.
	var dec sse.Decoder
	buf := make([]byte, 2048)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, delta := range dec.Feed(buf[:n]) {
				cv.messages[placeholder].Content += delta
				if cv.onDelta != nil {
					cv.onDelta(delta)
				}
			}
		}
		if readErr != nil {
			if readErr != io.EOF && ctx.Err() != nil {
				return ctx.Err()
			}
			break
		}
	}
	return nil
}

// SendGreeting opens the conversation with the canned first message. It is
// an ordinary turn with a synthetic one-message history, so greeting turns
// and real turns share every code path.
func (cv *Conversation) SendGreeting(ctx context.Context) error {
	return cv.Send(ctx, greetingPrompt(cv.language))
}

func greetingPrompt(lang models.Language) string {
	switch lang {
	case models.LanguageThai:
		return "สวัสดี"
	case models.LanguageChinese:
		return "你好"
	default:
		return "Hello"
	}
}
