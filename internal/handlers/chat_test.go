package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/natteepao-collab/jwherbal-roots-and-remedies-sub000/internal/models"
	"github.com/natteepao-collab/jwherbal-roots-and-remedies-sub000/internal/services"
)

// ─── Stubs ───

type stubConversations struct {
	mu        sync.Mutex
	bySession map[string]*models.Conversation
	failing   bool
}

func newStubConversations() *stubConversations {
	return &stubConversations{bySession: make(map[string]*models.Conversation)}
}

func (s *stubConversations) Resolve(ctx context.Context, sessionID string, lang models.Language) (*models.Conversation, error) {
	if s.failing {
		return nil, fmt.Errorf("store down")
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.bySession[sessionID]; ok {
		return c, nil
	}
	c := &models.Conversation{ID: uuid.New(), SessionID: sessionID, Language: lang, CreatedAt: time.Now()}
	s.bySession[sessionID] = c
	return c, nil
}

func (s *stubConversations) GetBySessionID(ctx context.Context, sessionID string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.bySession[sessionID]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("not found")
}

type stubMessages struct {
	mu   sync.Mutex
	seq  int64
	rows []models.Message
}

func (s *stubMessages) Create(ctx context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	m.ID = uuid.New()
	m.CreatedAt = time.Unix(0, s.seq)
	s.rows = append(s.rows, *m)
	return nil
}

func (s *stubMessages) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, m := range s.rows {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

type stubAssembler struct{}

func (stubAssembler) Assemble(ctx context.Context, lang models.Language) string {
	return "AVAILABLE PRODUCTS:\n- Lemongrass balm (120 THB)"
}

// ─── Helpers ───

func sseEvent(content string) string {
	b, _ := json.Marshal(content)
	return `data: {"choices":[{"delta":{"content":` + string(b) + `}}]}` + "\n\n"
}

func newChatHandler(upstreamURL string) (*ChatHandler, *stubConversations, *stubMessages) {
	conversations := newStubConversations()
	messages := &stubMessages{}
	upstream := services.NewUpstreamClient(upstreamURL, "test-key", "test-model", time.Second)
	return NewChatHandler(conversations, messages, stubAssembler{}, upstream), conversations, messages
}

func postStream(t *testing.T, h *ChatHandler, req models.ChatStreamRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(req)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/chat/stream", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Stream(rr, r)
	return rr
}

// ─── Tests ───

func TestStreamValidation(t *testing.T) {
	h, _, _ := newChatHandler("http://127.0.0.1:0")

	tests := []struct {
		name string
		req  models.ChatStreamRequest
	}{
		{"no messages", models.ChatStreamRequest{Language: "en", SessionID: "s"}},
		{"bad language", models.ChatStreamRequest{
			Messages: []models.ChatMessage{{Role: "user", Content: "hi"}}, Language: "fr", SessionID: "s",
		}},
		{"no user message", models.ChatStreamRequest{
			Messages: []models.ChatMessage{{Role: "assistant", Content: "hi"}}, Language: "en", SessionID: "s",
		}},
		{"blank user message", models.ChatStreamRequest{
			Messages: []models.ChatMessage{{Role: "user", Content: "   "}}, Language: "en", SessionID: "s",
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := postStream(t, h, tc.req)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
			var resp models.ChatErrorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil || resp.Error == "" {
				t.Fatalf("expected flat error body, got %q", rr.Body.String())
			}
		})
	}
}

func TestStreamEndToEnd(t *testing.T) {
	deltas := []string{"สวัสดีค่ะ", " ยินดี", "ต้อนรับ"}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		for _, d := range deltas {
			w.Write([]byte(sseEvent(d)))
			flusher.Flush()
		}
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer upstream.Close()

	h, conversations, messages := newChatHandler(upstream.URL)

	rr := postStream(t, h, models.ChatStreamRequest{
		Messages:  []models.ChatMessage{{Role: "user", Content: "สวัสดี"}},
		Language:  "th",
		SessionID: "s-1",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %q", ct)
	}

	conversation, err := conversations.GetBySessionID(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("conversation was not created: %v", err)
	}
	if got := rr.Header().Get("X-Conversation-Id"); got != conversation.ID.String() {
		t.Fatalf("expected conversation header %s, got %q", conversation.ID, got)
	}

	rows, _ := messages.ListByConversation(context.Background(), conversation.ID)
	if len(rows) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(rows))
	}
	if rows[0].Role != models.RoleUser || rows[0].Content != "สวัสดี" {
		t.Fatalf("unexpected user row: %+v", rows[0])
	}
	want := deltas[0] + deltas[1] + deltas[2]
	if rows[1].Role != models.RoleAssistant || rows[1].Content != want {
		t.Fatalf("expected assistant row %q, got %+v", want, rows[1])
	}
}

func TestStreamTeeFidelity(t *testing.T) {
	// The forwarded body must be byte-identical to the upstream stream,
	// framing included, with no re-serialization.
	raw := ": warm-up\n\n" + sseEvent("a") + sseEvent("b") + "data: [DONE]\n\n" + sseEvent("late")
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		for i := 0; i < len(raw); i += 7 {
			end := i + 7
			if end > len(raw) {
				end = len(raw)
			}
			w.Write([]byte(raw[i:end]))
			flusher.Flush()
		}
	}))
	defer upstream.Close()

	h, conversations, messages := newChatHandler(upstream.URL)
	rr := postStream(t, h, models.ChatStreamRequest{
		Messages:  []models.ChatMessage{{Role: "user", Content: "hi"}},
		Language:  "en",
		SessionID: "s-tee",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != raw {
		t.Fatalf("forwarded bytes differ from upstream bytes:\nwant %q\ngot  %q", raw, rr.Body.String())
	}

	// Content after [DONE] still reaches the accumulator.
	conversation, _ := conversations.GetBySessionID(context.Background(), "s-tee")
	rows, _ := messages.ListByConversation(context.Background(), conversation.ID)
	if len(rows) != 2 || rows[1].Content != "ablate" {
		t.Fatalf("expected assistant content %q, got %+v", "ablate", rows)
	}
}

func TestStreamUserMessageSurvivesUpstream429(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer upstream.Close()

	h, conversations, messages := newChatHandler(upstream.URL)
	rr := postStream(t, h, models.ChatStreamRequest{
		Messages:  []models.ChatMessage{{Role: "user", Content: "hello"}},
		Language:  "en",
		SessionID: "s-429",
	})

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	var resp models.ChatErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil || resp.Error == "" {
		t.Fatalf("expected error body, got %q", rr.Body.String())
	}

	conversation, err := conversations.GetBySessionID(context.Background(), "s-429")
	if err != nil {
		t.Fatalf("conversation missing: %v", err)
	}
	rows, _ := messages.ListByConversation(context.Background(), conversation.ID)
	if len(rows) != 1 || rows[0].Role != models.RoleUser || rows[0].Content != "hello" {
		t.Fatalf("expected only the user message persisted, got %+v", rows)
	}
}

func TestStreamUpstreamErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name           string
		upstreamStatus int
		wantStatus     int
	}{
		{"rate limited", http.StatusTooManyRequests, http.StatusTooManyRequests},
		{"quota exceeded", http.StatusPaymentRequired, http.StatusPaymentRequired},
		{"server error", http.StatusInternalServerError, http.StatusInternalServerError},
		{"bad gateway", http.StatusBadGateway, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.upstreamStatus)
				w.Write([]byte(`{"error":{"message":"nope"}}`))
			}))
			defer upstream.Close()

			h, _, _ := newChatHandler(upstream.URL)
			rr := postStream(t, h, models.ChatStreamRequest{
				Messages:  []models.ChatMessage{{Role: "user", Content: "hi"}},
				Language:  "en",
				SessionID: "s-err",
			})
			if rr.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rr.Code)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("error must be JSON, not a stream; got %q", ct)
			}
		})
	}
}

func TestStreamResolutionFailureIsFatal(t *testing.T) {
	h, conversations, messages := newChatHandler("http://127.0.0.1:0")
	conversations.failing = true

	rr := postStream(t, h, models.ChatStreamRequest{
		Messages:  []models.ChatMessage{{Role: "user", Content: "hi"}},
		Language:  "en",
		SessionID: "s-x",
	})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if len(messages.rows) != 0 {
		t.Fatalf("no message should persist when resolution fails, got %+v", messages.rows)
	}
}

func TestStreamConversationReusedAcrossTurns(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(sseEvent("reply") + "data: [DONE]\n\n"))
	}))
	defer upstream.Close()

	h, conversations, messages := newChatHandler(upstream.URL)

	first := postStream(t, h, models.ChatStreamRequest{
		Messages:  []models.ChatMessage{{Role: "user", Content: "U1"}},
		Language:  "en",
		SessionID: "abc123",
	})
	second := postStream(t, h, models.ChatStreamRequest{
		Messages: []models.ChatMessage{
			{Role: "user", Content: "U1"},
			{Role: "assistant", Content: "reply"},
			{Role: "user", Content: "U2"},
		},
		Language:  "en",
		SessionID: "abc123",
	})

	if first.Header().Get("X-Conversation-Id") != second.Header().Get("X-Conversation-Id") {
		t.Fatalf("resolution not idempotent: %q vs %q",
			first.Header().Get("X-Conversation-Id"), second.Header().Get("X-Conversation-Id"))
	}
	if len(conversations.bySession) != 1 {
		t.Fatalf("expected one conversation, got %d", len(conversations.bySession))
	}

	conversation, _ := conversations.GetBySessionID(context.Background(), "abc123")
	rows, _ := messages.ListByConversation(context.Background(), conversation.ID)
	var got []string
	for _, m := range rows {
		got = append(got, m.Role+":"+m.Content)
	}
	want := []string{"user:U1", "assistant:reply", "user:U2", "assistant:reply"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ordering broken at %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestHistoryEndpoint(t *testing.T) {
	h, conversations, messages := newChatHandler("http://127.0.0.1:0")

	conversation, _ := conversations.Resolve(context.Background(), "s-h", models.LanguageEnglish)
	messages.Create(context.Background(), &models.Message{ConversationID: conversation.ID, Role: "user", Content: "q"})
	messages.Create(context.Background(), &models.Message{ConversationID: conversation.ID, Role: "assistant", Content: "a"})

	r := httptest.NewRequest(http.MethodGet, "/api/v1/chat/history?sessionId=s-h", nil)
	rr := httptest.NewRecorder()
	h.History(rr, r)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp models.ChatHistoryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad history body: %v", err)
	}
	if resp.ConversationID != conversation.ID || len(resp.Messages) != 2 {
		t.Fatalf("unexpected history: %+v", resp)
	}

	// Unknown session
	r = httptest.NewRequest(http.MethodGet, "/api/v1/chat/history?sessionId=nope", nil)
	rr = httptest.NewRecorder()
	h.History(rr, r)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestWindowHistory(t *testing.T) {
	var long []models.ChatMessage
	for i := 0; i < historyWindow+5; i++ {
		long = append(long, models.ChatMessage{Role: "user", Content: fmt.Sprintf("m%d", i)})
	}
	got := windowHistory(long)
	if len(got) != historyWindow {
		t.Fatalf("expected window of %d, got %d", historyWindow, len(got))
	}
	if got[len(got)-1].Content != long[len(long)-1].Content {
		t.Fatalf("window must keep the trailing messages")
	}

	short := long[:3]
	if len(windowHistory(short)) != 3 {
		t.Fatalf("short histories must pass through untouched")
	}
}
