package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/natteepao-collab/jwherbal-roots-and-remedies-sub000/internal/models"
	"github.com/natteepao-collab/jwherbal-roots-and-remedies-sub000/internal/services"
	"github.com/natteepao-collab/jwherbal-roots-and-remedies-sub000/internal/sse"
)

// historyWindow caps how many trailing messages are sent upstream per turn,
// so long-running conversations do not grow the prompt without bound.
const historyWindow = 20

// streamReadBufferSize is the tee read buffer. Together with the decoder's
// single pending line this is all the relay ever holds of a response.
const streamReadBufferSize = 4096

type conversationStore interface {
	Resolve(ctx context.Context, sessionID string, lang models.Language) (*models.Conversation, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.Conversation, error)
}

type messageStore interface {
	Create(ctx context.Context, m *models.Message) error
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error)
}

type contextAssembler interface {
	Assemble(ctx context.Context, lang models.Language) string
}

type ChatHandler struct {
	conversations conversationStore
	messages      messageStore
	assembler     contextAssembler
	upstream      *services.UpstreamClient
}

func NewChatHandler(conversations conversationStore, messages messageStore, assembler contextAssembler, upstream *services.UpstreamClient) *ChatHandler {
	return &ChatHandler{
		conversations: conversations,
		messages:      messages,
		assembler:     assembler,
		upstream:      upstream,
	}
}

// Stream handles one chat turn: it resolves the conversation, persists the
// user's message before anything can fail upstream, then relays the upstream
// SSE body to the client byte-for-byte while independently accumulating the
// decoded assistant text for persistence.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.ChatStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeChatError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeChatError(w, http.StatusBadRequest, "messages are required")
		return
	}
	lang, err := models.ParseLanguage(req.Language)
	if err != nil {
		writeChatError(w, http.StatusBadRequest, "language must be one of th, en, zh")
		return
	}

	userContent := latestUserContent(req.Messages)
	if userContent == "" {
		writeChatError(w, http.StatusBadRequest, "a non-empty user message is required")
		return
	}

	conversation, err := h.conversations.Resolve(ctx, req.SessionID, lang)
	if err != nil {
		log.Printf("ERROR: conversation resolution failed: %v", err)
		writeChatError(w, http.StatusInternalServerError, "failed to start conversation")
		return
	}

	// Persist the user's text before the upstream call so it survives an
	// outright upstream failure. The write itself is best-effort: the user
	// must still get their answer if storage is down.
	userMsg := &models.Message{
		ConversationID: conversation.ID,
		Role:           models.RoleUser,
		Content:        userContent,
	}
	if err := h.messages.Create(ctx, userMsg); err != nil {
		log.Printf("ERROR: failed to persist user message: %v", err)
	}

	system := services.SystemPrompt(lang, h.assembler.Assemble(ctx, lang))

	stream, err := h.upstream.OpenStream(ctx, system, windowHistory(req.Messages))
	if err != nil {
		h.writeUpstreamError(w, err)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Conversation-Id", conversation.ID.String())
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)

	// Tee loop. The bytes forwarded are exactly the bytes read from
	// upstream, in receipt order; the accumulator decodes the same bytes so
	// persisted content matches what the client rendered. Decoding never
	// delays or alters forwarding.
	var acc sse.Decoder
	buf := make([]byte, streamReadBufferSize)
	for {
		n, readErr := stream.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				// Client went away: stop reading and release upstream.
				log.Printf("INFO: chat client disconnected: %v", writeErr)
				break
			}
			if flusher != nil {
				flusher.Flush()
			}
			acc.Feed(buf[:n])
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			log.Printf("WARN: upstream stream ended early: %v", readErr)
			break
		}
	}

	if text := acc.Text(); text != "" {
		assistantMsg := &models.Message{
			ConversationID: conversation.ID,
			Role:           models.RoleAssistant,
			Content:        text,
		}
		if err := h.messages.Create(context.WithoutCancel(ctx), assistantMsg); err != nil {
			log.Printf("ERROR: failed to persist assistant message: %v", err)
		}
	}
}

// History returns the persisted transcript for a session so the storefront
// widget can restore it after a reload.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		writeChatError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	conversation, err := h.conversations.GetBySessionID(r.Context(), sessionID)
	if err != nil {
		writeChatError(w, http.StatusNotFound, "conversation not found")
		return
	}

	messages, err := h.messages.ListByConversation(r.Context(), conversation.ID)
	if err != nil {
		log.Printf("ERROR: failed to list messages: %v", err)
		writeChatError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}

	writeJSON(w, http.StatusOK, models.ChatHistoryResponse{
		ConversationID: conversation.ID,
		Messages:       messages,
	})
}

func (h *ChatHandler) writeUpstreamError(w http.ResponseWriter, err error) {
	switch e := err.(type) {
	case *services.ConfigurationError:
		log.Printf("ERROR: chat misconfigured: %v", e)
		writeChatError(w, http.StatusInternalServerError, "chat is not available right now")
	case *services.RateLimitError:
		writeChatError(w, http.StatusTooManyRequests, e.Message)
	case *services.QuotaError:
		writeChatError(w, http.StatusPaymentRequired, e.Message)
	case *services.UpstreamError:
		log.Printf("ERROR: upstream returned %d: %s", e.Status, e.Body)
		writeChatError(w, http.StatusInternalServerError, "the assistant could not answer, please try again")
	default:
		log.Printf("ERROR: upstream call failed: %v", err)
		writeChatError(w, http.StatusInternalServerError, "the assistant could not answer, please try again")
	}
}

// latestUserContent returns the content of the last user-authored message.
func latestUserContent(messages []models.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleUser {
			return strings.TrimSpace(messages[i].Content)
		}
	}
	return ""
}

// windowHistory trims the history sent upstream to the trailing window.
func windowHistory(messages []models.ChatMessage) []models.ChatMessage {
	if len(messages) <= historyWindow {
		return messages
	}
	return messages[len(messages)-historyWindow:]
}
