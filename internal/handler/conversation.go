package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vetchat/chatbot-server-go/internal/httputil"
	"github.com/vetchat/chatbot-server-go/internal/model"
	"github.com/vetchat/chatbot-server-go/internal/service"
)

type ConversationReader interface {
	ListSessions(ctx context.Context) ([]model.Session, error)
	GetConversation(ctx context.Context, sessionID string, limit int) (*service.Conversation, error)
	ListMessages(ctx context.Context, sessionID string, page, limit int) (*service.MessagePage, error)
}

type ConversationHandler struct {
	sessions ConversationReader
}

func NewConversationHandler(sessions ConversationReader) *ConversationHandler {
	return &ConversationHandler{sessions: sessions}
}

func (h *ConversationHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{sessionId}", h.Get)
	r.Get("/{sessionId}/messages", h.Messages)

	return r
}

// GET /api/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListSessions(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []model.Session{}
	}

	httputil.WriteList(w, sessions, len(sessions))
}

// GET /api/conversations/{sessionId}?limit
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	limit := ParseLimit(r, service.DefaultConversationLimit)

	conv, err := h.sessions.GetConversation(r.Context(), chi.URLParam(r, "sessionId"), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, conv)
}

// GET /api/conversations/{sessionId}/messages?page&limit
func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r, service.DefaultPageSize)

	page, err := h.sessions.ListMessages(r.Context(), chi.URLParam(r, "sessionId"), p.Page, p.Limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, page)
}
