package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/vetchat/chatbot-server-go/internal/errors"
	"github.com/vetchat/chatbot-server-go/internal/httputil"
	"github.com/vetchat/chatbot-server-go/internal/model"
	"github.com/vetchat/chatbot-server-go/internal/service"
)

type ChatProcessor interface {
	HandleMessage(ctx context.Context, params service.ChatParams) (*service.ChatResult, error)
}

type ChatHandler struct {
	chat ChatProcessor
}

func NewChatHandler(chat ChatProcessor) *ChatHandler {
	return &ChatHandler{chat: chat}
}

func (h *ChatHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Chat)

	return r
}

const messageRequired = "Message is required and must be a non-empty string"

type chatRequest struct {
	Message   *string            `json:"message"`
	SessionID string             `json:"sessionId"`
	Context   *model.ContextData `json:"context"`
}

// POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field == "message" {
			httputil.WriteError(w, apperrors.ValidationError(messageRequired))
			return
		}
		httputil.WriteError(w, err)
		return
	}
	if req.Message == nil {
		httputil.WriteError(w, apperrors.ValidationError(messageRequired))
		return
	}

	result, err := h.chat.HandleMessage(r.Context(), service.ChatParams{
		Message:   *req.Message,
		SessionID: req.SessionID,
		Context:   req.Context,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, result)
}
