package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vetchat/chatbot-server-go/internal/errors"
	"github.com/vetchat/chatbot-server-go/internal/model"
	"github.com/vetchat/chatbot-server-go/internal/service"
)

type mockChat struct {
	mock.Mock
}

func (m *mockChat) HandleMessage(ctx context.Context, params service.ChatParams) (*service.ChatResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ChatResult), args.Error(1)
}

type mockAppointments struct {
	mock.Mock
}

func (m *mockAppointments) Create(ctx context.Context, sessionID string, details model.AppointmentDetails) (*model.Appointment, error) {
	args := m.Called(ctx, sessionID, details)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *mockAppointments) FindLatestBySession(ctx context.Context, sessionID string) (*model.Appointment, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *mockAppointments) List(ctx context.Context, filter model.AppointmentFilter) ([]model.Appointment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Appointment), args.Error(1)
}

func (m *mockAppointments) UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) (*model.Appointment, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

type mockConversations struct {
	mock.Mock
}

func (m *mockConversations) ListSessions(ctx context.Context) ([]model.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Session), args.Error(1)
}

func (m *mockConversations) GetConversation(ctx context.Context, sessionID string, limit int) (*service.Conversation, error) {
	args := m.Called(ctx, sessionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Conversation), args.Error(1)
}

func (m *mockConversations) ListMessages(ctx context.Context, sessionID string, page, limit int) (*service.MessagePage, error) {
	args := m.Called(ctx, sessionID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.MessagePage), args.Error(1)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Count   *int            `json:"count"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestChatHandler(t *testing.T) {
	t.Run("returns turn result", func(t *testing.T) {
		chat := new(mockChat)
		chat.On("HandleMessage", mock.Anything, service.ChatParams{
			Message:   "hello",
			SessionID: "s-1",
			Context:   &model.ContextData{UserName: "Kim"},
		}).Return(&service.ChatResult{Message: "Hi!", SessionID: "s-1", Intent: model.IntentGeneralQA}, nil)

		rec, env := doRequest(t, NewChatHandler(chat).Routes(), http.MethodPost, "/",
			`{"message":"hello","sessionId":"s-1","context":{"userName":"Kim"}}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, env.Success)
		var result service.ChatResult
		require.NoError(t, json.Unmarshal(env.Data, &result))
		assert.Equal(t, "Hi!", result.Message)
		assert.Equal(t, "s-1", result.SessionID)
		chat.AssertExpectations(t)
	})

	t.Run("missing message is rejected before the service", func(t *testing.T) {
		chat := new(mockChat)

		rec, env := doRequest(t, NewChatHandler(chat).Routes(), http.MethodPost, "/", `{"sessionId":"s-1"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, messageRequired, env.Error)
		chat.AssertNotCalled(t, "HandleMessage", mock.Anything, mock.Anything)
	})

	t.Run("non-string message is rejected", func(t *testing.T) {
		chat := new(mockChat)

		rec, env := doRequest(t, NewChatHandler(chat).Routes(), http.MethodPost, "/", `{"message":42}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_ERROR", env.Code)
		assert.Equal(t, messageRequired, env.Error)
		chat.AssertNotCalled(t, "HandleMessage", mock.Anything, mock.Anything)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec, env := doRequest(t, NewChatHandler(new(mockChat)).Routes(), http.MethodPost, "/", `{"message":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid request body", env.Error)
	})

	t.Run("too long message maps to 400", func(t *testing.T) {
		long := strings.Repeat("a", 1001)
		chat := new(mockChat)
		chat.On("HandleMessage", mock.Anything, mock.Anything).
			Return(nil, apperrors.ValidationError("Message is too long (max 1000 characters)"))

		rec, env := doRequest(t, NewChatHandler(chat).Routes(), http.MethodPost, "/", `{"message":"`+long+`"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, env.Success)
		assert.Contains(t, env.Error, "too long")
	})

	t.Run("busy session maps to 409", func(t *testing.T) {
		chat := new(mockChat)
		chat.On("HandleMessage", mock.Anything, mock.Anything).Return(nil, apperrors.SessionBusy())

		rec, env := doRequest(t, NewChatHandler(chat).Routes(), http.MethodPost, "/", `{"message":"hi","sessionId":"s-1"}`)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "SESSION_BUSY", env.Code)
	})

	t.Run("provider exhaustion hides the cause", func(t *testing.T) {
		chat := new(mockChat)
		chat.On("HandleMessage", mock.Anything, mock.Anything).
			Return(nil, apperrors.AIUnavailable(errors.New("gemini quota exceeded")))

		rec, env := doRequest(t, NewChatHandler(chat).Routes(), http.MethodPost, "/", `{"message":"hi"}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "AI_UNAVAILABLE", env.Code)
		assert.NotContains(t, rec.Body.String(), "quota")
	})
}

func sampleAppointment() *model.Appointment {
	return &model.Appointment{
		ID:        "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		SessionID: "s-1",
		AppointmentDetails: model.AppointmentDetails{
			OwnerName:     "Jane Kim",
			PetName:       "Coco",
			PhoneNumber:   "010-1234-5678",
			PreferredDate: "2026-11-02",
			PreferredTime: "10:00",
		},
		Status:    model.AppointmentStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestAppointmentHandler(t *testing.T) {
	t.Run("create returns 201", func(t *testing.T) {
		appts := new(mockAppointments)
		appt := sampleAppointment()
		appts.On("Create", mock.Anything, "s-1", appt.AppointmentDetails).Return(appt, nil)

		rec, env := doRequest(t, NewAppointmentHandler(appts).Routes(), http.MethodPost, "/",
			`{"sessionId":"s-1","appointmentDetails":{"ownerName":"Jane Kim","petName":"Coco","phoneNumber":"010-1234-5678","preferredDate":"2026-11-02","preferredTime":"10:00"}}`)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var got model.Appointment
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, appt.ID, got.ID)
		assert.Equal(t, "Coco", got.PetName)
		appts.AssertExpectations(t)
	})

	t.Run("create validation error", func(t *testing.T) {
		appts := new(mockAppointments)
		appts.On("Create", mock.Anything, "s-1", mock.Anything).
			Return(nil, apperrors.ValidationError("Owner name is required (min 2 characters), Preferred time is required"))

		rec, env := doRequest(t, NewAppointmentHandler(appts).Routes(), http.MethodPost, "/",
			`{"sessionId":"s-1","appointmentDetails":{}}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, env.Error, ", ")
	})

	t.Run("latest by session not found", func(t *testing.T) {
		appts := new(mockAppointments)
		appts.On("FindLatestBySession", mock.Anything, "missing").Return(nil, apperrors.NotFound("Appointment"))

		rec, env := doRequest(t, NewAppointmentHandler(appts).Routes(), http.MethodGet, "/session/missing", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", env.Code)
	})

	t.Run("list passes filters and count", func(t *testing.T) {
		appts := new(mockAppointments)
		filter := model.AppointmentFilter{
			Status:      model.AppointmentStatusPending,
			DateFrom:    "2026-11-01",
			DateTo:      "2026-11-30",
			PhoneNumber: "010-1234-5678",
		}
		appts.On("List", mock.Anything, filter).Return([]model.Appointment{*sampleAppointment()}, nil)

		rec, env := doRequest(t, NewAppointmentHandler(appts).Routes(), http.MethodGet,
			"/?status=pending&dateFrom=2026-11-01&dateTo=2026-11-30&phoneNumber=010-1234-5678", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, env.Count)
		assert.Equal(t, 1, *env.Count)
	})

	t.Run("empty list is an array", func(t *testing.T) {
		appts := new(mockAppointments)
		appts.On("List", mock.Anything, model.AppointmentFilter{}).Return(nil, nil)

		rec, env := doRequest(t, NewAppointmentHandler(appts).Routes(), http.MethodGet, "/", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, string(env.Data))
		assert.Equal(t, 0, *env.Count)
	})

	t.Run("update status", func(t *testing.T) {
		appts := new(mockAppointments)
		appt := sampleAppointment()
		appt.Status = model.AppointmentStatusConfirmed
		appts.On("UpdateStatus", mock.Anything, appt.ID, model.AppointmentStatusConfirmed).Return(appt, nil)

		rec, env := doRequest(t, NewAppointmentHandler(appts).Routes(), http.MethodPatch,
			"/"+appt.ID+"/status", `{"status":"confirmed"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, env.Success)
		appts.AssertExpectations(t)
	})

	t.Run("update status missing", func(t *testing.T) {
		appts := new(mockAppointments)
		appts.On("UpdateStatus", mock.Anything, "abc", model.AppointmentStatus("")).
			Return(nil, apperrors.MissingRequired("status"))

		rec, env := doRequest(t, NewAppointmentHandler(appts).Routes(), http.MethodPatch, "/abc/status", `{}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "MISSING_REQUIRED", env.Code)
	})
}

func TestConversationHandler(t *testing.T) {
	t.Run("list sessions", func(t *testing.T) {
		convs := new(mockConversations)
		convs.On("ListSessions", mock.Anything).Return([]model.Session{*model.NewSession("a"), *model.NewSession("b")}, nil)

		rec, env := doRequest(t, NewConversationHandler(convs).Routes(), http.MethodGet, "/", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 2, *env.Count)
	})

	t.Run("get uses default limit", func(t *testing.T) {
		convs := new(mockConversations)
		convs.On("GetConversation", mock.Anything, "s-1", service.DefaultConversationLimit).
			Return(&service.Conversation{Session: model.NewSession("s-1")}, nil)

		rec, _ := doRequest(t, NewConversationHandler(convs).Routes(), http.MethodGet, "/s-1", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		convs.AssertExpectations(t)
	})

	t.Run("get not found", func(t *testing.T) {
		convs := new(mockConversations)
		convs.On("GetConversation", mock.Anything, "nope", 5).Return(nil, apperrors.NotFound("Session"))

		rec, _ := doRequest(t, NewConversationHandler(convs).Routes(), http.MethodGet, "/nope?limit=5", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("messages paginated", func(t *testing.T) {
		convs := new(mockConversations)
		convs.On("ListMessages", mock.Anything, "s-1", 2, 10).Return(&service.MessagePage{
			Messages: []model.Message{
				{ID: 1, SessionID: "s-1", Role: model.RoleUser, Content: "first"},
				{ID: 2, SessionID: "s-1", Role: model.RoleAssistant, Content: "second"},
			},
			Pagination: service.Pagination{Page: 2, Limit: 10, TotalCount: 12, TotalPages: 2},
		}, nil)

		rec, env := doRequest(t, NewConversationHandler(convs).Routes(), http.MethodGet, "/s-1/messages?page=2&limit=10", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		var page service.MessagePage
		require.NoError(t, json.Unmarshal(env.Data, &page))
		require.Len(t, page.Messages, 2)
		assert.Equal(t, "first", page.Messages[0].Content)
		assert.Equal(t, 2, page.Pagination.TotalPages)
	})
}

func TestConversationHandler_Payload(t *testing.T) {
	t.Run("messages carry createdAt", func(t *testing.T) {
		created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
		convs := new(mockConversations)
		convs.On("ListMessages", mock.Anything, "s-1", 1, service.DefaultPageSize).Return(&service.MessagePage{
			Messages: []model.Message{{ID: 1, SessionID: "s-1", Role: model.RoleUser, Content: "hi", CreatedAt: created}},
		}, nil)

		rec, env := doRequest(t, NewConversationHandler(convs).Routes(), http.MethodGet, "/s-1/messages", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		var page struct {
			Messages []map[string]any `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &page))
		require.Len(t, page.Messages, 1)
		assert.Equal(t, "2026-03-01T09:30:00Z", page.Messages[0]["createdAt"])
		assert.NotContains(t, page.Messages[0], "timestamp")
	})

	t.Run("oversized limit is capped", func(t *testing.T) {
		convs := new(mockConversations)
		convs.On("GetConversation", mock.Anything, "s-1", MaxLimit).
			Return(&service.Conversation{Session: model.NewSession("s-1")}, nil)

		rec, _ := doRequest(t, NewConversationHandler(convs).Routes(), http.MethodGet, "/s-1?limit=500", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		convs.AssertExpectations(t)
	})
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query string
		want  PaginationParams
	}{
		{"", PaginationParams{Page: 1, Limit: 20}},
		{"?page=3&limit=50", PaginationParams{Page: 3, Limit: 50}},
		{"?page=-1&limit=0", PaginationParams{Page: 1, Limit: 20}},
		{"?limit=500", PaginationParams{Page: 1, Limit: MaxLimit}},
		{"?limit=100", PaginationParams{Page: 1, Limit: 100}},
		{"?page=abc", PaginationParams{Page: 1, Limit: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			assert.Equal(t, tt.want, ParsePagination(r, service.DefaultPageSize))
		})
	}
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func TestHealthHandler(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewHealthHandler(fakePinger{}, []string{"gemini", "groq"}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["status"])
		assert.NotEmpty(t, body["timestamp"])
		assert.Equal(t, []any{"gemini", "groq"}, body["providers"])
	})

	t.Run("database down", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewHealthHandler(fakePinger{err: errors.New("down")}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestStaticHandler(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "chatbot.js"), []byte("window.VetChat={}"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "sdk"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "sdk", "vet-chatbot.css"), []byte(".vet{color:red}"), 0644))

	r := chi.NewRouter()
	NewStaticHandler(tmpDir).Register(r)

	t.Run("serves widget script", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chatbot.js", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "VetChat")
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("serves sdk stylesheet", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sdk/vet-chatbot.css", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "color:red")
	})

	t.Run("missing bundle file is 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chatbot.css", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unlisted paths are not served", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sdk/../chatbot.js", nil))

		assert.NotEqual(t, http.StatusOK, rec.Code)
	})
}
