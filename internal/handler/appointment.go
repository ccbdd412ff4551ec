package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vetchat/chatbot-server-go/internal/httputil"
	"github.com/vetchat/chatbot-server-go/internal/model"
)

type AppointmentManager interface {
	Create(ctx context.Context, sessionID string, details model.AppointmentDetails) (*model.Appointment, error)
	FindLatestBySession(ctx context.Context, sessionID string) (*model.Appointment, error)
	List(ctx context.Context, filter model.AppointmentFilter) ([]model.Appointment, error)
	UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) (*model.Appointment, error)
}

type AppointmentHandler struct {
	appointments AppointmentManager
}

func NewAppointmentHandler(appointments AppointmentManager) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments}
}

func (h *AppointmentHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/session/{sessionId}", h.GetBySession)
	r.Patch("/{id}/status", h.UpdateStatus)

	return r
}

// POST /api/appointments
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID          string                   `json:"sessionId"`
		AppointmentDetails model.AppointmentDetails `json:"appointmentDetails"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	appt, err := h.appointments.Create(r.Context(), req.SessionID, req.AppointmentDetails)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, appt)
}

// GET /api/appointments/session/{sessionId}
func (h *AppointmentHandler) GetBySession(w http.ResponseWriter, r *http.Request) {
	appt, err := h.appointments.FindLatestBySession(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, appt)
}

// GET /api/appointments?status&dateFrom&dateTo&phoneNumber
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.AppointmentFilter{
		Status:      model.AppointmentStatus(q.Get("status")),
		DateFrom:    q.Get("dateFrom"),
		DateTo:      q.Get("dateTo"),
		PhoneNumber: q.Get("phoneNumber"),
	}

	appts, err := h.appointments.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if appts == nil {
		appts = []model.Appointment{}
	}

	httputil.WriteList(w, appts, len(appts))
}

// PATCH /api/appointments/{id}/status
func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status model.AppointmentStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	appt, err := h.appointments.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, appt)
}
