package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vetchat/chatbot-server-go/internal/config"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db        Pinger
	providers []string
}

func NewHealthHandler(db Pinger, providers []string) *HealthHandler {
	return &HealthHandler{db: db, providers: providers}
}

// GET /health
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), config.DBPingTimeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("health check: database ping failed")
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"providers": h.providers,
	})
}
