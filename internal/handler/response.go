package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/vetchat/chatbot-server-go/internal/errors"
	"github.com/vetchat/chatbot-server-go/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

// writeServiceError logs server-side failures before writing the envelope.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if httputil.StatusFromCode(apperrors.GetCode(err)) < http.StatusInternalServerError {
		httputil.WriteError(w, err)
		return
	}
	log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	httputil.WriteError(w, err)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.ValidationError("Request body is required")
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.ValidationError("Request body too large")
		}
		return apperrors.ValidationError("Invalid request body").WithCause(err)
	}
	return nil
}
