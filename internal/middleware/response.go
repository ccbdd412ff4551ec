package middleware

import (
	"net/http"

	apperrors "github.com/vetchat/chatbot-server-go/internal/errors"
	"github.com/vetchat/chatbot-server-go/internal/httputil"
)

func writeError(w http.ResponseWriter, status int, err *apperrors.AppError) {
	httputil.WriteErrorWithStatus(w, status, err)
}
