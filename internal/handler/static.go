package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
)

// WidgetAssets maps public widget routes to files under the static dir.
var WidgetAssets = map[string]string{
	"/chatbot.js":              "chatbot.js",
	"/chatbot.css":             "chatbot.css",
	"/sdk/vet-chatbot.iife.js": "sdk/vet-chatbot.iife.js",
	"/sdk/vet-chatbot.css":     "sdk/vet-chatbot.css",
}

type StaticHandler struct {
	staticDir string
}

func NewStaticHandler(staticDir string) *StaticHandler {
	return &StaticHandler{staticDir: staticDir}
}

// Register mounts every widget asset route on r.
func (h *StaticHandler) Register(r chi.Router) {
	for route, file := range WidgetAssets {
		r.Get(route, h.serveFile(file))
	}
}

func (h *StaticHandler) serveFile(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := filepath.Join(h.staticDir, filepath.FromSlash(name))

		info, err := os.Stat(filePath)
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}

		// embeddable from any host page
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		http.ServeFile(w, r, filePath)
	}
}
