package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"brandify/internal/storage"
	"brandify/internal/transform"
)

// App bundles the dependencies the HTTP handlers need.
type App struct {
	Logger   zerolog.Logger
	Sessions *transform.Registry
	Store    *storage.FileStore
	Uploader transform.Uploader
	Invoker  transform.Invoker
	Capturer transform.Capturer
	AgentID  string
	Origins  []string
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
