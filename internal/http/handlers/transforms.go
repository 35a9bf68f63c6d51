package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"brandify/internal/transform"
)

// maxUploadBytes caps the multipart body for transform creation.
const maxUploadBytes = 15 << 20

var allowedImageExts = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// CreateTransform stages the uploaded image, creates a new session and
// starts the pipeline. The file is validated before anything touches
// the network.
func (a *App) CreateTransform(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "validation", "could not parse the upload")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		a.error(w, http.StatusBadRequest, "validation", "an image file is required")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	ext := strings.ToLower(filepath.Ext(name))
	mimeType, ok := allowedImageExts[ext]
	if !ok {
		a.error(w, http.StatusBadRequest, "validation", "only png, jpg, jpeg, webp and gif images are supported")
		return
	}
	if ct := header.Header.Get("Content-Type"); ct != "" {
		mimeType = ct
	}

	data, err := io.ReadAll(file)
	if err != nil {
		a.error(w, http.StatusBadRequest, "validation", "could not read the uploaded image")
		return
	}

	sessionID := uuid.NewString()
	key, err := a.Store.Write(r.Context(), path.Join("uploads", sessionID, name), data)
	if err != nil {
		a.Logger.Error().Err(err).Str("session_id", sessionID).Msg("http: staging upload failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not store the uploaded image")
		return
	}

	wf := transform.New(transform.Options{
		SessionID: sessionID,
		Uploader:  a.Uploader,
		Invoker:   a.Invoker,
		Capturer:  a.Capturer,
		AgentID:   a.AgentID,
		Logger:    a.Logger,
	})
	wf.Select(transform.SourceAsset{
		Name:       name,
		MIME:       mimeType,
		Size:       int64(len(data)),
		StorageKey: key,
	}, r.FormValue("style"))

	// The pipeline must outlive this request.
	if err := wf.Start(context.Background()); err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "could not start the transform")
		return
	}
	a.Sessions.Put(sessionID, wf)

	a.json(w, http.StatusAccepted, wf.Snapshot())
}

// GetTransform returns the current snapshot of a session.
func (a *App) GetTransform(w http.ResponseWriter, r *http.Request) {
	wf, ok := a.Sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "unknown transform session")
		return
	}
	a.json(w, http.StatusOK, wf.Snapshot())
}

// RetryTransform re-runs a failed session from the upload step with the
// same staged asset and style directive.
func (a *App) RetryTransform(w http.ResponseWriter, r *http.Request) {
	wf, ok := a.Sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "unknown transform session")
		return
	}
	if err := wf.Retry(context.Background()); err != nil {
		switch {
		case errors.Is(err, transform.ErrNotRetryable):
			a.error(w, http.StatusConflict, "not_retryable", "only failed transforms can be retried")
		case errors.Is(err, transform.ErrInFlight):
			a.error(w, http.StatusConflict, "in_flight", "a transform is already running for this session")
		case errors.Is(err, transform.ErrNoSource):
			a.error(w, http.StatusConflict, "no_source", "the session has no staged image")
		default:
			a.error(w, http.StatusInternalServerError, "internal", "could not retry the transform")
		}
		return
	}
	a.json(w, http.StatusAccepted, wf.Snapshot())
}

// DiscardTransform drops the session and its staged asset. Discarding
// an unknown session is a no-op.
func (a *App) DiscardTransform(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	wf, ok := a.Sessions.Get(id)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	src, hadSource := wf.Source()
	wf.Clear()
	a.Sessions.Delete(id)
	if hadSource {
		if err := a.Store.Remove(r.Context(), src.StorageKey); err != nil {
			a.Logger.Warn().Err(err).Str("session_id", id).Msg("http: staged asset cleanup failed")
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
