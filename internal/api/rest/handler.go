// Package rest exposes the control surface over HTTP.
package rest

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"path/filepath"

	zlog "github.com/rs/zerolog/log"

	"github.com/zainalm/sirenbox/internal/app/announce"
	"github.com/zainalm/sirenbox/internal/app/assets"
	"github.com/zainalm/sirenbox/internal/app/siren"
	"github.com/zainalm/sirenbox/internal/domain/mode"
)

// maxUploadBytes caps multipart memory buffering for uploads and announcements.
const maxUploadBytes = 64 << 20

// Handler maps HTTP requests onto the controller, the announcement
// pipeline and the asset store.
type Handler struct {
	controller *siren.Controller
	pipeline   *announce.Pipeline
	assets     *assets.Manager
	staticDir  string
}

// NewHandler creates a REST handler.
func NewHandler(controller *siren.Controller, pipeline *announce.Pipeline, assets *assets.Manager, staticDir string) *Handler {
	return &Handler{
		controller: controller,
		pipeline:   pipeline,
		assets:     assets,
		staticDir:  staticDir,
	}
}

// Register attaches all routes to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/start", h.handleStart)
	mux.HandleFunc("POST /api/stop", h.handleStop)
	mux.HandleFunc("POST /api/next_mode", h.handleNextMode)
	mux.HandleFunc("GET /api/status", h.handleStatus)
	mux.HandleFunc("POST /api/upload", h.handleUpload)
	mux.HandleFunc("POST /api/announce", h.handleAnnounce)

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(h.staticDir))))
	mux.HandleFunc("GET /{$}", h.handleIndex)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(h.staticDir, "index.html"))
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Start(); err != nil {
		zlog.Error().Err(err).Msg("start failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.controller.Status())
}

func (h *Handler) handleStop(w http.ResponseWriter, r *http.Request) {
	h.controller.Stop()
	writeJSON(w, http.StatusOK, h.controller.Status())
}

func (h *Handler) handleNextMode(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.SwitchMode(); err != nil {
		zlog.Error().Err(err).Msg("mode switch failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.controller.Status())
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.controller.Status())
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, ok := h.formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	if err := h.assets.AcceptUpload(r.Context(), file, header.Filename); err != nil {
		zlog.Error().Err(err).Str("file", header.Filename).Msg("upload rejected")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Replaced audio takes effect immediately when the custom loop is playing.
	if err := h.controller.RestartIfCurrent(mode.CustomName); err != nil {
		zlog.Error().Err(err).Msg("failed to restart custom loop after upload")
	}

	writeJSON(w, http.StatusOK, result{OK: true})
}

func (h *Handler) handleAnnounce(w http.ResponseWriter, r *http.Request) {
	file, header, ok := h.formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	if err := h.pipeline.Announce(r.Context(), file, header.Filename); err != nil {
		zlog.Error().Err(err).Str("file", header.Filename).Msg("announcement failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result{OK: true})
}

// formFile extracts the uploaded "file" part, writing a 400 response when
// it is missing.
func (h *Handler) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	f, fh, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file")
		return nil, nil, false
	}
	return f, fh, true
}

type result struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, result{OK: false, Error: msg})
}
