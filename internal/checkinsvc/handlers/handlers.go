package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/avvvet/checkin-services/internal/checkinsvc/service"
	"github.com/go-chi/chi/middleware"
	log "github.com/sirupsen/logrus"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 64 << 10

var (
	errInvalidJSON  = errors.New("invalid json")
	errBodyTooLarge = errors.New("request body too large")
)

type Handler struct {
	checkins  *service.CheckinService
	auth      *service.AuthService
	backend   string
	rateLimit int // public POST requests per minute per IP, 0 disables
}

func NewHandler(checkins *service.CheckinService, auth *service.AuthService, backend string, rateLimit int) *Handler {
	return &Handler{
		checkins:  checkins,
		auth:      auth,
		backend:   backend,
		rateLimit: rateLimit,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("unable to encode response: %s", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

// serverError logs err with the request id and answers with a fixed message.
func serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	log.WithFields(log.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"method":     r.Method,
		"path":       r.URL.Path,
	}).Errorf("%s: %s", msg, err)
	writeError(w, http.StatusInternalServerError, msg)
}

// decodeBody reads a JSON body into v. An empty body or any JSON value that
// is not an object leaves v untouched, matching what browsers and form
// helpers send for "no fields".
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		return errInvalidJSON
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if !json.Valid(raw) {
		return errInvalidJSON
	}
	if raw[0] != '{' {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errInvalidJSON
	}
	return nil
}

func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, errInvalidJSON.Error())
}

type healthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.checkins.Ping(r.Context()); err != nil {
		log.Warnf("health check: store unavailable: %s", err)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Backend: h.backend})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Backend: h.backend})
}

func (h *Handler) OptionsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *Handler) MethodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
