package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/avvvet/checkin-services/internal/checkinsvc/auth"
	"github.com/avvvet/checkin-services/internal/checkinsvc/models"
	"github.com/avvvet/checkin-services/internal/checkinsvc/service"
	"github.com/avvvet/checkin-services/internal/checkinsvc/store"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) ListCheckinsHandler(w http.ResponseWriter, r *http.Request) {
	records, err := h.checkins.List(r.Context())
	if err != nil {
		serverError(w, r, "failed to read data", err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) CreateCheckinHandler(w http.ResponseWriter, r *http.Request) {
	var in models.CheckinInput
	if err := decodeBody(w, r, &in); err != nil {
		writeDecodeError(w, err)
		return
	}

	created, err := h.checkins.Create(r.Context(), in)
	if err != nil {
		if errors.Is(err, service.ErrNameContactRequired) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		serverError(w, r, "failed to save", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateCheckinHandler(w http.ResponseWriter, r *http.Request) {
	var u models.CheckinUpdate
	if err := decodeBody(w, r, &u); err != nil {
		writeDecodeError(w, err)
		return
	}

	updated, err := h.checkins.Update(r.Context(), u)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, updated)
	case errors.Is(err, service.ErrIDRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, store.ErrNotFound.Error())
	default:
		serverError(w, r, "failed to update", err)
	}
}

type deleteRequest struct {
	ID  models.FlexString `json:"id"`
	All models.FlexBool   `json:"all"`
}

// DeleteCheckinHandler removes one record by ?id= or a body {"id"}, or the
// whole list with ?all=1 or a body {"all":true}. The query string wins.
func (h *Handler) DeleteCheckinHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := strings.TrimSpace(q.Get("id"))
	all := queryFlag(q.Get("all"))

	if id == "" && !all {
		var req deleteRequest
		// a broken body only means no id was supplied
		_ = decodeBody(w, r, &req)
		id = strings.TrimSpace(req.ID.String())
		all = req.All.Bool()
	}

	var err error
	switch {
	case id != "":
		err = h.checkins.Delete(r.Context(), id)
	case all:
		if claims, ok := auth.FromContext(r.Context()); ok {
			log.Warnf("all check-ins cleared by %s", claims.Email)
		}
		err = h.checkins.DeleteAll(r.Context())
	default:
		err = service.ErrIDRequired
	}

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, okResponse{OK: true})
	case errors.Is(err, service.ErrIDRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, store.ErrNotFound.Error())
	default:
		serverError(w, r, "failed to delete", err)
	}
}

func queryFlag(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}
