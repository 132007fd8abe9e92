package handlers

import (
	"errors"
	"net/http"

	"github.com/avvvet/checkin-services/internal/checkinsvc/auth"
	"github.com/avvvet/checkin-services/internal/checkinsvc/models"
	"github.com/go-chi/jwtauth"
)

type loginResponse struct {
	Token string `json:"token"`
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := decodeBody(w, r, &creds); err != nil {
		writeDecodeError(w, err)
		return
	}

	token, err := h.auth.Login(r.Context(), creds.Email.String(), creds.Password.String())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, loginResponse{Token: token})
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
	case errors.Is(err, auth.ErrBackendUnavailable):
		serverError(w, r, auth.ErrBackendUnavailable.Error(), err)
	default:
		serverError(w, r, "failed to sign token", err)
	}
}

// Authenticator rejects requests without a valid bearer token before any
// store access and stores the token claims in the request context.
func (h *Handler) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := jwtauth.TokenFromHeader(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, auth.ErrUnauthorized.Error())
			return
		}

		claims, err := h.auth.Authenticate(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, auth.ErrUnauthorized.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.NewContext(r.Context(), claims)))
	})
}
