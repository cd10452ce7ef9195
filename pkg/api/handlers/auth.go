package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"hoaportal/pkg/auth"
	"hoaportal/pkg/logger"
	"hoaportal/pkg/models"
	"hoaportal/pkg/store"
	"hoaportal/pkg/telemetry"
	"hoaportal/pkg/utils"
)

var sessions *auth.Manager

// RegisterAuth registers login, refresh and logout endpoints.
func RegisterAuth(r *mux.Router, mgr *auth.Manager) {
	sessions = mgr
	r.HandleFunc("/login", login).Methods(http.MethodPost)
	r.HandleFunc("/refresh-token", refreshToken).Methods(http.MethodPost)
	r.HandleFunc("/logout", logout).Methods(http.MethodPost)
}

type tokenResponse struct {
	Token string `json:"token"`
}

type loginResponse struct {
	Token string       `json:"token"`
	Owner models.Owner `json:"owner"`
}

func login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := utils.JSONRead(r, &in); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.Email == "" || in.Password == "" {
		utils.JSONError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	sess, err := sessions.Login(in.Email, in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrBadCredentials) {
			telemetry.LoginsTotal.WithLabelValues("rejected").Inc()
			utils.JSONError(w, http.StatusUnauthorized, "bad credentials")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, "login failed")
		return
	}
	owner, err := store.GetOwner(sess.OwnerID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "login failed")
		return
	}
	telemetry.LoginsTotal.WithLabelValues("ok").Inc()
	utils.JSONWrite(w, http.StatusOK, loginResponse{Token: sess.Token, Owner: owner.Public()})
}

func refreshToken(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token string `json:"token"`
	}
	if err := utils.JSONRead(r, &in); err != nil || in.Token == "" {
		utils.JSONError(w, http.StatusBadRequest, "token is required")
		return
	}
	sess, err := sessions.Refresh(in.Token)
	if err != nil {
		telemetry.TokenRefreshesTotal.WithLabelValues("rejected").Inc()
		switch {
		case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrRefreshExpired):
			utils.JSONError(w, http.StatusUnauthorized, "unauthorized")
		default:
			utils.JSONError(w, http.StatusInternalServerError, "refresh failed")
		}
		return
	}
	telemetry.TokenRefreshesTotal.WithLabelValues("ok").Inc()
	utils.JSONWrite(w, http.StatusOK, tokenResponse{Token: sess.Token})
}

func logout(w http.ResponseWriter, r *http.Request) {
	token := auth.BearerToken(r)
	if err := sessions.Revoke(token); err != nil {
		logger.Warn("logout_revoke_failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}
