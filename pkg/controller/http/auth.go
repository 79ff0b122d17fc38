package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gathsalt/pkg/domain/model/auth"
	"github.com/secmon-lab/gathsalt/pkg/usecase"
	"github.com/secmon-lab/gathsalt/pkg/utils/errutil"
)

type AuthUseCase = usecase.AuthUseCaseInterface

const (
	sessionCookieName = "gathsalt_session"
	sessionMaxAge     = 24 * 60 * 60
)

type loginRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

type userMeResponse struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
	NoAuth bool   `json:"noAuth"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func sessionCookie(r *http.Request, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}

// authLoginHandler runs the simulated SSO handshake and sets the session cookie
func authLoginHandler(authUC AuthUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			handleError(r.Context(), w, goerr.Wrap(usecase.ErrInvalidInput, "invalid login request", goerr.V("cause", err.Error())))
			return
		}

		user := &auth.User{Name: req.Name, Email: req.Email, Avatar: req.Avatar}
		token, err := authUC.Login(r.Context(), user)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}

		if token != "" {
			http.SetCookie(w, sessionCookie(r, token, sessionMaxAge))
		}

		writeJSON(r.Context(), w, http.StatusOK, userMeResponse{
			Name:   user.Name,
			Email:  user.Email,
			Avatar: user.Avatar,
			NoAuth: authUC.IsNoAuthn(),
		})
	}
}

// authLogoutHandler clears the session cookie
func authLogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, sessionCookie(r, "", -1))
		writeJSON(r.Context(), w, http.StatusOK, successResponse{Success: true})
	}
}

// authMeHandler returns the current user
func authMeHandler(authUC AuthUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var token string
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			token = cookie.Value
		}

		user, err := authUC.Validate(r.Context(), token)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}

		writeJSON(r.Context(), w, http.StatusOK, userMeResponse{
			Name:   user.Name,
			Email:  user.Email,
			Avatar: user.Avatar,
			NoAuth: authUC.IsNoAuthn(),
		})
	}
}

// writeJSON writes a JSON response with proper error handling
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		_ = errutil.Handle(ctx, err, "failed to encode JSON response")
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, statusCode int, msg string) {
	writeJSON(ctx, w, statusCode, errorResponse{Error: msg})
}
