package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/MrEthical07/projectauth"
	"github.com/MrEthical07/projectauth/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	maxBodyBytes    = 1 << 16
	oauthStateName  = "oauth_state"
	oauthStateTTL   = 10 * time.Minute
	headerRequestID = "X-Request-ID"
)

type api struct {
	engine *projectauth.Engine
	cookie projectauth.CookieConfig
	logger logrus.FieldLogger
}

func newAPI(engine *projectauth.Engine, logger logrus.FieldLogger) *api {
	return &api{engine: engine, cookie: engine.Config().Cookie, logger: logger}
}

func (a *api) routes(mux *http.ServeMux) {
	wrap := func(h http.HandlerFunc) http.Handler { return middleware.RequestContext(h) }

	mux.Handle("POST /auth/register", wrap(a.register))
	mux.Handle("POST /auth/login", wrap(a.login))
	mux.Handle("POST /auth/refresh", wrap(a.refresh))
	mux.Handle("POST /auth/logout", wrap(a.logout))
	mux.Handle("POST /auth/recovery", wrap(a.requestRecovery))
	mux.Handle("POST /auth/reset", wrap(a.resetPassword))
	mux.Handle("GET /auth/oauth/{provider}/start", wrap(a.oauthStart))
	mux.Handle("GET /auth/oauth/{provider}/callback", wrap(a.oauthCallback))
	mux.Handle("GET /auth/me", middleware.Guard(a.engine)(http.HandlerFunc(a.me)))
}

type accountResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Provider string `json:"provider,omitempty"`
}

type sessionResponse struct {
	AccessToken string          `json:"accessToken"`
	Account     accountResponse `json:"account"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *api) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"fullName"`
		Avatar   string `json:"avatar"`
	}
	if !a.decode(w, r, &req) {
		return
	}

	pair, err := a.engine.Register(r.Context(), projectauth.RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Avatar:   req.Avatar,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.session(w, http.StatusCreated, pair)
}

func (a *api) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if !a.decode(w, r, &req) {
		return
	}

	pair, err := a.engine.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.session(w, http.StatusOK, pair)
}

func (a *api) refresh(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.RefreshTokenFromRequest(r, a.cookie)
	if err != nil {
		a.fail(w, r, projectauth.ErrTokenInvalidSignature)
		return
	}

	pair, err := a.engine.Refresh(r.Context(), token)
	if err != nil {
		if errors.Is(err, projectauth.ErrTokenRevoked) || errors.Is(err, projectauth.ErrTokenExpired) {
			middleware.ClearRefreshCookie(w, a.cookie)
		}
		a.fail(w, r, err)
		return
	}
	a.session(w, http.StatusOK, pair)
}

func (a *api) logout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		a.fail(w, r, projectauth.ErrTokenInvalidSignature)
		return
	}
	if err := a.engine.Logout(r.Context(), token); err != nil {
		a.fail(w, r, err)
		return
	}
	middleware.ClearRefreshCookie(w, a.cookie)
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) requestRecovery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Login string `json:"login"`
	}
	if !a.decode(w, r, &req) {
		return
	}

	if err := a.engine.RequestPasswordRecovery(r.Context(), req.Login); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (a *api) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !a.decode(w, r, &req) {
		return
	}

	if err := a.engine.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) oauthStart(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	u, err := a.engine.AuthCodeURL(r.PathValue("provider"), state)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateName,
		Value:    state,
		Path:     "/auth/oauth",
		MaxAge:   int(oauthStateTTL / time.Second),
		Secure:   a.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, u, http.StatusFound)
}

func (a *api) oauthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if c, err := r.Cookie(oauthStateName); err != nil || c.Value == "" || c.Value != q.Get("state") {
		a.fail(w, r, projectauth.ErrInvalidRequest)
		return
	}

	pair, err := a.engine.FederatedLogin(r.Context(), r.PathValue("provider"), q.Get("code"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.session(w, http.StatusOK, pair)
}

func (a *api) me(w http.ResponseWriter, r *http.Request) {
	p, ok := projectauth.PrincipalFromContext(r.Context())
	if !ok {
		a.fail(w, r, projectauth.ErrTokenInvalidSignature)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{
		Username: p.Username,
		Email:    p.Email,
		FullName: p.FullName,
		Avatar:   p.Avatar,
	})
}

func (a *api) session(w http.ResponseWriter, status int, pair *projectauth.TokenPair) {
	middleware.SetRefreshCookie(w, a.cookie, pair)
	writeJSON(w, status, sessionResponse{
		AccessToken: pair.AccessToken,
		Account: accountResponse{
			Username: pair.Account.Username,
			Email:    pair.Account.Email,
			FullName: pair.Account.FullName,
			Avatar:   pair.Account.Avatar,
			Provider: pair.Account.Provider,
		},
	})
}

func (a *api) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		a.fail(w, r, projectauth.ErrInvalidRequest)
		return false
	}
	return true
}

func (a *api) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := projectauth.ErrorCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		a.logger.WithFields(logrus.Fields{
			"path":       r.URL.Path,
			"request_id": r.Header.Get(headerRequestID),
		}).WithError(err).Error("projectauth: request failed")
	}
	writeJSON(w, status, errorResponse{Code: code, Message: http.StatusText(status)})
}

func statusFor(code string) int {
	switch code {
	case "invalid_request":
		return http.StatusBadRequest
	case "invalid_credentials", "token_expired", "token_invalid", "token_revoked":
		return http.StatusUnauthorized
	case "account_not_found", "recovery_token_not_found":
		return http.StatusNotFound
	case "duplicate_account":
		return http.StatusConflict
	case "recovery_token_expired":
		return http.StatusGone
	case "oauth_provider":
		return http.StatusBadGateway
	case "backend_unavailable", "notification_failed", "engine_not_ready":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
