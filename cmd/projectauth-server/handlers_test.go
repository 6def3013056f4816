package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/projectauth"
	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := projectauth.AutoMigrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})

	cfg := projectauth.DefaultConfig()
	cfg.JWT.Secret = base64.RawURLEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Cookie.Secure = false

	log, _ := logtest.NewNullLogger()
	engine, err := projectauth.New().
		WithConfig(cfg).
		WithDatabase(db).
		WithRedis(rdb).
		WithLogger(log).
		WithNotifier(logNotifier{logger: log}).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)

	mux := http.NewServeMux()
	newAPI(engine, log).routes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, srv *httptest.Server, path string, body any, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func refreshCookieOf(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "refresh_token" {
			return c
		}
	}
	t.Fatal("expected refresh_token cookie")
	return nil
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/auth/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "correct horse",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status %d", resp.StatusCode)
	}
	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("decode: %v", err)
	}
	original := refreshCookieOf(t, resp)
	if !original.HttpOnly {
		t.Fatal("refresh cookie must be HttpOnly")
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	me, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	defer me.Body.Close()
	if me.StatusCode != http.StatusOK {
		t.Fatalf("me status %d", me.StatusCode)
	}

	rotated := postJSON(t, srv, "/auth/refresh", nil, original)
	if rotated.StatusCode != http.StatusOK {
		t.Fatalf("refresh status %d", rotated.StatusCode)
	}
	if refreshCookieOf(t, rotated).Value == original.Value {
		t.Fatal("expected a rotated refresh cookie")
	}

	replay := postJSON(t, srv, "/auth/refresh", nil, original)
	if replay.StatusCode != http.StatusUnauthorized {
		t.Fatalf("replayed refresh status %d", replay.StatusCode)
	}
	var failure errorResponse
	if err := json.NewDecoder(replay.Body).Decode(&failure); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if failure.Code != "token_revoked" {
		t.Fatalf("unexpected failure code %q", failure.Code)
	}
}

func TestLogoutAcceptsLowercaseBearer(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/auth/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "correct horse",
	})
	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("decode: %v", err)
	}
	original := refreshCookieOf(t, resp)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/auth/logout", nil)
	req.Header.Set("Authorization", " bearer "+session.AccessToken+" ")
	out, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	defer out.Body.Close()
	if out.StatusCode != http.StatusNoContent {
		t.Fatalf("logout status %d", out.StatusCode)
	}

	if replay := postJSON(t, srv, "/auth/refresh", nil, original); replay.StatusCode != http.StatusUnauthorized {
		t.Fatalf("refresh after logout status %d", replay.StatusCode)
	}
}

func TestLogNotifierKeepsTokenOutOfInfoLogs(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	msg := projectauth.RecoveryMessage{
		Account:   &projectauth.Account{Username: "alice", Email: "alice@example.com"},
		Token:     "AbCdEfGhIjKlMnO",
		URL:       "https://app.example.com/reset-password?token=AbCdEfGhIjKlMnO",
		ExpiresAt: time.Date(2026, 3, 1, 9, 10, 0, 0, time.UTC),
	}

	if err := (logNotifier{logger: log}).SendRecovery(context.Background(), msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	entries := hook.AllEntries()
	if len(entries) != 1 {
		t.Fatalf("expected one info entry, got %d", len(entries))
	}
	for _, e := range entries {
		for k, v := range e.Data {
			if strings.Contains(fmt.Sprint(v), msg.Token) {
				t.Fatalf("field %q leaks the recovery token", k)
			}
		}
	}

	hook.Reset()
	log.SetLevel(logrus.DebugLevel)
	if err := (logNotifier{logger: log}).SendRecovery(context.Background(), msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	if last := hook.LastEntry(); last == nil || last.Level != logrus.DebugLevel || last.Data["url"] != msg.URL {
		t.Fatalf("expected the link at debug level, got %+v", last)
	}
}

func TestRegisterConflictAndBadBody(t *testing.T) {
	srv := newTestServer(t)
	body := map[string]string{"username": "alice", "email": "alice@example.com", "password": "correct horse"}

	if resp := postJSON(t, srv, "/auth/register", body); resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status %d", resp.StatusCode)
	}
	if resp := postJSON(t, srv, "/auth/register", body); resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register status %d", resp.StatusCode)
	}
	if resp := postJSON(t, srv, "/auth/login", map[string]string{"user": "alice"}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown field status %d", resp.StatusCode)
	}
}

func TestOAuthCallbackRequiresState(t *testing.T) {
	srv := newTestServer(t)
	resp, err := srv.Client().Get(srv.URL + "/auth/oauth/github/callback?code=x&state=y")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("callback status %d", resp.StatusCode)
	}
}

func TestStatusFor(t *testing.T) {
	for code, want := range map[string]int{
		"token_revoked":          http.StatusUnauthorized,
		"recovery_token_expired": http.StatusGone,
		"internal":               http.StatusInternalServerError,
	} {
		if got := statusFor(code); got != want {
			t.Fatalf("statusFor(%q) = %d, want %d", code, got, want)
		}
	}
	if !strings.HasPrefix(http.StatusText(statusFor("oauth_provider")), "Bad") {
		t.Fatal("expected oauth failures to be a bad gateway")
	}
}
