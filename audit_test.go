package projectauth

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

func waitEvent(t *testing.T, sink *ChannelSink, eventType string) AuditEvent {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case event := <-sink.Events():
			if event.Type == eventType {
				return event
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s event", eventType)
		}
	}
}

func TestAuditEventsForSessionLifecycle(t *testing.T) {
	sink := NewChannelSink(64)
	env := newTestEngine(t, func(b *Builder) { b.WithAuditSink(sink) })
	ctx := WithUserAgent(WithClientIP(context.Background(), "203.0.113.7"), "test-agent")

	pair, err := env.engine.Register(ctx, RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	registered := waitEvent(t, sink, AuditEventRegisterSuccess)
	if !registered.Success || registered.Username != "alice" || registered.SessionID == "" {
		t.Fatalf("unexpected register event %+v", registered)
	}
	if registered.Metadata["ip"] != "203.0.113.7" || registered.Metadata["user_agent"] != "test-agent" {
		t.Fatalf("expected request metadata, got %v", registered.Metadata)
	}
	if !registered.Timestamp.Equal(env.clock.Now()) {
		t.Fatalf("expected clock timestamp, got %v", registered.Timestamp)
	}

	if _, err := env.engine.Login(ctx, "alice", "wrong horse"); err == nil {
		t.Fatal("expected login failure")
	}
	failed := waitEvent(t, sink, AuditEventLoginFailure)
	if failed.Success || failed.Reason != "invalid_credentials" {
		t.Fatalf("unexpected login failure event %+v", failed)
	}

	if _, err := env.engine.Refresh(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	waitEvent(t, sink, AuditEventRefreshSuccess)

	if _, err := env.engine.Refresh(ctx, pair.RefreshToken); err == nil {
		t.Fatal("expected replayed refresh to fail")
	}
	revoked := waitEvent(t, sink, AuditEventRefreshRevoked)
	if revoked.Reason != "token_revoked" || revoked.Username != "alice" {
		t.Fatalf("unexpected revoked event %+v", revoked)
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestJSONWriterSinkFlushesOnClose(t *testing.T) {
	out := &lockedBuffer{}
	env := newTestEngine(t, func(b *Builder) { b.WithAuditSink(NewJSONWriterSink(out)) })
	env.register(t, "alice", "alice@example.com", "correct horse")
	if _, err := env.engine.Login(context.Background(), "nobody", "pw"); err == nil {
		t.Fatal("expected login failure")
	}

	env.engine.Close()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 audit lines, got %d: %q", len(lines), out.String())
	}
	var event AuditEvent
	if err := json.Unmarshal([]byte(lines[1]), &event); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.Type != AuditEventLoginFailure || event.Reason != "account_not_found" {
		t.Fatalf("unexpected event %+v", event)
	}
	if stats := env.engine.AuditStats(); stats.Delivered != 2 || stats.Dropped != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestAuditDisabledByDefault(t *testing.T) {
	env := newTestEngine(t)
	env.register(t, "alice", "alice@example.com", "correct horse")
	if stats := env.engine.AuditStats(); stats.Delivered != 0 {
		t.Fatalf("expected no audit delivery, got %+v", stats)
	}
}
