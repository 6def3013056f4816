package projectauth

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/projectauth/provider"
	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testSecret = base64.RawURLEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type captureNotifier struct {
	mu       sync.Mutex
	messages []RecoveryMessage
	err      error
}

func (n *captureNotifier) SendRecovery(_ context.Context, msg RecoveryMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, msg)
	return nil
}

func (n *captureNotifier) last(t *testing.T) RecoveryMessage {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.messages) == 0 {
		t.Fatal("expected a recovery message")
	}
	return n.messages[len(n.messages)-1]
}

type stubProfileResolver struct {
	profile provider.Profile
	err     error
}

func (s stubProfileResolver) Resolve(context.Context, string) (provider.Profile, error) {
	return s.profile, s.err
}

type testEnv struct {
	engine   *Engine
	redis    *miniredis.Miniredis
	db       *gorm.DB
	clock    *testClock
	notifier *captureNotifier
	logs     *logtest.Hook
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = testSecret
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.PasswordReset.FrontendBaseURL = "https://app.example.com"
	return cfg
}

func openTestDB(t *testing.T) *gorm.DB {
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

	if err := AutoMigrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// newTestEngine wires an Engine over miniredis and in-memory sqlite. configure may adjust
// the builder before Build.
func newTestEngine(t *testing.T, configure ...func(*Builder)) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})

	log, hook := logtest.NewNullLogger()
	env := &testEnv{
		redis:    mr,
		db:       openTestDB(t),
		clock:    &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		notifier: &captureNotifier{},
		logs:     hook,
	}

	b := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithDatabase(env.db).
		WithNotifier(env.notifier).
		WithLogger(log).
		WithClock(env.clock.Now)
	for _, fn := range configure {
		fn(b)
	}

	env.engine, err = b.Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(env.engine.Close)
	return env
}

func (env *testEnv) register(t *testing.T, username, email, password string) *TokenPair {
	t.Helper()
	pair, err := env.engine.Register(context.Background(), RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
		FullName: "Test " + username,
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return pair
}

func (env *testEnv) login(t *testing.T, login, password string) *TokenPair {
	t.Helper()
	pair, err := env.engine.Login(context.Background(), login, password)
	if err != nil {
		t.Fatalf("login %s: %v", login, err)
	}
	return pair
}
