package projectauth

import (
	"strings"
	"testing"

	"github.com/MrEthical07/projectauth/provider"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func newTestRedis(t *testing.T) redis.UniversalClient {
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
	return rdb
}

func TestBuildRequiresDependencies(t *testing.T) {
	db := openTestDB(t)
	rdb := newTestRedis(t)

	if _, err := New().WithConfig(testConfig()).WithRedis(rdb).Build(); err == nil {
		t.Fatal("expected missing database to fail")
	}
	if _, err := New().WithConfig(testConfig()).WithDatabase(db).Build(); err == nil {
		t.Fatal("expected missing redis to fail")
	}
	if _, err := New().WithRedis(rdb).WithDatabase(db).Build(); err == nil {
		t.Fatal("expected missing JWT secret to fail")
	}
}

func TestBuildOnce(t *testing.T) {
	b := New().WithConfig(testConfig()).WithRedis(newTestRedis(t)).WithDatabase(openTestDB(t))
	e, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer e.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestBuildWarnsOnRelativeRecoveryLinks(t *testing.T) {
	warnings := func(cfg Config) []string {
		log, hook := logtest.NewNullLogger()
		e, err := New().
			WithConfig(cfg).
			WithRedis(newTestRedis(t)).
			WithDatabase(openTestDB(t)).
			WithNotifier(&captureNotifier{}).
			WithLogger(log).
			Build()
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		e.Close()

		var out []string
		for _, entry := range hook.AllEntries() {
			out = append(out, entry.Message)
		}
		return out
	}

	cfg := testConfig()
	cfg.PasswordReset.FrontendBaseURL = ""
	got := warnings(cfg)
	if len(got) != 1 || !strings.Contains(got[0], "FrontendBaseURL") {
		t.Fatalf("expected a FrontendBaseURL warning, got %q", got)
	}

	if got := warnings(testConfig()); len(got) != 0 {
		t.Fatalf("unexpected warnings %q", got)
	}
}

func TestBuildWiresConfiguredProviders(t *testing.T) {
	cfg := testConfig()
	cfg.OAuth.GitHub = OAuthProviderConfig{ClientID: "gh-id", ClientSecret: "gh-secret"}
	cfg.OAuth.Google = OAuthProviderConfig{
		ClientID:     "g-id",
		ClientSecret: "g-secret",
		RedirectURL:  "https://api.example.com/auth/oauth/google/callback",
		AuthURL:      "https://sso.example.com/authorize",
	}

	e, err := New().WithConfig(cfg).WithRedis(newTestRedis(t)).WithDatabase(openTestDB(t)).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer e.Close()

	ids := e.FederatedProviders()
	if len(ids) != 2 || ids[0] != provider.GitHub || ids[1] != provider.Google {
		t.Fatalf("unexpected providers %v", ids)
	}

	u, err := e.AuthCodeURL("google", "state-1")
	if err != nil {
		t.Fatalf("auth code url: %v", err)
	}
	if !strings.HasPrefix(u, "https://sso.example.com/authorize?") || !strings.Contains(u, "state=state-1") {
		t.Fatalf("unexpected consent url %q", u)
	}
	if _, err := e.AuthCodeURL("gitlab", "s"); err == nil {
		t.Fatal("expected unknown provider to fail")
	}
}

func TestWithFederatedProviderOverridesConfig(t *testing.T) {
	cfg := testConfig()
	cfg.OAuth.GitHub = OAuthProviderConfig{ClientID: "gh-id", ClientSecret: "gh-secret"}

	e, err := New().
		WithConfig(cfg).
		WithRedis(newTestRedis(t)).
		WithDatabase(openTestDB(t)).
		WithFederatedProvider(provider.GitHub, stubProfileResolver{}).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer e.Close()

	if _, err := e.AuthCodeURL("github", "s"); err == nil {
		t.Fatal("expected the stub resolver to replace the configured client")
	}
}

func TestWithConfigIsCopied(t *testing.T) {
	cfg := testConfig()
	cfg.Account.DefaultAvatars = []string{"a.png"}
	b := New().WithConfig(cfg)
	cfg.Account.DefaultAvatars[0] = "mutated.png"

	if got := b.config.Account.DefaultAvatars[0]; got != "a.png" {
		t.Fatalf("builder config aliases caller slice: %q", got)
	}
}
