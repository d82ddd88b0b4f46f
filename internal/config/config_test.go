package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
http:
  addr: ":9090"
bot:
  default_channel: "@shadowwall"
  admin_ids: [111, 222]
rate:
  submissions_per_minute: 5
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Bot.DefaultChannel != "@shadowwall" {
		t.Fatalf("unexpected default channel: %s", cfg.Bot.DefaultChannel)
	}
	if len(cfg.Bot.AdminIDs) != 2 || cfg.Bot.AdminIDs[0] != 111 || cfg.Bot.AdminIDs[1] != 222 {
		t.Fatalf("unexpected admin ids: %v", cfg.Bot.AdminIDs)
	}
	if cfg.Rate.SubmissionsPerMinute != 5 {
		t.Fatalf("unexpected rate limit: %d", cfg.Rate.SubmissionsPerMinute)
	}
	if cfg.Webhook.Path != "/webhook/telegram" {
		t.Fatalf("expected default webhook path, got %s", cfg.Webhook.Path)
	}
}

func TestLoadEnvOverridesWinOverYAML(t *testing.T) {
	clearConfigEnv(t)

	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("DEFAULT_CHANNEL", "@fromenv")
	t.Setenv("ADMIN_IDS", "42, 77")
	t.Setenv("POSTGRES_DSN", "postgres://env")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Bot.Token != "123:abc" {
		t.Fatalf("unexpected token: %s", cfg.Bot.Token)
	}
	if cfg.Bot.DefaultChannel != "@fromenv" {
		t.Fatalf("unexpected channel: %s", cfg.Bot.DefaultChannel)
	}
	if len(cfg.Bot.AdminIDs) != 2 || cfg.Bot.AdminIDs[0] != 42 || cfg.Bot.AdminIDs[1] != 77 {
		t.Fatalf("unexpected admin ids: %v", cfg.Bot.AdminIDs)
	}
	if cfg.Postgres.DSN != "postgres://env" {
		t.Fatalf("unexpected dsn: %s", cfg.Postgres.DSN)
	}
}

func TestLoadRejectsBadAdminIDs(t *testing.T) {
	clearConfigEnv(t)

	t.Setenv("ADMIN_IDS", "42,notanumber")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for malformed ADMIN_IDS")
	}
}

func TestLoadRejectsChannelWithoutAt(t *testing.T) {
	clearConfigEnv(t)

	t.Setenv("DEFAULT_CHANNEL", "ferpsanonymous")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for channel without @ prefix")
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "HTTP_ADDR", "HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "HTTP_IDLE_TIMEOUT",
		"LOG_LEVEL", "POSTGRES_DSN", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"BOT_TOKEN", "DEFAULT_CHANNEL", "ADMIN_IDS", "BASE_URL", "WEBHOOK_PATH",
		"RATE_SUBMISSIONS_PER_MINUTE",
	} {
		t.Setenv(key, "")
	}
}
