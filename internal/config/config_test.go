package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
mode = "full"

[backend]
base_url = "https://bid.campus.example.com/api"

[watch]
stall_ids = [7, 12]
poll_interval = "5s"

[session]
token = "tok-123"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend.BaseURL != "https://bid.campus.example.com/api" {
		t.Errorf("BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Watch.PollInterval.Duration != 5*time.Second {
		t.Errorf("PollInterval = %v", cfg.Watch.PollInterval.Duration)
	}
	if len(cfg.Watch.StallIDs) != 2 || cfg.Watch.StallIDs[1] != 12 {
		t.Errorf("StallIDs = %v", cfg.Watch.StallIDs)
	}
	// Untouched sections keep their defaults.
	if cfg.Bidding.Increment != 100 {
		t.Errorf("Increment = %d, want default 100", cfg.Bidding.Increment)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := writeConfig(t, `
[session]
token = "from-file"
`)
	t.Setenv("STALLBID_SESSION_TOKEN", "from-env")
	t.Setenv("STALLBID_WATCH_STALL_IDS", "3, 9")
	t.Setenv("STALLBID_BIDDING_INCREMENT", "250")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Session.Token != "from-env" {
		t.Errorf("Token = %q", cfg.Session.Token)
	}
	if len(cfg.Watch.StallIDs) != 2 || cfg.Watch.StallIDs[0] != 3 || cfg.Watch.StallIDs[1] != 9 {
		t.Errorf("StallIDs = %v", cfg.Watch.StallIDs)
	}
	if cfg.Bidding.Increment != 250 {
		t.Errorf("Increment = %d", cfg.Bidding.Increment)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "spectate"
	cfg.Backend.BaseURL = ""
	cfg.Bidding.Increment = 0
	// No session credentials and no stalls to watch.

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, want := range []string{"unknown mode", "base_url", "increment", "stall_ids", "session"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestValidateServeModeNeedsNoStalls(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "serve"
	cfg.Session.Token = "tok"

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestRedactedConfigMasksSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Session.Token = "jwt-secret"
	cfg.Session.Password = "hunter2"
	cfg.Postgres.Password = "pgpass"
	cfg.Redis.Password = "redispass"
	cfg.S3.SecretKey = "s3secret"
	cfg.Notify.TelegramToken = "tg-token"

	red := RedactedConfig(&cfg)
	for name, got := range map[string]string{
		"session token":     red.Session.Token,
		"session password":  red.Session.Password,
		"postgres password": red.Postgres.Password,
		"redis password":    red.Redis.Password,
		"s3 secret key":     red.S3.SecretKey,
		"telegram token":    red.Notify.TelegramToken,
	} {
		if got != "***" {
			t.Errorf("%s not redacted: %q", name, got)
		}
	}
	if cfg.Session.Token != "jwt-secret" {
		t.Error("redaction mutated the original config")
	}
	// Empty secrets stay empty rather than becoming placeholders.
	if red.Postgres.DSN != "" {
		t.Errorf("empty DSN became %q", red.Postgres.DSN)
	}
}
