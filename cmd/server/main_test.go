package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
serviceName = "moderation-test"
lexiconPath = "https://static.local/data/banned_words.txt"
lexiconTimeout = "3s"
kafkaTopic = "requests"
kafkaBatch = 10
`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig returned error: %v", err)
	}

	if cfg.ServiceName != "moderation-test" {
		t.Errorf("want service name %q, got %q", "moderation-test", cfg.ServiceName)
	}
	if cfg.LexiconTimeout != 3*time.Second {
		t.Errorf("want lexicon timeout %v, got %v", 3*time.Second, cfg.LexiconTimeout)
	}
	if cfg.HTTPAddr != ":8055" {
		t.Errorf("want default http addr %q, got %q", ":8055", cfg.HTTPAddr)
	}
	if cfg.KafkaBatch != 10 {
		t.Errorf("want kafka batch %d, got %d", 10, cfg.KafkaBatch)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
lexiconPath = "data/banned_words.txt"
httpAddr = ":8055"
`)
	t.Setenv("MODERATION_HTTP_ADDR", ":9090")
	t.Setenv("MODERATION_LEXICON_PATH", "/etc/moderation/words.txt")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig returned error: %v", err)
	}

	if cfg.HTTPAddr != ":9090" {
		t.Errorf("want http addr from env %q, got %q", ":9090", cfg.HTTPAddr)
	}
	if cfg.LexiconPath != "/etc/moderation/words.txt" {
		t.Errorf("want lexicon path from env, got %q", cfg.LexiconPath)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("want error for missing config file")
	}
}
