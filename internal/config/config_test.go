package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Fetch.MaxRetries != 3 {
		t.Errorf("default MaxRetries = %d", cfg.Fetch.MaxRetries)
	}
	if cfg.Monitor.SeenIDsPath != "seen_ids.json" {
		t.Errorf("default SeenIDsPath = %q", cfg.Monitor.SeenIDsPath)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
monitor:
  search_urls:
    - https://suumo.jp/jj/chintai/
  seen_ids_path: /var/lib/rent-monitor/seen.json
  archive_to_db: true
  index_to_meili: true
slack:
  webhook_url: https://hooks.slack.com/services/T/B/x
  notify_on_no_new: true
fetch:
  max_retries: 5
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Monitor.SearchURLs) != 1 || cfg.Monitor.SearchURLs[0] != "https://suumo.jp/jj/chintai/" {
		t.Errorf("SearchURLs = %v", cfg.Monitor.SearchURLs)
	}
	if cfg.Fetch.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d; want 5 from file", cfg.Fetch.MaxRetries)
	}
	if !cfg.Slack.NotifyOnNoNew {
		t.Error("NotifyOnNoNew not read from file")
	}
	if !cfg.Monitor.ArchiveToDB || !cfg.Monitor.IndexToMeili {
		t.Errorf("archive flags = %v/%v; want both true from file",
			cfg.Monitor.ArchiveToDB, cfg.Monitor.IndexToMeili)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("SEARCH_URLS", "https://a.example/1,https://b.example/2\nhttps://c.example/3")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.com/services/env")
	t.Setenv("SLACK_NOTIFY_ON_NO_NEW", "yes")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := []string{"https://a.example/1", "https://b.example/2", "https://c.example/3"}
	if len(cfg.Monitor.SearchURLs) != len(want) {
		t.Fatalf("SearchURLs = %v", cfg.Monitor.SearchURLs)
	}
	for i, u := range want {
		if cfg.Monitor.SearchURLs[i] != u {
			t.Errorf("SearchURLs[%d] = %q; want %q", i, cfg.Monitor.SearchURLs[i], u)
		}
	}
	if cfg.Slack.WebhookURL != "https://hooks.slack.com/services/env" {
		t.Errorf("WebhookURL = %q", cfg.Slack.WebhookURL)
	}
	if !cfg.Slack.NotifyOnNoNew {
		t.Error("SLACK_NOTIFY_ON_NO_NEW=yes not applied")
	}
}

func TestSearchURLEnvMergesWithList(t *testing.T) {
	t.Setenv("SEARCH_URLS", "https://a.example/1,https://b.example/2")
	t.Setenv("SEARCH_URL", "https://c.example/3")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := []string{"https://a.example/1", "https://b.example/2", "https://c.example/3"}
	if len(cfg.Monitor.SearchURLs) != len(want) {
		t.Fatalf("SearchURLs = %v; want %v", cfg.Monitor.SearchURLs, want)
	}
	for i, u := range want {
		if cfg.Monitor.SearchURLs[i] != u {
			t.Errorf("SearchURLs[%d] = %q; want %q", i, cfg.Monitor.SearchURLs[i], u)
		}
	}
}

func TestSearchURLEnvNotDuplicated(t *testing.T) {
	t.Setenv("SEARCH_URLS", "https://a.example/1,https://b.example/2")
	t.Setenv("SEARCH_URL", "https://a.example/1")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Monitor.SearchURLs) != 2 {
		t.Errorf("SearchURLs = %v; duplicate appended", cfg.Monitor.SearchURLs)
	}
}

func TestValidateRejectsIncompleteConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Error("Validate accepted config with no URLs")
	}

	cfg.Monitor.SearchURLs = []string{"https://suumo.jp/x"}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate accepted config with no webhook")
	}
}
