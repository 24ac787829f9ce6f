package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Monitor   MonitorConfig   `yaml:"monitor"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Slack     SlackConfig     `yaml:"slack"`
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Timezone  string          `yaml:"timezone"`
}

// MonitorConfig contains the monitoring run settings
type MonitorConfig struct {
	SearchURLs   []string `yaml:"search_urls"`
	SeenIDsPath  string   `yaml:"seen_ids_path"`
	StopOnError  bool     `yaml:"stop_on_error"`
	ArchiveToDB  bool     `yaml:"archive_to_db"`
	IndexToMeili bool     `yaml:"index_to_meili"`
}

// FetchConfig contains page retrieval settings
type FetchConfig struct {
	UseBrowser          bool   `yaml:"use_browser"`
	BrowserExecPath     string `yaml:"browser_exec_path"`
	RequestDelaySeconds int    `yaml:"request_delay_seconds"`
	TimeoutSeconds      int    `yaml:"timeout_seconds"`
	MaxRetries          int    `yaml:"max_retries"`
	RetryDelaySeconds   int    `yaml:"retry_delay_seconds"`
}

// SlackConfig contains notification settings
type SlackConfig struct {
	WebhookURL    string `yaml:"webhook_url"`
	NotifyOnNoNew bool   `yaml:"notify_on_no_new"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Type     string         `yaml:"type"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings
type MeilisearchConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
}

// RateLimitConfig contains API rate limiting settings
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	RequestsPerHour   int  `yaml:"requests_per_hour"`
}

// SchedulerConfig contains the daily run settings
type SchedulerConfig struct {
	DailyRunEnabled bool   `yaml:"daily_run_enabled"`
	DailyRunTime    string `yaml:"daily_run_time"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Monitor: MonitorConfig{
			SeenIDsPath: "seen_ids.json",
		},
		Fetch: FetchConfig{
			RequestDelaySeconds: 2,
			TimeoutSeconds:      30,
			MaxRetries:          3,
			RetryDelaySeconds:   2,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 30,
			RequestsPerHour:   1800,
		},
		Scheduler: SchedulerConfig{
			DailyRunEnabled: false,
			DailyRunTime:    "08:00",
		},
		Timezone: "Asia/Tokyo",
	}
}

// LoadConfig loads configuration from a YAML file, then applies
// environment overrides. A .env file in the working directory is read
// first if present.
func LoadConfig(filepath string) (*Config, error) {
	// Optional .env for local development
	_ = godotenv.Load()

	config := DefaultConfig()

	if _, err := os.Stat(filepath); err == nil {
		data, err := os.ReadFile(filepath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyEnv()
	return config, nil
}

// applyEnv lets environment variables override file values, so the
// webhook secret never has to live in the YAML.
func (c *Config) applyEnv() {
	// SEARCH_URLS and SEARCH_URL merge: the single URL is appended to
	// the list when not already present.
	urls := splitURLs(os.Getenv("SEARCH_URLS"))
	if single := strings.TrimSpace(os.Getenv("SEARCH_URL")); single != "" {
		found := false
		for _, u := range urls {
			if u == single {
				found = true
				break
			}
		}
		if !found {
			urls = append(urls, single)
		}
	}
	if len(urls) > 0 {
		c.Monitor.SearchURLs = urls
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		c.Slack.WebhookURL = v
	}
	if v := os.Getenv("SLACK_NOTIFY_ON_NO_NEW"); v != "" {
		c.Slack.NotifyOnNoNew = parseBool(v)
	}
	if v := os.Getenv("SEEN_IDS_PATH"); v != "" {
		c.Monitor.SeenIDsPath = v
	}
}

// splitURLs accepts newline- or comma-separated URL lists.
func splitURLs(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == ','
	})
	var urls []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			urls = append(urls, f)
		}
	}
	return urls
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Validate checks that a monitoring run can actually do anything.
func (c *Config) Validate() error {
	if len(c.Monitor.SearchURLs) == 0 {
		return fmt.Errorf("no search URLs configured: set monitor.search_urls or SEARCH_URLS")
	}
	if c.Slack.WebhookURL == "" {
		return fmt.Errorf("no Slack webhook configured: set slack.webhook_url or SLACK_WEBHOOK_URL")
	}
	return nil
}

// GetRequestDelay returns the request delay as a duration
func (c *FetchConfig) GetRequestDelay() time.Duration {
	return time.Duration(c.RequestDelaySeconds) * time.Second
}

// GetTimeout returns the timeout as a duration
func (c *FetchConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetRetryDelay returns the retry delay as a duration
func (c *FetchConfig) GetRetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}
