package main

import (
	"context"
	"flag"
	"log"
	"os"

	"rent-monitor/internal/config"
	"rent-monitor/internal/fetch"
	"rent-monitor/internal/monitor"
	"rent-monitor/internal/notify"
	"rent-monitor/internal/seenstore"
)

func main() {
	configPath := flag.String("config", getEnv("CONFIG_PATH", "config.yaml"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Printf("[Monitor] Failed to load config: %v", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("[Monitor] Invalid configuration: %v", err)
		os.Exit(1)
	}

	var fetcher fetch.Fetcher
	if cfg.Fetch.UseBrowser {
		fetcher = fetch.NewBrowserFetcher(fetch.BrowserConfig{
			ExecPath: cfg.Fetch.BrowserExecPath,
			Timeout:  cfg.Fetch.GetTimeout(),
		})
	} else {
		fetcher = fetch.NewHTTPFetcher(fetch.HTTPConfig{
			Timeout:      cfg.Fetch.GetTimeout(),
			MaxRetries:   cfg.Fetch.MaxRetries,
			RetryDelay:   cfg.Fetch.GetRetryDelay(),
			RequestDelay: cfg.Fetch.GetRequestDelay(),
		})
	}

	runner := monitor.NewRunner(monitor.RunnerConfig{
		Fetcher:       fetcher,
		Notifier:      notify.NewSlackClient(cfg.Slack.WebhookURL),
		Store:         seenstore.New(cfg.Monitor.SeenIDsPath),
		SearchURLs:    cfg.Monitor.SearchURLs,
		NotifyOnNoNew: cfg.Slack.NotifyOnNoNew,
		StopOnError:   cfg.Monitor.StopOnError,
	})

	result, err := runner.Run(context.Background())
	if err != nil {
		log.Printf("[Monitor] Run failed: %v", err)
		os.Exit(1)
	}

	// A failed seen-ID save is a warning, not a failure: the
	// notification already went out and the next run re-diffs.
	if result.PersistErr != nil {
		log.Printf("[Monitor] Completed with persist warning: %v", result.PersistErr)
	}
	os.Exit(0)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
