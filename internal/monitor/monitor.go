package monitor

import (
	"context"
	"fmt"
	"log"
	"time"

	"rent-monitor/internal/fetch"
	"rent-monitor/internal/models"
	"rent-monitor/internal/notify"
	"rent-monitor/internal/parser"
	"rent-monitor/internal/seenstore"
)

// Archiver persists listings to long-term storage.
type Archiver interface {
	SaveListings([]models.Listing) error
}

// Indexer pushes listings into the search index.
type Indexer interface {
	IndexListings([]models.Listing) error
}

// Runner executes one monitoring pass over the configured search URLs.
type Runner struct {
	fetcher       fetch.Fetcher
	notifier      notify.Notifier
	store         *seenstore.Store
	searchURLs    []string
	notifyOnNoNew bool
	stopOnError   bool

	archiver Archiver
	indexer  Indexer
}

type RunnerConfig struct {
	Fetcher       fetch.Fetcher
	Notifier      notify.Notifier
	Store         *seenstore.Store
	SearchURLs    []string
	NotifyOnNoNew bool
	StopOnError   bool
	Archiver      Archiver
	Indexer       Indexer
}

func NewRunner(cfg RunnerConfig) *Runner {
	return &Runner{
		fetcher:       cfg.Fetcher,
		notifier:      cfg.Notifier,
		store:         cfg.Store,
		searchURLs:    cfg.SearchURLs,
		notifyOnNoNew: cfg.NotifyOnNoNew,
		stopOnError:   cfg.StopOnError,
		archiver:      cfg.Archiver,
		indexer:       cfg.Indexer,
	}
}

// Result summarizes a monitoring pass for the caller's exit handling.
type Result struct {
	Fetched      int
	New          int
	TargetErrors int
	NotifySent   bool
	PersistErr   error
}

// Run fetches every target, diffs against the seen-ID store, notifies
// about fresh listings and records them as seen. A per-target failure
// is logged and skipped unless stop-on-error is set. A delivery failure
// never undoes the extraction pass: the store update still happens, and
// the error is surfaced so the process can exit non-zero.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	log.Printf("[Monitor] Starting run over %d target(s)", len(r.searchURLs))

	result := &Result{}
	var all []models.Listing

	for _, target := range r.searchURLs {
		listings, err := r.collectTarget(ctx, target)
		if err != nil {
			result.TargetErrors++
			if r.stopOnError {
				return result, fmt.Errorf("target %s failed: %w", target, err)
			}
			log.Printf("[Monitor] Skipping target after error: %s: %v", target, err)
			continue
		}
		all = append(all, listings...)
	}

	all = parser.Dedupe(all)
	result.Fetched = len(all)
	log.Printf("[Monitor] Collected %d unique listing(s)", result.Fetched)

	if result.Fetched == 0 && len(r.searchURLs) > 0 {
		log.Printf("[Monitor] Warning: extracted zero listings, markup may have changed")
		if err := r.notifier.Notify(notify.BuildEmptyFetchMessage(len(r.searchURLs))); err != nil {
			log.Printf("[Monitor] Failed to send empty-fetch warning: %v", err)
			if r.notifyOnNoNew {
				return result, fmt.Errorf("failed to deliver empty-fetch warning: %w", err)
			}
		}
		return result, nil
	}

	seen := r.store.Load()
	fresh := seenstore.DiffNew(all, seen)
	result.New = len(fresh)
	log.Printf("[Monitor] %d new listing(s) since last run", result.New)

	var notifyErr error
	if result.New > 0 {
		if err := r.notifier.Notify(notify.BuildNewListingsMessage(fresh)); err != nil {
			// Delivery failure must not undo the pass: the store is
			// still updated and the error surfaces in the exit status.
			log.Printf("[Monitor] Failed to deliver new-listing notification: %v", err)
			notifyErr = fmt.Errorf("failed to deliver new-listing notification: %w", err)
		} else {
			result.NotifySent = true
		}
	} else if r.notifyOnNoNew {
		// The caller asked for a status message, so its delivery failure
		// counts against the exit status just like a new-listing one.
		if err := r.notifier.Notify(notify.BuildNoNewMessage(result.Fetched)); err != nil {
			log.Printf("[Monitor] Failed to send no-new notification: %v", err)
			notifyErr = fmt.Errorf("failed to deliver no-new notification: %w", err)
		} else {
			result.NotifySent = true
		}
	}

	if err := r.store.Save(seenstore.Union(seen, all)); err != nil {
		// The notification already went out, so this run still counts.
		log.Printf("[Monitor] Warning: failed to persist seen IDs: %v", err)
		result.PersistErr = err
	}

	r.archive(all)

	log.Printf("[Monitor] Run finished in %v (fetched=%d new=%d errors=%d)",
		time.Since(start).Round(time.Millisecond), result.Fetched, result.New, result.TargetErrors)
	return result, notifyErr
}

func (r *Runner) collectTarget(ctx context.Context, target string) ([]models.Listing, error) {
	log.Printf("[Monitor] Fetching target: %s", target)

	html, err := r.fetcher.Fetch(ctx, target)
	if err != nil {
		return nil, err
	}

	listings, err := parser.ParseListings(html, target)
	if err != nil {
		return nil, err
	}

	log.Printf("[Monitor] Extracted %d listing(s) from %s", len(listings), target)
	return listings, nil
}

// archive pushes the run's listings to the optional DB and search
// index. Failures here never affect the run outcome.
func (r *Runner) archive(listings []models.Listing) {
	if r.archiver != nil {
		if err := r.archiver.SaveListings(listings); err != nil {
			log.Printf("[Monitor] Failed to archive listings: %v", err)
		}
	}
	if r.indexer != nil {
		if err := r.indexer.IndexListings(listings); err != nil {
			log.Printf("[Monitor] Failed to index listings: %v", err)
		}
	}
}
