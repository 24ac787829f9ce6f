// Package seenstore persists the set of listing identities observed by
// previous runs, so that each listing is reported as new exactly once.
package seenstore

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"

	"rent-monitor/internal/models"
)

// Store reads and writes the seen-ID file. The file is a JSON object with a
// single "seen_ids" field holding a sorted flat list; a bare JSON list is
// also accepted on load for compatibility with hand-edited files.
type Store struct {
	path string
}

type filePayload struct {
	SeenIDs []string `json:"seen_ids"`
}

// New creates a store backed by the given file path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted identity set. A missing file is an empty set; an
// unreadable or malformed file is also an empty set with a logged warning,
// never a fatal error. The worst outcome of starting over is one redundant
// notification.
func (s *Store) Load() map[string]bool {
	ids := make(map[string]bool)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[SeenStore] Warning: failed to read %s, starting with empty set: %v", s.path, err)
		}
		return ids
	}

	var payload filePayload
	if err := json.Unmarshal(data, &payload); err == nil && payload.SeenIDs != nil {
		for _, id := range payload.SeenIDs {
			ids[id] = true
		}
		return ids
	}

	var flat []string
	if err := json.Unmarshal(data, &flat); err == nil {
		for _, id := range flat {
			ids[id] = true
		}
		return ids
	}

	log.Printf("[SeenStore] Warning: %s is not a recognized seen-ID file, starting with empty set", s.path)
	return ids
}

// Save persists the identity set as a sorted flat list, so repeated saves of
// the same set produce byte-identical files.
func (s *Store) Save(ids map[string]bool) error {
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	data, err := json.MarshalIndent(filePayload{SeenIDs: sorted}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode seen IDs: %w", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	return nil
}

// DiffNew returns the listings whose composite identity is not in seen,
// preserving input order.
func DiffNew(listings []models.Listing, seen map[string]bool) []models.Listing {
	var fresh []models.Listing
	for _, l := range listings {
		if !seen[l.UniqueID()] {
			fresh = append(fresh, l)
		}
	}
	return fresh
}

// Union merges every identity observed this run (new and already-seen
// alike) into the stored set. Identities are never removed: a listing that
// drops out of the search results stays marked as seen.
func Union(seen map[string]bool, listings []models.Listing) map[string]bool {
	merged := make(map[string]bool, len(seen)+len(listings))
	for id := range seen {
		merged[id] = true
	}
	for _, l := range listings {
		merged[l.UniqueID()] = true
	}
	return merged
}
