package seenstore

import (
	"os"
	"path/filepath"
	"testing"

	"rent-monitor/internal/models"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "seen_ids.json"))
}

func listing(site, id string) models.Listing {
	return models.Listing{SourceSite: site, PropertyID: id}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s := tempStore(t)
	if got := s.Load(); len(got) != 0 {
		t.Errorf("Load on missing file = %v; want empty", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := tempStore(t)

	ids := map[string]bool{
		"suumo:12345": true,
		"homes:b-99":  true,
		"generic:abc": true,
	}
	if err := s.Save(ids); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := s.Load()
	if len(got) != len(ids) {
		t.Fatalf("round trip lost entries: %v", got)
	}
	for id := range ids {
		if !got[id] {
			t.Errorf("round trip dropped %q", id)
		}
	}

	// Saving the loaded set again must produce an identical file.
	first, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(got); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	second, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("repeated Save of the same set is not deterministic")
	}
}

func TestLoadAcceptsBareList(t *testing.T) {
	s := tempStore(t)
	if err := os.WriteFile(s.Path(), []byte(`["suumo:1", "homes:2"]`), 0o644); err != nil {
		t.Fatal(err)
	}

	got := s.Load()
	if !got["suumo:1"] || !got["homes:2"] || len(got) != 2 {
		t.Errorf("Load bare list = %v", got)
	}
}

func TestLoadCorruptFileIsEmpty(t *testing.T) {
	s := tempStore(t)
	if err := os.WriteFile(s.Path(), []byte(`{"seen_ids": "not-a-list`), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := s.Load(); len(got) != 0 {
		t.Errorf("Load corrupt file = %v; want empty", got)
	}
}

func TestDiffNewPreservesOrder(t *testing.T) {
	seen := map[string]bool{"suumo:old": true}
	listings := []models.Listing{
		listing("suumo", "new1"),
		listing("suumo", "old"),
		listing("homes", "new2"),
	}

	fresh := DiffNew(listings, seen)
	if len(fresh) != 2 {
		t.Fatalf("DiffNew returned %d; want 2", len(fresh))
	}
	if fresh[0].PropertyID != "new1" || fresh[1].PropertyID != "new2" {
		t.Errorf("DiffNew order = %v", fresh)
	}
}

func TestDiffNewTwiceIsEmpty(t *testing.T) {
	s := tempStore(t)
	listings := []models.Listing{listing("suumo", "1"), listing("homes", "2")}

	// First run: empty store, everything is new.
	seen := s.Load()
	if fresh := DiffNew(listings, seen); len(fresh) != len(listings) {
		t.Fatalf("first run DiffNew = %d; want %d", len(fresh), len(listings))
	}
	if err := s.Save(Union(seen, listings)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Second run with identical data: nothing new.
	if fresh := DiffNew(listings, s.Load()); len(fresh) != 0 {
		t.Errorf("second run DiffNew = %d; want 0", len(fresh))
	}
}

func TestSameIDOnDifferentSitesIsDistinct(t *testing.T) {
	seen := map[string]bool{"suumo:12345": true}
	fresh := DiffNew([]models.Listing{listing("homes", "12345")}, seen)
	if len(fresh) != 1 {
		t.Errorf("identical property ID on another site must be new; got %d", len(fresh))
	}
}
