package repositories

import (
	"path/filepath"
	"testing"
)

func TestLookupCache(t *testing.T) {
	t.Run("miss on empty cache", func(t *testing.T) {
		cache, err := OpenLookupCache(":memory:")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer cache.Close()

		if _, ok := cache.Get("tracks", "A\x1fT"); ok {
			t.Error("expected miss on empty cache")
		}
	})

	t.Run("put then get round trips", func(t *testing.T) {
		cache, err := OpenLookupCache(":memory:")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer cache.Close()

		if err := cache.Put("tracks", "A\x1fT", "mbid-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, ok := cache.Get("tracks", "A\x1fT")
		if !ok || got != "mbid-1" {
			t.Errorf("Get = (%q, %v), want (mbid-1, true)", got, ok)
		}
	})

	t.Run("keys are scoped by mode", func(t *testing.T) {
		cache, err := OpenLookupCache(":memory:")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer cache.Close()

		if err := cache.Put("tracks", "A\x1fX", "mbid-1"); err != nil {
			t.Fatal(err)
		}
		if _, ok := cache.Get("albums", "A\x1fX"); ok {
			t.Error("album lookup should not see track entry")
		}
	})

	t.Run("re-inserting a key keeps the first value", func(t *testing.T) {
		cache, err := OpenLookupCache(":memory:")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer cache.Close()

		if err := cache.Put("tracks", "A\x1fT", "mbid-1"); err != nil {
			t.Fatal(err)
		}
		if err := cache.Put("tracks", "A\x1fT", "mbid-2"); err != nil {
			t.Fatal(err)
		}

		got, _ := cache.Get("tracks", "A\x1fT")
		if got != "mbid-1" {
			t.Errorf("expected first value to win, got %q", got)
		}
		n, err := cache.Len()
		if err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Errorf("expected 1 entry, got %d", n)
		}
	})

	t.Run("persists across opens", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.db")

		cache, err := OpenLookupCache(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := cache.Put("tracks", "A\x1fT", "mbid-1"); err != nil {
			t.Fatal(err)
		}
		cache.Close()

		reopened, err := OpenLookupCache(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer reopened.Close()

		got, ok := reopened.Get("tracks", "A\x1fT")
		if !ok || got != "mbid-1" {
			t.Errorf("Get after reopen = (%q, %v), want (mbid-1, true)", got, ok)
		}
	})
}
