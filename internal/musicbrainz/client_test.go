package musicbrainz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lidarrify/internal/shared"
)

func TestSearchRecordings(t *testing.T) {
	t.Run("decodes candidates in ranking order", func(t *testing.T) {
		var gotPath, gotQuery, gotUA string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotQuery = r.URL.Query().Get("query")
			gotUA = r.Header.Get("User-Agent")
			if r.URL.Query().Get("fmt") != "json" {
				t.Errorf("expected fmt=json, got %q", r.URL.Query().Get("fmt"))
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"recordings":[{"id":"mbid-1","title":"T","score":100},{"id":"mbid-2","title":"T","score":92}]}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "lidarrify-test/1.0", time.Second)
		candidates, err := c.SearchRecordings(context.Background(), `recording:"T" AND artist:"A"`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if gotPath != "/recording" {
			t.Errorf("path = %q, want /recording", gotPath)
		}
		if gotQuery != `recording:"T" AND artist:"A"` {
			t.Errorf("query = %q", gotQuery)
		}
		if gotUA != "lidarrify-test/1.0" {
			t.Errorf("user agent = %q", gotUA)
		}
		if len(candidates) != 2 || candidates[0].ID != "mbid-1" {
			t.Errorf("unexpected candidates: %+v", candidates)
		}
	})

	t.Run("empty result is not an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"recordings":[]}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "lidarrify-test/1.0", time.Second)
		candidates, err := c.SearchRecordings(context.Background(), `recording:"missing"`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(candidates) != 0 {
			t.Errorf("expected no candidates, got %+v", candidates)
		}
	})

	t.Run("service unavailable is a lookup failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		c := NewClient(server.URL, "lidarrify-test/1.0", time.Second)
		_, err := c.SearchRecordings(context.Background(), `recording:"T"`)
		if !errors.Is(err, shared.ErrLookupFailed) {
			t.Errorf("expected ErrLookupFailed, got %v", err)
		}
	})

	t.Run("unreachable server is a lookup failure", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:0", "lidarrify-test/1.0", 100*time.Millisecond)
		_, err := c.SearchRecordings(context.Background(), `recording:"T"`)
		if !errors.Is(err, shared.ErrLookupFailed) {
			t.Errorf("expected ErrLookupFailed, got %v", err)
		}
	})
}

func TestSearchReleaseGroups(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/release-group" {
			t.Errorf("path = %q, want /release-group", r.URL.Path)
		}
		w.Write([]byte(`{"release-groups":[{"id":"rg-1","title":"Alb","score":100}]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "lidarrify-test/1.0", time.Second)
	candidates, err := c.SearchReleaseGroups(context.Background(), `releasegroup:"Alb" AND artist:"A"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 1 || candidates[0].ID != "rg-1" {
		t.Errorf("unexpected candidates: %+v", candidates)
	}
}

func TestQueryBuilders(t *testing.T) {
	tc := []struct {
		name string
		got  string
		want string
	}{
		{
			name: "recording with album",
			got:  RecordingQuery("A", "T", "Alb"),
			want: `recording:"T" AND artist:"A" AND release:"Alb"`,
		},
		{
			name: "recording without album",
			got:  RecordingQuery("A", "T", ""),
			want: `recording:"T" AND artist:"A"`,
		},
		{
			name: "release group",
			got:  ReleaseGroupQuery("A", "Alb"),
			want: `releasegroup:"Alb" AND artist:"A"`,
		},
		{
			name: "recording fallback",
			got:  RecordingFallbackQuery("T"),
			want: `recording:"T"`,
		},
		{
			name: "release group fallback",
			got:  ReleaseGroupFallbackQuery("Alb"),
			want: `releasegroup:"Alb"`,
		},
		{
			name: "embedded quotes are escaped",
			got:  RecordingQuery(`The "Band"`, `Say "Hi"`, ""),
			want: `recording:"Say \"Hi\"" AND artist:"The \"Band\""`,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
