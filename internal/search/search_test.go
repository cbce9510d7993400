package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mindfultube/mindfultube/internal/core"
	"github.com/mindfultube/mindfultube/internal/metadata"
)

func TestPlaceholder_Deterministic(t *testing.T) {
	p := NewPlaceholder()
	ctx := context.Background()

	a, err := p.Search(ctx, "Go concurrency", 12)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	b, _ := p.Search(ctx, "go concurrency", 12)

	if len(a) != 12 {
		t.Fatalf("len = %d, want 12", len(a))
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Duration != b[i].Duration {
			t.Fatalf("item %d differs between calls", i)
		}
		if !strings.Contains(a[i].Title, "Go concurrency") {
			t.Errorf("title %q does not mention query", a[i].Title)
		}
		if _, ok := metadata.ParseISODuration(a[i].Duration); !ok {
			t.Errorf("duration %q not parseable", a[i].Duration)
		}
	}

	other, _ := p.Search(ctx, "sourdough", 1)
	if other[0].ID == a[0].ID {
		t.Error("different queries should produce different IDs")
	}
}

func TestPlaceholder_EmptyQuery(t *testing.T) {
	if _, err := NewPlaceholder().Search(context.Background(), "  ", 5); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("Search() error = %v, want ErrInvalidInput", err)
	}
}

func TestPlaceholder_Video(t *testing.T) {
	p := NewPlaceholder()
	ctx := context.Background()

	items, _ := p.Search(ctx, "rust", 3)
	got, err := p.Video(ctx, items[2].ID)
	if err != nil {
		t.Fatalf("Video() error = %v", err)
	}
	if got.ID != items[2].ID || got.Duration != items[2].Duration {
		t.Errorf("Video() = %+v, want ID %s", got, items[2].ID)
	}

	if _, err := p.Video(ctx, "nope"); !errors.Is(err, core.ErrItemNotFound) {
		t.Errorf("Video(nope) error = %v, want ErrItemNotFound", err)
	}
}

type stubProvider struct {
	name  string
	items []core.RawItem
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(ctx context.Context, query string, maxResults int) ([]core.RawItem, error) {
	s.calls++
	return s.items, s.err
}

func (s *stubProvider) Video(ctx context.Context, id string) (core.RawItem, error) {
	s.calls++
	if s.err != nil {
		return core.RawItem{}, s.err
	}
	return s.items[0], nil
}

func TestFallback(t *testing.T) {
	ctx := context.Background()
	primary := &stubProvider{name: "p", err: core.ErrProviderUnavailable}
	secondary := &stubProvider{name: "s", items: []core.RawItem{{ID: "s1"}}}
	f := NewFallback(primary, secondary)

	items, err := f.Search(ctx, "q", 5)
	if err != nil || len(items) != 1 || items[0].ID != "s1" {
		t.Fatalf("Search() = %v, %v", items, err)
	}

	primary.err = nil
	primary.items = []core.RawItem{{ID: "p1"}}
	secondary.calls = 0
	items, _ = f.Search(ctx, "q", 5)
	if items[0].ID != "p1" || secondary.calls != 0 {
		t.Errorf("healthy primary should not touch secondary")
	}

	if f.Name() != "p+s" {
		t.Errorf("Name() = %q", f.Name())
	}
}

func TestFallback_VideoNotFoundIsFinal(t *testing.T) {
	primary := &stubProvider{name: "p", err: core.ErrItemNotFound}
	secondary := &stubProvider{name: "s", items: []core.RawItem{{ID: "s1"}}}

	_, err := NewFallback(primary, secondary).Video(context.Background(), "x")
	if !errors.Is(err, core.ErrItemNotFound) || secondary.calls != 0 {
		t.Errorf("Video() error = %v, secondary calls = %d", err, secondary.calls)
	}
}

const searchResponse = `{
  "items": [
    {"id": {"kind": "youtube#video", "videoId": "v2"}},
    {"id": {"kind": "youtube#video", "videoId": "v1"}},
    {"id": {"kind": "youtube#channel", "channelId": "c1"}}
  ]
}`

const videosResponse = `{
  "items": [
    {
      "id": "v1",
      "snippet": {
        "title": "Python tutorial",
        "description": "Learn python",
        "channelId": "UC1",
        "channelTitle": "Code",
        "publishedAt": "2024-03-01T12:00:00Z",
        "thumbnails": {"default": {"url": "https://example.com/d.jpg"}, "high": {"url": "https://example.com/h.jpg"}}
      },
      "contentDetails": {"duration": "PT12M30S"},
      "statistics": {"viewCount": "1500", "likeCount": "20", "commentCount": "3"}
    },
    {
      "id": "v2",
      "snippet": {"title": "Go tutorial", "channelId": "UC2", "publishedAt": "2024-02-01T00:00:00Z"},
      "contentDetails": {"duration": "PT4M"}
    }
  ]
}`

func TestYouTube_Search(t *testing.T) {
	var searches, videos int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			http.Error(w, "missing key", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/search"):
			atomic.AddInt32(&searches, 1)
			if r.URL.Query().Get("q") != "tutorial" {
				t.Errorf("q = %q", r.URL.Query().Get("q"))
			}
			w.Write([]byte(searchResponse))
		case strings.HasSuffix(r.URL.Path, "/videos"):
			atomic.AddInt32(&videos, 1)
			w.Write([]byte(videosResponse))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	yt, err := NewYouTube(ctx, YouTubeConfig{APIKey: "test-key", Endpoint: srv.URL + "/", RateLimit: 100})
	if err != nil {
		t.Fatalf("NewYouTube() error = %v", err)
	}

	items, err := yt.Search(ctx, "tutorial", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	var ids []string
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	if !reflect.DeepEqual(ids, []string{"v2", "v1"}) {
		t.Fatalf("ids = %v, want search order [v2 v1]", ids)
	}

	v1 := items[1]
	if v1.Duration != "PT12M30S" || v1.ViewCount != 1500 || v1.LikeCount != 20 || v1.CommentCount != 3 {
		t.Errorf("v1 = %+v", v1)
	}
	if v1.ThumbnailURL != "https://example.com/h.jpg" {
		t.Errorf("thumbnail = %q, want high", v1.ThumbnailURL)
	}
	if v1.PublishedAt.Year() != 2024 {
		t.Errorf("PublishedAt = %v", v1.PublishedAt)
	}

	// Second search and video lookup come from the cache
	yt.Search(ctx, "tutorial", 10)
	if _, err := yt.Video(ctx, "v1"); err != nil {
		t.Fatalf("Video() error = %v", err)
	}
	if atomic.LoadInt32(&searches) != 1 || atomic.LoadInt32(&videos) != 1 {
		t.Errorf("api calls = %d search, %d videos; want 1, 1", searches, videos)
	}
}

func TestYouTube_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"code": 403, "message": "quota"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	ctx := context.Background()
	yt, err := NewYouTube(ctx, YouTubeConfig{APIKey: "k", Endpoint: srv.URL + "/"})
	if err != nil {
		t.Fatalf("NewYouTube() error = %v", err)
	}

	if _, err := yt.Search(ctx, "anything", 5); !errors.Is(err, core.ErrProviderUnavailable) {
		t.Errorf("Search() error = %v, want ErrProviderUnavailable", err)
	}
}

func TestNewYouTube_RequiresCredentials(t *testing.T) {
	if _, err := NewYouTube(context.Background(), YouTubeConfig{}); !errors.Is(err, core.ErrMissingRequired) {
		t.Errorf("NewYouTube() error = %v, want ErrMissingRequired", err)
	}
}
