package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/mindfultube/mindfultube/internal/core"
)

// MaxPageSize is the largest page the Data API returns
const MaxPageSize = 50

// YouTubeConfig configures the YouTube Data API provider
type YouTubeConfig struct {
	APIKey      string        // API key auth
	AccessToken string        // OAuth access token auth, used when APIKey is empty
	Endpoint    string        // Override for tests
	RateLimit   float64       // Requests per second, default 5
	CacheTTL    time.Duration // Result cache lifetime, default 15 minutes
}

// YouTube searches via the YouTube Data API v3
type YouTube struct {
	service *youtube.Service
	limiter *rate.Limiter
	cache   *cache.Cache
}

// NewYouTube creates a YouTube provider
func NewYouTube(ctx context.Context, cfg YouTubeConfig) (*YouTube, error) {
	var opts []option.ClientOption
	switch {
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case cfg.AccessToken != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"})
		opts = append(opts, option.WithTokenSource(ts))
	default:
		return nil, fmt.Errorf("%w: youtube api key or access token", core.ErrMissingRequired)
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}

	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 5
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 15 * time.Minute
	}

	burst := int(cfg.RateLimit * 2)
	if burst < 1 {
		burst = 1
	}

	return &YouTube{
		service: service,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), burst),
		cache:   cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
	}, nil
}

func (y *YouTube) Name() string { return "youtube" }

// Search runs search.list for IDs, then videos.list for durations and
// statistics, which search results do not carry.
func (y *YouTube) Search(ctx context.Context, query string, maxResults int) ([]core.RawItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", core.ErrInvalidInput)
	}
	if maxResults <= 0 || maxResults > MaxPageSize {
		maxResults = MaxPageSize
	}

	cacheKey := fmt.Sprintf("search:%d:%s", maxResults, strings.ToLower(query))
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached.([]core.RawItem), nil
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := y.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(int64(maxResults)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", core.ErrProviderUnavailable, err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, r := range resp.Items {
		if r.Id != nil && r.Id.VideoId != "" {
			ids = append(ids, r.Id.VideoId)
		}
	}
	if len(ids) == 0 {
		return []core.RawItem{}, nil
	}

	items, err := y.videos(ctx, ids)
	if err != nil {
		return nil, err
	}

	// Keep search relevance order
	byID := make(map[string]core.RawItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	ordered := make([]core.RawItem, 0, len(ids))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			ordered = append(ordered, it)
			y.cache.SetDefault("video:"+id, it)
		}
	}

	y.cache.SetDefault(cacheKey, ordered)
	return ordered, nil
}

// Video returns a single video's details
func (y *YouTube) Video(ctx context.Context, id string) (core.RawItem, error) {
	if cached, ok := y.cache.Get("video:" + id); ok {
		return cached.(core.RawItem), nil
	}

	items, err := y.videos(ctx, []string{id})
	if err != nil {
		return core.RawItem{}, err
	}
	if len(items) == 0 {
		return core.RawItem{}, core.ErrItemNotFound
	}
	y.cache.SetDefault("video:"+id, items[0])
	return items[0], nil
}

func (y *YouTube) videos(ctx context.Context, ids []string) ([]core.RawItem, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := y.service.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: videos: %v", core.ErrProviderUnavailable, err)
	}

	items := make([]core.RawItem, 0, len(resp.Items))
	for _, v := range resp.Items {
		items = append(items, convertVideo(v))
	}
	return items, nil
}

func convertVideo(v *youtube.Video) core.RawItem {
	item := core.RawItem{ID: v.Id}

	if s := v.Snippet; s != nil {
		item.Title = s.Title
		item.Description = s.Description
		item.ChannelID = s.ChannelId
		item.ChannelTitle = s.ChannelTitle
		if t, err := time.Parse(time.RFC3339, s.PublishedAt); err == nil {
			item.PublishedAt = t
		}
		item.ThumbnailURL = thumbnail(s.Thumbnails)
	}
	if cd := v.ContentDetails; cd != nil {
		item.Duration = cd.Duration
	}
	if st := v.Statistics; st != nil {
		item.ViewCount = int64(st.ViewCount)
		item.LikeCount = int64(st.LikeCount)
		item.CommentCount = int64(st.CommentCount)
	}
	return item
}

func thumbnail(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*youtube.Thumbnail{t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}
