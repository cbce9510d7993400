package search

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/mindfultube/mindfultube/internal/core"
)

var placeholderTitles = []string{
	"%s explained in 10 minutes",
	"Complete %s tutorial for beginners",
	"The history of %s",
	"%s: a deep dive",
	"Top 10 %s mistakes",
	"Why %s matters",
	"%s review",
	"Funny %s moments compilation",
}

var placeholderDurations = []string{"PT4M10S", "PT12M", "PT45M", "PT1H20M"}

// placeholderEpoch anchors generated publish dates so output never
// depends on the wall clock
var placeholderEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Placeholder generates deterministic fake results for development and
// tests when no real provider is reachable.
type Placeholder struct{}

// NewPlaceholder returns the placeholder provider
func NewPlaceholder() *Placeholder {
	return &Placeholder{}
}

func (p *Placeholder) Name() string { return "placeholder" }

// Search returns maxResults items derived from a hash of query
func (p *Placeholder) Search(ctx context.Context, query string, maxResults int) ([]core.RawItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", core.ErrInvalidInput)
	}

	seed := hash(strings.ToLower(query))
	items := make([]core.RawItem, 0, maxResults)
	for i := 0; i < maxResults; i++ {
		items = append(items, generate(query, seed, i))
	}
	return items, nil
}

// Video decodes an ID produced by Search
func (p *Placeholder) Video(ctx context.Context, id string) (core.RawItem, error) {
	parts := strings.Split(id, "-")
	if len(parts) != 3 || parts[0] != "ph" {
		return core.RawItem{}, core.ErrItemNotFound
	}
	seed, err := strconv.ParseUint(parts[1], 16, 32)
	if err != nil {
		return core.RawItem{}, core.ErrItemNotFound
	}
	i, err := strconv.Atoi(parts[2])
	if err != nil || i < 0 {
		return core.RawItem{}, core.ErrItemNotFound
	}

	item := generate("placeholder", uint32(seed), i)
	item.Title = fmt.Sprintf("Placeholder video %d", i+1)
	return item, nil
}

func generate(query string, seed uint32, i int) core.RawItem {
	n := int(seed>>8) + i
	channel := seed%7 + uint32(i%3)
	return core.RawItem{
		ID:           fmt.Sprintf("ph-%08x-%d", seed, i),
		Title:        fmt.Sprintf(placeholderTitles[n%len(placeholderTitles)], query),
		Description:  fmt.Sprintf("Placeholder result %d for %q", i+1, query),
		ChannelID:    fmt.Sprintf("UC-placeholder-%d", channel),
		ChannelTitle: fmt.Sprintf("Placeholder Channel %d", channel),
		PublishedAt:  placeholderEpoch.Add(-time.Duration(n%365) * 24 * time.Hour),
		ThumbnailURL: "",
		Duration:     placeholderDurations[i%len(placeholderDurations)],
		ViewCount:    int64(1000 * (n%97 + 1)),
		LikeCount:    int64(10 * (n%89 + 1)),
		CommentCount: int64(n % 53),
	}
}

func hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
