// Package metadata turns raw search items into structured attributes.
package metadata

import (
	"regexp"
	"strings"

	"github.com/mindfultube/mindfultube/internal/core"
)

// TopicKeywords is the fixed keyword list the extractor recognizes as topics.
// Extracted topics keep this order.
var TopicKeywords = []string{
	"programming", "python", "javascript", "typescript", "golang", "rust",
	"java", "react", "machine learning", "ai", "data science",
	"web development", "design", "music", "gaming", "cooking", "fitness",
	"travel", "science", "physics", "chemistry", "biology", "math",
	"history", "finance", "investing", "business", "marketing",
	"photography", "art", "productivity", "news", "politics", "comedy",
	"movies", "sports", "technology", "education", "language learning", "diy",
}

// formatPattern tags a title with a content format
type formatPattern struct {
	tag     string
	pattern *regexp.Regexp
}

var formatPatterns = []formatPattern{
	{"tutorial", regexp.MustCompile(`(?i)\b(tutorial|how to|guide|step by step|tips)\b`)},
	{"lecture", regexp.MustCompile(`(?i)\b(lecture|course|class|lesson|seminar)\b`)},
	{"review", regexp.MustCompile(`(?i)\b(review|unboxing|hands[- ]on|comparison|vs)\b`)},
	{"entertainment", regexp.MustCompile(`(?i)\b(funny|comedy|prank|challenge|reaction|vlog|meme)\b`)},
	{"news", regexp.MustCompile(`(?i)\b(news|breaking|update|report|headlines)\b`)},
	{"music", regexp.MustCompile(`(?i)\b(music video|official video|lyrics|live performance|cover|remix)\b`)},
	{"documentary", regexp.MustCompile(`(?i)\b(documentary|the story of|history of)\b`)},
	{"podcast", regexp.MustCompile(`(?i)\b(podcast|interview|episode \d+|ep\.? ?\d+)\b`)},
	{"gaming", regexp.MustCompile(`(?i)\b(gameplay|let'?s play|walkthrough|speedrun|playthrough)\b`)},
}

// Duration bucket thresholds in seconds
const (
	shortMaxSeconds  = 300
	mediumMaxSeconds = 1200
	longMaxSeconds   = 3600
)

// Extractor derives ExtractedMetadata from raw items.
// It holds only compiled patterns and is safe for concurrent use.
type Extractor struct {
	topics []topicMatcher
}

type topicMatcher struct {
	topic   string
	pattern *regexp.Regexp
}

// NewExtractor compiles the topic keyword list
func NewExtractor() *Extractor {
	return NewExtractorWithKeywords(TopicKeywords)
}

// NewExtractorWithKeywords builds an extractor over a custom keyword list.
// Keywords match case-insensitively on word boundaries.
func NewExtractorWithKeywords(keywords []string) *Extractor {
	return &Extractor{topics: compileKeywords(keywords)}
}

func compileKeywords(keywords []string) []topicMatcher {
	matchers := make([]topicMatcher, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		matchers = append(matchers, topicMatcher{
			topic:   kw,
			pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`),
		})
	}
	return matchers
}

// Extract computes the metadata for item. Missing fields degrade to
// empty topics and an unknown duration bucket.
func (e *Extractor) Extract(item core.RawItem) core.ExtractedMetadata {
	return core.ExtractedMetadata{
		ChannelID:      item.ChannelID,
		ChannelTitle:   item.ChannelTitle,
		DurationBucket: Bucket(item.Duration),
		Topics:         e.Topics(item.Title + " " + item.Description),
		Formats:        Formats(item.Title),
		PublishedAt:    item.PublishedAt,
		ViewCount:      item.ViewCount,
	}
}

// Topics returns the keywords found in text, in keyword-list order
func (e *Extractor) Topics(text string) []string {
	topics := []string{}
	if strings.TrimSpace(text) == "" {
		return topics
	}
	for _, m := range e.topics {
		if m.pattern.MatchString(text) {
			topics = append(topics, m.topic)
		}
	}
	return topics
}

// Formats returns every format tag whose pattern matches title
func Formats(title string) []string {
	var formats []string
	for _, fp := range formatPatterns {
		if fp.pattern.MatchString(title) {
			formats = append(formats, fp.tag)
		}
	}
	if len(formats) == 0 {
		return []string{core.FormatUncategorized}
	}
	return formats
}

// Bucket classifies an ISO-8601 duration string
func Bucket(iso string) core.DurationBucket {
	d, ok := ParseISODuration(iso)
	if !ok {
		return core.DurationUnknown
	}

	secs := d.Seconds()
	switch {
	case secs < shortMaxSeconds:
		return core.DurationShort
	case secs < mediumMaxSeconds:
		return core.DurationMedium
	case secs < longMaxSeconds:
		return core.DurationLong
	default:
		return core.DurationExtended
	}
}
