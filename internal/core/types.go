// Package core defines the fundamental types shared by the MindfulTube agents.
package core

import (
	"time"
)

// -----------------------------------------------------------------------------
// CONTENT - What the search provider hands us
// -----------------------------------------------------------------------------

// RawItem is a content item as returned by a search provider.
type RawItem struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ChannelID    string    `json:"channelId"`
	ChannelTitle string    `json:"channelTitle"`
	PublishedAt  time.Time `json:"publishedAt"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Duration     string    `json:"duration"` // ISO-8601, e.g. PT12M30S
	ViewCount    int64     `json:"viewCount"`
	LikeCount    int64     `json:"likeCount"`
	CommentCount int64     `json:"commentCount"`
}

// DurationBucket groups items by length
type DurationBucket string

const (
	DurationShort    DurationBucket = "short"    // < 5 min
	DurationMedium   DurationBucket = "medium"   // < 20 min
	DurationLong     DurationBucket = "long"     // < 60 min
	DurationExtended DurationBucket = "extended" // >= 60 min
	DurationUnknown  DurationBucket = "unknown"
)

// FormatUncategorized is the format tag used when no format pattern matches.
const FormatUncategorized = "uncategorized"

// ExtractedMetadata is the structured view of a RawItem.
// Topics and Formats are sets kept in a deterministic order.
type ExtractedMetadata struct {
	ChannelID      string         `json:"channelId"`
	ChannelTitle   string         `json:"channelTitle"`
	DurationBucket DurationBucket `json:"durationBucket"`
	Topics         []string       `json:"topics"`
	Formats        []string       `json:"formats"`
	PublishedAt    time.Time      `json:"publishedAt"`
	ViewCount      int64          `json:"viewCount"`
}

// HasFormat reports whether the metadata carries the given format tag
func (m ExtractedMetadata) HasFormat(tag string) bool {
	for _, f := range m.Formats {
		if f == tag {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// INTENT - Why the user is searching
// -----------------------------------------------------------------------------

// IntentCategory is one of the recognized query intents
type IntentCategory string

const (
	IntentLearning        IntentCategory = "learning"
	IntentEntertainment   IntentCategory = "entertainment"
	IntentResearch        IntentCategory = "research"
	IntentTroubleshooting IntentCategory = "troubleshooting"
	IntentDefault         IntentCategory = "default" // Nothing dominant yet
)

// IntentCategories lists the scored categories in enumeration order.
// Ties are resolved by this order.
var IntentCategories = []IntentCategory{
	IntentLearning,
	IntentEntertainment,
	IntentResearch,
	IntentTroubleshooting,
}

// InterfaceConfig is the bundle of UI feature flags selected by intent.
type InterfaceConfig struct {
	NoteTaking    bool    `json:"noteTaking"`
	Transcript    bool    `json:"transcript"`
	Chapters      bool    `json:"chapters"`
	HideComments  bool    `json:"hideComments"`
	PlaybackRate  float64 `json:"playbackRate"`
	RelatedVideos bool    `json:"relatedVideos"`
}

// -----------------------------------------------------------------------------
// SETTINGS - Externally owned configuration
// -----------------------------------------------------------------------------

// UserPreferences holds the page-cleanup and time-limit preferences
type UserPreferences struct {
	// Page cleanup
	HideShorts          bool `json:"hideShorts"`
	HideHomeFeed        bool `json:"hideHomeFeed"`
	HideComments        bool `json:"hideComments"`
	HideSidebar         bool `json:"hideSidebar"`
	HideEndScreen       bool `json:"hideEndScreen"`
	HideRecommendations bool `json:"hideRecommendations"`

	// Agents
	AgentEnabled       bool    `json:"agentEnabled"`
	DailyLimitMinutes  float64 `json:"dailyLimitMinutes"`
	WeeklyLimitMinutes float64 `json:"weeklyLimitMinutes"`
}

// DefaultPreferences returns the out-of-the-box preferences
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		HideShorts:          true,
		HideHomeFeed:        true,
		HideComments:        false,
		HideSidebar:         true,
		HideEndScreen:       true,
		HideRecommendations: true,
		AgentEnabled:        true,
		DailyLimitMinutes:   120,
		WeeklyLimitMinutes:  600,
	}
}

// PrivacySettings gate what the agents may record
type PrivacySettings struct {
	CollectEngagement   bool `json:"collectEngagement"`
	CollectUsage        bool `json:"collectUsage"`
	CollectSearchIntent bool `json:"collectSearchIntent"`
	DiscoveryEnabled    bool `json:"discoveryEnabled"`
}

// DefaultPrivacy returns privacy settings with all learning enabled
func DefaultPrivacy() PrivacySettings {
	return PrivacySettings{
		CollectEngagement:   true,
		CollectUsage:        true,
		CollectSearchIntent: true,
		DiscoveryEnabled:    true,
	}
}

// UserConsent records whether the user agreed to local learning
type UserConsent struct {
	Granted   bool      `json:"granted"`
	Version   string    `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ConsentVersion is the current consent text revision
const ConsentVersion = "2024-1"

// -----------------------------------------------------------------------------
// STORAGE KEYS - One disjoint namespace per agent
// -----------------------------------------------------------------------------

const (
	KeyEngagementHistory = "engagement_history"
	KeyPreferenceModel   = "preference_model"
	KeyUsagePatterns     = "usage_patterns"
	KeyTimeGoals         = "time_goals"
	KeyTopicGraph        = "topic_graph"
	KeyLearningPaths     = "learning_paths"
	KeyUserIntents       = "user_intents"
	KeyPrivacySettings   = "privacy_settings"
	KeyUserConsent       = "user_consent"
	KeyUserPreferences   = "user_preferences"
)
