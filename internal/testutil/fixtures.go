package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/mindfultube/mindfultube/internal/core"
)

// RandomID generates a random ID for testing.
func RandomID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// BaseTime is a fixed Wednesday morning used as the default test clock.
var BaseTime = time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)

// VideoFixture returns a ten-minute programming tutorial.
func VideoFixture() core.RawItem {
	return core.RawItem{
		ID:           "vid-" + RandomID(),
		Title:        "Python Tutorial for Beginners",
		Description:  "Learn programming with python step by step",
		ChannelID:    "UC-code",
		ChannelTitle: "Code Academy",
		PublishedAt:  BaseTime.Add(-48 * time.Hour),
		ThumbnailURL: "https://i.ytimg.com/vi/example/hqdefault.jpg",
		Duration:     "PT10M",
		ViewCount:    125000,
		LikeCount:    4200,
		CommentCount: 310,
	}
}

// Video builds an item with the given id, title and duration.
func Video(id, title, duration string) core.RawItem {
	item := VideoFixture()
	item.ID = id
	item.Title = title
	item.Description = ""
	item.Duration = duration
	return item
}

// VideoOnChannel builds an item published by channelID.
func VideoOnChannel(id, title, channelID string) core.RawItem {
	item := Video(id, title, "PT10M")
	item.ChannelID = channelID
	item.ChannelTitle = channelID
	return item
}
