package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mindfultube/mindfultube/internal/core"
)

// Request is an inbound message from the page layer. The set of variants
// is closed.
type Request interface {
	action() string
}

// GetSettings asks for the current settings
type GetSettings struct{}

// CleanPage asks which page elements to hide
type CleanPage struct{}

// Search asks for a processed result list
type Search struct {
	Query string `json:"query"`
}

// VideoStarted reports that playback of an item began
type VideoStarted struct {
	ID string `json:"videoId"`
}

// VideoEvent reports a player event. Only "ended" carries WatchedSeconds.
type VideoEvent struct {
	ID   string         `json:"videoId,omitempty"`
	Type string         `json:"type"`
	Data VideoEventData `json:"data"`
}

// VideoEventData is the payload of a VideoEvent
type VideoEventData struct {
	WatchedSeconds float64 `json:"watchedSeconds,omitempty"`
	CurrentTime    float64 `json:"currentTime,omitempty"`
}

// VideoLeft reports that the user navigated away from an item
type VideoLeft struct {
	ID            string  `json:"videoId"`
	WatchDuration float64 `json:"watchDuration"` // Seconds
}

// SettingsUpdated carries new user preferences
type SettingsUpdated struct {
	Preferences core.UserPreferences `json:"preferences"`
}

// ResetAgentData asks to wipe all learned state
type ResetAgentData struct{}

func (GetSettings) action() string     { return "getSettings" }
func (CleanPage) action() string       { return "cleanPage" }
func (Search) action() string          { return "search" }
func (VideoStarted) action() string    { return "videoStarted" }
func (VideoEvent) action() string      { return "videoEvent" }
func (VideoLeft) action() string       { return "videoLeft" }
func (SettingsUpdated) action() string { return "settingsUpdated" }
func (ResetAgentData) action() string  { return "resetAgentData" }

// Video event types
const (
	EventPlay  = "play"
	EventPause = "pause"
	EventSeek  = "seek"
	EventEnded = "ended"
)

// Action returns the envelope action name of a request
func Action(req Request) string {
	if req == nil {
		return ""
	}
	return req.action()
}

// DecodeRequest parses a {"action": "...", ...} envelope
func DecodeRequest(data []byte) (Request, error) {
	var env struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}

	var req Request
	switch env.Action {
	case "getSettings":
		return GetSettings{}, nil
	case "cleanPage":
		return CleanPage{}, nil
	case "resetAgentData":
		return ResetAgentData{}, nil
	case "search":
		var r Search
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
		}
		if strings.TrimSpace(r.Query) == "" {
			return nil, fmt.Errorf("%w: query", core.ErrMissingRequired)
		}
		req = r
	case "videoStarted":
		var r VideoStarted
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
		}
		if r.ID == "" {
			return nil, fmt.Errorf("%w: videoId", core.ErrMissingRequired)
		}
		req = r
	case "videoEvent":
		var r VideoEvent
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
		}
		switch r.Type {
		case EventPlay, EventPause, EventSeek, EventEnded:
		default:
			return nil, fmt.Errorf("%w: video event %q", core.ErrInvalidInput, r.Type)
		}
		req = r
	case "videoLeft":
		var r VideoLeft
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
		}
		if r.ID == "" {
			return nil, fmt.Errorf("%w: videoId", core.ErrMissingRequired)
		}
		req = r
	case "settingsUpdated":
		r := SettingsUpdated{Preferences: core.DefaultPreferences()}
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
		}
		req = r
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownRequest, env.Action)
	}
	return req, nil
}

// CleanPageResponse lists the page elements to hide
type CleanPageResponse struct {
	HideShorts          bool `json:"hideShorts"`
	HideHomeFeed        bool `json:"hideHomeFeed"`
	HideComments        bool `json:"hideComments"`
	HideSidebar         bool `json:"hideSidebar"`
	HideEndScreen       bool `json:"hideEndScreen"`
	HideRecommendations bool `json:"hideRecommendations"`
	AgentEnabled        bool `json:"agentEnabled"`
}

// VideoStartedResponse acknowledges a started video
type VideoStartedResponse struct {
	Tracking       bool   `json:"tracking"`
	Blocked        bool   `json:"blocked,omitempty"`
	Reason         string `json:"reason,omitempty"`
	SuggestedBreak int    `json:"suggestedBreak,omitempty"`
}

// VideoEndResponse carries the post-video recommendation
type VideoEndResponse struct {
	Recommendation NextRecommendation `json:"recommendation"`
}

// Ack is a plain acknowledgement
type Ack struct {
	OK bool `json:"ok"`
}

// Handle dispatches an inbound request and returns its typed response
func (a *Agent) Handle(ctx context.Context, req Request) (interface{}, error) {
	a.metrics.Message(Action(req))

	switch r := req.(type) {
	case GetSettings:
		return a.Settings(), nil

	case CleanPage:
		p := a.Settings().Preferences
		return CleanPageResponse{
			HideShorts:          p.HideShorts,
			HideHomeFeed:        p.HideHomeFeed,
			HideComments:        p.HideComments,
			HideSidebar:         p.HideSidebar,
			HideEndScreen:       p.HideEndScreen,
			HideRecommendations: p.HideRecommendations,
			AgentEnabled:        p.AgentEnabled,
		}, nil

	case Search:
		return a.ProcessSearch(ctx, r.Query), nil

	case VideoStarted:
		return a.videoStarted(ctx, r.ID), nil

	case VideoEvent:
		if r.Type != EventEnded {
			a.log.Debug("Video event %s at %.1fs", r.Type, r.Data.CurrentTime)
			return Ack{OK: true}, nil
		}
		return a.endVideo(ctx, r.ID, r.Data.WatchedSeconds)

	case VideoLeft:
		return a.endVideo(ctx, r.ID, r.WatchDuration)

	case SettingsUpdated:
		if err := a.UpdatePreferences(ctx, r.Preferences); err != nil {
			return nil, err
		}
		return Ack{OK: true}, nil

	case ResetAgentData:
		return Ack{OK: a.ResetAgentData(ctx)}, nil

	default:
		return nil, fmt.Errorf("%w: %T", core.ErrUnknownRequest, req)
	}
}

// videoStarted registers a pending view. Views are tracked even when the
// session is blocked so usage keeps accumulating.
func (a *Agent) videoStarted(ctx context.Context, id string) VideoStartedResponse {
	start := a.StartSession(ctx)
	item := a.lookupItem(ctx, id)
	handler := a.ProcessVideoView(ctx, id, item)

	a.mu.Lock()
	a.pending[id] = handler
	a.mu.Unlock()

	return VideoStartedResponse{
		Tracking:       true,
		Blocked:        !start.Allowed,
		Reason:         start.Reason,
		SuggestedBreak: start.SuggestedBreak,
	}
}

// endVideo runs the pending handler for id, or for the item currently
// being watched when id is empty
func (a *Agent) endVideo(ctx context.Context, id string, watchedSeconds float64) (VideoEndResponse, error) {
	a.mu.RLock()
	if id == "" {
		id = a.session.itemID
	}
	handler, ok := a.pending[id]
	a.mu.RUnlock()

	if !ok {
		return VideoEndResponse{}, fmt.Errorf("%w: %q", core.ErrNoActiveVideo, id)
	}
	return VideoEndResponse{Recommendation: handler(ctx, watchedSeconds)}, nil
}
