package agent

import (
	"context"
	"sync"
	"time"

	"github.com/mindfultube/mindfultube/internal/core"
	"github.com/mindfultube/mindfultube/internal/discovery"
	"github.com/mindfultube/mindfultube/internal/metadata"
	"github.com/mindfultube/mindfultube/internal/usage"
)

// Engagement thresholds
const (
	PositiveRatio      = 0.7
	NegativeRatio      = 0.3
	MinNegativeSeconds = 30
	engagementPositive = "positive"
	engagementNegative = "negative"
	engagementNeutral  = "neutral"
)

// RecommendationType names the kind of post-video suggestion
type RecommendationType string

const (
	RecommendBreak          RecommendationType = "break"
	RecommendLearningPath   RecommendationType = "learning_path"
	RecommendRelatedContent RecommendationType = "related_content"
	RecommendStandard       RecommendationType = "standard"
)

// NextRecommendation is what to suggest once a video ends
type NextRecommendation struct {
	Type           RecommendationType            `json:"type"`
	Message        string                        `json:"message,omitempty"`
	SuggestedBreak int                           `json:"suggestedBreak,omitempty"`
	Steps          []discovery.NextStep          `json:"steps,omitempty"`
	Related        []discovery.RelatedSuggestion `json:"related,omitempty"`
}

// VideoEndHandler finishes a video view given the seconds actually watched
type VideoEndHandler func(ctx context.Context, watchedSeconds float64) NextRecommendation

// videoView is the pending state behind a VideoEndHandler
type videoView struct {
	id      string
	item    core.RawItem
	started time.Time

	once sync.Once
	next NextRecommendation
}

// ProcessVideoView registers the item with discovery and returns the
// handler to call when the view ends. The handler acts once; later calls
// return the first result.
func (a *Agent) ProcessVideoView(ctx context.Context, id string, item core.RawItem) VideoEndHandler {
	if item.ID == "" {
		item.ID = id
	}
	settings := a.Settings()

	a.mu.Lock()
	a.session.itemID = id
	if a.session.state != StateIdle {
		a.session.state = StateWatching
	}
	a.mu.Unlock()

	if settings.Privacy.DiscoveryEnabled && settings.learning() {
		a.safely(NameDiscovery, func() error { return a.discovery.ProcessContent(ctx, item) })
	}

	view := &videoView{id: id, item: item, started: a.now()}
	return func(ctx context.Context, watchedSeconds float64) NextRecommendation {
		view.once.Do(func() {
			view.next = a.finishView(ctx, view, watchedSeconds)
		})
		return view.next
	}
}

func (a *Agent) finishView(ctx context.Context, view *videoView, watchedSeconds float64) NextRecommendation {
	if watchedSeconds < 0 {
		watchedSeconds = 0
	}
	settings := a.Settings()

	if settings.learning() {
		if settings.Privacy.CollectEngagement {
			a.recordEngagement(ctx, view, watchedSeconds)
		}
		if settings.Privacy.CollectUsage {
			end := view.started.Add(time.Duration(watchedSeconds * float64(time.Second)))
			a.safely(NameUsage, func() error {
				return a.usage.TrackSession(ctx, view.started, end, []string{view.id})
			})
		}
	}

	a.mu.Lock()
	if a.session.itemID == view.id {
		a.session.itemID = ""
		if a.session.state == StateWatching {
			a.session.state = StateActive
		}
	}
	delete(a.pending, view.id)
	a.mu.Unlock()

	next := a.NextRecommendation()
	a.metrics.Recommendation(string(next.Type))
	a.notify(ctx, InterfaceUpdate{
		Message:         next.Message,
		Recommendations: []NextRecommendation{next},
		Show:            true,
	})
	return next
}

// EngagementKind classifies a view. Items with unknown duration are
// always neutral.
func EngagementKind(durationISO string, watchedSeconds float64) string {
	total, ok := metadata.ParseISODuration(durationISO)
	if !ok || total <= 0 {
		return engagementNeutral
	}
	ratio := watchedSeconds / total.Seconds()
	switch {
	case ratio > PositiveRatio:
		return engagementPositive
	case ratio < NegativeRatio && watchedSeconds > MinNegativeSeconds:
		return engagementNegative
	default:
		return engagementNeutral
	}
}

func (a *Agent) recordEngagement(ctx context.Context, view *videoView, watchedSeconds float64) {
	kind := EngagementKind(view.item.Duration, watchedSeconds)
	a.metrics.Engagement(kind)
	switch kind {
	case engagementPositive:
		a.safely(NamePreference, func() error {
			return a.preference.RecordPositive(ctx, view.id, view.item)
		})
	case engagementNegative:
		a.safely(NamePreference, func() error {
			return a.preference.RecordNegative(ctx, view.id, view.item, int64(watchedSeconds*1000))
		})
	}
}

// NextRecommendation picks a break, a learning path step, related content
// or nothing, in that priority
func (a *Agent) NextRecommendation() NextRecommendation {
	now := a.now()

	rec := usage.Recommendation{Action: usage.ActionAllow}
	a.safely(NameUsage, func() error {
		rec = a.usage.GetRecommendation(now)
		return nil
	})
	if rec.Action == usage.ActionLimit {
		return NextRecommendation{Type: RecommendBreak, Message: rec.Message, SuggestedBreak: rec.SuggestedBreakMinutes}
	}

	a.mu.RLock()
	category := a.session.intent
	a.mu.RUnlock()
	if category == "" || category == core.IntentDefault {
		a.safely(NameIntent, func() error {
			category = a.intent.Dominant()
			return nil
		})
	}

	if category == core.IntentLearning || category == core.IntentResearch {
		var steps []discovery.NextStep
		err := a.safely(NameDiscovery, func() error {
			steps = a.discovery.NextLearningSteps()
			return nil
		})
		if err == nil && len(steps) > 0 {
			return NextRecommendation{
				Type:    RecommendLearningPath,
				Message: "Continue your learning path with " + steps[0].Topic + ".",
				Steps:   steps,
			}
		}
	}

	var related []discovery.RelatedSuggestion
	err := a.safely(NameDiscovery, func() error {
		related = a.discovery.RelatedContent()
		return nil
	})
	if err == nil && len(related) > 0 {
		return NextRecommendation{Type: RecommendRelatedContent, Message: related[0].Message, Related: related}
	}

	return NextRecommendation{Type: RecommendStandard}
}
