package agent

import (
	"github.com/mindfultube/mindfultube/internal/core"
	"github.com/mindfultube/mindfultube/internal/discovery"
	"github.com/mindfultube/mindfultube/internal/preference"
	"github.com/mindfultube/mindfultube/internal/usage"
)

// TopPreferenceCount is how many entries Insights lists per dimension
const TopPreferenceCount = 5

// Insights is a read-only view over what the agents have learned
type Insights struct {
	Preferences    preference.Preferences          `json:"preferences"`
	DominantIntent core.IntentCategory             `json:"dominantIntent"`
	IntentScores   map[core.IntentCategory]float64 `json:"intentScores"`
	KnowledgeGaps  []discovery.KnowledgeGap        `json:"knowledgeGaps"`
	NextSteps      []discovery.NextStep            `json:"nextSteps"`
	Related        []discovery.RelatedSuggestion   `json:"related"`
	LearningPaths  []discovery.LearningPath        `json:"learningPaths"`
}

// Insights collects the agents' current view. A failing agent leaves its
// fields empty.
func (a *Agent) Insights() Insights {
	var in Insights
	a.safely(NamePreference, func() error {
		in.Preferences = a.preference.TopPreferences(TopPreferenceCount)
		return nil
	})
	a.safely(NameIntent, func() error {
		in.DominantIntent = a.intent.Dominant()
		in.IntentScores = a.intent.Scores()
		return nil
	})
	a.safely(NameDiscovery, func() error {
		in.KnowledgeGaps = a.discovery.IdentifyKnowledgeGaps()
		in.NextSteps = a.discovery.NextLearningSteps()
		in.Related = a.discovery.RelatedContent()
		in.LearningPaths = a.discovery.Paths()
		return nil
	})
	return in
}

// UsageSummary is the time usage view
type UsageSummary struct {
	TodayMinutes     float64              `json:"todayMinutes"`
	WeeklyMinutes    float64              `json:"weeklyMinutes"`
	RemainingMinutes float64              `json:"remainingMinutes"`
	Goals            usage.Goals          `json:"goals"`
	Patterns         usage.Patterns       `json:"patterns"`
	Recommendation   usage.Recommendation `json:"recommendation"`
}

// Usage summarizes viewing time as of now
func (a *Agent) Usage() UsageSummary {
	now := a.now()
	var s UsageSummary
	a.safely(NameUsage, func() error {
		s = UsageSummary{
			TodayMinutes:     a.usage.GetTodayUsage(now),
			WeeklyMinutes:    a.usage.GetWeeklyUsage(now),
			RemainingMinutes: a.usage.GetRemainingTime(now),
			Goals:            a.usage.Goals(),
			Patterns:         a.usage.Patterns(),
			Recommendation:   a.usage.GetRecommendation(now),
		}
		return nil
	})
	return s
}
