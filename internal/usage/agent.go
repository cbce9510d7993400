package usage

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/mindfultube/mindfultube/internal/core"
	"github.com/mindfultube/mindfultube/internal/logging"
	"github.com/mindfultube/mindfultube/internal/storage"
)

// Action is the outcome of a recommendation
type Action string

const (
	ActionAllow Action = "allow"
	ActionLimit Action = "limit"
)

// Suggested break lengths in minutes
const (
	WeeklyBreakMinutes     = 180
	DailyBreakMinutes      = 120
	ProductiveBreakMinutes = 60
)

// Recommendation answers "should the user pause now"
type Recommendation struct {
	Action                Action `json:"action"`
	Message               string `json:"message,omitempty"`
	SuggestedBreakMinutes int    `json:"suggestedBreak,omitempty"`
}

// Config configures the agent
type Config struct {
	Store    storage.KV
	Goals    Goals            // Zero values fall back to the default limits
	Location *time.Location   // Calendar for date keys, defaults to time.Local
	Now      func() time.Time // Defaults to time.Now
}

// Agent is the time usage agent
type Agent struct {
	store storage.KV
	loc   *time.Location
	now   func() time.Time
	log   *logging.Logger

	mu       sync.RWMutex
	patterns Patterns
	goals    Goals
}

// New creates a time usage agent with empty history
func New(cfg Config) *Agent {
	defaults := core.DefaultPreferences()
	if cfg.Goals.DailyLimitMinutes <= 0 {
		cfg.Goals.DailyLimitMinutes = defaults.DailyLimitMinutes
	}
	if cfg.Goals.WeeklyLimitMinutes <= 0 {
		cfg.Goals.WeeklyLimitMinutes = defaults.WeeklyLimitMinutes
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Agent{
		store:    cfg.Store,
		loc:      cfg.Location,
		now:      cfg.Now,
		log:      logging.Component("usage"),
		patterns: newPatterns(),
		goals:    cfg.Goals,
	}
}

// Load restores usage patterns and goals from the store
func (a *Agent) Load(ctx context.Context) error {
	patterns := newPatterns()
	if _, err := storage.LoadJSON(ctx, a.store, core.KeyUsagePatterns, &patterns); err != nil {
		return err
	}
	if patterns.Records == nil {
		patterns.Records = make(map[string]*DailyUsageRecord)
	}

	var goals Goals
	found, err := storage.LoadJSON(ctx, a.store, core.KeyTimeGoals, &goals)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.patterns = patterns
	if found && goals.DailyLimitMinutes > 0 && goals.WeeklyLimitMinutes > 0 {
		a.goals = goals
	}
	return nil
}

// TrackSession records a viewing session. Sessions shorter than ten
// seconds are ignored.
func (a *Agent) TrackSession(ctx context.Context, start, end time.Time, itemIDs []string) error {
	d := end.Sub(start)
	if d < MinSessionDuration {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	local := start.In(a.loc)
	date := local.Format(DateLayout)
	rec, ok := a.patterns.Records[date]
	if !ok {
		rec = &DailyUsageRecord{Date: date, DayOfWeek: int(local.Weekday())}
		a.patterns.Records[date] = rec
	}

	ids := make([]string, len(itemIDs))
	copy(ids, itemIDs)
	session := Session{
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: d.Minutes(),
		ItemIDs:         ids,
	}
	rec.Sessions = append(rec.Sessions, session)
	rec.TotalDurationMinutes += session.DurationMinutes

	evictOldest(a.patterns.Records)
	a.deriveLocked()
	return a.persistPatternsLocked(ctx)
}

// Recompute re-runs the derived statistics and persists them
func (a *Agent) Recompute(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	evictOldest(a.patterns.Records)
	a.deriveLocked()
	return a.persistPatternsLocked(ctx)
}

func (a *Agent) deriveLocked() {
	today := a.now().In(a.loc)
	a.patterns.WeeklyAverageMinutes = weeklyAverage(a.patterns.Records, today)
	a.patterns.ProductiveHours = productiveHours(a.patterns.Records, a.loc)
	a.patterns.ProblematicPeriods = problematicPeriods(a.patterns.Records, a.goals.DailyLimitMinutes)
}

// SetGoals updates and persists the time limits
func (a *Agent) SetGoals(ctx context.Context, dailyMinutes, weeklyMinutes float64) error {
	if dailyMinutes <= 0 || weeklyMinutes <= 0 {
		return fmt.Errorf("%w: limits must be positive", core.ErrInvalidInput)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.goals = Goals{DailyLimitMinutes: dailyMinutes, WeeklyLimitMinutes: weeklyMinutes}
	if a.store == nil {
		return nil
	}
	if err := storage.SaveJSON(ctx, a.store, core.KeyTimeGoals, a.goals); err != nil {
		a.log.WithError(err).Warn("Failed to persist time goals")
		return err
	}
	return nil
}

// GetRecommendation returns the highest-priority pause suggestion
func (a *Agent) GetRecommendation(now time.Time) Recommendation {
	a.mu.RLock()
	defer a.mu.RUnlock()

	// Minutes actually watched, not the 7/daysWithData projection, so a
	// heavy first day cannot trip the weekly goal on its own
	local := now.In(a.loc)
	weekly, _ := weeklyTotal(a.patterns.Records, local)
	if weekly >= a.goals.WeeklyLimitMinutes {
		return Recommendation{
			Action:                ActionLimit,
			Message:               fmt.Sprintf("You've watched %.0f minutes this week, over your %.0f minute weekly goal.", weekly, a.goals.WeeklyLimitMinutes),
			SuggestedBreakMinutes: WeeklyBreakMinutes,
		}
	}

	today := a.todayLocked(local)
	if today >= a.goals.DailyLimitMinutes {
		return Recommendation{
			Action:                ActionLimit,
			Message:               fmt.Sprintf("You've reached your daily goal of %.0f minutes.", a.goals.DailyLimitMinutes),
			SuggestedBreakMinutes: DailyBreakMinutes,
		}
	}

	for _, h := range a.patterns.ProductiveHours {
		if h == local.Hour() {
			return Recommendation{
				Action:                ActionLimit,
				Message:               "This is usually one of your most productive hours.",
				SuggestedBreakMinutes: ProductiveBreakMinutes,
			}
		}
	}

	return Recommendation{Action: ActionAllow}
}

// GetRemainingTime returns the minutes left under today's limit
func (a *Agent) GetRemainingTime(now time.Time) float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return math.Max(0, a.goals.DailyLimitMinutes-a.todayLocked(now.In(a.loc)))
}

// GetTodayUsage returns the minutes watched on now's calendar date
func (a *Agent) GetTodayUsage(now time.Time) float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.todayLocked(now.In(a.loc))
}

// GetWeeklyUsage returns the minutes watched over the last 7 calendar days
func (a *Agent) GetWeeklyUsage(now time.Time) float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	total, _ := weeklyTotal(a.patterns.Records, now.In(a.loc))
	return total
}

func (a *Agent) todayLocked(local time.Time) float64 {
	if rec, ok := a.patterns.Records[local.Format(DateLayout)]; ok {
		return rec.TotalDurationMinutes
	}
	return 0
}

// Goals returns the configured limits
func (a *Agent) Goals() Goals {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.goals
}

// Patterns returns a copy of the derived statistics without records
func (a *Agent) Patterns() Patterns {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return Patterns{
		WeeklyAverageMinutes: a.patterns.WeeklyAverageMinutes,
		ProductiveHours:      append([]int{}, a.patterns.ProductiveHours...),
		ProblematicPeriods:   append([]ProblematicPeriod{}, a.patterns.ProblematicPeriods...),
	}
}

// Records returns copies of the stored daily records keyed by date
func (a *Agent) Records() map[string]DailyUsageRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(map[string]DailyUsageRecord, len(a.patterns.Records))
	for date, rec := range a.patterns.Records {
		cp := *rec
		cp.Sessions = append([]Session(nil), rec.Sessions...)
		out[date] = cp
	}
	return out
}

// Reset clears all usage history. Goals are kept, since they are settings.
func (a *Agent) Reset(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.patterns = newPatterns()
	return a.persistPatternsLocked(ctx)
}

func (a *Agent) persistPatternsLocked(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	if err := storage.SaveJSON(ctx, a.store, core.KeyUsagePatterns, a.patterns); err != nil {
		a.log.WithError(err).Warn("Failed to persist usage patterns")
		return err
	}
	return nil
}
