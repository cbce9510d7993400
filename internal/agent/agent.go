// Package agent implements the MindfulTube orchestrator, which sequences
// the preference, usage, intent and discovery agents per user action.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/mindfultube/mindfultube/internal/core"
	"github.com/mindfultube/mindfultube/internal/discovery"
	"github.com/mindfultube/mindfultube/internal/logging"
	"github.com/mindfultube/mindfultube/internal/metrics"
	"github.com/mindfultube/mindfultube/internal/preference"
	"github.com/mindfultube/mindfultube/internal/search"
	"github.com/mindfultube/mindfultube/internal/storage"
	"github.com/mindfultube/mindfultube/internal/usage"
)

// Pipeline defaults
const (
	DefaultSearchFetchSize   = 50
	DefaultMaxDisplayResults = 20
	itemCacheTTL             = time.Hour
)

// PreferenceAgent learns content preferences and ranks results
type PreferenceAgent interface {
	Load(ctx context.Context) error
	RecordPositive(ctx context.Context, itemID string, item core.RawItem) error
	RecordNegative(ctx context.Context, itemID string, item core.RawItem, watchDurationMs int64) error
	RankResults(items []core.RawItem, intent core.IntentCategory) []core.RawItem
	TopPreferences(n int) preference.Preferences
	Reset(ctx context.Context) error
}

// UsageAgent tracks viewing time
type UsageAgent interface {
	Load(ctx context.Context) error
	TrackSession(ctx context.Context, start, end time.Time, itemIDs []string) error
	GetRecommendation(now time.Time) usage.Recommendation
	GetRemainingTime(now time.Time) float64
	GetTodayUsage(now time.Time) float64
	GetWeeklyUsage(now time.Time) float64
	SetGoals(ctx context.Context, dailyMinutes, weeklyMinutes float64) error
	Goals() usage.Goals
	Patterns() usage.Patterns
	Reset(ctx context.Context) error
}

// IntentAgent infers search intent
type IntentAgent interface {
	Load(ctx context.Context) error
	RecognizeIntent(ctx context.Context, query string) (core.IntentCategory, error)
	Dominant() core.IntentCategory
	Scores() map[core.IntentCategory]float64
	Reset(ctx context.Context) error
}

// DiscoveryAgent maps topic connections
type DiscoveryAgent interface {
	Load(ctx context.Context) error
	ProcessContent(ctx context.Context, item core.RawItem) error
	IdentifyKnowledgeGaps() []discovery.KnowledgeGap
	NextLearningSteps() []discovery.NextStep
	RelatedContent() []discovery.RelatedSuggestion
	Paths() []discovery.LearningPath
	Reset(ctx context.Context) error
}

// Agent names accepted by ResetAgent
const (
	NamePreference = "preference"
	NameUsage      = "usage"
	NameIntent     = "intent"
	NameDiscovery  = "discovery"
	nameProvider   = "provider"
	nameNotifier   = "notifier"
)

// SessionState is the orchestrator's per-session state
type SessionState int

const (
	StateIdle SessionState = iota
	StateActive
	StateSearching
	StateWatching
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateSearching:
		return "searching"
	case StateWatching:
		return "watching"
	default:
		return "unknown"
	}
}

// session is transient context; nothing here is persisted
type session struct {
	id        string
	state     SessionState
	startedAt time.Time
	intent    core.IntentCategory
	itemID    string
}

// Config wires the orchestrator
type Config struct {
	Preference PreferenceAgent
	Usage      UsageAgent
	Intent     IntentAgent
	Discovery  DiscoveryAgent
	Provider   search.Provider
	Notifier   InterfaceNotifier // Optional
	Metrics    *metrics.Metrics  // Optional
	Store      storage.KV        // Settings keys

	SearchFetchSize   int
	MaxDisplayResults int
	Now               func() time.Time
}

// Agent is the orchestrator. It owns transient session context and
// references the four agents, which own their state.
type Agent struct {
	preference PreferenceAgent
	usage      UsageAgent
	intent     IntentAgent
	discovery  DiscoveryAgent
	provider   search.Provider
	notifier   InterfaceNotifier
	metrics    *metrics.Metrics
	store      storage.KV

	fetchSize  int
	maxResults int
	now        func() time.Time
	log        *logging.Logger

	items *cache.Cache

	mu       sync.RWMutex
	session  session
	settings Settings
	pending  map[string]VideoEndHandler
}

// New creates an orchestrator
func New(cfg Config) *Agent {
	if cfg.SearchFetchSize <= 0 {
		cfg.SearchFetchSize = DefaultSearchFetchSize
	}
	if cfg.MaxDisplayResults <= 0 {
		cfg.MaxDisplayResults = DefaultMaxDisplayResults
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Agent{
		preference: cfg.Preference,
		usage:      cfg.Usage,
		intent:     cfg.Intent,
		discovery:  cfg.Discovery,
		provider:   cfg.Provider,
		notifier:   cfg.Notifier,
		metrics:    cfg.Metrics,
		store:      cfg.Store,
		fetchSize:  cfg.SearchFetchSize,
		maxResults: cfg.MaxDisplayResults,
		now:        cfg.Now,
		log:        logging.Component("orchestrator"),
		items:      cache.New(itemCacheTTL, 2*itemCacheTTL),
		settings:   DefaultSettings(),
		pending:    make(map[string]VideoEndHandler),
	}
}

// SetNotifier sets the outbound interface notifier
func (a *Agent) SetNotifier(n InterfaceNotifier) {
	a.mu.Lock()
	a.notifier = n
	a.mu.Unlock()
}

// Load restores settings and every agent's state. Agents that fail to
// load start empty.
func (a *Agent) Load(ctx context.Context) error {
	if err := a.loadSettings(ctx); err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	for name, loader := range map[string]interface{ Load(context.Context) error }{
		NamePreference: a.preference,
		NameUsage:      a.usage,
		NameIntent:     a.intent,
		NameDiscovery:  a.discovery,
	} {
		if err := a.safely(name, func() error { return loader.Load(ctx) }); err != nil {
			a.log.WithError(err).Warn("Starting %s agent with empty state", name)
		}
	}

	goals := a.usage.Goals()
	a.mu.Lock()
	a.settings.Preferences.DailyLimitMinutes = goals.DailyLimitMinutes
	a.settings.Preferences.WeeklyLimitMinutes = goals.WeeklyLimitMinutes
	a.mu.Unlock()
	return nil
}

// safely runs an agent call and converts errors and panics into a logged
// error the caller can degrade on
func (a *Agent) safely(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", core.ErrAgentPanic, name, r)
		}
		if err != nil {
			a.log.WithError(err).WithField("agent", name).Warn("Agent call degraded")
			a.metrics.AgentFailure(name)
		}
	}()
	return fn()
}

// degraded reports whether err should abort a pipeline. Failed saves are
// best effort and never do.
func degraded(err error) bool {
	return err != nil && !errors.Is(err, core.ErrPersistFailed)
}

// SessionStart is the outcome of StartSession
type SessionStart struct {
	Allowed        bool   `json:"allowed"`
	SessionID      string `json:"sessionId,omitempty"`
	Reason         string `json:"reason,omitempty"`
	SuggestedBreak int    `json:"suggestedBreak,omitempty"`
}

// StartSession leaves Idle unless the usage agent says to pause. An
// already active session is returned as is.
func (a *Agent) StartSession(ctx context.Context) SessionStart {
	a.mu.RLock()
	current := a.session
	a.mu.RUnlock()
	if current.state != StateIdle {
		return SessionStart{Allowed: true, SessionID: current.id}
	}

	now := a.now()
	rec := usage.Recommendation{Action: usage.ActionAllow}
	a.safely(NameUsage, func() error {
		rec = a.usage.GetRecommendation(now)
		return nil
	})

	if rec.Action == usage.ActionLimit {
		a.metrics.SessionBlocked()
		a.log.Info("Session blocked: %s", rec.Message)
		return SessionStart{Allowed: false, Reason: rec.Message, SuggestedBreak: rec.SuggestedBreakMinutes}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session.state == StateIdle {
		a.session = session{
			id:        uuid.NewString(),
			state:     StateActive,
			startedAt: now,
			intent:    core.IntentDefault,
		}
		a.log.Debug("Session %s started", a.session.id)
	}
	return SessionStart{Allowed: true, SessionID: a.session.id}
}

// EndSession returns to Idle and drops pending video handlers
func (a *Agent) EndSession(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session.state != StateIdle {
		a.log.Debug("Session %s ended", a.session.id)
	}
	a.session = session{state: StateIdle}
	a.pending = make(map[string]VideoEndHandler)
}

// State returns the current session state
func (a *Agent) State() SessionState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session.state
}

// SessionID returns the active session ID, or "" when idle
func (a *Agent) SessionID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session.id
}

func (a *Agent) setState(s SessionState) {
	a.mu.Lock()
	if a.session.state != StateIdle {
		a.session.state = s
	}
	a.mu.Unlock()
}

// ResetAgentData resets all four agents. It reports whether every reset
// succeeded.
func (a *Agent) ResetAgentData(ctx context.Context) bool {
	ok := true
	for _, name := range []string{NamePreference, NameUsage, NameIntent, NameDiscovery} {
		if err := a.ResetAgent(ctx, name); err != nil {
			ok = false
		}
	}
	a.items.Flush()
	a.log.Info("Agent data reset")
	return ok
}

// ResetAgent resets exactly one agent's state and persisted keys
func (a *Agent) ResetAgent(ctx context.Context, name string) error {
	var fn func(context.Context) error
	switch name {
	case NamePreference:
		fn = a.preference.Reset
	case NameUsage:
		fn = a.usage.Reset
	case NameIntent:
		fn = a.intent.Reset
	case NameDiscovery:
		fn = a.discovery.Reset
	default:
		return fmt.Errorf("%w: %s", core.ErrUnknownAgent, name)
	}
	return a.safely(name, func() error { return fn(ctx) })
}

// notify pushes an interface update when a notifier is configured
func (a *Agent) notify(ctx context.Context, update InterfaceUpdate) {
	a.mu.RLock()
	n := a.notifier
	a.mu.RUnlock()
	if n == nil {
		return
	}
	a.safely(nameNotifier, func() error { return n.UpdateAgentInterface(ctx, update) })
}
