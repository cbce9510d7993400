package intent

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/mindfultube/mindfultube/internal/core"
	"github.com/mindfultube/mindfultube/internal/logging"
	"github.com/mindfultube/mindfultube/internal/metadata"
	"github.com/mindfultube/mindfultube/internal/storage"
)

// Score limits
const (
	MaxScore    = 100
	DecayFactor = 0.95
)

// CategoryState is the running score of one category
type CategoryState struct {
	Score  float64        `json:"score"`
	Topics map[string]int `json:"topics"`
}

// State is the persisted intent state keyed by category
type State map[core.IntentCategory]*CategoryState

func newState() State {
	s := make(State, len(core.IntentCategories))
	for _, c := range core.IntentCategories {
		s[c] = &CategoryState{Topics: make(map[string]int)}
	}
	return s
}

// Config configures the agent
type Config struct {
	Store     storage.KV
	Extractor *metadata.Extractor // Topic keywords for the learning category
}

// Agent is the intent agent
type Agent struct {
	store     storage.KV
	extractor *metadata.Extractor
	genres    *metadata.Extractor
	log       *logging.Logger

	mu    sync.RWMutex
	state State
}

// New creates an intent agent with zeroed scores
func New(cfg Config) *Agent {
	if cfg.Extractor == nil {
		cfg.Extractor = metadata.NewExtractor()
	}
	return &Agent{
		store:     cfg.Store,
		extractor: cfg.Extractor,
		genres:    metadata.NewExtractorWithKeywords(GenreKeywords),
		log:       logging.Component("intent"),
		state:     newState(),
	}
}

// Load restores category scores from the store
func (a *Agent) Load(ctx context.Context) error {
	loaded := newState()
	if _, err := storage.LoadJSON(ctx, a.store, core.KeyUserIntents, &loaded); err != nil {
		return err
	}

	state := newState()
	for _, c := range core.IntentCategories {
		if cs, ok := loaded[c]; ok && cs != nil {
			state[c].Score = math.Min(MaxScore, math.Max(0, cs.Score))
			for k, v := range cs.Topics {
				state[c].Topics[k] = v
			}
		}
	}

	a.mu.Lock()
	a.state = state
	a.mu.Unlock()
	return nil
}

// RecognizeIntent scores query against every category, updates the running
// scores and returns the dominant category. The category is valid even
// when the returned persistence error is non-nil.
func (a *Agent) RecognizeIntent(ctx context.Context, query string) (core.IntentCategory, error) {
	signals := make(map[core.IntentCategory]float64, len(core.IntentCategories))
	for _, c := range core.IntentCategories {
		signals[c] = signal(c, query)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Each scoring category decays all others, so two scoring categories
	// decay the rest twice.
	for _, c := range core.IntentCategories {
		if signals[c] <= 0 {
			continue
		}
		a.state[c].Score = math.Min(MaxScore, a.state[c].Score+signals[c])
		for _, other := range core.IntentCategories {
			if other != c {
				a.state[other].Score *= DecayFactor
			}
		}
	}

	learning, entertainment := signals[core.IntentLearning], signals[core.IntentEntertainment]
	switch {
	case learning > 0 && learning >= entertainment:
		for _, topic := range a.extractor.Topics(query) {
			a.state[core.IntentLearning].Topics[topic]++
		}
	case entertainment > 0:
		for _, genre := range a.genres.Topics(query) {
			a.state[core.IntentEntertainment].Topics[genre]++
		}
	}

	dominant := a.dominantLocked()
	return dominant, a.persistLocked(ctx)
}

// Dominant returns the highest-scoring category, or default if every
// score is zero
func (a *Agent) Dominant() core.IntentCategory {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dominantLocked()
}

func (a *Agent) dominantLocked() core.IntentCategory {
	best := core.IntentDefault
	bestScore := 0.0
	for _, c := range core.IntentCategories {
		if s := a.state[c].Score; s > bestScore {
			best, bestScore = c, s
		}
	}
	return best
}

// InterfaceConfiguration returns the UI flags for the dominant category
func (a *Agent) InterfaceConfiguration() core.InterfaceConfig {
	return ConfigFor(a.Dominant())
}

// Scores returns the current score per category
func (a *Agent) Scores() map[core.IntentCategory]float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(map[core.IntentCategory]float64, len(a.state))
	for c, cs := range a.state {
		out[c] = cs.Score
	}
	return out
}

// TopTopics returns up to n of the most frequent topics seen for a category
func (a *Agent) TopTopics(category core.IntentCategory, n int) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	cs, ok := a.state[category]
	if !ok {
		return nil
	}

	topics := make([]string, 0, len(cs.Topics))
	for t := range cs.Topics {
		topics = append(topics, t)
	}
	sort.Slice(topics, func(i, j int) bool {
		if cs.Topics[topics[i]] != cs.Topics[topics[j]] {
			return cs.Topics[topics[i]] > cs.Topics[topics[j]]
		}
		return topics[i] < topics[j]
	})
	if n > 0 && len(topics) > n {
		topics = topics[:n]
	}
	return topics
}

// Reset zeroes all scores and topic counts
func (a *Agent) Reset(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.state = newState()
	return a.persistLocked(ctx)
}

func (a *Agent) persistLocked(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	if err := storage.SaveJSON(ctx, a.store, core.KeyUserIntents, a.state); err != nil {
		a.log.WithError(err).Warn("Failed to persist intent state")
		return err
	}
	return nil
}
