package preference

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mindfultube/mindfultube/internal/core"
	"github.com/mindfultube/mindfultube/internal/logging"
	"github.com/mindfultube/mindfultube/internal/metadata"
	"github.com/mindfultube/mindfultube/internal/storage"
)

// Ranking weights
const (
	ChannelWeight    = 0.3
	TopicWeight      = 0.4
	FormatWeight     = 0.2
	DurationWeight   = 0.1
	IntentMultiplier = 1.2
)

// Config configures the agent
type Config struct {
	Store     storage.KV
	Extractor *metadata.Extractor // Defaults to metadata.NewExtractor()
	Now       func() time.Time    // Defaults to time.Now
}

// Agent is the content preference agent
type Agent struct {
	store     storage.KV
	extractor *metadata.Extractor
	now       func() time.Time
	log       *logging.Logger

	mu      sync.RWMutex
	history map[string]*EngagementRecord
	model   Model
}

// New creates a content preference agent with empty state
func New(cfg Config) *Agent {
	if cfg.Extractor == nil {
		cfg.Extractor = metadata.NewExtractor()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Agent{
		store:     cfg.Store,
		extractor: cfg.Extractor,
		now:       cfg.Now,
		log:       logging.Component("preference"),
		history:   make(map[string]*EngagementRecord),
		model:     NewModel(),
	}
}

// Load restores history and model from the store
func (a *Agent) Load(ctx context.Context) error {
	history := make(map[string]*EngagementRecord)
	if _, err := storage.LoadJSON(ctx, a.store, core.KeyEngagementHistory, &history); err != nil {
		return err
	}

	model := NewModel()
	found, err := storage.LoadJSON(ctx, a.store, core.KeyPreferenceModel, &model)
	if err != nil {
		return err
	}
	model.ensure()

	a.mu.Lock()
	defer a.mu.Unlock()

	a.history = history
	a.model = model
	if !found && len(history) > 0 {
		rebuild(&a.model, a.history, a.now())
	}

	a.log.Debug("Loaded %d engagement records", len(history))
	return nil
}

// RecordPositive counts a positive engagement with item
func (a *Agent) RecordPositive(ctx context.Context, itemID string, item core.RawItem) error {
	return a.record(ctx, itemID, item, func(rec *EngagementRecord) {
		rec.PositiveCount++
	})
}

// RecordNegative counts an abandoned view of item
func (a *Agent) RecordNegative(ctx context.Context, itemID string, item core.RawItem, watchDurationMs int64) error {
	return a.record(ctx, itemID, item, func(rec *EngagementRecord) {
		rec.NegativeCount++
		d := watchDurationMs
		rec.AbandonDurationMs = &d
	})
}

func (a *Agent) record(ctx context.Context, itemID string, item core.RawItem, apply func(*EngagementRecord)) error {
	if itemID == "" {
		itemID = item.ID
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	rec, ok := a.history[itemID]
	if !ok {
		rec = &EngagementRecord{Metadata: a.extractor.Extract(item)}
		a.history[itemID] = rec
	}
	apply(rec)
	rec.LastEngagedAt = now

	rebuild(&a.model, a.history, now)
	return a.persistLocked(ctx)
}

// Refresh rebuilds the model so recency decay advances without new engagement
func (a *Agent) Refresh(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	rebuild(&a.model, a.history, a.now())
	return a.persistLocked(ctx)
}

// RankResults orders items by learned preference. The sort is stable, and
// an empty model leaves the order untouched.
func (a *Agent) RankResults(items []core.RawItem, intent core.IntentCategory) []core.RawItem {
	out := make([]core.RawItem, len(items))
	copy(out, items)

	a.mu.RLock()
	defer a.mu.RUnlock()

	if len(a.model.Topics) == 0 || len(out) == 0 {
		return out
	}

	scores := make(map[int]float64, len(out))
	idx := make([]int, len(out))
	for i, item := range out {
		idx[i] = i
		scores[i] = a.scoreLocked(a.extractor.Extract(item), intent)
	}

	sort.SliceStable(idx, func(i, j int) bool {
		return scores[idx[i]] > scores[idx[j]]
	})

	ranked := make([]core.RawItem, len(out))
	for i, j := range idx {
		ranked[i] = out[j]
	}
	return ranked
}

// Score returns the ranking score of a single item
func (a *Agent) Score(item core.RawItem, intent core.IntentCategory) float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.scoreLocked(a.extractor.Extract(item), intent)
}

func (a *Agent) scoreLocked(meta core.ExtractedMetadata, intent core.IntentCategory) float64 {
	m := a.model

	score := ChannelWeight*m.Channels[meta.ChannelID] +
		TopicWeight*average(m.Topics, meta.Topics) +
		FormatWeight*average(m.Formats, meta.Formats)
	if meta.DurationBucket != core.DurationUnknown {
		score += DurationWeight * m.Durations[string(meta.DurationBucket)]
	}

	switch {
	case intent == core.IntentLearning && (meta.HasFormat("tutorial") || meta.HasFormat("lecture")):
		score *= IntentMultiplier
	case intent == core.IntentEntertainment && meta.HasFormat("entertainment"):
		score *= IntentMultiplier
	}
	return score
}

func average(mapping map[string]float64, keys []string) float64 {
	if len(keys) == 0 {
		return 0
	}
	var sum float64
	for _, k := range keys {
		sum += mapping[k]
	}
	return sum / float64(len(keys))
}

// Reset clears history and model and persists the empty state
func (a *Agent) Reset(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.history = make(map[string]*EngagementRecord)
	a.model = NewModel()
	return a.persistLocked(ctx)
}

// Model returns a copy of the current preference model
func (a *Agent) Model() Model {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.model.clone()
}

// History returns a copy of the engagement history
func (a *Agent) History() map[string]EngagementRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(map[string]EngagementRecord, len(a.history))
	for id, rec := range a.history {
		out[id] = *rec
	}
	return out
}

// Preferences summarizes the strongest learned preferences
type Preferences struct {
	Topics   []Scored `json:"topics"`
	Channels []Scored `json:"channels"`
	Formats  []Scored `json:"formats"`
}

// TopPreferences returns up to n entries per attribute.
// Channels are labelled with their title when one is known.
func (a *Agent) TopPreferences(n int) Preferences {
	a.mu.RLock()
	defer a.mu.RUnlock()

	titles := make(map[string]string)
	for _, rec := range a.history {
		if rec.Metadata.ChannelTitle != "" {
			titles[rec.Metadata.ChannelID] = rec.Metadata.ChannelTitle
		}
	}

	channels := top(a.model.Channels, n)
	for i := range channels {
		if title, ok := titles[channels[i].Name]; ok {
			channels[i].Name = title
		}
	}

	return Preferences{
		Topics:   top(a.model.Topics, n),
		Channels: channels,
		Formats:  top(a.model.Formats, n),
	}
}

func (a *Agent) persistLocked(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	if err := storage.SaveJSON(ctx, a.store, core.KeyEngagementHistory, a.history); err != nil {
		a.log.WithError(err).Warn("Failed to persist engagement history")
		return err
	}
	if err := storage.SaveJSON(ctx, a.store, core.KeyPreferenceModel, a.model); err != nil {
		a.log.WithError(err).Warn("Failed to persist preference model")
		return err
	}
	return nil
}
