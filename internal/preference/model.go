// Package preference learns which content a user engages with and
// re-ranks search results accordingly.
package preference

import (
	"sort"
	"time"

	"github.com/mindfultube/mindfultube/internal/core"
)

// EngagementRecord is the engagement history for one item
type EngagementRecord struct {
	PositiveCount     int                    `json:"positiveCount"`
	NegativeCount     int                    `json:"negativeCount"`
	LastEngagedAt     time.Time              `json:"lastEngagedAt"`
	AbandonDurationMs *int64                 `json:"abandonDurationMs,omitempty"`
	Metadata          core.ExtractedMetadata `json:"metadata"`
}

// Model holds normalized [0,100] scores per attribute.
// Keys are never removed by a rebuild, only zeroed.
type Model struct {
	Topics    map[string]float64 `json:"topics"`
	Channels  map[string]float64 `json:"channels"`
	Formats   map[string]float64 `json:"formats"`
	Durations map[string]float64 `json:"durations"`
}

// NewModel returns an empty model
func NewModel() Model {
	return Model{
		Topics:    make(map[string]float64),
		Channels:  make(map[string]float64),
		Formats:   make(map[string]float64),
		Durations: make(map[string]float64),
	}
}

func (m Model) clone() Model {
	out := NewModel()
	for k, v := range m.Topics {
		out.Topics[k] = v
	}
	for k, v := range m.Channels {
		out.Channels[k] = v
	}
	for k, v := range m.Formats {
		out.Formats[k] = v
	}
	for k, v := range m.Durations {
		out.Durations[k] = v
	}
	return out
}

func (m Model) mappings() []map[string]float64 {
	return []map[string]float64{m.Topics, m.Channels, m.Formats, m.Durations}
}

// ensure fills nil maps after decoding a partial model
func (m *Model) ensure() {
	if m.Topics == nil {
		m.Topics = make(map[string]float64)
	}
	if m.Channels == nil {
		m.Channels = make(map[string]float64)
	}
	if m.Formats == nil {
		m.Formats = make(map[string]float64)
	}
	if m.Durations == nil {
		m.Durations = make(map[string]float64)
	}
}

// Rebuild parameters
const (
	RecencyWindow    = 30 * 24 * time.Hour
	MinRecency       = 0.1
	NegativeWeight   = 0.5
	normalizeEpsilon = 0.1
)

// rebuild recomputes the model from the full history
func rebuild(model *Model, history map[string]*EngagementRecord, now time.Time) {
	model.ensure()
	for _, mapping := range model.mappings() {
		for k := range mapping {
			mapping[k] = 0
		}
	}

	for _, rec := range history {
		age := now.Sub(rec.LastEngagedAt)
		if age > RecencyWindow {
			continue
		}

		score := (float64(rec.PositiveCount) - NegativeWeight*float64(rec.NegativeCount)) * recencyFactor(age)
		if score <= 0 {
			continue
		}

		meta := rec.Metadata
		if meta.ChannelID != "" {
			model.Channels[meta.ChannelID] += score
		}
		for _, topic := range meta.Topics {
			model.Topics[topic] += score
		}
		for _, format := range meta.Formats {
			model.Formats[format] += score
		}
		if meta.DurationBucket != "" && meta.DurationBucket != core.DurationUnknown {
			model.Durations[string(meta.DurationBucket)] += score
		}
	}

	for _, mapping := range model.mappings() {
		normalize(mapping)
	}
}

func recencyFactor(age time.Duration) float64 {
	f := 1 - float64(age)/float64(RecencyWindow)
	if f < MinRecency {
		return MinRecency
	}
	if f > 1 {
		return 1
	}
	return f
}

// normalize scales a mapping so its maximum becomes 100
func normalize(mapping map[string]float64) {
	maxValue := 0.0
	for _, v := range mapping {
		if v > maxValue {
			maxValue = v
		}
	}
	if maxValue < normalizeEpsilon {
		maxValue = normalizeEpsilon
	}
	for k, v := range mapping {
		mapping[k] = v / maxValue * 100
	}
}

// Scored is a named model entry
type Scored struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// top returns the n highest positive entries, ties broken by name
func top(mapping map[string]float64, n int) []Scored {
	out := make([]Scored, 0, len(mapping))
	for k, v := range mapping {
		if v > 0 {
			out = append(out, Scored{Name: k, Score: v})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
