package discovery

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/mindfultube/mindfultube/internal/core"
	"github.com/mindfultube/mindfultube/internal/logging"
	"github.com/mindfultube/mindfultube/internal/storage"
)

// Recommendation limits
const (
	GapRatio          = 3
	MaxGapCount       = 2
	NextStepPaths     = 3
	RelatedTopTopics  = 5
	MaxWeakEdge       = 1
	MaxRelatedContent = 3
)

// KnowledgeGap points from a well-known topic to a neglected neighbor
type KnowledgeGap struct {
	KnownTopic   string    `json:"knownTopic"`
	GapTopic     string    `json:"gapTopic"`
	Relevance    int       `json:"relevance"`
	LastObserved time.Time `json:"lastObserved"`
}

// NextStep is the suggested continuation of a learning path
type NextStep struct {
	PathID    string `json:"pathId"`
	FromTopic string `json:"fromTopic"`
	Topic     string `json:"topic"`
	Weight    int    `json:"weight"`
}

// RelatedSuggestion proposes combining two interests that rarely meet
type RelatedSuggestion struct {
	Topics  [2]string `json:"topics"`
	Message string    `json:"message"`
}

// Config configures the agent
type Config struct {
	Store     storage.KV
	Extractor *TopicExtractor  // Defaults to NewTopicExtractor()
	Now       func() time.Time // Defaults to time.Now
}

// Agent is the discovery agent
type Agent struct {
	store     storage.KV
	extractor *TopicExtractor
	now       func() time.Time
	log       *logging.Logger

	mu    sync.RWMutex
	graph Graph
	paths []*LearningPath
}

// New creates a discovery agent with an empty graph
func New(cfg Config) *Agent {
	if cfg.Extractor == nil {
		cfg.Extractor = NewTopicExtractor()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Agent{
		store:     cfg.Store,
		extractor: cfg.Extractor,
		now:       cfg.Now,
		log:       logging.Component("discovery"),
		graph:     NewGraph(),
		paths:     []*LearningPath{},
	}
}

// Load restores the graph and learning paths from the store
func (a *Agent) Load(ctx context.Context) error {
	graph := NewGraph()
	if _, err := storage.LoadJSON(ctx, a.store, core.KeyTopicGraph, &graph); err != nil {
		return err
	}
	if graph.Nodes == nil {
		graph.Nodes = make(map[string]*TopicNode)
	}
	if graph.Edges == nil {
		graph.Edges = make(map[string]*Edge)
	}

	paths := []*LearningPath{}
	if _, err := storage.LoadJSON(ctx, a.store, core.KeyLearningPaths, &paths); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.graph = graph
	a.paths = paths
	a.log.Debug("Loaded %d topics, %d paths", len(graph.Nodes), len(paths))
	return nil
}

// ProcessContent folds a viewed item into the graph and learning paths
func (a *Agent) ProcessContent(ctx context.Context, item core.RawItem) error {
	topics := a.extractor.Extract(item)
	if len(topics) == 0 {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	a.graph.observe(item.ID, item.Title, topics, now)

	extendPaths(a.paths, a.graph, topics, now)
	if len(topics) >= MinNewPathTopics && !coveredBy(a.paths, topics) {
		a.paths = append(a.paths, newPath(topics, now))
	}
	a.paths = prunePaths(a.paths, now)

	return a.persistLocked(ctx)
}

// Prune drops stale learning paths
func (a *Agent) Prune(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	before := len(a.paths)
	a.paths = prunePaths(a.paths, a.now())
	if len(a.paths) == before {
		return nil
	}
	return a.persistLocked(ctx)
}

// IdentifyKnowledgeGaps lists edges where one end is engaged with far
// more than the other
func (a *Agent) IdentifyKnowledgeGaps() []KnowledgeGap {
	a.mu.RLock()
	defer a.mu.RUnlock()

	gaps := []KnowledgeGap{}
	for _, key := range a.graph.sortedEdgeKeys() {
		edge := a.graph.Edges[key]
		x, y := SplitEdgeKey(key)
		nx, ny := a.graph.Nodes[x], a.graph.Nodes[y]
		if nx == nil || ny == nil {
			continue
		}

		gap := KnowledgeGap{Relevance: edge.Count, LastObserved: edge.LastObservedAt}
		switch {
		case nx.EngagementCount >= GapRatio*ny.EngagementCount && ny.EngagementCount <= MaxGapCount:
			gap.KnownTopic, gap.GapTopic = x, y
		case ny.EngagementCount >= GapRatio*nx.EngagementCount && nx.EngagementCount <= MaxGapCount:
			gap.KnownTopic, gap.GapTopic = y, x
		default:
			continue
		}
		gaps = append(gaps, gap)
	}

	sortGaps(gaps)
	return gaps
}

// sortGaps orders gaps by relevance, then lets a more recent gap move one
// place ahead of a neighbour whose relevance is at most 1 higher
func sortGaps(gaps []KnowledgeGap) {
	sort.SliceStable(gaps, func(i, j int) bool {
		return gaps[i].Relevance > gaps[j].Relevance
	})
	for i := 0; i+1 < len(gaps); i++ {
		near := math.Abs(float64(gaps[i].Relevance-gaps[i+1].Relevance)) <= 1
		if near && gaps[i+1].LastObserved.After(gaps[i].LastObserved) {
			gaps[i], gaps[i+1] = gaps[i+1], gaps[i]
			i++
		}
	}
}

// NextLearningSteps suggests one continuation for each of the three most
// recently updated paths
func (a *Agent) NextLearningSteps() []NextStep {
	a.mu.RLock()
	defer a.mu.RUnlock()

	recent := append([]*LearningPath(nil), a.paths...)
	sortByRecency(recent)
	if len(recent) > NextStepPaths {
		recent = recent[:NextStepPaths]
	}

	steps := []NextStep{}
	for _, p := range recent {
		last := p.last()
		var best string
		bestWeight := 0
		for topic, w := range a.graph.Neighbors(last) {
			if p.contains(topic) {
				continue
			}
			if w > bestWeight || (w == bestWeight && topic < best) {
				best, bestWeight = topic, w
			}
		}
		if best != "" {
			steps = append(steps, NextStep{PathID: p.ID, FromTopic: last, Topic: best, Weight: bestWeight})
		}
	}
	return steps
}

// RelatedContent pairs top interests that are barely connected
func (a *Agent) RelatedContent() []RelatedSuggestion {
	a.mu.RLock()
	defer a.mu.RUnlock()

	topics := make([]string, 0, len(a.graph.Nodes))
	for t := range a.graph.Nodes {
		topics = append(topics, t)
	}
	sort.Slice(topics, func(i, j int) bool {
		ci, cj := a.graph.Nodes[topics[i]].EngagementCount, a.graph.Nodes[topics[j]].EngagementCount
		if ci != cj {
			return ci > cj
		}
		return topics[i] < topics[j]
	})
	if len(topics) > RelatedTopTopics {
		topics = topics[:RelatedTopTopics]
	}

	out := []RelatedSuggestion{}
	for i := 0; i < len(topics); i++ {
		for j := i + 1; j < len(topics); j++ {
			if a.graph.Weight(topics[i], topics[j]) > MaxWeakEdge {
				continue
			}
			out = append(out, RelatedSuggestion{
				Topics:  [2]string{topics[i], topics[j]},
				Message: fmt.Sprintf("Combine your interests in %s and %s", topics[i], topics[j]),
			})
			if len(out) == MaxRelatedContent {
				return out
			}
		}
	}
	return out
}

// Graph returns a copy of the topic graph
func (a *Agent) Graph() Graph {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.graph.clone()
}

// Paths returns copies of the learning paths, most recent first
func (a *Agent) Paths() []LearningPath {
	a.mu.RLock()
	defer a.mu.RUnlock()

	sorted := append([]*LearningPath(nil), a.paths...)
	sortByRecency(sorted)

	out := make([]LearningPath, len(sorted))
	for i, p := range sorted {
		out[i] = *p
		out[i].Topics = append([]string(nil), p.Topics...)
	}
	return out
}

// Reset clears the graph and all learning paths
func (a *Agent) Reset(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.graph = NewGraph()
	a.paths = []*LearningPath{}
	return a.persistLocked(ctx)
}

func (a *Agent) persistLocked(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	if err := storage.SaveJSON(ctx, a.store, core.KeyTopicGraph, a.graph); err != nil {
		a.log.WithError(err).Warn("Failed to persist topic graph")
		return err
	}
	if err := storage.SaveJSON(ctx, a.store, core.KeyLearningPaths, a.paths); err != nil {
		a.log.WithError(err).Warn("Failed to persist learning paths")
		return err
	}
	return nil
}
