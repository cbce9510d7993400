package discovery

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Learning path limits
const (
	MaxPathTopics    = 8
	MaxPaths         = 10
	PathMaxAge       = 14 * 24 * time.Hour
	MinExtendWeight  = 2
	MinNewPathTopics = 2
)

// LearningPath is an ordered sequence of topics the user moved through
type LearningPath struct {
	ID            string    `json:"id"`
	Topics        []string  `json:"topics"`
	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

func (p *LearningPath) contains(topic string) bool {
	for _, t := range p.Topics {
		if t == topic {
			return true
		}
	}
	return false
}

func (p *LearningPath) last() string {
	if len(p.Topics) == 0 {
		return ""
	}
	return p.Topics[len(p.Topics)-1]
}

func (p *LearningPath) push(topic string, now time.Time) {
	p.Topics = append(p.Topics, topic)
	if len(p.Topics) > MaxPathTopics {
		p.Topics = p.Topics[len(p.Topics)-MaxPathTopics:]
	}
	p.LastUpdatedAt = now
}

// extendPaths appends to each path the first item topic strongly linked
// to the path's last topic
func extendPaths(paths []*LearningPath, g Graph, topics []string, now time.Time) {
	for _, p := range paths {
		last := p.last()
		if last == "" {
			continue
		}
		for _, t := range topics {
			if !p.contains(t) && g.Weight(last, t) >= MinExtendWeight {
				p.push(t, now)
				break
			}
		}
	}
}

// coveredBy reports whether some path already holds two of topics
func coveredBy(paths []*LearningPath, topics []string) bool {
	for _, p := range paths {
		n := 0
		for _, t := range topics {
			if p.contains(t) {
				n++
			}
		}
		if n >= MinNewPathTopics {
			return true
		}
	}
	return false
}

func newPath(topics []string, now time.Time) *LearningPath {
	n := len(topics)
	if n > MaxPathTopics {
		n = MaxPathTopics
	}
	return &LearningPath{
		ID:            uuid.NewString(),
		Topics:        append([]string(nil), topics[:n]...),
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
}

// prunePaths drops stale paths and keeps the most recently updated ones
func prunePaths(paths []*LearningPath, now time.Time) []*LearningPath {
	kept := make([]*LearningPath, 0, len(paths))
	for _, p := range paths {
		if now.Sub(p.LastUpdatedAt) <= PathMaxAge {
			kept = append(kept, p)
		}
	}
	sortByRecency(kept)
	if len(kept) > MaxPaths {
		kept = kept[:MaxPaths]
	}
	return kept
}

func sortByRecency(paths []*LearningPath) {
	sort.SliceStable(paths, func(i, j int) bool {
		return paths[i].LastUpdatedAt.After(paths[j].LastUpdatedAt)
	})
}
