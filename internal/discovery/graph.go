package discovery

import (
	"sort"
	"strings"
	"time"
)

// edgeSep joins the two topics of an edge key. Topics are built from
// letters, digits and spaces, so it never occurs inside one.
const edgeSep = "\x1f"

// MaxRelatedItems caps the item ring kept per topic
const MaxRelatedItems = 10

// TopicNode is one topic in the co-occurrence graph
type TopicNode struct {
	EngagementCount int       `json:"engagementCount"`
	LastViewedAt    time.Time `json:"lastViewedAt"`
	RelatedItemIDs  []string  `json:"relatedItemIds"`
	Title           string    `json:"title"`
}

// Edge counts how often two topics appeared on the same item
type Edge struct {
	Count          int       `json:"count"`
	LastObservedAt time.Time `json:"lastObservedAt"`
}

// Graph is the undirected topic co-occurrence graph
type Graph struct {
	Nodes map[string]*TopicNode `json:"nodes"`
	Edges map[string]*Edge      `json:"edges"`
}

// NewGraph returns an empty graph
func NewGraph() Graph {
	return Graph{
		Nodes: make(map[string]*TopicNode),
		Edges: make(map[string]*Edge),
	}
}

// EdgeKey returns the order-independent key for a topic pair
func EdgeKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + edgeSep + b
}

// SplitEdgeKey returns the two topics of an edge key
func SplitEdgeKey(key string) (string, string) {
	a, b, _ := strings.Cut(key, edgeSep)
	return a, b
}

// Weight returns the co-occurrence count of a and b
func (g Graph) Weight(a, b string) int {
	if e, ok := g.Edges[EdgeKey(a, b)]; ok {
		return e.Count
	}
	return 0
}

// Neighbors returns every topic sharing an edge with topic, keyed to weight
func (g Graph) Neighbors(topic string) map[string]int {
	out := make(map[string]int)
	for key, e := range g.Edges {
		a, b := SplitEdgeKey(key)
		switch topic {
		case a:
			out[b] = e.Count
		case b:
			out[a] = e.Count
		}
	}
	return out
}

func (g *Graph) observe(itemID, title string, topics []string, now time.Time) {
	for _, t := range topics {
		node, ok := g.Nodes[t]
		if !ok {
			node = &TopicNode{}
			g.Nodes[t] = node
		}
		node.EngagementCount++
		node.LastViewedAt = now
		node.Title = title
		node.addItem(itemID)
	}

	for i := 0; i < len(topics); i++ {
		for j := i + 1; j < len(topics); j++ {
			key := EdgeKey(topics[i], topics[j])
			e, ok := g.Edges[key]
			if !ok {
				e = &Edge{}
				g.Edges[key] = e
			}
			e.Count++
			e.LastObservedAt = now
		}
	}
}

func (n *TopicNode) addItem(id string) {
	if id == "" {
		return
	}
	for _, existing := range n.RelatedItemIDs {
		if existing == id {
			return
		}
	}
	n.RelatedItemIDs = append(n.RelatedItemIDs, id)
	if len(n.RelatedItemIDs) > MaxRelatedItems {
		n.RelatedItemIDs = n.RelatedItemIDs[len(n.RelatedItemIDs)-MaxRelatedItems:]
	}
}

func (g Graph) clone() Graph {
	out := NewGraph()
	for k, n := range g.Nodes {
		cp := *n
		cp.RelatedItemIDs = append([]string(nil), n.RelatedItemIDs...)
		out.Nodes[k] = &cp
	}
	for k, e := range g.Edges {
		cp := *e
		out.Edges[k] = &cp
	}
	return out
}

func (g Graph) sortedEdgeKeys() []string {
	keys := make([]string, 0, len(g.Edges))
	for k := range g.Edges {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
