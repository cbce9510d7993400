package discovery

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/mindfultube/mindfultube/internal/core"
	"github.com/mindfultube/mindfultube/internal/testutil"
)

func testAgent(t *testing.T) (*Agent, *testutil.Clock) {
	t.Helper()
	clock := testutil.NewClock(testutil.BaseTime)
	return New(Config{Store: testutil.TestKV(t), Now: clock.Now}), clock
}

func item(id, title string) core.RawItem {
	return core.RawItem{ID: id, Title: title}
}

func TestNounPhrases(t *testing.T) {
	tests := []struct {
		title string
		want  []string
	}{
		{
			"Introduction to Quantum Mechanics for Beginners",
			[]string{"introduction to quantum mechanics", "quantum mechanics for beginners"},
		},
		{
			"How to build a REST API with Go in 10 minutes",
			[]string{"build a", "build a rest api", "go in 10 minutes"},
		},
		{"Python and JavaScript: a comparison", nil},
		{"", nil},
		{"Don't panic", []string{"dont panic"}},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := NounPhrases(tt.title); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NounPhrases(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestNounPhrases_CappedAtFive(t *testing.T) {
	title := "one two three four five six seven eight nine ten eleven twelve thirteen fourteen"
	got := NounPhrases(title)
	if len(got) != maxPhrasesPerItem {
		t.Fatalf("phrases = %d, want %d", len(got), maxPhrasesPerItem)
	}
	if got[4] != "nine ten eleven twelve" {
		t.Errorf("fifth phrase = %q", got[4])
	}
}

func TestTopicExtractor_Extract(t *testing.T) {
	got := NewTopicExtractor().Extract(core.RawItem{
		Title:       "The physics of cooking",
		Description: "Chemistry in the kitchen",
	})
	want := []string{"cooking", "physics", "chemistry", "physics of cooking"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %q, want %q", got, want)
	}
}

func TestEdgeKey(t *testing.T) {
	if EdgeKey("physics", "cooking") != EdgeKey("cooking", "physics") {
		t.Error("EdgeKey should be order independent")
	}
	a, b := SplitEdgeKey(EdgeKey("physics", "cooking"))
	if a != "cooking" || b != "physics" {
		t.Errorf("SplitEdgeKey() = %q, %q", a, b)
	}
}

func TestProcessContent_EdgeWeightRequiresCoOccurrence(t *testing.T) {
	ctx := context.Background()
	a, _ := testAgent(t)

	for i, title := range []string{"The physics of cooking", "Cooking physics explained", "Physics meets cooking"} {
		if err := a.ProcessContent(ctx, item(string(rune('a'+i)), title)); err != nil {
			t.Fatalf("ProcessContent() error = %v", err)
		}
	}
	if w := a.Graph().Weight("physics", "cooking"); w != 3 {
		t.Fatalf("weight = %d, want 3", w)
	}

	a.ProcessContent(ctx, item("d", "Physics"))

	g := a.Graph()
	if w := g.Weight("physics", "cooking"); w != 3 {
		t.Errorf("weight after physics-only item = %d, want 3", w)
	}
	if n := g.Nodes["physics"].EngagementCount; n != 4 {
		t.Errorf("physics count = %d, want 4", n)
	}
}

func TestProcessContent_RelatedItemRing(t *testing.T) {
	ctx := context.Background()
	a, _ := testAgent(t)

	for i := 0; i < 12; i++ {
		a.ProcessContent(ctx, item(strings.Repeat("x", i+1), "Gardening"))
	}
	a.ProcessContent(ctx, item(strings.Repeat("x", 12), "Gardening")) // duplicate of the newest

	ids := a.Graph().Nodes["gardening"].RelatedItemIDs
	if len(ids) != MaxRelatedItems {
		t.Fatalf("ring size = %d, want %d", len(ids), MaxRelatedItems)
	}
	if ids[0] != "xxx" || ids[9] != strings.Repeat("x", 12) {
		t.Errorf("ring = %v", ids)
	}
}

func TestProcessContent_StartsAndReusesPaths(t *testing.T) {
	ctx := context.Background()
	a, clock := testAgent(t)

	a.ProcessContent(ctx, item("1", "Python programming"))
	paths := a.Paths()
	if len(paths) != 1 {
		t.Fatalf("paths = %d, want 1", len(paths))
	}
	if want := []string{"programming", "python", "python programming"}; !reflect.DeepEqual(paths[0].Topics, want) {
		t.Errorf("path topics = %q, want %q", paths[0].Topics, want)
	}
	if paths[0].ID == "" {
		t.Error("path should get an ID")
	}

	// Same topic pair is already covered
	clock.Advance(time.Hour)
	a.ProcessContent(ctx, item("2", "Python / programming"))
	if n := len(a.Paths()); n != 1 {
		t.Errorf("paths = %d, want 1", n)
	}

	// Single-topic items never start a path
	a.ProcessContent(ctx, item("3", "Cooking"))
	if n := len(a.Paths()); n != 1 {
		t.Errorf("paths = %d, want 1", n)
	}
}

func TestExtendPaths(t *testing.T) {
	now := testutil.BaseTime
	g := NewGraph()
	g.Edges[EdgeKey("b", "c")] = &Edge{Count: 2}
	g.Edges[EdgeKey("b", "d")] = &Edge{Count: 1}

	p := &LearningPath{Topics: []string{"a", "b"}}
	extendPaths([]*LearningPath{p}, g, []string{"d", "c", "e"}, now)

	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(p.Topics, want) {
		t.Errorf("topics = %q, want %q", p.Topics, want)
	}
	if !p.LastUpdatedAt.Equal(now) {
		t.Error("extension should stamp LastUpdatedAt")
	}

	long := &LearningPath{Topics: []string{"1", "2", "3", "4", "5", "6", "7", "b"}}
	extendPaths([]*LearningPath{long}, g, []string{"c"}, now)
	if want := []string{"2", "3", "4", "5", "6", "7", "b", "c"}; !reflect.DeepEqual(long.Topics, want) {
		t.Errorf("trimmed topics = %q, want %q", long.Topics, want)
	}
}

func TestPrunePaths(t *testing.T) {
	now := testutil.BaseTime
	var paths []*LearningPath
	for i := 0; i < 12; i++ {
		paths = append(paths, &LearningPath{ID: string(rune('a' + i)), LastUpdatedAt: now.Add(-time.Duration(i) * time.Hour)})
	}
	paths = append(paths, &LearningPath{ID: "stale", LastUpdatedAt: now.Add(-15 * 24 * time.Hour)})

	kept := prunePaths(paths, now)
	if len(kept) != MaxPaths {
		t.Fatalf("kept = %d, want %d", len(kept), MaxPaths)
	}
	if kept[0].ID != "a" || kept[9].ID != "j" {
		t.Errorf("kept order = %s..%s", kept[0].ID, kept[9].ID)
	}
}

func TestIdentifyKnowledgeGaps(t *testing.T) {
	a, _ := testAgent(t)
	now := testutil.BaseTime

	a.graph.Nodes["go"] = &TopicNode{EngagementCount: 6}
	a.graph.Nodes["rust"] = &TopicNode{EngagementCount: 2}
	a.graph.Nodes["math"] = &TopicNode{EngagementCount: 3}
	a.graph.Nodes["calculus"] = &TopicNode{EngagementCount: 1}
	a.graph.Nodes["art"] = &TopicNode{EngagementCount: 4}
	a.graph.Nodes["design"] = &TopicNode{EngagementCount: 3}
	a.graph.Edges[EdgeKey("go", "rust")] = &Edge{Count: 2, LastObservedAt: now}
	a.graph.Edges[EdgeKey("math", "calculus")] = &Edge{Count: 5, LastObservedAt: now.Add(-time.Hour)}
	a.graph.Edges[EdgeKey("art", "design")] = &Edge{Count: 9, LastObservedAt: now}

	gaps := a.IdentifyKnowledgeGaps()
	if len(gaps) != 2 {
		t.Fatalf("gaps = %+v, want 2", gaps)
	}
	if gaps[0].KnownTopic != "math" || gaps[0].GapTopic != "calculus" {
		t.Errorf("first gap = %+v", gaps[0])
	}
	if gaps[1].KnownTopic != "go" || gaps[1].GapTopic != "rust" {
		t.Errorf("second gap = %+v", gaps[1])
	}
}

func TestIdentifyKnowledgeGaps_RecencyBreaksCloseRelevance(t *testing.T) {
	a, _ := testAgent(t)
	now := testutil.BaseTime

	a.graph.Nodes["a"] = &TopicNode{EngagementCount: 9}
	a.graph.Nodes["b"] = &TopicNode{EngagementCount: 1}
	a.graph.Nodes["c"] = &TopicNode{EngagementCount: 1}
	a.graph.Edges[EdgeKey("a", "b")] = &Edge{Count: 4, LastObservedAt: now.Add(-time.Hour)}
	a.graph.Edges[EdgeKey("a", "c")] = &Edge{Count: 3, LastObservedAt: now}

	gaps := a.IdentifyKnowledgeGaps()
	if len(gaps) != 2 || gaps[0].GapTopic != "c" {
		t.Errorf("gaps = %+v, want the more recent gap first", gaps)
	}
}

func TestIdentifyKnowledgeGaps_RecencyNeverOutranksDistantRelevance(t *testing.T) {
	a, _ := testAgent(t)
	now := testutil.BaseTime

	a.graph.Nodes["hub"] = &TopicNode{EngagementCount: 30}
	for _, topic := range []string{"g5", "g4", "g3"} {
		a.graph.Nodes[topic] = &TopicNode{EngagementCount: 1}
	}
	a.graph.Edges[EdgeKey("hub", "g5")] = &Edge{Count: 5, LastObservedAt: now}
	a.graph.Edges[EdgeKey("hub", "g4")] = &Edge{Count: 4, LastObservedAt: now.Add(time.Hour)}
	a.graph.Edges[EdgeKey("hub", "g3")] = &Edge{Count: 3, LastObservedAt: now.Add(2 * time.Hour)}

	gaps := a.IdentifyKnowledgeGaps()
	var order []string
	for _, g := range gaps {
		order = append(order, g.GapTopic)
	}
	if want := []string{"g4", "g5", "g3"}; !reflect.DeepEqual(order, want) {
		t.Errorf("gap order = %v, want %v", order, want)
	}
}

func TestSortGaps(t *testing.T) {
	now := testutil.BaseTime
	tests := []struct {
		name string
		gaps []KnowledgeGap
		want []int
	}{
		{
			name: "relevance descending",
			gaps: []KnowledgeGap{{Relevance: 2, LastObserved: now}, {Relevance: 9, LastObserved: now}, {Relevance: 5, LastObserved: now}},
			want: []int{9, 5, 2},
		},
		{
			name: "recent neighbour moves one place",
			gaps: []KnowledgeGap{{Relevance: 6, LastObserved: now}, {Relevance: 7, LastObserved: now.Add(-time.Hour)}},
			want: []int{6, 7},
		},
		{
			name: "distant relevance holds",
			gaps: []KnowledgeGap{{Relevance: 3, LastObserved: now.Add(time.Hour)}, {Relevance: 8, LastObserved: now}},
			want: []int{8, 3},
		},
		{
			name: "empty",
			gaps: []KnowledgeGap{},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sortGaps(tt.gaps)
			var got []int
			for _, g := range tt.gaps {
				got = append(got, g.Relevance)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("relevances = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextLearningSteps(t *testing.T) {
	a, _ := testAgent(t)
	now := testutil.BaseTime

	a.graph.Edges[EdgeKey("b", "c")] = &Edge{Count: 2}
	a.graph.Edges[EdgeKey("b", "d")] = &Edge{Count: 3}
	a.graph.Edges[EdgeKey("b", "a")] = &Edge{Count: 5}
	a.paths = []*LearningPath{
		{ID: "old", Topics: []string{"x", "b"}, LastUpdatedAt: now.Add(-4 * time.Hour)},
		{ID: "p1", Topics: []string{"a", "b"}, LastUpdatedAt: now},
		{ID: "p2", Topics: []string{"z"}, LastUpdatedAt: now.Add(-time.Hour)},
		{ID: "p3", Topics: []string{"d", "b"}, LastUpdatedAt: now.Add(-2 * time.Hour)},
	}

	steps := a.NextLearningSteps()
	want := []NextStep{
		{PathID: "p1", FromTopic: "b", Topic: "d", Weight: 3},
		{PathID: "p3", FromTopic: "b", Topic: "a", Weight: 5},
	}
	if !reflect.DeepEqual(steps, want) {
		t.Errorf("NextLearningSteps() = %+v, want %+v", steps, want)
	}
}

func TestRelatedContent(t *testing.T) {
	a, _ := testAgent(t)

	a.graph.Nodes["x"] = &TopicNode{EngagementCount: 5}
	a.graph.Nodes["y"] = &TopicNode{EngagementCount: 4}
	a.graph.Nodes["z"] = &TopicNode{EngagementCount: 3}
	a.graph.Edges[EdgeKey("x", "y")] = &Edge{Count: 3}
	a.graph.Edges[EdgeKey("x", "z")] = &Edge{Count: 1}

	got := a.RelatedContent()
	if len(got) != 2 {
		t.Fatalf("RelatedContent() = %+v", got)
	}
	if got[0].Topics != [2]string{"x", "z"} || got[1].Topics != [2]string{"y", "z"} {
		t.Errorf("pairs = %v, %v", got[0].Topics, got[1].Topics)
	}
}

func TestLoadAndReset(t *testing.T) {
	ctx := context.Background()
	kv := testutil.TestKV(t)
	clock := testutil.NewClock(testutil.BaseTime)

	a := New(Config{Store: kv, Now: clock.Now})
	a.ProcessContent(ctx, item("1", "Physics and cooking"))

	restored := New(Config{Store: kv, Now: clock.Now})
	if err := restored.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if w := restored.Graph().Weight("physics", "cooking"); w != 1 {
		t.Errorf("restored weight = %d, want 1", w)
	}
	if len(restored.Paths()) != 1 {
		t.Errorf("restored paths = %d, want 1", len(restored.Paths()))
	}

	if err := restored.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if len(restored.Graph().Nodes) != 0 || len(restored.Paths()) != 0 {
		t.Error("state not cleared")
	}
}

func TestPrune_DropsStalePaths(t *testing.T) {
	ctx := context.Background()
	a, clock := testAgent(t)

	a.ProcessContent(ctx, item("1", "Physics and cooking"))
	clock.Advance(15 * 24 * time.Hour)

	if err := a.Prune(ctx); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n := len(a.Paths()); n != 0 {
		t.Errorf("paths = %d, want 0", n)
	}
}
