package agent

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/mindfultube/mindfultube/internal/core"
	"github.com/mindfultube/mindfultube/internal/discovery"
	"github.com/mindfultube/mindfultube/internal/intent"
	"github.com/mindfultube/mindfultube/internal/metrics"
	"github.com/mindfultube/mindfultube/internal/preference"
	"github.com/mindfultube/mindfultube/internal/storage"
	"github.com/mindfultube/mindfultube/internal/testutil"
	"github.com/mindfultube/mindfultube/internal/usage"
)

// evening is outside the business-hours fallback used for productive hours
var evening = time.Date(2024, 5, 15, 20, 0, 0, 0, time.UTC)

type stubProvider struct {
	items []core.RawItem
	err   error
	panic bool
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Search(ctx context.Context, query string, maxResults int) ([]core.RawItem, error) {
	if p.panic {
		panic("provider exploded")
	}
	if p.err != nil {
		return nil, p.err
	}
	if len(p.items) > maxResults {
		return p.items[:maxResults], nil
	}
	return p.items, nil
}

func (p *stubProvider) Video(ctx context.Context, id string) (core.RawItem, error) {
	for _, item := range p.items {
		if item.ID == id {
			return item, nil
		}
	}
	return core.RawItem{}, core.ErrItemNotFound
}

// stubDiscovery returns canned recommendations
type stubDiscovery struct {
	gaps    []discovery.KnowledgeGap
	steps   []discovery.NextStep
	related []discovery.RelatedSuggestion
	panic   bool
}

func (d *stubDiscovery) Load(ctx context.Context) error { return nil }
func (d *stubDiscovery) Reset(ctx context.Context) error { return nil }
func (d *stubDiscovery) Paths() []discovery.LearningPath { return nil }

func (d *stubDiscovery) ProcessContent(ctx context.Context, item core.RawItem) error {
	return nil
}

func (d *stubDiscovery) IdentifyKnowledgeGaps() []discovery.KnowledgeGap {
	if d.panic {
		panic("graph corrupted")
	}
	return d.gaps
}

func (d *stubDiscovery) NextLearningSteps() []discovery.NextStep {
	if d.panic {
		panic("graph corrupted")
	}
	return d.steps
}

func (d *stubDiscovery) RelatedContent() []discovery.RelatedSuggestion {
	if d.panic {
		panic("graph corrupted")
	}
	return d.related
}

type recorder struct {
	mu      sync.Mutex
	updates []InterfaceUpdate
}

func (r *recorder) UpdateAgentInterface(ctx context.Context, update InterfaceUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, update)
	return nil
}

func (r *recorder) last() (InterfaceUpdate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.updates) == 0 {
		return InterfaceUpdate{}, false
	}
	return r.updates[len(r.updates)-1], true
}

type fixture struct {
	agent      *Agent
	store      storage.KV
	preference *preference.Agent
	usage      *usage.Agent
	intent     *intent.Agent
	discovery  DiscoveryAgent
	provider   *stubProvider
	notifier   *recorder
	metrics    *metrics.Metrics
	clock      *testutil.Clock
}

func newFixture(t *testing.T, disc DiscoveryAgent) *fixture {
	t.Helper()
	store := testutil.TestKV(t)
	clock := testutil.NewClock(evening)

	f := &fixture{
		store:      store,
		preference: preference.New(preference.Config{Store: store, Now: clock.Now}),
		usage:      usage.New(usage.Config{Store: store, Location: time.UTC, Now: clock.Now}),
		intent:     intent.New(intent.Config{Store: store}),
		discovery:  disc,
		provider:   &stubProvider{},
		notifier:   &recorder{},
		metrics:    metrics.New(),
		clock:      clock,
	}
	if f.discovery == nil {
		f.discovery = discovery.New(discovery.Config{Store: store, Now: clock.Now})
	}
	f.agent = New(Config{
		Preference: f.preference,
		Usage:      f.usage,
		Intent:     f.intent,
		Discovery:  f.discovery,
		Provider:   f.provider,
		Notifier:   f.notifier,
		Metrics:    f.metrics,
		Store:      store,
		Now:        clock.Now,
	})
	if err := f.agent.Load(testutil.TestContext(t)); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return f
}

// watch plays item for watched seconds and returns the recommendation
func (f *fixture) watch(ctx context.Context, item core.RawItem, watched float64) NextRecommendation {
	end := f.agent.ProcessVideoView(ctx, item.ID, item)
	f.clock.Advance(time.Duration(watched * float64(time.Second)))
	return end(ctx, watched)
}

func TestProcessVideoView_EngagementRatio(t *testing.T) {
	tests := []struct {
		name         string
		duration     string
		watched      float64
		wantPositive int
		wantNegative int
	}{
		{"80 percent is positive", "PT10M", 480, 1, 0},
		{"10 percent over 30s is negative", "PT6M40S", 40, 0, 1},
		{"10 percent under 30s is neutral", "PT1M40S", 10, 0, 0},
		{"unknown duration is neutral", "", 300, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, nil)
			item := testutil.Video("v1", "Python Tutorial", tt.duration)

			f.watch(ctx, item, tt.watched)

			rec := f.preference.History()["v1"]
			if rec.PositiveCount != tt.wantPositive || rec.NegativeCount != tt.wantNegative {
				t.Errorf("counts = +%d/-%d, want +%d/-%d", rec.PositiveCount, rec.NegativeCount, tt.wantPositive, tt.wantNegative)
			}

			// Usage is recorded regardless of engagement
			if got, want := f.usage.GetTodayUsage(f.clock.Now()), tt.watched/60; got != want {
				t.Errorf("today usage = %v, want %v", got, want)
			}
		})
	}
}

func TestProcessVideoView_HandlerActsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	item := testutil.Video("v1", "Python Tutorial", "PT10M")

	end := f.agent.ProcessVideoView(ctx, "v1", item)
	first := end(ctx, 500)
	second := end(ctx, 500)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("second call = %+v, want %+v", second, first)
	}
	if n := f.preference.History()["v1"].PositiveCount; n != 1 {
		t.Errorf("PositiveCount = %d, want 1", n)
	}
}

func TestProcessVideoView_RegistersDiscovery(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	f.watch(ctx, testutil.Video("v1", "The physics of cooking", "PT10M"), 60)

	g := f.discovery.(*discovery.Agent).Graph()
	if g.Weight("physics", "cooking") != 1 {
		t.Errorf("physics/cooking weight = %d, want 1", g.Weight("physics", "cooking"))
	}
}

func TestResetAgent_Isolation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	f.watch(ctx, testutil.Video("v1", "Python Tutorial", "PT10M"), 480)
	before := f.usage.GetTodayUsage(f.clock.Now())
	if before == 0 {
		t.Fatal("expected usage before reset")
	}

	if err := f.agent.ResetAgent(ctx, NamePreference); err != nil {
		t.Fatalf("ResetAgent() error = %v", err)
	}

	if n := len(f.preference.History()); n != 0 {
		t.Errorf("history = %d records, want 0", n)
	}
	if got := f.usage.GetTodayUsage(f.clock.Now()); got != before {
		t.Errorf("today usage = %v, want %v", got, before)
	}

	if err := f.agent.ResetAgent(ctx, "weather"); !errors.Is(err, core.ErrUnknownAgent) {
		t.Errorf("ResetAgent(weather) error = %v, want ErrUnknownAgent", err)
	}
}

func TestResetAgentData_ClearsEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	f.agent.ProcessSearch(ctx, "python tutorial for beginners")
	f.watch(ctx, testutil.Video("v1", "Python programming", "PT10M"), 480)

	if !f.agent.ResetAgentData(ctx) {
		t.Fatal("ResetAgentData() = false")
	}
	if n := len(f.preference.History()); n != 0 {
		t.Errorf("history = %d records", n)
	}
	if got := f.usage.GetTodayUsage(f.clock.Now()); got != 0 {
		t.Errorf("today usage = %v", got)
	}
	if got := f.intent.Dominant(); got != core.IntentDefault {
		t.Errorf("dominant intent = %v", got)
	}
	if n := len(f.discovery.Paths()); n != 0 {
		t.Errorf("paths = %d", n)
	}
}

func TestProcessSearch_Ranked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	for i := 0; i < 30; i++ {
		f.provider.items = append(f.provider.items, testutil.Video(fmt.Sprintf("v%02d", i), "Some video", "PT5M"))
	}

	resp := f.agent.ProcessSearch(ctx, "python tutorial for beginners")

	if resp.UseStandard {
		t.Fatal("UseStandard = true")
	}
	if resp.Intent != core.IntentLearning {
		t.Errorf("Intent = %v, want learning", resp.Intent)
	}
	if len(resp.Results) != DefaultMaxDisplayResults {
		t.Errorf("results = %d, want %d", len(resp.Results), DefaultMaxDisplayResults)
	}
	if resp.InterfaceConfig == nil || !resp.InterfaceConfig.NoteTaking {
		t.Errorf("InterfaceConfig = %+v, want learning config", resp.InterfaceConfig)
	}
	if resp.AgentMessage != IntentMessage(core.IntentLearning) {
		t.Errorf("AgentMessage = %q", resp.AgentMessage)
	}
	if f.agent.State() != StateActive {
		t.Errorf("state = %v, want active", f.agent.State())
	}

	update, ok := f.notifier.last()
	if !ok || !update.Show || update.Message != resp.AgentMessage {
		t.Errorf("notifier update = %+v", update)
	}

	// Fetched items are cached for videoStarted
	if _, ok := f.agent.items.Get("v25"); !ok {
		t.Error("item v25 not cached")
	}
}

func TestProcessSearch_FallsBackToStandard(t *testing.T) {
	tests := []struct {
		name     string
		provider stubProvider
		disc     DiscoveryAgent
	}{
		{"provider error", stubProvider{err: core.ErrProviderUnavailable}, nil},
		{"provider panic", stubProvider{panic: true}, nil},
		{"no results", stubProvider{}, nil},
		{"discovery panic", stubProvider{items: []core.RawItem{testutil.VideoFixture()}}, &stubDiscovery{panic: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.disc)
			*f.provider = tt.provider

			resp := f.agent.ProcessSearch(context.Background(), "python tutorial")
			if !resp.UseStandard || len(resp.Results) != 0 {
				t.Errorf("resp = %+v, want standard", resp)
			}
		})
	}
}

func TestProcessSearch_AgentDisabled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.provider.items = []core.RawItem{testutil.VideoFixture()}

	prefs := core.DefaultPreferences()
	prefs.AgentEnabled = false
	if err := f.agent.UpdatePreferences(ctx, prefs); err != nil {
		t.Fatalf("UpdatePreferences() error = %v", err)
	}

	if resp := f.agent.ProcessSearch(ctx, "python"); !resp.UseStandard {
		t.Errorf("resp = %+v, want standard", resp)
	}
}

func TestProcessSearch_InjectsGaps(t *testing.T) {
	ctx := context.Background()
	disc := &stubDiscovery{gaps: []discovery.KnowledgeGap{{KnownTopic: "physics", GapTopic: "chemistry", Relevance: 3}}}
	f := newFixture(t, disc)
	for i := 0; i < 12; i++ {
		f.provider.items = append(f.provider.items, testutil.Video(fmt.Sprintf("v%02d", i), "Cooking video", "PT5M"))
	}
	f.provider.items[10].Title = "Chemistry of bread"

	resp := f.agent.ProcessSearch(ctx, "cooking")

	if len(resp.Discoveries) != 1 {
		t.Fatalf("discoveries = %+v", resp.Discoveries)
	}
	if resp.Results[3].ID != "v10" || resp.Discoveries[0].Position != 3 {
		t.Errorf("slot 3 = %s, placement = %+v", resp.Results[3].ID, resp.Discoveries[0])
	}
}

func TestInjectDiscoveries(t *testing.T) {
	items := make([]core.RawItem, 16)
	for i := range items {
		items[i] = core.RawItem{ID: fmt.Sprintf("i%d", i), Title: "plain"}
	}
	items[1].Title = "Baking basics" // Above slot 8, never pulled down
	items[6].Description = "an intro to CHEMISTRY"
	items[15].Title = "Rust for gophers"

	gaps := []discovery.KnowledgeGap{
		{KnownTopic: "physics", GapTopic: "chemistry"},
		{KnownTopic: "cooking", GapTopic: "baking"},
		{KnownTopic: "go", GapTopic: "rust"},
	}

	out, placements := injectDiscoveries(items, gaps, DiscoverySlots)

	wantIDs := []string{"i0", "i1", "i2", "i6", "i3", "i4", "i5", "i7", "i8", "i9", "i10", "i11", "i12", "i13", "i15", "i14"}
	var gotIDs []string
	for _, item := range out {
		gotIDs = append(gotIDs, item.ID)
	}
	if !reflect.DeepEqual(gotIDs, wantIDs) {
		t.Errorf("order = %v\nwant    %v", gotIDs, wantIDs)
	}

	want := []DiscoveryPlacement{
		{Position: 3, ItemID: "i6", KnownTopic: "physics", GapTopic: "chemistry"},
		{Position: 14, ItemID: "i15", KnownTopic: "go", GapTopic: "rust"},
	}
	if !reflect.DeepEqual(placements, want) {
		t.Errorf("placements = %+v, want %+v", placements, want)
	}

	if items[3].ID != "i3" {
		t.Error("input slice was modified")
	}
}

func TestInjectDiscoveries_ShortList(t *testing.T) {
	items := []core.RawItem{{ID: "a"}, {ID: "b", Title: "chemistry"}}
	out, placements := injectDiscoveries(items, []discovery.KnowledgeGap{{GapTopic: "chemistry"}}, DiscoverySlots)
	if len(placements) != 0 || len(out) != 2 {
		t.Errorf("out = %v, placements = %v", out, placements)
	}
}

func TestStartSession_BlockedByDailyLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	if err := f.usage.SetGoals(ctx, 5, 600); err != nil {
		t.Fatalf("SetGoals() error = %v", err)
	}
	start := f.clock.Now()
	if err := f.usage.TrackSession(ctx, start, start.Add(6*time.Minute), []string{"v1"}); err != nil {
		t.Fatalf("TrackSession() error = %v", err)
	}
	f.clock.Advance(10 * time.Minute)

	got := f.agent.StartSession(ctx)
	if got.Allowed || got.SuggestedBreak != usage.DailyBreakMinutes || got.Reason == "" {
		t.Errorf("StartSession() = %+v, want blocked", got)
	}
	if f.agent.State() != StateIdle {
		t.Errorf("state = %v, want idle", f.agent.State())
	}

	resp := f.agent.ProcessSearch(ctx, "python")
	if !resp.UseStandard || !resp.Blocked {
		t.Errorf("ProcessSearch() = %+v, want blocked standard", resp)
	}
}

func TestStartSession_ActiveIsKept(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	first := f.agent.StartSession(ctx)
	if !first.Allowed || first.SessionID == "" {
		t.Fatalf("StartSession() = %+v", first)
	}
	if again := f.agent.StartSession(ctx); again.SessionID != first.SessionID {
		t.Errorf("session ID changed: %s -> %s", first.SessionID, again.SessionID)
	}

	f.agent.EndSession(ctx)
	if f.agent.State() != StateIdle || f.agent.SessionID() != "" {
		t.Errorf("after EndSession state = %v, id = %q", f.agent.State(), f.agent.SessionID())
	}
}

func TestSessionState_Watching(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.agent.StartSession(ctx)

	item := testutil.VideoFixture()
	end := f.agent.ProcessVideoView(ctx, item.ID, item)
	if f.agent.State() != StateWatching {
		t.Errorf("state = %v, want watching", f.agent.State())
	}
	end(ctx, 30)
	if f.agent.State() != StateActive {
		t.Errorf("state = %v, want active", f.agent.State())
	}
}

func TestNextRecommendation_Priority(t *testing.T) {
	steps := []discovery.NextStep{{PathID: "p1", FromTopic: "python", Topic: "django", Weight: 3}}
	related := []discovery.RelatedSuggestion{{Topics: [2]string{"art", "math"}, Message: "Try combining art and math"}}

	t.Run("standard when nothing is known", func(t *testing.T) {
		f := newFixture(t, &stubDiscovery{})
		if got := f.agent.NextRecommendation(); got.Type != RecommendStandard {
			t.Errorf("Type = %v", got.Type)
		}
	})

	t.Run("related content outside learning", func(t *testing.T) {
		f := newFixture(t, &stubDiscovery{steps: steps, related: related})
		got := f.agent.NextRecommendation()
		if got.Type != RecommendRelatedContent || got.Message != related[0].Message {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("learning path when learning", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t, &stubDiscovery{steps: steps, related: related})
		if _, err := f.intent.RecognizeIntent(ctx, "python tutorial for beginners"); err != nil {
			t.Fatal(err)
		}
		got := f.agent.NextRecommendation()
		if got.Type != RecommendLearningPath || !reflect.DeepEqual(got.Steps, steps) {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("break beats everything", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(t, &stubDiscovery{steps: steps, related: related})
		f.usage.SetGoals(ctx, 1, 600)
		f.watch(ctx, testutil.VideoFixture(), 120)

		got := f.agent.NextRecommendation()
		if got.Type != RecommendBreak || got.SuggestedBreak != usage.DailyBreakMinutes {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("discovery panic degrades to standard", func(t *testing.T) {
		f := newFixture(t, &stubDiscovery{panic: true})
		if got := f.agent.NextRecommendation(); got.Type != RecommendStandard {
			t.Errorf("Type = %v", got.Type)
		}
	})
}

func TestVideoEnd_NotifiesRecommendation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	next := f.watch(ctx, testutil.VideoFixture(), 60)

	update, ok := f.notifier.last()
	if !ok || !update.Show || len(update.Recommendations) != 1 || update.Recommendations[0].Type != next.Type {
		t.Errorf("update = %+v", update)
	}
}

func TestPrivacyGates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	if err := f.agent.UpdatePrivacy(ctx, core.PrivacySettings{CollectUsage: true}); err != nil {
		t.Fatalf("UpdatePrivacy() error = %v", err)
	}

	f.agent.ProcessSearch(ctx, "python tutorial for beginners")
	f.watch(ctx, testutil.Video("v1", "The physics of cooking", "PT10M"), 480)

	if n := len(f.preference.History()); n != 0 {
		t.Errorf("engagement recorded with collection off: %d", n)
	}
	if got := f.intent.Dominant(); got != core.IntentDefault {
		t.Errorf("intent recorded with collection off: %v", got)
	}
	if n := len(f.discovery.(*discovery.Agent).Graph().Nodes); n != 0 {
		t.Errorf("discovery recorded with collection off: %d nodes", n)
	}
	if f.usage.GetTodayUsage(f.clock.Now()) != 8 {
		t.Errorf("usage = %v, want 8", f.usage.GetTodayUsage(f.clock.Now()))
	}
}

func TestRevokeConsent_ResetsAndStopsLearning(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	f.watch(ctx, testutil.Video("v1", "Python Tutorial", "PT10M"), 480)
	if err := f.agent.RevokeConsent(ctx); err != nil {
		t.Fatalf("RevokeConsent() error = %v", err)
	}
	if n := len(f.preference.History()); n != 0 {
		t.Errorf("history after revoke = %d", n)
	}

	f.watch(ctx, testutil.Video("v2", "Python Tutorial", "PT10M"), 480)
	if n := len(f.preference.History()); n != 0 {
		t.Errorf("history recorded after revoke = %d", n)
	}
	if got := f.usage.GetTodayUsage(f.clock.Now()); got != 0 {
		t.Errorf("usage recorded after revoke = %v", got)
	}

	if err := f.agent.GrantConsent(ctx); err != nil {
		t.Fatalf("GrantConsent() error = %v", err)
	}
	f.watch(ctx, testutil.Video("v3", "Python Tutorial", "PT10M"), 480)
	if n := len(f.preference.History()); n != 1 {
		t.Errorf("history after grant = %d, want 1", n)
	}
}

func TestLoad_RestoresSettings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	privacy := core.PrivacySettings{CollectUsage: true, DiscoveryEnabled: true}
	prefs := core.DefaultPreferences()
	prefs.DailyLimitMinutes = 45
	prefs.HideComments = true
	if err := f.agent.UpdatePrivacy(ctx, privacy); err != nil {
		t.Fatal(err)
	}
	if err := f.agent.UpdatePreferences(ctx, prefs); err != nil {
		t.Fatal(err)
	}

	reloaded := New(Config{
		Preference: preference.New(preference.Config{Store: f.store}),
		Usage:      usage.New(usage.Config{Store: f.store}),
		Intent:     intent.New(intent.Config{Store: f.store}),
		Discovery:  discovery.New(discovery.Config{Store: f.store}),
		Provider:   f.provider,
		Store:      f.store,
	})
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	got := reloaded.Settings()
	if got.Privacy != privacy {
		t.Errorf("privacy = %+v, want %+v", got.Privacy, privacy)
	}
	if got.Preferences != prefs {
		t.Errorf("preferences = %+v, want %+v", got.Preferences, prefs)
	}
}

func TestUpdatePreferences_InvalidLimits(t *testing.T) {
	f := newFixture(t, nil)
	prefs := core.DefaultPreferences()
	prefs.WeeklyLimitMinutes = 0
	if err := f.agent.UpdatePreferences(context.Background(), prefs); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}

func TestSafely_RecoversPanics(t *testing.T) {
	f := newFixture(t, nil)
	err := f.agent.safely(NameDiscovery, func() error { panic("boom") })
	if !errors.Is(err, core.ErrAgentPanic) {
		t.Errorf("error = %v, want ErrAgentPanic", err)
	}
	if degraded(fmt.Errorf("save: %w", core.ErrPersistFailed)) {
		t.Error("persist failures should not degrade")
	}
}

func TestInsightsAndUsage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	f.agent.ProcessSearch(ctx, "python tutorial for beginners")
	f.watch(ctx, testutil.VideoFixture(), 540)

	in := f.agent.Insights()
	if in.DominantIntent != core.IntentLearning {
		t.Errorf("DominantIntent = %v", in.DominantIntent)
	}
	if len(in.Preferences.Topics) == 0 || in.Preferences.Topics[0].Score != 100 {
		t.Errorf("topics = %+v", in.Preferences.Topics)
	}
	if len(in.LearningPaths) == 0 {
		t.Error("expected a learning path")
	}

	u := f.agent.Usage()
	if u.TodayMinutes != 9 || u.RemainingMinutes != 111 {
		t.Errorf("usage = %+v", u)
	}
}
