package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/patrickmn/go-cache"

	"github.com/mindfultube/mindfultube/internal/core"
	"github.com/mindfultube/mindfultube/internal/discovery"
	"github.com/mindfultube/mindfultube/internal/intent"
)

// DiscoverySlots are the zero-based result positions reserved for
// knowledge-gap items
var DiscoverySlots = []int{3, 8, 14}

var intentMessages = map[core.IntentCategory]string{
	core.IntentLearning:        "Learning mode: notes and transcript are ready.",
	core.IntentEntertainment:   "Enjoy! We'll keep an eye on the time.",
	core.IntentResearch:        "Research mode: chapters on, playback at 1.25x.",
	core.IntentTroubleshooting: "Let's get this fixed. Transcript is on and playback is slowed down.",
	core.IntentDefault:         "Results ranked for you.",
}

// IntentMessage returns the canned message shown for an intent
func IntentMessage(category core.IntentCategory) string {
	if msg, ok := intentMessages[category]; ok {
		return msg
	}
	return intentMessages[core.IntentDefault]
}

// DiscoveryPlacement records a knowledge-gap item moved into a slot
type DiscoveryPlacement struct {
	Position   int    `json:"position"`
	ItemID     string `json:"itemId"`
	KnownTopic string `json:"knownTopic"`
	GapTopic   string `json:"gapTopic"`
}

// SearchResponse is the processed result list. UseStandard tells the page
// layer to show the provider's own results unchanged.
type SearchResponse struct {
	UseStandard     bool                  `json:"useStandard"`
	Results         []core.RawItem        `json:"results,omitempty"`
	Intent          core.IntentCategory   `json:"intent,omitempty"`
	InterfaceConfig *core.InterfaceConfig `json:"interfaceConfig,omitempty"`
	AgentMessage    string                `json:"agentMessage,omitempty"`
	Discoveries     []DiscoveryPlacement  `json:"discoveries,omitempty"`
	Blocked         bool                  `json:"blocked,omitempty"`
	SuggestedBreak  int                   `json:"suggestedBreak,omitempty"`
}

func standardResponse() SearchResponse {
	return SearchResponse{UseStandard: true}
}

// ProcessSearch recognizes intent, ranks provider results and injects
// knowledge-gap items. Any failure yields UseStandard.
func (a *Agent) ProcessSearch(ctx context.Context, query string) SearchResponse {
	query = strings.TrimSpace(query)
	if query == "" {
		return standardResponse()
	}

	settings := a.Settings()
	if !settings.Preferences.AgentEnabled {
		return standardResponse()
	}

	start := a.StartSession(ctx)
	if !start.Allowed {
		resp := standardResponse()
		resp.Blocked = true
		resp.AgentMessage = start.Reason
		resp.SuggestedBreak = start.SuggestedBreak
		return resp
	}

	a.setState(StateSearching)
	defer a.setState(StateActive)

	started := a.now()
	resp, err := a.runSearch(ctx, query, settings)
	if err != nil {
		a.log.WithError(err).Info("Search fell back to standard results")
		a.metrics.Search("standard", started)
		return standardResponse()
	}
	a.metrics.Search("ranked", started)

	a.notify(ctx, InterfaceUpdate{
		Message:         resp.AgentMessage,
		InterfaceConfig: resp.InterfaceConfig,
		Show:            true,
	})
	return resp
}

func (a *Agent) runSearch(ctx context.Context, query string, settings Settings) (SearchResponse, error) {
	category := core.IntentDefault
	err := a.safely(NameIntent, func() error {
		if settings.Privacy.CollectSearchIntent && settings.learning() {
			var err error
			category, err = a.intent.RecognizeIntent(ctx, query)
			return err
		}
		category = a.intent.Dominant()
		return nil
	})
	if degraded(err) {
		return SearchResponse{}, err
	}
	a.metrics.Intent(string(category))

	a.mu.Lock()
	a.session.intent = category
	a.mu.Unlock()

	var raw []core.RawItem
	if err := a.safely(nameProvider, func() error {
		var err error
		raw, err = a.provider.Search(ctx, query, a.fetchSize)
		return err
	}); err != nil {
		return SearchResponse{}, err
	}
	if len(raw) == 0 {
		return SearchResponse{}, fmt.Errorf("%w: no results", core.ErrProviderUnavailable)
	}
	a.cacheItems(raw)

	var ranked []core.RawItem
	if err := a.safely(NamePreference, func() error {
		ranked = a.preference.RankResults(raw, category)
		return nil
	}); err != nil {
		return SearchResponse{}, err
	}

	var gaps []discovery.KnowledgeGap
	if err := a.safely(NameDiscovery, func() error {
		gaps = a.discovery.IdentifyKnowledgeGaps()
		return nil
	}); err != nil {
		return SearchResponse{}, err
	}

	results, placements := injectDiscoveries(ranked, gaps, DiscoverySlots)
	if len(results) > a.maxResults {
		results = results[:a.maxResults]
	}
	a.metrics.Injected(len(placements))

	cfg := intent.ConfigFor(category)
	return SearchResponse{
		Results:         results,
		Intent:          category,
		InterfaceConfig: &cfg,
		AgentMessage:    IntentMessage(category),
		Discoveries:     placements,
	}, nil
}

// injectDiscoveries moves, for each slot in order, the first result at or
// below the slot that mentions the next gap topic. Slots with no matching
// result stay as ranked.
func injectDiscoveries(items []core.RawItem, gaps []discovery.KnowledgeGap, slots []int) ([]core.RawItem, []DiscoveryPlacement) {
	out := make([]core.RawItem, len(items))
	copy(out, items)

	var placements []DiscoveryPlacement
	for i, slot := range slots {
		if i >= len(gaps) {
			break
		}
		if slot >= len(out) {
			continue
		}
		gap := gaps[i]
		j := matchFrom(out, slot, gap.GapTopic)
		if j < 0 {
			continue
		}
		item := out[j]
		copy(out[slot+1:j+1], out[slot:j])
		out[slot] = item
		placements = append(placements, DiscoveryPlacement{
			Position:   slot,
			ItemID:     item.ID,
			KnownTopic: gap.KnownTopic,
			GapTopic:   gap.GapTopic,
		})
	}
	return out, placements
}

func matchFrom(items []core.RawItem, from int, topic string) int {
	topic = strings.ToLower(topic)
	if topic == "" {
		return -1
	}
	for j := from; j < len(items); j++ {
		if strings.Contains(strings.ToLower(items[j].Title), topic) ||
			strings.Contains(strings.ToLower(items[j].Description), topic) {
			return j
		}
	}
	return -1
}

func (a *Agent) cacheItems(items []core.RawItem) {
	for _, item := range items {
		if item.ID != "" {
			a.items.Set(item.ID, item, cache.DefaultExpiration)
		}
	}
}

// lookupItem resolves an item from the search cache, then the provider.
// Unknown items degrade to a bare item with no duration.
func (a *Agent) lookupItem(ctx context.Context, id string) core.RawItem {
	if v, ok := a.items.Get(id); ok {
		return v.(core.RawItem)
	}

	var item core.RawItem
	err := a.safely(nameProvider, func() error {
		var err error
		item, err = a.provider.Video(ctx, id)
		return err
	})
	if err != nil {
		if !errors.Is(err, core.ErrItemNotFound) {
			a.log.WithError(err).Debug("Item %s not resolved", id)
		}
		return core.RawItem{ID: id}
	}
	a.items.Set(id, item, cache.DefaultExpiration)
	return item
}
