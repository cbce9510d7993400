// Package intent infers why a user is searching from query text.
package intent

import (
	"regexp"
	"strings"

	"github.com/mindfultube/mindfultube/internal/core"
)

// MarkerBonus is added per explicit marker phrase found in a query
const MarkerBonus = 2

type categoryPatterns struct {
	patterns []*regexp.Regexp
	markers  []string
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)\b` + e + `\b`)
	}
	return out
}

var categoryRules = map[core.IntentCategory]categoryPatterns{
	core.IntentLearning: {
		patterns: compile(`learn(ing)?`, `tutorials?`, `how to`, `course`, `lectures?`,
			`beginners?`, `explained?`, `guide`, `intro(duction)?`, `fundamentals`),
		markers: []string{"for beginners", "step by step", "full course"},
	},
	core.IntentEntertainment: {
		patterns: compile(`funny`, `comedy`, `music`, `(movie|trailer)s?`, `gaming`,
			`vlogs?`, `memes?`, `pranks?`, `reactions?`, `highlights`),
		markers: []string{"best of", "compilation", "try not to laugh"},
	},
	core.IntentResearch: {
		patterns: compile(`research`, `analysis`, `compar(e|ison)`, `vs`, `review`,
			`study`, `documentary`, `history of`, `deep dive`, `data`),
		markers: []string{"in depth", "pros and cons", "what is the difference"},
	},
	core.IntentTroubleshooting: {
		patterns: compile(`fix(ing|ed)?`, `errors?`, `not working`, `problems?`, `issues?`,
			`broken`, `crash(es|ing)?`, `debug(ging)?`, `troubleshoot(ing)?`),
		markers: []string{"how to fix", "error code", "keeps crashing"},
	},
}

// GenreKeywords are accumulated into the entertainment category
var GenreKeywords = []string{
	"comedy", "music", "gaming", "horror", "action", "drama", "sports",
	"anime", "documentary", "vlog", "reaction", "podcast", "asmr",
}

// signal counts pattern matches plus marker bonuses for one category
func signal(category core.IntentCategory, query string) float64 {
	rules, ok := categoryRules[category]
	if !ok {
		return 0
	}

	var n int
	for _, p := range rules.patterns {
		n += len(p.FindAllStringIndex(query, -1))
	}

	lower := strings.ToLower(query)
	for _, m := range rules.markers {
		if strings.Contains(lower, m) {
			n += MarkerBonus
		}
	}
	return float64(n)
}

// interfaceTable maps each category to its UI flag bundle
var interfaceTable = map[core.IntentCategory]core.InterfaceConfig{
	core.IntentLearning: {
		NoteTaking: true, Transcript: true, Chapters: true, HideComments: true,
		PlaybackRate: 1.0, RelatedVideos: false,
	},
	core.IntentEntertainment: {
		NoteTaking: false, Transcript: false, Chapters: false, HideComments: false,
		PlaybackRate: 1.0, RelatedVideos: true,
	},
	core.IntentResearch: {
		NoteTaking: true, Transcript: true, Chapters: true, HideComments: false,
		PlaybackRate: 1.25, RelatedVideos: false,
	},
	core.IntentTroubleshooting: {
		NoteTaking: true, Transcript: true, Chapters: true, HideComments: true,
		PlaybackRate: 0.75, RelatedVideos: false,
	},
	core.IntentDefault: {
		NoteTaking: false, Transcript: false, Chapters: true, HideComments: true,
		PlaybackRate: 1.0, RelatedVideos: false,
	},
}

// ConfigFor returns the interface configuration for a category.
// Unknown categories get the default row.
func ConfigFor(category core.IntentCategory) core.InterfaceConfig {
	if cfg, ok := interfaceTable[category]; ok {
		return cfg
	}
	return interfaceTable[core.IntentDefault]
}
