// Package discovery maps how a user's interests connect and suggests
// where to go next.
package discovery

import (
	"strings"
	"unicode"

	"github.com/mindfultube/mindfultube/internal/core"
	"github.com/mindfultube/mindfultube/internal/metadata"
)

// BroadKeywords extends the metadata keyword list with subjects that
// matter for exploration but not for ranking.
var BroadKeywords = append(append([]string{}, metadata.TopicKeywords...),
	"astronomy", "space", "philosophy", "psychology", "economics",
	"statistics", "algorithms", "linux", "cloud", "security", "blockchain",
	"climate", "nutrition", "yoga", "guitar", "piano", "drawing", "writing",
	"architecture", "engineering", "electronics", "robotics", "geography",
	"literature", "poetry", "calculus", "quantum", "neuroscience", "medicine",
	"startup", "gardening", "woodworking",
)

// Noun phrase windowing
const (
	phraseWindow      = 4
	phraseStep        = 2
	minPhraseWords    = 2
	maxPhrasesPerItem = 5
)

var conjunctions = map[string]bool{
	"and": true, "or": true, "but": true, "nor": true, "so": true,
	"yet": true, "with": true, "vs": true, "versus": true,
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "from": true, "by": true, "is": true,
	"are": true, "was": true, "were": true, "be": true, "this": true,
	"that": true, "these": true, "those": true, "my": true, "your": true,
	"our": true, "their": true, "its": true, "how": true, "what": true,
	"why": true, "when": true, "where": true, "who": true, "which": true,
	"i": true, "you": true, "we": true, "it": true, "do": true, "does": true,
	"can": true, "will": true, "just": true, "about": true, "into": true,
	"over": true, "under": true,
}

// TopicExtractor pulls exploration topics out of items
type TopicExtractor struct {
	keywords *metadata.Extractor
}

// NewTopicExtractor builds an extractor over BroadKeywords
func NewTopicExtractor() *TopicExtractor {
	return &TopicExtractor{keywords: metadata.NewExtractorWithKeywords(BroadKeywords)}
}

// Extract returns keyword topics followed by title noun phrases,
// deduplicated with first occurrence kept.
func (e *TopicExtractor) Extract(item core.RawItem) []string {
	seen := make(map[string]bool)
	var topics []string
	add := func(t string) {
		if t != "" && !seen[t] {
			seen[t] = true
			topics = append(topics, t)
		}
	}

	for _, t := range e.keywords.Topics(item.Title + " " + item.Description) {
		add(t)
	}
	for _, p := range NounPhrases(item.Title) {
		add(p)
	}
	return topics
}

// NounPhrases slides a four-word window in steps of two over each
// segment of title. It is a crude heuristic, kept exactly reproducible.
func NounPhrases(title string) []string {
	var phrases []string
	for _, segment := range segments(strings.ToLower(title)) {
		for i := 0; i < len(segment); i += phraseStep {
			end := i + phraseWindow
			if end > len(segment) {
				end = len(segment)
			}

			window := segment[i:end]
			for len(window) > 0 && stopwords[window[0]] {
				window = window[1:]
			}
			if len(window) >= minPhraseWords {
				phrases = append(phrases, strings.Join(window, " "))
				if len(phrases) == maxPhrasesPerItem {
					return phrases
				}
			}

			if end == len(segment) {
				break
			}
		}
	}
	return phrases
}

// segments splits text at punctuation and conjunctions into word lists
func segments(text string) [][]string {
	text = strings.ReplaceAll(text, "'", "")
	text = strings.ReplaceAll(text, "’", "")

	var out [][]string
	var current []string
	flush := func() {
		if len(current) > 0 {
			out = append(out, current)
			current = nil
		}
	}

	var word strings.Builder
	endWord := func() {
		if word.Len() == 0 {
			return
		}
		w := word.String()
		word.Reset()
		if conjunctions[w] {
			flush()
			return
		}
		current = append(current, w)
	}

	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			word.WriteRune(r)
		case unicode.IsSpace(r):
			endWord()
		default:
			endWord()
			flush()
		}
	}
	endWord()
	flush()
	return out
}
