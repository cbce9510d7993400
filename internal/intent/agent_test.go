package intent

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/mindfultube/mindfultube/internal/core"
	"github.com/mindfultube/mindfultube/internal/testutil"
)

func TestSignal(t *testing.T) {
	tests := []struct {
		category core.IntentCategory
		query    string
		want     float64
	}{
		{core.IntentLearning, "python tutorial for beginners", 4},
		{core.IntentLearning, "tutorial tutorial", 2},
		{core.IntentEntertainment, "funny cat compilation", 3},
		{core.IntentResearch, "react vs vue pros and cons", 3},
		{core.IntentTroubleshooting, "how to fix wifi not working", 4},
		{core.IntentLearning, "cat", 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := signal(tt.category, tt.query); got != tt.want {
				t.Errorf("signal(%s, %q) = %v, want %v", tt.category, tt.query, got, tt.want)
			}
		})
	}
}

func TestRecognizeIntent_Learning(t *testing.T) {
	a := New(Config{Store: testutil.TestKV(t)})

	got, err := a.RecognizeIntent(context.Background(), "python tutorial for beginners")
	if err != nil {
		t.Fatalf("RecognizeIntent() error = %v", err)
	}
	if got != core.IntentLearning {
		t.Errorf("RecognizeIntent() = %v, want learning", got)
	}
	if topics := a.TopTopics(core.IntentLearning, 5); !reflect.DeepEqual(topics, []string{"python"}) {
		t.Errorf("learning topics = %v", topics)
	}
}

func TestRecognizeIntent_NoSignalIsDefault(t *testing.T) {
	a := New(Config{})

	got, _ := a.RecognizeIntent(context.Background(), "cats")
	if got != core.IntentDefault {
		t.Errorf("RecognizeIntent() = %v, want default", got)
	}
	if cfg := a.InterfaceConfiguration(); cfg != ConfigFor(core.IntentDefault) {
		t.Errorf("InterfaceConfiguration() = %+v", cfg)
	}
}

func TestRecognizeIntent_CompoundingDecay(t *testing.T) {
	ctx := context.Background()
	a := New(Config{})

	a.RecognizeIntent(ctx, "music") // entertainment = 1
	a.RecognizeIntent(ctx, "tutorial review") // learning and research both score
	scores := a.Scores()

	// entertainment decayed once by learning and once by research
	if want := 1 * DecayFactor * DecayFactor; math.Abs(scores[core.IntentEntertainment]-want) > 1e-9 {
		t.Errorf("entertainment = %v, want %v", scores[core.IntentEntertainment], want)
	}
	// learning scored first, then decayed by research
	if want := 1 * DecayFactor; math.Abs(scores[core.IntentLearning]-want) > 1e-9 {
		t.Errorf("learning = %v, want %v", scores[core.IntentLearning], want)
	}
	if scores[core.IntentResearch] != 1 {
		t.Errorf("research = %v, want 1", scores[core.IntentResearch])
	}
	if got := a.Dominant(); got != core.IntentResearch {
		t.Errorf("Dominant() = %v, want research", got)
	}
}

func TestRecognizeIntent_TiesFollowEnumerationOrder(t *testing.T) {
	a := New(Config{})
	a.state[core.IntentTroubleshooting].Score = 5
	a.state[core.IntentResearch].Score = 5

	if got := a.Dominant(); got != core.IntentResearch {
		t.Errorf("Dominant() = %v, want research", got)
	}
}

func TestRecognizeIntent_ScoreCapped(t *testing.T) {
	a := New(Config{})
	a.state[core.IntentLearning].Score = 99

	a.RecognizeIntent(context.Background(), "full course tutorial for beginners")
	if got := a.Scores()[core.IntentLearning]; got != MaxScore {
		t.Errorf("learning = %v, want %v", got, MaxScore)
	}
}

func TestRecognizeIntent_GenresAccumulate(t *testing.T) {
	a := New(Config{})

	a.RecognizeIntent(context.Background(), "funny gaming highlights")
	if got := a.TopTopics(core.IntentEntertainment, 0); !reflect.DeepEqual(got, []string{"gaming"}) {
		t.Errorf("entertainment topics = %v", got)
	}
	if got := a.TopTopics(core.IntentLearning, 0); len(got) != 0 {
		t.Errorf("learning topics = %v, want none", got)
	}
}

func TestConfigFor_Table(t *testing.T) {
	tests := []struct {
		category core.IntentCategory
		want     core.InterfaceConfig
	}{
		{core.IntentLearning, core.InterfaceConfig{NoteTaking: true, Transcript: true, Chapters: true, HideComments: true, PlaybackRate: 1.0}},
		{core.IntentEntertainment, core.InterfaceConfig{PlaybackRate: 1.0, RelatedVideos: true}},
		{core.IntentResearch, core.InterfaceConfig{NoteTaking: true, Transcript: true, Chapters: true, PlaybackRate: 1.25}},
		{core.IntentTroubleshooting, core.InterfaceConfig{NoteTaking: true, Transcript: true, Chapters: true, HideComments: true, PlaybackRate: 0.75}},
		{core.IntentDefault, core.InterfaceConfig{Chapters: true, HideComments: true, PlaybackRate: 1.0}},
		{core.IntentCategory("bogus"), core.InterfaceConfig{Chapters: true, HideComments: true, PlaybackRate: 1.0}},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			if got := ConfigFor(tt.category); got != tt.want {
				t.Errorf("ConfigFor(%s) = %+v, want %+v", tt.category, got, tt.want)
			}
		})
	}
}

func TestLoadAndReset(t *testing.T) {
	ctx := context.Background()
	kv := testutil.TestKV(t)

	a := New(Config{Store: kv})
	a.RecognizeIntent(ctx, "how to fix error code 43")

	restored := New(Config{Store: kv})
	if err := restored.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := restored.Dominant(); got != core.IntentTroubleshooting {
		t.Errorf("restored Dominant() = %v", got)
	}

	if err := restored.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if got := restored.Dominant(); got != core.IntentDefault {
		t.Errorf("Dominant() after reset = %v", got)
	}
}
