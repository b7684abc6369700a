/*
Package language describes the languages a user can compose in.

A Language bundles static data (locale code, keyboards, seed phrases, emotion
tags, the AI tier table) with the word handling rules of its script. Two
scripts exist:

  - space delimited (English, French, ...): words are separated by a space and
    punctuation hugs the previous word.
  - no space (Japanese): words are found by an external WordBreaker and joined
    without a separator. Without a breaker the whole sentence is one word.

Languages are immutable. They are built once into a Registry at startup and
shared read-only afterwards.
*/
package language

import "sort"

// Tier names a quality/cost setting. Each tier maps to a model and a pair of
// provider templates.
type Tier string

const (
	TierClassic       Tier = "classic"
	TierFast          Tier = "fast"
	TierSmart         Tier = "smart"
	TierGemini25Flash Tier = "gemini_2_5_flash"
)

// AIConfig selects the model and the sentence/word templates for one tier.
type AIConfig struct {
	Model            string `toml:"model" msgpack:"model"`
	SentenceTemplate string `toml:"sentence" msgpack:"sentence"`
	WordTemplate     string `toml:"word" msgpack:"word"`
}

// merge returns c with the non-empty fields of o applied.
func (c AIConfig) merge(o AIConfig) AIConfig {
	if o.Model != "" {
		c.Model = o.Model
	}
	if o.SentenceTemplate != "" {
		c.SentenceTemplate = o.SentenceTemplate
	}
	if o.WordTemplate != "" {
		c.WordTemplate = o.WordTemplate
	}
	return c
}

// Emotion is a sentence type the user can ask the provider for.
type Emotion struct {
	Emoji string `msgpack:"emoji"`
	Label string `msgpack:"label"`
}

// Language is an immutable language descriptor.
type Language struct {
	id             string
	code           string
	promptName     string
	displayName    string
	keyboards      []string
	initialPhrases []string
	emotions       []Emotion
	aiConfigs      map[Tier]AIConfig
	script         script
}

// ID is the registry key, e.g. "englishWithQWERYKeyboard".
func (l *Language) ID() string { return l.id }

// Code is the locale code used for speech, e.g. "en-US".
func (l *Language) Code() string { return l.code }

// PromptName is the English name passed to the provider, e.g. "Japanese".
func (l *Language) PromptName() string { return l.promptName }

// DisplayName is the human readable name shown in the language switcher.
func (l *Language) DisplayName() string { return l.displayName }

// Keyboards returns the keyboard identifiers available for the language.
// The first one is selected when the language becomes active.
func (l *Language) Keyboards() []string { return append([]string(nil), l.keyboards...) }

// InitialPhrases returns the default phrase seeds shown on a blank text field.
func (l *Language) InitialPhrases() []string { return append([]string(nil), l.initialPhrases...) }

// Emotions returns the sentence types offered for the language.
func (l *Language) Emotions() []Emotion { return append([]Emotion(nil), l.emotions...) }

// AIConfig returns the model selection for tier.
func (l *Language) AIConfig(tier Tier) (AIConfig, bool) {
	c, ok := l.aiConfigs[tier]
	return c, ok
}

// Tiers returns the configured tiers in sorted order.
func (l *Language) Tiers() []Tier {
	tiers := make([]Tier, 0, len(l.aiConfigs))
	for t := range l.aiConfigs {
		tiers = append(tiers, t)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i] < tiers[j] })
	return tiers
}

// Segment splits a sentence into words.
func (l *Language) Segment(sentence string) []string { return l.script.segment(sentence) }

// Join assembles words into a sentence.
func (l *Language) Join(words []string) string { return l.script.join(words) }

// AppendWord appends a suggested word to text. A word starting with "-" is
// fused to the text without the script's separator.
func (l *Language) AppendWord(text, word string) string { return l.script.appendWord(text, word) }

// withOverrides returns a copy of l whose tier table has overrides applied.
// Unknown tiers are added as long as they name a model.
func (l *Language) withOverrides(overrides map[Tier]AIConfig) *Language {
	if len(overrides) == 0 {
		return l
	}
	cp := *l
	cp.aiConfigs = make(map[Tier]AIConfig, len(l.aiConfigs)+len(overrides))
	for t, c := range l.aiConfigs {
		cp.aiConfigs[t] = c
	}
	for t, o := range overrides {
		base, ok := cp.aiConfigs[t]
		if !ok && o.Model == "" {
			continue
		}
		cp.aiConfigs[t] = base.merge(o)
	}
	return &cp
}
