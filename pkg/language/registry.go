package language

import "fmt"

// Registry keys.
const (
	EnglishSingleRow  = "englishWithSingleRowKeyboard"
	EnglishQWERTY     = "englishWithQWERYKeyboard"
	JapaneseSingleRow = "japaneseWithSingleRowKeyboard"
	JapaneseFull      = "japaneseWithFullkeyboard"
	French            = "frenchExperimental"
	German            = "germanExperimental"
	Swedish           = "swedishExperimental"

	// DefaultID is selected when no language is stored.
	DefaultID = JapaneseSingleRow
	// DefaultTier is selected when no tier is stored.
	DefaultTier = TierSmart
)

// Registry is an immutable, ordered set of languages.
type Registry struct {
	order []string
	byID  map[string]*Language
}

// Options tune the registry at construction time.
type Options struct {
	// Breaker segments Japanese text. Nil keeps sentences whole.
	Breaker WordBreaker
	// Overrides replace tier table entries, keyed by language id.
	Overrides map[string]map[Tier]AIConfig
}

// NewRegistry builds the registry of all supported languages.
func NewRegistry(opts Options) *Registry {
	langs := builtin(opts.Breaker)
	r := &Registry{byID: make(map[string]*Language, len(langs))}
	for _, l := range langs {
		l = l.withOverrides(opts.Overrides[l.id])
		r.order = append(r.order, l.id)
		r.byID[l.id] = l
	}
	return r
}

// Get returns the language with the given id.
func (r *Registry) Get(id string) (*Language, bool) {
	l, ok := r.byID[id]
	return l, ok
}

// MustGet is like Get but panics on unknown ids. Intended for constants.
func (r *Registry) MustGet(id string) *Language {
	l, ok := r.byID[id]
	if !ok {
		panic(fmt.Sprintf("language: unknown id %q", id))
	}
	return l
}

// Default returns the default language.
func (r *Registry) Default() *Language { return r.byID[DefaultID] }

// IDs returns all language ids in registry order.
func (r *Registry) IDs() []string { return append([]string(nil), r.order...) }

// Next returns the language after id in the given subset, wrapping around.
// Ids not in the registry are skipped. If id is not in the subset the first
// valid entry is returned.
func (r *Registry) Next(id string, subset []string) (*Language, bool) {
	var valid []string
	for _, s := range subset {
		if _, ok := r.byID[s]; ok {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		return nil, false
	}
	for i, s := range valid {
		if s == id {
			return r.byID[valid[(i+1)%len(valid)]], true
		}
	}
	return r.byID[valid[0]], true
}

var (
	latinTiers = map[Tier]AIConfig{
		TierClassic:       {Model: "gemini-1.5-pro-002", SentenceTemplate: "SentenceGeneric20250311", WordTemplate: "WordGeneric20240628"},
		TierFast:          {Model: "gemini-2.0-flash-lite-001", SentenceTemplate: "SentenceGeneric20250311", WordTemplate: "WordGeneric20240628"},
		TierSmart:         {Model: "gemini-2.0-flash-001", SentenceTemplate: "SentenceGeneric20250311", WordTemplate: "WordGeneric20240628"},
		TierGemini25Flash: {Model: "gemini-2.5-flash-preview-05-20", SentenceTemplate: "SentenceGeneric20250311", WordTemplate: "WordGeneric20240628"},
	}
	japaneseTiers = map[Tier]AIConfig{
		TierClassic:       {Model: "gemini-1.5-flash-001", SentenceTemplate: "SentenceJapanese20240628", WordTemplate: "WordGeneric20240628"},
		TierFast:          {Model: "gemini-1.5-flash-002", SentenceTemplate: "SentenceJapanese20240628", WordTemplate: "WordGeneric20240628"},
		TierSmart:         {Model: "gemini-1.5-pro-002", SentenceTemplate: "SentenceJapaneseLong20241002", WordTemplate: "WordGeneric20240628"},
		TierGemini25Flash: {Model: "gemini-2.5-flash-preview-05-20", SentenceTemplate: "SentenceJapaneseLong20250603", WordTemplate: "WordGeneric20240628"},
	}

	englishEmotions = []Emotion{
		{Emoji: "💬", Label: "Statement"},
		{Emoji: "❓", Label: "Question"},
		{Emoji: "🙏", Label: "Request"},
		{Emoji: "🚫", Label: "Negative"},
	}
	japaneseEmotions = []Emotion{
		{Emoji: "💬", Label: "平叙"},
		{Emoji: "❓", Label: "疑問"},
		{Emoji: "🙏", Label: "依頼"},
		{Emoji: "🚫", Label: "否定"},
	}

	englishPhrases = []string{
		"I", "You", "They", "What", "Why", "When", "Where", "How", "Who",
		"Can", "Could you", "Would you", "Do you",
	}
	japanesePhrases = []string{
		"はい", "いいえ", "ありがとう", "すみません", "お願いします",
		"私", "あなた", "彼", "彼女", "今日", "昨日", "明日",
	}
	frenchPhrases = []string{
		"Je", "Tu", "Ils", "Que", "Pourquoi", "Quand", "Où", "Quelle", "Qui",
		"Peux-tu", "Pourrais-tu", "Ferais-tu", "Fais-tu",
	}
	germanPhrases = []string{
		"Ich", "Du", "Sie", "Was", "Warum", "Wann", "Wo", "Wie", "Wer",
		"Kannst", "Könntest du", "Würdest du", "Tust du",
	}
	swedishPhrases = []string{
		"Jag", "Du", "De", "Vad", "Varför", "När", "Var", "Hur", "Vem",
		"Burk", "Kan", "Skulle du", "Gör du",
	}
)

func latin(id, code, prompt, display string, keyboards, phrases []string, emotions []Emotion) *Language {
	return &Language{
		id:             id,
		code:           code,
		promptName:     prompt,
		displayName:    display,
		keyboards:      keyboards,
		initialPhrases: phrases,
		emotions:       emotions,
		aiConfigs:      latinTiers,
		script:         spaceDelimited{},
	}
}

func japanese(id, display string, keyboards []string, breaker WordBreaker) *Language {
	return &Language{
		id:             id,
		code:           "ja-JP",
		promptName:     "Japanese",
		displayName:    display,
		keyboards:      keyboards,
		initialPhrases: japanesePhrases,
		emotions:       japaneseEmotions,
		aiConfigs:      japaneseTiers,
		script:         noSpace{breaker: breaker},
	}
}

func builtin(breaker WordBreaker) []*Language {
	return []*Language{
		latin(EnglishSingleRow, "en-US", "English", "English (single-row keyboard)",
			[]string{"alphanumeric-single-row"}, englishPhrases, englishEmotions),
		latin(EnglishQWERTY, "en-US", "English", "English (QWERTY keyboard)",
			[]string{"qwerty"}, englishPhrases, englishEmotions),
		japanese(JapaneseSingleRow, "Japanese (single-row keyboard)",
			[]string{"hiragana-single-row", "alphanumeric-single-row"}, breaker),
		japanese(JapaneseFull, "Japanese (Gojūon keyboard)",
			[]string{"fifty-key", "qwerty"}, breaker),
		latin(French, "fr-FR", "French", "French (experimental)",
			[]string{"french-single-row"}, frenchPhrases, nil),
		latin(German, "de-DE", "German", "German (experimental)",
			[]string{"german-single-row"}, germanPhrases, nil),
		latin(Swedish, "sv-SE", "Swedish", "Swedish (experimental)",
			[]string{"swedish-single-row"}, swedishPhrases, nil),
	}
}
