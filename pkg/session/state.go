// Package session holds the state shared by the composition surface: the
// active language and keyboard, model tier, persona, voice and the
// remembered messages. Persistent fields write through to settings storage.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/phrasekit/pkg/language"
	"github.com/bastiangx/phrasekit/pkg/phrasebook"
	"github.com/bastiangx/phrasekit/pkg/settings"
)

var (
	ErrUnknownLanguage = errors.New("unknown language")
	ErrUnknownTier     = errors.New("unknown model tier")
	ErrVoiceStep       = errors.New("voice step out of range")
)

// Voice rate and pitch are slider steps in [-10, 10]; 0 is the voice's own
// rate and pitch.
const (
	DefaultVoiceRate  = 0.0
	DefaultVoicePitch = 0.0
	MinVoiceStep      = -10.0
	MaxVoiceStep      = 10.0
)

// DefaultCheckedLanguages are cycled through when nothing is stored.
var DefaultCheckedLanguages = []string{language.JapaneseSingleRow, language.EnglishSingleRow}

// Features are per-deployment switches and template overrides.
type Features struct {
	// Languages limits the selectable languages. Empty means the checked ones.
	Languages []string `toml:"languages" msgpack:"languages"`
	// SentenceTemplate and WordTemplate replace the tier table's ids when set.
	SentenceTemplate      string `toml:"sentence_template" msgpack:"sentenceTemplate"`
	WordTemplate          string `toml:"word_template" msgpack:"wordTemplate"`
	EnableSpeechInput     bool   `toml:"enable_speech_input" msgpack:"enableSpeechInput"`
	EnableSentenceEmotion bool   `toml:"enable_sentence_emotion" msgpack:"enableSentenceEmotion"`
}

// Options configure a new State.
type Options struct {
	Registry *language.Registry
	Storage  *settings.Storage
	// Language is the id selected at startup, DefaultID when empty.
	Language string
	// Tier is used when storage holds none.
	Tier     language.Tier
	Features Features
}

// State is the explicit context object handed to the composer.
// It is safe for concurrent use.
type State struct {
	registry    *language.Registry
	defaultTier language.Tier
	messages    *phrasebook.MessageHistory
	convo       *phrasebook.ConversationLog

	mu       sync.RWMutex
	storage  *settings.Storage
	features Features

	lang     *language.Language
	keyboard int
	emotion  string

	tier                language.Tier
	checkedLanguages    []string
	enableEarcons       bool
	expandAtOrigin      bool
	initialPhrases      []string
	persona             string
	sentenceSmallMargin bool
	voiceName           string
	voicePitch          float64
	voiceRate           float64

	lastInputSpeech  string
	lastOutputSpeech string
}

// New returns a State loaded from opts.Storage. A nil registry builds the
// stock one; a nil storage keeps settings in memory.
func New(opts Options) (*State, error) {
	if opts.Registry == nil {
		opts.Registry = language.NewRegistry(language.Options{Breaker: language.UnicodeWordBreaker{}})
	}
	if opts.Storage == nil {
		opts.Storage = settings.New(settings.DefaultDomain, settings.NewMemory())
	}
	if opts.Tier == "" {
		opts.Tier = language.DefaultTier
	}
	lang := opts.Registry.Default()
	if opts.Language != "" {
		l, ok := opts.Registry.Get(opts.Language)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, opts.Language)
		}
		lang = l
	}

	s := &State{
		registry:    opts.Registry,
		defaultTier: opts.Tier,
		messages:    phrasebook.NewMessageHistory(nil),
		convo:       &phrasebook.ConversationLog{},
		storage:     opts.Storage,
		features:    opts.Features,
		lang:        lang,
	}
	s.mu.Lock()
	s.loadLocked()
	s.mu.Unlock()
	return s, nil
}

// loadLocked reads every persisted field, falling back to defaults.
func (s *State) loadLocked() {
	st := s.storage
	s.tier = settings.Read(st, settings.KeyAIConfig, s.defaultTier)
	s.checkedLanguages = settings.Read(st, settings.KeyCheckedLanguages, DefaultCheckedLanguages)
	s.enableEarcons = settings.Read(st, settings.KeyEnableEarcons, false)
	s.expandAtOrigin = settings.Read(st, settings.KeyExpandAtOrigin, false)
	s.initialPhrases = settings.Read(st, settings.KeyInitialPhrases, []string{})
	s.persona = settings.Read(st, settings.KeyPersona, "")
	s.sentenceSmallMargin = settings.Read(st, settings.KeySentenceSmallMargin, false)
	s.voiceName = settings.Read(st, settings.KeyTTSVoice, "")
	s.voicePitch = settings.Read(st, settings.KeyVoicePitch, DefaultVoicePitch)
	s.voiceRate = settings.Read(st, settings.KeyVoiceSpeakingRate, DefaultVoiceRate)
	s.messages.Replace(settings.Read(st, settings.KeyMessageHistory, []phrasebook.Message{}))

	if _, ok := s.lang.AIConfig(s.tier); !ok {
		log.Debugf("session: stored tier %q unknown to %s, using %q", s.tier, s.lang.ID(), s.defaultTier)
		s.tier = s.defaultTier
	}
}

// Storage returns the settings storage in use.
func (s *State) Storage() *settings.Storage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storage
}

// SetStorage switches to st and reloads every persisted field. It does
// nothing when st has the same domain as the current storage.
func (s *State) SetStorage(st *settings.Storage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st == nil || st.Domain() == s.storage.Domain() {
		return false
	}
	s.storage = st
	s.loadLocked()
	return true
}

// Registry returns the language registry.
func (s *State) Registry() *language.Registry { return s.registry }

// Language returns the active language.
func (s *State) Language() *language.Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lang
}

// SetLanguageByID activates a language and resets the keyboard to its first
// layout.
func (s *State) SetLanguageByID(id string) error {
	l, ok := s.registry.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLanguage, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lang = l
	s.keyboard = 0
	return nil
}

// Selectable returns the language ids the user can cycle through.
func (s *State) Selectable() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.features.Languages) > 0 {
		return append([]string(nil), s.features.Languages...)
	}
	return append([]string(nil), s.checkedLanguages...)
}

// Keyboard returns the active keyboard layout name.
func (s *State) Keyboard() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kbs := s.lang.Keyboards()
	if len(kbs) == 0 {
		return ""
	}
	return kbs[s.keyboard%len(kbs)]
}

// NextKeyboard cycles to the next layout of the active language.
func (s *State) NextKeyboard() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	kbs := s.lang.Keyboards()
	if len(kbs) == 0 {
		return ""
	}
	s.keyboard = (s.keyboard + 1) % len(kbs)
	return kbs[s.keyboard]
}

// Emotion returns the selected sentence emotion label, "" when none.
func (s *State) Emotion() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emotion
}

// SetEmotion selects an emotion label. "" clears it.
func (s *State) SetEmotion(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emotion = label
}

// Tier returns the selected model tier.
func (s *State) Tier() language.Tier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tier
}

// SetTier selects a model tier known to the active language.
func (s *State) SetTier(t language.Tier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lang.AIConfig(t); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTier, t)
	}
	s.tier = t
	return settings.Write(s.storage, settings.KeyAIConfig, t)
}

func (s *State) aiConfig() language.AIConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, _ := s.lang.AIConfig(s.tier)
	return c
}

// Model returns the model id of the active tier.
func (s *State) Model() string { return s.aiConfig().Model }

// SentenceTemplate returns the sentence template id, honoring Features.
func (s *State) SentenceTemplate() string {
	if f := s.Features(); f.SentenceTemplate != "" {
		return f.SentenceTemplate
	}
	return s.aiConfig().SentenceTemplate
}

// WordTemplate returns the word template id, honoring Features.
func (s *State) WordTemplate() string {
	if f := s.Features(); f.WordTemplate != "" {
		return f.WordTemplate
	}
	return s.aiConfig().WordTemplate
}

// Features returns a copy of the feature switches.
func (s *State) Features() Features {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f := s.features
	f.Languages = append([]string(nil), f.Languages...)
	return f
}

// SetFeatures replaces the feature switches.
func (s *State) SetFeatures(f Features) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.features = f
}

// CheckedLanguages returns the language ids enabled in settings.
func (s *State) CheckedLanguages() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.checkedLanguages...)
}

// SetCheckedLanguages stores the enabled language ids.
func (s *State) SetCheckedLanguages(ids []string) error {
	for _, id := range ids {
		if _, ok := s.registry.Get(id); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownLanguage, id)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkedLanguages = append([]string(nil), ids...)
	return settings.Write(s.storage, settings.KeyCheckedLanguages, s.checkedLanguages)
}

// InitialPhrases returns the phrases shown while the text is blank. When all
// stored phrases are blank the active language's seeds are used.
func (s *State) InitialPhrases() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.initialPhrases {
		if strings.TrimSpace(p) != "" {
			return append([]string(nil), s.initialPhrases...)
		}
	}
	return s.lang.InitialPhrases()
}

// SetInitialPhrases stores custom initial phrases.
func (s *State) SetInitialPhrases(phrases []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialPhrases = append([]string(nil), phrases...)
	return settings.Write(s.storage, settings.KeyInitialPhrases, s.initialPhrases)
}

// Persona returns the user's self description for prompts.
func (s *State) Persona() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persona
}

// SetPersona stores the persona.
func (s *State) SetPersona(p string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persona = p
	return settings.Write(s.storage, settings.KeyPersona, p)
}

// Voice returns the voice name and the rate and pitch steps.
func (s *State) Voice() (name string, rate, pitch float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.voiceName, s.voiceRate, s.voicePitch
}

// SetVoiceName stores the voice name.
func (s *State) SetVoiceName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voiceName = name
	return settings.Write(s.storage, settings.KeyTTSVoice, name)
}

// SetVoiceRate stores the speaking rate step.
func (s *State) SetVoiceRate(rate float64) error {
	if rate < MinVoiceStep || rate > MaxVoiceStep {
		return fmt.Errorf("%w: %v", ErrVoiceStep, rate)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voiceRate = rate
	return settings.Write(s.storage, settings.KeyVoiceSpeakingRate, rate)
}

// SetVoicePitch stores the voice pitch step.
func (s *State) SetVoicePitch(pitch float64) error {
	if pitch < MinVoiceStep || pitch > MaxVoiceStep {
		return fmt.Errorf("%w: %v", ErrVoiceStep, pitch)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voicePitch = pitch
	return settings.Write(s.storage, settings.KeyVoicePitch, pitch)
}

// EarconsEnabled reports whether click sounds are on.
func (s *State) EarconsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enableEarcons
}

// SetEarcons toggles click sounds.
func (s *State) SetEarcons(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enableEarcons = on
	return settings.Write(s.storage, settings.KeyEnableEarcons, on)
}

// ExpandAtOrigin reports the suggestion expansion layout flag.
func (s *State) ExpandAtOrigin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expandAtOrigin
}

// SetExpandAtOrigin stores the expansion layout flag.
func (s *State) SetExpandAtOrigin(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expandAtOrigin = on
	return settings.Write(s.storage, settings.KeyExpandAtOrigin, on)
}

// SentenceSmallMargin reports whether sentence suggestions may use every
// line instead of being capped.
func (s *State) SentenceSmallMargin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sentenceSmallMargin
}

// SetSentenceSmallMargin stores the margin flag.
func (s *State) SetSentenceSmallMargin(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentenceSmallMargin = on
	return settings.Write(s.storage, settings.KeySentenceSmallMargin, on)
}

// LastSpeech returns the last spoken output and the last recognized input.
func (s *State) LastSpeech() (output, input string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastOutputSpeech, s.lastInputSpeech
}

// SetLastOutputSpeech remembers what was spoken last.
func (s *State) SetLastOutputSpeech(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOutputSpeech = text
}

// SetLastInputSpeech remembers what the partner said last.
func (s *State) SetLastInputSpeech(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastInputSpeech = text
}

// Messages returns the remembered sentences.
func (s *State) Messages() *phrasebook.MessageHistory { return s.messages }

// RecordMessage remembers the last sentence of text and persists the history
// when it changed.
func (s *State) RecordMessage(text string, now time.Time) error {
	if !s.messages.Record(text, now) {
		return nil
	}
	return settings.Write(s.Storage(), settings.KeyMessageHistory, s.messages.Messages())
}

// Conversation returns the spoken conversation log.
func (s *State) Conversation() *phrasebook.ConversationLog { return s.convo }
