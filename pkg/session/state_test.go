package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bastiangx/phrasekit/pkg/language"
	"github.com/bastiangx/phrasekit/pkg/phrasebook"
	"github.com/bastiangx/phrasekit/pkg/settings"
)

func newState(t *testing.T, opts Options) *State {
	t.Helper()
	s, err := New(opts)
	require.NoError(t, err)
	return s
}

func TestDefaults(t *testing.T) {
	s := newState(t, Options{})

	assert.Equal(t, language.JapaneseSingleRow, s.Language().ID())
	assert.Equal(t, "ja-JP", s.Language().Code())
	assert.Equal(t, "hiragana-single-row", s.Keyboard())
	assert.Equal(t, language.TierSmart, s.Tier())
	assert.Equal(t, "gemini-1.5-pro-002", s.Model())
	assert.Equal(t, "SentenceJapaneseLong20241002", s.SentenceTemplate())
	assert.Equal(t, "WordGeneric20240628", s.WordTemplate())
	assert.Equal(t, DefaultCheckedLanguages, s.CheckedLanguages())
	assert.Equal(t, "", s.Persona())
	assert.False(t, s.EarconsEnabled())
	assert.False(t, s.SentenceSmallMargin())

	name, rate, pitch := s.Voice()
	assert.Equal(t, "", name)
	assert.Equal(t, DefaultVoiceRate, rate)
	assert.Equal(t, DefaultVoicePitch, pitch)
}

func TestUnknownStartupLanguage(t *testing.T) {
	_, err := New(Options{Language: "klingon"})
	assert.ErrorIs(t, err, ErrUnknownLanguage)
}

func TestSettersWriteThrough(t *testing.T) {
	st := settings.New("test", settings.NewMemory())
	s := newState(t, Options{Storage: st})

	require.NoError(t, s.SetTier(language.TierFast))
	require.NoError(t, s.SetPersona("retired pilot"))
	require.NoError(t, s.SetEarcons(true))
	require.NoError(t, s.SetVoiceRate(5))
	require.NoError(t, s.SetVoicePitch(-2))
	require.NoError(t, s.SetVoiceName("nova"))
	require.NoError(t, s.SetSentenceSmallMargin(true))
	require.NoError(t, s.SetExpandAtOrigin(true))
	require.NoError(t, s.SetCheckedLanguages([]string{language.EnglishQWERTY}))

	assert.Equal(t, language.TierFast, settings.Read(st, settings.KeyAIConfig, language.Tier("")))
	assert.Equal(t, "gemini-1.5-flash-002", s.Model())
	assert.Equal(t, "retired pilot", settings.Read(st, settings.KeyPersona, ""))
	assert.True(t, settings.Read(st, settings.KeyEnableEarcons, false))
	assert.Equal(t, 5.0, settings.Read(st, settings.KeyVoiceSpeakingRate, 0.0))
	assert.Equal(t, -2.0, settings.Read(st, settings.KeyVoicePitch, 0.0))
	assert.Equal(t, "nova", settings.Read(st, settings.KeyTTSVoice, ""))
	assert.True(t, settings.Read(st, settings.KeySentenceSmallMargin, false))
	assert.True(t, settings.Read(st, settings.KeyExpandAtOrigin, false))
	assert.Equal(t, []string{language.EnglishQWERTY}, settings.Read[[]string](st, settings.KeyCheckedLanguages, nil))

	// A second state over the same storage sees everything.
	again := newState(t, Options{Storage: st})
	assert.Equal(t, language.TierFast, again.Tier())
	assert.Equal(t, "retired pilot", again.Persona())
	assert.True(t, again.EarconsEnabled())
}

func TestSetterValidation(t *testing.T) {
	s := newState(t, Options{})
	assert.ErrorIs(t, s.SetTier("turbo"), ErrUnknownTier)
	assert.ErrorIs(t, s.SetCheckedLanguages([]string{"klingon"}), ErrUnknownLanguage)
	assert.ErrorIs(t, s.SetLanguageByID("klingon"), ErrUnknownLanguage)
	assert.ErrorIs(t, s.SetVoiceRate(11), ErrVoiceStep)
	assert.ErrorIs(t, s.SetVoicePitch(-10.5), ErrVoiceStep)
	assert.Equal(t, language.TierSmart, s.Tier())
}

func TestSetLanguageResetsKeyboard(t *testing.T) {
	s := newState(t, Options{})
	assert.Equal(t, "alphanumeric-single-row", s.NextKeyboard())
	assert.Equal(t, "hiragana-single-row", s.NextKeyboard())
	s.NextKeyboard()

	require.NoError(t, s.SetLanguageByID(language.JapaneseFull))
	assert.Equal(t, "fifty-key", s.Keyboard())

	require.NoError(t, s.SetLanguageByID(language.EnglishSingleRow))
	assert.Equal(t, "alphanumeric-single-row", s.Keyboard())
	assert.Equal(t, "alphanumeric-single-row", s.NextKeyboard())
	assert.Equal(t, "SentenceGeneric20250311", s.SentenceTemplate())
}

func TestFeaturesOverrideTemplates(t *testing.T) {
	s := newState(t, Options{Features: Features{SentenceTemplate: "MySentence"}})
	assert.Equal(t, "MySentence", s.SentenceTemplate())
	assert.Equal(t, "WordGeneric20240628", s.WordTemplate())

	s.SetFeatures(Features{WordTemplate: "MyWord", Languages: []string{language.French}})
	assert.Equal(t, "SentenceJapaneseLong20241002", s.SentenceTemplate())
	assert.Equal(t, "MyWord", s.WordTemplate())
	assert.Equal(t, []string{language.French}, s.Selectable())
}

func TestInitialPhrasesFallBackToSeeds(t *testing.T) {
	s := newState(t, Options{Language: language.EnglishSingleRow})
	assert.Equal(t, "I", s.InitialPhrases()[0])

	require.NoError(t, s.SetInitialPhrases([]string{"", "  "}))
	assert.Equal(t, "I", s.InitialPhrases()[0])

	require.NoError(t, s.SetInitialPhrases([]string{"", "Hello"}))
	assert.Equal(t, []string{"", "Hello"}, s.InitialPhrases())
}

func TestStoredTierUnknownFallsBack(t *testing.T) {
	st := settings.New("test", settings.NewMemory())
	require.NoError(t, settings.Write(st, settings.KeyAIConfig, "turbo"))
	s := newState(t, Options{Storage: st})
	assert.Equal(t, language.TierSmart, s.Tier())
}

func TestSetStorageReloadsOnlyOnNewDomain(t *testing.T) {
	mem := settings.NewMemory()
	first := settings.New("one", mem)
	s := newState(t, Options{Storage: first})
	require.NoError(t, s.SetPersona("first"))

	assert.False(t, s.SetStorage(settings.New("one", settings.NewMemory())))
	assert.Equal(t, "first", s.Persona())

	second := settings.New("two", mem)
	require.NoError(t, settings.Write(second, settings.KeyPersona, "second"))
	assert.True(t, s.SetStorage(second))
	assert.Equal(t, "second", s.Persona())
	assert.Equal(t, "two", s.Storage().Domain())
}

func TestRecordMessagePersists(t *testing.T) {
	st := settings.New("test", settings.NewMemory())
	s := newState(t, Options{Storage: st})
	now := time.UnixMilli(1700000000000)

	require.NoError(t, s.RecordMessage("hi", now))
	assert.Equal(t, 0, s.Messages().Len())

	require.NoError(t, s.RecordMessage("I want some water.", now))
	stored := settings.Read[[]phrasebook.Message](st, settings.KeyMessageHistory, nil)
	require.Len(t, stored, 1)
	assert.Equal(t, "I want some water", stored[0].Sentence)
	assert.Equal(t, now.UnixMilli(), stored[0].At.UnixMilli())

	reloaded := newState(t, Options{Storage: st})
	got, ok := reloaded.Messages().Search("I want")
	assert.True(t, ok)
	assert.Equal(t, "I want some water", got)
}

func TestSpeechAndEmotion(t *testing.T) {
	s := newState(t, Options{})
	s.SetLastOutputSpeech("hello")
	s.SetLastInputSpeech("hi there")
	out, in := s.LastSpeech()
	assert.Equal(t, "hello", out)
	assert.Equal(t, "hi there", in)

	s.SetEmotion("疑問")
	assert.Equal(t, "疑問", s.Emotion())
	s.SetEmotion("")
	assert.Empty(t, s.Emotion())
}
