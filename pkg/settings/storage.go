package settings

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
)

// DefaultDomain namespaces keys when none is configured.
const DefaultDomain = "phrasekit"

// Known keys.
const (
	KeyAIConfig            = "aiConfig"
	KeyCheckedLanguages    = "checkedLanguages"
	KeyEnableEarcons       = "enableEarcons"
	KeyExpandAtOrigin      = "expandAtOrigin"
	KeyInitialPhrases      = "initialPhrases"
	KeyMessageHistory      = "messageHistory"
	KeyPersona             = "persona"
	KeySentenceSmallMargin = "sentenceSmallMargin"
	KeyTTSVoice            = "ttsVoice"
	KeyVoicePitch          = "voicePitch"
	KeyVoiceSpeakingRate   = "voiceSpeakingRate"
)

// Storage reads and writes typed values under one domain.
type Storage struct {
	domain string
	store  Store
}

// New returns a Storage for domain over store.
func New(domain string, store Store) *Storage {
	if domain == "" {
		domain = DefaultDomain
	}
	return &Storage{domain: domain, store: store}
}

// Domain returns the key namespace.
func (s *Storage) Domain() string { return s.domain }

func (s *Storage) fullKey(key string) string { return s.domain + "." + key }

type envelope[T any] struct {
	Value T `json:"value"`
}

// Read returns the value stored under key, or def when the key is missing,
// its value is absent or null, or it cannot be decoded into T.
func Read[T any](s *Storage, key string, def T) T {
	raw, ok, err := s.store.Get(s.fullKey(key))
	if err != nil {
		log.Debugf("settings: reading %s: %v", key, err)
		return def
	}
	if !ok {
		return def
	}
	var env envelope[json.RawMessage]
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Debugf("settings: discarding broken value for %s: %v", key, err)
		return def
	}
	if len(env.Value) == 0 || string(env.Value) == "null" {
		log.Debugf("settings: no value stored for %s", key)
		return def
	}
	var v T
	if err := json.Unmarshal(env.Value, &v); err != nil {
		log.Debugf("settings: discarding broken value for %s: %v", key, err)
		return def
	}
	return v
}

// Write stores v under key.
func Write[T any](s *Storage, key string, v T) error {
	raw, err := json.Marshal(envelope[T]{Value: v})
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", key, err)
	}
	return s.store.Set(s.fullKey(key), raw)
}
