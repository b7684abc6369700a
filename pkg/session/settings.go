package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bastiangx/phrasekit/pkg/language"
	"github.com/bastiangx/phrasekit/pkg/settings"
)

var (
	ErrUnknownSetting = errors.New("unknown setting")
	ErrSettingValue   = errors.New("bad setting value")
)

// SettingKeys lists the keys Set accepts, in storage key form.
var SettingKeys = []string{
	settings.KeyAIConfig,
	settings.KeyPersona,
	settings.KeyTTSVoice,
	settings.KeyVoiceSpeakingRate,
	settings.KeyVoicePitch,
	settings.KeyCheckedLanguages,
	settings.KeyInitialPhrases,
	settings.KeyEnableEarcons,
	settings.KeySentenceSmallMargin,
	settings.KeyExpandAtOrigin,
}

// Settings is the user facing view of the persisted fields.
type Settings struct {
	Tier                string   `msgpack:"aiConfig"`
	Persona             string   `msgpack:"persona"`
	VoiceName           string   `msgpack:"ttsVoice"`
	VoiceRate           float64  `msgpack:"voiceSpeakingRate"`
	VoicePitch          float64  `msgpack:"voicePitch"`
	CheckedLanguages    []string `msgpack:"checkedLanguages"`
	InitialPhrases      []string `msgpack:"initialPhrases"`
	EnableEarcons       bool     `msgpack:"enableEarcons"`
	SentenceSmallMargin bool     `msgpack:"sentenceSmallMargin"`
	ExpandAtOrigin      bool     `msgpack:"expandAtOrigin"`
}

// Settings returns a copy of the persisted fields. InitialPhrases holds the
// stored phrases, not the language seeds.
func (s *State) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Settings{
		Tier:                string(s.tier),
		Persona:             s.persona,
		VoiceName:           s.voiceName,
		VoiceRate:           s.voiceRate,
		VoicePitch:          s.voicePitch,
		CheckedLanguages:    append([]string(nil), s.checkedLanguages...),
		InitialPhrases:      append([]string(nil), s.initialPhrases...),
		EnableEarcons:       s.enableEarcons,
		SentenceSmallMargin: s.sentenceSmallMargin,
		ExpandAtOrigin:      s.expandAtOrigin,
	}
}

// Set updates one setting by its storage key. value may be a decoded msgpack
// value or the text a user typed: "on" for a flag, "1.5" for a voice step,
// "a, b" for a list.
func (s *State) Set(key string, value any) error {
	switch key {
	case settings.KeyAIConfig:
		v, err := stringValue(key, value)
		if err != nil {
			return err
		}
		return s.SetTier(language.Tier(v))
	case settings.KeyPersona:
		v, err := stringValue(key, value)
		if err != nil {
			return err
		}
		return s.SetPersona(v)
	case settings.KeyTTSVoice:
		v, err := stringValue(key, value)
		if err != nil {
			return err
		}
		return s.SetVoiceName(v)
	case settings.KeyVoiceSpeakingRate:
		v, err := floatValue(key, value)
		if err != nil {
			return err
		}
		return s.SetVoiceRate(v)
	case settings.KeyVoicePitch:
		v, err := floatValue(key, value)
		if err != nil {
			return err
		}
		return s.SetVoicePitch(v)
	case settings.KeyCheckedLanguages:
		v, err := listValue(key, value)
		if err != nil {
			return err
		}
		return s.SetCheckedLanguages(v)
	case settings.KeyInitialPhrases:
		v, err := listValue(key, value)
		if err != nil {
			return err
		}
		return s.SetInitialPhrases(v)
	case settings.KeyEnableEarcons:
		v, err := boolValue(key, value)
		if err != nil {
			return err
		}
		return s.SetEarcons(v)
	case settings.KeySentenceSmallMargin:
		v, err := boolValue(key, value)
		if err != nil {
			return err
		}
		return s.SetSentenceSmallMargin(v)
	case settings.KeyExpandAtOrigin:
		v, err := boolValue(key, value)
		if err != nil {
			return err
		}
		return s.SetExpandAtOrigin(v)
	}
	return fmt.Errorf("%w: %q", ErrUnknownSetting, key)
}

func badValue(key string, value any) error {
	return fmt.Errorf("%w for %s: %v (%T)", ErrSettingValue, key, value, value)
}

func stringValue(key string, value any) (string, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	return "", badValue(key, value)
}

// floatValue accepts every numeric width msgpack may decode to.
func floatValue(key string, value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil {
			return f, nil
		}
	}
	return 0, badValue(key, value)
}

func boolValue(key string, value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "on", "yes":
			return true, nil
		case "off", "no":
			return false, nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err == nil {
			return b, nil
		}
	}
	return false, badValue(key, value)
}

// listValue takes a list of strings or one comma separated string. Blank
// items of a comma separated string are dropped.
func listValue(key string, value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, badValue(key, value)
			}
			out = append(out, str)
		}
		return out, nil
	case string:
		out := []string{}
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out, nil
	}
	return nil, badValue(key, value)
}
