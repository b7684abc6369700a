/*
Package config manages the TOML config for phrasekit.
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/phrasekit/internal/utils"
	"github.com/bastiangx/phrasekit/pkg/language"
	"github.com/bastiangx/phrasekit/pkg/session"
	"github.com/bastiangx/phrasekit/pkg/suggest"
)

// ErrInvalid wraps every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Provider kinds.
const (
	ProviderMacroAPI = "macroapi"
	ProviderOpenAI   = "openai"
	ProviderFake     = "fake"
)

// Storage drivers.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Speech kinds.
const (
	SpeechNone   = "none"
	SpeechOpenAI = "openai"
)

// Config holds the entire config structure
type Config struct {
	Suggest  SuggestConfig  `toml:"suggest"`
	Provider ProviderConfig `toml:"provider"`
	Storage  StorageConfig  `toml:"storage"`
	Session  SessionConfig  `toml:"session"`
	Speech   SpeechConfig   `toml:"speech"`
	Language LanguageConfig `toml:"language"`
}

// SuggestConfig tunes fetching and display of suggestions.
type SuggestConfig struct {
	StepMs            int     `toml:"step_ms"`
	MaxDelayMs        int     `toml:"max_delay_ms"`
	WindowMs          int     `toml:"window_ms"`
	Num               int     `toml:"num"`
	Temperature       float64 `toml:"temperature"`
	SentenceLineLimit int     `toml:"sentence_line_limit"`
	CacheSize         int     `toml:"cache_size"`
}

// ProviderConfig selects and reaches the suggestion backend.
type ProviderConfig struct {
	Kind      string `toml:"kind"`
	Endpoint  string `toml:"endpoint"`
	CSRFToken string `toml:"csrf_token"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv   string `toml:"api_key_env"`
	BaseURL     string `toml:"base_url"`
	TimeoutMs   int    `toml:"timeout_ms"`
	TemplateDir string `toml:"template_dir"`
}

// StorageConfig has settings storage options.
type StorageConfig struct {
	Driver string `toml:"driver"`
	// Path of the SQLite database, relative to the config dir.
	Path   string `toml:"path"`
	Domain string `toml:"domain"`
}

// SessionConfig holds startup session options.
type SessionConfig struct {
	Language string           `toml:"language"`
	Tier     string           `toml:"tier"`
	Features session.Features `toml:"features"`
}

// SpeechConfig selects text-to-speech and recognition.
type SpeechConfig struct {
	Kind string `toml:"kind"`
	// OutputPath receives synthesized audio.
	OutputPath string `toml:"output_path"`
	// InputPath is the recorded clip transcribed after speaking.
	InputPath string `toml:"input_path"`
}

// LanguageConfig holds tier table overrides keyed by language id and tier.
type LanguageConfig struct {
	Overrides map[string]map[string]language.AIConfig `toml:"overrides"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
// 4. builtin defaults
func GetConfigDir() (string, error) {
	var candidates []string
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(homeDir, ".config", "phrasekit"),
			filepath.Join(homeDir, "Library", "Application Support", "phrasekit"),
		)
	} else {
		log.Errorf("Failed to get home directory: %v", err)
	}
	if dir, ok := utils.FirstWritableDir(candidates...); ok {
		return dir, nil
	}
	execPath, err := os.Executable()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return filepath.Dir(execPath), nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/phrasekit/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	sched := suggest.DefaultSchedulerConfig()
	return &Config{
		Suggest: SuggestConfig{
			StepMs:            int(sched.Step / time.Millisecond),
			MaxDelayMs:        int(sched.MaxDelay / time.Millisecond),
			WindowMs:          int(sched.Window / time.Millisecond),
			Num:               suggest.DefaultNum,
			Temperature:       0,
			SentenceLineLimit: 3,
			CacheSize:         suggest.DefaultCacheSize,
		},
		Provider: ProviderConfig{
			Kind:      ProviderFake,
			Endpoint:  "http://localhost:8080/run-macro",
			APIKeyEnv: "OPENAI_API_KEY",
			TimeoutMs: 30000,
		},
		Storage: StorageConfig{
			Driver: StorageSQLite,
			Path:   "settings.db",
			Domain: "phrasekit",
		},
		Session: SessionConfig{
			Language: language.DefaultID,
			Tier:     string(language.DefaultTier),
		},
		Speech: SpeechConfig{
			Kind: SpeechNone,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.IsFile(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse keeps every value it can read from a file the typed
// decoder rejected, e.g. one with a wrongly typed key.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "suggest"); ok {
		extractSuggestConfig(section, &config.Suggest)
	}
	if section, ok := utils.ExtractSection(tempConfig, "provider"); ok {
		extractProviderConfig(section, &config.Provider)
	}
	if section, ok := utils.ExtractSection(tempConfig, "storage"); ok {
		extractStorageConfig(section, &config.Storage)
	}
	if section, ok := utils.ExtractSection(tempConfig, "session"); ok {
		extractSessionConfig(section, &config.Session)
	}
	if section, ok := utils.ExtractSection(tempConfig, "speech"); ok {
		extractSpeechConfig(section, &config.Speech)
	}
	if section, ok := utils.ExtractSection(tempConfig, "language"); ok {
		extractLanguageConfig(section, &config.Language)
	}
	return config, nil
}

func extractSuggestConfig(data map[string]any, s *SuggestConfig) {
	if val, ok := utils.ExtractInt64(data, "step_ms"); ok {
		s.StepMs = val
	}
	if val, ok := utils.ExtractInt64(data, "max_delay_ms"); ok {
		s.MaxDelayMs = val
	}
	if val, ok := utils.ExtractInt64(data, "window_ms"); ok {
		s.WindowMs = val
	}
	if val, ok := utils.ExtractInt64(data, "num"); ok {
		s.Num = val
	}
	if val, ok := utils.ExtractFloat(data, "temperature"); ok {
		s.Temperature = val
	}
	if val, ok := utils.ExtractInt64(data, "sentence_line_limit"); ok {
		s.SentenceLineLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "cache_size"); ok {
		s.CacheSize = val
	}
}

func extractProviderConfig(data map[string]any, p *ProviderConfig) {
	if val, ok := utils.ExtractString(data, "kind"); ok {
		p.Kind = val
	}
	if val, ok := utils.ExtractString(data, "endpoint"); ok {
		p.Endpoint = val
	}
	if val, ok := utils.ExtractString(data, "csrf_token"); ok {
		p.CSRFToken = val
	}
	if val, ok := utils.ExtractString(data, "api_key_env"); ok {
		p.APIKeyEnv = val
	}
	if val, ok := utils.ExtractString(data, "base_url"); ok {
		p.BaseURL = val
	}
	if val, ok := utils.ExtractInt64(data, "timeout_ms"); ok {
		p.TimeoutMs = val
	}
	if val, ok := utils.ExtractString(data, "template_dir"); ok {
		p.TemplateDir = val
	}
}

func extractStorageConfig(data map[string]any, s *StorageConfig) {
	if val, ok := utils.ExtractString(data, "driver"); ok {
		s.Driver = val
	}
	if val, ok := utils.ExtractString(data, "path"); ok {
		s.Path = val
	}
	if val, ok := utils.ExtractString(data, "domain"); ok {
		s.Domain = val
	}
}

func extractSessionConfig(data map[string]any, s *SessionConfig) {
	if val, ok := utils.ExtractString(data, "language"); ok {
		s.Language = val
	}
	if val, ok := utils.ExtractString(data, "tier"); ok {
		s.Tier = val
	}
	features, ok := utils.ExtractSection(data, "features")
	if !ok {
		return
	}
	f := &s.Features
	if val, ok := utils.ExtractStrings(features, "languages"); ok {
		f.Languages = val
	}
	if val, ok := utils.ExtractString(features, "sentence_template"); ok {
		f.SentenceTemplate = val
	}
	if val, ok := utils.ExtractString(features, "word_template"); ok {
		f.WordTemplate = val
	}
	if val, ok := utils.ExtractBool(features, "enable_speech_input"); ok {
		f.EnableSpeechInput = val
	}
	if val, ok := utils.ExtractBool(features, "enable_sentence_emotion"); ok {
		f.EnableSentenceEmotion = val
	}
}

func extractSpeechConfig(data map[string]any, s *SpeechConfig) {
	if val, ok := utils.ExtractString(data, "kind"); ok {
		s.Kind = val
	}
	if val, ok := utils.ExtractString(data, "output_path"); ok {
		s.OutputPath = val
	}
	if val, ok := utils.ExtractString(data, "input_path"); ok {
		s.InputPath = val
	}
}

// extractLanguageConfig keeps every override table that decodes. A tier with
// no usable field is dropped.
func extractLanguageConfig(data map[string]any, l *LanguageConfig) {
	overrides, ok := utils.ExtractSection(data, "overrides")
	if !ok {
		return
	}
	for id := range overrides {
		tiers, ok := utils.ExtractSection(overrides, id)
		if !ok {
			continue
		}
		for tier := range tiers {
			table, ok := utils.ExtractSection(tiers, tier)
			if !ok {
				continue
			}
			var ai language.AIConfig
			if val, ok := utils.ExtractString(table, "model"); ok {
				ai.Model = val
			}
			if val, ok := utils.ExtractString(table, "sentence"); ok {
				ai.SentenceTemplate = val
			}
			if val, ok := utils.ExtractString(table, "word"); ok {
				ai.WordTemplate = val
			}
			if ai == (language.AIConfig{}) {
				continue
			}
			if l.Overrides == nil {
				l.Overrides = make(map[string]map[string]language.AIConfig)
			}
			if l.Overrides[id] == nil {
				l.Overrides[id] = make(map[string]language.AIConfig)
			}
			l.Overrides[id][tier] = ai
		}
	}
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	return utils.WriteTOML(defaultPath, DefaultConfig())
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	if abs, err := filepath.Abs(configPath); err == nil {
		return abs
	}
	return configPath
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.WriteTOML(configPath, config)
}

// Scheduler returns the debounce settings.
func (c *Config) Scheduler() suggest.SchedulerConfig {
	return suggest.SchedulerConfig{
		Step:     time.Duration(c.Suggest.StepMs) * time.Millisecond,
		MaxDelay: time.Duration(c.Suggest.MaxDelayMs) * time.Millisecond,
		Window:   time.Duration(c.Suggest.WindowMs) * time.Millisecond,
	}
}

// Overrides converts the tier overrides for language.Options.
func (c *Config) Overrides() map[string]map[language.Tier]language.AIConfig {
	if len(c.Language.Overrides) == 0 {
		return nil
	}
	out := make(map[string]map[language.Tier]language.AIConfig, len(c.Language.Overrides))
	for id, tiers := range c.Language.Overrides {
		m := make(map[language.Tier]language.AIConfig, len(tiers))
		for tier, ac := range tiers {
			m[language.Tier(tier)] = ac
		}
		out[id] = m
	}
	return out
}

// Timeout returns the provider request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Provider.TimeoutMs) * time.Millisecond
}

// StoragePath resolves the SQLite path against configDir unless absolute.
func (c *Config) StoragePath(configDir string) string {
	p := c.Storage.Path
	if p == "" || p == ":memory:" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(configDir, p)
}

// Validate reports settings no component can start with.
func (c *Config) Validate() error {
	switch c.Provider.Kind {
	case ProviderMacroAPI, ProviderOpenAI, ProviderFake:
	default:
		return fmt.Errorf("%w: provider kind %q", ErrInvalid, c.Provider.Kind)
	}
	switch c.Storage.Driver {
	case StorageSQLite, StorageMemory:
	default:
		return fmt.Errorf("%w: storage driver %q", ErrInvalid, c.Storage.Driver)
	}
	switch c.Speech.Kind {
	case "", SpeechNone, SpeechOpenAI:
	default:
		return fmt.Errorf("%w: speech kind %q", ErrInvalid, c.Speech.Kind)
	}
	if c.Suggest.StepMs < 0 || c.Suggest.MaxDelayMs < 0 || c.Suggest.WindowMs < 0 {
		return fmt.Errorf("%w: negative suggest timing", ErrInvalid)
	}
	if c.Suggest.Num <= 0 {
		return fmt.Errorf("%w: suggest num must be positive", ErrInvalid)
	}
	return nil
}
