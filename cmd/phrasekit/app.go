package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/bastiangx/phrasekit/internal/logger"
	"github.com/bastiangx/phrasekit/pkg/composer"
	"github.com/bastiangx/phrasekit/pkg/config"
	"github.com/bastiangx/phrasekit/pkg/language"
	"github.com/bastiangx/phrasekit/pkg/provider/fake"
	"github.com/bastiangx/phrasekit/pkg/provider/macroapi"
	"github.com/bastiangx/phrasekit/pkg/provider/openai"
	"github.com/bastiangx/phrasekit/pkg/session"
	"github.com/bastiangx/phrasekit/pkg/settings"
	"github.com/bastiangx/phrasekit/pkg/speech"
	"github.com/bastiangx/phrasekit/pkg/suggest"
)

// app holds everything built from one config.
type app struct {
	cfg      *config.Config
	path     string
	state    *session.State
	composer *composer.Composer
	watcher  *config.Watcher
	closers  []io.Closer
}

// newApp wires a composer from cfg. listener receives composer events.
func newApp(cfg *config.Config, path string, listener composer.Listener) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, path: path}

	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	registry := language.NewRegistry(language.Options{
		Breaker:   language.UnicodeWordBreaker{},
		Overrides: cfg.Overrides(),
	})
	a.state, err = session.New(session.Options{
		Registry: registry,
		Storage:  settings.New(cfg.Storage.Domain, store),
		Language: cfg.Session.Language,
		Tier:     language.Tier(cfg.Session.Tier),
		Features: cfg.Session.Features,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	provider, err := a.provider()
	if err != nil {
		a.Close()
		return nil, err
	}
	if cfg.Suggest.CacheSize > 0 {
		cached, err := suggest.NewCachingProvider(provider, cfg.Suggest.CacheSize)
		if err != nil {
			a.Close()
			return nil, err
		}
		provider = cached
	}

	speaker, recognizer, err := a.speech()
	if err != nil {
		a.Close()
		return nil, err
	}

	sched := cfg.Scheduler()
	a.composer, err = composer.New(composer.Options{
		State:             a.state,
		Fetcher:           suggest.NewClient(provider, logger.New("suggest")),
		Scheduler:         &sched,
		SentenceLineLimit: cfg.Suggest.SentenceLineLimit,
		Temperature:       cfg.Suggest.Temperature,
		Speaker:           speaker,
		Recognizer:        recognizer,
		Listener:          listener,
		Logger:            logger.New("composer"),
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) configDir() string {
	if a.path != "" {
		return filepath.Dir(a.path)
	}
	dir, err := config.GetConfigDir()
	if err != nil {
		return "."
	}
	return dir
}

func (a *app) openStore() (settings.Store, error) {
	if a.cfg.Storage.Driver == config.StorageMemory {
		return settings.NewMemory(), nil
	}
	path := a.cfg.StoragePath(a.configDir())
	db, err := settings.OpenSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open settings %s: %w", path, err)
	}
	log.Debugf("Using settings database: %s", path)
	a.closers = append(a.closers, db)
	return db, nil
}

func (a *app) provider() (suggest.Provider, error) {
	p := a.cfg.Provider
	switch p.Kind {
	case config.ProviderMacroAPI:
		return macroapi.New(p.Endpoint, p.CSRFToken, &http.Client{Timeout: a.cfg.Timeout()}), nil
	case config.ProviderOpenAI:
		var templates openai.Templates
		if p.TemplateDir != "" {
			t, err := openai.LoadTemplates(os.DirFS(p.TemplateDir), ".")
			if err != nil {
				return nil, fmt.Errorf("load templates: %w", err)
			}
			templates = t
		}
		return openai.New(openai.Config{
			APIKey:    os.Getenv(p.APIKeyEnv),
			BaseURL:   p.BaseURL,
			Templates: templates,
		}), nil
	default:
		log.Warn("Using the offline fake provider")
		return fake.New(), nil
	}
}

func (a *app) speech() (speech.Speaker, speech.Recognizer, error) {
	s := a.cfg.Speech
	if s.Kind != config.SpeechOpenAI {
		return speech.Nop{}, speech.Nop{}, nil
	}
	oc := goopenai.DefaultConfig(os.Getenv(a.cfg.Provider.APIKeyEnv))
	if a.cfg.Provider.BaseURL != "" {
		oc.BaseURL = a.cfg.Provider.BaseURL
	}
	client := goopenai.NewClientWithConfig(oc)

	var speaker speech.Speaker = speech.Nop{}
	if s.OutputPath != "" {
		f, err := os.Create(s.OutputPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open speech output: %w", err)
		}
		a.closers = append(a.closers, f)
		speaker = speech.NewOpenAISpeaker(client, f)
	}
	var recognizer speech.Recognizer = speech.Nop{}
	if s.InputPath != "" {
		recognizer = speech.NewWhisperRecognizer(client, speech.FileSource(s.InputPath))
	}
	return speaker, recognizer, nil
}

// watch applies session features from config edits. Timing, provider and
// storage changes need a restart.
func (a *app) watch() {
	if a.path == "" {
		return
	}
	a.watcher = config.NewWatcher(a.path, a.cfg)
	a.watcher.OnChange(func(cfg *config.Config) {
		a.state.SetFeatures(cfg.Session.Features)
		log.Info("Config reloaded", "path", a.path)
	})
	if err := a.watcher.Start(); err != nil {
		log.Warnf("Config hot reload disabled: %v", err)
		a.watcher = nil
		return
	}
	go func() {
		for err := range a.watcher.Errors() {
			log.Warnf("Config reload failed: %v", err)
		}
	}()
}

// Close releases storage and speech files.
func (a *app) Close() {
	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.composer != nil {
		a.composer.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Warnf("Closing: %v", err)
		}
	}
}
