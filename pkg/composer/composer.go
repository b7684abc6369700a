// Package composer is the composition surface: it turns key taps and
// suggestion selections into text, keeps the undo log, and asks for fresh
// suggestions whenever the text changes.
package composer

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/phrasekit/internal/utils"
	"github.com/bastiangx/phrasekit/pkg/align"
	"github.com/bastiangx/phrasekit/pkg/history"
	"github.com/bastiangx/phrasekit/pkg/session"
	"github.com/bastiangx/phrasekit/pkg/speech"
	"github.com/bastiangx/phrasekit/pkg/suggest"
	"github.com/bastiangx/phrasekit/pkg/textnorm"
)

// DefaultSentenceLineLimit caps sentence suggestions unless the small margin
// layout is on.
const DefaultSentenceLineLimit = 3

// Listener receives updates for the UI shell. Every field is optional. Calls
// happen without the composer's lock held, possibly from timer goroutines.
type Listener struct {
	// OnSuggestions fires when sentences or words changed.
	OnSuggestions func(sentences, words []string)
	OnLoading     func(bool)
	// OnNotice receives failures worth a non-blocking message.
	OnNotice func(error)
	// OnPartnerInput fires with the partner's recognized reply.
	OnPartnerInput func(transcript string)
	// OnRecall fires with a remembered sentence extending the current one.
	OnRecall func(sentence string)
}

// Options configure a Composer.
type Options struct {
	State   *session.State
	Fetcher suggest.Fetcher
	// Scheduler defaults to suggest.DefaultSchedulerConfig.
	Scheduler         *suggest.SchedulerConfig
	SentenceLineLimit int
	// Temperature is sent with every request.
	Temperature float64
	Speaker     speech.Speaker
	Recognizer  speech.Recognizer
	// Click and Chime play earcons. Nil is silent.
	Click func()
	Chime func()
	Listener
	Logger *log.Logger
}

// Composer owns one input history and one suggestion scheduler.
type Composer struct {
	state      *session.State
	hist       *history.History
	sched      *suggest.Scheduler
	speaker    speech.Speaker
	recognizer speech.Recognizer
	listener   Listener
	logger     *log.Logger
	lineLimit  int
	temp       float64
	click      func()
	chime      func()
	now        func() time.Time

	mu          sync.Mutex
	text        string
	placeholder string
	sentences   []string
	words       []string
	loading     bool
}

// New returns a Composer with a blank text field.
func New(opts Options) (*Composer, error) {
	if opts.State == nil {
		return nil, fmt.Errorf("composer: session state is required")
	}
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("composer: fetcher is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.SentenceLineLimit <= 0 {
		opts.SentenceLineLimit = DefaultSentenceLineLimit
	}
	if opts.Speaker == nil {
		opts.Speaker = speech.Nop{}
	}
	if opts.Recognizer == nil {
		opts.Recognizer = speech.Nop{}
	}
	cfg := suggest.DefaultSchedulerConfig()
	if opts.Scheduler != nil {
		cfg = *opts.Scheduler
	}

	c := &Composer{
		state:      opts.State,
		hist:       history.New(),
		speaker:    opts.Speaker,
		recognizer: opts.Recognizer,
		listener:   opts.Listener,
		logger:     opts.Logger,
		lineLimit:  opts.SentenceLineLimit,
		temp:       opts.Temperature,
		click:      opts.Click,
		chime:      opts.Chime,
		now:        time.Now,
	}
	c.sched = suggest.NewScheduler(opts.Fetcher, cfg, suggest.Callbacks{
		OnBatch:   c.applyBatch,
		OnClear:   c.clearSuggestions,
		OnLoading: c.setLoading,
		OnError:   c.notice,
	}, opts.Logger)
	return c, nil
}

// State returns the session the composer reads its settings from.
func (c *Composer) State() *session.State { return c.state }

// Close stops pending and in-flight fetches.
func (c *Composer) Close() { c.sched.Close() }

// WithEarcon returns action preceded by play. A nil play leaves action as is.
func WithEarcon(play func(), action func()) func() {
	if play == nil {
		return action
	}
	return func() {
		play()
		action()
	}
}

// tap runs a user action with the click sound when earcons are on.
func (c *Composer) tap(action func()) {
	var play func()
	if c.click != nil && c.state.EarconsEnabled() {
		play = c.click
	}
	WithEarcon(play, action)()
}

// setText records value in the history and reacts to the change.
func (c *Composer) setText(value string, sources ...history.Source) {
	c.hist.Add(history.NewEntry(value, sources...))
	c.mu.Lock()
	c.text = value
	c.placeholder = ""
	c.mu.Unlock()
	c.textUpdated(value)
}

// textUpdated refreshes suggestions, looks up remembered sentences and
// remembers the current one.
func (c *Composer) textUpdated(text string) {
	c.sched.Update(c.request(text))

	if found, ok := c.state.Messages().Search(text); ok {
		c.logger.Debug("remembered sentence", "sentence", found)
		if c.listener.OnRecall != nil {
			c.listener.OnRecall(found)
		}
	}
	if err := c.state.RecordMessage(text, c.now()); err != nil {
		c.logger.Warnf("Failed to persist message history: %v", err)
	}
}

func (c *Composer) request(text string) suggest.Request {
	st := c.state
	lastOut, lastIn := st.LastSpeech()
	return suggest.Request{
		Text:                text,
		Language:            st.Language().PromptName(),
		Model:               st.Model(),
		SentenceTemplate:    st.SentenceTemplate(),
		WordTemplate:        st.WordTemplate(),
		Temperature:         c.temp,
		Persona:             st.Persona(),
		LastOutputSpeech:    lastOut,
		LastInputSpeech:     lastIn,
		ConversationHistory: st.Conversation().Digest(),
		SentenceEmotion:     st.Emotion(),
	}
}

// refresh asks for suggestions for the current text without touching the
// history, after a language, keyboard or emotion change.
func (c *Composer) refresh() {
	c.sched.Update(c.request(c.Text()))
}

// TypeCharacter appends a character from an on-screen keyboard, or toggles
// the small form of the last kana for textnorm.SmallKanaTrigger.
func (c *Composer) TypeCharacter(ch string) {
	c.tap(func() {
		composed := textnorm.ComposeCharacter(c.Text(), ch)
		c.setText(textnorm.Normalize(composed, c.hist.IsLastInputSuggested()), history.Character)
	})
}

// SetKeyboardText takes the whole field value after free typing with a
// physical keyboard. Unchanged values are not recorded again.
func (c *Composer) SetKeyboardText(value string) {
	c.mu.Lock()
	c.text = value
	c.mu.Unlock()
	if value != c.hist.LastInput().Value() {
		c.hist.Add(history.NewEntry(value, history.Keyboard))
	}
	c.textUpdated(value)
}

// Backspace removes the last character.
func (c *Composer) Backspace() {
	c.tap(func() {
		text := c.Text()
		_, size := utf8.DecodeLastRuneInString(text)
		c.setText(text[:len(text)-size], history.Backspace)
	})
}

// Delete clears the text and the emotion selection.
func (c *Composer) Delete() {
	c.tap(func() {
		c.state.SetEmotion("")
		c.setText("", history.Delete)
	})
}

// Undo restores the previous text.
func (c *Composer) Undo() {
	c.tap(func() {
		c.hist.Undo()
		value := c.hist.LastInput().Value()
		c.mu.Lock()
		c.text = value
		c.placeholder = ""
		c.mu.Unlock()
		c.textUpdated(value)
	})
}

// LastInput returns the history entry of the current text.
func (c *Composer) LastInput() history.Entry { return c.hist.LastInput() }

// CanUndo reports whether Undo would change anything.
func (c *Composer) CanUndo() bool { return c.hist.CanUndo() }

// SelectSentence commits the sentence suggestion at stripe up to and
// including word. It reports false when either index is out of range.
func (c *Composer) SelectSentence(stripe, word int) bool {
	stripes := c.Stripes()
	if stripe < 0 || stripe >= len(stripes) {
		return false
	}
	text, index, ok := stripes[stripe].Select(word)
	if !ok {
		return false
	}
	c.tap(func() { c.setText(text, history.SuggestedSentence(index)) })
	return true
}

// SelectWord appends a word suggestion or initial phrase.
func (c *Composer) SelectWord(word string) {
	c.tap(func() {
		joined := c.state.Language().AppendWord(c.Text(), word)
		c.setText(textnorm.Normalize(joined, false), history.SuggestedWord)
	})
}

// SnackbarClosed clears the text once the partner's reply was shown and
// keeps the reply as the placeholder.
func (c *Composer) SnackbarClosed() {
	c.setText("", history.SnackBar)
	_, lastIn := c.state.LastSpeech()
	c.mu.Lock()
	c.placeholder = lastIn
	c.mu.Unlock()
}

// Speak reads the text aloud and logs it as a conversation turn. With speech
// input enabled it then listens for the partner's reply.
func (c *Composer) Speak(ctx context.Context) error {
	text := c.Text()
	st := c.state
	st.SetLastOutputSpeech(text)
	if c.chime != nil && st.EarconsEnabled() {
		c.chime()
	}

	name, rate, pitch := st.Voice()
	u := speech.Utterance{
		Text:   text,
		Locale: st.Language().Code(),
		Rate:   math.Pow(2, rate/10),
		Pitch:  (pitch + 20) / 20,
		Voice:  name,
	}
	st.Conversation().AddOutput(text, c.now())
	if err := c.speaker.Speak(ctx, u); err != nil {
		return fmt.Errorf("speak: %w", err)
	}

	if !st.Features().EnableSpeechInput {
		return nil
	}
	st.SetLastInputSpeech("")
	transcript, err := c.recognizer.Recognize(ctx, u.Locale)
	if err != nil {
		return fmt.Errorf("recognize partner: %w", err)
	}
	if transcript != "" {
		c.PartnerSpoke(transcript)
	}
	return nil
}

// PartnerSpoke records the partner's reply against the last turn.
func (c *Composer) PartnerSpoke(transcript string) {
	c.state.SetLastInputSpeech(transcript)
	if !c.state.Conversation().AttachPartnerInput(transcript) {
		return
	}
	if c.listener.OnPartnerInput != nil {
		c.listener.OnPartnerInput(transcript)
	}
}

// NextLanguage switches to the next selectable language and returns its id.
func (c *Composer) NextLanguage() string {
	var id string
	c.tap(func() {
		next, ok := c.state.Registry().Next(c.state.Language().ID(), c.state.Selectable())
		if !ok {
			return
		}
		if err := c.state.SetLanguageByID(next.ID()); err != nil {
			c.logger.Warnf("Failed to switch language: %v", err)
			return
		}
		id = next.ID()
		c.refresh()
	})
	return id
}

// NextKeyboard cycles the keyboard layout and returns its name.
func (c *Composer) NextKeyboard() string {
	var kb string
	c.tap(func() {
		kb = c.state.NextKeyboard()
		c.refresh()
	})
	return kb
}

// SetEmotion selects the sentence emotion and refreshes suggestions.
func (c *Composer) SetEmotion(label string) {
	c.tap(func() {
		c.state.SetEmotion(label)
		c.refresh()
	})
}

// Text returns the current text.
func (c *Composer) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// Placeholder returns the hint shown in an empty field.
func (c *Composer) Placeholder() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.placeholder
}

// Suggestions returns the sentence suggestions.
func (c *Composer) Suggestions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sentences...)
}

// Words returns the word suggestions, or the initial phrases while the text
// is blank.
func (c *Composer) Words() []string {
	c.mu.Lock()
	blank := c.text == ""
	words := append([]string(nil), c.words...)
	c.mu.Unlock()
	if blank {
		return c.state.InitialPhrases()
	}
	return words
}

// Stripes aligns every sentence suggestion against the typed text. It is
// empty while the text is blank.
func (c *Composer) Stripes() []*align.Stripe {
	c.mu.Lock()
	text := c.text
	sentences := append([]string(nil), c.sentences...)
	c.mu.Unlock()
	if text == "" {
		return nil
	}
	lang := c.state.Language()
	typed := textnorm.Normalize(text, false)
	out := make([]*align.Stripe, len(sentences))
	for i, s := range sentences {
		out[i] = align.NewStripe(lang, s, align.SharedPrefix([]string{s, typed}))
	}
	return out
}

// Loading reports whether a fetch is in flight.
func (c *Composer) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Composer) applyBatch(b *suggest.Batch) {
	sentences := b.Sentences
	if !c.state.SentenceSmallMargin() && len(sentences) > c.lineLimit {
		sentences = sentences[:c.lineLimit]
	}
	normalized := make([]string, len(sentences))
	for i, s := range sentences {
		normalized[i] = textnorm.Normalize(s, false)
	}
	words := make([]string, len(b.Words))
	for i, w := range b.Words {
		words[i] = textnorm.Normalize(w, false)
	}
	words = utils.Dedupe(words)

	c.mu.Lock()
	c.sentences = normalized
	c.words = words
	c.mu.Unlock()
	c.emitSuggestions(normalized, words)
}

func (c *Composer) clearSuggestions() {
	c.mu.Lock()
	c.sentences = nil
	c.words = nil
	c.mu.Unlock()
	c.emitSuggestions(nil, nil)
}

func (c *Composer) emitSuggestions(sentences, words []string) {
	if c.listener.OnSuggestions != nil {
		c.listener.OnSuggestions(sentences, words)
	}
}

func (c *Composer) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
	if c.listener.OnLoading != nil {
		c.listener.OnLoading(v)
	}
}

func (c *Composer) notice(err error) {
	c.logger.Warnf("Suggestion fetch failed: %v", err)
	if c.listener.OnNotice != nil {
		c.listener.OnNotice(err)
	}
}
