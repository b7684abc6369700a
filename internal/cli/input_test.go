package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bastiangx/phrasekit/pkg/composer"
	"github.com/bastiangx/phrasekit/pkg/language"
	"github.com/bastiangx/phrasekit/pkg/provider/fake"
	"github.com/bastiangx/phrasekit/pkg/session"
	"github.com/bastiangx/phrasekit/pkg/suggest"
)

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func run(t *testing.T, script string) (*composer.Composer, *syncBuffer) {
	t.Helper()
	st, err := session.New(session.Options{Language: language.EnglishSingleRow})
	require.NoError(t, err)

	out := &syncBuffer{}
	h := NewInputHandler(strings.NewReader(script), out)
	c, err := composer.New(composer.Options{
		State:     st,
		Fetcher:   suggest.NewClient(fake.New(), nil),
		Scheduler: &suggest.SchedulerConfig{Window: time.Second},
		Listener:  h.Listener(),
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	require.NoError(t, h.Start(context.Background(), c))
	return c, out
}

func TestTypingAndEditing(t *testing.T) {
	c, out := run(t, "+Hey\n:b\n:u\n:b\n")
	assert.Equal(t, "He", c.Text())
	assert.Contains(t, out.String(), "> Hey")
}

func TestLineReplacesText(t *testing.T) {
	c, _ := run(t, "good morning\n")
	assert.Equal(t, "good morning", c.Text())
}

func TestSelectInitialPhrase(t *testing.T) {
	c, _ := run(t, ":w 1\n")
	assert.Equal(t, "I ", c.Text())
}

func TestQuitStopsReading(t *testing.T) {
	c, _ := run(t, "+a\n:q\n+b\n")
	assert.Equal(t, "a", c.Text())
}

func TestBadCommands(t *testing.T) {
	_, out := run(t, ":teleport\n:s 1\n:w 99\n:s 9 9\n")
	s := out.String()
	assert.Contains(t, s, `unknown command "teleport"`)
	assert.Contains(t, s, "want two numbers")
	assert.Contains(t, s, `no word "99"`)
	assert.Contains(t, s, "no word 9 in suggestion 9")
}

func TestLanguageAndEmotion(t *testing.T) {
	c, out := run(t, ":emo Question\n:kb\n")
	assert.Equal(t, "Question", c.State().Emotion())
	assert.Contains(t, out.String(), "keyboard: alphanumeric-single-row")
}

func TestSuggestionsArePrinted(t *testing.T) {
	_, out := run(t, "Hi\n")
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Hi") && strings.Contains(out.String(), " 1. ")
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSetCommand(t *testing.T) {
	c, out := run(t, ":set voiceSpeakingRate 3\n:set enableEarcons on\n:set persona retired nurse\n:set volume 1\n:set voicePitch loud\n:set\n")

	st := c.State().Settings()
	assert.Equal(t, 3.0, st.VoiceRate)
	assert.True(t, st.EnableEarcons)
	assert.Equal(t, "retired nurse", st.Persona)

	s := out.String()
	assert.Contains(t, s, `unknown setting: "volume"`)
	assert.Contains(t, s, "bad setting value for voicePitch")
	assert.Regexp(t, `persona\s+retired nurse`, s)
}

func TestExpandAtOriginShowsLeadingWords(t *testing.T) {
	_, folded := run(t, "I am so\n")
	require.Eventually(t, func() bool {
		return strings.Contains(folded.String(), " 1. … ")
	}, 2*time.Second, 5*time.Millisecond)

	_, expanded := run(t, ":set expandAtOrigin on\nI am so\n")
	require.Eventually(t, func() bool {
		return strings.Contains(expanded.String(), " 1. I am so ")
	}, 2*time.Second, 5*time.Millisecond)
	assert.NotContains(t, expanded.String(), " 1. … ")
}
