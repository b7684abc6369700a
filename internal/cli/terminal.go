package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bastiangx/phrasekit/pkg/composer"
	"github.com/bastiangx/phrasekit/pkg/session"
	"github.com/bastiangx/phrasekit/pkg/settings"
	"github.com/bastiangx/phrasekit/pkg/suggest"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
	textStyle    = lipgloss.NewStyle().Bold(true)
	wordStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	leadingStyle = lipgloss.NewStyle().Faint(true)
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// Terminal renders composer state. Every method writes once, so output
// from fetch callbacks does not interleave with the loop's.
type Terminal struct {
	w io.Writer
}

// NewTerminal wraps w with a lock.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: &lockedWriter{w: w}}
}

func (t *Terminal) write(s string) {
	fmt.Fprintln(t.w, s)
}

// Title prints a heading.
func (t *Terminal) Title(s string) { t.write(titleStyle.Render(s)) }

// Line prints s unstyled.
func (t *Terminal) Line(s string) { t.write(s) }

// Hint prints s dimmed.
func (t *Terminal) Hint(s string) { t.write(hintStyle.Render(s)) }

// Error prints err.
func (t *Terminal) Error(err error) { t.write(errorStyle.Render("error: " + err.Error())) }

// Notice prints a failed fetch. Recoverable ones are only hinted.
func (t *Terminal) Notice(err error) {
	if suggest.IsRecoverable(err) {
		t.Hint("suggestions unavailable, retrying on next input: " + err.Error())
		return
	}
	t.Error(err)
}

// State prints the text and the current suggestions.
func (t *Terminal) State(c *composer.Composer) {
	var b strings.Builder
	st := c.State()
	text := c.Text()
	if text == "" && c.Placeholder() != "" {
		text = hintStyle.Render(c.Placeholder())
	}
	fmt.Fprintf(&b, "%s %s", hintStyle.Render(fmt.Sprintf("[%s/%s]", st.Language().ID(), st.Keyboard())), textStyle.Render("> "+text))
	if e := st.Emotion(); e != "" {
		fmt.Fprintf(&b, " %s", hintStyle.Render("("+e+")"))
	}
	if c.Loading() {
		fmt.Fprintf(&b, " %s", hintStyle.Render("..."))
	}
	b.WriteString("\n")
	renderSuggestions(&b, c)
	t.write(strings.TrimRight(b.String(), "\n"))
}

// Settings prints every setting under the key ':set' takes.
func (t *Terminal) Settings(st session.Settings) {
	rows := [][2]string{
		{settings.KeyAIConfig, st.Tier},
		{settings.KeyPersona, st.Persona},
		{settings.KeyTTSVoice, st.VoiceName},
		{settings.KeyVoiceSpeakingRate, fmt.Sprint(st.VoiceRate)},
		{settings.KeyVoicePitch, fmt.Sprint(st.VoicePitch)},
		{settings.KeyCheckedLanguages, strings.Join(st.CheckedLanguages, ", ")},
		{settings.KeyInitialPhrases, strings.Join(st.InitialPhrases, ", ")},
		{settings.KeyEnableEarcons, fmt.Sprint(st.EnableEarcons)},
		{settings.KeySentenceSmallMargin, fmt.Sprint(st.SentenceSmallMargin)},
		{settings.KeyExpandAtOrigin, fmt.Sprint(st.ExpandAtOrigin)},
	}
	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "%s %s\n", hintStyle.Render(fmt.Sprintf("%-20s", r[0])), r[1])
	}
	t.write(strings.TrimRight(b.String(), "\n"))
}

// Suggestions prints only the suggestions.
func (t *Terminal) Suggestions(c *composer.Composer) {
	if c == nil {
		return
	}
	var b strings.Builder
	renderSuggestions(&b, c)
	t.write(strings.TrimRight(b.String(), "\n"))
}

// renderSuggestions folds the words a suggestion shares with the text into
// an ellipsis, unless expandAtOrigin asks for the whole sentence.
func renderSuggestions(b *strings.Builder, c *composer.Composer) {
	expand := c.State().ExpandAtOrigin()
	for i, stripe := range c.Stripes() {
		fmt.Fprintf(b, "%2d. ", i+1)
		if lead := stripe.Leading(); len(lead) > 0 {
			if expand {
				fmt.Fprintf(b, "%s ", leadingStyle.Render(strings.Join(lead, " ")))
			} else {
				fmt.Fprintf(b, "%s ", leadingStyle.Render("…"))
			}
		}
		for _, f := range stripe.Fragments() {
			fmt.Fprintf(b, "%s%s ", wordStyle.Render(f.Word), hintStyle.Render(fmt.Sprintf("%d", f.Index+1)))
		}
		b.WriteString("\n")
	}
	if words := c.Words(); len(words) > 0 {
		b.WriteString("   ")
		for i, w := range words {
			fmt.Fprintf(b, "%s %s  ", hintStyle.Render(fmt.Sprintf("w%d", i+1)), wordStyle.Render(w))
		}
		b.WriteString("\n")
	}
}
