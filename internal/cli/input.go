// Package cli is an interactive composer for trying phrasekit from a
// terminal.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/phrasekit/pkg/composer"
)

const helpText = `lines replace the text; commands start with ':'
  +abc        type a, b, c one character at a time
  :s N M      take suggestion N up to word M
  :w N        append word N
  :b :d :u    backspace, delete, undo
  :speak      speak the text
  :partner T  record the partner's reply
  :close      dismiss the partner's reply
  :lang :kb   next language, next keyboard
  :emo L      set the emotion, ':emo' clears it
  :set K V    store setting K, ':set' lists them
  :show       print the current state
  :q          quit`

// InputHandler reads commands from in and drives a composer.
type InputHandler struct {
	in   io.Reader
	term *Terminal
	comp *composer.Composer
	// SpeakTimeout bounds :speak.
	SpeakTimeout time.Duration
}

// NewInputHandler writes everything to out.
func NewInputHandler(in io.Reader, out io.Writer) *InputHandler {
	return &InputHandler{
		in:           in,
		term:         NewTerminal(out),
		SpeakTimeout: time.Minute,
	}
}

// Listener prints suggestions as they arrive. Pass it to composer.New.
func (h *InputHandler) Listener() composer.Listener {
	return composer.Listener{
		OnSuggestions: func(sentences, words []string) {
			if len(sentences) == 0 && len(words) == 0 {
				return
			}
			h.term.Suggestions(h.comp)
		},
		OnNotice: func(err error) {
			h.term.Notice(err)
		},
		OnPartnerInput: func(transcript string) {
			h.term.Line("partner: " + transcript)
		},
		OnRecall: func(sentence string) {
			h.term.Hint("remembered: " + sentence)
		},
	}
}

// Start runs the loop until the input ends, ':q' or ctx is done.
func (h *InputHandler) Start(ctx context.Context, comp *composer.Composer) error {
	h.comp = comp
	h.term.Title("phrasekit")
	h.term.Line(helpText)
	h.term.State(comp)

	scanner := bufio.NewScanner(h.in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		if quit := h.handleInput(ctx, line); quit {
			return nil
		}
	}
	return scanner.Err()
}

// handleInput runs one line and reports whether the loop should stop.
func (h *InputHandler) handleInput(ctx context.Context, line string) bool {
	c := h.comp
	log.Debug("Processing input", "line", line)

	switch {
	case strings.HasPrefix(line, "+"):
		for _, r := range line[1:] {
			c.TypeCharacter(string(r))
		}
		h.term.State(c)
		return false
	case !strings.HasPrefix(line, ":"):
		c.SetKeyboardText(line)
		h.term.State(c)
		return false
	}

	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "q", "quit":
		return true
	case "s":
		n, m, err := twoInts(arg)
		if err != nil {
			h.term.Error(err)
			return false
		}
		if !c.SelectSentence(n-1, m-1) {
			h.term.Error(fmt.Errorf("no word %d in suggestion %d", m, n))
			return false
		}
	case "w":
		n, err := strconv.Atoi(arg)
		words := c.Words()
		if err != nil || n < 1 || n > len(words) {
			h.term.Error(fmt.Errorf("no word %q", arg))
			return false
		}
		c.SelectWord(words[n-1])
	case "b":
		c.Backspace()
	case "d":
		c.Delete()
	case "u":
		c.Undo()
	case "speak":
		speakCtx, cancel := context.WithTimeout(ctx, h.SpeakTimeout)
		err := c.Speak(speakCtx)
		cancel()
		if err != nil {
			h.term.Error(err)
			return false
		}
	case "partner":
		c.PartnerSpoke(arg)
	case "close":
		c.SnackbarClosed()
	case "lang":
		h.term.Hint("language: " + c.NextLanguage())
	case "kb":
		h.term.Hint("keyboard: " + c.NextKeyboard())
	case "emo":
		c.SetEmotion(arg)
	case "set":
		key, value, _ := strings.Cut(arg, " ")
		if key == "" {
			h.term.Settings(c.State().Settings())
			return false
		}
		if err := c.State().Set(key, strings.TrimSpace(value)); err != nil {
			h.term.Error(err)
			return false
		}
	case "show":
	case "help", "h":
		h.term.Line(helpText)
		return false
	default:
		h.term.Error(fmt.Errorf("unknown command %q", cmd))
		return false
	}
	h.term.State(c)
	return false
}

func twoInts(arg string) (int, int, error) {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("want two numbers, got %q", arg)
	}
	a, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, err
	}
	b, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// lockedWriter serializes writes from the loop and from fetch callbacks.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
