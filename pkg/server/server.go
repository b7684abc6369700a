package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bastiangx/phrasekit/pkg/composer"
	"github.com/bastiangx/phrasekit/pkg/session"
	"github.com/bastiangx/phrasekit/pkg/suggest"
)

// DefaultSpeakTimeout bounds one speak op, listening included.
const DefaultSpeakTimeout = 2 * time.Minute

// Server handles the IPC for one composer.
type Server struct {
	dec    *msgpack.Decoder
	logger *log.Logger

	// SpeakTimeout bounds the speak op. Zero means DefaultSpeakTimeout.
	SpeakTimeout time.Duration

	mu  sync.Mutex
	enc *msgpack.Encoder

	comp *composer.Composer
}

// NewServer reads requests from r and writes frames to w.
func NewServer(r io.Reader, w io.Writer, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		dec:    msgpack.NewDecoder(r),
		enc:    msgpack.NewEncoder(w),
		logger: logger,
	}
}

// Listener pushes composer updates as events. Pass it to composer.New.
func (s *Server) Listener() composer.Listener {
	return composer.Listener{
		OnSuggestions: func(sentences, words []string) {
			s.sendEvent(Event{Event: EventSuggestions, Sentences: sentences, Words: words})
		},
		OnLoading: func(v bool) {
			s.sendEvent(Event{Event: EventLoading, Loading: v})
		},
		OnNotice: func(err error) {
			s.sendEvent(Event{Event: EventError, Error: err.Error(), Recoverable: suggest.IsRecoverable(err)})
		},
		OnPartnerInput: func(transcript string) {
			s.sendEvent(Event{Event: EventPartner, Text: transcript})
		},
		OnRecall: func(sentence string) {
			s.sendEvent(Event{Event: EventRecall, Text: sentence})
		},
	}
}

// Start serves requests until the input ends or ctx is done. The context is
// checked between frames; a blocked read only returns with the input.
func (s *Server) Start(ctx context.Context, comp *composer.Composer) error {
	s.comp = comp
	s.logger.Debug("Starting Server.")
	s.send(Response{Status: "ready"})

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		var req Request
		if err := s.dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return fmt.Errorf("read request: %w", err)
			}
			s.logger.Errorf("Decoding request: %v", err)
			s.sendError("", "invalid msgpack request", CodeBadRequest)
			continue
		}
		s.handleRequest(ctx, req)
	}
}

func (s *Server) handleRequest(ctx context.Context, req Request) {
	c := s.comp
	s.logger.Debugf("Request %s: %s", req.ID, req.Op)

	switch req.Op {
	case OpHealth:
		s.send(Response{ID: req.ID, Status: "ok"})
		return
	case OpState:
	case OpType:
		if req.Text == "" {
			s.sendError(req.ID, "missing 'text' parameter", CodeBadRequest)
			return
		}
		c.TypeCharacter(req.Text)
	case OpSetText:
		c.SetKeyboardText(req.Text)
	case OpBackspace:
		c.Backspace()
	case OpDelete:
		c.Delete()
	case OpUndo:
		c.Undo()
	case OpSelectSentence:
		if !c.SelectSentence(req.Stripe, req.Word) {
			s.sendError(req.ID, fmt.Sprintf("no word %d in suggestion %d", req.Word, req.Stripe), CodeNotFound)
			return
		}
	case OpSelectWord:
		if req.Text == "" {
			s.sendError(req.ID, "missing 'text' parameter", CodeBadRequest)
			return
		}
		c.SelectWord(req.Text)
	case OpSnackbarClose:
		c.SnackbarClosed()
	case OpSpeak:
		timeout := s.SpeakTimeout
		if timeout <= 0 {
			timeout = DefaultSpeakTimeout
		}
		speakCtx, cancel := context.WithTimeout(ctx, timeout)
		err := c.Speak(speakCtx)
		cancel()
		if err != nil {
			s.logger.Errorf("Speaking: %v", err)
			s.sendError(req.ID, err.Error(), CodeInternal)
			return
		}
	case OpPartner:
		if req.Text == "" {
			s.sendError(req.ID, "missing 'text' parameter", CodeBadRequest)
			return
		}
		c.PartnerSpoke(req.Text)
	case OpNextLanguage:
		s.send(Response{ID: req.ID, Status: "ok", Value: c.NextLanguage(), State: s.snapshot()})
		return
	case OpNextKeyboard:
		s.send(Response{ID: req.ID, Status: "ok", Value: c.NextKeyboard(), State: s.snapshot()})
		return
	case OpEmotion:
		c.SetEmotion(req.Text)
	case OpSetSetting:
		if req.Key == "" {
			s.sendError(req.ID, "missing 'key' parameter", CodeBadRequest)
			return
		}
		if err := c.State().Set(req.Key, req.Value); err != nil {
			s.logger.Debugf("Setting %s: %v", req.Key, err)
			s.sendError(req.ID, err.Error(), settingErrorCode(err))
			return
		}
	default:
		s.sendError(req.ID, fmt.Sprintf("unknown op: %s", req.Op), CodeBadRequest)
		return
	}
	s.send(Response{ID: req.ID, Status: "ok", State: s.snapshot()})
}

func (s *Server) snapshot() *Snapshot {
	c := s.comp
	st := c.State()
	snap := &Snapshot{
		Text:        c.Text(),
		Placeholder: c.Placeholder(),
		Language:    st.Language().ID(),
		Keyboard:    st.Keyboard(),
		Tier:        string(st.Tier()),
		Emotion:     st.Emotion(),
		Sentences:   c.Suggestions(),
		Words:       c.Words(),
		Loading:     c.Loading(),
		CanUndo:     c.CanUndo(),
		Settings:    st.Settings(),
	}
	for _, stripe := range c.Stripes() {
		snap.Stripes = append(snap.Stripes, StripeFrame{
			Suggestion: stripe.Suggestion(),
			Leading:    stripe.Leading(),
			Fragments:  stripe.Fragments(),
		})
	}
	return snap
}

// settingErrorCode maps a failed set_setting to a status code. Anything but
// a rejected key or value is a storage failure.
func settingErrorCode(err error) int {
	switch {
	case errors.Is(err, session.ErrUnknownSetting):
		return CodeNotFound
	case errors.Is(err, session.ErrSettingValue),
		errors.Is(err, session.ErrUnknownTier),
		errors.Is(err, session.ErrUnknownLanguage),
		errors.Is(err, session.ErrVoiceStep):
		return CodeBadRequest
	}
	return CodeInternal
}

func (s *Server) sendEvent(ev Event) {
	ev.ID = uuid.NewString()
	s.send(ev)
}

// send writes one frame. Events come from timer goroutines, so writes are
// serialized.
func (s *Server) send(frame any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(frame); err != nil {
		s.logger.Errorf("Encoding frame: %v", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	s.send(Response{ID: id, Status: "error", Error: message, Code: code})
}
