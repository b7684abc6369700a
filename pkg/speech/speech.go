// Package speech defines the text-to-speech and speech recognition contracts
// used by the composer, with OpenAI backed implementations.
package speech

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// Utterance is one piece of text to speak.
type Utterance struct {
	Text   string
	Locale string
	// Rate is a multiplier, 1.0 is normal speed.
	Rate  float64
	Pitch float64
	Voice string
}

// Speaker speaks an utterance and returns once playback is done.
type Speaker interface {
	Speak(ctx context.Context, u Utterance) error
}

// Recognizer listens once and returns the transcript.
type Recognizer interface {
	Recognize(ctx context.Context, locale string) (string, error)
}

// Audio is a recorded clip. Name carries the file extension the
// transcription backend uses to detect the format.
type Audio struct {
	Reader io.Reader
	Name   string
}

// AudioSource yields a clip to transcribe.
type AudioSource interface {
	Record(ctx context.Context) (Audio, io.Closer, error)
}

// FileSource reads the clip from a file on every Record call.
type FileSource string

// Record implements AudioSource.
func (f FileSource) Record(ctx context.Context) (Audio, io.Closer, error) {
	if err := ctx.Err(); err != nil {
		return Audio{}, nil, err
	}
	file, err := os.Open(string(f))
	if err != nil {
		return Audio{}, nil, err
	}
	return Audio{Reader: file, Name: filepath.Base(string(f))}, file, nil
}

// Nop is a Speaker and Recognizer that does nothing.
type Nop struct{}

// Speak implements Speaker.
func (Nop) Speak(ctx context.Context, _ Utterance) error { return ctx.Err() }

// Recognize implements Recognizer and always hears silence.
func (Nop) Recognize(ctx context.Context, _ string) (string, error) { return "", ctx.Err() }
