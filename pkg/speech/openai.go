package speech

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultVoice = "alloy"
	minSpeed     = 0.25
	maxSpeed     = 4.0
)

// SpeechCreator is the part of *openai.Client the speaker uses.
type SpeechCreator interface {
	CreateSpeech(ctx context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error)
}

// Transcriber is the part of *openai.Client the recognizer uses.
type Transcriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// OpenAISpeaker synthesizes speech and copies the audio to a sink, usually
// a player's stdin.
type OpenAISpeaker struct {
	client SpeechCreator
	model  openai.SpeechModel
	sink   io.Writer
}

// NewOpenAISpeaker returns a speaker writing mp3 audio to sink.
func NewOpenAISpeaker(client SpeechCreator, sink io.Writer) *OpenAISpeaker {
	return &OpenAISpeaker{client: client, model: openai.TTSModel1, sink: sink}
}

// Speak implements Speaker. Pitch has no equivalent and is ignored.
func (s *OpenAISpeaker) Speak(ctx context.Context, u Utterance) error {
	if strings.TrimSpace(u.Text) == "" {
		return nil
	}
	voice := u.Voice
	if voice == "" {
		voice = DefaultVoice
	}
	if u.Pitch != 0 && u.Pitch != 1 {
		log.Debugf("speech pitch %.2f ignored", u.Pitch)
	}

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          s.model,
		Input:          u.Text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          speed(u.Rate),
	})
	if err != nil {
		return fmt.Errorf("create speech: %w", err)
	}
	defer resp.Close()

	if _, err := io.Copy(s.sink, resp); err != nil {
		return fmt.Errorf("write speech audio: %w", err)
	}
	return nil
}

func speed(rate float64) float64 {
	switch {
	case rate == 0:
		return 1
	case rate < minSpeed:
		return minSpeed
	case rate > maxSpeed:
		return maxSpeed
	}
	return rate
}

// WhisperRecognizer transcribes clips from an AudioSource.
type WhisperRecognizer struct {
	client Transcriber
	source AudioSource
	model  string
}

// NewWhisperRecognizer returns a recognizer reading clips from source.
func NewWhisperRecognizer(client Transcriber, source AudioSource) *WhisperRecognizer {
	return &WhisperRecognizer{client: client, source: source, model: openai.Whisper1}
}

// Recognize implements Recognizer. The locale's language part selects the
// transcription language.
func (r *WhisperRecognizer) Recognize(ctx context.Context, locale string) (string, error) {
	audio, closer, err := r.source.Record(ctx)
	if err != nil {
		return "", fmt.Errorf("record audio: %w", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	resp, err := r.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    r.model,
		Language: languageOf(locale),
		Format:   openai.AudioResponseFormatJSON,
		Reader:   audio.Reader,
		FilePath: audio.Name,
	})
	if err != nil {
		return "", fmt.Errorf("transcribe audio: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// languageOf maps "ja-JP" to "ja".
func languageOf(locale string) string {
	lang, _, _ := strings.Cut(locale, "-")
	return strings.ToLower(lang)
}
