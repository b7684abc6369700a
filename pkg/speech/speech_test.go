package speech

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSpeech struct {
	got   openai.CreateSpeechRequest
	calls int
	err   error
}

func (f *fakeSpeech) CreateSpeech(_ context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error) {
	f.calls++
	f.got = req
	if f.err != nil {
		return openai.RawResponse{}, f.err
	}
	return openai.RawResponse{ReadCloser: io.NopCloser(strings.NewReader("mp3-bytes"))}, nil
}

func TestOpenAISpeaker(t *testing.T) {
	client := &fakeSpeech{}
	var sink bytes.Buffer
	s := NewOpenAISpeaker(client, &sink)

	require.NoError(t, s.Speak(context.Background(), Utterance{Text: "こんにちは", Locale: "ja-JP", Rate: 9}))
	assert.Equal(t, "mp3-bytes", sink.String())
	assert.Equal(t, "こんにちは", client.got.Input)
	assert.Equal(t, openai.SpeechVoice(DefaultVoice), client.got.Voice)
	assert.Equal(t, maxSpeed, client.got.Speed)

	require.NoError(t, s.Speak(context.Background(), Utterance{Text: "  "}))
	assert.Equal(t, 1, client.calls)
}

func TestOpenAISpeakerError(t *testing.T) {
	boom := errors.New("boom")
	s := NewOpenAISpeaker(&fakeSpeech{err: boom}, io.Discard)
	assert.ErrorIs(t, s.Speak(context.Background(), Utterance{Text: "hi"}), boom)
}

func TestSpeed(t *testing.T) {
	assert.Equal(t, 1.0, speed(0))
	assert.Equal(t, minSpeed, speed(0.1))
	assert.Equal(t, 1.5, speed(1.5))
}

type fakeTranscriber struct {
	got  openai.AudioRequest
	body string
}

func (f *fakeTranscriber) CreateTranscription(_ context.Context, req openai.AudioRequest) (openai.AudioResponse, error) {
	f.got = req
	b, err := io.ReadAll(req.Reader)
	if err != nil {
		return openai.AudioResponse{}, err
	}
	f.body = string(b)
	return openai.AudioResponse{Text: " はい \n"}, nil
}

func TestWhisperRecognizer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o644))

	client := &fakeTranscriber{}
	r := NewWhisperRecognizer(client, FileSource(path))

	got, err := r.Recognize(context.Background(), "ja-JP")
	require.NoError(t, err)
	assert.Equal(t, "はい", got)
	assert.Equal(t, "ja", client.got.Language)
	assert.Equal(t, "clip.wav", client.got.FilePath)
	assert.Equal(t, "RIFF", client.body)
}

func TestWhisperRecognizerMissingFile(t *testing.T) {
	r := NewWhisperRecognizer(&fakeTranscriber{}, FileSource(filepath.Join(t.TempDir(), "none.wav")))
	_, err := r.Recognize(context.Background(), "en-US")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, Nop{}.Speak(ctx, Utterance{Text: "x"}))
	got, err := Nop{}.Recognize(ctx, "en-US")
	assert.NoError(t, err)
	assert.Empty(t, got)
}
