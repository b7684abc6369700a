package openai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bastiangx/phrasekit/pkg/suggest"
)

func TestBuiltinTemplates(t *testing.T) {
	ids := Builtin().IDs()
	for _, want := range []string{
		"SentenceGeneric20250311",
		"SentenceJapanese20240628",
		"SentenceJapaneseLong20241002",
		"SentenceJapaneseLong20250603",
		"WordGeneric20240628",
	} {
		assert.Contains(t, ids, want)
	}
}

func TestExpandConditionals(t *testing.T) {
	tmpl := Templates{"t": strings.Join([]string{
		"#ifdef lastInputSpeech",
		"Partner said [[lastInputSpeech]].",
		"#ifdef persona",
		"You are [[persona]].",
		"#endif",
		"Continue \\",
		"#else",
		"Start \\",
		"#endif",
		"\"[[text]]\".",
	}, "\n")}

	got, err := tmpl.Expand("t", map[string]string{"text": "I am"})
	require.NoError(t, err)
	assert.Equal(t, "Start \"I am\".", got)

	got, err = tmpl.Expand("t", map[string]string{"text": "I am", "lastInputSpeech": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Partner said hi.\nContinue \"I am\".", got)

	got, err = tmpl.Expand("t", map[string]string{"text": "I am", "lastInputSpeech": "hi", "persona": "a pilot"})
	require.NoError(t, err)
	assert.Equal(t, "Partner said hi.\nYou are a pilot.\nContinue \"I am\".", got)
}

func TestExpandErrors(t *testing.T) {
	_, err := Templates{}.Expand("missing", nil)
	assert.Error(t, err)

	_, err = Templates{"t": "#ifdef a\nx"}.Expand("t", nil)
	assert.Error(t, err)

	_, err = Templates{"t": "x\n#endif"}.Expand("t", nil)
	assert.Error(t, err)

	_, err = Templates{"t": "#else"}.Expand("t", nil)
	assert.Error(t, err)
}

func TestExpandBuiltinSentence(t *testing.T) {
	got, err := Builtin().Expand("SentenceGeneric20250311", map[string]string{
		"language":        "English",
		"num":             "5",
		"text":            "I want",
		"sentenceEmotion": "Question",
	})
	require.NoError(t, err)
	assert.Contains(t, got, `Please guess and generate a list of 5 different sentences that start with "I want". `+"\nNote that")
	assert.Contains(t, got, "input a Question sentence")
	assert.NotContains(t, got, "#ifdef")
	assert.NotContains(t, got, "[[")
	assert.NotContains(t, got, "Partner:")
	assert.NotContains(t, got, "profile")
}

func TestMarkSpaces(t *testing.T) {
	tests := []struct {
		id, language, text, want string
	}{
		{"SentenceGeneric20250311", "English", "I am ", "I am "},
		{"WordGeneric20240628", "English", "I am ", "I§am "},
		{"WordGeneric20240628", "English", "I am", "I§am"},
		{"SentenceJapanese20240628", "Japanese", "今日 は ", "今日§は§"},
		{"WordGeneric20240628", "Japanese", "今日 は ", "今日§は "},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, markSpaces(tt.id, tt.language, tt.text), "%s/%s %q", tt.id, tt.language, tt.text)
	}
}

func TestClean(t *testing.T) {
	assert.Equal(t, "1. Hello there", Clean("1. **Hello**§there", "English"))
	assert.Equal(t, "1. 今日は晴れです。", Clean("1. 今日は 晴れです。", "Japanese"))
	assert.Equal(t, "1. I am ok", Clean("1. I am ok", "Japanese"))
}

type fakeChat struct {
	got  openai.ChatCompletionRequest
	resp openai.ChatCompletionResponse
	err  error
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.got = req
	return f.resp, f.err
}

func reply(text string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: text}},
	}}
}

func TestRunMacro(t *testing.T) {
	chat := &fakeChat{resp: reply("1. *Hello*\n2. Hi")}
	p := NewWithClient(chat, Builtin())

	resp, err := p.RunMacro(context.Background(), suggest.MacroRequest{
		TemplateID:  "WordGeneric20240628",
		ModelID:     "gemini-2.0-flash-001",
		Temperature: 0,
		UserInputs:  map[string]string{"text": "Hel", "num": "5", "language": "English"},
	})
	require.NoError(t, err)
	assert.Equal(t, "1. Hello\n2. Hi", resp.Text())
	assert.Equal(t, []string{"Hello", "Hi"}, suggest.ParseResponse(resp.Text()))

	assert.Equal(t, "gemini-2.0-flash-001", chat.got.Model)
	require.Len(t, chat.got.Messages, 1)
	assert.Contains(t, chat.got.Messages[0].Content, `sentence: "Hel"`)
}

func TestRunMacroEmptyReply(t *testing.T) {
	p := NewWithClient(&fakeChat{}, Builtin())
	resp, err := p.RunMacro(context.Background(), suggest.MacroRequest{
		TemplateID: "SentenceGeneric20250311",
		UserInputs: map[string]string{"text": "x"},
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Messages)
}

func TestRunMacroErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewWithClient(&fakeChat{}, Templates{}).RunMacro(ctx, suggest.MacroRequest{TemplateID: "nope"})
	assert.True(t, suggest.IsFatal(err))

	limited := &fakeChat{err: &openai.APIError{HTTPStatusCode: 429, Message: "slow down"}}
	_, err = NewWithClient(limited, Builtin()).RunMacro(ctx, suggest.MacroRequest{TemplateID: "WordGeneric20240628"})
	assert.True(t, suggest.IsRecoverable(err))

	denied := &fakeChat{err: &openai.APIError{HTTPStatusCode: 401, Message: "bad key"}}
	_, err = NewWithClient(denied, Builtin()).RunMacro(ctx, suggest.MacroRequest{TemplateID: "WordGeneric20240628"})
	assert.True(t, suggest.IsFatal(err))

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewWithClient(&fakeChat{err: errors.New("aborted")}, Builtin()).
		RunMacro(canceled, suggest.MacroRequest{TemplateID: "WordGeneric20240628"})
	assert.True(t, suggest.IsCanceled(err))
}

func TestLoadTemplatesMerge(t *testing.T) {
	fsys := fstest.MapFS{
		"custom/WordGeneric20240628.txt": {Data: []byte("words after [[text]]")},
		"custom/Mine.txt":                {Data: []byte("mine [[text]]")},
		"custom/readme.md":               {Data: []byte("ignored")},
	}
	custom, err := LoadTemplates(fsys, "custom")
	require.NoError(t, err)
	assert.Equal(t, []string{"Mine", "WordGeneric20240628"}, custom.IDs())

	merged := Builtin().Merge(custom)
	got, err := merged.Expand("WordGeneric20240628", map[string]string{"text": "a b"})
	require.NoError(t, err)
	assert.Equal(t, "words after a§b", got)
	assert.Contains(t, merged.IDs(), "SentenceGeneric20250311")
}
