package macroapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bastiangx/phrasekit/pkg/suggest"
)

func TestRunMacroPostsForm(t *testing.T) {
	var method, path string
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		method, path = r.Method, r.URL.Path
		form = map[string]string{
			"id":          r.PostForm.Get("id"),
			"userInputs":  r.PostForm.Get("userInputs"),
			"temperature": r.PostForm.Get("temperature"),
			"model_id":    r.PostForm.Get("model_id"),
			"_csrf_token": r.PostForm.Get("_csrf_token"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"text":"1. Hello\n2. Hi"},{"text":"ignored"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/run-macro", "tok", nil)
	resp, err := c.RunMacro(context.Background(), suggest.MacroRequest{
		TemplateID:  "SentenceGeneric20250311",
		ModelID:     "gemini-2.0-flash-001",
		Temperature: 0,
		UserInputs:  map[string]string{"text": "H", "num": "5"},
	})
	require.NoError(t, err)
	assert.Equal(t, "1. Hello\n2. Hi", resp.Text())

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/run-macro", path)
	assert.Equal(t, "SentenceGeneric20250311", form["id"])
	assert.Equal(t, "0", form["temperature"])
	assert.Equal(t, "gemini-2.0-flash-001", form["model_id"])
	assert.Equal(t, "tok", form["_csrf_token"])

	var inputs map[string]string
	require.NoError(t, json.Unmarshal([]byte(form["userInputs"]), &inputs))
	assert.Equal(t, map[string]string{"text": "H", "num": "5"}, inputs)
}

func serve(status int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestRunMacroResponses(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantText    string
		wantErr     error
		recoverable bool
	}{
		{name: "empty list", status: 200, body: `{"messages":[]}`, wantText: ""},
		{name: "missing messages", status: 200, body: `{"other":1}`, wantErr: suggest.ErrMalformedResponse, recoverable: true},
		{name: "not json", status: 200, body: `<html>`, wantErr: suggest.ErrMalformedResponse, recoverable: true},
		{name: "server error", status: 503, body: `busy`, wantErr: suggest.ErrRecoverable, recoverable: true},
		{name: "forbidden", status: 403, body: `csrf`, wantErr: suggest.ErrFatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(tt.status, tt.body)
			defer srv.Close()

			resp, err := New(srv.URL, "", nil).RunMacro(context.Background(), suggest.MacroRequest{TemplateID: "x"})
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.wantText, resp.Text())
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.recoverable, suggest.IsRecoverable(err))
		})
	}
}

func TestRunMacroCanceled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := New(srv.URL, "", nil).RunMacro(ctx, suggest.MacroRequest{TemplateID: "x"})
	require.Error(t, err)
	assert.True(t, suggest.IsCanceled(err))
}
