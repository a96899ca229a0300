// file: internal/ai/openai_parser_test.go
// version: 2.0.0
// guid: 1b2c3d4e-5f6a-7b8c-9d0e-1f2a3b4c5d6e

package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOpenAI serves a chat completion whose message content is content
func fakeOpenAI(t *testing.T, status int, content string, captured *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if captured != nil {
			*captured = string(body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
			return
		}
		msg, _ := json.Marshal(content)
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-test",
			"object": "chat.completion",
			"model": "gpt-4.1-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": ` + string(msg) + `}, "finish_reason": "stop"}]
		}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestGuesser(url string) *OpenAIGuesser {
	return NewOpenAIGuesser("fake-key", "", option.WithBaseURL(url), option.WithMaxRetries(0))
}

func TestNewOpenAIGuesser_Disabled(t *testing.T) {
	g := NewOpenAIGuesser("  ", "gpt-4o")
	assert.False(t, g.Enabled())
	assert.Nil(t, g.client)

	_, err := g.Guess(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrDisabled)
	assert.ErrorIs(t, g.TestConnection(context.Background()), ErrDisabled)
}

func TestNewOpenAIGuesser_DefaultModel(t *testing.T) {
	g := NewOpenAIGuesser("key", "")
	assert.True(t, g.Enabled())
	assert.Equal(t, DefaultModel, g.Model())
	assert.Equal(t, "gpt-4o", NewOpenAIGuesser("key", "gpt-4o").Model())
}

func TestGuess_FencedResponse(t *testing.T) {
	var body string
	srv := fakeOpenAI(t, http.StatusOK,
		"```json\n{\"artist\": \"Tom Petty\", \"title\": \"Free Fallin'\", \"album\": \"Full Moon Fever\", \"leading_track_number\": \"03\"}\n```",
		&body)

	g, err := newTestGuesser(srv.URL).Guess(context.Background(), "tom petty free fallin")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, &Guess{Artist: "Tom Petty", Title: "Free Fallin'", Album: "Full Moon Fever", LeadingTrackNumber: "03"}, g)

	assert.Contains(t, body, "tom petty free fallin")
	assert.Contains(t, body, DefaultModel)
}

func TestGuess_MalformedIsNotAnError(t *testing.T) {
	srv := fakeOpenAI(t, http.StatusOK, "I am not sure what song this is.", nil)

	g, err := newTestGuesser(srv.URL).Guess(context.Background(), "zzz")
	require.NoError(t, err)
	assert.Nil(t, g)
}

func TestGuess_APIError(t *testing.T) {
	srv := fakeOpenAI(t, http.StatusInternalServerError, "", nil)

	_, err := newTestGuesser(srv.URL).Guess(context.Background(), "zzz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OpenAI API call failed")
}

func TestGuess_EmptyFragment(t *testing.T) {
	g, err := newTestGuesser("http://127.0.0.1:0").Guess(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, g)
}

func TestGuess_ContextCancellation(t *testing.T) {
	srv := fakeOpenAI(t, http.StatusOK, "{}", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestGuesser(srv.URL).Guess(ctx, "zzz")
	assert.Error(t, err)
}
