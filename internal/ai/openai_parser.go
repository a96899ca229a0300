// file: internal/ai/openai_parser.go
// version: 2.0.0
// guid: 9a0b1c2d-3e4f-5a6b-7c8d-9e0f1a2b3c4d

package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
)

// DefaultModel is used when no model is configured
const DefaultModel = "gpt-4.1-mini"

// ErrDisabled is returned by calls on a guesser without an API key
var ErrDisabled = errors.New("OpenAI guesser is not enabled")

const systemPrompt = `You identify songs from mangled audio filenames. Words may be truncated,
misspelled or joined by underscores. A leading number is usually the track number.

Return ONLY a JSON object with these fields (use null when unsure):
{
  "artist": "artist name",
  "title": "song title",
  "album": "album title",
  "leading_track_number": "03"
}`

// OpenAIGuesser asks an OpenAI chat model to guess artist and title from a
// cleaned filename fragment.
type OpenAIGuesser struct {
	client  *openai.Client
	model   string
	enabled bool
}

// NewOpenAIGuesser creates a guesser. With an empty apiKey the guesser is
// disabled and makes no network calls.
func NewOpenAIGuesser(apiKey, model string, opts ...option.RequestOption) *OpenAIGuesser {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return &OpenAIGuesser{enabled: false}
	}
	if model == "" {
		model = DefaultModel
	}

	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAIGuesser{
		client:  &client,
		model:   model,
		enabled: true,
	}
}

// Enabled returns whether the guesser has credentials
func (g *OpenAIGuesser) Enabled() bool {
	return g.enabled
}

// Model returns the configured chat model
func (g *OpenAIGuesser) Model() string {
	return g.model
}

// Guess sends the fragment to the model. A response without a usable JSON
// object yields nil and no error; transport and API failures are errors.
func (g *OpenAIGuesser) Guess(ctx context.Context, fragment string) (*Guess, error) {
	if !g.enabled {
		return nil, ErrDisabled
	}
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, nil
	}

	userPrompt := fmt.Sprintf("Filename part: %q", fragment)
	jsonObjectFormat := shared.NewResponseFormatJSONObjectParam()

	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Model:       shared.ChatModel(g.model),
		Temperature: param.NewOpt(0.3),
		MaxTokens:   param.NewOpt[int64](300),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &jsonObjectFormat,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := completion.Choices[0].Message.Content
	guess := ParseGuess(content)
	if guess == nil {
		log.Printf("[WARN] ai: no JSON object in model response for %q: %.200s", fragment, content)
		return nil, nil
	}
	log.Printf("[DEBUG] ai: guessed %q by %q for %q", guess.Title, guess.Artist, fragment)
	return guess, nil
}

// TestConnection checks the API key and model with a short request
func (g *OpenAIGuesser) TestConnection(ctx context.Context) error {
	if !g.enabled {
		return ErrDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := g.Guess(ctx, "Queen - Bohemian Rhapsody")
	return err
}
