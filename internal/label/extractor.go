package label

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/travelmail/internal/budget"
	"github.com/hyperifyio/travelmail/internal/cache"
	"github.com/hyperifyio/travelmail/internal/llm"
)

var (
	// ErrEmptyResponse is returned when the model produced no content.
	ErrEmptyResponse = errors.New("empty model response")
	// ErrPromptTooLarge is returned when the prompt cannot fit the model
	// context with the reserved output budget.
	ErrPromptTooLarge = errors.New("prompt exceeds model context")
	// ErrNotJSON is returned when the answer is not a JSON document.
	ErrNotJSON = errors.New("model response is not valid JSON")
)

// Extractor produces the raw JSON label for one email text.
type Extractor interface {
	Extract(ctx context.Context, text string) (json.RawMessage, error)
}

// LLMExtractor asks an OpenAI-compatible chat model for the label.
type LLMExtractor struct {
	Client llm.Client
	Model  string
	Cache  *cache.LLMCache
	// CacheOnly fails with ErrEmptyResponse on a cache miss.
	CacheOnly bool
	// ReservedOutputTokens is kept free for the answer. Zero means 1024.
	ReservedOutputTokens int
	// JSONMode requests a json_object response format. Some local servers
	// reject the field, so it is off by default.
	JSONMode bool
}

// sleep is replaced in tests.
var sleep = time.Sleep

// Extract returns the model's JSON answer for text. Cached answers are
// returned without a call. A failed call is retried once.
func (x *LLMExtractor) Extract(ctx context.Context, text string) (json.RawMessage, error) {
	if x.Client == nil || strings.TrimSpace(x.Model) == "" {
		return nil, errors.New("extractor not configured")
	}
	user := BuildPrompt(text)
	reserved := x.ReservedOutputTokens
	if reserved <= 0 {
		reserved = 1024
	}
	if tokens := budget.EstimatePromptTokens(SystemMessage, user); !budget.FitsInContext(x.Model, reserved, tokens) {
		return nil, fmt.Errorf("%w: ~%d tokens for %s", ErrPromptTooLarge, tokens, x.Model)
	}

	key := cache.KeyFrom(x.Model, SystemMessage+"\n\n"+user)
	if x.Cache != nil {
		if raw, ok, _ := x.Cache.Get(ctx, key); ok && json.Valid(raw) {
			log.Debug().Str("key", key[:12]).Msg("llm cache hit")
			return json.RawMessage(raw), nil
		}
	}
	if x.CacheOnly {
		return nil, ErrEmptyResponse
	}

	req := openai.ChatCompletionRequest{
		Model: x.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemMessage},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: llm.ZeroTemperature,
		N:           1,
	}
	if x.JSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	resp, err := x.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		sleep(200 * time.Millisecond)
		resp, err = x.Client.CreateChatCompletion(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("extraction call (after retry): %w", err)
		}
	}
	log.Debug().Str("content", llm.ContentForLogging(resp, 200)).Msg("extraction response")
	out := llm.StripCodeFence(llm.FinalContent(resp))
	if out == "" {
		return nil, ErrEmptyResponse
	}
	if !json.Valid([]byte(out)) {
		return nil, fmt.Errorf("%w: %.80q", ErrNotJSON, out)
	}
	if x.Cache != nil {
		if err := x.Cache.Save(ctx, key, []byte(out)); err != nil {
			log.Warn().Err(err).Msg("llm cache save failed")
		}
	}
	return json.RawMessage(out), nil
}
