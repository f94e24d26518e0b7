package tagging

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/sipeed/taskclaw/pkg/logger"
)

const tagPrompt = "You label project tasks. Reply with at most five short lowercase tags, " +
	"comma separated, nothing else. Prefer: bug, api, urgent, feature."

// OpenAISuggester asks a chat model for tags and falls back to keyword
// matching when the call fails or returns nothing usable.
type OpenAISuggester struct {
	client   openai.Client
	model    string
	fallback Suggester
}

func NewOpenAISuggester(apiKey, baseURL, model string) *OpenAISuggester {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAISuggester{
		client:   openai.NewClient(opts...),
		model:    model,
		fallback: KeywordSuggester{},
	}
}

func (s *OpenAISuggester) Suggest(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	tags, err := s.ask(ctx, text)
	if err != nil || len(tags) == 0 {
		fields := map[string]any{"model": s.model}
		if err != nil {
			fields["error"] = err.Error()
		}
		logger.WarnCF("tagging", "LLM tag suggestion unavailable, using keywords", fields)
		return s.fallback.Suggest(ctx, text)
	}
	return tags, nil
}

func (s *OpenAISuggester) ask(ctx context.Context, text string) ([]string, error) {
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(tagPrompt),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, nil
	}

	var tags []string
	for _, tag := range ParseList(resp.Choices[0].Message.Content) {
		tags = append(tags, strings.ToLower(strings.Trim(tag, ".# ")))
	}
	return Merge(tags), nil
}

// New picks the LLM suggester when an API key is configured.
func New(apiKey, baseURL, model string) Suggester {
	if strings.TrimSpace(apiKey) == "" {
		return KeywordSuggester{}
	}
	return NewOpenAISuggester(apiKey, baseURL, model)
}
