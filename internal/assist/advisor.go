package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/draftpad/draftpad/internal/prefs"
	"github.com/draftpad/draftpad/pkg/overlay"
	"github.com/samber/lo"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// LLMAdvisor produces structured suggestions for improving a draft.
type LLMAdvisor struct {
	llmClient   *openai.Client
	logger      *zap.Logger
	modelId     string
	temperature *float64
}

func NewLLMAdvisor(store *prefs.Store, logger *zap.Logger) *LLMAdvisor {
	llmClient, modelConfig := NewClient(store)
	return &LLMAdvisor{
		llmClient:   llmClient,
		logger:      logger,
		modelId:     modelConfig.ModelId,
		temperature: modelConfig.Temperature,
	}
}

// Suggest returns up to a handful of improvements the writer can append to
// the draft, most valuable first. Items without a usable detail are filtered
// out.
func (a *LLMAdvisor) Suggest(ctx context.Context, draft string) ([]overlay.Suggestion, error) {
	if strings.TrimSpace(draft) == "" {
		return nil, nil
	}

	schema, err := SUGGESTIONS_SCHEMA.MarshalJSON()
	if err != nil {
		a.logger.Error("failed to marshal schema", zap.Error(err))
		return nil, err
	}

	userMessage := fmt.Sprintf(`You are draftpad, an inline writing assistant.
You will be given a chat prompt I am drafting, enclosed in <draft> tags.
You are asked to suggest concrete improvements.

# Instructions
* Suggest at most 3 improvements, each a single sentence I could append to the draft
* Focus on missing context, unclear scope, and unstated output format
* Each suggestion needs a short category, a few-word label, and the full sentence as detail

# Response JSON Schema
%s

<draft>%s</draft>`,
		string(schema),
		draft,
	)

	request := openai.ChatCompletionRequest{
		Model: a.modelId,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    "user",
				Content: userMessage,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	if a.temperature != nil {
		request.Temperature = float32(*a.temperature)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	chatCompletion, err := a.llmClient.CreateChatCompletion(ctx, request)
	if err != nil {
		return nil, err
	}

	parsed := draftSuggestions{}
	err = json.Unmarshal([]byte(chatCompletion.Choices[0].Message.Content), &parsed)
	if err != nil {
		return nil, err
	}

	a.logger.Debug(
		"LLM suggestion response",
		zap.Int("count", len(parsed.Suggestions)),
	)

	usable := lo.Filter(parsed.Suggestions, func(item suggestionItem, _ int) bool {
		return strings.TrimSpace(item.Detail) != ""
	})

	return lo.Map(usable, func(item suggestionItem, _ int) overlay.Suggestion {
		return overlay.Suggestion{
			Category: item.Category,
			Label:    item.Label,
			Detail:   strings.TrimSpace(item.Detail),
		}
	}), nil
}
