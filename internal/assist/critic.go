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

// LLMCritic reviews a draft for critical issues. Each issue points at a
// literal substring of the draft; the overlay locates it in the live text at
// render time.
type LLMCritic struct {
	llmClient   *openai.Client
	logger      *zap.Logger
	modelId     string
	temperature *float64
}

func NewLLMCritic(store *prefs.Store, logger *zap.Logger) *LLMCritic {
	llmClient, modelConfig := NewClient(store)
	return &LLMCritic{
		llmClient:   llmClient,
		logger:      logger,
		modelId:     modelConfig.ModelId,
		temperature: modelConfig.Temperature,
	}
}

// Review returns the critical issues found in the draft. Issues whose span
// or message is blank are filtered out before they reach the overlay; spans
// the model invents that don't occur in the draft are the overlay's problem
// and get dropped at render time.
func (c *LLMCritic) Review(ctx context.Context, draft string) ([]overlay.ErrorAnnotation, error) {
	if strings.TrimSpace(draft) == "" {
		return nil, nil
	}

	schema, err := ISSUES_SCHEMA.MarshalJSON()
	if err != nil {
		c.logger.Error("failed to marshal schema", zap.Error(err))
		return nil, err
	}

	userMessage := fmt.Sprintf(`You are draftpad, an inline writing assistant.
You will be given a chat prompt I am drafting, enclosed in <draft> tags.
You are asked to flag only the critical problems that would make the prompt fail.

# Instructions
* Flag at most 3 issues: ambiguous references, contradictions, impossible asks
* For each issue, copy the offending substring from the draft VERBATIM into span
* Do not flag stylistic preferences

# Response JSON Schema
%s

<draft>%s</draft>`,
		string(schema),
		draft,
	)

	request := openai.ChatCompletionRequest{
		Model: c.modelId,
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
	if c.temperature != nil {
		request.Temperature = float32(*c.temperature)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	chatCompletion, err := c.llmClient.CreateChatCompletion(ctx, request)
	if err != nil {
		return nil, err
	}

	parsed := draftIssues{}
	err = json.Unmarshal([]byte(chatCompletion.Choices[0].Message.Content), &parsed)
	if err != nil {
		return nil, err
	}

	c.logger.Debug(
		"LLM review response",
		zap.Int("count", len(parsed.Issues)),
	)

	usable := lo.Filter(parsed.Issues, func(item issueItem, _ int) bool {
		return strings.TrimSpace(item.Span) != "" && strings.TrimSpace(item.Message) != ""
	})

	return lo.Map(usable, func(item issueItem, _ int) overlay.ErrorAnnotation {
		return overlay.ErrorAnnotation{
			Span:    item.Span,
			Message: item.Message,
		}
	}), nil
}
