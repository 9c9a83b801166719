package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/draftpad/draftpad/internal/prefs"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ErrEmptyDraft is returned when a rewrite is requested for a blank draft.
var ErrEmptyDraft = errors.New("nothing to rewrite")

// LLMRewriter rewrites a full draft on demand.
type LLMRewriter struct {
	llmClient   *openai.Client
	logger      *zap.Logger
	modelId     string
	temperature *float64
}

func NewLLMRewriter(store *prefs.Store, logger *zap.Logger) *LLMRewriter {
	llmClient, modelConfig := NewClient(store)
	return &LLMRewriter{
		llmClient:   llmClient,
		logger:      logger,
		modelId:     modelConfig.ModelId,
		temperature: modelConfig.Temperature,
	}
}

// Rewrite returns a cleaned-up version of the whole draft, preserving its
// intent.
func (r *LLMRewriter) Rewrite(ctx context.Context, draft string) (string, error) {
	if strings.TrimSpace(draft) == "" {
		return "", ErrEmptyDraft
	}

	schema, err := REWRITTEN_SCHEMA.MarshalJSON()
	if err != nil {
		r.logger.Error("failed to marshal schema", zap.Error(err))
		return "", err
	}

	userMessage := fmt.Sprintf(`You are draftpad, an inline writing assistant.
You will be given a chat prompt I am drafting, enclosed in <draft> tags.
You are asked to rewrite it into a clear, well-structured prompt.

# Instructions
* Preserve my intent and every concrete requirement
* Make the ask explicit: what to do, on what input, in what output format
* Do not add requirements I never stated

# Response JSON Schema
%s

<draft>%s</draft>`,
		string(schema),
		draft,
	)

	request := openai.ChatCompletionRequest{
		Model: r.modelId,
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
	if r.temperature != nil {
		request.Temperature = float32(*r.temperature)
	}

	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	chatCompletion, err := r.llmClient.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", err
	}

	parsed := rewrittenDraft{}
	err = json.Unmarshal([]byte(chatCompletion.Choices[0].Message.Content), &parsed)
	if err != nil {
		return "", err
	}

	rewritten := strings.TrimSpace(parsed.Rewritten)
	if rewritten == "" {
		return "", errors.New("rewriter returned an empty draft")
	}

	r.logger.Debug("LLM rewrite response", zap.Int("length", len(rewritten)))
	return rewritten, nil
}
