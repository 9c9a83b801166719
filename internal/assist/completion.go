package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/draftpad/draftpad/internal/prefs"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// LLMCompleter produces ghost-text continuations for a draft in progress.
type LLMCompleter struct {
	llmClient   *openai.Client
	logger      *zap.Logger
	modelId     string
	temperature *float64
}

func NewLLMCompleter(store *prefs.Store, logger *zap.Logger) *LLMCompleter {
	llmClient, modelConfig := NewClient(store)
	return &LLMCompleter{
		llmClient:   llmClient,
		logger:      logger,
		modelId:     modelConfig.ModelId,
		temperature: modelConfig.Temperature,
	}
}

// Complete returns the suffix that should follow the current draft. The
// result never repeats the draft: if the model echoes the input as a prefix,
// the echo is stripped before returning.
func (c *LLMCompleter) Complete(ctx context.Context, draft string) (string, error) {
	if strings.TrimSpace(draft) == "" {
		return "", nil
	}

	schema, err := CONTINUATION_SCHEMA.MarshalJSON()
	if err != nil {
		c.logger.Error("failed to marshal schema", zap.Error(err))
		return "", err
	}

	userMessage := fmt.Sprintf(`You are draftpad, an inline writing assistant.
You will be given a partially written chat prompt, enclosed in <draft> tags.
You are asked to predict the text that comes next.

# Instructions
* Analyze what I am trying to ask for and continue the draft naturally
* Your continuation must NOT repeat any part of the draft
* Keep the continuation short: finish the current sentence or add at most one more

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

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	chatCompletion, err := c.llmClient.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", err
	}

	continuation := draftContinuation{}
	err = json.Unmarshal([]byte(chatCompletion.Choices[0].Message.Content), &continuation)
	if err != nil {
		return "", err
	}

	c.logger.Debug(
		"LLM continuation response",
		zap.String("draft", draft),
		zap.String("continuation", continuation.Continuation),
	)

	return trimEcho(draft, continuation.Continuation), nil
}

// trimEcho strips a leading repetition of the draft from a continuation so
// the ghost layer only ever receives the suffix.
func trimEcho(draft, continuation string) string {
	if strings.HasPrefix(continuation, draft) {
		return continuation[len(draft):]
	}
	return continuation
}
