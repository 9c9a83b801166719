// Package assist talks to the remote text-completion service. It implements
// the opaque request/response contract the overlay depends on: ghost-text
// continuation, structured suggestions, critical-issue review, and on-demand
// prompt rewriting.
package assist

import (
	"strconv"
	"strings"

	"github.com/draftpad/draftpad/internal/prefs"
	openai "github.com/sashabaranov/go-openai"
)

// ModelConfig is the resolved per-request model configuration.
type ModelConfig struct {
	ModelId     string
	Temperature *float64
}

// NewClient builds the completion client from the preference store. The
// provider preference selects sensible defaults for base URL and API key,
// each individually overridable.
func NewClient(store *prefs.Store) (*openai.Client, ModelConfig) {
	provider := strings.ToLower(store.Get(prefs.KeyModelProvider, "ollama"))
	apiKey := store.Get(prefs.KeyModelAPIKey, "")
	baseURL := store.Get(prefs.KeyModelBaseURL, "")

	switch provider {
	case "openai":
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
	case "openrouter":
		if baseURL == "" {
			baseURL = "https://openrouter.ai/api/v1"
		}
	default: // "ollama" or unknown
		if apiKey == "" {
			apiKey = "ollama"
		}
		if baseURL == "" {
			baseURL = "http://localhost:11434/v1/"
		}
	}

	modelId := store.Get(prefs.KeyModelID, "qwen2.5")

	var temperature *float64
	temperatureString := store.Get(prefs.KeyModelTemperature, "")
	if temperatureString != "" {
		temperatureValue, err := strconv.ParseFloat(temperatureString, 32)
		if err == nil {
			temperature = &temperatureValue
		}
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL
	client := openai.NewClientWithConfig(config)

	return client, ModelConfig{
		ModelId:     modelId,
		Temperature: temperature,
	}
}
