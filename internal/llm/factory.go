package llm

import (
	"fmt"
	"os"
)

// NewProvider creates the provider named by providerType. "none" and ""
// return a nil Provider, which disables the neural engine.
func NewProvider(providerType string, model string) (Provider, error) {
	switch providerType {
	case "", "none":
		return nil, nil

	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIProvider(apiKey, os.Getenv("OPENAI_BASE_URL"), model), nil

	case "ollama":
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
