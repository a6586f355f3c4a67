package llm

// Supported providers.
const (
	ProviderOpenAI    Provider = "openai"
	ProviderOllama    Provider = "ollama"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// Default chat models per provider, used when neither the config store nor
// the app config names one.
const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultOllamaModel    = "llama3.2"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
	DefaultGeminiModel    = "gemini-2.0-flash"
)

// DefaultOllamaURL is the default URL for a local Ollama server.
const DefaultOllamaURL = "http://localhost:11434"

// DefaultRequestTimeoutSeconds bounds a single model call. LLM calls are the
// dominant latency and failure source, so they never run unbounded.
const DefaultRequestTimeoutSeconds = 60

// DefaultModelForProvider returns the default chat model for a provider.
func DefaultModelForProvider(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return DefaultOpenAIModel
	case ProviderOllama:
		return DefaultOllamaModel
	case ProviderAnthropic:
		return DefaultAnthropicModel
	case ProviderGemini:
		return DefaultGeminiModel
	default:
		return ""
	}
}
