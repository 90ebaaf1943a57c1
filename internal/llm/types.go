package llm

// Message is a single message in an Ollama chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatParams holds one chat completion request.
type ChatParams struct {
	// Model is the Ollama model tag to generate with.
	Model        string
	SystemPrompt string
	UserMessage  string
}

// GenerationOptions are applied to every chat request sent by a Client.
type GenerationOptions struct {
	Temperature float64
	TopP        float64
	// MaxTokens maps to Ollama's num_predict.
	MaxTokens int
	// PromptVersion is prefixed to the system prompt as "[prompt_version=<v>] ".
	PromptVersion string
}
