package ai

import "context"

// TextGenerator produces completion text from a system prompt and user
// prompt. All completion providers (OpenAI-compatible, Ollama) implement
// this interface. maxTokens caps the generated output; providers that do
// not support the cap ignore it.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}
