package oracle

import "context"

// CompletionFunc is the single operation the engine needs from a
// text-generation backend: given a system and user prompt, return the raw
// completion text. Implementations are opaque and non-deterministic; the
// engine parses whatever comes back and falls back to the keyword
// classifier when it cannot.
type CompletionFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)
