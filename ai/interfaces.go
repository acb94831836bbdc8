package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Formatter normalizes classifier output into a judgment record.
// Implementations must be thread-safe for concurrent use.
type Formatter interface {
	// FormatJudgment maps one raw classifier object onto the judgment schema.
	// It never returns the input silently: when the model cannot be used the
	// result has Kind Raw, a best-effort direct mapping, and the cause in Err.
	FormatJudgment(ctx context.Context, raw map[string]any) FormatResult
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and Formatter instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Formatter returns the judgment formatting service.
	// The returned Formatter is safe for concurrent use.
	Formatter() Formatter

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
