package embedding

import "context"

// Embedder is an interface for creating vector embeddings from text.
// Implementations never retry; retry policy belongs to the caller.
type Embedder interface {
	// Embed takes a string of text and returns its vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbedderWithDimensions extends the Embedder interface to include dimension information
type EmbedderWithDimensions interface {
	Embedder
	GetDimensions() int
}
