package storage

import "context"

// Hit is one projected search result. Fields the index did not return are nil.
type Hit struct {
	Score   float64
	Title   *string
	Content *string
	Source  *string
}

// Document is a chunk uploaded to the index together with its embedding.
type Document struct {
	ID      string
	Title   string
	Content string
	Source  string
	Vector  []float32
}

// VectorStore is the interface for a vector search index.
type VectorStore interface {
	// Query returns the k nearest documents to vector, best match first.
	Query(ctx context.Context, vector []float32, k int) ([]Hit, error)
	// Upload merges documents into the index, replacing ones with the same ID.
	Upload(ctx context.Context, docs []Document) error
}
