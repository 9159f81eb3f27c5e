package embedding

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"

	"voicechat/backend/internal/apperr"
)

// DefaultEmbeddingModel is used when no model or deployment is configured.
const DefaultEmbeddingModel openai.EmbeddingModel = "text-embedding-3-small"

// OpenAIEmbedder creates embeddings through the OpenAI embeddings API. With an
// Azure-configured client the model is the embeddings deployment name.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

// NewOpenAIEmbedder creates an embedder for the given client and model.
// A zero dimensions value falls back to the known size of the model.
func NewOpenAIEmbedder(client *openai.Client, model string, dimensions int) *OpenAIEmbedder {
	if model == "" {
		model = string(DefaultEmbeddingModel)
	}
	if dimensions <= 0 {
		dimensions = knownDimensions(model)
	}
	return &OpenAIEmbedder{
		client:     client,
		model:      openai.EmbeddingModel(model),
		dimensions: dimensions,
	}
}

// Embed creates a vector embedding for the given text using the configured model.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	const op = "embedding.OpenAI.Embed"

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, apperr.ProviderError(op, err)
	}
	if len(resp.Data) == 0 {
		return nil, apperr.ProviderError(op, errors.New("received empty embedding response"))
	}
	return resp.Data[0].Embedding, nil
}

// GetDimensions returns the dimensions for the configured model
func (e *OpenAIEmbedder) GetDimensions() int {
	return e.dimensions
}

func knownDimensions(model string) int {
	switch model {
	case "text-embedding-3-large":
		return 3072
	case "text-embedding-3-small", "text-embedding-ada-002":
		return 1536
	default:
		// Azure deployment names rarely match model names.
		return 1536
	}
}
