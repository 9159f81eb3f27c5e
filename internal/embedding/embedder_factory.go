package embedding

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"voicechat/backend/internal/config"
	"voicechat/backend/internal/llm"
	"voicechat/backend/internal/log"
)

// EmbedderFactory creates embedders based on configuration
type EmbedderFactory struct {
	config *config.Config
}

// NewEmbedderFactory creates a new embedder factory
func NewEmbedderFactory(cfg *config.Config) *EmbedderFactory {
	return &EmbedderFactory{
		config: cfg,
	}
}

// CreateEmbedder creates an embedder based on the configuration
func (f *EmbedderFactory) CreateEmbedder(ctx context.Context) (EmbedderWithDimensions, error) {
	emb := f.config.Embedding
	switch emb.Provider {
	case config.ProviderAzure:
		log.Logger.Infof("🌐 Initializing Azure OpenAI embedder with deployment: %s", f.config.LLM.Azure.EmbeddingsDeployment)
		client := llm.NewAzureOpenAIClient(f.config.LLM.Azure)
		return NewOpenAIEmbedder(client, f.config.LLM.Azure.EmbeddingsDeployment, emb.Dimensions), nil
	case config.ProviderOpenAI:
		log.Logger.Infof("🌐 Initializing OpenAI embedder with model: %s", f.config.LLM.OpenAI.EmbeddingModel)
		client := openai.NewClient(f.config.LLM.OpenAI.APIKey)
		return NewOpenAIEmbedder(client, f.config.LLM.OpenAI.EmbeddingModel, emb.Dimensions), nil
	case config.ProviderLocal:
		log.Logger.Infof("🏠 Initializing local embedder (%s at %s)", emb.Local.ServerType, emb.Local.ServerURL)
		e, err := NewLocalEmbedder(ctx, emb.Local, emb.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("failed to create local embedder: %w", err)
		}
		return e, nil
	case config.ProviderHuggingFace:
		log.Logger.Infof("🤗 Initializing HuggingFace embedder with model: %s", emb.HuggingFace.ModelID)
		e, err := NewHuggingFaceEmbedder(ctx, emb.HuggingFace, emb.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("failed to create HuggingFace embedder: %w", err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", emb.Provider)
	}
}

// ValidateEmbedderConnection tests the embedder connection and checks the
// returned vector has the expected size.
func ValidateEmbedderConnection(ctx context.Context, embedder EmbedderWithDimensions) error {
	embedding, err := embedder.Embed(ctx, "Hello world")
	if err != nil {
		return fmt.Errorf("failed to create test embedding: %w", err)
	}

	expectedDimensions := embedder.GetDimensions()
	actualDimensions := len(embedding)
	if actualDimensions != expectedDimensions {
		return fmt.Errorf("dimension mismatch: expected %d, got %d", expectedDimensions, actualDimensions)
	}

	log.Logger.Infof("✅ Embedder connection validated successfully (%d dimensions)", actualDimensions)
	return nil
}
