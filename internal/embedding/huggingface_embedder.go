package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/go-huggingface"

	"voicechat/backend/internal/apperr"
	"voicechat/backend/internal/config"
	"voicechat/backend/internal/log"
)

// HuggingFaceEmbedder implements the Embedder interface using the Hugging Face
// inference API.
type HuggingFaceEmbedder struct {
	config     config.HuggingFaceConfig
	client     *huggingface.InferenceClient
	dimensions int
}

// NewHuggingFaceEmbedder creates a new HuggingFace embedder instance
func NewHuggingFaceEmbedder(ctx context.Context, cfg config.HuggingFaceConfig, dimensions int) (*HuggingFaceEmbedder, error) {
	if cfg.Token == "" {
		log.Logger.Warnf("⚠️  No HuggingFace API token found. Some models may require authentication.")
	}

	client := huggingface.NewInferenceClient(cfg.Token)
	client.SetModel(cfg.ModelID)

	embedder := &HuggingFaceEmbedder{
		config:     cfg,
		client:     client,
		dimensions: dimensions,
	}

	if embedder.dimensions <= 0 {
		embedding, err := embedder.extract(ctx, "Hello world")
		if err != nil {
			return nil, fmt.Errorf("failed to detect embedding dimensions: %w", err)
		}
		embedder.dimensions = len(embedding)
	}

	log.Logger.Infof("✅ HuggingFace embedder %s initialized with %d dimensions", cfg.ModelID, embedder.dimensions)
	return embedder, nil
}

// Embed creates a vector embedding for the given text using the HuggingFace model
func (e *HuggingFaceEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	const op = "embedding.HuggingFace.Embed"

	if text == "" {
		return nil, apperr.ProviderError(op, fmt.Errorf("text cannot be empty"))
	}

	// Truncate text if it exceeds max length
	if r := []rune(text); len(r) > e.config.MaxLength {
		text = string(r[:e.config.MaxLength])
	}

	embedding, err := e.extract(ctx, text)
	if err != nil {
		return nil, apperr.ProviderError(op, err)
	}
	if len(embedding) != e.dimensions {
		return nil, apperr.ProviderError(op, fmt.Errorf("dimension mismatch: expected %d, got %d", e.dimensions, len(embedding)))
	}
	return embedding, nil
}

// GetDimensions returns the embedding dimensions
func (e *HuggingFaceEmbedder) GetDimensions() int {
	return e.dimensions
}

func (e *HuggingFaceEmbedder) extract(ctx context.Context, text string) ([]float32, error) {
	req := &huggingface.FeatureExtractionRequest{
		Inputs: []string{text},
		Options: huggingface.Options{
			WaitForModel: huggingface.PTR(true),
			UseCache:     huggingface.PTR(true),
		},
	}

	resp, err := e.client.FeatureExtractionWithAutomaticReduction(ctx, req)
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "unauthorized") || strings.Contains(msg, "authentication") {
			return nil, fmt.Errorf("authentication failed for model %s, set HUGGINGFACEHUB_API_TOKEN: %w", e.config.ModelID, err)
		}
		return nil, fmt.Errorf("failed to get embeddings from HuggingFace model %s: %w", e.config.ModelID, err)
	}
	if len(resp) == 0 || len(resp[0]) == 0 {
		return nil, fmt.Errorf("received empty embedding response")
	}
	return resp[0], nil
}
