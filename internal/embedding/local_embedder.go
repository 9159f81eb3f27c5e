package embedding

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"voicechat/backend/internal/apperr"
	"voicechat/backend/internal/config"
	"voicechat/backend/internal/log"
)

// LocalEmbedder implements the Embedder interface using a local embedding server
type LocalEmbedder struct {
	config     config.LocalConfig
	httpClient *http.Client
	dimensions int
}

// NewLocalEmbedder creates a new local embedder instance. Dimensions are
// detected with a probe request unless dimensions is positive.
func NewLocalEmbedder(ctx context.Context, cfg config.LocalConfig, dimensions int) (*LocalEmbedder, error) {
	embedder := &LocalEmbedder{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		dimensions: dimensions,
	}

	if embedder.dimensions <= 0 {
		detected, err := embedder.detectDimensions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to detect embedding dimensions: %w", err)
		}
		embedder.dimensions = detected
	}

	log.Logger.Infof("🤖 Local embedder initialized with %d dimensions", embedder.dimensions)
	return embedder, nil
}

// Embed creates a vector embedding for the given text using the local server
func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	const op = "embedding.Local.Embed"

	embeddings, err := e.post(ctx, []string{text})
	if err != nil {
		return nil, apperr.ProviderError(op, err)
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, apperr.ProviderError(op, fmt.Errorf("received empty embedding from local server"))
	}
	return embeddings[0], nil
}

// GetDimensions returns the embedding dimensions
func (e *LocalEmbedder) GetDimensions() int {
	return e.dimensions
}

// detectDimensions auto-detects the embedding dimensions by making a test request
func (e *LocalEmbedder) detectDimensions(ctx context.Context) (int, error) {
	log.Logger.Infof("🔍 Auto-detecting embedding dimensions for local server at %s", e.config.ServerURL)

	embedding, err := e.Embed(ctx, "test")
	if err != nil {
		return 0, err
	}
	return len(embedding), nil
}

func (e *LocalEmbedder) post(ctx context.Context, texts []string) ([][]float32, error) {
	requestBody, err := e.createRequestBody(texts)
	if err != nil {
		return nil, fmt.Errorf("failed to create request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.getEmbedEndpoint(), bytes.NewReader(requestBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request to local embedding server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("local embedding server returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	embeddings, err := e.parseResponse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedding response: %w", err)
	}
	return embeddings, nil
}

// getEmbedEndpoint returns the embedding endpoint URL based on server type
func (e *LocalEmbedder) getEmbedEndpoint() string {
	baseURL := e.config.ServerURL

	switch e.config.ServerType {
	case "ollama":
		return baseURL + "/api/embeddings"
	case "custom":
		return baseURL + "/embeddings"
	default:
		// TEI
		return baseURL + "/embed"
	}
}

// createRequestBody creates the HTTP request body based on server type
func (e *LocalEmbedder) createRequestBody(texts []string) ([]byte, error) {
	switch e.config.ServerType {
	case "ollama":
		if len(texts) != 1 {
			return nil, fmt.Errorf("ollama only supports single text embedding")
		}
		return sonic.Marshal(map[string]interface{}{
			"model":  e.config.ModelName,
			"prompt": texts[0],
		})
	case "custom":
		request := map[string]interface{}{
			"input": texts,
		}
		if e.config.ModelName != "" {
			request["model"] = e.config.ModelName
		}
		return sonic.Marshal(request)
	default:
		return sonic.Marshal(map[string]interface{}{
			"inputs": texts,
		})
	}
}

// parseResponse parses the embedding response based on server type
func (e *LocalEmbedder) parseResponse(body io.Reader) ([][]float32, error) {
	switch e.config.ServerType {
	case "ollama":
		var response struct {
			Embedding []float32 `json:"embedding"`
		}
		if err := sonic.ConfigDefault.NewDecoder(body).Decode(&response); err != nil {
			return nil, fmt.Errorf("failed to decode Ollama response: %w", err)
		}
		return [][]float32{response.Embedding}, nil
	case "custom":
		return parseCustomResponse(body)
	default:
		var embeddings [][]float32
		if err := sonic.ConfigDefault.NewDecoder(body).Decode(&embeddings); err != nil {
			return nil, fmt.Errorf("failed to decode TEI response: %w", err)
		}
		return embeddings, nil
	}
}

// parseCustomResponse parses custom server response (OpenAI-like format)
func parseCustomResponse(body io.Reader) ([][]float32, error) {
	var response struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
		Embeddings [][]float32 `json:"embeddings"` // Alternative format
	}

	if err := sonic.ConfigDefault.NewDecoder(body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode custom response: %w", err)
	}

	if len(response.Data) > 0 {
		embeddings := make([][]float32, len(response.Data))
		for i, item := range response.Data {
			embeddings[i] = item.Embedding
		}
		return embeddings, nil
	}

	if len(response.Embeddings) > 0 {
		return response.Embeddings, nil
	}

	return nil, fmt.Errorf("no embeddings found in custom response")
}
