package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"

	"voicechat/backend/internal/apperr"
	"voicechat/backend/internal/config"
)

// selectFields is the projection requested from the index.
const selectFields = "title,content,source"

// AzureSearchStore implements VectorStore against the Azure AI Search REST API.
type AzureSearchStore struct {
	endpoint    string
	index       string
	apiKey      string
	apiVersion  string
	vectorField string
	httpClient  *http.Client
}

// NewAzureSearchStore creates a client for the configured index.
func NewAzureSearchStore(cfg config.SearchConfig) *AzureSearchStore {
	return &AzureSearchStore{
		endpoint:    cfg.Endpoint,
		index:       cfg.IndexName,
		apiKey:      cfg.APIKey,
		apiVersion:  cfg.APIVersion,
		vectorField: cfg.VectorField,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

type vectorQuery struct {
	Kind   string    `json:"kind"`
	Vector []float32 `json:"vector"`
	K      int       `json:"k"`
	Fields string    `json:"fields"`
}

type searchRequest struct {
	VectorQueries []vectorQuery `json:"vectorQueries"`
	Select        string        `json:"select"`
	Top           int           `json:"top"`
}

type searchResponse struct {
	Value []struct {
		Score   float64 `json:"@search.score"`
		Title   *string `json:"title"`
		Content *string `json:"content"`
		Source  *string `json:"source"`
	} `json:"value"`
}

// Query runs a pure vector query (no search text) over the configured field.
func (s *AzureSearchStore) Query(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	const op = "storage.AzureSearch.Query"

	body, err := sonic.Marshal(searchRequest{
		VectorQueries: []vectorQuery{{
			Kind:   "vector",
			Vector: vector,
			K:      k,
			Fields: s.vectorField,
		}},
		Select: selectFields,
		Top:    k,
	})
	if err != nil {
		return nil, apperr.ProviderError(op, fmt.Errorf("encode search request: %w", err))
	}

	raw, err := s.post(ctx, "search", body, http.StatusOK)
	if err != nil {
		return nil, apperr.ProviderError(op, err)
	}

	var resp searchResponse
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return nil, apperr.ProviderError(op, fmt.Errorf("decode search response: %w", err))
	}

	hits := make([]Hit, 0, len(resp.Value))
	for _, v := range resp.Value {
		hits = append(hits, Hit{
			Score:   v.Score,
			Title:   v.Title,
			Content: v.Content,
			Source:  v.Source,
		})
	}
	return hits, nil
}

type indexResponse struct {
	Value []struct {
		Key          string `json:"key"`
		Status       bool   `json:"status"`
		ErrorMessage string `json:"errorMessage"`
	} `json:"value"`
}

// Upload sends documents with the mergeOrUpload action.
func (s *AzureSearchStore) Upload(ctx context.Context, docs []Document) error {
	const op = "storage.AzureSearch.Upload"

	if len(docs) == 0 {
		return nil
	}

	actions := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		actions = append(actions, map[string]any{
			"@search.action": "mergeOrUpload",
			"id":             d.ID,
			"title":          d.Title,
			"content":        d.Content,
			"source":         d.Source,
			s.vectorField:    d.Vector,
		})
	}
	body, err := sonic.Marshal(map[string]any{"value": actions})
	if err != nil {
		return apperr.ProviderError(op, fmt.Errorf("encode index batch: %w", err))
	}

	raw, err := s.post(ctx, "index", body, http.StatusOK, http.StatusMultiStatus)
	if err != nil {
		return apperr.ProviderError(op, err)
	}

	var resp indexResponse
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return apperr.ProviderError(op, fmt.Errorf("decode index response: %w", err))
	}
	for _, r := range resp.Value {
		if !r.Status {
			return apperr.ProviderError(op, fmt.Errorf("document %s rejected: %s", r.Key, r.ErrorMessage))
		}
	}
	return nil
}

func (s *AzureSearchStore) post(ctx context.Context, action string, body []byte, okStatus ...int) ([]byte, error) {
	u := fmt.Sprintf("%s/indexes/%s/docs/%s?api-version=%s",
		s.endpoint, url.PathEscape(s.index), action, url.QueryEscape(s.apiVersion))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	for _, code := range okStatus {
		if resp.StatusCode == code {
			return raw, nil
		}
	}
	if len(raw) > 512 {
		raw = raw[:512]
	}
	return nil, fmt.Errorf("search service returned status %d: %s", resp.StatusCode, string(raw))
}
