package retriever

import (
	"context"

	"voicechat/backend/internal/embedding"
	"voicechat/backend/internal/log"
	"voicechat/backend/internal/storage"
)

// DefaultTopN is the number of neighbours requested when the caller does not say.
const DefaultTopN = 3

// Placeholders for fields the index did not return.
const (
	MissingTitle   = "N/A"
	MissingSource  = "N/A"
	MissingContent = ""
)

// Status tells apart the ways a search can end. Every status other than
// StatusFound behaves the same for the caller: no documents.
type Status int

const (
	StatusDisabled Status = iota
	StatusFailed
	StatusEmpty
	StatusFound
)

func (s Status) String() string {
	switch s {
	case StatusDisabled:
		return "disabled"
	case StatusFailed:
		return "failed"
	case StatusEmpty:
		return "empty"
	case StatusFound:
		return "found"
	default:
		return "unknown"
	}
}

// Document is a retrieved search result.
type Document struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

// Result is the outcome of Search. Err is set only for StatusFailed.
type Result struct {
	Status    Status
	Documents []Document
	Err       error
}

// Retriever embeds a query and looks up similar documents. A Retriever built
// without a store or embedder is disabled for the life of the process.
type Retriever struct {
	embedder embedding.Embedder
	store    storage.VectorStore
}

// New creates a Retriever. Pass nil for either argument to disable search.
func New(embedder embedding.Embedder, store storage.VectorStore) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

// Enabled reports whether a search backend is configured.
func (r *Retriever) Enabled() bool {
	return r != nil && r.embedder != nil && r.store != nil
}

// Search returns up to topN documents most similar to queryText, in the order
// ranked by the backend. It never returns an error; failures are reported in
// the Result and logged.
func (r *Retriever) Search(ctx context.Context, queryText string, topN int) Result {
	if !r.Enabled() {
		log.Logger.Debugw("search client not available, skipping document search")
		return Result{Status: StatusDisabled}
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	vector, err := r.embedder.Embed(ctx, queryText)
	if err != nil {
		log.Logger.Errorw("error generating embeddings", "query", log.Truncate(queryText, 100), "error", err)
		return Result{Status: StatusFailed, Err: err}
	}

	hits, err := r.store.Query(ctx, vector, topN)
	if err != nil {
		log.Logger.Errorw("error searching documents", "query", log.Truncate(queryText, 100), "error", err)
		return Result{Status: StatusFailed, Err: err}
	}

	docs := make([]Document, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, Document{
			Title:   valueOr(h.Title, MissingTitle),
			Content: valueOr(h.Content, MissingContent),
			Source:  valueOr(h.Source, MissingSource),
		})
	}
	log.Logger.Infof("Found %d documents from search.", len(docs))

	if len(docs) == 0 {
		return Result{Status: StatusEmpty}
	}
	return Result{Status: StatusFound, Documents: docs}
}

func valueOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}
