package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"voicechat/backend/internal/cache"
	"voicechat/backend/internal/embedding"
	"voicechat/backend/internal/log"
	"voicechat/backend/internal/storage"
)

// uploadBatchSize stays well under the search service's 1000 actions per batch.
const uploadBatchSize = 100

var ignoredDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"__pycache__":  true,
	"venv":         true,
}

var staticExcludes = map[string]bool{
	"package-lock.json": true,
	"yarn.lock":         true,
	"pnpm-lock.yaml":    true,
	"go.sum":            true,
}

var excludedSuffixes = []string{".lock", ".csv", ".json", ".svg", ".png", ".jpg", ".mp3", ".a", ".o", ".so"}

// SkipDir reports whether a directory is never ingested.
func SkipDir(name string) bool {
	return strings.HasPrefix(name, ".") || ignoredDirs[name]
}

// SkipFile reports whether a file is never ingested.
func SkipFile(name string) bool {
	if strings.HasPrefix(name, ".") || staticExcludes[name] {
		return true
	}
	lower := strings.ToLower(name)
	for _, suffix := range excludedSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// DocumentID derives a stable index key for a chunk, so re-ingesting a file
// overwrites its earlier documents.
func DocumentID(path string, startLine int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, fmt.Appendf(nil, "%s:%d", path, startLine)).String()
}

// Ingester chunks files, embeds the chunks and uploads them to the vector
// store. Chunks already uploaded with identical content are skipped.
type Ingester struct {
	embedder embedding.Embedder
	store    storage.VectorStore

	mu       sync.Mutex
	uploaded map[string]string // document ID -> content key
}

// NewIngester creates an Ingester.
func NewIngester(embedder embedding.Embedder, store storage.VectorStore) *Ingester {
	return &Ingester{
		embedder: embedder,
		store:    store,
		uploaded: make(map[string]string),
	}
}

// IngestPath ingests a single file or every eligible file under a directory.
// It returns the number of documents uploaded. Files that fail to chunk or
// embed are logged and skipped; upload failures abort.
func (in *Ingester) IngestPath(ctx context.Context, root string) (int, error) {
	info, err := os.Stat(root)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return in.IngestFile(ctx, root)
	}

	log.Logger.Infow("starting to ingest directory", "root", root)
	total := 0
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && SkipDir(d.Name()) {
				log.Logger.Debugw("ignoring directory", "path", path)
				return filepath.SkipDir
			}
			return nil
		}
		if SkipFile(d.Name()) {
			log.Logger.Debugw("ignoring file", "path", path)
			return nil
		}
		n, err := in.IngestFile(ctx, path)
		total += n
		return err
	})
	if err != nil {
		return total, err
	}
	log.Logger.Infow("finished ingesting directory", "root", root, "documents", total)
	return total, nil
}

// IngestFile chunks, embeds and uploads one file.
func (in *Ingester) IngestFile(ctx context.Context, path string) (int, error) {
	chunks, err := ChunkFile(path)
	if err != nil {
		log.Logger.Warnw("could not chunk file, skipping", "path", path, "error", err)
		return 0, nil
	}

	var docs []storage.Document
	var keys []string
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		id := DocumentID(chunk.FilePath, chunk.StartLine)
		key := cache.ComputeKey(chunk.FilePath, chunk.Content)
		if in.isUploaded(id, key) {
			continue
		}

		vec, err := in.embedder.Embed(ctx, chunk.Content)
		if err != nil {
			log.Logger.Warnw("could not embed chunk, skipping", "path", chunk.FilePath, "line", chunk.StartLine, "error", err)
			continue
		}
		docs = append(docs, storage.Document{
			ID:      id,
			Title:   chunkTitle(chunk),
			Content: chunk.Content,
			Source:  chunk.FilePath,
			Vector:  vec,
		})
		keys = append(keys, key)
	}

	for start := 0; start < len(docs); start += uploadBatchSize {
		end := min(start+uploadBatchSize, len(docs))
		if err := in.store.Upload(ctx, docs[start:end]); err != nil {
			return start, fmt.Errorf("upload %s: %w", path, err)
		}
		in.markUploaded(docs[start:end], keys[start:end])
	}

	if len(docs) > 0 {
		log.Logger.Infow("ingested file", "path", path, "documents", len(docs))
	}
	return len(docs), nil
}

func chunkTitle(c Chunk) string {
	if c.Symbol != "" {
		return fmt.Sprintf("%s: %s", filepath.Base(c.FilePath), c.Symbol)
	}
	return fmt.Sprintf("%s (lines %d-%d)", filepath.Base(c.FilePath), c.StartLine, c.EndLine)
}

func (in *Ingester) isUploaded(id, key string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.uploaded[id] == key
}

func (in *Ingester) markUploaded(docs []storage.Document, keys []string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	for i, d := range docs {
		in.uploaded[d.ID] = keys[i]
	}
}
