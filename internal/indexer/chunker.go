package indexer

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// Window sizes, in runes, for plain-text chunking.
const (
	ChunkSize    = 1000
	ChunkOverlap = 100
)

// Chunk represents a piece of a source document. Symbol is set for chunks
// cut on a code declaration.
type Chunk struct {
	FilePath  string
	Symbol    string
	Content   string
	StartLine int
	EndLine   int
}

// ChunkFile reads a file and splits it into chunks. Go sources are split on
// top-level declarations; everything else uses a sliding window. Binary and
// blank files yield no chunks.
func ChunkFile(filePath string) ([]Chunk, error) {
	contentBytes, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	// Skip non UTF-8 files to avoid embedding binaries
	if !utf8.Valid(contentBytes) {
		return nil, nil
	}
	if strings.TrimSpace(string(contentBytes)) == "" {
		return nil, nil
	}

	if filepath.Ext(filePath) == ".go" {
		chunks, err := ChunkGoSource(filePath, contentBytes)
		if err == nil && len(chunks) > 0 {
			return chunks, nil
		}
	}
	return ChunkText(filePath, string(contentBytes)), nil
}

// ChunkText splits content into windows of ChunkSize runes that overlap by
// ChunkOverlap runes. Line numbers are 1-based.
func ChunkText(filePath, content string) []Chunk {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	runes := []rune(content)

	// Rune offset at which each line starts.
	var lineStarts []int
	lineStarts = append(lineStarts, 0)
	for i, r := range runes {
		if r == '\n' {
			lineStarts = append(lineStarts, i+1)
		}
	}

	findLine := func(offset int) int {
		// The first line starting after offset is one past the line holding it.
		return sort.Search(len(lineStarts), func(i int) bool {
			return lineStarts[i] > offset
		})
	}

	var chunks []Chunk
	for i := 0; i < len(runes); i += ChunkSize - ChunkOverlap {
		end := min(i+ChunkSize, len(runes))

		chunks = append(chunks, Chunk{
			FilePath:  filePath,
			Content:   string(runes[i:end]),
			StartLine: findLine(i),
			EndLine:   findLine(end - 1),
		})

		if end == len(runes) {
			break
		}
	}
	return chunks
}
