package indexer

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

var goDeclarations = []byte(`
	(function_declaration) @func
	(method_declaration) @method
	(type_declaration) @type
`)

// ChunkGoSource parses Go source with tree-sitter and returns one chunk per
// top-level function, method or type declaration, named after the symbol it
// declares.
func ChunkGoSource(filePath string, content []byte) ([]Chunk, error) {
	lang := golang.GetLanguage()

	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}

	query, err := sitter.NewQuery(goDeclarations, lang)
	if err != nil {
		return nil, err
	}
	qc := sitter.NewQueryCursor()
	qc.Exec(query, tree.RootNode())

	var chunks []Chunk
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			chunks = append(chunks, Chunk{
				FilePath:  filePath,
				Symbol:    declaredName(c.Node, content),
				Content:   c.Node.Content(content),
				StartLine: int(c.Node.StartPoint().Row + 1),
				EndLine:   int(c.Node.EndPoint().Row + 1),
			})
		}
	}
	return chunks, nil
}

// declaredName returns the identifier a declaration introduces. Grouped type
// declarations are named after their first type.
func declaredName(n *sitter.Node, content []byte) string {
	if n.Type() == "type_declaration" {
		if n.NamedChildCount() == 0 {
			return ""
		}
		n = n.NamedChild(0)
	}
	if name := n.ChildByFieldName("name"); name != nil {
		return name.Content(content)
	}
	return ""
}
