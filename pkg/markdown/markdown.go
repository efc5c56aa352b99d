// Package markdown turns a skill document into the prose blocks the content
// heuristics look at. Code blocks and raw HTML are skipped so that example
// snippets never count as prose. The leading front matter is consumed by
// goldmark-meta, which also reports whether the block decodes as strict YAML.
package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Block is the first line of a prose block.
type Block struct {
	Kind ast.NodeKind
	// Line is the 1-based line number within the whole document.
	Line int
	Text string
}

// Analysis is the result of reading a document.
type Analysis struct {
	Blocks []Block
	// MetaErr is set when a front matter block exists but is not valid YAML.
	MetaErr error
}

// Analyze parses source and collects headings, paragraphs and list item text.
func Analyze(source []byte) *Analysis {
	md := goldmark.New(goldmark.WithExtensions(meta.Meta))
	pctx := parser.NewContext()
	doc := md.Parser().Parse(text.NewReader(source), parser.WithContext(pctx))

	result := &Analysis{}
	_, result.MetaErr = meta.TryGet(pctx)

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n.Kind() {
		case ast.KindFencedCodeBlock, ast.KindCodeBlock, ast.KindHTMLBlock:
			return ast.WalkSkipChildren, nil
		case ast.KindHeading, ast.KindParagraph, ast.KindTextBlock:
			// A front matter block that failed to decode stays in the tree
			// as a top-level text block.
			if n.Kind() == ast.KindTextBlock && n.Parent() != nil && n.Parent().Kind() == ast.KindDocument {
				return ast.WalkSkipChildren, nil
			}
			lines := n.Lines()
			if lines.Len() == 0 {
				return ast.WalkSkipChildren, nil
			}
			seg := lines.At(0)
			result.Blocks = append(result.Blocks, Block{
				Kind: n.Kind(),
				Line: lineOf(source, seg.Start),
				Text: strings.TrimSpace(string(seg.Value(source))),
			})
			return ast.WalkSkipChildren, nil
		}

		return ast.WalkContinue, nil
	})

	return result
}

func lineOf(source []byte, offset int) int {
	if offset > len(source) {
		offset = len(source)
	}
	return bytes.Count(source[:offset], []byte("\n")) + 1
}
