package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark/ast"
)

func TestAnalyze(t *testing.T) {
	source := []byte(`---
name: testing
---

# Testing

Phase 1 starts here.

- Step 2: item text

` + "```" + `
Step 3 inside code
` + "```" + `
`)

	result := Analyze(source)
	require.NoError(t, result.MetaErr)

	require.Len(t, result.Blocks, 3)
	assert.Equal(t, Block{Kind: ast.KindHeading, Line: 5, Text: "Testing"}, result.Blocks[0])
	assert.Equal(t, Block{Kind: ast.KindParagraph, Line: 7, Text: "Phase 1 starts here."}, result.Blocks[1])
	assert.Equal(t, 9, result.Blocks[2].Line)
	assert.Equal(t, "Step 2: item text", result.Blocks[2].Text)
}

func TestAnalyzeInvalidYAML(t *testing.T) {
	source := []byte("---\nname: foo\ndescription: Use when: reviewing\n---\n\nBody\n")

	result := Analyze(source)
	assert.Error(t, result.MetaErr)
	require.Len(t, result.Blocks, 1)
	assert.Equal(t, "Body", result.Blocks[0].Text)
}

func TestAnalyzeWithoutFrontMatter(t *testing.T) {
	result := Analyze([]byte("Just a paragraph\nwith two lines.\n"))
	assert.NoError(t, result.MetaErr)
	require.Len(t, result.Blocks, 1)
	assert.Equal(t, "Just a paragraph", result.Blocks[0].Text)
	assert.Equal(t, 1, result.Blocks[0].Line)
}
