// Package frontmatter extracts the delimited metadata block at the head of a
// skill document. Values are kept as written (trimmed only) so that callers
// can reject constructs such as block-scalar indicators instead of having them
// silently folded by a YAML decoder.
package frontmatter

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Delimiter opens and closes a front matter block. Both delimiters must sit
// on their own line and the opening one must be the first line of the document.
const Delimiter = "---"

// MetadataKey is the single block key whose children are parsed as nested
// key/value pairs and exposed as "metadata.<child>".
const MetadataKey = "metadata"

var (
	// ErrNotFound is returned when the document does not start with a delimiter line.
	ErrNotFound = errors.New("no front matter block at the start of the document")
	// ErrUnterminated is returned when the opening delimiter has no matching closing delimiter.
	ErrUnterminated = errors.New("front matter block has no closing delimiter")
)

// blockHeader matches a YAML block-scalar header: "|" or ">" with optional
// chomping and indentation indicators in either order.
var blockHeader = regexp.MustCompile(`^[|>](?:[1-9]?[-+]?|[-+]?[1-9]?)$`)

// Field is one key/value entry in document order.
type Field struct {
	Key   string
	Value string
	// Line is the 1-based line number of the key within the document.
	Line int
	// Continued is true when the value was taken from indented lines below the key.
	Continued bool
}

// FrontMatter is the parsed metadata block of a document.
type FrontMatter struct {
	fields []Field
	index  map[string]int

	// Block is the raw text between the two delimiters.
	Block string
	// Body is the document text following the closing delimiter.
	Body string
}

// Parse returns the front matter of content, or false when the document has
// no usable block. Unterminated blocks are reported as absent.
func Parse(content string) (*FrontMatter, bool) {
	fm, err := ParseDetailed(content)
	if err != nil {
		return nil, false
	}
	return fm, true
}

// ParseDetailed is like Parse but reports why no front matter was found,
// either ErrNotFound or ErrUnterminated.
func ParseDetailed(content string) (*FrontMatter, error) {
	content = strings.TrimPrefix(content, "\ufeff")
	lines := strings.Split(content, "\n")

	if !isDelimiter(lines[0]) {
		return nil, ErrNotFound
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if isDelimiter(lines[i]) {
			end = i
			break
		}
	}
	if end == -1 {
		return nil, ErrUnterminated
	}

	fm := &FrontMatter{
		index: make(map[string]int),
		Block: strings.Join(trimCR(lines[1:end]), "\n"),
		Body:  strings.TrimLeft(strings.Join(lines[end+1:], "\n"), "\r\n"),
	}
	fm.parseBlock(lines[1:end])

	return fm, nil
}

func isDelimiter(line string) bool {
	return strings.TrimRight(line, " \t\r") == Delimiter
}

func trimCR(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimRight(l, "\r")
	}
	return out
}

// parseBlock walks the block line by line. Top-level "key: value" lines become
// fields. A top-level "key:" with no value opens a block: under "metadata" the
// children become "metadata.<child>" fields, under any other key the indented
// lines are kept as opaque text.
func (fm *FrontMatter) parseBlock(lines []string) {
	var (
		blockKey    string
		childIndent = -1
		lastChild   string
	)

	for i, raw := range lines {
		lineNo := i + 2
		line := strings.TrimRight(raw, " \t\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent == 0 {
			if strings.HasPrefix(trimmed, "#") {
				continue
			}
			// YAML allows a block sequence at the same indentation as its key.
			if isSequenceItem(trimmed) && blockKey != "" && blockKey != MetadataKey {
				fm.appendOpaque(blockKey, trimmed)
				continue
			}
			key, value, ok := splitKeyValue(trimmed)
			if !ok {
				blockKey = ""
				continue
			}
			fm.set(key, value, lineNo)
			blockKey = ""
			if value == "" {
				blockKey = key
			}
			childIndent = -1
			lastChild = ""
			continue
		}

		if blockKey == "" {
			// Continuation of a scalar (for example the body of a "|" block).
			continue
		}

		if blockKey != MetadataKey {
			fm.appendOpaque(blockKey, trimmed)
			continue
		}

		if childIndent == -1 {
			childIndent = indent
		}
		if indent > childIndent && lastChild != "" {
			fm.appendOpaque(lastChild, trimmed)
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		key, value, ok := splitKeyValue(trimmed)
		if !ok {
			continue
		}
		lastChild = MetadataKey + "." + key
		fm.set(lastChild, value, lineNo)
	}
}

func isSequenceItem(line string) bool {
	return line == "-" || strings.HasPrefix(line, "- ")
}

func splitKeyValue(line string) (string, string, bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	key := strings.TrimSpace(line[:idx])
	if key == "" || strings.ContainsAny(key, " \t") && !isQuoted(key) {
		return "", "", false
	}
	return unquote(key), strings.TrimSpace(line[idx+1:]), true
}

func (fm *FrontMatter) set(key, value string, line int) {
	if i, ok := fm.index[key]; ok {
		fm.fields[i] = Field{Key: key, Value: value, Line: line}
		return
	}
	fm.index[key] = len(fm.fields)
	fm.fields = append(fm.fields, Field{Key: key, Value: value, Line: line})
}

func (fm *FrontMatter) appendOpaque(key, text string) {
	i, ok := fm.index[key]
	if !ok {
		return
	}
	if IsBlockIndicator(fm.fields[i].Value) {
		return
	}
	fm.fields[i].Continued = true
	if fm.fields[i].Value == "" {
		fm.fields[i].Value = text
		return
	}
	fm.fields[i].Value += "\n" + text
}

// Has reports whether key was declared, even with an empty value.
func (fm *FrontMatter) Has(key string) bool {
	if fm == nil {
		return false
	}
	_, ok := fm.index[key]
	return ok
}

// Raw returns the trimmed value of key exactly as written, including quotes.
func (fm *FrontMatter) Raw(key string) string {
	if fm == nil {
		return ""
	}
	i, ok := fm.index[key]
	if !ok {
		return ""
	}
	return fm.fields[i].Value
}

// Get returns the value of key with one level of matching surrounding quotes removed.
func (fm *FrontMatter) Get(key string) string {
	return unquote(fm.Raw(key))
}

// Quoted reports whether the raw value of key is wrapped in matching quotes.
func (fm *FrontMatter) Quoted(key string) bool {
	return isQuoted(fm.Raw(key))
}

// Continued reports whether the value of key spans indented lines below it.
func (fm *FrontMatter) Continued(key string) bool {
	if fm == nil {
		return false
	}
	if i, ok := fm.index[key]; ok {
		return fm.fields[i].Continued
	}
	return false
}

// Line returns the document line number of key, or 0 when it is absent.
func (fm *FrontMatter) Line(key string) int {
	if fm == nil {
		return 0
	}
	if i, ok := fm.index[key]; ok {
		return fm.fields[i].Line
	}
	return 0
}

// Fields returns a copy of all fields in document order.
func (fm *FrontMatter) Fields() []Field {
	if fm == nil {
		return nil
	}
	out := make([]Field, len(fm.fields))
	copy(out, fm.fields)
	return out
}

// Name returns the "name" field.
func (fm *FrontMatter) Name() string { return fm.Get("name") }

// Description returns the "description" field.
func (fm *FrontMatter) Description() string { return fm.Get("description") }

// License returns the "license" field.
func (fm *FrontMatter) License() string { return fm.Get("license") }

// Compatibility returns the "compatibility" field.
func (fm *FrontMatter) Compatibility() string { return fm.Get("compatibility") }

// Category returns the nested "metadata.category" field.
func (fm *FrontMatter) Category() string { return fm.Get(MetadataKey + ".category") }

// AllowedToolsKey returns the key under which allowed tools are declared,
// preferring "allowed-tools" over the camel-cased spelling.
func (fm *FrontMatter) AllowedToolsKey() string {
	if fm.Has("allowedTools") && !fm.Has("allowed-tools") {
		return "allowedTools"
	}
	return "allowed-tools"
}

// AllowedTools returns the capability tokens of the allowed tools field. The
// value may be space or comma separated, a flow list ("[Read, Grep]") or a
// block list of "- Token" lines.
func (fm *FrontMatter) AllowedTools() []string {
	return SplitTokens(fm.Raw(fm.AllowedToolsKey()))
}

// SplitTokens splits a tool declaration into its tokens. Parenthesised
// arguments such as "Bash(git diff:*)" stay attached to their token.
func SplitTokens(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		raw = raw[1 : len(raw)-1]
	}

	var (
		tokens []string
		cur    strings.Builder
		depth  int
	)
	flush := func() {
		tok := unquote(strings.TrimSpace(cur.String()))
		cur.Reset()
		if tok != "" && tok != "-" {
			tokens = append(tokens, tok)
		}
	}
	for _, r := range raw {
		switch {
		case r == '(':
			depth++
			cur.WriteRune(r)
		case r == ')':
			if depth > 0 {
				depth--
			}
			cur.WriteRune(r)
		case depth == 0 && (r == ' ' || r == '\t' || r == '\n' || r == ','):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// IsBlockIndicator reports whether value is a YAML block-scalar header,
// such as "|", ">-", "|2" or "| # comment".
func IsBlockIndicator(value string) bool {
	value = strings.TrimSpace(value)
	if i := strings.IndexAny(value, " \t"); i > 0 && strings.HasPrefix(strings.TrimSpace(value[i:]), "#") {
		value = value[:i]
	}
	return blockHeader.MatchString(value)
}

func isQuoted(s string) bool {
	if len(s) < 2 {
		return false
	}
	first, last := s[0], s[len(s)-1]
	return (first == '"' || first == '\'') && first == last
}

func unquote(s string) string {
	if isQuoted(s) {
		return s[1 : len(s)-1]
	}
	return s
}
