package frontmatter

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a note split into its leading frontmatter and body.
type Document struct {
	Attributes     AttributeMap
	Body           string
	HasFrontmatter bool
	Block          RawBlock

	bodyPresent bool
}

// Split separates the frontmatter block at the very first line from the
// rest of text. Without a valid block the whole text is the body.
func Split(text string) Document {
	lines := SplitLines(text)
	block, ok := ScanBlockAt(lines, 0)
	if !ok {
		return Document{Attributes: NewAttributeMap(), Body: text, bodyPresent: true}
	}
	doc := Document{
		Attributes:     ParseAttributes(block.InnerText),
		HasFrontmatter: true,
		Block:          block,
	}
	if block.EndLine+1 < len(lines) {
		doc.Body = strings.Join(lines[block.EndLine+1:], "\n")
		doc.bodyPresent = true
	}
	return doc
}

// String reassembles the document. The frontmatter is re-serialized, so
// original spacing and quoting inside the block are not kept.
func (d Document) String() string {
	if !d.HasFrontmatter {
		return d.Body
	}
	fm := Serialize(d.Attributes)
	if !d.bodyPresent {
		return fm
	}
	return fm + "\n" + d.Body
}

// Serialize renders attrs as a "---" delimited block without a trailing
// newline. Values that would not read back as the same string are quoted.
func Serialize(attrs AttributeMap) string {
	var b strings.Builder
	b.WriteString(DelimiterLong)
	b.WriteByte('\n')
	for _, k := range attrs.Keys() {
		v, _ := attrs.Get(k)
		b.WriteString(k)
		b.WriteByte(':')
		switch v.Kind {
		case KindList:
			if len(v.List) == 0 {
				b.WriteString(" []")
			}
			for _, item := range v.List {
				b.WriteString("\n  - ")
				b.WriteString(formatScalar(item))
			}
		case KindString:
			if v.Str != "" {
				b.WriteByte(' ')
				b.WriteString(formatScalar(v.Str))
			}
		default:
			b.WriteByte(' ')
			b.WriteString(v.String())
		}
		b.WriteByte('\n')
	}
	b.WriteString(DelimiterLong)
	return b.String()
}

// formatScalar quotes s when a plain scalar would change meaning on read.
func formatScalar(s string) string {
	s = strings.ReplaceAll(strings.ReplaceAll(s, "\r", ""), "\n", " ")
	if !needsQuoting(s) {
		return s
	}
	out, err := yaml.Marshal(s)
	if err != nil {
		return `"` + strings.ReplaceAll(s, `"`, `'`) + `"`
	}
	quoted := strings.TrimRight(string(out), "\n")
	if _, ok := unquote(quoted); !ok || strings.Contains(quoted, "\n") {
		quoted = `'` + strings.ReplaceAll(s, `'`, `''`) + `'`
	}
	return quoted
}

func needsQuoting(s string) bool {
	if s != strings.TrimSpace(s) {
		return true
	}
	if v := Coerce(s); v.Kind != KindString || v.Str != s {
		return true
	}
	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "#") {
		return true
	}
	return strings.Contains(s, " #")
}

// SetAttributes merges updates into the frontmatter of text, creating a
// block when there is none.
func SetAttributes(text string, updates AttributeMap) string {
	doc := Split(text)
	if !doc.HasFrontmatter {
		doc.HasFrontmatter = true
		doc.bodyPresent = true
	}
	for _, k := range updates.Keys() {
		v, _ := updates.Get(k)
		doc.Attributes.Set(k, v)
	}
	return doc.String()
}

// RemoveAttributes deletes keys from the frontmatter of text. A block left
// without keys is removed entirely. It reports whether anything changed.
func RemoveAttributes(text string, keys ...string) (string, bool) {
	doc := Split(text)
	if !doc.HasFrontmatter {
		return text, false
	}
	changed := false
	for _, k := range keys {
		if doc.Attributes.Delete(k) {
			changed = true
		}
	}
	if !changed {
		return text, false
	}
	if doc.Attributes.Len() == 0 {
		return doc.Body, true
	}
	return doc.String(), true
}

// NormalizeDelimiters rewrites a leading "--" block to use "---", which is
// how output frontmatter is written into generated notes.
func NormalizeDelimiters(text string) string {
	lines := SplitLines(text)
	block, ok := ScanBlockAt(lines, 0)
	if !ok || block.Delimiter == DelimiterLong {
		return text
	}
	lines[block.StartLine] = DelimiterLong
	lines[block.EndLine] = DelimiterLong
	return strings.Join(lines, "\n")
}

// ConvertInlineTitle moves the inline title heading of a note into a
// "title" attribute. Notes that already have a title attribute or no inline
// title are returned unchanged.
func ConvertInlineTitle(text string) (string, bool) {
	doc := Split(text)
	if doc.Attributes.HasValue(KeyTitle) {
		return text, false
	}
	lines := SplitLines(doc.Body)
	idx := firstSignificantLine(lines)
	if idx < 0 {
		return text, false
	}
	title, ok := IsHeadingLine(lines[idx])
	if !ok {
		return text, false
	}
	lines = append(lines[:idx], lines[idx+1:]...)
	doc.Body = strings.Join(lines, "\n")
	doc.bodyPresent = true
	doc.HasFrontmatter = true
	doc.Attributes.Set(KeyTitle, StringValue(title))
	return doc.String(), true
}

func firstSignificantLine(lines []string) int {
	for i, line := range lines {
		if IsBlankLine(line) || IsDelimiterLine(line) != "" {
			continue
		}
		return i
	}
	return -1
}
