package frontmatter

import (
	"regexp"
	"strings"
)

// Well-known attribute keys.
const (
	KeyNewNoteTitle = "newNoteTitle"
	KeyTitle        = "title"
)

var headingRe = regexp.MustCompile(`^#{1,6}\s+(.+)$`)

// TemplateStructure describes how a template (or rendered note) splits into
// template frontmatter, output frontmatter and body. Every field is always
// populated; the attribute maps are empty rather than nil.
type TemplateStructure struct {
	TemplateFrontmatter  AttributeMap `json:"templateFrontmatter"`
	HasNewNoteTitle      bool         `json:"hasNewNoteTitle"`
	OutputFrontmatter    AttributeMap `json:"outputFrontmatter"`
	HasOutputFrontmatter bool         `json:"hasOutputFrontmatter"`
	HasOutputTitle       bool         `json:"hasOutputTitle"`
	HasInlineTitle       bool         `json:"hasInlineTitle"`
	InlineTitleText      string       `json:"inlineTitleText"`
	BodyContent          string       `json:"bodyContent"`

	// ContentStartLine is the 0-based line right after the template
	// frontmatter (0 when there is none). Renderers add it to error line
	// numbers when they render only the text from this line on.
	ContentStartLine int `json:"contentStartLine"`
}

func emptyStructure() TemplateStructure {
	return TemplateStructure{
		TemplateFrontmatter: NewAttributeMap(),
		OutputFrontmatter:   NewAttributeMap(),
	}
}

// AnalyzeTemplateStructure classifies text into at most two leading
// frontmatter blocks and a body, then looks for an inline title in the
// body. It never fails; malformed input yields the default result.
func AnalyzeTemplateStructure(text string) TemplateStructure {
	res := emptyStructure()
	if text == "" {
		return res
	}
	lines := SplitLines(text)
	cursor := 0

	if block, ok := ScanBlockAt(lines, 0); ok {
		res.TemplateFrontmatter = ParseAttributes(block.InnerText)
		cursor = block.EndLine + 1
		res.ContentStartLine = cursor
	}

	next := cursor
	for next < len(lines) && IsBlankLine(lines[next]) {
		next++
	}
	if out, ok := ScanBlockAt(lines, next); ok {
		res.OutputFrontmatter = ParseAttributes(out.InnerText)
		res.HasOutputFrontmatter = true
		cursor = out.EndLine + 1
	}

	res.HasNewNoteTitle = res.TemplateFrontmatter.HasValue(KeyNewNoteTitle)
	res.HasOutputTitle = res.OutputFrontmatter.HasValue(KeyTitle)

	if cursor < len(lines) {
		res.BodyContent = strings.Join(lines[cursor:], "\n")
	}
	res.InlineTitleText, res.HasInlineTitle = FindInlineTitle(res.BodyContent)
	return res
}

// IsHeadingLine reports whether line is a Markdown heading of level 1 to 6
// and returns its trimmed text. Headings with no text do not count.
func IsHeadingLine(line string) (string, bool) {
	m := headingRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
	if m == nil {
		return "", false
	}
	text := strings.TrimSpace(m[1])
	if text == "" {
		return "", false
	}
	return text, true
}

// FindInlineTitle inspects only the first significant line of body, skipping
// blank lines and bare delimiter rules, and returns its heading text.
// Scripting tags in the heading are returned verbatim.
func FindInlineTitle(body string) (string, bool) {
	lines := SplitLines(body)
	idx := firstSignificantLine(lines)
	if idx < 0 {
		return "", false
	}
	return IsHeadingLine(lines[idx])
}

// GetNoteTitleFromTemplate resolves the title a note generated from the
// template should get: an explicit newNoteTitle directive wins over the
// inline heading. It returns "" when neither exists.
func GetNoteTitleFromTemplate(text string) string {
	s := AnalyzeTemplateStructure(text)
	if s.HasNewNoteTitle {
		return s.TemplateFrontmatter.StringValue(KeyNewNoteTitle)
	}
	if s.HasInlineTitle {
		return s.InlineTitleText
	}
	return ""
}

// GetNoteTitleFromRenderedContent returns the inline title of already
// rendered note content. A leading frontmatter block is skipped;
// newNoteTitle is never consulted.
func GetNoteTitleFromRenderedContent(text string) string {
	lines := SplitLines(text)
	body := text
	if block, ok := ScanBlockAt(lines, 0); ok {
		body = strings.Join(lines[block.EndLine+1:], "\n")
	}
	title, _ := FindInlineTitle(body)
	return title
}
