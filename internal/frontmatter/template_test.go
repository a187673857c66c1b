package frontmatter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeTemplateStructure_NewNoteTitle(t *testing.T) {
	s := AnalyzeTemplateStructure("---\ntitle: my template\nnewNoteTitle: foo\n---")

	assert.True(t, s.HasNewNoteTitle)
	assert.Equal(t, "foo", s.TemplateFrontmatter.StringValue("newNoteTitle"))
	assert.Equal(t, "my template", s.TemplateFrontmatter.StringValue("title"))
	assert.False(t, s.HasOutputFrontmatter)
	assert.False(t, s.HasInlineTitle)
	assert.Equal(t, "", s.BodyContent)
	assert.Equal(t, 4, s.ContentStartLine)
}

func TestAnalyzeTemplateStructure_OutputFrontmatterAndInlineTitle(t *testing.T) {
	s := AnalyzeTemplateStructure("---\ntitle: my template\n---\n--\nprop: this is in the resulting note\n--\n# Some content")

	assert.True(t, s.HasOutputFrontmatter)
	assert.Equal(t, "this is in the resulting note", s.OutputFrontmatter.StringValue("prop"))
	assert.False(t, s.HasOutputTitle)
	assert.True(t, s.HasInlineTitle)
	assert.Equal(t, "Some content", s.InlineTitleText)
	assert.Equal(t, "# Some content", s.BodyContent)
	assert.Equal(t, 3, s.ContentStartLine)
}

func TestAnalyzeTemplateStructure_TitleMustBeFirstLine(t *testing.T) {
	s := AnalyzeTemplateStructure("---\ntitle: template title\n---\n--\nnote: frontmatter\n--\nThis is not a title\n# This title comes later")

	assert.True(t, s.HasOutputFrontmatter)
	assert.False(t, s.HasInlineTitle)
	assert.Equal(t, "", s.InlineTitleText)
}

func TestAnalyzeTemplateStructure_Empty(t *testing.T) {
	s := AnalyzeTemplateStructure("")

	assert.False(t, s.HasNewNoteTitle)
	assert.False(t, s.HasOutputFrontmatter)
	assert.False(t, s.HasOutputTitle)
	assert.False(t, s.HasInlineTitle)
	assert.Equal(t, 0, s.TemplateFrontmatter.Len())
	assert.Equal(t, 0, s.OutputFrontmatter.Len())
	assert.Equal(t, "", s.InlineTitleText)
	assert.Equal(t, "", s.BodyContent)
}

func TestAnalyzeTemplateStructure_IncompleteSecondBlock(t *testing.T) {
	text := "---\ntitle: template\n---\n---\nincomplete frontmatter\n# inline title"
	s := AnalyzeTemplateStructure(text)

	assert.False(t, s.HasOutputFrontmatter)
	assert.Equal(t, 0, s.OutputFrontmatter.Len())
	assert.False(t, s.HasInlineTitle)
	assert.Equal(t, "---\nincomplete frontmatter\n# inline title", s.BodyContent)
}

func TestAnalyzeTemplateStructure_NoFrontmatter(t *testing.T) {
	s := AnalyzeTemplateStructure("# This is just a title\nSome content here")

	assert.True(t, s.HasInlineTitle)
	assert.Equal(t, "This is just a title", s.InlineTitleText)
	assert.Equal(t, 0, s.TemplateFrontmatter.Len())
	assert.Equal(t, "# This is just a title\nSome content here", s.BodyContent)
	assert.Equal(t, 0, s.ContentStartLine)
}

func TestAnalyzeTemplateStructure_LoneSeparatorBeforeHeading(t *testing.T) {
	s := AnalyzeTemplateStructure("---\ntitle: t\n---\n---\n# Heading\nbody")

	assert.False(t, s.HasOutputFrontmatter)
	assert.True(t, s.HasInlineTitle)
	assert.Equal(t, "Heading", s.InlineTitleText)
}

func TestAnalyzeTemplateStructure_ProseBlockIsBody(t *testing.T) {
	text := "---\ntitle: t\n---\n---\nJust prose here\n---\n# Heading"
	s := AnalyzeTemplateStructure(text)

	assert.False(t, s.HasOutputFrontmatter)
	assert.Equal(t, "---\nJust prose here\n---\n# Heading", s.BodyContent)
	assert.False(t, s.HasInlineTitle)
}

func TestAnalyzeTemplateStructure_TagOnlyBlockIsBody(t *testing.T) {
	s := AnalyzeTemplateStructure("---\ntitle: t\n---\n---\n<%- frontmatter %>\n---\n# Heading")

	assert.False(t, s.HasOutputFrontmatter)
	assert.False(t, s.HasInlineTitle)
}

func TestAnalyzeTemplateStructure_BlankLinesBetweenBlocks(t *testing.T) {
	s := AnalyzeTemplateStructure("---\ntitle: t\n---\n\n\n--\ntitle: Output <%- x %>\n--\n\n## Sub <%- date.now() %>")

	require.True(t, s.HasOutputFrontmatter)
	assert.True(t, s.HasOutputTitle)
	assert.Equal(t, "Output <%- x %>", s.OutputFrontmatter.StringValue("title"))
	assert.True(t, s.HasInlineTitle)
	assert.Equal(t, "Sub <%- date.now() %>", s.InlineTitleText)
	assert.Equal(t, "\n## Sub <%- date.now() %>", s.BodyContent)
}

func TestAnalyzeTemplateStructure_HeadingBlockIsBody(t *testing.T) {
	s := AnalyzeTemplateStructure("---\nt: x\n---\n--\n# Title\n--\nbody")

	assert.False(t, s.HasOutputFrontmatter)
	assert.Equal(t, 0, s.OutputFrontmatter.Len())
	assert.True(t, s.HasInlineTitle)
	assert.Equal(t, "Title", s.InlineTitleText)
	assert.Equal(t, "--\n# Title\n--\nbody", s.BodyContent)
}

func TestAnalyzeTemplateStructure_OutputBlockWithoutTemplateBlock(t *testing.T) {
	s := AnalyzeTemplateStructure("\n\n---\ntitle: Out\n---\n# T")

	assert.Equal(t, 0, s.TemplateFrontmatter.Len())
	assert.Equal(t, 0, s.ContentStartLine)
	require.True(t, s.HasOutputFrontmatter)
	assert.True(t, s.HasOutputTitle)
	assert.Equal(t, "Out", s.OutputFrontmatter.StringValue("title"))
	assert.True(t, s.HasInlineTitle)
	assert.Equal(t, "T", s.InlineTitleText)
	assert.Equal(t, "# T", s.BodyContent)
}

func TestAnalyzeTemplateStructure_OnlyFirstTwoBlocks(t *testing.T) {
	s := AnalyzeTemplateStructure("---\na: 1\n---\n--\nb: 2\n--\n---\nc: 3\n---\n# T")

	require.True(t, s.HasOutputFrontmatter)
	v, _ := s.OutputFrontmatter.Get("b")
	assert.Equal(t, NumberValue(2), v)
	assert.False(t, s.OutputFrontmatter.Has("c"))
	assert.Equal(t, "---\nc: 3\n---\n# T", s.BodyContent)
	assert.False(t, s.HasInlineTitle)
}

func TestAnalyzeTemplateStructure_MixedDelimitersNeverABlock(t *testing.T) {
	s := AnalyzeTemplateStructure("---\na: b\n--\n# Heading")

	assert.Equal(t, 0, s.TemplateFrontmatter.Len())
	assert.False(t, s.HasInlineTitle)
}

func TestAnalyzeTemplateStructure_EmptyNewNoteTitle(t *testing.T) {
	s := AnalyzeTemplateStructure("---\nnewNoteTitle:\n---\n# H")

	assert.False(t, s.HasNewNoteTitle)
	assert.True(t, s.TemplateFrontmatter.Has("newNoteTitle"))
}

func TestAnalyzeTemplateStructure_JSONDefaults(t *testing.T) {
	out, err := json.Marshal(AnalyzeTemplateStructure(""))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, map[string]any{}, got["templateFrontmatter"])
	assert.Equal(t, map[string]any{}, got["outputFrontmatter"])
	assert.Equal(t, false, got["hasInlineTitle"])
	assert.Equal(t, "", got["inlineTitleText"])
}

func TestIsHeadingLine(t *testing.T) {
	for _, tc := range []struct {
		line string
		want string
		ok   bool
	}{
		{"# One", "One", true},
		{"###### Six", "Six", true},
		{"####### Seven", "", false},
		{"#NoSpace", "", false},
		{"#   padded   ", "padded", true},
		{"#    ", "", false},
		{"  # indented", "", false},
		{"## Meeting <%- date.now() %>", "Meeting <%- date.now() %>", true},
		{"# Windows\r", "Windows", true},
	} {
		got, ok := IsHeadingLine(tc.line)
		assert.Equal(t, tc.ok, ok, "line %q", tc.line)
		assert.Equal(t, tc.want, got, "line %q", tc.line)
	}
}

func TestFindInlineTitle_FirstLineOnly(t *testing.T) {
	_, ok := FindInlineTitle("Intro paragraph\n# Later heading")
	assert.False(t, ok)

	_, ok = FindInlineTitle("- list item\n# Heading")
	assert.False(t, ok)

	title, ok := FindInlineTitle("\n  \n# Title\n# Second")
	assert.True(t, ok)
	assert.Equal(t, "Title", title)

	_, ok = FindInlineTitle("####### too deep\n# Heading")
	assert.False(t, ok)
}

func TestGetNoteTitleFromTemplate(t *testing.T) {
	assert.Equal(t, "Explicit", GetNoteTitleFromTemplate("---\nnewNoteTitle: Explicit\n---\n# Heading"))
	assert.Equal(t, "Heading", GetNoteTitleFromTemplate("---\ntitle: tpl\n---\n# Heading"))
	assert.Equal(t, "", GetNoteTitleFromTemplate("---\ntitle: tpl\n---\nplain body"))
	assert.Equal(t, "Meeting <%- date.now() %>", GetNoteTitleFromTemplate("---\nnewNoteTitle: Meeting <%- date.now() %>\n---\n"))
	assert.Equal(t, "H", GetNoteTitleFromTemplate("---\nnewNoteTitle:   \n---\n# H"))
}

func TestGetNoteTitleFromRenderedContent(t *testing.T) {
	assert.Equal(t, "Rendered", GetNoteTitleFromRenderedContent("---\ntitle: x\n---\n# Rendered"))
	assert.Equal(t, "A", GetNoteTitleFromRenderedContent("# A\n# B"))
	assert.Equal(t, "", GetNoteTitleFromRenderedContent("text\n# A"))
	assert.Equal(t, "", GetNoteTitleFromRenderedContent("---\nnewNoteTitle: ignored\n---\nbody"))
	assert.Equal(t, "", GetNoteTitleFromRenderedContent(""))
}
