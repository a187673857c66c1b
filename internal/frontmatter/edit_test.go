package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	doc := Split("---\ntitle: A\n---\nbody\nmore")
	require.True(t, doc.HasFrontmatter)
	assert.Equal(t, "A", doc.Attributes.StringValue("title"))
	assert.Equal(t, "body\nmore", doc.Body)

	doc = Split("no frontmatter")
	assert.False(t, doc.HasFrontmatter)
	assert.Equal(t, "no frontmatter", doc.Body)
	assert.Equal(t, "no frontmatter", doc.String())
}

func TestSerialize(t *testing.T) {
	attrs := NewAttributeMap()
	attrs.Set("title", StringValue("Hello"))
	attrs.Set("tags", ListValue("a", "b"))
	attrs.Set("done", BoolValue(true))
	attrs.Set("count", NumberValue(3))
	attrs.Set("empty", StringValue(""))
	attrs.Set("none", ListValue())

	assert.Equal(t, "---\ntitle: Hello\ntags:\n  - a\n  - b\ndone: true\ncount: 3\nempty:\nnone: []\n---", Serialize(attrs))
}

func TestSerialize_QuotesAmbiguousScalars(t *testing.T) {
	for _, s := range []string{"true", "42", "a #b", "- dash", "[x]", " padded ", "it's #1", `say "hi" #now`, "# hash"} {
		attrs := NewAttributeMap()
		attrs.Set("v", StringValue(s))

		out := Serialize(attrs)
		doc := Split(out)
		require.True(t, doc.HasFrontmatter, "serialized %q: %s", s, out)

		got, ok := doc.Attributes.Get("v")
		require.True(t, ok, "serialized %q: %s", s, out)
		assert.Equal(t, StringValue(s), got, "serialized %q: %s", s, out)
	}
}

func TestSerialize_PlainScalarsStayPlain(t *testing.T) {
	attrs := NewAttributeMap()
	attrs.Set("title", StringValue("Meeting <%- date.now() %>"))
	assert.Equal(t, "---\ntitle: Meeting <%- date.now() %>\n---", Serialize(attrs))
}

func TestSetAttributes(t *testing.T) {
	updates := NewAttributeMap()
	updates.Set("status", StringValue("done"))
	assert.Equal(t, "---\nstatus: done\n---\n# Title\nbody", SetAttributes("# Title\nbody", updates))

	updates = NewAttributeMap()
	updates.Set("title", StringValue("B"))
	updates.Set("x", NumberValue(1))
	assert.Equal(t, "---\ntitle: B\nx: 1\n---\nbody", SetAttributes("---\ntitle: A\n---\nbody", updates))

	assert.Equal(t, "---\ntitle: B\nx: 1\n---", SetAttributes("---\ntitle: A\n---", updates))
}

func TestRemoveAttributes(t *testing.T) {
	out, changed := RemoveAttributes("---\ntitle: A\nx: 1\n---\nbody", "x")
	assert.True(t, changed)
	assert.Equal(t, "---\ntitle: A\n---\nbody", out)

	out, changed = RemoveAttributes("---\nx: 1\n---\nbody", "x")
	assert.True(t, changed)
	assert.Equal(t, "body", out)

	out, changed = RemoveAttributes("---\nx: 1\n---\nbody", "missing")
	assert.False(t, changed)
	assert.Equal(t, "---\nx: 1\n---\nbody", out)

	out, changed = RemoveAttributes("plain", "x")
	assert.False(t, changed)
	assert.Equal(t, "plain", out)
}

func TestNormalizeDelimiters(t *testing.T) {
	assert.Equal(t, "---\na: b\n---\nbody", NormalizeDelimiters("--\na: b\n--\nbody"))
	assert.Equal(t, "---\na: b\n---\nbody", NormalizeDelimiters("---\na: b\n---\nbody"))
	assert.Equal(t, "--\nprose\n--", NormalizeDelimiters("--\nprose\n--"))
}

func TestConvertInlineTitle(t *testing.T) {
	out, changed := ConvertInlineTitle("# My Note\nbody")
	assert.True(t, changed)
	assert.Equal(t, "---\ntitle: My Note\n---\nbody", out)

	out, changed = ConvertInlineTitle("---\ntags: [x]\n---\n# T\nb")
	assert.True(t, changed)
	assert.Equal(t, "---\ntags:\n  - x\ntitle: T\n---\nb", out)

	_, changed = ConvertInlineTitle("---\ntitle: Already\n---\n# Other")
	assert.False(t, changed)

	_, changed = ConvertInlineTitle("prose first\n# Heading")
	assert.False(t, changed)
}
