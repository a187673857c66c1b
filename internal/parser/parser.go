// Package parser extracts frontmatter, tags and the title from Markdown notes.
package parser

import (
	"regexp"
	"strings"

	"github.com/starford/notesmith/internal/frontmatter"
)

const keyTags = "tags"

var tagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter frontmatter.AttributeMap
	Body        string
	Tags        []string
	Title       string
}

// Parse splits data into its leading frontmatter block and body, then
// derives tags and the title. A malformed block is treated as body text, so
// Parse never fails on content.
func Parse(data []byte) *Result {
	doc := frontmatter.Split(string(data))
	return &Result{
		Frontmatter: doc.Attributes,
		Body:        doc.Body,
		Tags:        extractTags(doc.Body, doc.Attributes),
		Title:       deriveTitle(doc.Attributes, doc.Body),
	}
}

// extractTags collects tags from the frontmatter "tags" attribute followed by
// inline #tags in the body, without duplicates.
func extractTags(body string, fm frontmatter.AttributeMap) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(t string) {
		t = strings.TrimPrefix(strings.TrimSpace(t), "#")
		if t == "" {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	if v, ok := fm.Get(keyTags); ok {
		switch v.Kind {
		case frontmatter.KindList:
			for _, item := range v.List {
				add(item)
			}
		case frontmatter.KindString:
			for _, item := range strings.FieldsFunc(v.Str, func(r rune) bool { return r == ',' || r == ' ' }) {
				add(item)
			}
		}
	}

	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// deriveTitle returns the frontmatter title when set, otherwise the inline
// heading title of the body.
func deriveTitle(fm frontmatter.AttributeMap, body string) string {
	if fm.HasValue(frontmatter.KeyTitle) {
		return strings.TrimSpace(fm.StringValue(frontmatter.KeyTitle))
	}
	title, _ := frontmatter.FindInlineTitle(body)
	return title
}
