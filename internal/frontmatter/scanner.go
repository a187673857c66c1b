// Package frontmatter finds, validates and parses delimiter-bounded
// frontmatter blocks and classifies note templates into template
// frontmatter, output frontmatter and body.
//
// Detection is permissive: malformed blocks are never an error, they are
// simply not frontmatter and their lines stay part of the body.
package frontmatter

import (
	"regexp"
	"strings"
)

// Delimiters recognised as block boundaries. Both lines of a block must use
// the same one.
const (
	DelimiterLong  = "---"
	DelimiterShort = "--"
)

var (
	keyValueRe = regexp.MustCompile(`^\s*[^:\s#-][^:]*:(\s.*)?$`)
	listItemRe = regexp.MustCompile(`^\s*-(\s+(.*))?$`)
)

// RawBlock is a validated delimiter-bounded region of text.
type RawBlock struct {
	Delimiter string
	StartLine int // index of the opening delimiter line
	EndLine   int // index of the closing delimiter line
	InnerText string
}

// SplitLines splits text on "\n". A trailing "\r" stays on each line and is
// ignored by the line classifiers.
func SplitLines(text string) []string {
	return strings.Split(text, "\n")
}

// IsDelimiterLine returns the delimiter a line consists of, or "" when the
// line is not exactly a delimiter. Trailing whitespace is ignored.
func IsDelimiterLine(line string) string {
	switch strings.TrimRight(line, " \t\r") {
	case DelimiterLong:
		return DelimiterLong
	case DelimiterShort:
		return DelimiterShort
	}
	return ""
}

// IsBlankLine reports whether line contains only whitespace.
func IsBlankLine(line string) bool {
	return strings.TrimSpace(line) == ""
}

// IsListItemLine reports whether line is a "- item" continuation line.
func IsListItemLine(line string) bool {
	return listItemRe.MatchString(strings.TrimRight(line, "\r"))
}

// IsYAMLShapedLine reports whether a non-blank line is legal inside a
// frontmatter block: "key: value", "key:" or a list item. A "# heading"
// line is not, so a block holding one stays body text.
func IsYAMLShapedLine(line string) bool {
	line = strings.TrimRight(line, "\r")
	return keyValueRe.MatchString(line) || listItemRe.MatchString(line)
}

// ValidateYAMLSubset reports whether inner is acceptable block content.
// Empty content is valid.
func ValidateYAMLSubset(inner string) bool {
	for _, line := range SplitLines(inner) {
		if IsBlankLine(line) {
			continue
		}
		if !IsYAMLShapedLine(line) {
			return false
		}
	}
	return true
}

// ScanBlockAt looks for a valid block opening exactly at lines[from]. It
// does not skip blank lines. An unterminated block or one whose content is
// not YAML-shaped is reported as not found.
func ScanBlockAt(lines []string, from int) (RawBlock, bool) {
	if from < 0 || from >= len(lines) {
		return RawBlock{}, false
	}
	d := IsDelimiterLine(lines[from])
	if d == "" {
		return RawBlock{}, false
	}
	for i := from + 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \t\r") != d {
			continue
		}
		inner := strings.Join(lines[from+1:i], "\n")
		if !ValidateYAMLSubset(inner) {
			return RawBlock{}, false
		}
		return RawBlock{
			Delimiter: d,
			StartLine: from,
			EndLine:   i,
			InnerText: inner,
		}, true
	}
	return RawBlock{}, false
}

// ParseAttributes builds an AttributeMap from block content. Lines that do
// not parse are skipped.
func ParseAttributes(inner string) AttributeMap {
	attrs := NewAttributeMap()
	lastKey := ""
	for _, line := range SplitLines(inner) {
		line = strings.TrimRight(line, "\r")
		if IsBlankLine(line) {
			continue
		}
		if m := listItemRe.FindStringSubmatch(line); m != nil {
			if lastKey == "" {
				continue
			}
			appendListItem(&attrs, lastKey, m[2])
			continue
		}
		key, raw, ok := splitKeyValue(line)
		if !ok {
			continue
		}
		attrs.Set(key, parseValue(raw))
		lastKey = key
	}
	return attrs
}

func splitKeyValue(line string) (string, string, bool) {
	if !keyValueRe.MatchString(line) {
		return "", "", false
	}
	i := strings.Index(line, ":")
	key := strings.TrimSpace(line[:i])
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(line[i+1:]), true
}

// parseValue coerces a raw value, expanding "[a, b]" flow lists.
func parseValue(raw string) AttributeValue {
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		var items []string
		for _, p := range strings.Split(raw[1:len(raw)-1], ",") {
			p = strings.TrimSpace(p)
			if unq, ok := unquote(p); ok {
				p = unq
			}
			if p != "" {
				items = append(items, p)
			}
		}
		return ListValue(items...)
	}
	return Coerce(raw)
}

func appendListItem(attrs *AttributeMap, key, item string) {
	item = strings.TrimSpace(item)
	if unq, ok := unquote(item); ok {
		item = unq
	}
	cur, _ := attrs.Get(key)
	var items []string
	switch {
	case cur.Kind == KindList:
		items = cur.List
	case !cur.IsEmpty():
		items = []string{cur.String()}
	}
	if item != "" {
		items = append(items, item)
	}
	attrs.Set(key, ListValue(items...))
}
