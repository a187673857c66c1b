package render

import "strings"

type tokenKind int

const (
	tokText tokenKind = iota
	tokEscaped
	tokRaw
	tokComment
	tokCode
)

type token struct {
	kind tokenKind
	val  string
	line int // 1-based line of the token start within the source
}

const (
	openTag  = "<%"
	closeTag = "%>"
)

// lex splits src into text and tag tokens. Whitespace control is applied
// here so the parser only sees the final text.
func lex(src string) ([]token, error) {
	var toks []token
	var text strings.Builder
	textLine := 1
	line := 1
	pos := 0

	flush := func() {
		if text.Len() > 0 {
			toks = append(toks, token{kind: tokText, val: text.String(), line: textLine})
			text.Reset()
		}
	}

	for pos < len(src) {
		i := strings.Index(src[pos:], openTag)
		if i < 0 {
			if text.Len() == 0 {
				textLine = line
			}
			text.WriteString(src[pos:])
			break
		}
		if text.Len() == 0 {
			textLine = line
		}
		text.WriteString(src[pos : pos+i])
		line += strings.Count(src[pos:pos+i], "\n")
		pos += i + len(openTag)

		// "<%%" is a literal "<%".
		if pos < len(src) && src[pos] == '%' {
			text.WriteString(openTag)
			pos++
			continue
		}

		kind := tokCode
		if pos < len(src) {
			switch src[pos] {
			case '=':
				kind = tokEscaped
				pos++
			case '-':
				kind = tokRaw
				pos++
			case '#':
				kind = tokComment
				pos++
			case '_':
				pos++
				trimmed := strings.TrimRight(text.String(), " \t")
				text.Reset()
				text.WriteString(trimmed)
			}
		}

		tagLine := line
		end := strings.Index(src[pos:], closeTag)
		if end < 0 {
			return nil, &RenderError{LineNo: tagLine, Message: "could not find matching close tag for \"" + openTag + "\""}
		}
		body := src[pos : pos+end]
		line += strings.Count(body, "\n")
		pos += end + len(closeTag)

		slurpNewline := false
		switch {
		case strings.HasSuffix(body, "-"):
			body = body[:len(body)-1]
			slurpNewline = true
		case strings.HasSuffix(body, "_"):
			body = body[:len(body)-1]
			for pos < len(src) && (src[pos] == ' ' || src[pos] == '\t') {
				pos++
			}
			slurpNewline = true
		}
		if slurpNewline {
			switch {
			case strings.HasPrefix(src[pos:], "\r\n"):
				pos += 2
				line++
			case strings.HasPrefix(src[pos:], "\n"):
				pos++
				line++
			}
		}

		flush()
		if kind != tokComment {
			toks = append(toks, token{kind: kind, val: strings.TrimSpace(body), line: tagLine})
		}
	}
	flush()
	return toks, nil
}
