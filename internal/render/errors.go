package render

import (
	"fmt"
	"strings"
)

// contextLines is the number of source lines shown on each side of the
// failing line.
const contextLines = 2

// RenderError describes a failed render. LineNo is 1-based and refers to
// the original template source; 0 means the line is unknown.
type RenderError struct {
	Filename string
	LineNo   int
	Message  string
	// Context holds the numbered source lines around LineNo with the
	// failing line marked by ">>".
	Context string
}

func (e *RenderError) Error() string {
	name := e.Filename
	if name == "" {
		name = "template"
	}
	var b strings.Builder
	if e.LineNo > 0 {
		fmt.Fprintf(&b, "%s:%d: %s", name, e.LineNo, e.Message)
	} else {
		fmt.Fprintf(&b, "%s: %s", name, e.Message)
	}
	if e.Context != "" {
		b.WriteString("\n")
		b.WriteString(e.Context)
	}
	return b.String()
}

// withSource remaps the error line by offset and attaches a context excerpt
// taken from src, whose first line is original line offset+1. A negative
// offset means src cannot be placed in the original file.
func (e *RenderError) withSource(src string, offset int, filename string) *RenderError {
	e.Filename = filename
	if e.LineNo <= 0 || offset < 0 {
		e.LineNo = 0
		return e
	}
	local := e.LineNo
	e.LineNo += offset

	lines := strings.Split(src, "\n")
	start := max(local-contextLines, 1)
	end := min(local+contextLines, len(lines))
	width := len(fmt.Sprint(end + offset))

	var b strings.Builder
	for i := start; i <= end; i++ {
		marker := "   "
		if i == local {
			marker = ">> "
		}
		fmt.Fprintf(&b, "%s%*d| %s\n", marker, width, i+offset, strings.TrimRight(lines[i-1], "\r"))
	}
	e.Context = strings.TrimRight(b.String(), "\n")
	return e
}

func errorf(line int, format string, args ...any) *RenderError {
	return &RenderError{LineNo: line, Message: fmt.Sprintf(format, args...)}
}
