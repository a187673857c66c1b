// Package render implements the "<% %>" template language used by note
// templates.
//
// Supported tags:
//
//	<%= expr %>   output, HTML-escaped
//	<%- expr %>   output, raw
//	<%# text %>   comment
//	<% if expr %> ... <% else %> ... <% end %>
//	<% each list as item %> ... <% end %>
//	<%%           literal "<%"
//
// A closing "-%>" or "_%>" also removes the newline that follows the tag,
// and an opening "<%_" removes spaces and tabs before it.
//
// Expressions are dotted paths into the render data, string and number
// literals, helper calls such as date.now("2006-01-02"), "a || b" fallbacks
// and "!" negation.
package render

import (
	"errors"
	"fmt"
	"html"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Func is a helper callable from expressions.
type Func func(args ...any) (any, error)

// Options control a single render.
type Options struct {
	// Filename is used in error messages.
	Filename string
	// LineOffset is added to every reported line number. Callers that
	// render only a tail of a file pass the number of lines cut off. A
	// negative offset reports every error with an unknown line.
	LineOffset int
	// Funcs adds to or overrides the built-in helpers.
	Funcs map[string]Func
	// Now is the clock used by date helpers; time.Now when nil.
	Now func() time.Time
}

// Render executes src against data. Failures are returned as *RenderError.
func Render(src string, data map[string]any, opts Options) (string, error) {
	out, err := render(src, data, opts)
	if err != nil {
		var rerr *RenderError
		if !errors.As(err, &rerr) {
			rerr = &RenderError{Message: err.Error()}
		}
		return "", rerr.withSource(src, opts.LineOffset, opts.Filename)
	}
	return out, nil
}

func render(src string, data map[string]any, opts Options) (string, error) {
	toks, err := lex(src)
	if err != nil {
		return "", err
	}
	nodes, err := parse(toks)
	if err != nil {
		return "", err
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	funcs := builtins(now)
	for name, fn := range opts.Funcs {
		funcs[name] = fn
	}

	st := &state{funcs: funcs, scopes: []map[string]any{data}}
	var b strings.Builder
	if err := st.exec(&b, nodes); err != nil {
		return "", err
	}
	return b.String(), nil
}

type state struct {
	funcs  map[string]Func
	scopes []map[string]any // innermost last
}

func (s *state) exec(b *strings.Builder, nodes []node) error {
	for _, n := range nodes {
		switch n := n.(type) {
		case textNode:
			b.WriteString(n.text)
		case outputNode:
			v, err := s.eval(n.x, n.line)
			if err != nil {
				return err
			}
			str := stringify(v)
			if n.escape {
				str = html.EscapeString(str)
			}
			b.WriteString(str)
		case ifNode:
			v, err := s.eval(n.cond, n.line)
			if err != nil {
				return err
			}
			branch := n.els
			if truthy(v) {
				branch = n.then
			}
			if err := s.exec(b, branch); err != nil {
				return err
			}
		case eachNode:
			if err := s.execEach(b, n); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *state) execEach(b *strings.Builder, n eachNode) error {
	v, err := s.eval(n.list, n.line)
	if err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return errorf(n.line, "cannot iterate over %T", v)
	}
	for i := 0; i < rv.Len(); i++ {
		s.scopes = append(s.scopes, map[string]any{n.name: rv.Index(i).Interface()})
		err := s.exec(b, n.body)
		s.scopes = s.scopes[:len(s.scopes)-1]
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *state) lookup(name string) (any, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if v, ok := s.scopes[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (s *state) eval(x expr, line int) (any, error) {
	switch x := x.(type) {
	case literalExpr:
		return x.val, nil
	case pathExpr:
		v, ok := s.lookup(x.parts[0])
		if !ok {
			return nil, errorf(line, "%s is not defined", x.parts[0])
		}
		for _, part := range x.parts[1:] {
			v = field(v, part)
		}
		return v, nil
	case callExpr:
		fn, ok := s.funcs[x.name]
		if !ok {
			return nil, errorf(line, "%s is not a function", x.name)
		}
		args := make([]any, 0, len(x.args))
		for _, a := range x.args {
			v, err := s.eval(a, line)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
		v, err := fn(args...)
		if err != nil {
			return nil, errorf(line, "%s: %v", x.name, err)
		}
		return v, nil
	case orExpr:
		left, err := s.eval(x.left, line)
		if err != nil {
			return nil, err
		}
		if truthy(left) {
			return left, nil
		}
		return s.eval(x.right, line)
	case notExpr:
		v, err := s.eval(x.x, line)
		if err != nil {
			return nil, err
		}
		return !truthy(v), nil
	}
	return nil, errorf(line, "unsupported expression")
}

// field resolves one path segment. Missing fields yield nil rather than an
// error. Slices and strings expose "length".
func field(v any, name string) any {
	switch m := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return m[name]
	case map[string]string:
		if s, ok := m[name]; ok {
			return s
		}
		return nil
	case string:
		if name == "length" {
			return len(m)
		}
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if name == "length" {
			return rv.Len()
		}
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			if fv := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key())); fv.IsValid() {
				return fv.Interface()
			}
		}
	}
	return nil
}

func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	case int:
		return v != 0
	}
	return true
}

func stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []string:
		return strings.Join(v, ",")
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ",")
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(v)
}
