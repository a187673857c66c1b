package render

import (
	"fmt"
	"strings"
	"time"
)

// DefaultDateLayout is the layout date.now uses without an argument.
const DefaultDateLayout = "2006-01-02"

func builtins(now func() time.Time) map[string]Func {
	return map[string]Func{
		"date.now": func(args ...any) (any, error) {
			layout := DefaultDateLayout
			if len(args) > 0 {
				s, ok := args[0].(string)
				if !ok {
					return nil, fmt.Errorf("layout must be a string, got %T", args[0])
				}
				layout = s
			}
			return now().Format(layout), nil
		},
		"date.today": func(...any) (any, error) {
			return now().Format(DefaultDateLayout), nil
		},
		"date.time": func(...any) (any, error) {
			return now().Format("15:04"), nil
		},
		"upper": stringFunc(strings.ToUpper),
		"lower": stringFunc(strings.ToLower),
		"trim":  stringFunc(strings.TrimSpace),
	}
}

func stringFunc(fn func(string) string) Func {
	return func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		return fn(stringify(args[0])), nil
	}
}
