package noteservice

import (
	"fmt"
	"sort"
	"strings"

	"github.com/starford/notesmith/internal/storage"
)

const untitled = "Untitled"

// fileNameReplacer drops characters that are invalid in file names on
// common platforms or that break wiki links.
var fileNameReplacer = strings.NewReplacer(
	"/", " ", `\`, " ", ":", " ", "*", "", "?", "", `"`, "",
	"<", "", ">", "", "|", "", "#", "", "^", "", "[", "", "]", "",
)

// fileNameFor turns a note title into a file base name without extension.
func fileNameFor(title string) string {
	name := strings.Join(strings.Fields(fileNameReplacer.Replace(title)), " ")
	name = strings.Trim(name, ". ")
	if name == "" {
		return untitled
	}
	return name
}

// uniquePath returns folder/name.md, or the first free "name N.md".
func uniquePath(store storage.Provider, folder, name string) string {
	candidate := storage.JoinPath(folder, name+".md")
	for n := 1; store.Exists(candidate); n++ {
		candidate = storage.JoinPath(folder, fmt.Sprintf("%s %d.md", name, n))
	}
	return candidate
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
