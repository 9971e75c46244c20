package library

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alexisbeaulieu97/pipego/internal/document"
	"github.com/alexisbeaulieu97/pipego/pkg/ident"
)

// Entry is a pipe document found in a library directory.
type Entry struct {
	Name string
	Path string
}

// documentExts lists the extensions scanned, in lookup priority order.
var documentExts = []string{".json", ".yaml", ".yml"}

// Scan lists the pipe documents directly inside dir, sorted by name. When a
// name exists with several extensions the first in priority order wins.
func Scan(dir string) ([]Entry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read library %s: %w", dir, err)
	}

	byName := map[string]Entry{}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(f.Name()))
		rank := slices.Index(documentExts, ext)
		if rank < 0 {
			continue
		}
		path := filepath.Join(dir, f.Name())
		name := document.Name(path)
		if existing, ok := byName[name]; ok && slices.Index(documentExts, strings.ToLower(filepath.Ext(existing.Path))) <= rank {
			continue
		}
		byName[name] = Entry{Name: name, Path: path}
	}

	entries := make([]Entry, 0, len(byName))
	for _, e := range byName {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
	return entries, nil
}

// find returns the entry for a sub-pipeline name. Names match exactly
// first, then by their package rendering, so "Inner Pipe" also finds
// inner_pipe.json.
func find(entries []Entry, name string) (Entry, bool) {
	for _, e := range entries {
		if e.Name == name {
			return e, true
		}
	}
	pkg := ident.Package(name)
	for _, e := range entries {
		if ident.Package(e.Name) == pkg {
			return e, true
		}
	}
	return Entry{}, false
}
