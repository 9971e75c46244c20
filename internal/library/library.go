// Package library compiles the sub-pipelines a pipe references from a
// directory of pipe documents and registers them with an operator registry,
// so that "pipe:<name>" module types resolve.
package library

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/alexisbeaulieu97/pipego/internal/document"
	"github.com/alexisbeaulieu97/pipego/internal/engine"
	"github.com/alexisbeaulieu97/pipego/internal/logger"
	"github.com/alexisbeaulieu97/pipego/internal/operator"
	pipeerrors "github.com/alexisbeaulieu97/pipego/pkg/errors"
	"github.com/alexisbeaulieu97/pipego/pkg/pipeline"
)

// Options configure a Library.
type Options struct {
	// ImportPrefix is the package path under which generated sub-pipelines
	// live; each one is imported from ImportPrefix/<package>.
	ImportPrefix string
	Logger       *logger.Logger
}

// Library resolves sub-pipelines from the documents in one directory.
type Library struct {
	dir          string
	reg          *operator.Registry
	importPrefix string
	log          *logger.Logger

	mu       sync.Mutex
	entries  []Entry
	scanned  bool
	compiled []*engine.Pipe
}

// New creates a Library over dir registering into reg. An empty dir yields
// a library that resolves nothing.
func New(dir string, reg *operator.Registry, opts Options) *Library {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Library{
		dir:          dir,
		reg:          reg,
		importPrefix: opts.ImportPrefix,
		log:          log.WithFields(map[string]any{"library": dir}),
	}
}

// Resolve compiles every sub-pipeline doc references, dependencies first,
// and registers each one. Types already registered are left alone.
func (l *Library) Resolve(doc *document.Document) error {
	if l.dir == "" || doc == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.resolveTypes(doc.Types(), nil)
}

// Compiled returns the pipes compiled so far, dependencies before the pipes
// that use them.
func (l *Library) Compiled() []*engine.Pipe {
	l.mu.Lock()
	defer l.mu.Unlock()

	return slices.Clone(l.compiled)
}

func (l *Library) resolveTypes(types []string, stack []string) error {
	for _, typ := range types {
		if !pipeline.IsSubPipeline(typ) || l.reg.Has(typ) {
			continue
		}
		if err := l.load(strings.TrimPrefix(typ, pipeline.SubPipelineMarker), stack); err != nil {
			return err
		}
	}
	return nil
}

func (l *Library) load(name string, stack []string) error {
	if i := slices.Index(stack, name); i >= 0 {
		cycle := append(slices.Clone(stack[i:]), name)
		return pipeerrors.NewValidationError("library", "sub-pipeline cycle detected: "+strings.Join(cycle, " -> "), nil)
	}

	entries, err := l.index()
	if err != nil {
		return err
	}
	entry, ok := find(entries, name)
	if !ok {
		return pipeerrors.NewPluginError(pipeline.SubPipelineMarker+name,
			fmt.Errorf("sub-pipeline %q not found in %s: %w", name, l.dir, operator.ErrNotFound))
	}

	doc, err := document.Load(entry.Path)
	if err != nil {
		return l.failed(name, entry, err)
	}
	if err := l.resolveTypes(doc.Types(), append(slices.Clone(stack), name)); err != nil {
		return err
	}

	p, err := engine.BuildPipe(doc, name)
	if err != nil {
		return l.failed(name, entry, fmt.Errorf("sub-pipeline %s: %w", name, err))
	}
	factory, err := engine.Compile(p, l.reg, l.log)
	if err != nil {
		return l.failed(name, entry, fmt.Errorf("sub-pipeline %s: %w", name, err))
	}
	if err := l.reg.RegisterPipeline(name, factory, l.importPrefix); err != nil {
		return err
	}
	l.compiled = append(l.compiled, p)

	l.log.WithFields(map[string]any{"pipe": name, "path": entry.Path}).Debug("compiled sub-pipeline")
	return nil
}

// failed logs err against the document it came from and returns it.
func (l *Library) failed(name string, entry Entry, err error) error {
	l.log.WithFields(map[string]any{"pipe": name, "path": entry.Path}).Error(err, "sub-pipeline rejected")
	return err
}

func (l *Library) index() ([]Entry, error) {
	if l.scanned {
		return l.entries, nil
	}
	entries, err := Scan(l.dir)
	if err != nil {
		return nil, err
	}
	l.entries = entries
	l.scanned = true
	return entries, nil
}
