// Package operator holds the registry that maps module type tags to operator
// factories, for both built-in operators and compiled sub-pipelines.
package operator

import (
	"errors"
	"fmt"
	"maps"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/alexisbeaulieu97/pipego/internal/logger"
	pipeerrors "github.com/alexisbeaulieu97/pipego/pkg/errors"
	"github.com/alexisbeaulieu97/pipego/pkg/ident"
	"github.com/alexisbeaulieu97/pipego/pkg/modules"
	"github.com/alexisbeaulieu97/pipego/pkg/pipeline"
)

// ErrNotFound is wrapped by lookups of unregistered types.
var ErrNotFound = errors.New("not registered")

// Registry maps module type tags to operators. It is safe for concurrent
// use.
type Registry struct {
	mu        sync.RWMutex
	operators map[string]pipeline.Operator
	logger    *logger.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		operators: make(map[string]pipeline.Operator),
		logger:    log,
	}
}

// NewDefaultRegistry returns a registry holding every built-in operator.
func NewDefaultRegistry(log *logger.Logger) (*Registry, error) {
	r := NewRegistry(log)
	for _, op := range modules.Builtins() {
		if err := r.Register(op); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds an operator. Registering a type twice is an error.
func (r *Registry) Register(op pipeline.Operator) error {
	if err := pipeline.GetValidator().Struct(op); err != nil {
		return pipeerrors.NewPluginError(op.Type, fmt.Errorf("invalid operator: %w", err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.operators[op.Type]; exists {
		return pipeerrors.NewPluginError(op.Type, fmt.Errorf("operator %q already registered", op.Type))
	}
	r.operators[op.Type] = op

	if r.logger != nil {
		r.logger.WithFields(map[string]any{"type": op.Type, "symbol": op.Symbol}).Debug("registered operator")
	}
	return nil
}

// RegisterPipeline makes a compiled pipe available as the module type
// "pipe:<name>". Generated code reaches it in the package importPrefix/<pkg>,
// where pkg is the pipe name rendered as a package name.
func (r *Registry) RegisterPipeline(name string, factory pipeline.Factory, importPrefix string) error {
	name = strings.TrimPrefix(name, pipeline.SubPipelineMarker)
	pkg := ident.Package(name)
	return r.Register(pipeline.Operator{
		Type:        pipeline.SubPipelineMarker + name,
		Symbol:      pkg + "." + ident.Exported(name),
		ImportPath:  path.Join(importPrefix, pkg),
		Description: "Compiled pipe " + name + ".",
		Factory:     factory,
	})
}

// Lookup returns the operator registered for typ.
func (r *Registry) Lookup(typ string) (pipeline.Operator, error) {
	r.mu.RLock()
	op, ok := r.operators[typ]
	r.mu.RUnlock()
	if ok {
		return op, nil
	}

	if pipeline.IsSubPipeline(typ) {
		name := strings.TrimPrefix(typ, pipeline.SubPipelineMarker)
		return pipeline.Operator{}, pipeerrors.NewPluginError(typ, fmt.Errorf("sub-pipeline %q is not compiled: %w", name, ErrNotFound))
	}
	return pipeline.Operator{}, pipeerrors.NewPluginError(typ, fmt.Errorf("unknown module type %q: %w", typ, ErrNotFound))
}

// Has reports whether typ is registered.
func (r *Registry) Has(typ string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.operators[typ]
	return ok
}

// Types returns every registered type tag, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.operators))
}
