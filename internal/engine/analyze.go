package engine

import (
	"maps"
	"slices"
	"strings"

	"github.com/alexisbeaulieu97/pipego/pkg/pipeline"
)

// Analysis summarises what a pipe depends on.
type Analysis struct {
	// Modules are the operator types used, sub-pipelines excluded.
	Modules []string `json:"modules"`
	// Pipes are the names of the sub-pipelines referenced.
	Pipes []string `json:"pipes"`
}

// Analyze lists the module types and sub-pipelines used anywhere in p,
// including modules pruned from the schedule.
func Analyze(p *Pipe) Analysis {
	types := map[string]struct{}{}
	for _, m := range p.Modules {
		types[m.Type] = struct{}{}
	}

	a := Analysis{Modules: []string{}, Pipes: []string{}}
	for _, typ := range slices.Sorted(maps.Keys(types)) {
		if pipeline.IsSubPipeline(typ) {
			a.Pipes = append(a.Pipes, strings.TrimPrefix(typ, pipeline.SubPipelineMarker))
			continue
		}
		a.Modules = append(a.Modules, typ)
	}
	return a
}
