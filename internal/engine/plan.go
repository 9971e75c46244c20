package engine

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	pipeerrors "github.com/alexisbeaulieu97/pipego/pkg/errors"
	"github.com/alexisbeaulieu97/pipego/pkg/pipeline"
)

// PlannedModule is one scheduled module with its resolved bindings.
type PlannedModule struct {
	Module   *Module
	Bindings Bindings
	Embedded bool
}

// Plan is the resolved form of a pipe shared by the assembler and the code
// generator, so both backends build the same pipeline.
type Plan struct {
	Pipe    *Pipe
	Modules []PlannedModule
	// Inputs are the inputs the pipe declares, sorted.
	Inputs []pipeline.Input
	// Output is the id of the module whose step is the pipe's output.
	Output string
}

// NewPlan orders the pipe's modules and resolves their bindings.
func NewPlan(p *Pipe) (*Plan, error) {
	if p == nil || p.Graph == nil {
		return nil, pipeerrors.NewValidationError("pipe", "pipe is empty", nil)
	}

	order, err := p.Graph.TopologicalSort()
	if err != nil {
		return nil, err
	}
	if len(order) == 0 {
		return nil, pipeerrors.NewValidationError("modules", "pipe has no connected modules", nil)
	}

	plan := &Plan{
		Pipe:    p,
		Modules: make([]PlannedModule, 0, len(order)),
		Output:  order[len(order)-1],
	}
	for _, id := range order {
		m, ok := p.Modules[id]
		if !ok {
			return nil, pipeerrors.NewValidationError("graph", fmt.Sprintf("graph node %q has no module", id), nil)
		}
		plan.Modules = append(plan.Modules, PlannedModule{
			Module:   m,
			Bindings: p.Resolve(id),
			Embedded: p.IsEmbedded(id),
		})
		if in, ok := pipeline.InputFromConf(m.Conf); ok {
			plan.Inputs = append(plan.Inputs, in)
		}
	}
	pipeline.SortInputs(plan.Inputs)

	return plan, nil
}

// Order returns the scheduled module ids.
func (pl *Plan) Order() []string {
	ids := make([]string, len(pl.Modules))
	for i, pm := range pl.Modules {
		ids[i] = pm.Module.ID
	}
	return ids
}

// Types returns the module types the plan instantiates, in order of first
// appearance.
func (pl *Plan) Types() []string {
	seen := map[string]struct{}{}
	var types []string
	for _, pm := range pl.Modules {
		if _, ok := seen[pm.Module.Type]; ok {
			continue
		}
		seen[pm.Module.Type] = struct{}{}
		types = append(types, pm.Module.Type)
	}
	return types
}

// Describe renders a binding as a one-line trace, e.g.
// "b = transform(a, count=c, splits=2)".
func (pm PlannedModule) Describe() string {
	args := []string{}
	b := pm.Bindings
	if pm.Embedded {
		args = append(args, "input")
	} else {
		args = append(args, b.Input)
	}
	for _, port := range sortedPorts(b.Inputs) {
		args = append(args, port+"="+b.Inputs[port])
	}
	if b.Embed != "" {
		args = append(args, "embed=pipe_"+b.Embed)
	}
	if pm.Module.Type == pipeline.TypeSplit {
		args = append(args, fmt.Sprintf("splits=%d", b.Splits))
	}
	return fmt.Sprintf("%s = %s(%s)", pm.Module.ID, pm.Module.Type, strings.Join(args, ", "))
}

func sortedPorts(inputs map[string]string) []string {
	return slices.Sorted(maps.Keys(inputs))
}
