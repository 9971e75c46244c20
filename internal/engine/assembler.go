package engine

import (
	"github.com/rs/zerolog"

	"github.com/alexisbeaulieu97/pipego/internal/logger"
	"github.com/alexisbeaulieu97/pipego/internal/operator"
	"github.com/alexisbeaulieu97/pipego/pkg/pipeline"
	"github.com/alexisbeaulieu97/pipego/pkg/stream"
)

// Compile checks that every module of p can be instantiated and returns a
// factory that assembles the pipeline. The factory has the operator
// signature, so a compiled pipe can itself be registered as a sub-pipeline.
//
// Structural errors and missing operators are reported here, before any
// step exists. Errors raised by operators travel through the returned steps.
func Compile(p *Pipe, reg *operator.Registry, log *logger.Logger) (pipeline.Factory, error) {
	plan, err := NewPlan(p)
	if err != nil {
		return nil, err
	}

	ops := make(map[string]pipeline.Operator, len(plan.Modules))
	for _, pm := range plan.Modules {
		op, err := reg.Lookup(pm.Module.Type)
		if err != nil {
			return nil, err
		}
		ops[pm.Module.ID] = op
	}

	if log == nil {
		log = logger.Nop()
	}
	log = log.WithFields(map[string]any{"pipe": p.Name})
	reportConflicts(plan, log)

	return func(ctx *pipeline.Context, _ stream.Step, _ pipeline.Conf, _ pipeline.Options) stream.Step {
		if ctx == nil {
			ctx = pipeline.NewContext()
		}
		if ctx.DescribeInput() {
			return stream.FromSlice(pipeline.InputRecords(plan.Inputs))
		}
		return assemble(ctx, plan, ops, log)
	}, nil
}

// Assemble compiles p and instantiates it with no external input.
func Assemble(ctx *pipeline.Context, p *Pipe, reg *operator.Registry, log *logger.Logger) (stream.Step, error) {
	factory, err := Compile(p, reg, log)
	if err != nil {
		return nil, err
	}
	return factory(ctx, nil, nil, pipeline.Options{}), nil
}

// DescribeInputs returns the inputs p declares, without instantiating any
// step. Inputs of sub-pipelines are not collected.
func DescribeInputs(p *Pipe) ([]pipeline.Input, error) {
	plan, err := NewPlan(p)
	if err != nil {
		return nil, err
	}
	return plan.Inputs, nil
}

func assemble(ctx *pipeline.Context, plan *Plan, ops map[string]pipeline.Operator, log *logger.Logger) stream.Step {
	steps := map[string]stream.Step{Root: stream.Forever()}
	embeds := map[string]pipeline.Submodule{}
	// A verbose run context asks for the binding trace regardless of the
	// logger level, so it is written at info.
	trace := (*logger.Logger).Debug
	if ctx.Verbose() {
		trace = (*logger.Logger).Info
	}
	tracing := ctx.Verbose() || log.Enabled(zerolog.DebugLevel)

	for _, pm := range plan.Modules {
		m := pm.Module
		op := ops[m.ID]
		if tracing {
			trace(log.WithFields(map[string]any{"module": m.ID, "type": m.Type}), pm.Describe())
		}

		if pm.Embedded {
			embeds[m.ID] = &pipeline.Embedded{
				ID:      m.ID,
				Type:    m.Type,
				Conf:    m.Conf,
				Context: ctx,
				Factory: op.Factory,
			}
			continue
		}

		b := pm.Bindings
		opts := pipeline.Options{Splits: b.Splits}
		if len(b.Inputs) > 0 {
			opts.Inputs = make(map[string]stream.Step, len(b.Inputs))
			for port, src := range b.Inputs {
				opts.Inputs[port] = steps[src]
			}
		}
		if b.Embed != "" {
			opts.Embed = embeds[b.Embed]
		}
		steps[m.ID] = op.Factory(ctx, steps[b.Input], m.Conf, opts)
	}

	return steps[plan.Output]
}

func reportConflicts(plan *Plan, log *logger.Logger) {
	if !log.Enabled(zerolog.DebugLevel) {
		return
	}
	for _, pm := range plan.Modules {
		for _, port := range pm.Bindings.Conflicts {
			log.WithFields(map[string]any{"module": pm.Module.ID, "port": port}).
				Warn("port is fed by several wires; the last one wins")
		}
	}
}
