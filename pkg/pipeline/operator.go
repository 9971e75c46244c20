// Package pipeline defines the contract shared by operators, the in-process
// assembler and generated pipe programs.
package pipeline

import (
	"strings"

	"github.com/alexisbeaulieu97/pipego/pkg/stream"
)

// SubPipelineMarker prefixes module types that reference another pipe.
const SubPipelineMarker = "pipe:"

// Well-known module types with special wiring.
const (
	TypeLoop  = "loop"
	TypeSplit = "split"
)

// IsSubPipeline reports whether typ references a separately compiled pipe.
func IsSubPipeline(typ string) bool {
	return strings.HasPrefix(typ, SubPipelineMarker)
}

// Options carries the bindings resolved for a module besides its default
// input.
type Options struct {
	// Inputs maps auxiliary input port ids to their source steps.
	Inputs map[string]stream.Step
	// Embed is the loop body; only set for loop modules.
	Embed Submodule
	// Splits is the fan-out count; only set for split modules.
	Splits int
}

// Input returns the auxiliary input bound to port, opened for reading.
func (o Options) Input(port string) (stream.Step, bool) {
	s, ok := o.Inputs[port]
	if !ok {
		return nil, false
	}
	return stream.Open(s), true
}

// Factory constructs the step for one module. Construction failures are
// reported through the returned step so they reach the pipe's consumer.
type Factory func(ctx *Context, input stream.Step, conf Conf, opts Options) stream.Step

// Operator describes a registered module type.
type Operator struct {
	// Type is the module type tag, e.g. "truncate".
	Type string `validate:"required"`
	// Symbol is the qualified constructor name used in generated code.
	Symbol string `validate:"required"`
	// ImportPath is the package generated code imports for Symbol.
	ImportPath  string `validate:"required"`
	Description string
	Factory     Factory `validate:"required"`
}

// Submodule is a loop body: a deferred step constructor invoked once per
// outer record with that record as its input.
type Submodule interface {
	Run(input stream.Step) stream.Step
}

// SubmoduleFunc adapts a function into a Submodule.
type SubmoduleFunc func(input stream.Step) stream.Step

// Run implements Submodule.
func (f SubmoduleFunc) Run(input stream.Step) stream.Step {
	return f(input)
}

// Embedded is the deferred invocation of an embedded module: the module's
// type and fixed configuration, bound to a factory and run context.
type Embedded struct {
	ID      string
	Type    string
	Conf    Conf
	Context *Context
	Factory Factory
}

// Run instantiates the embedded module over input.
func (e *Embedded) Run(input stream.Step) stream.Step {
	return e.Factory(e.Context, input, e.Conf, Options{})
}

var _ Submodule = (*Embedded)(nil)
var _ Submodule = SubmoduleFunc(nil)
