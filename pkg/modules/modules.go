// Package modules holds the built-in operators. Each exported Pipe* function
// has the pipeline.Factory signature and is referenced by name from
// generated pipe programs.
package modules

import (
	"fmt"

	"github.com/alexisbeaulieu97/pipego/pkg/ident"
	"github.com/alexisbeaulieu97/pipego/pkg/pipeline"
	"github.com/alexisbeaulieu97/pipego/pkg/stream"
)

// ImportPath is the package path generated programs import for built-ins.
const ImportPath = "github.com/alexisbeaulieu97/pipego/pkg/modules"

// Builtins returns the operator table for every built-in module type.
func Builtins() []pipeline.Operator {
	return []pipeline.Operator{
		builtin("forever", "PipeForever", PipeForever, "Infinite source of empty records."),
		builtin("output", "PipeOutput", PipeOutput, "Pipe output; passes its input through."),
		builtin("loop", "PipeLoop", PipeLoop, "Runs an embedded module once per record."),
		builtin("split", "PipeSplit", PipeSplit, "Replicates its input to several consumers."),
		builtin("union", "PipeUnion", PipeUnion, "Concatenates its inputs."),
		builtin("truncate", "PipeTruncate", PipeTruncate, "Keeps the first N records."),
		builtin("tail", "PipeTail", PipeTail, "Keeps the last N records."),
		builtin("count", "PipeCount", PipeCount, "Counts records."),
		builtin("itembuilder", "PipeItembuilder", PipeItembuilder, "Builds records from attributes."),
		builtin("textinput", "PipeTextinput", PipeTextinput, "Prompts for a text value."),
		builtin("numberinput", "PipeNumberinput", PipeNumberinput, "Prompts for a number."),
	}
}

func builtin(typ, fn string, factory pipeline.Factory, description string) pipeline.Operator {
	return pipeline.Operator{
		Type:        typ,
		Symbol:      "modules." + fn,
		ImportPath:  ImportPath,
		Description: description,
		Factory:     factory,
	}
}

// PipeForever is the synthetic root source.
func PipeForever(_ *pipeline.Context, _ stream.Step, _ pipeline.Conf, _ pipeline.Options) stream.Step {
	return stream.Forever()
}

// PipeOutput passes its input through unchanged.
func PipeOutput(_ *pipeline.Context, input stream.Step, _ pipeline.Conf, _ pipeline.Options) stream.Step {
	return stream.Open(input)
}

// terminals resolves conf entries against the auxiliary inputs of one
// operator instance. Each wired terminal is pulled at most once; later
// lookups reuse the first value.
type terminals struct {
	opts   pipeline.Options
	values map[string]any
}

func newTerminals(opts pipeline.Options) *terminals {
	return &terminals{opts: opts, values: map[string]any{}}
}

// resolve returns the entry under key, pulling terminal entries from the
// auxiliary input they are wired to.
func (t *terminals) resolve(conf pipeline.Conf, key string) (pipeline.Value, bool, error) {
	v, ok := conf.Get(key)
	if !ok {
		return pipeline.Value{}, false, nil
	}
	if v.Kind != pipeline.KindTerminal {
		return v, true, nil
	}

	port := ident.Canonicalize(v.Terminal)
	if content, ok := t.values[port]; ok {
		return pipeline.Lit(v.Type, content), true, nil
	}

	in, ok := t.opts.Input(port)
	if !ok {
		return pipeline.Value{}, false, fmt.Errorf("conf.%s: terminal %q is not wired", key, v.Terminal)
	}
	if !in.Next() {
		if err := in.Err(); err != nil {
			return pipeline.Value{}, false, err
		}
		return pipeline.Value{}, false, fmt.Errorf("conf.%s: terminal %q produced no value", key, v.Terminal)
	}
	content := in.Record()["content"]
	t.values[port] = content
	return pipeline.Lit(v.Type, content), true, nil
}

func (t *terminals) number(conf pipeline.Conf, key string) (float64, bool, error) {
	v, ok, err := t.resolve(conf, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	n, ok := v.Number()
	if !ok {
		return 0, false, fmt.Errorf("conf.%s: expected a number", key)
	}
	return n, true, nil
}

func (t *terminals) text(conf pipeline.Conf, key string) (string, bool, error) {
	v, ok, err := t.resolve(conf, key)
	if err != nil || !ok {
		return "", ok, err
	}
	text, ok := v.Text()
	return text, ok, nil
}

func copyRecord(rec stream.Record) stream.Record {
	out := make(stream.Record, len(rec)+1)
	for k, v := range rec {
		out[k] = v
	}
	return out
}
