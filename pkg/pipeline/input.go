package pipeline

import (
	"cmp"
	"slices"

	"github.com/alexisbeaulieu97/pipego/pkg/stream"
)

// Input describes a value a pipe asks its caller for.
type Input struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Prompt   string `json:"prompt"`
	Type     string `json:"type"`
	Default  any    `json:"default"`
}

// InputFromConf extracts the declared input of a module whose configuration
// carries a prompt entry.
func InputFromConf(conf Conf) (Input, bool) {
	if !conf.Has("prompt") {
		return Input{}, false
	}

	in := Input{}
	if pos, ok := conf.Number("position"); ok {
		in.Position = int(pos)
	}
	in.Name, _ = conf.Text("name")
	in.Prompt, _ = conf.Text("prompt")
	if def, ok := conf.Get("default"); ok {
		in.Type = def.Type
		if def.Kind == KindLiteral {
			in.Default = def.Literal
		}
	}
	return in, true
}

// SortInputs orders inputs by position, then name, then prompt.
func SortInputs(inputs []Input) {
	slices.SortStableFunc(inputs, func(a, b Input) int {
		return cmp.Or(
			cmp.Compare(a.Position, b.Position),
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.Prompt, b.Prompt),
		)
	})
}

// Record renders the input as a stream record.
func (in Input) Record() stream.Record {
	return stream.Record{
		"position": in.Position,
		"name":     in.Name,
		"prompt":   in.Prompt,
		"type":     in.Type,
		"default":  in.Default,
	}
}

// InputRecords renders inputs as records, preserving order.
func InputRecords(inputs []Input) []stream.Record {
	out := make([]stream.Record, len(inputs))
	for i, in := range inputs {
		out[i] = in.Record()
	}
	return out
}
