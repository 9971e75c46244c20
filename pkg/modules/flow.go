package modules

import (
	"errors"
	"maps"
	"slices"
	"strings"

	"github.com/alexisbeaulieu97/pipego/pkg/pipeline"
	"github.com/alexisbeaulieu97/pipego/pkg/stream"
)

// Loop modes.
const (
	LoopModeAssign = "assign"
	LoopModeEmit   = "EMIT"
)

type loopConf struct {
	Mode     string `validate:"oneof=assign EMIT"`
	EmitPart string `validate:"oneof=first all"`
	AssignTo string `validate:"required_if=Mode assign"`
}

// PipeLoop runs the embedded submodule once per input record, strictly in
// sequence. In assign mode the submodule's output is stored on the record
// under assign_to; in EMIT mode the output replaces the record.
func PipeLoop(ctx *pipeline.Context, input stream.Step, conf pipeline.Conf, opts pipeline.Options) stream.Step {
	return stream.Defer(func() (stream.Step, error) {
		if opts.Embed == nil {
			return nil, errors.New("loop: no embedded module bound")
		}

		cfg := loopConf{Mode: LoopModeAssign, EmitPart: "first"}
		if mode, ok := conf.Text("mode"); ok && mode != "" {
			cfg.Mode = mode
		}
		if part, ok := conf.Text("emit_part"); ok && part != "" {
			cfg.EmitPart = part
		}
		cfg.AssignTo, _ = conf.Text("assign_to")
		if embed, ok := conf.Get("embed"); ok && cfg.AssignTo == "" && embed.Kind == pipeline.KindModule {
			cfg.AssignTo = loopTarget(embed.Module.Type)
		}
		if err := pipeline.GetValidator().Struct(cfg); err != nil {
			return nil, err
		}

		src := stream.Open(input)
		var pending []stream.Record
		iteration := 0

		return stream.FromFunc(func() (stream.Record, bool, error) {
			for len(pending) == 0 {
				if !src.Next() {
					return nil, false, src.Err()
				}
				outer := src.Record()
				iteration++

				results, err := stream.Collect(opts.Embed.Run(stream.FromSlice([]stream.Record{outer})), 0)
				if err != nil {
					return nil, false, err
				}
				if ctx.Verbose() {
					ctx.Logger().Info().Int("iteration", iteration).Int("results", len(results)).Msg("loop iteration")
				}
				if cfg.EmitPart == "first" && len(results) > 1 {
					results = results[:1]
				}

				if cfg.Mode == LoopModeEmit {
					pending = results
					continue
				}

				rec := copyRecord(outer)
				switch {
				case len(results) == 0:
				case cfg.EmitPart == "first":
					rec[cfg.AssignTo] = results[0]
				default:
					rec[cfg.AssignTo] = results
				}
				pending = []stream.Record{rec}
			}

			rec := pending[0]
			pending = pending[1:]
			return rec, true, nil
		}), nil
	})
}

// PipeSplit replicates its input across opts.Splits consumers; each
// upstream record is pulled once.
func PipeSplit(_ *pipeline.Context, input stream.Step, _ pipeline.Conf, opts pipeline.Options) stream.Step {
	return stream.NewTee(input, opts.Splits)
}

// PipeUnion emits its default input followed by every auxiliary input, in
// port order.
func PipeUnion(_ *pipeline.Context, input stream.Step, _ pipeline.Conf, opts pipeline.Options) stream.Step {
	sources := []stream.Step{stream.Open(input)}
	for _, port := range slices.Sorted(maps.Keys(opts.Inputs)) {
		in, _ := opts.Input(port)
		sources = append(sources, in)
	}

	return stream.FromFunc(func() (stream.Record, bool, error) {
		for len(sources) > 0 {
			if sources[0].Next() {
				return sources[0].Record(), true, nil
			}
			if err := sources[0].Err(); err != nil {
				return nil, false, err
			}
			sources = sources[1:]
		}
		return nil, false, nil
	})
}

type countConf struct {
	Count int `validate:"min=0"`
}

func countFrom(conf pipeline.Conf, opts pipeline.Options) (countConf, error) {
	cfg := countConf{}
	n, ok, err := newTerminals(opts).number(conf, "count")
	if err != nil {
		return cfg, err
	}
	if !ok {
		return cfg, errors.New("conf.count is required")
	}
	cfg.Count = int(n)
	return cfg, pipeline.GetValidator().Struct(cfg)
}

// PipeTruncate emits at most conf.count records.
func PipeTruncate(_ *pipeline.Context, input stream.Step, conf pipeline.Conf, opts pipeline.Options) stream.Step {
	return stream.Defer(func() (stream.Step, error) {
		cfg, err := countFrom(conf, opts)
		if err != nil {
			return nil, err
		}
		src := stream.Open(input)
		emitted := 0
		return stream.FromFunc(func() (stream.Record, bool, error) {
			if emitted >= cfg.Count {
				return nil, false, nil
			}
			if !src.Next() {
				return nil, false, src.Err()
			}
			emitted++
			return src.Record(), true, nil
		}), nil
	})
}

// PipeTail emits the last conf.count records. It drains its input, which
// must therefore be finite.
func PipeTail(_ *pipeline.Context, input stream.Step, conf pipeline.Conf, opts pipeline.Options) stream.Step {
	return stream.Defer(func() (stream.Step, error) {
		cfg, err := countFrom(conf, opts)
		if err != nil {
			return nil, err
		}
		records, err := stream.Collect(input, 0)
		if err != nil {
			return nil, err
		}
		if len(records) > cfg.Count {
			records = records[len(records)-cfg.Count:]
		}
		return stream.FromSlice(records), nil
	})
}

// PipeCount emits a single record holding the number of input records.
func PipeCount(_ *pipeline.Context, input stream.Step, _ pipeline.Conf, _ pipeline.Options) stream.Step {
	return stream.Defer(func() (stream.Step, error) {
		records, err := stream.Collect(input, 0)
		if err != nil {
			return nil, err
		}
		return stream.FromSlice([]stream.Record{{"count": float64(len(records))}}), nil
	})
}

// loopTarget names the default assign_to field for a loop body.
func loopTarget(typ string) string {
	return "loop:" + strings.TrimPrefix(typ, pipeline.SubPipelineMarker)
}
