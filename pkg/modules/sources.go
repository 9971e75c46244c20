package modules

import (
	"fmt"
	"strconv"

	"github.com/alexisbeaulieu97/pipego/pkg/pipeline"
	"github.com/alexisbeaulieu97/pipego/pkg/stream"
)

// perInput emits one record built by item for every input record. The
// synthetic root yields a single record, which makes source modules run
// once when nothing is wired to them.
func perInput(input stream.Step, item func(upstream stream.Record) (stream.Record, error)) stream.Step {
	once := stream.IsRoot(input)
	src := stream.Open(input)
	done := false
	return stream.FromFunc(func() (stream.Record, bool, error) {
		if done {
			return nil, false, nil
		}
		if !src.Next() {
			return nil, false, src.Err()
		}
		done = once
		rec, err := item(src.Record())
		if err != nil {
			return nil, false, err
		}
		return rec, true, nil
	})
}

type attr struct {
	Key string `validate:"required"`
}

// PipeItembuilder builds a record from conf.attrs, a list of {key, value}
// entries. Values may be literals or wired terminals.
func PipeItembuilder(_ *pipeline.Context, input stream.Step, conf pipeline.Conf, opts pipeline.Options) stream.Step {
	return stream.Defer(func() (stream.Step, error) {
		attrs, err := attrEntries(conf)
		if err != nil {
			return nil, err
		}

		terms := newTerminals(opts)
		keys := make([]string, len(attrs))
		values := make([]any, len(attrs))
		for i, entry := range attrs {
			key, _, err := terms.text(entry, "key")
			if err != nil {
				return nil, err
			}
			if err := pipeline.GetValidator().Struct(attr{Key: key}); err != nil {
				return nil, fmt.Errorf("conf.attrs[%d]: %w", i, err)
			}
			value, ok, err := terms.resolve(entry, "value")
			if err != nil {
				return nil, err
			}
			keys[i] = key
			if ok {
				values[i] = value.Literal
			}
		}

		return perInput(input, func(stream.Record) (stream.Record, error) {
			item := make(stream.Record, len(keys))
			for i, key := range keys {
				item[key] = values[i]
			}
			return item, nil
		}), nil
	})
}

func attrEntries(conf pipeline.Conf) ([]pipeline.Conf, error) {
	v, ok := conf.Get("attrs")
	if !ok {
		return nil, nil
	}
	switch v.Kind {
	case pipeline.KindTree:
		return []pipeline.Conf{v.Fields}, nil
	case pipeline.KindList:
		out := make([]pipeline.Conf, 0, len(v.Items))
		for i, item := range v.Items {
			if item.Kind != pipeline.KindTree {
				return nil, fmt.Errorf("conf.attrs[%d]: expected {key, value}, got %s", i, item.Kind)
			}
			out = append(out, item.Fields)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("conf.attrs: expected a list, got %s", v.Kind)
	}
}

type inputConf struct {
	Name string `validate:"required"`
}

// inputValue returns the value supplied for the input through the run
// context, falling back to the debug value and then the default.
func inputValue(ctx *pipeline.Context, conf pipeline.Conf) (string, error) {
	cfg := inputConf{}
	cfg.Name, _ = conf.Text("name")
	if err := pipeline.GetValidator().Struct(cfg); err != nil {
		return "", err
	}
	if v, ok := ctx.Input(cfg.Name); ok {
		return v, nil
	}
	if v, ok := conf.Text("debug"); ok && v != "" {
		return v, nil
	}
	def, ok := conf.Get("default")
	if !ok {
		return "", nil
	}
	v, _ := def.Text()
	return v, nil
}

// PipeTextinput yields the value supplied for a declared text input.
func PipeTextinput(ctx *pipeline.Context, input stream.Step, conf pipeline.Conf, _ pipeline.Options) stream.Step {
	return stream.Defer(func() (stream.Step, error) {
		value, err := inputValue(ctx, conf)
		if err != nil {
			return nil, err
		}
		return perInput(input, func(stream.Record) (stream.Record, error) {
			return stream.Record{"content": value}, nil
		}), nil
	})
}

// PipeNumberinput yields the value supplied for a declared number input.
func PipeNumberinput(ctx *pipeline.Context, input stream.Step, conf pipeline.Conf, _ pipeline.Options) stream.Step {
	return stream.Defer(func() (stream.Step, error) {
		value, err := inputValue(ctx, conf)
		if err != nil {
			return nil, err
		}
		n := 0.0
		if value != "" {
			n, err = strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("numberinput: %q is not a number", value)
			}
		}
		return perInput(input, func(stream.Record) (stream.Record, error) {
			return stream.Record{"content": n}, nil
		}), nil
	})
}
