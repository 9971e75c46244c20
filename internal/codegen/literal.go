package codegen

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/alexisbeaulieu97/pipego/pkg/pipeline"
)

// confLiteral renders conf as a Go expression of type pipeline.Conf. Keys
// are emitted in sorted order so the output is stable.
func confLiteral(conf pipeline.Conf) (string, error) {
	if len(conf) == 0 {
		return "nil", nil
	}

	var b strings.Builder
	b.WriteString("pipeline.Conf{\n")
	for _, key := range conf.Keys() {
		v, err := valueLiteral(conf[key])
		if err != nil {
			return "", fmt.Errorf("conf.%s: %w", key, err)
		}
		fmt.Fprintf(&b, "%s: %s,\n", strconv.Quote(key), v)
	}
	b.WriteString("}")
	return b.String(), nil
}

func valueLiteral(v pipeline.Value) (string, error) {
	switch v.Kind {
	case pipeline.KindLiteral:
		lit, err := anyLiteral(v.Literal)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("pipeline.Lit(%s, %s)", strconv.Quote(v.Type), lit), nil
	case pipeline.KindTerminal:
		return fmt.Sprintf("pipeline.Term(%s, %s)", strconv.Quote(v.Type), strconv.Quote(v.Terminal)), nil
	case pipeline.KindModule:
		conf, err := confLiteral(v.Module.Conf)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("pipeline.Mod(%s, %s, %s)", strconv.Quote(v.Module.ID), strconv.Quote(v.Module.Type), conf), nil
	case pipeline.KindTree:
		conf, err := confLiteral(v.Fields)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("pipeline.Tree(%s)", conf), nil
	case pipeline.KindList:
		items := make([]string, len(v.Items))
		for i, item := range v.Items {
			lit, err := valueLiteral(item)
			if err != nil {
				return "", fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = lit + ",\n"
		}
		if len(items) == 0 {
			return "pipeline.List()", nil
		}
		return "pipeline.List(\n" + strings.Join(items, "") + ")", nil
	default:
		return "", fmt.Errorf("unsupported configuration kind %s", v.Kind)
	}
}

// anyLiteral renders a decoded JSON value. Numbers always render as float64
// constants, matching what the document decoder produces.
func anyLiteral(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "nil", nil
	case string:
		return strconv.Quote(t), nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return floatLiteral(t), nil
	case int:
		return floatLiteral(float64(t)), nil
	case []any:
		var b strings.Builder
		b.WriteString("[]any{")
		for i, item := range t {
			lit, err := anyLiteral(item)
			if err != nil {
				return "", fmt.Errorf("[%d]: %w", i, err)
			}
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(lit)
		}
		b.WriteString("}")
		return b.String(), nil
	case map[string]any:
		var b strings.Builder
		b.WriteString("map[string]any{")
		for i, key := range slices.Sorted(maps.Keys(t)) {
			lit, err := anyLiteral(t[key])
			if err != nil {
				return "", fmt.Errorf("%s: %w", key, err)
			}
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %s", strconv.Quote(key), lit)
		}
		b.WriteString("}")
		return b.String(), nil
	default:
		return "", fmt.Errorf("unsupported literal of type %T", v)
	}
}

func floatLiteral(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
