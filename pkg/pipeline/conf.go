package pipeline

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	// KindLiteral is a {type, value} leaf.
	KindLiteral Kind = iota
	// KindTerminal is a {type, terminal} leaf whose value arrives over a wire.
	KindTerminal
	// KindModule is a nested module definition (the body of a loop).
	KindModule
	// KindTree is a nested map of named entries.
	KindTree
	// KindList is an ordered list of entries.
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindTerminal:
		return "terminal"
	case KindModule:
		return "module"
	case KindTree:
		return "tree"
	case KindList:
		return "list"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ModuleSpec is a module definition nested inside a configuration.
type ModuleSpec struct {
	ID   string
	Type string
	Conf Conf
}

// Value is one configuration entry.
type Value struct {
	Kind     Kind
	Type     string
	Literal  any
	Terminal string
	Module   *ModuleSpec
	Fields   Conf
	Items    []Value
}

// Conf is the configuration of a module: named entries, each a Value.
type Conf map[string]Value

// Lit builds a literal entry. Numbers are expected as float64.
func Lit(typ string, v any) Value {
	return Value{Kind: KindLiteral, Type: typ, Literal: v}
}

// Term builds an entry fed by the auxiliary input named terminal.
func Term(typ, terminal string) Value {
	return Value{Kind: KindTerminal, Type: typ, Terminal: terminal}
}

// Mod builds a nested module entry.
func Mod(id, typ string, conf Conf) Value {
	return Value{Kind: KindModule, Type: "module", Module: &ModuleSpec{ID: id, Type: typ, Conf: conf}}
}

// Tree builds a nested map entry.
func Tree(fields Conf) Value {
	return Value{Kind: KindTree, Fields: fields}
}

// List builds an ordered list entry.
func List(items ...Value) Value {
	return Value{Kind: KindList, Items: items}
}

// Get returns the entry stored under key.
func (c Conf) Get(key string) (Value, bool) {
	v, ok := c[key]
	return v, ok
}

// Has reports whether key is present.
func (c Conf) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// Keys returns the entry names in sorted order.
func (c Conf) Keys() []string {
	return slices.Sorted(maps.Keys(c))
}

// Text returns the literal under key rendered as a string.
func (c Conf) Text(key string) (string, bool) {
	v, ok := c[key]
	if !ok {
		return "", false
	}
	return v.Text()
}

// Number returns the literal under key as a float64.
func (c Conf) Number(key string) (float64, bool) {
	v, ok := c[key]
	if !ok {
		return 0, false
	}
	return v.Number()
}

// Text renders a literal scalar as a string.
func (v Value) Text() (string, bool) {
	if v.Kind != KindLiteral {
		return "", false
	}
	switch lit := v.Literal.(type) {
	case string:
		return lit, true
	case float64:
		return strconv.FormatFloat(lit, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(lit), true
	default:
		return "", false
	}
}

// Number interprets a literal scalar as a float64.
func (v Value) Number() (float64, bool) {
	if v.Kind != KindLiteral {
		return 0, false
	}
	switch lit := v.Literal.(type) {
	case float64:
		return lit, true
	case string:
		f, err := strconv.ParseFloat(lit, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Raw converts the entry back to its document form.
func (v Value) Raw() any {
	switch v.Kind {
	case KindLiteral:
		out := map[string]any{"value": v.Literal}
		if v.Type != "" {
			out["type"] = v.Type
		}
		return out
	case KindTerminal:
		return map[string]any{"type": v.Type, "terminal": v.Terminal}
	case KindModule:
		return map[string]any{"type": "module", "value": map[string]any{
			"id":   v.Module.ID,
			"type": v.Module.Type,
			"conf": v.Module.Conf.Raw(),
		}}
	case KindTree:
		return v.Fields.Raw()
	case KindList:
		items := make([]any, len(v.Items))
		for i, item := range v.Items {
			items[i] = item.Raw()
		}
		return items
	default:
		return nil
	}
}

// Raw converts the configuration back to its document form.
func (c Conf) Raw() map[string]any {
	out := make(map[string]any, len(c))
	for k, v := range c {
		out[k] = v.Raw()
	}
	return out
}

// ParseConf converts a decoded JSON or YAML configuration object into a Conf.
func ParseConf(raw map[string]any) (Conf, error) {
	if raw == nil {
		return nil, nil
	}
	conf := make(Conf, len(raw))
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		v, err := ParseValue(raw[key])
		if err != nil {
			return nil, fmt.Errorf("conf.%s: %w", key, err)
		}
		conf[key] = v
	}
	return conf, nil
}

// ParseValue converts one decoded configuration entry into a Value.
func ParseValue(raw any) (Value, error) {
	switch node := normalize(raw).(type) {
	case map[string]any:
		if isLeaf(node) {
			return parseLeaf(node)
		}
		fields, err := ParseConf(node)
		if err != nil {
			return Value{}, err
		}
		return Tree(fields), nil
	case []any:
		items := make([]Value, len(node))
		for i, item := range node {
			v, err := ParseValue(item)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = v
		}
		return List(items...), nil
	default:
		return Lit("", node), nil
	}
}

func isLeaf(node map[string]any) bool {
	_, hasValue := node["value"]
	_, hasTerminal := node["terminal"]
	if !hasValue && !hasTerminal {
		return false
	}
	for k := range node {
		if k != "type" && k != "value" && k != "terminal" {
			return false
		}
	}
	return true
}

func parseLeaf(node map[string]any) (Value, error) {
	typ, _ := node["type"].(string)

	if terminal, ok := node["terminal"]; ok {
		name, ok := terminal.(string)
		if !ok {
			return Value{}, fmt.Errorf("terminal must be a string, got %T", terminal)
		}
		return Term(typ, name), nil
	}

	if typ != "module" {
		return Lit(typ, node["value"]), nil
	}

	def, ok := node["value"].(map[string]any)
	if !ok {
		return Value{}, fmt.Errorf("module entry must hold a module definition, got %T", node["value"])
	}
	id, _ := def["id"].(string)
	modType, _ := def["type"].(string)
	if id == "" || modType == "" {
		return Value{}, fmt.Errorf("module entry requires id and type")
	}
	var rawConf map[string]any
	if c, ok := def["conf"].(map[string]any); ok {
		rawConf = c
	}
	conf, err := ParseConf(rawConf)
	if err != nil {
		return Value{}, err
	}
	return Mod(id, modType, conf), nil
}

// normalize maps YAML decoding artefacts onto the JSON data model so that
// both document formats produce identical configurations.
func normalize(raw any) any {
	switch v := raw.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalize(item)
		}
		return out
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	case float32:
		return float64(v)
	default:
		return v
	}
}
