package codegen

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/pipego/internal/operator"
	"github.com/alexisbeaulieu97/pipego/pkg/pipeline"
	"github.com/alexisbeaulieu97/pipego/pkg/stream"
)

// interpreter evaluates the statements Generate emits, calling operators
// from a registry by their symbol. It understands exactly the subset of Go
// the generator produces.
type interpreter struct {
	ctx       *pipeline.Context
	factories map[string]pipeline.Factory
}

func newInterpreter(t *testing.T, ctx *pipeline.Context, reg *operator.Registry) *interpreter {
	t.Helper()
	in := &interpreter{ctx: ctx, factories: map[string]pipeline.Factory{}}
	for _, typ := range reg.Types() {
		op, err := reg.Lookup(typ)
		require.NoError(t, err)
		in.factories[op.Symbol] = op.Factory
	}
	return in
}

// run interprets function fn of the generated file src and returns its
// output step.
func (in *interpreter) run(src []byte, fn string) (stream.Step, error) {
	file, err := parser.ParseFile(token.NewFileSet(), "generated.go", src, 0)
	if err != nil {
		return nil, err
	}
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Name.Name != fn {
			continue
		}
		return in.block(fd.Body.List, map[string]any{})
	}
	return nil, fmt.Errorf("function %s not found", fn)
}

func (in *interpreter) block(stmts []ast.Stmt, env map[string]any) (stream.Step, error) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.IfStmt:
			if in.ctx.DescribeInput() {
				return nil, fmt.Errorf("describe-input mode is not interpreted")
			}
		case *ast.ReturnStmt:
			step, ok := env[s.Results[0].(*ast.Ident).Name].(stream.Step)
			if !ok {
				return nil, fmt.Errorf("return of a non-step")
			}
			return step, nil
		case *ast.AssignStmt:
			name := s.Lhs[0].(*ast.Ident).Name
			if name == "_" || name == "declared" {
				continue
			}
			v, err := in.call(s.Rhs[0].(*ast.CallExpr), env)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			env[name] = v
		default:
			return nil, fmt.Errorf("unexpected statement %T", stmt)
		}
	}
	return nil, fmt.Errorf("function did not return")
}

func (in *interpreter) call(c *ast.CallExpr, env map[string]any) (any, error) {
	symbol := selector(c.Fun)
	switch symbol {
	case "stream.Forever":
		return stream.Forever(), nil
	case "pipeline.SubmoduleFunc":
		body := c.Args[0].(*ast.FuncLit).Body.List
		return pipeline.SubmoduleFunc(func(input stream.Step) stream.Step {
			scope := map[string]any{"input": input}
			for k, v := range env {
				scope[k] = v
			}
			step, err := in.block(body, scope)
			if err != nil {
				return stream.Fail(err)
			}
			return step
		}), nil
	}

	factory, ok := in.factories[symbol]
	if !ok {
		return nil, fmt.Errorf("unknown symbol %s", symbol)
	}
	input, _ := env[c.Args[1].(*ast.Ident).Name].(stream.Step)
	conf, err := evalConf(c.Args[2])
	if err != nil {
		return nil, err
	}
	opts, err := evalOptions(c.Args[3].(*ast.CompositeLit), env)
	if err != nil {
		return nil, err
	}
	return factory(in.ctx, input, conf, opts), nil
}

func selector(e ast.Expr) string {
	switch t := e.(type) {
	case *ast.SelectorExpr:
		return selector(t.X) + "." + t.Sel.Name
	case *ast.Ident:
		return t.Name
	default:
		return ""
	}
}

func evalConf(e ast.Expr) (pipeline.Conf, error) {
	if id, ok := e.(*ast.Ident); ok && id.Name == "nil" {
		return nil, nil
	}
	lit, ok := e.(*ast.CompositeLit)
	if !ok {
		return nil, fmt.Errorf("conf is not a literal")
	}
	conf := pipeline.Conf{}
	for _, elt := range lit.Elts {
		kv := elt.(*ast.KeyValueExpr)
		key, err := strconv.Unquote(kv.Key.(*ast.BasicLit).Value)
		if err != nil {
			return nil, err
		}
		v, err := evalValue(kv.Value.(*ast.CallExpr))
		if err != nil {
			return nil, err
		}
		conf[key] = v
	}
	return conf, nil
}

func evalValue(c *ast.CallExpr) (pipeline.Value, error) {
	str := func(i int) string {
		s, _ := strconv.Unquote(c.Args[i].(*ast.BasicLit).Value)
		return s
	}
	switch selector(c.Fun) {
	case "pipeline.Lit":
		v, err := evalAny(c.Args[1])
		return pipeline.Lit(str(0), v), err
	case "pipeline.Term":
		return pipeline.Term(str(0), str(1)), nil
	case "pipeline.Mod":
		conf, err := evalConf(c.Args[2])
		return pipeline.Mod(str(0), str(1), conf), err
	case "pipeline.Tree":
		conf, err := evalConf(c.Args[0])
		return pipeline.Tree(conf), err
	case "pipeline.List":
		items := make([]pipeline.Value, len(c.Args))
		for i, arg := range c.Args {
			v, err := evalValue(arg.(*ast.CallExpr))
			if err != nil {
				return pipeline.Value{}, err
			}
			items[i] = v
		}
		return pipeline.List(items...), nil
	default:
		return pipeline.Value{}, fmt.Errorf("unexpected call %s", selector(c.Fun))
	}
}

func evalAny(e ast.Expr) (any, error) {
	switch t := e.(type) {
	case *ast.BasicLit:
		switch t.Kind {
		case token.STRING:
			return strconv.Unquote(t.Value)
		case token.FLOAT, token.INT:
			return strconv.ParseFloat(t.Value, 64)
		}
	case *ast.UnaryExpr:
		v, err := evalAny(t.X)
		if err != nil {
			return nil, err
		}
		return -v.(float64), nil
	case *ast.Ident:
		switch t.Name {
		case "nil":
			return nil, nil
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	case *ast.CompositeLit:
		if _, ok := t.Type.(*ast.ArrayType); ok {
			out := []any{}
			for _, elt := range t.Elts {
				v, err := evalAny(elt)
				if err != nil {
					return nil, err
				}
				out = append(out, v)
			}
			return out, nil
		}
		out := map[string]any{}
		for _, elt := range t.Elts {
			kv := elt.(*ast.KeyValueExpr)
			key, err := strconv.Unquote(kv.Key.(*ast.BasicLit).Value)
			if err != nil {
				return nil, err
			}
			v, err := evalAny(kv.Value)
			if err != nil {
				return nil, err
			}
			out[key] = v
		}
		return out, nil
	}
	return nil, fmt.Errorf("unexpected literal %T", e)
}

func evalOptions(lit *ast.CompositeLit, env map[string]any) (pipeline.Options, error) {
	opts := pipeline.Options{}
	for _, elt := range lit.Elts {
		kv := elt.(*ast.KeyValueExpr)
		switch kv.Key.(*ast.Ident).Name {
		case "Inputs":
			opts.Inputs = map[string]stream.Step{}
			for _, entry := range kv.Value.(*ast.CompositeLit).Elts {
				pair := entry.(*ast.KeyValueExpr)
				port, err := strconv.Unquote(pair.Key.(*ast.BasicLit).Value)
				if err != nil {
					return opts, err
				}
				opts.Inputs[port], _ = env[pair.Value.(*ast.Ident).Name].(stream.Step)
			}
		case "Embed":
			opts.Embed, _ = env[kv.Value.(*ast.Ident).Name].(pipeline.Submodule)
		case "Splits":
			n, err := strconv.Atoi(kv.Value.(*ast.BasicLit).Value)
			if err != nil {
				return opts, err
			}
			opts.Splits = n
		}
	}
	return opts, nil
}
