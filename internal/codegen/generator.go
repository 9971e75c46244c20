// Package codegen renders a compiled pipe as Go source. The generated
// function builds the same pipeline the engine assembles in process.
package codegen

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/alexisbeaulieu97/pipego/internal/engine"
	"github.com/alexisbeaulieu97/pipego/internal/logger"
	"github.com/alexisbeaulieu97/pipego/internal/operator"
	"github.com/alexisbeaulieu97/pipego/pkg/ident"
	"github.com/alexisbeaulieu97/pipego/pkg/modules"
	"github.com/alexisbeaulieu97/pipego/pkg/pipeline"
)

// Runtime packages every generated file imports.
const (
	PipelineImport = "github.com/alexisbeaulieu97/pipego/pkg/pipeline"
	StreamImport   = "github.com/alexisbeaulieu97/pipego/pkg/stream"
)

// MainPackage makes the generated file a runnable program.
const MainPackage = "main"

// Options control code generation.
type Options struct {
	// Package is the package clause; it defaults to the pipe name rendered
	// as a package name. MainPackage adds a main function.
	Package string
	Logger  *logger.Logger
}

type call struct {
	symbol     string
	importPath string
}

// Generate renders p as a gofmt-formatted Go file. Identical pipes always
// produce identical output.
//
// Module types are looked up in reg; unregistered types fall back to the
// built-in naming convention, modules.Pipe<Type>. Sub-pipelines must be
// registered: generating against one that is not compiled fails.
func Generate(p *engine.Pipe, reg *operator.Registry, opts Options) ([]byte, error) {
	plan, err := engine.NewPlan(p)
	if err != nil {
		return nil, err
	}

	pkg := opts.Package
	if pkg == "" {
		pkg = ident.Package(p.Name)
	}
	if reg == nil {
		reg = operator.NewRegistry(nil)
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	calls := make(map[string]call, len(plan.Modules))
	for _, pm := range plan.Modules {
		c, err := resolveCall(reg, pm.Module.Type)
		if err != nil {
			return nil, err
		}
		calls[pm.Module.ID] = c
	}

	g := &generator{plan: plan, calls: calls, pkg: pkg, log: log.WithFields(map[string]any{"pipe": p.Name})}
	src, err := g.render()
	if err != nil {
		return nil, err
	}

	out, err := format.Source(src)
	if err != nil {
		return nil, fmt.Errorf("format generated source: %w", err)
	}
	return out, nil
}

func resolveCall(reg *operator.Registry, typ string) (call, error) {
	op, err := reg.Lookup(typ)
	switch {
	case err == nil:
		return call{symbol: op.Symbol, importPath: op.ImportPath}, nil
	case pipeline.IsSubPipeline(typ) || !errors.Is(err, operator.ErrNotFound):
		return call{}, err
	}
	return call{symbol: "modules.Pipe" + ident.Exported(typ), importPath: modules.ImportPath}, nil
}

type generator struct {
	plan  *engine.Plan
	calls map[string]call
	pkg   string
	log   *logger.Logger
	buf   bytes.Buffer
}

func (g *generator) printf(format string, args ...any) {
	fmt.Fprintf(&g.buf, format, args...)
}

func (g *generator) render() ([]byte, error) {
	name := g.plan.Pipe.Name
	fn := ident.Exported(name)

	g.printf("// Code generated by pipego from pipe %s. DO NOT EDIT.\n\n", strconv.Quote(name))
	g.printf("package %s\n\n", g.pkg)
	g.renderImports()

	g.printf("// %s builds pipe %s. In describe-input mode it yields the inputs\n", fn, strconv.Quote(name))
	g.printf("// the pipe declares instead.\n")
	g.printf("func %s(ctx *pipeline.Context, input stream.Step, conf pipeline.Conf, opts pipeline.Options) stream.Step {\n", fn)

	if err := g.renderInputs(); err != nil {
		return nil, err
	}
	g.printf("if ctx.DescribeInput() {\nreturn stream.FromSlice(pipeline.InputRecords(declared))\n}\n\n")
	g.printf("%s := stream.Forever()\n", engine.Root)

	used := g.references()
	if _, ok := used[engine.Root]; !ok {
		g.printf("_ = %s\n", engine.Root)
	}

	for _, pm := range g.plan.Modules {
		g.log.WithFields(map[string]any{"module": pm.Module.ID, "type": pm.Module.Type}).Debug(pm.Describe())
		if err := g.renderModule(pm, used); err != nil {
			return nil, err
		}
	}
	g.printf("return %s\n}\n", g.plan.Output)

	if g.pkg == MainPackage {
		g.renderMain(fn)
	}
	return g.buf.Bytes(), nil
}

func (g *generator) renderImports() {
	runtime := []string{PipelineImport, StreamImport}
	var subs []string
	aliases := map[string]string{}
	for _, pm := range g.plan.Modules {
		c := g.calls[pm.Module.ID]
		qualifier, _, _ := strings.Cut(c.symbol, ".")
		if qualifier != path.Base(c.importPath) {
			aliases[c.importPath] = qualifier
		}
		switch {
		case slices.Contains(runtime, c.importPath) || slices.Contains(subs, c.importPath):
		case pipeline.IsSubPipeline(pm.Module.Type):
			subs = append(subs, c.importPath)
		default:
			runtime = append(runtime, c.importPath)
		}
	}

	g.printf("import (\n")
	if g.pkg == MainPackage {
		g.printf("%q\n%q\n%q\n\n", "encoding/json", "fmt", "os")
	}
	for _, imp := range runtime {
		g.printImport(imp, aliases[imp])
	}
	if len(subs) > 0 {
		g.printf("\n")
		for _, imp := range subs {
			g.printImport(imp, aliases[imp])
		}
	}
	g.printf(")\n\n")
}

func (g *generator) printImport(importPath, alias string) {
	if alias != "" {
		g.printf("%s %q\n", alias, importPath)
		return
	}
	g.printf("%q\n", importPath)
}

func (g *generator) renderInputs() error {
	if len(g.plan.Inputs) == 0 {
		g.printf("declared := []pipeline.Input{}\n")
		return nil
	}

	g.printf("declared := []pipeline.Input{\n")
	for _, in := range g.plan.Inputs {
		def, err := anyLiteral(in.Default)
		if err != nil {
			return fmt.Errorf("input %s: %w", in.Name, err)
		}
		g.printf("{Position: %d, Name: %q, Prompt: %q, Type: %q, Default: %s},\n", in.Position, in.Name, in.Prompt, in.Type, def)
	}
	g.printf("}\n")
	return nil
}

// references returns the names read by some statement, so that bindings
// nothing consumes can be discarded explicitly.
func (g *generator) references() map[string]struct{} {
	used := map[string]struct{}{g.plan.Output: {}}
	for _, pm := range g.plan.Modules {
		if pm.Embedded {
			continue
		}
		used[pm.Bindings.Input] = struct{}{}
		for _, src := range pm.Bindings.Inputs {
			used[src] = struct{}{}
		}
	}
	return used
}

func (g *generator) renderModule(pm engine.PlannedModule, used map[string]struct{}) error {
	m := pm.Module
	conf, err := confLiteral(m.Conf)
	if err != nil {
		return fmt.Errorf("module %s: %w", m.ID, err)
	}
	symbol := g.calls[m.ID].symbol

	if pm.Embedded {
		g.printf("%s := pipeline.SubmoduleFunc(func(input stream.Step) stream.Step {\n", submoduleName(m.ID))
		g.printf("%s := %s(ctx, input, %s, pipeline.Options{})\n", m.ID, symbol, conf)
		g.printf("return %s\n})\n", m.ID)
		return nil
	}

	g.printf("%s := %s(ctx, %s, %s, %s)\n", m.ID, symbol, pm.Bindings.Input, conf, optionsLiteral(pm))
	if _, ok := used[m.ID]; !ok {
		g.printf("_ = %s\n", m.ID)
	}
	return nil
}

func optionsLiteral(pm engine.PlannedModule) string {
	b := pm.Bindings
	var fields []string
	if len(b.Inputs) > 0 {
		ports := make([]string, 0, len(b.Inputs))
		for port := range b.Inputs {
			ports = append(ports, port)
		}
		slices.Sort(ports)
		entries := make([]string, len(ports))
		for i, port := range ports {
			entries[i] = fmt.Sprintf("%q: %s", port, b.Inputs[port])
		}
		fields = append(fields, "Inputs: map[string]stream.Step{"+strings.Join(entries, ", ")+"}")
	}
	if b.Embed != "" {
		fields = append(fields, "Embed: "+submoduleName(b.Embed))
	}
	if pm.Module.Type == pipeline.TypeSplit {
		fields = append(fields, fmt.Sprintf("Splits: %d", b.Splits))
	}
	return "pipeline.Options{" + strings.Join(fields, ", ") + "}"
}

func (g *generator) renderMain(fn string) {
	g.printf("\nfunc main() {\n")
	g.printf("ctx := pipeline.NewContext()\n")
	g.printf("enc := json.NewEncoder(os.Stdout)\n")
	g.printf("for rec, err := range stream.All(%s(ctx, nil, nil, pipeline.Options{})) {\n", fn)
	g.printf("if err != nil {\nfmt.Fprintln(os.Stderr, err)\nos.Exit(1)\n}\n")
	g.printf("if err := enc.Encode(rec); err != nil {\nfmt.Fprintln(os.Stderr, err)\nos.Exit(1)\n}\n")
	g.printf("}\n}\n")
}

func submoduleName(id string) string {
	return "pipe_" + id
}
