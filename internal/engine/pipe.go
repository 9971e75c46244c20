// Package engine compiles pipe documents: it builds the dependency graph,
// orders and resolves modules into a Plan, and assembles runnable pipelines
// from it.
package engine

import (
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/pipego/internal/document"
	pipeerrors "github.com/alexisbeaulieu97/pipego/pkg/errors"
	"github.com/alexisbeaulieu97/pipego/pkg/ident"
	"github.com/alexisbeaulieu97/pipego/pkg/pipeline"
)

// Well-known port ids.
const (
	// PortInput is the default input of a module.
	PortInput = "_INPUT"
	// PortOutput prefixes the default output of a module.
	PortOutput = "_OUTPUT"
)

// Port addresses one end of a wire. ModuleID is canonical; Port is kept as
// written in the document.
type Port struct {
	ModuleID string
	Port     string
}

// IsDefaultInput reports whether p is a module's default input.
func (p Port) IsDefaultInput() bool {
	return p.Port == PortInput
}

// IsDefaultOutput reports whether p is a module's default output.
func (p Port) IsDefaultOutput() bool {
	return strings.HasPrefix(p.Port, PortOutput)
}

// Module is a node of a pipe.
type Module struct {
	ID    string
	RawID string
	Type  string
	Conf  pipeline.Conf
	// Embed is the id of the embedded module of a loop.
	Embed string
}

// Wire connects two module ports.
type Wire struct {
	ID     string
	RawID  string
	Source Port
	Target Port
}

// Pipe is a parsed pipe document.
type Pipe struct {
	Name    string
	Modules map[string]*Module
	// Wires keeps document order, which decides last-wins resolution.
	Wires    []*Wire
	WireByID map[string]*Wire
	Graph    *Graph
	// Embedded holds the ids of loop bodies. They are reached only through
	// their loop, never through ordinary wiring.
	Embedded map[string]struct{}
	// Pruned lists modules dropped from the graph as disconnected.
	Pruned []string
}

// IsEmbedded reports whether id is a loop body.
func (p *Pipe) IsEmbedded(id string) bool {
	_, ok := p.Embedded[id]
	return ok
}

// BuildPipe converts a decoded document into a Pipe. Structural problems
// fail the whole build; no partial pipe is returned.
func BuildPipe(doc *document.Document, name string) (*Pipe, error) {
	if doc == nil {
		return nil, pipeerrors.NewValidationError("document", "document is empty", nil)
	}
	if name == "" {
		name = document.AnonymousName
	}

	p := &Pipe{
		Name:     name,
		Modules:  make(map[string]*Module, len(doc.Modules)),
		WireByID: make(map[string]*Wire, len(doc.Wires)),
		Graph:    NewGraph(),
		Embedded: make(map[string]struct{}),
	}

	for i, def := range doc.Modules {
		field := fmt.Sprintf("modules[%d]", i)
		m, err := p.addModule(def, field)
		if err != nil {
			return nil, err
		}
		if m.Type != pipeline.TypeLoop {
			continue
		}

		embedDef, ok := def.Embed()
		if !ok {
			return nil, pipeerrors.NewValidationError(field+".conf.embed.value", "loop module has no embedded module", nil)
		}
		embed, err := p.addModule(embedDef, field+".conf.embed.value")
		if err != nil {
			return nil, err
		}
		p.Embedded[embed.ID] = struct{}{}
		m.Embed = embed.ID
		if m.Conf == nil {
			m.Conf = pipeline.Conf{}
		}
		m.Conf["embed"] = pipeline.Mod(embedDef.ID, embed.Type, embed.Conf)

		// The loop depends on its body being defined first.
		if err := p.Graph.AddEdge(embed.ID, m.ID); err != nil {
			return nil, err
		}
	}

	for i, def := range doc.Wires {
		field := fmt.Sprintf("wires[%d]", i)
		w := &Wire{
			ID:     ident.Canonicalize(def.ID),
			RawID:  def.ID,
			Source: Port{ModuleID: ident.Canonicalize(def.Src.ModuleID), Port: def.Src.ID},
			Target: Port{ModuleID: ident.Canonicalize(def.Tgt.ModuleID), Port: def.Tgt.ID},
		}
		if prev, exists := p.WireByID[w.ID]; exists {
			return nil, pipeerrors.NewValidationError(field+".id", collision("wire", prev.RawID, def.ID, w.ID), nil)
		}
		if _, ok := p.Modules[w.Source.ModuleID]; !ok {
			return nil, pipeerrors.NewValidationError(field+".src.moduleid", fmt.Sprintf("wire %q references unknown module %q", def.ID, def.Src.ModuleID), nil)
		}
		if _, ok := p.Modules[w.Target.ModuleID]; !ok {
			return nil, pipeerrors.NewValidationError(field+".tgt.moduleid", fmt.Sprintf("wire %q references unknown module %q", def.ID, def.Tgt.ModuleID), nil)
		}
		if err := p.Graph.AddEdge(w.Source.ModuleID, w.Target.ModuleID); err != nil {
			return nil, err
		}
		p.Wires = append(p.Wires, w)
		p.WireByID[w.ID] = w
	}

	p.Pruned = p.Graph.Prune()
	return p, nil
}

func (p *Pipe) addModule(def document.ModuleDef, field string) (*Module, error) {
	id := ident.Canonicalize(def.ID)
	if prev, exists := p.Modules[id]; exists {
		return nil, pipeerrors.NewValidationError(field+".id", collision("module", prev.RawID, def.ID, id), nil)
	}

	conf, err := pipeline.ParseConf(def.Conf)
	if err != nil {
		return nil, pipeerrors.NewValidationError(field+".conf", "", err)
	}

	m := &Module{ID: id, RawID: def.ID, Type: def.Type, Conf: conf}
	p.Modules[id] = m
	p.Graph.AddNode(id)
	return m, nil
}

func collision(kind, first, second, canonical string) string {
	if first == second {
		return fmt.Sprintf("duplicate %s id %q", kind, first)
	}
	return fmt.Sprintf("%s ids %q and %q both map to %q", kind, first, second, canonical)
}
