package engine

import (
	"slices"

	"github.com/alexisbeaulieu97/pipego/pkg/ident"
	"github.com/alexisbeaulieu97/pipego/pkg/pipeline"
)

// Root names the synthetic root source. Canonical module ids never take
// this value.
const Root = "forever"

// Bindings are the resolved connections of one module.
type Bindings struct {
	// Input is the id of the module feeding the default input, or Root.
	// Embedded modules have none: their loop supplies it per record.
	Input string
	// Inputs maps canonical auxiliary port ids to source module ids.
	Inputs map[string]string
	// Embed is the loop body id, for loops.
	Embed string
	// Splits is the number of default-output wires leaving a split.
	Splits int
	// Conflicts lists ports claimed by more than one wire. The last wire in
	// document order won.
	Conflicts []string
}

// Resolve computes the bindings of module id from the pipe's wires.
func (p *Pipe) Resolve(id string) Bindings {
	m := p.Modules[id]
	b := Bindings{}
	if m == nil {
		return b
	}

	if !p.IsEmbedded(id) {
		b.Input = Root
		claims := map[string]int{}
		for _, w := range p.Wires {
			if w.Target.ModuleID != id || !w.Source.IsDefaultOutput() {
				continue
			}
			if p.IsEmbedded(w.Source.ModuleID) {
				continue
			}
			if w.Target.IsDefaultInput() {
				b.Input = w.Source.ModuleID
				claims[PortInput]++
				continue
			}
			port := ident.Canonicalize(w.Target.Port)
			if b.Inputs == nil {
				b.Inputs = map[string]string{}
			}
			b.Inputs[port] = w.Source.ModuleID
			claims[port]++
		}
		for port, n := range claims {
			if n > 1 {
				b.Conflicts = append(b.Conflicts, port)
			}
		}
		slices.Sort(b.Conflicts)
	}

	switch m.Type {
	case pipeline.TypeLoop:
		b.Embed = m.Embed
	case pipeline.TypeSplit:
		for _, w := range p.Wires {
			if w.Source.ModuleID == id && w.Source.IsDefaultOutput() {
				b.Splits++
			}
		}
	}

	return b
}
