// Package document reads pipe documents: the module/wire graphs exported by
// a visual pipe editor, in JSON or YAML.
package document

// Document is a decoded pipe document. Modules and Wires are always lists,
// even when the source held a single object.
type Document struct {
	Modules []ModuleDef `json:"modules" validate:"dive"`
	Wires   []WireDef   `json:"wires" validate:"dive"`

	// Raw is the document as decoded, before normalisation.
	Raw map[string]any `json:"-"`
}

// ModuleDef is one module entry. Conf is kept untyped; it is parsed into a
// pipeline.Conf by the engine.
type ModuleDef struct {
	ID   string         `json:"id" validate:"required"`
	Type string         `json:"type" validate:"required"`
	Conf map[string]any `json:"conf,omitempty"`
}

// WireDef connects a source module output port to a target module input
// port.
type WireDef struct {
	ID  string   `json:"id" validate:"required"`
	Src Endpoint `json:"src"`
	Tgt Endpoint `json:"tgt"`
}

// Endpoint addresses a port on a module.
type Endpoint struct {
	ModuleID string `json:"moduleid" validate:"required"`
	ID       string `json:"id" validate:"required"`
}

// Types returns the distinct module types used by the document, including
// loop-embedded modules, sorted.
func (d *Document) Types() []string {
	seen := map[string]struct{}{}
	for _, m := range d.Modules {
		seen[m.Type] = struct{}{}
		if embed, ok := m.Embed(); ok {
			seen[embed.Type] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// Embed returns the module definition nested under conf.embed.value, if any.
func (m ModuleDef) Embed() (ModuleDef, bool) {
	embed, ok := m.Conf["embed"].(map[string]any)
	if !ok {
		return ModuleDef{}, false
	}
	value, ok := embed["value"].(map[string]any)
	if !ok {
		return ModuleDef{}, false
	}
	def := ModuleDef{}
	def.ID, _ = value["id"].(string)
	def.Type, _ = value["type"].(string)
	def.Conf, _ = value["conf"].(map[string]any)
	return def, true
}
