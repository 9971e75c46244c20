// Package config loads the optional .pipego.yaml settings file. Command line
// flags override every value it sets.
package config

// DefaultFile is looked up in the working directory when no settings file
// is named explicitly.
const DefaultFile = ".pipego.yaml"

// Settings holds the defaults applied to every pipego command.
type Settings struct {
	// Verbose enables the debug trace of bindings and operator diagnostics.
	Verbose bool `yaml:"verbose,omitempty"`
	// OutputDir receives generated sources for compiled sub-pipelines.
	OutputDir string `yaml:"output_dir,omitempty" validate:"omitempty,file_path"`
	// Package is the package clause of generated files.
	Package string `yaml:"package,omitempty" validate:"omitempty,go_ident"`
	// ImportPrefix is the package path generated sub-pipelines live under.
	ImportPrefix string `yaml:"import_prefix,omitempty" validate:"omitempty,import_path"`
	// Library is the directory sub-pipeline documents are loaded from.
	Library string `yaml:"library,omitempty" validate:"omitempty,file_path"`
	// Limit caps the records printed by run; zero prints everything.
	Limit int `yaml:"limit,omitempty" validate:"min=0"`
}
