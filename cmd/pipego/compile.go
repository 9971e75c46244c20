package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/pipego/internal/codegen"
	"github.com/alexisbeaulieu97/pipego/internal/engine"
	"github.com/alexisbeaulieu97/pipego/pkg/diff"
	"github.com/alexisbeaulieu97/pipego/pkg/ident"
)

type compileOptions struct {
	output       string
	outputDir    string
	pkg          string
	importPrefix string
	check        bool
	saveJSON     string
}

// errNoImportPrefix is returned when generated code would import
// sub-pipelines by a bare package name.
var errNoImportPrefix = errors.New("sub-pipelines are referenced but no import prefix is set; pass --import-prefix or set import_prefix")

// errOutOfDate is returned by compile --check when the file on disk differs
// from what would be generated.
var errOutOfDate = errors.New("generated source is out of date")

func newCompileCmd(root *rootFlags) *cobra.Command {
	opts := compileOptions{}

	cmd := &cobra.Command{
		Use:   "compile <document>",
		Short: "Generate Go source for a pipe document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, root, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the generated file here instead of stdout")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "", "Also generate every compiled sub-pipeline under this directory")
	cmd.Flags().StringVar(&opts.pkg, "package", "", "Package clause of the generated file (main adds a runnable main)")
	cmd.Flags().StringVar(&opts.importPrefix, "import-prefix", "", "Package path generated sub-pipelines are imported from")
	cmd.Flags().BoolVar(&opts.check, "check", false, "Fail with a diff when --output is not up to date")
	cmd.Flags().StringVar(&opts.saveJSON, "save-json", "", "Write the parsed document as JSON to this file")

	return cmd
}

func runCompile(cmd *cobra.Command, root *rootFlags, opts compileOptions, path string) error {
	if opts.check && opts.output == "" {
		return fmt.Errorf("--check requires --output")
	}

	s, err := newSession(cmd, root, opts.importPrefix)
	if err != nil {
		return err
	}
	doc, p, err := s.load(path)
	if err != nil {
		return err
	}
	if s.importPrefix == "" && len(s.library.Compiled()) > 0 {
		return errNoImportPrefix
	}

	pkg := opts.pkg
	if pkg == "" {
		pkg = s.settings.Package
	}
	src, err := codegen.Generate(p, s.registry, codegen.Options{Package: pkg, Logger: s.log})
	if err != nil {
		return err
	}

	if opts.saveJSON != "" {
		data, err := doc.Encode()
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.saveJSON, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.saveJSON, err)
		}
	}

	if opts.check {
		return checkGenerated(cmd, opts.output, src)
	}

	outputDir := opts.outputDir
	if outputDir == "" {
		outputDir = s.settings.OutputDir
	}
	if outputDir != "" {
		if err := writeSubPipelines(s, outputDir); err != nil {
			return err
		}
	}

	if opts.output == "" || opts.output == "-" {
		_, err := cmd.OutOrStdout().Write(src)
		return err
	}
	if err := os.WriteFile(opts.output, src, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	s.log.WithFields(map[string]any{"pipe": p.Name, "output": opts.output}).Info("generated pipe")
	return nil
}

func checkGenerated(cmd *cobra.Command, path string, src []byte) error {
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if bytes.Equal(existing, src) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is up to date\n", path)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), diff.GenerateUnifiedDiff(existing, src, path, "generated"))
	return fmt.Errorf("%s: %w", path, errOutOfDate)
}

// writeSubPipelines generates each compiled sub-pipeline into
// dir/<package>/<package>.go, matching the import paths the registry
// assigned them.
func writeSubPipelines(s *session, dir string) error {
	for _, sub := range s.library.Compiled() {
		if err := writePipe(s, sub, dir); err != nil {
			return err
		}
	}
	return nil
}

func writePipe(s *session, p *engine.Pipe, dir string) error {
	pkg := ident.Package(p.Name)
	src, err := codegen.Generate(p, s.registry, codegen.Options{Package: pkg, Logger: s.log})
	if err != nil {
		return err
	}

	target := filepath.Join(dir, pkg)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	file := filepath.Join(target, pkg+".go")
	if err := os.WriteFile(file, src, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", file, err)
	}
	s.log.WithFields(map[string]any{"pipe": p.Name, "output": file}).Debug("generated sub-pipeline")
	return nil
}
