package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alexisbeaulieu97/pipego/internal/config"
	"github.com/alexisbeaulieu97/pipego/internal/document"
	"github.com/alexisbeaulieu97/pipego/internal/engine"
	"github.com/alexisbeaulieu97/pipego/internal/library"
	"github.com/alexisbeaulieu97/pipego/internal/logger"
	"github.com/alexisbeaulieu97/pipego/internal/operator"
)

// session bundles the services one command invocation uses.
type session struct {
	settings     *config.Settings
	verbose      bool
	importPrefix string
	log          *logger.Logger
	registry     *operator.Registry
	library      *library.Library
}

// newSession loads the settings file and wires the registry and library.
// importPrefix overrides the settings file when non-empty.
func newSession(cmd *cobra.Command, root *rootFlags, importPrefix string) (*session, error) {
	settings, err := config.Load(root.configPath)
	if err != nil {
		return nil, err
	}

	verbose := root.verbose || settings.Verbose
	level := "info"
	if verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{
		Level:         level,
		HumanReadable: isTerminal(cmd.ErrOrStderr()),
		Writer:        cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}

	reg, err := operator.NewDefaultRegistry(log)
	if err != nil {
		return nil, err
	}

	dir := root.library
	if dir == "" {
		dir = settings.Library
	}
	if importPrefix == "" {
		importPrefix = settings.ImportPrefix
	}

	return &session{
		settings:     settings,
		verbose:      verbose,
		importPrefix: importPrefix,
		log:          log,
		registry:     reg,
		library:      library.New(dir, reg, library.Options{ImportPrefix: importPrefix, Logger: log}),
	}, nil
}

// load reads the document at path, compiles the sub-pipelines it references
// and builds its pipe. The pipe is named after the file.
func (s *session) load(path string) (*document.Document, *engine.Pipe, error) {
	doc, err := document.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if err := s.library.Resolve(doc); err != nil {
		return nil, nil, err
	}
	p, err := engine.BuildPipe(doc, document.Name(path))
	if err != nil {
		return nil, nil, err
	}
	return doc, p, nil
}

func isTerminal(stream any) bool {
	if file, ok := stream.(*os.File); ok {
		return termIsTerminal(int(file.Fd()))
	}
	return false
}

var termIsTerminal = func(fd int) bool {
	return term.IsTerminal(fd)
}
