package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/pipego/internal/engine"
	"github.com/alexisbeaulieu97/pipego/internal/tui"
	"github.com/alexisbeaulieu97/pipego/pkg/pipeline"
	"github.com/alexisbeaulieu97/pipego/pkg/stream"
)

type runOptions struct {
	inputs      []string
	interactive bool
	limit       int
}

func newRunCmd(root *rootFlags) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run <document>",
		Short: "Run a pipe in process and print its records as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipe(cmd, root, opts, args[0])
		},
	}

	cmd.Flags().StringArrayVarP(&opts.inputs, "input", "i", nil, "Value for a declared input, as name=value (repeatable)")
	cmd.Flags().BoolVar(&opts.interactive, "interactive", false, "Prompt for declared inputs not given with --input")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Stop after this many records (0 prints everything)")

	return cmd
}

func runPipe(cmd *cobra.Command, root *rootFlags, opts runOptions, path string) error {
	values, err := parseInputs(opts.inputs)
	if err != nil {
		return err
	}

	s, err := newSession(cmd, root, "")
	if err != nil {
		return err
	}
	_, p, err := s.load(path)
	if err != nil {
		return err
	}

	if opts.interactive {
		if !isTerminal(cmd.InOrStdin()) {
			return fmt.Errorf("--interactive requires a terminal on stdin")
		}
		declared, err := engine.DescribeInputs(p)
		if err != nil {
			return err
		}
		values, err = tui.Prompt(declared, values, cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
	}

	limit := opts.limit
	if !cmd.Flags().Changed("limit") {
		limit = s.settings.Limit
	}
	if limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}

	ctx := pipeline.NewContext(
		pipeline.WithVerbose(s.verbose),
		pipeline.WithInputs(values),
		pipeline.WithLogger(s.log.Zerolog()),
	)
	out, err := engine.Assemble(ctx, p, s.registry, s.log)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	emitted := 0
	for rec, err := range stream.All(out) {
		if err != nil {
			return err
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
		emitted++
		if limit > 0 && emitted >= limit {
			break
		}
	}
	s.log.WithFields(map[string]any{"pipe": p.Name, "records": emitted}).Debug("run finished")
	return nil
}

// parseInputs splits name=value pairs. A later pair overrides an earlier one.
func parseInputs(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid --input %q: expected name=value", pair)
		}
		values[strings.TrimSpace(name)] = value
	}
	return values, nil
}
