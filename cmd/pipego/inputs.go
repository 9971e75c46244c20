package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/pipego/internal/engine"
	"github.com/alexisbeaulieu97/pipego/internal/tui"
	"github.com/alexisbeaulieu97/pipego/pkg/pipeline"
	"github.com/alexisbeaulieu97/pipego/pkg/stream"
)

func newInputsCmd(root *rootFlags) *cobra.Command {
	asJSON := false

	cmd := &cobra.Command{
		Use:   "inputs <document>",
		Short: "List the inputs a pipe declares",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, root, "")
			if err != nil {
				return err
			}
			_, p, err := s.load(args[0])
			if err != nil {
				return err
			}

			if !asJSON {
				declared, err := engine.DescribeInputs(p)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), tui.RenderInputs(p.Name, declared))
				return nil
			}

			// The compiled pipe answers in describe-input mode, exactly as a
			// generated pipe would.
			ctx := pipeline.NewContext(pipeline.WithDescribeInput(true), pipeline.WithLogger(s.log.Zerolog()))
			out, err := engine.Assemble(ctx, p, s.registry, s.log)
			if err != nil {
				return err
			}
			records, err := stream.Collect(out, 0)
			if err != nil {
				return err
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(records)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the inputs as a JSON array")

	return cmd
}
