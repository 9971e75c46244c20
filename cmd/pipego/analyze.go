package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/pipego/internal/document"
	"github.com/alexisbeaulieu97/pipego/internal/engine"
	"github.com/alexisbeaulieu97/pipego/internal/tui"
)

func newAnalyzeCmd() *cobra.Command {
	asJSON := false

	cmd := &cobra.Command{
		Use:   "analyze <document>",
		Short: "List the module types and sub-pipelines a pipe uses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Analysis needs no operators, so sub-pipelines are not compiled.
			doc, err := document.Load(args[0])
			if err != nil {
				return err
			}
			p, err := engine.BuildPipe(doc, document.Name(args[0]))
			if err != nil {
				return err
			}
			analysis := engine.Analyze(p)

			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(analysis)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderAnalysis(p.Name, analysis))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the analysis as JSON")

	return cmd
}
