package main

import (
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/pipego/internal/config"
)

type rootFlags struct {
	verbose    bool
	configPath string
	library    string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "pipego",
		Short:         "pipego compiles pipe documents into Go pipelines",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Trace bindings and operator diagnostics")
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Settings file (default ./"+config.DefaultFile+")")
	cmd.PersistentFlags().StringVar(&flags.library, "library", "", "Directory holding sub-pipeline documents")

	cmd.AddCommand(newCompileCmd(flags))
	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newInputsCmd(flags))
	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}
