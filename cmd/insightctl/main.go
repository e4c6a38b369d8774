package main

import (
	"os"

	"github.com/salesdeck/insight-console/internal/cli"
	"github.com/spf13/cobra"
)

func main() {
	command := NewInsightCtlCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewInsightCtlCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insightctl [flags] [options]",
		Short: "insightctl generates icebreakers and transcript analyses.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(cli.NewCmdGenerate())
	cmd.AddCommand(cli.NewCmdGet())
	cmd.AddCommand(cli.NewCmdDelete())
	cmd.AddCommand(cli.NewCmdLogin())
	cmd.AddCommand(cli.NewCmdVersion())

	return cmd
}
