package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/salesdeck/insight-console/pkg/version"
	"github.com/spf13/cobra"
)

type VersionOptions struct {
	Output string
	out    io.Writer
}

func DefaultVersionOptions() *VersionOptions {
	return &VersionOptions{
		Output: "",
		out:    os.Stdout,
	}
}

func NewCmdVersion() *cobra.Command {
	o := DefaultVersionOptions()
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print insightctl version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.Run(cmd.Context(), args)
		},
	}
	cmd.Flags().StringVarP(&o.Output, "output", "o", o.Output, "Output format. One of: (json).")
	return cmd
}

func (o *VersionOptions) Run(ctx context.Context, args []string) error {
	versionInfo := version.Get()
	if o.Output == jsonFormat {
		return json.NewEncoder(o.out).Encode(versionInfo)
	}
	fmt.Fprintf(o.out, "insightctl version: %s\n", versionInfo.String())
	return nil
}
