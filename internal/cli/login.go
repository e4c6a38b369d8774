package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/salesdeck/insight-console/internal/backend"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type LoginOptions struct {
	GlobalOptions
	out io.Writer
}

func DefaultLoginOptions() *LoginOptions {
	return &LoginOptions{
		GlobalOptions: DefaultGlobalOptions(),
		out:           os.Stdout,
	}
}

func NewCmdLogin() *cobra.Command {
	o := DefaultLoginOptions()
	cmd := &cobra.Command{
		Use:     "login URL",
		Short:   "Save the backend address in the client config file.",
		Example: "login http://localhost:8000",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *LoginOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigFilePath, "config", "c", o.ConfigFilePath, "Path to the client config file.")
}

func (o *LoginOptions) Validate(args []string) error {
	if o.ConfigFilePath == "" {
		return fmt.Errorf("config file path is empty")
	}
	return nil
}

func (o *LoginOptions) Run(ctx context.Context, args []string) error {
	if err := backend.WriteConfig(o.ConfigFilePath, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(o.out, "Backend %s saved to %s\n", args[0], o.ConfigFilePath)
	return nil
}
