package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

type DeleteOptions struct {
	GlobalOptions
	out io.Writer
}

func DefaultDeleteOptions() *DeleteOptions {
	return &DeleteOptions{
		GlobalOptions: DefaultGlobalOptions(),
		out:           os.Stdout,
	}
}

func NewCmdDelete() *cobra.Command {
	o := DefaultDeleteOptions()
	cmd := &cobra.Command{
		Use:     "delete KIND/ID [KIND/ID...]",
		Short:   "Delete generated results.",
		Example: "delete icebreaker/42 transcript/7",
		Args:    cobra.MinimumNArgs(1),
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

func (o *DeleteOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
}

func (o *DeleteOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}

	return nil
}

func (o *DeleteOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}

	for _, arg := range args {
		_, id, err := parseAndValidateKindId(arg)
		if err != nil {
			return err
		}
		if id == "" {
			return fmt.Errorf("a result id is required: KIND/ID, got %s", arg)
		}
	}
	return nil
}

// Run deletes every result and reports all failures together.
func (o *DeleteOptions) Run(ctx context.Context, args []string) error {
	var errs []error
	for _, arg := range args {
		if err := o.deleteOne(ctx, arg); err != nil {
			errs = append(errs, err)
		}
	}
	return utilerrors.NewAggregate(errs)
}

func (o *DeleteOptions) deleteOne(ctx context.Context, arg string) error {
	k, id, err := parseAndValidateKindId(arg)
	if err != nil {
		return err
	}
	c, err := o.Client(k)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	if err := c.DeleteResult(ctx, id); err != nil {
		return fmt.Errorf("deleting %s/%s: %w", k.Name, id, err)
	}
	fmt.Fprintf(o.out, "%s/%s deleted\n", k.Name, id)
	return nil
}
