package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/salesdeck/insight-console/internal/kind"
	"github.com/salesdeck/insight-console/internal/tracker"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
	"sigs.k8s.io/yaml"
)

const (
	jsonFormat = "json"
	yamlFormat = "yaml"

	previewRunes = 60
)

var (
	legalOutputTypes = []string{jsonFormat, yamlFormat}
)

type GetOptions struct {
	GlobalOptions

	Output string
	out    io.Writer
}

func DefaultGetOptions() *GetOptions {
	return &GetOptions{
		GlobalOptions: DefaultGlobalOptions(),
		out:           os.Stdout,
	}
}

func NewCmdGet() *cobra.Command {
	o := DefaultGetOptions()
	cmd := &cobra.Command{
		Use:     "get (KIND | KIND/ID)",
		Short:   "Display one or many generated results.",
		Example: "get icebreakers\nget transcript/42 -o yaml",
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

func (o *GetOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
}

func (o *GetOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}
	return nil
}

func (o *GetOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}

	_, _, err := parseAndValidateKindId(args[0])
	if err != nil {
		return err
	}

	if len(o.Output) > 0 && !funk.Contains(legalOutputTypes, o.Output) {
		return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
	}

	return nil
}

func (o *GetOptions) Run(ctx context.Context, args []string) error {
	k, id, err := parseAndValidateKindId(args[0])
	if err != nil {
		return err
	}
	c, err := o.Client(k)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	// the backend only serves the whole collection
	results, err := c.ListResults(ctx)
	if err != nil {
		return fmt.Errorf("listing %s: %w", plural(k), err)
	}
	tracker.SortResults(results)

	if id != "" {
		found := funk.Filter(results, func(r tracker.Result) bool { return r.ID == id }).([]tracker.Result)
		if len(found) == 0 {
			return fmt.Errorf("%s/%s not found", k.Name, id)
		}
		return o.print(k, found[0])
	}
	return o.print(k, results...)
}

func (o *GetOptions) print(k kind.Kind, results ...tracker.Result) error {
	var v any = results
	if len(results) == 1 && o.Output != "" {
		v = results[0]
	}

	switch o.Output {
	case jsonFormat:
		marshalled, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshalling results: %w", err)
		}
		fmt.Fprintf(o.out, "%s\n", string(marshalled))
		return nil
	case yamlFormat:
		marshalled, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshalling results: %w", err)
		}
		fmt.Fprintf(o.out, "%s\n", string(marshalled))
		return nil
	default:
		w := tabwriter.NewWriter(o.out, 0, 8, 1, '\t', 0)
		printResultsTable(w, k, results...)
		return w.Flush()
	}
}

func printResultsTable(w io.Writer, k kind.Kind, results ...tracker.Result) {
	fmt.Fprintln(w, "ID\tLABEL\tGENERATED\tOUTPUT")
	for _, r := range results {
		generated := "-"
		if !r.GeneratedAt.IsZero() {
			generated = r.GeneratedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, k.Label(r.Fields), generated, preview(r.Output))
	}
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > previewRunes {
		return string(r[:previewRunes]) + "…"
	}
	return s
}
