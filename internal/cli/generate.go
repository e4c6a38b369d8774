package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/salesdeck/insight-console/internal/kind"
	"github.com/salesdeck/insight-console/internal/tracker"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
)

const (
	pitchDeckField  = "pitch_deck"
	transcriptField = "transcript"
)

type GenerateOptions struct {
	GlobalOptions
	// Fields are set verbatim, Files are read from disk, keyed by field name.
	Fields         map[string]string
	Files          map[string]string
	PitchDeckFile  string
	TranscriptFile string

	Wait         bool
	PollInterval time.Duration
	MaxRetries   int
	Timeout      time.Duration

	out          io.Writer
	notification chan tracker.Notification
}

func DefaultGenerateOptions() *GenerateOptions {
	return &GenerateOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Fields:        map[string]string{},
		Files:         map[string]string{},
		Wait:          true,
		PollInterval:  tracker.DefaultPollInterval,
		MaxRetries:    tracker.DefaultMaxRetries,
		Timeout:       tracker.DefaultTimeout,
		out:           os.Stdout,
	}
}

func NewCmdGenerate() *cobra.Command {
	o := DefaultGenerateOptions()
	cmd := &cobra.Command{
		Use:   "generate KIND [FLAGS]",
		Short: "Submit a generation job and wait for its result",
		Example: "generate icebreaker --set company_name=Acme --set linkedin_bio='Founder at Acme' --pitch-deck-file deck.txt\n" +
			"generate transcript --transcript-file call.txt --set company=Acme --wait=false",
		Args: cobra.ExactArgs(1),
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

func (o *GenerateOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringToStringVarP(&o.Fields, "set", "s", o.Fields, "Submitted field as name=value. Can be repeated.")
	fs.StringToStringVar(&o.Files, "from-file", o.Files, "Submitted field read from a text file, as name=path. Can be repeated.")
	fs.StringVar(&o.PitchDeckFile, "pitch-deck-file", o.PitchDeckFile, "Text file holding the pitch deck of an icebreaker.")
	fs.StringVar(&o.TranscriptFile, "transcript-file", o.TranscriptFile, "Text file holding the transcript to analyse.")
	fs.BoolVarP(&o.Wait, "wait", "w", o.Wait, "Wait for the result to show up.")
	fs.DurationVar(&o.PollInterval, "poll-interval", o.PollInterval, "Interval between two result fetches while waiting.")
	fs.IntVar(&o.MaxRetries, "max-retries", o.MaxRetries, "Number of fetches before giving up.")
	fs.DurationVar(&o.Timeout, "timeout", o.Timeout, "Time after which a job not seen in the results is reported as still processing.")
}

func (o *GenerateOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}
	if o.PitchDeckFile != "" {
		o.Files[pitchDeckField] = o.PitchDeckFile
	}
	if o.TranscriptFile != "" {
		o.Files[transcriptField] = o.TranscriptFile
	}
	return nil
}

func (o *GenerateOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}

	k, id, err := parseAndValidateKindId(args[0])
	if err != nil {
		return err
	}
	if id != "" {
		return fmt.Errorf("generate takes a kind, not a result: %s", args[0])
	}
	for name := range o.Files {
		if !funk.ContainsString(k.Fields, name) {
			return fmt.Errorf("unknown field %q for %s", name, k.Name)
		}
		if _, ok := o.Fields[name]; ok {
			return fmt.Errorf("field %q is set both inline and from a file", name)
		}
	}
	if o.Wait {
		if _, err := o.trackerConfig(); err != nil {
			return err
		}
	}
	return nil
}

func (o *GenerateOptions) trackerConfig() (tracker.Config, error) {
	cfg := tracker.NewDefaultConfig()
	cfg.PollInterval = o.PollInterval
	cfg.MaxRetries = o.MaxRetries
	cfg.Rules.Timeout = o.Timeout
	if err := cfg.Validate(); err != nil {
		return tracker.Config{}, fmt.Errorf("invalid wait settings: %w", err)
	}
	return cfg, nil
}

func (o *GenerateOptions) payload() (kind.Payload, error) {
	p := make(kind.Payload, len(o.Fields)+len(o.Files))
	for name, value := range o.Fields {
		p[name] = value
	}
	for name, path := range o.Files {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		p[name] = strings.TrimSpace(string(content))
	}
	return p, nil
}

func (o *GenerateOptions) Run(ctx context.Context, args []string) error {
	k, _, err := parseAndValidateKindId(args[0])
	if err != nil {
		return err
	}
	payload, err := o.payload()
	if err != nil {
		return err
	}
	c, err := o.Client(k)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	if !o.Wait {
		if err := k.Validate(payload); err != nil {
			return fmt.Errorf("%w: %w", tracker.ErrValidation, err)
		}
		ack, err := c.SubmitJob(ctx, k.Normalize(payload))
		if err == nil && !ack.Accepted {
			err = tracker.ErrNotAccepted
		}
		if err != nil {
			return fmt.Errorf("submitting %s: %w", k.Name, err)
		}
		fmt.Fprintf(o.out, "%s for %s submitted\n", k.Title, k.Label(payload))
		return nil
	}

	cfg, err := o.trackerConfig()
	if err != nil {
		return err
	}
	o.notification = make(chan tracker.Notification, 16)
	tr, err := tracker.New(k, c, cfg, tracker.WithNotifier(tracker.NotifierFunc(o.forward)))
	if err != nil {
		return err
	}
	defer tr.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	job, err := tr.Submit(ctx, payload)
	if err != nil {
		return err
	}
	return o.wait(ctx, tr, job)
}

// forward hands notifications from the tracker to the waiting command.
func (o *GenerateOptions) forward(ctx context.Context, n tracker.Notification) {
	select {
	case o.notification <- n:
	case <-ctx.Done():
	}
}

func (o *GenerateOptions) wait(ctx context.Context, tr *tracker.Tracker, job tracker.PendingJob) error {
	for {
		select {
		case <-ctx.Done():
			if _, err := tr.Cancel(context.Background(), job.ID); err == nil {
				fmt.Fprintln(o.out, "Stopped waiting. The job may still complete, check it later with \"insightctl get\".")
			}
			return ctx.Err()
		case n := <-o.notification:
			if n.JobID != "" && n.JobID != job.ID.String() {
				continue
			}
			if n.Type == tracker.NotificationCancelled {
				continue
			}
			fmt.Fprintf(o.out, "%s: %s\n", n.Title, n.Message)

			switch n.Type {
			case tracker.NotificationMatched:
				return o.printResult(tr, n.ResultID)
			case tracker.NotificationTimedOut, tracker.NotificationCeilingExhausted:
				return fmt.Errorf("no result for %s after waiting", job.Label)
			}
		}
	}
}

func (o *GenerateOptions) printResult(tr *tracker.Tracker, id string) error {
	for _, r := range tr.Results() {
		if r.ID != id {
			continue
		}
		fmt.Fprintf(o.out, "\n%s\n", r.Output)
		return nil
	}
	return fmt.Errorf("result %s is gone", id)
}
