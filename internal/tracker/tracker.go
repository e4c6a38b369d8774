// Package tracker follows jobs submitted to a backend that has no job ids
// and no push channel. Submitted jobs wait in a registry as pending entries
// while a poll loop re-fetches the backend result collection and pairs new
// results with pending entries by the content that was submitted. Entries
// leave the registry when matched, when their timeout elapses, when the user
// cancels them, or when the poll loop reaches its retry ceiling.
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/salesdeck/insight-console/internal/kind"
	"github.com/salesdeck/insight-console/internal/validator"
	"github.com/salesdeck/insight-console/pkg/metrics"
	"go.uber.org/zap"
)

const defaultFetchTimeout = 10 * time.Second

type Config struct {
	PollInterval time.Duration `json:"poll-interval" validate:"positive_duration"`
	MaxRetries   int           `json:"max-retries" validate:"gt=0"`
	Rules        Rules         `json:"rules"`
	// FetchTimeout bounds a single backend call made by the poll loop.
	FetchTimeout time.Duration `json:"fetch-timeout" validate:"positive_duration"`
}

func NewDefaultConfig() Config {
	return Config{
		PollInterval: DefaultPollInterval,
		MaxRetries:   DefaultMaxRetries,
		Rules:        DefaultRules(),
		FetchTimeout: defaultFetchTimeout,
	}
}

func (c Config) Validate() error {
	v := validator.NewValidator()
	v.Register(validator.NewTrackerValidationRules()...)
	return v.Struct(c)
}

type Option func(t *Tracker)

func WithClock(c Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

func WithTickerFactory(f TickerFactory) Option {
	return func(t *Tracker) { t.newTicker = f }
}

func WithMatcher(m Matcher) Option {
	return func(t *Tracker) { t.matcher = m }
}

func WithNotifier(n Notifier) Option {
	return func(t *Tracker) { t.notifier = n }
}

// Tracker is the job tracking engine of one view. It owns the pending
// registry, the result store and the poll loop of that view.
type Tracker struct {
	kind      kind.Kind
	backend   Backend
	cfg       Config
	clock     Clock
	newTicker TickerFactory
	matcher   Matcher
	notifier  Notifier

	registry *Registry
	results  *ResultStore
	poller   *Poller

	ctx    context.Context
	cancel context.CancelFunc
}

func New(k kind.Kind, backend Backend, cfg Config, opts ...Option) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tracker configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Tracker{
		kind:      k,
		backend:   backend,
		cfg:       cfg,
		clock:     realClock{},
		newTicker: NewJitterTicker,
		matcher:   FingerprintMatcher{},
		notifier:  discardNotifier{},
		registry:  NewRegistry(),
		results:   NewResultStore(),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, o := range opts {
		o(t)
	}
	t.poller = newPoller(ctx, k.Name, cfg.PollInterval, cfg.MaxRetries, t.newTicker, t)

	return t, nil
}

func (t *Tracker) Kind() kind.Kind {
	return t.kind
}

// Submit validates the payload, snapshots the current results, sends the
// payload to the backend and, once the backend accepted it, inserts a queued
// pending job and makes sure the poll loop runs. Only results absent from the
// snapshot can complete the job. On any error the registry is left untouched.
func (t *Tracker) Submit(ctx context.Context, payload kind.Payload) (PendingJob, error) {
	if err := t.kind.Validate(payload); err != nil {
		metrics.IncreaseJobsSubmittedTotalMetric(t.kind.Name, metrics.SubmissionInvalid)
		return PendingJob{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	payload = t.kind.Normalize(payload)

	var ack Ack
	existing, err := t.snapshotIDs(ctx)
	if err == nil {
		ack, err = t.backend.SubmitJob(ctx, payload)
		if err == nil && !ack.Accepted {
			err = ErrNotAccepted
		}
	}
	if err != nil {
		metrics.IncreaseJobsSubmittedTotalMetric(t.kind.Name, metrics.SubmissionRejected)
		zap.S().Named("tracker").Warnw("submission rejected", "view", t.kind.Name, "error", err)
		t.notify(ctx, Notification{
			Type:     NotificationSubmissionRejected,
			Severity: SeverityError,
			Title:    "Error",
			Message:  fmt.Sprintf("Failed to submit %s: %v", t.kind.Title, err),
		})
		return PendingJob{}, fmt.Errorf("%w: %w", ErrSubmissionRejected, err)
	}

	job := PendingJob{
		ID:          uuid.New(),
		Kind:        t.kind.Name,
		Label:       t.kind.Label(payload),
		Fingerprint: fingerprintOf(t.kind, payload),
		SubmittedAt: t.clock.Now(),
		Status:      StatusQueued,
		Payload:     payload,
		QueueToken:  ack.QueueToken,
		existing:    existing,
	}
	t.registry.Insert(job)
	metrics.IncreaseJobsSubmittedTotalMetric(t.kind.Name, metrics.SubmissionAccepted)
	metrics.UpdatePendingJobsCountMetric(t.kind.Name, t.registry.Len())

	t.notify(ctx, Notification{
		Type:     NotificationQueued,
		Severity: SeverityInfo,
		JobID:    job.ID.String(),
		Title:    "Queued",
		Message:  fmt.Sprintf("%s for %s is queued. It will appear below once it is ready.", t.kind.Title, job.Label),
	})

	t.poller.Ensure()
	return job, nil
}

// snapshotIDs fetches the result collection and returns the ids it holds.
// The result store is left to the poll loop so a snapshot older than the
// last tick never drops a claim. When the fetch fails the last loaded
// snapshot is used; with none loaded the submission cannot be told apart
// from older results and is refused.
func (t *Tracker) snapshotIDs(ctx context.Context) (map[string]struct{}, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, t.cfg.FetchTimeout)
	results, err := t.backend.ListResults(fetchCtx)
	cancel()
	switch {
	case err == nil:
	case t.results.Loaded():
		zap.S().Named("tracker").Warnw("failed to fetch results before submission, using the last snapshot", "view", t.kind.Name, "error", err)
		results = t.results.List()
	default:
		return nil, fmt.Errorf("%w: %w", ErrNoSnapshot, err)
	}

	ids := make(map[string]struct{}, len(results))
	for _, r := range results {
		ids[r.ID] = struct{}{}
	}
	return ids, nil
}

// Cancel drops a pending job from the view. The backend is not told: the job
// may still complete server side and show up in the results.
func (t *Tracker) Cancel(ctx context.Context, id uuid.UUID) (PendingJob, error) {
	job, ok := t.registry.Remove(id)
	if !ok {
		return PendingJob{}, ErrJobNotFound
	}
	metrics.AddJobsRetiredTotalMetric(t.kind.Name, string(NotificationCancelled), 1)
	metrics.UpdatePendingJobsCountMetric(t.kind.Name, t.registry.Len())
	t.poller.StopIfIdle()

	t.notify(ctx, Notification{
		Type:     NotificationCancelled,
		Severity: SeverityInfo,
		JobID:    job.ID.String(),
		Title:    "Removed",
		Message:  fmt.Sprintf("%s for %s was removed from the queue view.", t.kind.Title, job.Label),
	})
	return job, nil
}

// Refresh reloads the result collection from the backend.
func (t *Tracker) Refresh(ctx context.Context) error {
	results, err := t.backend.ListResults(ctx)
	if err != nil {
		return fmt.Errorf("failed to load %s results: %w", t.kind.Name, err)
	}
	t.results.Replace(results)
	return nil
}

// DeleteResult deletes a result on the backend then drops it locally.
func (t *Tracker) DeleteResult(ctx context.Context, id string) error {
	if err := t.backend.DeleteResult(ctx, id); err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", t.kind.Name, id, err)
	}
	t.results.Remove(id)

	t.notify(ctx, Notification{
		Type:     NotificationResultDeleted,
		Severity: SeverityInfo,
		ResultID: id,
		Title:    "Deleted",
		Message:  fmt.Sprintf("%s deleted successfully", t.kind.Title),
	})
	return nil
}

func (t *Tracker) Pending() []PendingJob {
	return t.registry.List()
}

func (t *Tracker) Get(id uuid.UUID) (PendingJob, bool) {
	return t.registry.Get(id)
}

func (t *Tracker) Results() []Result {
	return t.results.List()
}

// ResultsLoaded reports whether the result collection was fetched at least once.
func (t *Tracker) ResultsLoaded() bool {
	return t.results.Loaded()
}

func (t *Tracker) Polling() bool {
	return t.poller.Running()
}

// Close stops the poll loop. Pending jobs are kept but no longer tracked.
func (t *Tracker) Close() {
	t.poller.Stop()
	t.cancel()
}

func (t *Tracker) step(ctx context.Context) {
	metrics.IncreasePollTicksTotalMetric(t.kind.Name)

	t.registry.Advance(t.clock.Now(), t.cfg.Rules)

	fetchCtx, cancel := context.WithTimeout(ctx, t.cfg.FetchTimeout)
	results, err := t.backend.ListResults(fetchCtx)
	cancel()
	if err != nil {
		// nothing new this tick; the tick still counts toward the ceiling
		metrics.IncreasePollFetchFailuresTotalMetric(t.kind.Name)
		zap.S().Named("tracker").Warnw("failed to fetch results", "view", t.kind.Name, "error", err)
	} else {
		t.results.Replace(results)
		t.reconcile(ctx)
	}

	t.retireTimedOut(ctx)
	metrics.UpdatePendingJobsCountMetric(t.kind.Name, t.registry.Len())
}

// reconcile removes every pending job paired with a result. A job marked as
// timed out earlier in the same tick can still be matched.
func (t *Tracker) reconcile(ctx context.Context) {
	matches := pair(t.registry.List(), t.results.List(), t.results.Claimed, t.matcher)
	for _, m := range matches {
		// the job may have been cancelled while the results were fetched
		if _, ok := t.registry.Remove(m.job.ID); !ok {
			continue
		}
		t.results.Claim(m.result.ID)
		metrics.AddJobsRetiredTotalMetric(t.kind.Name, string(NotificationMatched), 1)
		zap.S().Named("tracker").Debugw("pending job matched", "view", t.kind.Name, "job", m.job.ID, "result", m.result.ID)

		t.notify(ctx, Notification{
			Type:     NotificationMatched,
			Severity: SeverityInfo,
			JobID:    m.job.ID.String(),
			ResultID: m.result.ID,
			Title:    "Success!",
			Message:  fmt.Sprintf("%s for %s is ready.", t.kind.Title, m.job.Label),
		})
	}
}

func (t *Tracker) retireTimedOut(ctx context.Context) {
	expired := t.registry.RemoveIf(func(j PendingJob) bool {
		return j.Status == StatusTimedOut
	})
	if len(expired) == 0 {
		return
	}
	metrics.AddJobsRetiredTotalMetric(t.kind.Name, string(NotificationTimedOut), len(expired))

	for _, j := range expired {
		t.notify(ctx, Notification{
			Type:     NotificationTimedOut,
			Severity: SeverityWarning,
			JobID:    j.ID.String(),
			Title:    "Still processing",
			Message: fmt.Sprintf("%s for %s did not show up within %s. Refresh later to check the results.",
				t.kind.Title, j.Label, t.cfg.Rules.Timeout),
		})
	}
}

func (t *Tracker) clearAll(ctx context.Context) {
	cleared := t.registry.Clear()
	metrics.UpdatePendingJobsCountMetric(t.kind.Name, 0)
	if len(cleared) == 0 {
		return
	}
	metrics.AddJobsRetiredTotalMetric(t.kind.Name, string(NotificationCeilingExhausted), len(cleared))

	t.notify(ctx, Notification{
		Type:     NotificationCeilingExhausted,
		Severity: SeverityWarning,
		Title:    "Stopped waiting",
		Message: fmt.Sprintf("Stopped checking on %d pending %s job(s) after %d attempts. Refresh manually to see new results.",
			len(cleared), t.kind.Name, t.cfg.MaxRetries),
		Count: len(cleared),
	})
}

func (t *Tracker) idle() bool {
	return t.registry.Len() == 0
}

func (t *Tracker) notify(ctx context.Context, n Notification) {
	n.View = t.kind.Name
	if n.Time.IsZero() {
		n.Time = t.clock.Now()
	}
	t.notifier.Notify(ctx, n)
}
