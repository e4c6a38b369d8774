package tracker

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/salesdeck/insight-console/internal/kind"
)

type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusTimedOut   Status = "timed-out"
	// StatusMatched is only ever an outcome: matched jobs leave the registry.
	StatusMatched Status = "matched"
)

func (s Status) Terminal() bool {
	return s == StatusTimedOut || s == StatusMatched
}

// Field is one fingerprint entry.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Fingerprint []Field

func (f Fingerprint) String() string {
	parts := make([]string, 0, len(f))
	for _, field := range f {
		parts = append(parts, field.Name+"="+field.Value)
	}
	return strings.Join(parts, ",")
}

func fingerprintOf(k kind.Kind, p kind.Payload) Fingerprint {
	fp := make(Fingerprint, 0, len(k.Fingerprint))
	for _, name := range k.Fingerprint {
		fp = append(fp, Field{Name: name, Value: p[name]})
	}
	return fp
}

// PendingJob is the local placeholder of a submitted job whose result has not
// been observed yet.
type PendingJob struct {
	ID          uuid.UUID    `json:"id"`
	Kind        string       `json:"kind"`
	Label       string       `json:"label"`
	Fingerprint Fingerprint  `json:"fingerprint"`
	SubmittedAt time.Time    `json:"submitted_at"`
	Status      Status       `json:"status"`
	Payload     kind.Payload `json:"payload"`
	QueueToken  string       `json:"queue_token,omitempty"`

	// existing holds the ids of the results present before submission.
	existing map[string]struct{}
}

// Predates reports whether the result was already listed when the job was
// submitted, in which case it cannot be the job's completion.
func (j PendingJob) Predates(resultID string) bool {
	_, ok := j.existing[resultID]
	return ok
}

// Result is a job result persisted by the backend.
type Result struct {
	ID          string            `json:"id"`
	Fields      map[string]string `json:"fields"`
	Output      string            `json:"output"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// Ack is the backend answer to a submission.
type Ack struct {
	Accepted   bool
	QueueToken string
}

// Backend is the remote service processing the jobs.
type Backend interface {
	SubmitJob(ctx context.Context, payload kind.Payload) (Ack, error)
	// ListResults returns the complete result collection; there is no paging.
	ListResults(ctx context.Context) ([]Result, error)
	DeleteResult(ctx context.Context, id string) error
}
