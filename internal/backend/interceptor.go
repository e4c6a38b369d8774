package backend

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/salesdeck/insight-console/internal/kind"
	"github.com/salesdeck/insight-console/internal/tracker"
)

// Status is the connectivity of a backend as seen by its last calls.
type Status struct {
	Connected bool      `json:"connected"`
	LastError string    `json:"last_error,omitempty"`
	LastSeen  time.Time `json:"last_seen,omitempty"`
}

// Interceptor wraps a backend and records whether it is reachable.
type Interceptor struct {
	backend tracker.Backend
	status  Status
	l       sync.Mutex
}

var _ tracker.Backend = (*Interceptor)(nil)

func NewInterceptor(backend tracker.Backend) *Interceptor {
	return &Interceptor{
		backend: backend,
		status:  Status{Connected: false},
	}
}

func (i *Interceptor) GetStatus() Status {
	i.l.Lock()
	defer i.l.Unlock()
	return i.status
}

func (i *Interceptor) SubmitJob(ctx context.Context, payload kind.Payload) (tracker.Ack, error) {
	ack, err := i.backend.SubmitJob(ctx, payload)
	i.record(err)
	return ack, err
}

func (i *Interceptor) ListResults(ctx context.Context) ([]tracker.Result, error) {
	results, err := i.backend.ListResults(ctx)
	i.record(err)
	return results, err
}

func (i *Interceptor) DeleteResult(ctx context.Context, id string) error {
	err := i.backend.DeleteResult(ctx, id)
	i.record(err)
	return err
}

func (i *Interceptor) record(err error) {
	i.l.Lock()
	defer i.l.Unlock()

	if err == nil {
		i.status = Status{Connected: true, LastSeen: time.Now()}
		return
	}

	var netOpErr *net.OpError
	if errors.As(err, &netOpErr) {
		i.status.Connected = false
		i.status.LastError = err.Error()
		return
	}
	// the backend answered, even if with an error
	i.status.Connected = true
	i.status.LastError = err.Error()
	i.status.LastSeen = time.Now()
}
