package events

import (
	"context"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// MultiWriter fans every event out to several writers. A failing writer does
// not prevent the others from receiving the event.
type MultiWriter struct {
	writers []Writer
}

func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

func (m *MultiWriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	errs := []error{}
	for _, w := range m.writers {
		if err := w.Write(ctx, topic, e); err != nil {
			errs = append(errs, err)
		}
	}
	return utilerrors.NewAggregate(errs)
}

func (m *MultiWriter) Close(ctx context.Context) error {
	errs := []error{}
	for _, w := range m.writers {
		if err := w.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return utilerrors.NewAggregate(errs)
}
