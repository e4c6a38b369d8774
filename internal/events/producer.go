package events

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"github.com/salesdeck/insight-console/internal/tracker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	NotificationMessageKind string = "insight.console.notification"
	defaultTopic            string = "insight.console.events"
	defaultSource           string = "insight-console"
	defaultCapacity         int    = 1024
)

// Writer is the interface to be implemented by the underlying writer.
type Writer interface {
	Write(ctx context.Context, topic string, e cloudevents.Event) error
	Close(ctx context.Context) error
}

var _ tracker.Notifier = (*EventProducer)(nil)

// EventProducer is a wrapper around a Writer with a buffer, so callers never
// wait on the writer.
type EventProducer struct {
	buffer           *buffer
	startConsumingCh chan struct{}
	doneCh           chan struct{}
	stoppedCh        chan struct{}
	closeOnce        sync.Once
	writer           Writer
	topic            string
	source           string
}

func NewEventProducer(w Writer, opts ...ProducerOptions) *EventProducer {
	ep := &EventProducer{
		buffer:           newBuffer(defaultCapacity),
		startConsumingCh: make(chan struct{}, 1),
		doneCh:           make(chan struct{}),
		stoppedCh:        make(chan struct{}),
		writer:           w,
		topic:            defaultTopic,
		source:           defaultSource,
	}

	for _, o := range opts {
		o(ep)
	}

	go ep.run()
	return ep
}

// Write queues an event of the given kind. It only fails when the buffer is full.
func (ep *EventProducer) Write(ctx context.Context, kind string, body io.Reader) error {
	return ep.write(kind, "", body)
}

// Notify turns a tracker notification into an event. It never blocks.
func (ep *EventProducer) Notify(ctx context.Context, n tracker.Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		zap.S().Named("event_producer").Errorw("failed to encode notification", "error", err)
		return
	}
	if err := ep.write(NotificationMessageKind+"."+string(n.Type), n.View, bytes.NewReader(data)); err != nil {
		zap.S().Named("event_producer").Warnw("notification dropped", "type", n.Type, "view", n.View, "error", err)
	}
}

func (ep *EventProducer) write(kind, subject string, body io.Reader) error {
	d, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	if err := ep.buffer.PushBack(&message{
		Kind:    kind,
		Subject: subject,
		Data:    d,
	}); err != nil {
		return err
	}

	// wake the consumer up; a pending signal is enough
	select {
	case ep.startConsumingCh <- struct{}{}:
	default:
	}

	return nil
}

// Close writes what is still buffered then closes the writer.
func (ep *EventProducer) Close() error {
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g, ctx := errgroup.WithContext(closeCtx)
	g.Go(func() error {
		ep.closeOnce.Do(func() { close(ep.doneCh) })
		select {
		case <-ep.stoppedCh:
		case <-ctx.Done():
			return ctx.Err()
		}
		return ep.writer.Close(ctx)
	})
	if err := g.Wait(); err != nil {
		zap.S().Errorf("event producer closed with error: %s", err)
		return err
	}

	zap.S().Named("event_producer").Info("event producer closed")

	return nil
}

func (ep *EventProducer) run() {
	defer close(ep.stoppedCh)

	for {
		for msg := ep.buffer.Pop(); msg != nil; msg = ep.buffer.Pop() {
			ep.send(msg)
		}

		select {
		case <-ep.startConsumingCh:
		case <-ep.doneCh:
			for msg := ep.buffer.Pop(); msg != nil; msg = ep.buffer.Pop() {
				ep.send(msg)
			}
			return
		}
	}
}

func (ep *EventProducer) send(msg *message) {
	e := cloudevents.NewEvent()
	e.SetID(uuid.NewString())
	e.SetSource(ep.source)
	e.SetType(msg.Kind)
	e.SetTime(time.Now())
	if msg.Subject != "" {
		e.SetSubject(msg.Subject)
	}
	_ = e.SetData(*cloudevents.StringOfApplicationJSON(), msg.Data)

	if err := ep.writer.Write(context.TODO(), ep.topic, e); err != nil {
		zap.S().Named("event_producer").Errorw("failed to write event", "error", err, "event", e.ID())
	}
}
