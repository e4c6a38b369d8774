package events

import (
	"context"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/salesdeck/insight-console/internal/tracker"
	"go.uber.org/zap"
)

// StdoutWriter logs every event, notifications at the level matching their severity.
type StdoutWriter struct{}

func (s *StdoutWriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	log := zap.S().Named("stdout_writer")
	if !IsNotification(e) {
		log.Infow("event", "type", e.Type(), "subject", e.Subject(), "topic", topic)
		return nil
	}

	n, err := NotificationFromEvent(e)
	if err != nil {
		return err
	}
	fields := []any{"view", n.View, "type", n.Type, "job", n.JobID, "result", n.ResultID, "message", n.Message}
	switch n.Severity {
	case tracker.SeverityError:
		log.Errorw(n.Title, fields...)
	case tracker.SeverityWarning:
		log.Warnw(n.Title, fields...)
	default:
		log.Infow(n.Title, fields...)
	}
	return nil
}

func (s *StdoutWriter) Close(_ context.Context) error {
	return nil
}
