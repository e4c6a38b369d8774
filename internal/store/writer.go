package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/salesdeck/insight-console/internal/store/model"
)

const notificationEventPrefix = "insight.console.notification."

// HistoryWriter records notification events. It satisfies the event
// producer Writer interface.
type HistoryWriter struct {
	history History
}

func NewHistoryWriter(s Store) *HistoryWriter {
	return &HistoryWriter{history: s.History()}
}

func (w *HistoryWriter) Write(ctx context.Context, _ string, e cloudevents.Event) error {
	if !strings.HasPrefix(e.Type(), notificationEventPrefix) {
		return nil
	}

	var record model.History
	if err := e.DataAs(&record); err != nil {
		return fmt.Errorf("failed to decode notification %s: %w", e.ID(), err)
	}
	record.EventID = e.ID()
	if record.Time.IsZero() {
		record.Time = e.Time()
	}

	if _, err := w.history.Create(ctx, record); err != nil && !errors.Is(err, ErrDuplicateKey) {
		return fmt.Errorf("failed to record notification %s: %w", e.ID(), err)
	}
	return nil
}

func (w *HistoryWriter) Close(_ context.Context) error {
	return nil
}
