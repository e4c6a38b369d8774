package events

import (
	"context"
	"strings"
	"sync"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/salesdeck/insight-console/internal/tracker"
)

const defaultFeedSize = 50

// FeedWriter keeps the most recent notifications of every view in memory.
type FeedWriter struct {
	lock  sync.RWMutex
	size  int
	views map[string][]tracker.Notification
}

func NewFeedWriter(size int) *FeedWriter {
	if size <= 0 {
		size = defaultFeedSize
	}
	return &FeedWriter{size: size, views: map[string][]tracker.Notification{}}
}

func (f *FeedWriter) Write(_ context.Context, _ string, e cloudevents.Event) error {
	if !IsNotification(e) {
		return nil
	}
	n, err := NotificationFromEvent(e)
	if err != nil {
		return err
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	feed := append(f.views[n.View], n)
	if len(feed) > f.size {
		feed = feed[len(feed)-f.size:]
	}
	f.views[n.View] = feed
	return nil
}

// Recent returns up to limit notifications of a view, newest first.
func (f *FeedWriter) Recent(view string, limit int) []tracker.Notification {
	f.lock.RLock()
	defer f.lock.RUnlock()

	feed := f.views[view]
	if limit <= 0 || limit > len(feed) {
		limit = len(feed)
	}
	out := make([]tracker.Notification, 0, limit)
	for i := len(feed) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, feed[i])
	}
	return out
}

func (f *FeedWriter) Close(_ context.Context) error {
	return nil
}

func IsNotification(e cloudevents.Event) bool {
	return strings.HasPrefix(e.Type(), NotificationMessageKind+".")
}

func NotificationFromEvent(e cloudevents.Event) (tracker.Notification, error) {
	var n tracker.Notification
	if err := e.DataAs(&n); err != nil {
		return tracker.Notification{}, err
	}
	return n, nil
}
