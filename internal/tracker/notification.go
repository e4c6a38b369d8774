package tracker

import (
	"context"
	"time"
)

type NotificationType string

const (
	NotificationQueued             NotificationType = "queued"
	NotificationMatched            NotificationType = "matched"
	NotificationTimedOut           NotificationType = "timed-out"
	NotificationCeilingExhausted   NotificationType = "ceiling-exhausted"
	NotificationCancelled          NotificationType = "cancelled"
	NotificationSubmissionRejected NotificationType = "submission-rejected"
	NotificationResultDeleted      NotificationType = "result-deleted"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is a user facing message emitted by a tracker.
type Notification struct {
	Type     NotificationType `json:"type"`
	Severity Severity         `json:"severity"`
	View     string           `json:"view"`
	JobID    string           `json:"job_id,omitempty"`
	ResultID string           `json:"result_id,omitempty"`
	Title    string           `json:"title"`
	Message  string           `json:"message"`
	// Count is the number of jobs an aggregate notification stands for.
	Count int       `json:"count,omitempty"`
	Time  time.Time `json:"time"`
}

// Notifier receives the tracker notifications. Notify is called from the poll
// loop and must not block.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, Notification) {}
