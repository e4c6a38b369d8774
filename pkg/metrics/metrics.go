package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	insightConsole = "insight_console"

	// Job metrics
	jobsSubmittedTotal = "jobs_submitted_total"
	jobsRetiredTotal   = "jobs_retired_total"
	PendingJobsCount   = "pending_jobs_count"

	// Poll metrics
	pollTicksTotal         = "poll_ticks_total"
	pollFetchFailuresTotal = "poll_fetch_failures_total"

	// Labels
	viewLabel    = "view"
	outcomeLabel = "outcome"
)

// Submission outcomes
const (
	SubmissionAccepted = "accepted"
	SubmissionRejected = "rejected"
	SubmissionInvalid  = "invalid"
)

var viewLabels = []string{
	viewLabel,
}

var viewOutcomeLabels = []string{
	viewLabel,
	outcomeLabel,
}

/**
* Metrics definition
**/
var jobsSubmittedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: insightConsole,
		Name:      jobsSubmittedTotal,
		Help:      "number of job submissions partitioned by outcome",
	},
	viewOutcomeLabels,
)

var jobsRetiredTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: insightConsole,
		Name:      jobsRetiredTotal,
		Help:      "number of pending jobs removed from the registry partitioned by outcome",
	},
	viewOutcomeLabels,
)

var pendingJobsCountMetric = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Subsystem: insightConsole,
		Name:      PendingJobsCount,
		Help:      "number of jobs waiting for a result",
	},
	viewLabels,
)

var pollTicksTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: insightConsole,
		Name:      pollTicksTotal,
		Help:      "number of poll ticks run",
	},
	viewLabels,
)

var pollFetchFailuresTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: insightConsole,
		Name:      pollFetchFailuresTotal,
		Help:      "number of poll ticks whose result fetch failed",
	},
	viewLabels,
)

func IncreaseJobsSubmittedTotalMetric(view, outcome string) {
	labels := prometheus.Labels{
		viewLabel:    view,
		outcomeLabel: outcome,
	}
	jobsSubmittedTotalMetric.With(labels).Inc()
}

func AddJobsRetiredTotalMetric(view, outcome string, count int) {
	labels := prometheus.Labels{
		viewLabel:    view,
		outcomeLabel: outcome,
	}
	jobsRetiredTotalMetric.With(labels).Add(float64(count))
}

func UpdatePendingJobsCountMetric(view string, count int) {
	labels := prometheus.Labels{
		viewLabel: view,
	}
	pendingJobsCountMetric.With(labels).Set(float64(count))
}

func IncreasePollTicksTotalMetric(view string) {
	pollTicksTotalMetric.With(prometheus.Labels{viewLabel: view}).Inc()
}

func IncreasePollFetchFailuresTotalMetric(view string) {
	pollFetchFailuresTotalMetric.With(prometheus.Labels{viewLabel: view}).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(jobsSubmittedTotalMetric)
	prometheus.MustRegister(jobsRetiredTotalMetric)
	prometheus.MustRegister(pendingJobsCountMetric)
	prometheus.MustRegister(pollTicksTotalMetric)
	prometheus.MustRegister(pollFetchFailuresTotalMetric)
}
