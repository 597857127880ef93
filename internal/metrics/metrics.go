package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Notifications counts reminder pipeline activity.
type Notifications struct {
	runs        prometheus.Counter
	runFailures prometheus.Counter
	sent        prometheus.Counter
	sendFailed  prometheus.Counter
	skipped     prometheus.Counter
	runDuration prometheus.Histogram
}

func NewNotifications(reg prometheus.Registerer) *Notifications {
	m := &Notifications{
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminder_runs_total",
			Help: "Number of started reminder runs",
		}),
		runFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminder_run_failures_total",
			Help: "Number of reminder runs aborted before dispatch",
		}),
		sent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminder_emails_sent_total",
			Help: "Number of reminder emails sent",
		}),
		sendFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminder_emails_failed_total",
			Help: "Number of reminder emails that failed to send",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminder_tasks_skipped_total",
			Help: "Number of due tasks skipped because the owner could not be resolved",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reminder_run_duration_seconds",
			Help:    "Duration of reminder runs",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.runs, m.runFailures, m.sent, m.sendFailed, m.skipped, m.runDuration)
	return m
}

func (m *Notifications) RunStarted() {
	m.runs.Inc()
}

func (m *Notifications) RunFailed() {
	m.runFailures.Inc()
}

func (m *Notifications) Sent() {
	m.sent.Inc()
}

func (m *Notifications) SendFailed() {
	m.sendFailed.Inc()
}

func (m *Notifications) OwnersSkipped(n int) {
	m.skipped.Add(float64(n))
}

func (m *Notifications) RunDuration(d time.Duration) {
	m.runDuration.Observe(d.Seconds())
}
